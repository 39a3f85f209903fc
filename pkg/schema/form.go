package schema

import "github.com/vango-dev/signup/pkg/form"

// FormAdapter lets a Schema validate the values of a form.Form.
type FormAdapter struct {
	schema   *Schema
	messages Messages
}

var _ form.SchemaValidator = (*FormAdapter)(nil)

// FormValidator adapts s for form.WithSchema. messages may be nil.
func FormValidator(s *Schema, messages Messages) *FormAdapter {
	return &FormAdapter{schema: s, messages: messages}
}

// ValidateValues encodes values as JSON, validates them and returns the
// messages grouped by field.
func (a *FormAdapter) ValidateValues(values any) (map[string][]string, error) {
	issues, err := a.schema.ValidateValue(values)
	if err != nil {
		return nil, err
	}
	return a.messages.Group(issues), nil
}
