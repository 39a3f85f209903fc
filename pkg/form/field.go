package form

import (
	"strings"

	"github.com/vango-dev/signup/pkg/vdom"
)

// FieldID returns the element id used for a field's input.
func FieldID(field string) string {
	return "field-" + strings.ReplaceAll(field, ".", "-")
}

// ErrorID returns the element id of a field's error list.
func ErrorID(field string) string {
	return FieldID(field) + "-error"
}

// Field wraps an input element with a label, value binding and error
// display. An empty label falls back to the field's label tag.
// Checkbox inputs are bound through the checked attribute; secret fields
// never render their value.
func (f *Form[T]) Field(name, label string, input *vdom.VNode) *vdom.VNode {
	if label == "" {
		label = f.Label(name)
	}

	id := FieldID(name)
	errs := f.FieldErrors(name)
	hasError := len(errs) > 0

	if input.Props == nil {
		input.Props = make(vdom.Props)
	}
	input.Props["id"] = id
	input.Props["name"] = name

	checkbox := input.Props["type"] == "checkbox"
	switch {
	case checkbox:
		input.Props["checked"] = f.GetBool(name)
	case f.fieldMeta[name].secret:
		delete(input.Props, "value")
	default:
		input.Props["value"] = f.GetString(name)
	}

	input.Props["aria-invalid"] = hasError
	if hasError {
		input.Props["aria-describedby"] = ErrorID(name)
		input.AddClass("field-error")
	}

	errorList := vdom.Ul(
		vdom.ID(ErrorID(name)),
		vdom.Class("field-errors"),
		vdom.AriaLive("polite"),
		vdom.Range(errs, func(msg string, _ int) *vdom.VNode {
			return vdom.Li(vdom.Text(msg))
		}),
	)

	if checkbox {
		return vdom.Div(
			vdom.Class("field", "field-checkbox"),
			vdom.ClassIf(hasError, "field-invalid"),
			vdom.Data("field", name),
			input,
			vdom.Label(vdom.For(id), vdom.Text(label)),
			errorList,
		)
	}

	return vdom.Div(
		vdom.Class("field"),
		vdom.ClassIf(hasError, "field-invalid"),
		vdom.Data("field", name),
		vdom.Label(vdom.For(id), vdom.Text(label)),
		input,
		errorList,
	)
}
