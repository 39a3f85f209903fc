package form

import (
	"fmt"
	"net/url"
	"reflect"
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

// Validator is an interface for form field validation.
type Validator interface {
	// Validate returns nil if value is valid, or an error whose message is
	// shown to the user.
	Validate(value any) error
}

// CrossFieldValidator is a Validator that compares against other fields.
// The form calls ValidateIn with itself instead of Validate.
type CrossFieldValidator interface {
	Validator
	ValidateIn(form Getter, value any) error
}

// ValidatorFunc is a function that implements Validator.
type ValidatorFunc func(value any) error

func (f ValidatorFunc) Validate(value any) error {
	return f(value)
}

// ValidationError represents a validation failure.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return e.Message
}

// Required validates that the value is non-empty. Whitespace-only strings
// count as empty.
func Required(msg string) Validator {
	if msg == "" {
		msg = "This field is required"
	}
	return ValidatorFunc(func(value any) error {
		if isEmpty(value) {
			return ValidationError{Message: msg}
		}
		return nil
	})
}

// MinLength validates that a string has at least n characters.
func MinLength(n int, msg string) Validator {
	if msg == "" {
		msg = fmt.Sprintf("Must be at least %d characters", n)
	}
	return stringRule(msg, func(s string) bool {
		return len([]rune(s)) >= n
	})
}

// MaxLength validates that a string has at most n characters.
func MaxLength(n int, msg string) Validator {
	if msg == "" {
		msg = fmt.Sprintf("Must be at most %d characters", n)
	}
	return stringRule(msg, func(s string) bool {
		return len([]rune(s)) <= n
	})
}

// Pattern validates that a string matches the given regular expression.
// It panics if pattern does not compile.
func Pattern(pattern string, msg string) Validator {
	re := regexp.MustCompile(pattern)
	if msg == "" {
		msg = "Invalid format"
	}
	return stringRule(msg, re.MatchString)
}

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// Email validates that the value looks like an email address.
func Email(msg string) Validator {
	if msg == "" {
		msg = "Invalid email address"
	}
	return stringRule(msg, emailPattern.MatchString)
}

// URL validates that the value is an absolute URL.
func URL(msg string) Validator {
	if msg == "" {
		msg = "Invalid URL"
	}
	return stringRule(msg, func(s string) bool {
		u, err := url.Parse(s)
		return err == nil && u.Scheme != "" && u.Host != ""
	})
}

// AlphaNumeric validates that the value contains only letters and digits.
func AlphaNumeric(msg string) Validator {
	if msg == "" {
		msg = "Must contain only letters and numbers"
	}
	return stringRule(msg, func(s string) bool {
		for _, r := range s {
			if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
				return false
			}
		}
		return true
	})
}

// Numeric validates that the value contains only digits.
func Numeric(msg string) Validator {
	if msg == "" {
		msg = "Must contain only numbers"
	}
	return stringRule(msg, func(s string) bool {
		for _, r := range s {
			if !unicode.IsDigit(r) {
				return false
			}
		}
		return true
	})
}

// stringRule builds a validator that skips empty strings and fails when ok
// returns false. Required handles empty values.
func stringRule(msg string, ok func(string) bool) Validator {
	return ValidatorFunc(func(value any) error {
		s := toString(value)
		if s == "" {
			return nil
		}
		if !ok(s) {
			return ValidationError{Message: msg}
		}
		return nil
	})
}

// Min validates that a numeric value is >= n.
func Min(n any, msg string) Validator {
	minVal := toFloat64(n)
	if msg == "" {
		msg = fmt.Sprintf("Must be at least %v", n)
	}
	return ValidatorFunc(func(value any) error {
		if isEmpty(value) {
			return nil
		}
		if toFloat64(value) < minVal {
			return ValidationError{Message: msg}
		}
		return nil
	})
}

// Max validates that a numeric value is <= n.
func Max(n any, msg string) Validator {
	maxVal := toFloat64(n)
	if msg == "" {
		msg = fmt.Sprintf("Must be at most %v", n)
	}
	return ValidatorFunc(func(value any) error {
		if isEmpty(value) {
			return nil
		}
		if toFloat64(value) > maxVal {
			return ValidationError{Message: msg}
		}
		return nil
	})
}

// Checked validates that a boolean value is true, as for a consent box.
func Checked(msg string) Validator {
	if msg == "" {
		msg = "This box must be checked"
	}
	return ValidatorFunc(func(value any) error {
		if b, _ := value.(bool); !b {
			return ValidationError{Message: msg}
		}
		return nil
	})
}

// EqualToField checks that a value equals another field of the same form.
type EqualToField struct {
	Field   string
	Message string
}

// EqualTo returns a validator that requires the value to match field.
func EqualTo(field string, msg string) *EqualToField {
	if msg == "" {
		msg = fmt.Sprintf("Must match %s", field)
	}
	return &EqualToField{Field: field, Message: msg}
}

// Validate always passes; the comparison needs a form, see ValidateIn.
func (e *EqualToField) Validate(any) error {
	return nil
}

// ValidateIn compares value with the other field of form. Empty values
// are left to Required.
func (e *EqualToField) ValidateIn(form Getter, value any) error {
	if isEmpty(value) {
		return nil
	}
	if !equals(value, form.Get(e.Field)) {
		return ValidationError{Message: e.Message}
	}
	return nil
}

// NotEqualToField checks that a value differs from another field.
type NotEqualToField struct {
	Field   string
	Message string
}

// NotEqualTo returns a validator that requires the value to differ from field.
func NotEqualTo(field string, msg string) *NotEqualToField {
	if msg == "" {
		msg = fmt.Sprintf("Must not match %s", field)
	}
	return &NotEqualToField{Field: field, Message: msg}
}

// Validate always passes; the comparison needs a form, see ValidateIn.
func (e *NotEqualToField) Validate(any) error {
	return nil
}

// ValidateIn compares value with the other field of form.
func (e *NotEqualToField) ValidateIn(form Getter, value any) error {
	if isEmpty(value) {
		return nil
	}
	if equals(value, form.Get(e.Field)) {
		return ValidationError{Message: e.Message}
	}
	return nil
}

// Custom creates a validator from a custom function.
func Custom(fn func(value any) error) Validator {
	return ValidatorFunc(fn)
}

// isEmpty checks if a value is considered empty.
func isEmpty(value any) bool {
	if value == nil {
		return true
	}
	switch v := value.(type) {
	case string:
		return strings.TrimSpace(v) == ""
	case []byte:
		return len(v) == 0
	default:
		return false
	}
}

// toString converts a value to a string.
func toString(value any) string {
	if value == nil {
		return ""
	}
	switch v := value.(type) {
	case string:
		return v
	case []byte:
		return string(v)
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprintf("%v", v)
	}
}

// toFloat64 converts a value to float64.
func toFloat64(value any) float64 {
	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(rv.Uint())
	case reflect.Float32, reflect.Float64:
		return rv.Float()
	case reflect.String:
		f, _ := strconv.ParseFloat(rv.String(), 64)
		return f
	default:
		return 0
	}
}

// equals compares two values by their printed form.
func equals(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return fmt.Sprintf("%v", a) == fmt.Sprintf("%v", b)
}

// validatorFromTag creates a validator from a tag rule, or nil for rules
// it does not know. An empty msg selects the validator's default message.
func validatorFromTag(name, value string, t reflect.Type, msg string) Validator {
	lengthKind := t != nil && (t.Kind() == reflect.String || t.Kind() == reflect.Slice || t.Kind() == reflect.Map)

	switch name {
	case "required":
		return Required(msg)
	case "min":
		n, err := strconv.Atoi(value)
		if err != nil {
			return nil
		}
		if lengthKind {
			return MinLength(n, msg)
		}
		return Min(n, msg)
	case "max":
		n, err := strconv.Atoi(value)
		if err != nil {
			return nil
		}
		if lengthKind {
			return MaxLength(n, msg)
		}
		return Max(n, msg)
	case "minlen", "minlength":
		if n, err := strconv.Atoi(value); err == nil {
			return MinLength(n, msg)
		}
	case "maxlen", "maxlength":
		if n, err := strconv.Atoi(value); err == nil {
			return MaxLength(n, msg)
		}
	case "email":
		return Email(msg)
	case "url":
		return URL(msg)
	case "alphanum", "alphanumeric":
		return AlphaNumeric(msg)
	case "numeric":
		return Numeric(msg)
	case "pattern", "regex":
		if _, err := regexp.Compile(value); err == nil {
			return Pattern(value, msg)
		}
	case "eqfield":
		if value != "" {
			return EqualTo(value, msg)
		}
	case "nefield":
		if value != "" {
			return NotEqualTo(value, msg)
		}
	case "checked":
		return Checked(msg)
	}
	return nil
}

// parseValidateTag parses a validate tag string into validators. msgFor,
// when set, supplies a custom message per rule name.
// A pattern rule must come last since its expression may contain commas.
func parseValidateTag(tag string, t reflect.Type, msgFor func(rule string) string) []Validator {
	if tag == "" {
		return nil
	}

	var rules []string
	if i := strings.Index(tag, "pattern="); i >= 0 {
		rules = append(strings.Split(tag[:i], ","), tag[i:])
	} else {
		rules = strings.Split(tag, ",")
	}

	validators := make([]Validator, 0, len(rules))
	for _, rule := range rules {
		rule = strings.TrimSpace(rule)
		if rule == "" {
			continue
		}
		ruleName, ruleValue, _ := strings.Cut(rule, "=")
		var msg string
		if msgFor != nil {
			msg = msgFor(ruleName)
		}
		if v := validatorFromTag(ruleName, ruleValue, t, msg); v != nil {
			validators = append(validators, v)
		}
	}
	return validators
}
