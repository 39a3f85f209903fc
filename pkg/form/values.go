package form

import (
	"fmt"
	"net/url"
	"reflect"
	"strconv"
	"strings"
)

// Values returns a copy of the current form values as the typed struct.
func (f *Form[T]) Values() T {
	return f.values.Get()
}

// Get returns the value of a single field by name.
// Nested fields use dot notation (e.g., "address.city").
func (f *Form[T]) Get(field string) any {
	meta, ok := f.fieldMeta[field]
	if !ok {
		return nil
	}
	values := f.values.Get()
	v := reflect.ValueOf(&values).Elem()
	if v.Kind() == reflect.Ptr {
		if v.IsNil() {
			return nil
		}
		v = v.Elem()
	}
	fv, err := v.FieldByIndexErr(meta.index)
	if err != nil || !fv.CanInterface() {
		return nil
	}
	return fv.Interface()
}

// GetString returns a field value as a string.
func (f *Form[T]) GetString(field string) string {
	v := f.Get(field)
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}

// GetBool returns a field value as a bool.
func (f *Form[T]) GetBool(field string) bool {
	b, _ := f.Get(field).(bool)
	return b
}

// Set updates a single field value and marks it dirty. Strings assigned to
// fields tagged sanitize:"strict" pass through the sanitizer first.
// Unknown fields and unconvertible values are ignored.
func (f *Form[T]) Set(field string, value any) {
	meta, ok := f.fieldMeta[field]
	if !ok {
		return
	}
	value = f.sanitize(meta, value)

	f.scope.Batch(func() {
		f.values.Update(func(current T) T {
			setFieldValue(reflect.ValueOf(&current).Elem(), meta.index, value)
			return current
		})
		f.dirty.Update(func(m map[string]bool) map[string]bool {
			return withFlag(m, field)
		})
	})
}

// SetValues replaces all form values with the given struct. String fields
// tagged sanitize:"strict" pass through the sanitizer as in Set and Bind.
func (f *Form[T]) SetValues(values T) {
	target := reflect.ValueOf(&values).Elem()
	for _, field := range f.fields {
		meta := f.fieldMeta[field]
		if !meta.sanitize || meta.fieldType.Kind() != reflect.String {
			continue
		}
		fv, err := fieldByIndex(target, meta.index)
		if err != nil {
			continue
		}
		setFieldValue(target, meta.index, f.sanitize(meta, fv.String()))
	}

	f.scope.Batch(func() {
		f.values.Set(values)
		dirty := make(map[string]bool, len(f.fields))
		for _, field := range f.fields {
			dirty[field] = true
		}
		f.dirty.Set(dirty)
	})
}

// Bind decodes an HTTP form post into the form values. Boolean fields are
// checkboxes: absent means false, "on", "true", "1" and "yes" mean true.
// Other absent fields keep their value. Fields that fail to convert keep
// their value too and the first conversion error is returned.
func (f *Form[T]) Bind(post url.Values) error {
	current := f.values.Get()
	target := reflect.ValueOf(&current).Elem()
	changed := make([]string, 0, len(f.fields))

	var firstErr error
	for _, field := range f.fields {
		meta := f.fieldMeta[field]
		raw, present := post[field]

		if meta.fieldType.Kind() == reflect.Bool {
			on := present && len(raw) > 0 && isTruthy(raw[len(raw)-1])
			setFieldValue(target, meta.index, on)
			changed = append(changed, field)
			continue
		}
		if !present || len(raw) == 0 {
			continue
		}

		value, err := convertString(raw[0], meta.fieldType)
		if err != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf("form: field %q: %w", field, err)
			}
			continue
		}
		setFieldValue(target, meta.index, f.sanitize(meta, value))
		changed = append(changed, field)
	}

	f.scope.Batch(func() {
		f.values.Set(current)
		f.dirty.Update(func(m map[string]bool) map[string]bool {
			out := make(map[string]bool, len(m)+len(changed))
			for k, v := range m {
				out[k] = v
			}
			for _, field := range changed {
				out[field] = true
			}
			return out
		})
	})
	return firstErr
}

func (f *Form[T]) sanitize(meta fieldMeta, value any) any {
	if !meta.sanitize || f.sanitizer == nil {
		return value
	}
	if s, ok := value.(string); ok {
		return f.sanitizer.Sanitize(s)
	}
	return value
}

func isTruthy(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "on", "true", "1", "yes":
		return true
	}
	return false
}

// convertString parses s into a value assignable to t.
func convertString(s string, t reflect.Type) (any, error) {
	switch t.Kind() {
	case reflect.String:
		return s, nil
	case reflect.Bool:
		return isTruthy(s), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if strings.TrimSpace(s) == "" {
			return int64(0), nil
		}
		return strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		if strings.TrimSpace(s) == "" {
			return uint64(0), nil
		}
		return strconv.ParseUint(strings.TrimSpace(s), 10, 64)
	case reflect.Float32, reflect.Float64:
		if strings.TrimSpace(s) == "" {
			return float64(0), nil
		}
		return strconv.ParseFloat(strings.TrimSpace(s), 64)
	default:
		return nil, fmt.Errorf("unsupported kind %s", t.Kind())
	}
}

func fieldByIndex(v reflect.Value, index []int) (reflect.Value, error) {
	if v.Kind() == reflect.Ptr {
		if v.IsNil() {
			return reflect.Value{}, fmt.Errorf("nil pointer")
		}
		v = v.Elem()
	}
	return v.FieldByIndexErr(index)
}

// setFieldValue sets the field at index, converting value when needed.
func setFieldValue(v reflect.Value, index []int, value any) {
	if v.Kind() == reflect.Ptr {
		if v.IsNil() {
			return
		}
		v = v.Elem()
	}
	fieldValue, err := v.FieldByIndexErr(index)
	if err != nil || !fieldValue.CanSet() || value == nil {
		return
	}

	newValue := reflect.ValueOf(value)
	switch {
	case newValue.Type().AssignableTo(fieldValue.Type()):
		fieldValue.Set(newValue)
	case fieldValue.Kind() == reflect.String && newValue.Kind() != reflect.String:
		fieldValue.SetString(fmt.Sprintf("%v", value))
	case newValue.Type().ConvertibleTo(fieldValue.Type()):
		fieldValue.Set(newValue.Convert(fieldValue.Type()))
	}
}
