package form

import "sort"

// Validate runs every validator and the schema validator and returns true
// if the form is valid. Errors replace the previous error set.
func (f *Form[T]) Validate() bool {
	errs := f.collect("")
	f.errors.Set(errs)
	return len(errs) == 0
}

// ValidateField validates a single field, marks it touched and returns true
// if it is valid. Errors of other fields are left untouched.
func (f *Form[T]) ValidateField(field string) bool {
	fieldErrors := f.collect(field)[field]

	f.scope.Batch(func() {
		f.errors.Update(func(m map[string][]string) map[string][]string {
			out := make(map[string][]string, len(m))
			for k, v := range m {
				out[k] = v
			}
			if len(fieldErrors) > 0 {
				out[field] = fieldErrors
			} else {
				delete(out, field)
			}
			return out
		})
		f.touched.Update(func(m map[string]bool) map[string]bool {
			return withFlag(m, field)
		})
	})

	return len(fieldErrors) == 0
}

// collect evaluates validators and returns messages per field. A non-empty
// only restricts the result to that field.
func (f *Form[T]) collect(only string) map[string][]string {
	errs := make(map[string][]string)
	add := func(field, msg string) {
		for _, existing := range errs[field] {
			if existing == msg {
				return
			}
		}
		errs[field] = append(errs[field], msg)
	}

	if f.schema != nil {
		issues, err := f.schema.ValidateValues(f.Values())
		if err != nil && only == "" {
			add("", err.Error())
		}
		fields := make([]string, 0, len(issues))
		for field := range issues {
			fields = append(fields, field)
		}
		sort.Strings(fields)
		for _, field := range fields {
			key := field
			if _, known := f.fieldMeta[field]; !known {
				key = ""
			}
			if only != "" && key != only {
				continue
			}
			for _, msg := range issues[field] {
				add(key, msg)
			}
		}
	}

	f.mu.RLock()
	validators := make(map[string][]Validator, len(f.validators))
	for field, vs := range f.validators {
		if only != "" && field != only {
			continue
		}
		validators[field] = vs
	}
	f.mu.RUnlock()

	for field, vs := range validators {
		value := f.Get(field)
		for _, v := range vs {
			if err := f.run(v, value); err != nil {
				add(field, err.Error())
			}
		}
	}
	return errs
}

// run executes v, handing the form to cross-field validators.
func (f *Form[T]) run(v Validator, value any) error {
	if cv, ok := v.(CrossFieldValidator); ok {
		return cv.ValidateIn(f, value)
	}
	return v.Validate(value)
}

// AddValidators adds validators for a field after construction.
func (f *Form[T]) AddValidators(field string, validators ...Validator) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.validators[field] = append(f.validators[field], validators...)
}

// Errors returns all validation errors keyed by field name.
func (f *Form[T]) Errors() map[string][]string {
	current := f.errors.Get()
	out := make(map[string][]string, len(current))
	for k, v := range current {
		out[k] = append([]string(nil), v...)
	}
	return out
}

// FieldErrors returns validation errors for a specific field.
func (f *Form[T]) FieldErrors(field string) []string {
	return f.errors.Get()[field]
}

// HasError returns true if the field has any validation errors.
func (f *Form[T]) HasError(field string) bool {
	return len(f.errors.Get()[field]) > 0
}

// IsValid returns true if there are no validation errors.
func (f *Form[T]) IsValid() bool {
	return len(f.errors.Get()) == 0
}

// ClearErrors removes all validation errors.
func (f *Form[T]) ClearErrors() {
	f.errors.Set(map[string][]string{})
}

// SetError appends an error message to a field.
func (f *Form[T]) SetError(field string, msg string) {
	f.errors.Update(func(m map[string][]string) map[string][]string {
		out := make(map[string][]string, len(m)+1)
		for k, v := range m {
			out[k] = v
		}
		out[field] = append(append([]string(nil), out[field]...), msg)
		return out
	})
}

// SetErrors replaces the whole error set.
func (f *Form[T]) SetErrors(errs map[string][]string) {
	out := make(map[string][]string, len(errs))
	for k, v := range errs {
		if len(v) > 0 {
			out[k] = append([]string(nil), v...)
		}
	}
	f.errors.Set(out)
}
