// Package form provides a type-safe form context: values bound to a Go
// struct, per-field validation, interaction state and submission state.
//
// # Overview
//
// Form[T] binds to a struct whose fields carry struct tags:
//
//	type Signup struct {
//	    Username string `form:"username" validate:"required,minlen=3" sanitize:"strict"`
//	    Password string `form:"password,secret" validate:"required,minlen=8"`
//	    Confirm  string `form:"confirmPassword,secret" validate:"eqfield=password"`
//	    Terms    bool   `form:"acceptTerms" validate:"checked" label:"I accept the terms"`
//	}
//
//	f := form.New(Signup{}, form.WithSchema(schemaValidator))
//	f.Set("username", "ada")
//	f.ValidateField("username")
//
//	err := f.Submit(ctx, func(ctx context.Context, v Signup) error {
//	    return api.Create(ctx, v)
//	})
//
// Secret fields are never echoed back in rendered markup or in State.
//
// # Validation
//
// Validation combines three sources, all stored under the field name:
//
//   - validate struct tags (required, min, max, minlen, maxlen, email, url,
//     alphanum, numeric, pattern, eqfield, nefield, checked)
//   - validators registered with WithValidators
//   - an optional SchemaValidator evaluating the whole value set
//
// Cross-field validators such as EqualTo read the other field from the
// form they are running in.
//
// # Submission
//
// Submit validates, tracks Submitting and SubmitCount, and maps errors
// returned by the submit function: a FieldError lands on its field, any
// other error becomes the form-level SubmitError.
package form
