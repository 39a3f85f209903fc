package form

import (
	"context"
	"errors"
)

var (
	// ErrInvalid is returned by Submit when validation fails.
	ErrInvalid = errors.New("form: validation failed")

	// ErrSubmitInProgress is returned by Submit while another submission
	// of the same form is running.
	ErrSubmitInProgress = errors.New("form: submission already in progress")
)

// FieldError is implemented by submission errors that belong to a single
// field, such as a username that is already taken.
type FieldError interface {
	error
	FieldName() string
}

// Submit validates the form and calls fn with the current values.
//
// Every field is marked touched first. An invalid form returns ErrInvalid
// without calling fn. While fn runs IsSubmitting reports true. An error
// from fn that implements FieldError is stored on that field; any other
// error is stored as SubmitError. The error from fn is returned unchanged.
func (f *Form[T]) Submit(ctx context.Context, fn func(context.Context, T) error) error {
	if !f.inFlight.CompareAndSwap(false, true) {
		return ErrSubmitInProgress
	}
	defer f.inFlight.Store(false)

	valid := true
	f.scope.Batch(func() {
		f.touchAll()
		f.submitError.Set("")
		valid = f.Validate()
	})
	if !valid {
		return ErrInvalid
	}

	f.scope.Batch(func() {
		f.submitting.Set(true)
		f.submitCount.Update(func(n int) int { return n + 1 })
	})
	defer f.submitting.Set(false)

	err := fn(ctx, f.Values())
	if err == nil {
		return nil
	}

	var fe FieldError
	if errors.As(err, &fe) {
		f.SetError(fe.FieldName(), fe.Error())
	} else {
		f.submitError.Set(err.Error())
	}
	return err
}
