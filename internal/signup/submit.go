package signup

import (
	"context"
	"errors"
	"fmt"

	"github.com/vango-dev/signup/pkg/form"
	"github.com/vango-dev/signup/pkg/submit"
	"github.com/vango-dev/signup/pkg/toast"
)

// Submitter creates accounts. *submit.Simulator implements it.
type Submitter interface {
	Submit(ctx context.Context, req submit.Request) (submit.Receipt, error)
}

// Submit validates f and, when valid, sends its values through s. The
// returned Notice describes the outcome for the user; the error is the one
// reported by the form or the submitter.
func Submit(ctx context.Context, f *form.Form[Values], s Submitter) (Notice, error) {
	var receipt submit.Receipt
	err := f.Submit(ctx, func(ctx context.Context, v Values) error {
		r, err := s.Submit(ctx, v.Request())
		if err != nil {
			return err
		}
		receipt = r
		return nil
	})
	if err == nil {
		return Notice{
			Level:   toast.TypeSuccess,
			Message: fmt.Sprintf("Account %q created. Check %s to confirm your address.", receipt.Username, receipt.Email),
			Receipt: &receipt,
		}, nil
	}
	return failureNotice(err), err
}

func failureNotice(err error) Notice {
	var fe form.FieldError
	switch {
	case errors.Is(err, form.ErrInvalid):
		return Notice{Level: toast.TypeError, Message: "Please fix the highlighted fields."}
	case errors.Is(err, form.ErrSubmitInProgress):
		return Notice{Level: toast.TypeInfo, Message: "Your account is already being created."}
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return Notice{Level: toast.TypeWarning, Message: "The request was cancelled. Please try again."}
	case errors.As(err, &fe):
		return Notice{Level: toast.TypeError, Message: err.Error()}
	default:
		return Notice{Level: toast.TypeError, Message: "Something went wrong. Please try again."}
	}
}
