package form

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

type conflictError struct{ field string }

func (e conflictError) Error() string     { return e.field + " is already taken" }
func (e conflictError) FieldName() string { return e.field }

func TestSubmitInvalidSkipsHandler(t *testing.T) {
	f := New(testSignup{})
	called := false

	err := f.Submit(context.Background(), func(context.Context, testSignup) error {
		called = true
		return nil
	})
	if !errors.Is(err, ErrInvalid) {
		t.Fatalf("err = %v, want ErrInvalid", err)
	}
	if called {
		t.Error("handler ran for an invalid form")
	}
	for _, field := range f.Fields() {
		if !f.IsTouched(field) {
			t.Errorf("%s should be touched after submit", field)
		}
	}
	if f.SubmitCount() != 0 {
		t.Errorf("SubmitCount = %d, want 0", f.SubmitCount())
	}
}

func TestSubmitSuccess(t *testing.T) {
	f := New(validSignup())
	var seen testSignup
	var submitting bool

	err := f.Submit(context.Background(), func(_ context.Context, v testSignup) error {
		seen = v
		submitting = f.IsSubmitting()
		return nil
	})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if diff := cmp.Diff(validSignup(), seen); diff != "" {
		t.Errorf("handler values (-want +got):\n%s", diff)
	}
	if !submitting {
		t.Error("IsSubmitting should be true inside the handler")
	}
	if f.IsSubmitting() {
		t.Error("IsSubmitting should be reset")
	}
	if f.SubmitCount() != 1 || f.SubmitError() != "" {
		t.Errorf("state after success: %+v", f.State())
	}
}

func TestSubmitFieldError(t *testing.T) {
	f := New(validSignup())

	err := f.Submit(context.Background(), func(context.Context, testSignup) error {
		return fmt.Errorf("create account: %w", conflictError{field: "username"})
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if diff := cmp.Diff([]string{"username is already taken"}, f.FieldErrors("username")); diff != "" {
		t.Errorf("field errors (-want +got):\n%s", diff)
	}
	if f.SubmitError() != "" {
		t.Errorf("field errors should not set SubmitError, got %q", f.SubmitError())
	}
	if f.IsSubmitting() {
		t.Error("IsSubmitting should be reset after failure")
	}
}

func TestSubmitFormError(t *testing.T) {
	f := New(validSignup())
	boom := errors.New("network unreachable")

	err := f.Submit(context.Background(), func(context.Context, testSignup) error { return boom })
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want %v", err, boom)
	}
	if f.SubmitError() != "network unreachable" {
		t.Errorf("SubmitError = %q", f.SubmitError())
	}

	// a later successful submission clears the form-level error
	if err := f.Submit(context.Background(), func(context.Context, testSignup) error { return nil }); err != nil {
		t.Fatal(err)
	}
	if f.SubmitError() != "" || f.SubmitCount() != 2 {
		t.Errorf("state after retry: %+v", f.State())
	}
}

func TestSubmitInProgress(t *testing.T) {
	f := New(validSignup())
	started := make(chan struct{})
	release := make(chan struct{})
	done := make(chan error, 1)

	go func() {
		done <- f.Submit(context.Background(), func(context.Context, testSignup) error {
			close(started)
			<-release
			return nil
		})
	}()

	<-started
	if err := f.Submit(context.Background(), func(context.Context, testSignup) error { return nil }); !errors.Is(err, ErrSubmitInProgress) {
		t.Errorf("concurrent Submit err = %v, want ErrSubmitInProgress", err)
	}
	close(release)

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("first Submit: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("first Submit did not finish")
	}
	if f.SubmitCount() != 1 {
		t.Errorf("SubmitCount = %d, want 1", f.SubmitCount())
	}
}

func TestSubmitContextCancelled(t *testing.T) {
	f := New(validSignup())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := f.Submit(ctx, func(ctx context.Context, _ testSignup) error { return ctx.Err() })
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v", err)
	}
	if f.IsSubmitting() {
		t.Error("IsSubmitting should be reset after cancellation")
	}
}
