package main

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/AlecAivazis/survey/v2"
	"github.com/AlecAivazis/survey/v2/terminal"
	"github.com/spf13/cobra"

	"github.com/vango-dev/signup/internal/errors"
	"github.com/vango-dev/signup/internal/signup"
	"github.com/vango-dev/signup/pkg/form"
	"github.com/vango-dev/signup/pkg/submit"
)

// errAborted signals the user interrupted the prompt.
var errAborted = stderrors.New("prompt: aborted")

// promptDriver asks single questions. validate runs on every answer and
// a non-nil error makes the driver ask again.
type promptDriver interface {
	Input(message, help string, validate func(any) error) (string, error)
	Password(message, help string, validate func(any) error) (string, error)
	Confirm(message string, validate func(any) error) (bool, error)
}

type promptKind int

const (
	promptInput promptKind = iota
	promptPassword
	promptConfirm
)

var promptFields = []struct {
	name string
	kind promptKind
	help string
}{
	{"username", promptInput, "3 to 20 letters, numbers or underscores"},
	{"email", promptInput, "We send a confirmation link to this address"},
	{"password", promptPassword, "8 to 64 characters"},
	{"confirmPassword", promptPassword, ""},
	{"acceptTerms", promptConfirm, ""},
}

func promptCmd(opts *rootOptions) *cobra.Command {
	var delay string

	cmd := &cobra.Command{
		Use:   "prompt",
		Short: "Fill in the signup form in the terminal",
		Long: `Ask for every signup field in the terminal, validating each answer
with the form rules, then submit through the simulated signup API.`,
		Args: checkArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			if delay != "" {
				cfg.Submit.Delay = delay
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			store, err := cfg.Store()
			if err != nil {
				return err
			}
			sim := cfg.Simulator(store, cfg.Logger(io.Discard))

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()
			return runPrompt(ctx, cmd.OutOrStdout(), surveyDriver{}, sim)
		},
	}

	cmd.Flags().StringVar(&delay, "delay", "", "Simulated submission delay, e.g. 500ms")
	return cmd
}

func runPrompt(ctx context.Context, w io.Writer, driver promptDriver, submitter signup.Submitter) error {
	f := signup.NewForm()

	for _, pf := range promptFields {
		if err := ctx.Err(); err != nil {
			return errors.New("E402").Wrap(err)
		}

		validate := fieldValidator(f, pf.name)
		label := f.Label(pf.name)

		var err error
		switch pf.kind {
		case promptInput:
			_, err = driver.Input(label, pf.help, validate)
		case promptPassword:
			_, err = driver.Password(label, pf.help, validate)
		case promptConfirm:
			_, err = driver.Confirm(label, validate)
		}
		if err != nil {
			return errors.New("E402").Wrap(err)
		}
	}

	info(w, signup.SubmittingLabel)
	notice, err := signup.Submit(ctx, f, submitter)
	if err == nil {
		success(w, "%s", notice.Message)
		if notice.Receipt != nil {
			info(w, "Receipt %s", notice.Receipt.ID)
		}
		return nil
	}
	warn(w, "%s", notice.Message)
	return submitError(err, f.Errors())
}

// fieldValidator stores an answer in the form and validates that field.
func fieldValidator(f *form.Form[signup.Values], field string) func(any) error {
	return func(ans any) error {
		f.Set(field, ans)
		if f.ValidateField(field) {
			return nil
		}
		return stderrors.New(strings.Join(f.FieldErrors(field), "; "))
	}
}

// submitError maps a failed submission to a coded error.
func submitError(err error, fields map[string][]string) error {
	switch {
	case stderrors.Is(err, form.ErrInvalid):
		return errors.New("E201").WithFields(fields)
	case stderrors.Is(err, submit.ErrUsernameTaken):
		return errors.New("E301").WithSuggestion("Run the prompt again with another username")
	case stderrors.Is(err, context.Canceled), stderrors.Is(err, context.DeadlineExceeded):
		return errors.New("E302").Wrap(err)
	default:
		return errors.FromError(err, "E303")
	}
}

// surveyDriver asks questions on the terminal.
type surveyDriver struct{}

func (surveyDriver) Input(message, help string, validate func(any) error) (string, error) {
	var out string
	prompt := &survey.Input{Message: message, Help: help}
	if err := survey.AskOne(prompt, &out, survey.WithValidator(validate)); err != nil {
		return "", translateSurveyErr(err)
	}
	return out, nil
}

func (surveyDriver) Password(message, help string, validate func(any) error) (string, error) {
	var out string
	prompt := &survey.Password{Message: message, Help: help}
	if err := survey.AskOne(prompt, &out, survey.WithValidator(validate)); err != nil {
		return "", translateSurveyErr(err)
	}
	return out, nil
}

func (surveyDriver) Confirm(message string, validate func(any) error) (bool, error) {
	var out bool
	prompt := &survey.Confirm{Message: message}
	if err := survey.AskOne(prompt, &out, survey.WithValidator(validate)); err != nil {
		return false, translateSurveyErr(err)
	}
	return out, nil
}

func translateSurveyErr(err error) error {
	if stderrors.Is(err, terminal.InterruptErr) {
		return errAborted
	}
	return fmt.Errorf("prompt: %w", err)
}
