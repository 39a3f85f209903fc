package signup

import (
	"github.com/vango-dev/signup/pkg/form"
	"github.com/vango-dev/signup/pkg/submit"
	"github.com/vango-dev/signup/pkg/toast"
	"github.com/vango-dev/signup/pkg/vdom"
)

// Element ids the live client script relies on.
const (
	FormID   = "signup-form"
	NoticeID = "signup-notice"
	SubmitID = "signup-submit"
)

// Button labels.
const (
	SubmitLabel     = "Create account"
	SubmittingLabel = "Creating account…"
)

// UsernameHint describes the accepted usernames below the form.
const UsernameHint = "Usernames are 3 to 20 letters, numbers or underscores."

// Notice is the outcome message shown below the form.
type Notice struct {
	Level   toast.Type      `json:"level"`
	Message string          `json:"message"`
	Receipt *submit.Receipt `json:"receipt,omitempty"`
}

// Toast converts n for delivery over a live connection.
func (n Notice) Toast() toast.Toast {
	t := toast.Toast{Level: n.Level, Message: n.Message}
	if n.Level == toast.TypeSuccess {
		t.Title = "Welcome"
	}
	return t
}

// IsZero reports whether there is nothing to show.
func (n Notice) IsZero() bool {
	return n.Message == ""
}

// View renders the signup form with the current state of f.
func View(f *form.Form[Values], notice Notice) *vdom.VNode {
	submitting := f.IsSubmitting()
	formErrs := f.FieldErrors("")

	return vdom.Main(
		vdom.Class("signup"),
		vdom.H1(vdom.Text("Create your account")),
		vdom.P(vdom.Class("signup-lead"), vdom.Text("All fields are required.")),
		vdom.Form(
			vdom.ID(FormID),
			vdom.Action("/signup"),
			vdom.Method("post"),
			vdom.Novalidate(),
			vdom.AriaBusy(submitting),
			vdom.Data("live", "/live"),
			vdom.If(len(formErrs) > 0, vdom.Div(
				vdom.Class("form-errors"),
				vdom.Role("alert"),
				vdom.Ul(vdom.Range(formErrs, func(msg string, _ int) *vdom.VNode {
					return vdom.Li(vdom.Text(msg))
				})),
			)),
			f.Field("username", "", vdom.Input(
				vdom.Type("text"),
				vdom.Autocomplete("username"),
				vdom.MaxLength(20),
			)),
			f.Field("email", "", vdom.Input(
				vdom.Type("email"),
				vdom.Autocomplete("email"),
			)),
			vdom.Fieldset(
				vdom.Class("signup-password"),
				vdom.Legend(vdom.Text("Password")),
				f.Field("password", "", vdom.Input(
					vdom.Type("password"),
					vdom.Autocomplete("new-password"),
					vdom.MaxLength(64),
				)),
				f.Field("confirmPassword", "", vdom.Input(
					vdom.Type("password"),
					vdom.Autocomplete("new-password"),
					vdom.MaxLength(64),
				)),
			),
			f.Field("acceptTerms", "", vdom.Input(
				vdom.Type("checkbox"),
				vdom.Value("on"),
			)),
			vdom.Button(
				vdom.ID(SubmitID),
				vdom.Type("submit"),
				vdom.Class("signup-submit"),
				vdom.DisabledIf(submitting),
				vdom.Text(buttonLabel(submitting)),
			),
		),
		noticeArea(notice),
		vdom.Footer(
			vdom.Class("signup-footer"),
			vdom.Small(vdom.Text(UsernameHint)),
		),
	)
}

func buttonLabel(submitting bool) string {
	if submitting {
		return SubmittingLabel
	}
	return SubmitLabel
}

func noticeArea(n Notice) *vdom.VNode {
	if n.IsZero() {
		return vdom.Div(vdom.ID(NoticeID), vdom.Role("status"), vdom.AriaLive("polite"))
	}
	return vdom.Div(vdom.ID(NoticeID), toast.Node(n.Toast()))
}
