package toast

import "github.com/vango-dev/signup/pkg/vdom"

// EventName is the event name dispatched for toasts.
// Client-side code should listen for this event.
const EventName = "signup:toast"

// Type represents the toast notification type.
type Type string

const (
	TypeSuccess Type = "success"
	TypeError   Type = "error"
	TypeWarning Type = "warning"
	TypeInfo    Type = "info"
)

// Emitter sends a named event to a connected client.
type Emitter interface {
	Emit(event string, data any) error
}

// Toast is a single notification.
type Toast struct {
	Level   Type   `json:"level"`
	Title   string `json:"title,omitempty"`
	Message string `json:"message"`
}

// Show displays a toast notification to the user.
//
// The client receives a CustomEvent with:
//   - event.type = "signup:toast"
//   - event.detail = { level: "success|error|warning|info", message: "..." }
func Show(e Emitter, level Type, message string) error {
	return Send(e, Toast{Level: level, Message: message})
}

// Send emits t.
func Send(e Emitter, t Toast) error {
	return e.Emit(EventName, t)
}

// Success shows a success toast.
//
//	toast.Success(session, "Account created")
func Success(e Emitter, message string) error {
	return Show(e, TypeSuccess, message)
}

// Error shows an error toast.
func Error(e Emitter, message string) error {
	return Show(e, TypeError, message)
}

// Warning shows a warning toast.
func Warning(e Emitter, message string) error {
	return Show(e, TypeWarning, message)
}

// Info shows an info toast.
func Info(e Emitter, message string) error {
	return Show(e, TypeInfo, message)
}

// WithTitle shows a toast with a title and message.
//
//	toast.WithTitle(session, toast.TypeSuccess, "Welcome", "Your account is ready.")
func WithTitle(e Emitter, level Type, title, message string) error {
	return Send(e, Toast{Level: level, Title: title, Message: message})
}

// Node renders t for a server-rendered page. Errors are announced
// assertively, everything else politely.
func Node(t Toast) *vdom.VNode {
	role, live := "status", "polite"
	if t.Level == TypeError {
		role, live = "alert", "assertive"
	}
	return vdom.Div(
		vdom.Class("toast", "toast-"+string(t.Level)),
		vdom.Role(role),
		vdom.AriaLive(live),
		vdom.Data("level", string(t.Level)),
		vdom.If(t.Title != "", vdom.Strong(vdom.Class("toast-title"), vdom.Text(t.Title))),
		vdom.P(vdom.Class("toast-message"), vdom.Text(t.Message)),
	)
}
