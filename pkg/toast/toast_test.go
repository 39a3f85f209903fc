package toast_test

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/vango-dev/signup/pkg/toast"
)

// mockEmitter captures emitted events for verification.
type mockEmitter struct {
	events []emittedEvent
	err    error
}

type emittedEvent struct {
	name string
	data any
}

func (m *mockEmitter) Emit(name string, data any) error {
	m.events = append(m.events, emittedEvent{name, data})
	return m.err
}

func TestHelpers(t *testing.T) {
	tests := []struct {
		name  string
		show  func(toast.Emitter, string) error
		level toast.Type
	}{
		{"success", toast.Success, toast.TypeSuccess},
		{"error", toast.Error, toast.TypeError},
		{"warning", toast.Warning, toast.TypeWarning},
		{"info", toast.Info, toast.TypeInfo},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := &mockEmitter{}
			if err := tt.show(e, "Account created"); err != nil {
				t.Fatal(err)
			}
			if len(e.events) != 1 {
				t.Fatalf("expected 1 event, got %d", len(e.events))
			}
			if e.events[0].name != toast.EventName {
				t.Errorf("event name = %q", e.events[0].name)
			}
			want := toast.Toast{Level: tt.level, Message: "Account created"}
			if diff := cmp.Diff(want, e.events[0].data); diff != "" {
				t.Errorf("payload (-want +got):\n%s", diff)
			}
		})
	}
}

func TestWithTitle(t *testing.T) {
	e := &mockEmitter{}
	toast.WithTitle(e, toast.TypeSuccess, "Welcome", "Your account is ready.")

	want := toast.Toast{Level: toast.TypeSuccess, Title: "Welcome", Message: "Your account is ready."}
	if diff := cmp.Diff(want, e.events[0].data); diff != "" {
		t.Errorf("payload (-want +got):\n%s", diff)
	}
}

func TestEmitError(t *testing.T) {
	e := &mockEmitter{err: errors.New("connection closed")}
	if err := toast.Info(e, "hi"); err == nil {
		t.Error("emitter errors should be returned")
	}
}

func TestNode(t *testing.T) {
	node := toast.Node(toast.Toast{Level: toast.TypeError, Title: "Oops", Message: "Try again"})

	if node.Props["role"] != "alert" || node.Props["aria-live"] != "assertive" {
		t.Errorf("error toast props = %v", node.Props)
	}
	if node.Props["class"] != "toast toast-error" {
		t.Errorf("class = %v", node.Props["class"])
	}
	if got := node.TextContent(); got != "OopsTry again" {
		t.Errorf("text = %q", got)
	}

	ok := toast.Node(toast.Toast{Level: toast.TypeSuccess, Message: "Done"})
	if ok.Props["role"] != "status" || len(ok.Children) != 1 {
		t.Errorf("success toast = %+v", ok)
	}
}
