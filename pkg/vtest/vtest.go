package vtest

import (
	"reflect"
	"strings"
	"testing"

	"github.com/vango-dev/signup/pkg/form"
	"github.com/vango-dev/signup/pkg/render"
	"github.com/vango-dev/signup/pkg/vdom"
)

// RenderToString renders a VNode tree to HTML for assertions.
// It returns an empty string when rendering fails.
//
// Example:
//
//	html := vtest.RenderToString(signup.View(f, signup.Notice{}))
//	if !strings.Contains(html, "expected text") {
//	    t.Error("missing expected text")
//	}
func RenderToString(node *vdom.VNode) string {
	r := render.NewRenderer(render.RendererConfig{})
	html, err := r.RenderToString(node)
	if err != nil {
		return ""
	}
	return html
}

// ExpectContains asserts that rendered output contains expected substring.
func ExpectContains(t testing.TB, node *vdom.VNode, expected string) {
	t.Helper()
	html := RenderToString(node)
	if !strings.Contains(html, expected) {
		t.Errorf("expected rendered output to contain %q, got:\n%s", expected, truncate(html, 500))
	}
}

// ExpectNotContains asserts that rendered output does not contain substring.
func ExpectNotContains(t testing.TB, node *vdom.VNode, unexpected string) {
	t.Helper()
	html := RenderToString(node)
	if strings.Contains(html, unexpected) {
		t.Errorf("expected rendered output to NOT contain %q, got:\n%s", unexpected, truncate(html, 500))
	}
}

// ExpectElement asserts that rendered output contains a specific tag.
func ExpectElement(t testing.TB, node *vdom.VNode, tag string) {
	t.Helper()
	html := RenderToString(node)
	if !strings.Contains(html, "<"+tag) {
		t.Errorf("expected rendered output to contain <%s> element, got:\n%s", tag, truncate(html, 500))
	}
}

// ExpectAttribute asserts that rendered output contains an attribute value.
//
// Example:
//
//	vtest.ExpectAttribute(t, node, "class", "btn-primary")
func ExpectAttribute(t testing.TB, node *vdom.VNode, attr, value string) {
	t.Helper()
	html := RenderToString(node)
	needle := attr + `="` + value + `"`
	if !strings.Contains(html, needle) {
		t.Errorf("expected attribute %s=%q not found, got:\n%s", attr, value, truncate(html, 500))
	}
}

// ExpectID returns the element with the given id and fails the test
// immediately if there is none.
func ExpectID(t testing.TB, node *vdom.VNode, id string) *vdom.VNode {
	t.Helper()
	found := node.Find(id)
	if found == nil {
		t.Fatalf("no element with id %q in:\n%s", id, truncate(RenderToString(node), 500))
	}
	return found
}

// ExpectProp asserts that node has prop set to want.
func ExpectProp(t testing.TB, node *vdom.VNode, prop string, want any) {
	t.Helper()
	got, ok := node.Props[prop]
	if !ok {
		t.Errorf("<%s> has no %q prop", node.Tag, prop)
		return
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("<%s> %s = %#v, want %#v", node.Tag, prop, got, want)
	}
}

// ExpectFieldErrors asserts the error list rendered for a form field.
// Passing no messages asserts the list is empty.
func ExpectFieldErrors(t testing.TB, node *vdom.VNode, field string, want ...string) {
	t.Helper()
	list := ExpectID(t, node, form.ErrorID(field))

	got := make([]string, 0, len(list.Children))
	for _, item := range list.Children {
		got = append(got, item.TextContent())
	}
	if len(want) == 0 && len(got) == 0 {
		return
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("%s errors = %q, want %q", field, got, want)
	}
}

// truncate truncates a string to max length with ellipsis.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
