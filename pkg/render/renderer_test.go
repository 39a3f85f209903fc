package render

import (
	"bytes"
	"strings"
	"testing"

	. "github.com/vango-dev/signup/pkg/vdom"
)

func renderString(t *testing.T, node *VNode) string {
	t.Helper()
	html, err := NewRenderer(RendererConfig{}).RenderToString(node)
	if err != nil {
		t.Fatalf("RenderToString: %v", err)
	}
	return html
}

func TestRenderElement(t *testing.T) {
	tests := []struct {
		name string
		node *VNode
		want string
	}{
		{"empty div", Div(), "<div></div>"},
		{"text child", P(Text("hello")), "<p>hello</p>"},
		{"sorted attrs", Input(Type("text"), Name("username"), ID("username")), `<input id="username" name="username" type="text">`},
		{"bool attr true", Button(Disabled(), Text("Go")), "<button disabled>Go</button>"},
		{"bool attr false", Button(DisabledIf(false), Text("Go")), "<button>Go</button>"},
		{"aria bool", Input(AriaInvalid(true)), `<input aria-invalid="true">`},
		{"int attr", Input(MinLength(8)), `<input minlength="8">`},
		{"fragment", Fragment(Span(), Span()), "<span></span><span></span>"},
		{"raw", Div(Raw("<b>x</b>")), "<div><b>x</b></div>"},
		{"nil", nil, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := renderString(t, tt.node); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRenderEscapes(t *testing.T) {
	got := renderString(t, Div(Data("value", `"><script>`), Text("<script>alert('x')</script>")))
	want := `<div data-value="&quot;&gt;&lt;script&gt;">&lt;script&gt;alert(&#39;x&#39;)&lt;/script&gt;</div>`
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestRenderStyleKeepsCSS(t *testing.T) {
	got := renderString(t, Style(Text("a > b { color: red } </style>")))
	if !strings.Contains(got, "a > b") {
		t.Errorf("style content should not be entity-escaped: %q", got)
	}
	if strings.Count(got, "</style>") != 1 {
		t.Errorf("embedded closing tag must be neutralised: %q", got)
	}
}

func TestRenderSkipsFuncAndInternalProps(t *testing.T) {
	node := Div()
	node.Props["_internal"] = "x"
	node.Props["onclick"] = func() {}
	if got := renderString(t, node); got != "<div></div>" {
		t.Errorf("got %q", got)
	}
}

func TestRenderPretty(t *testing.T) {
	r := NewRenderer(RendererConfig{Pretty: true})
	got, err := r.RenderToString(Div(P(Text("a"))))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(got, "\n  <p>") {
		t.Errorf("expected indented child, got %q", got)
	}
}

func TestRenderPage(t *testing.T) {
	var buf bytes.Buffer
	err := NewRenderer(RendererConfig{}).RenderPage(&buf, PageData{
		Title:   "Sign up & go",
		Styles:  []string{"body{margin:0}"},
		Scripts: []string{"/static/live.js"},
		Body:    Main(H1(Text("Create account"))),
	})
	if err != nil {
		t.Fatalf("RenderPage: %v", err)
	}
	html := buf.String()

	for _, want := range []string{
		"<!DOCTYPE html>",
		`<html lang="en">`,
		`<meta charset="utf-8">`,
		"<title>Sign up &amp; go</title>",
		"<style>body{margin:0}</style>",
		`<script defer src="/static/live.js"></script>`,
		"<main><h1>Create account</h1></main>",
	} {
		if !strings.Contains(html, want) {
			t.Errorf("page missing %q\n%s", want, html)
		}
	}
}
