// Package render turns vdom trees into HTML.
//
// Text content and attribute values are always escaped. Boolean attributes
// such as disabled or checked are written bare when true and omitted when
// false. RenderPage wraps a body tree in a complete HTML document.
//
//	r := render.NewRenderer(render.RendererConfig{})
//	html, err := r.RenderToString(vdom.P(vdom.Text("hi")))
package render
