package render

import (
	"fmt"
	"io"

	"github.com/vango-dev/signup/pkg/vdom"
)

// PageData contains all data needed to render a complete HTML page.
type PageData struct {
	// Body is the root VNode for the page content.
	Body *vdom.VNode

	// Title is the page title.
	Title string

	// Description fills the description meta tag when set.
	Description string

	// Styles contains inline CSS blocks.
	Styles []string

	// Scripts contains paths of deferred scripts.
	Scripts []string

	// Lang is the language attribute for the html element.
	// Defaults to "en" if not specified.
	Lang string
}

// RenderPage renders a complete HTML document to the given writer.
func (r *Renderer) RenderPage(w io.Writer, page PageData) error {
	lang := page.Lang
	if lang == "" {
		lang = "en"
	}

	if _, err := fmt.Fprintf(w, "<!DOCTYPE html>\n<html lang=\"%s\">\n", escapeAttr(lang)); err != nil {
		return err
	}
	if err := r.renderHead(w, page); err != nil {
		return err
	}
	if _, err := io.WriteString(w, "<body>\n"); err != nil {
		return err
	}
	if err := r.RenderToWriter(w, page.Body); err != nil {
		return err
	}
	_, err := io.WriteString(w, "\n</body>\n</html>\n")
	return err
}

// renderHead renders the document head section.
func (r *Renderer) renderHead(w io.Writer, page PageData) error {
	head := vdom.Head(
		vdom.Meta(vdom.Charset("utf-8")),
		vdom.Meta(vdom.MetaName("viewport"), vdom.Content("width=device-width, initial-scale=1")),
		vdom.If(page.Description != "", vdom.Meta(vdom.MetaName("description"), vdom.Content(page.Description))),
		vdom.If(page.Title != "", vdom.Title(vdom.Text(page.Title))),
		vdom.Range(page.Styles, func(css string, _ int) *vdom.VNode {
			return vdom.Style(vdom.Text(css))
		}),
		vdom.Range(page.Scripts, func(src string, _ int) *vdom.VNode {
			return vdom.Script(vdom.Src(src), vdom.Defer_())
		}),
	)
	if err := r.RenderToWriter(w, head); err != nil {
		return err
	}
	_, err := io.WriteString(w, "\n")
	return err
}
