package render

import "strings"

var (
	htmlEscaper = strings.NewReplacer(
		"&", "&amp;",
		"<", "&lt;",
		">", "&gt;",
		`"`, "&quot;",
		"'", "&#39;",
	)
	attrEscaper = strings.NewReplacer(
		"&", "&amp;",
		"<", "&lt;",
		">", "&gt;",
		`"`, "&quot;",
		"'", "&#39;",
		"\n", "&#10;",
		"\r", "&#13;",
		"\t", "&#9;",
	)
)

// escapeHTML escapes text for safe inclusion in HTML content.
func escapeHTML(s string) string {
	return htmlEscaper.Replace(s)
}

// escapeAttr escapes text for safe inclusion in HTML attribute values.
// Whitespace control characters are encoded as well.
func escapeAttr(s string) string {
	return attrEscaper.Replace(s)
}

// EscapeHTML is the exported form of the text escaper, used by callers
// that write HTML fragments without a tree.
func EscapeHTML(s string) string {
	return escapeHTML(s)
}

// escapeRawText neutralises closing tags inside script and style content.
func escapeRawText(tag, s string) string {
	return strings.ReplaceAll(s, "</"+tag, `<\/`+tag)
}
