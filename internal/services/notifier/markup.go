package notifier

import "html"

// Escape makes text safe inside an HTML-mode message.
func Escape(s string) string {
	return html.EscapeString(s)
}

// Bold wraps escaped text in <b>.
func Bold(s string) string {
	return "<b>" + Escape(s) + "</b>"
}

// Code wraps escaped text in inline <code>.
func Code(s string) string {
	return "<code>" + Escape(s) + "</code>"
}

// Pre wraps escaped text in a preformatted block.
func Pre(s string) string {
	return "<pre>" + Escape(s) + "</pre>"
}
