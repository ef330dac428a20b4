package wikiindex

import (
	"strings"
)

// FindLinks finds all the link targets within an article body.
//
// A link is the text between [[ and ]], cut at the first pipe (the
// rest is the display text).  A [[ without a closing ]] takes the rest
// of the text and ends the scan.
func FindLinks(text string) []string {
	var rv []string
	for {
		i := strings.Index(text, "[[")
		if i < 0 {
			return rv
		}
		text = text[i+2:]

		end := strings.Index(text, "]]")
		span := text
		if end >= 0 {
			span = text[:end]
		}
		if p := strings.IndexByte(span, '|'); p >= 0 {
			span = span[:p]
		}
		if span != "" {
			rv = append(rv, span)
		}
		if end < 0 {
			return rv
		}
		text = text[end+2:]
	}
}
