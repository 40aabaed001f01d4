// Package eml parses RFC 5322 email messages, extracting the HTML body part
// and the inline image parts it references by Content-ID.
package eml

// Message is a parsed email container reduced to the parts the extraction
// pipeline cares about: at most one HTML body and any number of inline
// images keyed by Content-ID.
type Message struct {
	HTMLBody     string
	InlineImages map[string]InlineImage
}

// InlineImage is an inline image part identified by its Content-ID.
type InlineImage struct {
	ContentType string
	Data        []byte
}
