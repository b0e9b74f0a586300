// Package junos renders, inspects and rewrites Junos policy-options
// prefix-list stanzas.
package junos

import "strings"

// Document is a rendered configuration stanza, one entry per line without
// trailing newlines.
type Document struct {
	lines []string
}

// scaffoldLines is the number of fixed lines around the prefix entries.
const scaffoldLines = 5

// NewDocument builds the replace stanza for name with one entry per prefix,
// in input order.
func NewDocument(prefixes []string, name string) *Document {
	lines := make([]string, 0, len(prefixes)+scaffoldLines)
	lines = append(lines,
		"policy-options {",
		"    replace:",
		"    prefix-list "+name+" {",
	)
	for _, p := range prefixes {
		lines = append(lines, "        "+p+";")
	}
	lines = append(lines,
		"    }",
		"}",
	)
	return &Document{lines: lines}
}

// Lines returns a copy of the document lines.
func (d *Document) Lines() []string {
	out := make([]string, len(d.lines))
	copy(out, d.lines)
	return out
}

// String joins the lines with a trailing newline on each.
func (d *Document) String() string {
	var b strings.Builder
	for _, l := range d.lines {
		b.WriteString(l)
		b.WriteByte('\n')
	}
	return b.String()
}

// Render returns the configuration text for prefixes under name. The output
// is byte-stable for a given input.
func Render(prefixes []string, name string) string {
	return NewDocument(prefixes, name).String()
}
