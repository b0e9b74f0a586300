package junos

import (
	"fmt"
	"strings"
)

// item is one lexical unit of prefix-list text.
type item struct {
	kind itemKind
	text string
	line int
}

type itemKind int

const (
	itemWord  itemKind = iota // name, keyword, prefix or quoted value
	itemOpen                  // {
	itemClose                 // }
	itemEnd                   // ;
	itemEOF
)

// scanner splits configuration text as produced by bgpq3/bgpq4 -J and by
// Render. It knows braces, semicolons, quoted values and both comment
// styles bgpq emits; everything else must be a word.
type scanner struct {
	src  string
	line int
}

func newScanner(src string) *scanner {
	return &scanner{src: src, line: 1}
}

// next returns the following item, or an error naming the line of an
// unexpected character or unterminated quote.
func (s *scanner) next() (item, error) {
	s.skip()
	if s.src == "" {
		return item{kind: itemEOF, line: s.line}, nil
	}

	line := s.line
	switch c := s.src[0]; {
	case c == '{':
		s.src = s.src[1:]
		return item{kind: itemOpen, text: "{", line: line}, nil
	case c == '}':
		s.src = s.src[1:]
		return item{kind: itemClose, text: "}", line: line}, nil
	case c == ';':
		s.src = s.src[1:]
		return item{kind: itemEnd, text: ";", line: line}, nil
	case c == '"':
		end := strings.IndexByte(s.src[1:], '"')
		if end < 0 {
			return item{}, fmt.Errorf("line %d: unterminated string", line)
		}
		value := s.src[1 : end+1]
		s.line += strings.Count(value, "\n")
		s.src = s.src[end+2:]
		return item{kind: itemWord, text: value, line: line}, nil
	case isWordByte(c):
		n := strings.IndexFunc(s.src, func(r rune) bool { return r > 0x7f || !isWordByte(byte(r)) })
		if n < 0 {
			n = len(s.src)
		}
		word := s.src[:n]
		s.src = s.src[n:]
		return item{kind: itemWord, text: word, line: line}, nil
	default:
		return item{}, fmt.Errorf("line %d: unexpected character %q", line, c)
	}
}

// skip drops whitespace, "# ..." line comments and "/* ... */" notes.
func (s *scanner) skip() {
	for s.src != "" {
		switch {
		case s.src[0] == '\n':
			s.line++
			s.src = s.src[1:]
		case s.src[0] == ' ' || s.src[0] == '\t' || s.src[0] == '\r':
			s.src = s.src[1:]
		case s.src[0] == '#':
			if i := strings.IndexByte(s.src, '\n'); i >= 0 {
				s.src = s.src[i:]
			} else {
				s.src = ""
			}
		case strings.HasPrefix(s.src, "/*"):
			i := strings.Index(s.src, "*/")
			if i < 0 {
				i = len(s.src) - 2
			}
			s.line += strings.Count(s.src[:i+2], "\n")
			s.src = s.src[i+2:]
		default:
			return
		}
	}
}

// isWordByte covers list names, "replace:" and IPv4/IPv6 prefixes.
func isWordByte(c byte) bool {
	switch {
	case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		return true
	}
	return strings.IndexByte("-_./:*+", c) >= 0
}
