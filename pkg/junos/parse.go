package junos

import (
	"fmt"
	"regexp"
	"strings"
)

// Node is a statement in a parsed configuration: a leaf terminated by ';'
// or a block with children.
type Node struct {
	Keys     []string
	Children []*Node
	IsLeaf   bool
	// Replace is set when the statement carried a "replace:" tag.
	Replace bool
	Line    int
}

// Name returns the first key of the node.
func (n *Node) Name() string {
	if len(n.Keys) == 0 {
		return ""
	}
	return n.Keys[0]
}

// Parse builds a statement tree from configuration text.
func Parse(text string) ([]*Node, error) {
	return parseBlock(newScanner(text), 0)
}

func parseBlock(s *scanner, depth int) ([]*Node, error) {
	var nodes []*Node
	var keys []string
	replace := false
	line := 0

	for {
		it, err := s.next()
		if err != nil {
			return nil, err
		}
		switch it.kind {
		case itemWord:
			if it.text == "replace:" && len(keys) == 0 {
				replace = true
				continue
			}
			if len(keys) == 0 {
				line = it.line
			}
			keys = append(keys, it.text)

		case itemEnd:
			if len(keys) == 0 {
				return nil, fmt.Errorf("line %d: empty statement", it.line)
			}
			nodes = append(nodes, &Node{Keys: keys, IsLeaf: true, Replace: replace, Line: line})
			keys, replace = nil, false

		case itemOpen:
			if len(keys) == 0 {
				return nil, fmt.Errorf("line %d: block without a name", it.line)
			}
			children, err := parseBlock(s, depth+1)
			if err != nil {
				return nil, err
			}
			nodes = append(nodes, &Node{Keys: keys, Children: children, Replace: replace, Line: line})
			keys, replace = nil, false

		case itemClose, itemEOF:
			if it.kind == itemClose && depth == 0 {
				return nil, fmt.Errorf("line %d: unexpected '}'", it.line)
			}
			if len(keys) > 0 {
				return nil, fmt.Errorf("line %d: statement %q missing ';'", line, strings.Join(keys, " "))
			}
			if it.kind == itemEOF && depth > 0 {
				return nil, fmt.Errorf("line %d: unexpected end of configuration, missing '}'", it.line)
			}
			return nodes, nil
		}
	}
}

// PrefixList is one named list found under policy-options.
type PrefixList struct {
	Name     string
	Prefixes []string
	Replace  bool
}

// ParsePrefixLists returns every policy-options prefix-list in text, in
// document order.
func ParsePrefixLists(text string) ([]PrefixList, error) {
	nodes, err := Parse(text)
	if err != nil {
		return nil, err
	}

	var lists []PrefixList
	for _, top := range nodes {
		if top.Name() != "policy-options" || top.IsLeaf {
			continue
		}
		for _, child := range top.Children {
			if child.Name() != "prefix-list" || len(child.Keys) < 2 || child.IsLeaf {
				continue
			}
			pl := PrefixList{Name: child.Keys[1], Replace: child.Replace || top.Replace}
			for _, entry := range child.Children {
				if entry.IsLeaf && len(entry.Keys) == 1 {
					pl.Prefixes = append(pl.Prefixes, entry.Keys[0])
				}
			}
			lists = append(lists, pl)
		}
	}
	return lists, nil
}

var prefixListHeader = regexp.MustCompile(`prefix-list\s+(\S+)\s*\{`)

// RenamePrefixList rewrites the first "prefix-list <name> {" header to use
// name, unless a list with that name is already present. Tools often pick
// their own default name ("NN") when none was requested.
func RenamePrefixList(text, name string) string {
	for _, m := range prefixListHeader.FindAllStringSubmatch(text, -1) {
		if m[1] == name {
			return text
		}
	}

	loc := prefixListHeader.FindStringSubmatchIndex(text)
	if loc == nil {
		return text
	}
	return text[:loc[2]] + name + text[loc[3]:]
}

// Validate checks that text parses and carries at least one prefix-list.
func Validate(text string) error {
	lists, err := ParsePrefixLists(text)
	if err != nil {
		return err
	}
	if len(lists) == 0 {
		return fmt.Errorf("no policy-options prefix-list in configuration")
	}
	return nil
}
