// Package resolve turns an AS-SET into a rendered prefix-list, preferring an
// external bgpq tool and falling back to direct registry queries.
package resolve

import (
	"regexp"
	"strings"

	"github.com/newtron-network/filterupdate/pkg/irr"
	"github.com/newtron-network/filterupdate/pkg/util"
)

// Method selects how prefixes are resolved.
type Method int

const (
	// MethodTool runs the prefix-list tool matrix, delegating to direct
	// queries when the tool is not installed.
	MethodTool Method = iota
	// MethodDirect queries the registry dialects only.
	MethodDirect
)

func (m Method) String() string {
	if m == MethodDirect {
		return "direct"
	}
	return "tool"
}

// Request is one resolution. It is not modified once built.
type Request struct {
	ASSet    string
	ListName string
	Family   irr.Family
	Server   string
	Method   Method
}

var listNameRe = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_.\-]*$`)

// NewRequest normalizes and validates the operator inputs.
func NewRequest(asSet, listName string, family irr.Family, server string, method Method) (Request, error) {
	req := Request{
		ASSet:    strings.TrimSpace(asSet),
		ListName: strings.TrimSpace(listName),
		Family:   family,
		Server:   strings.TrimSpace(server),
		Method:   method,
	}
	if req.Server == "" {
		req.Server = irr.DefaultServer
	}

	v := &util.ValidationBuilder{}
	v.Add(req.ASSet != "", "AS-SET (-a) is required")
	v.Add(!strings.ContainsAny(req.ASSet, " \t\r\n"), "AS-SET must not contain whitespace")
	v.Add(req.ListName != "", "prefix-list name (-l) is required")
	if req.ListName != "" && !listNameRe.MatchString(req.ListName) {
		v.AddErrorf("invalid prefix-list name %q", req.ListName)
	}
	v.Add(!strings.ContainsAny(req.Server, " \t\r\n"), "registry server must not contain whitespace")
	if err := v.Build(); err != nil {
		return Request{}, err
	}
	return req, nil
}

// Result is a resolved and rendered prefix-list.
type Result struct {
	Config   string
	Prefixes []string
	Method   Method
	// Source describes which alternative produced the result.
	Source string
	// Cached is set when the result came from the prefix cache.
	Cached bool
}
