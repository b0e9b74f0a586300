// Package audit records each filterupdate run as a JSON line.
package audit

import (
	"os"
	"time"

	"github.com/google/uuid"
)

// Operation names.
const (
	OperationApply  = "apply"  // pushed to a device
	OperationRender = "render" // --test, no device contact
)

// Event is one resolution and, unless rendering only, one device
// transaction.
type Event struct {
	ID         string        `json:"id"`
	Timestamp  time.Time     `json:"timestamp"`
	User       string        `json:"user"`
	Device     string        `json:"device,omitempty"`
	Operation  string        `json:"operation"`
	ASSet      string        `json:"as_set"`
	PrefixList string        `json:"prefix_list"`
	Family     string        `json:"family"`
	Server     string        `json:"server"`
	Method     string        `json:"method,omitempty"`
	Source     string        `json:"source,omitempty"`
	Cached     bool          `json:"cached,omitempty"`
	Prefixes   int           `json:"prefixes"`
	Comment    string        `json:"comment,omitempty"`
	Success    bool          `json:"success"`
	Error      string        `json:"error,omitempty"`
	Duration   time.Duration `json:"duration"`
}

// Filter defines criteria for querying audit events
type Filter struct {
	Device      string
	ASSet       string
	PrefixList  string
	Operation   string
	StartTime   time.Time
	EndTime     time.Time
	SuccessOnly bool
	FailureOnly bool
	Limit       int
	Offset      int
}

// Matches reports whether e satisfies every set criterion.
func (f Filter) Matches(e *Event) bool {
	switch {
	case f.Device != "" && e.Device != f.Device:
		return false
	case f.ASSet != "" && e.ASSet != f.ASSet:
		return false
	case f.PrefixList != "" && e.PrefixList != f.PrefixList:
		return false
	case f.Operation != "" && e.Operation != f.Operation:
		return false
	case !f.StartTime.IsZero() && e.Timestamp.Before(f.StartTime):
		return false
	case !f.EndTime.IsZero() && e.Timestamp.After(f.EndTime):
		return false
	case f.SuccessOnly && !e.Success:
		return false
	case f.FailureOnly && e.Success:
		return false
	}
	return true
}

// NewEvent creates an event for the current user.
func NewEvent(operation, asSet, prefixList string) *Event {
	return &Event{
		ID:         uuid.NewString(),
		Timestamp:  time.Now(),
		User:       currentUser(),
		Operation:  operation,
		ASSet:      asSet,
		PrefixList: prefixList,
	}
}

// WithDevice sets the target device
func (e *Event) WithDevice(device string) *Event {
	e.Device = device
	return e
}

// WithResolution records where the prefixes came from.
func (e *Event) WithResolution(family, server, method, source string, cached bool, prefixes int) *Event {
	e.Family = family
	e.Server = server
	e.Method = method
	e.Source = source
	e.Cached = cached
	e.Prefixes = prefixes
	return e
}

// WithComment sets the commit comment
func (e *Event) WithComment(comment string) *Event {
	e.Comment = comment
	return e
}

// Finish stamps the outcome and the elapsed time since the event was
// created.
func (e *Event) Finish(err error) *Event {
	e.Success = err == nil
	if err != nil {
		e.Error = err.Error()
	}
	e.Duration = time.Since(e.Timestamp)
	return e
}

func currentUser() string {
	if u := os.Getenv("SUDO_USER"); u != "" {
		return u
	}
	if u := os.Getenv("USER"); u != "" {
		return u
	}
	return "unknown"
}
