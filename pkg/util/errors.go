// Package util provides logging, error types, and small helpers shared by
// the resolution and apply pipeline.
package util

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors. Resolution-layer sentinels signal "try the next
// alternative"; only ErrResolutionExhausted and the device errors reach the
// operator.
var (
	ErrNoPrefixes          = errors.New("no prefixes found")
	ErrToolUnavailable     = errors.New("prefix-list tool not installed")
	ErrToolRejected        = errors.New("prefix-list tool output rejected")
	ErrResolutionExhausted = errors.New("prefix resolution exhausted")
	ErrValidationFailed    = errors.New("validation failed")
	ErrNotConnected        = errors.New("device not connected")
	ErrDeviceLock          = errors.New("unable to lock configuration")
	ErrConfigLoad          = errors.New("unable to load configuration")
	ErrCommit              = errors.New("unable to commit configuration")
	ErrUnlock              = errors.New("unable to unlock configuration")
)

// ResolutionError reports that every server, spelling, and tool combination
// failed. Guidance lists what the operator can try next.
type ResolutionError struct {
	ASSet     string
	Tool      string
	Servers   []string
	Spellings []string
	Guidance  []string
}

func (e *ResolutionError) Error() string {
	msg := fmt.Sprintf("no prefixes found for %s", e.ASSet)
	if len(e.Servers) > 0 {
		msg += " (servers: " + strings.Join(e.Servers, ", ") + ")"
	}
	if len(e.Spellings) > 1 {
		msg += " (spellings: " + strings.Join(e.Spellings, ", ") + ")"
	}
	return msg
}

func (e *ResolutionError) Unwrap() error {
	return ErrResolutionExhausted
}

// DeviceError wraps a fault from one step of the device transaction.
type DeviceError struct {
	Op     string // lock, load, commit, unlock
	Device string
	Err    error
}

func (e *DeviceError) Error() string {
	return fmt.Sprintf("%s on %s: %v", opSentinel(e.Op), e.Device, e.Err)
}

// Unwrap exposes both the step sentinel and the underlying device error.
func (e *DeviceError) Unwrap() []error {
	return []error{opSentinel(e.Op), e.Err}
}

func opSentinel(op string) error {
	switch op {
	case "lock":
		return ErrDeviceLock
	case "load":
		return ErrConfigLoad
	case "commit":
		return ErrCommit
	case "unlock":
		return ErrUnlock
	}
	return ErrNotConnected
}

// NewDeviceError creates a device transaction error
func NewDeviceError(op, device string, err error) *DeviceError {
	return &DeviceError{Op: op, Device: device, Err: err}
}

// IsDeviceError reports whether err came from the device transaction.
func IsDeviceError(err error) bool {
	var de *DeviceError
	return errors.As(err, &de) || errors.Is(err, ErrNotConnected)
}

// ValidationError represents one or more validation failures
type ValidationError struct {
	Errors []string
}

func (e *ValidationError) Error() string {
	if len(e.Errors) == 1 {
		return "validation failed: " + e.Errors[0]
	}
	return fmt.Sprintf("validation failed:\n  - %s", strings.Join(e.Errors, "\n  - "))
}

func (e *ValidationError) Unwrap() error {
	return ErrValidationFailed
}

// ValidationBuilder helps accumulate validation errors
type ValidationBuilder struct {
	errors []string
}

// Add adds an error message if condition is false
func (v *ValidationBuilder) Add(condition bool, message string) *ValidationBuilder {
	if !condition {
		v.errors = append(v.errors, message)
	}
	return v
}

// AddErrorf adds a formatted error message
func (v *ValidationBuilder) AddErrorf(format string, args ...interface{}) *ValidationBuilder {
	v.errors = append(v.errors, fmt.Sprintf(format, args...))
	return v
}

// HasErrors returns true if there are validation errors
func (v *ValidationBuilder) HasErrors() bool {
	return len(v.errors) > 0
}

// Build returns the validation error or nil if no errors
func (v *ValidationBuilder) Build() error {
	if len(v.errors) == 0 {
		return nil
	}
	return &ValidationError{Errors: v.errors}
}
