// Package device applies a rendered prefix-list to a Junos router inside a
// lock, load, commit, unlock transaction.
package device

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/newtron-network/filterupdate/pkg/util"
)

// Handle is an authenticated configuration session on one device.
type Handle interface {
	Lock(ctx context.Context) error
	Unlock(ctx context.Context) error
	// Load stages config in the candidate. With replace set, stanzas tagged
	// "replace:" overwrite the existing ones.
	Load(ctx context.Context, config string, replace bool) error
	Commit(ctx context.Context, comment string) error
	Close() error
}

// State is a step of the device transaction.
type State int

const (
	StateDisconnected State = iota
	StateConnected
	StateLocked
	StateLoaded
	StateCommitted
	StateUnlocked
	StateUnlockedAfterFailure
)

var stateNames = map[State]string{
	StateDisconnected:         "disconnected",
	StateConnected:            "connected",
	StateLocked:               "locked",
	StateLoaded:               "loaded",
	StateCommitted:            "committed",
	StateUnlocked:             "unlocked",
	StateUnlockedAfterFailure: "unlocked-after-failure",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Session runs one transaction over a Handle. A session is single-use: it
// disconnects when Apply returns.
type Session struct {
	device string
	handle Handle
	state  State
	// history records every state entered, in order.
	history []State
	log     *logrus.Entry
}

// NewSession wraps an already connected handle for device.
func NewSession(device string, h Handle) *Session {
	s := &Session{
		device: device,
		handle: h,
		log:    util.WithDevice(device),
	}
	s.enter(StateConnected)
	return s
}

// State returns the current state.
func (s *Session) State() State { return s.state }

// History returns the states entered so far.
func (s *Session) History() []State {
	out := make([]State, len(s.history))
	copy(out, s.history)
	return out
}

func (s *Session) enter(st State) {
	s.state = st
	s.history = append(s.history, st)
	s.log.WithField("state", st.String()).Debug("Device transaction")
}

// Apply locks the candidate configuration, loads the artifact in replace
// mode, commits with comment and unlocks. The handle is closed exactly once
// on every path. Once the lock is held, exactly one unlock is attempted; an
// unlock failure is logged and does not change the result.
func (s *Session) Apply(ctx context.Context, artifact *Artifact, comment string) (err error) {
	if s.state != StateConnected {
		return util.NewDeviceError("connect", s.device, fmt.Errorf("session is %s", s.state))
	}
	defer s.disconnect()

	config, err := artifact.Contents()
	if err != nil {
		return util.NewDeviceError("load", s.device, err)
	}

	if err := s.handle.Lock(ctx); err != nil {
		return util.NewDeviceError("lock", s.device, err)
	}
	s.enter(StateLocked)
	defer func() { s.unlock(ctx, err != nil) }()

	if err := s.handle.Load(ctx, config, true); err != nil {
		return util.NewDeviceError("load", s.device, err)
	}
	s.enter(StateLoaded)

	if err := s.handle.Commit(ctx, comment); err != nil {
		return util.NewDeviceError("commit", s.device, err)
	}
	s.enter(StateCommitted)
	s.log.Info("Configuration committed")
	return nil
}

func (s *Session) unlock(ctx context.Context, failed bool) {
	// the lock must be released even when the run was canceled
	if err := s.handle.Unlock(context.WithoutCancel(ctx)); err != nil {
		s.log.Warnf("%v", util.NewDeviceError("unlock", s.device, err))
	}
	if failed {
		s.enter(StateUnlockedAfterFailure)
	} else {
		s.enter(StateUnlocked)
	}
}

func (s *Session) disconnect() {
	if err := s.handle.Close(); err != nil {
		s.log.Debugf("Close: %v", err)
	}
	s.enter(StateDisconnected)
}
