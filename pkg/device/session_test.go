package device

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/newtron-network/filterupdate/pkg/util"
)

// fakeHandle records every call and fails the steps listed in fail.
type fakeHandle struct {
	calls   []string
	fail    map[string]error
	loaded  string
	replace bool
	comment string
}

func (f *fakeHandle) step(name string) error {
	f.calls = append(f.calls, name)
	return f.fail[name]
}

func (f *fakeHandle) Lock(context.Context) error   { return f.step("lock") }
func (f *fakeHandle) Unlock(context.Context) error { return f.step("unlock") }
func (f *fakeHandle) Close() error                 { return f.step("close") }

func (f *fakeHandle) Load(_ context.Context, config string, replace bool) error {
	f.loaded, f.replace = config, replace
	return f.step("load")
}

func (f *fakeHandle) Commit(_ context.Context, comment string) error {
	f.comment = comment
	return f.step("commit")
}

const sampleConfig = "policy-options {\n    replace:\n    prefix-list L {\n        10.0.0.0/24;\n    }\n}\n"

func sampleArtifact(t *testing.T) *Artifact {
	t.Helper()
	a, err := WriteArtifact(t.TempDir(), sampleConfig)
	if err != nil {
		t.Fatalf("WriteArtifact() error = %v", err)
	}
	return a
}

func TestSessionApply(t *testing.T) {
	errBoom := errors.New("boom")

	tests := []struct {
		name      string
		fail      map[string]error
		wantCalls []string
		wantErr   error
		wantState []State
	}{
		{
			name:      "success",
			wantCalls: []string{"lock", "load", "commit", "unlock", "close"},
			wantState: []State{StateConnected, StateLocked, StateLoaded, StateCommitted, StateUnlocked, StateDisconnected},
		},
		{
			name:      "lock held elsewhere",
			fail:      map[string]error{"lock": errBoom},
			wantCalls: []string{"lock", "close"},
			wantErr:   util.ErrDeviceLock,
			wantState: []State{StateConnected, StateDisconnected},
		},
		{
			name:      "load rejected",
			fail:      map[string]error{"load": errBoom},
			wantCalls: []string{"lock", "load", "unlock", "close"},
			wantErr:   util.ErrConfigLoad,
			wantState: []State{StateConnected, StateLocked, StateUnlockedAfterFailure, StateDisconnected},
		},
		{
			name:      "load rejected and unlock fails",
			fail:      map[string]error{"load": errBoom, "unlock": errors.New("unlock failed")},
			wantCalls: []string{"lock", "load", "unlock", "close"},
			wantErr:   util.ErrConfigLoad,
			wantState: []State{StateConnected, StateLocked, StateUnlockedAfterFailure, StateDisconnected},
		},
		{
			name:      "commit check fails",
			fail:      map[string]error{"commit": errBoom},
			wantCalls: []string{"lock", "load", "commit", "unlock", "close"},
			wantErr:   util.ErrCommit,
			wantState: []State{StateConnected, StateLocked, StateLoaded, StateUnlockedAfterFailure, StateDisconnected},
		},
		{
			name:      "unlock failure after commit is not escalated",
			fail:      map[string]error{"unlock": errBoom},
			wantCalls: []string{"lock", "load", "commit", "unlock", "close"},
			wantState: []State{StateConnected, StateLocked, StateLoaded, StateCommitted, StateUnlocked, StateDisconnected},
		},
		{
			name:      "close failure is not escalated",
			fail:      map[string]error{"close": errBoom},
			wantCalls: []string{"lock", "load", "commit", "unlock", "close"},
			wantState: []State{StateConnected, StateLocked, StateLoaded, StateCommitted, StateUnlocked, StateDisconnected},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := &fakeHandle{fail: tt.fail}
			s := NewSession("r1", h)

			err := s.Apply(context.Background(), sampleArtifact(t), "Prefix filter update")

			if tt.wantErr == nil && err != nil {
				t.Fatalf("Apply() error = %v", err)
			}
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Apply() error = %v, want %v", err, tt.wantErr)
				}
				if !errors.Is(err, errBoom) {
					t.Errorf("Apply() error %v should carry the device message", err)
				}
				if !util.IsDeviceError(err) {
					t.Errorf("Apply() error %T should be a DeviceError", err)
				}
			}
			if !reflect.DeepEqual(h.calls, tt.wantCalls) {
				t.Errorf("calls = %v, want %v", h.calls, tt.wantCalls)
			}
			if !reflect.DeepEqual(s.History(), tt.wantState) {
				t.Errorf("states = %v, want %v", s.History(), tt.wantState)
			}
		})
	}
}

func TestSessionLoadsArtifactInReplaceMode(t *testing.T) {
	h := &fakeHandle{}
	if err := NewSession("r1", h).Apply(context.Background(), sampleArtifact(t), "c1"); err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	if h.loaded != sampleConfig || !h.replace {
		t.Errorf("Load(%q, %v)", h.loaded, h.replace)
	}
	if h.comment != "c1" {
		t.Errorf("Commit comment = %q", h.comment)
	}
}

func TestSessionSingleUse(t *testing.T) {
	h := &fakeHandle{}
	s := NewSession("r1", h)
	a := sampleArtifact(t)
	if err := s.Apply(context.Background(), a, ""); err != nil {
		t.Fatal(err)
	}
	if err := s.Apply(context.Background(), a, ""); !errors.Is(err, util.ErrNotConnected) {
		t.Errorf("second Apply() error = %v, want ErrNotConnected", err)
	}
	if n := len(h.calls); n != 5 {
		t.Errorf("calls = %v, second Apply should not touch the handle", h.calls)
	}
}

func TestSessionUnlocksAfterCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	h := &cancelingHandle{fakeHandle: fakeHandle{}, cancel: cancel}
	err := NewSession("r1", h).Apply(ctx, sampleArtifact(t), "")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Apply() error = %v, want context.Canceled", err)
	}
	if h.unlockCtxErr != nil {
		t.Errorf("Unlock saw canceled context: %v", h.unlockCtxErr)
	}
	want := []string{"lock", "load", "unlock", "close"}
	if !reflect.DeepEqual(h.calls, want) {
		t.Errorf("calls = %v, want %v", h.calls, want)
	}
}

type cancelingHandle struct {
	fakeHandle
	cancel       context.CancelFunc
	unlockCtxErr error
}

func (h *cancelingHandle) Load(ctx context.Context, config string, replace bool) error {
	h.calls = append(h.calls, "load")
	h.cancel()
	return ctx.Err()
}

func (h *cancelingHandle) Unlock(ctx context.Context) error {
	h.unlockCtxErr = ctx.Err()
	return h.step("unlock")
}

func TestStateString(t *testing.T) {
	if StateUnlockedAfterFailure.String() != "unlocked-after-failure" {
		t.Errorf("String() = %q", StateUnlockedAfterFailure.String())
	}
	if State(99).String() != "state(99)" {
		t.Errorf("String() = %q", State(99).String())
	}
}
