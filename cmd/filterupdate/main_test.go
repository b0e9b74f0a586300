package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/newtron-network/filterupdate/pkg/audit"
	"github.com/newtron-network/filterupdate/pkg/device"
	"github.com/newtron-network/filterupdate/pkg/irr"
	"github.com/newtron-network/filterupdate/pkg/resolve"
	"github.com/newtron-network/filterupdate/pkg/util"
)

type stubQuerier map[string]string

func (q stubQuerier) Query(_ context.Context, _, line string) string { return q[line] }

type stubRunner struct {
	names []string
}

func (r *stubRunner) Run(_ context.Context, name string, _ []string) resolve.RunResult {
	r.names = append(r.names, name)
	return resolve.RunResult{ExitCode: 127}
}

type stubHandle struct {
	calls   []string
	fail    map[string]error
	comment string
}

func (h *stubHandle) step(name string) error {
	h.calls = append(h.calls, name)
	return h.fail[name]
}

func (h *stubHandle) Lock(context.Context) error {
	return h.step("lock")
}

func (h *stubHandle) Unlock(context.Context) error {
	return h.step("unlock")
}

func (h *stubHandle) Load(context.Context, string, bool) error {
	return h.step("load")
}

func (h *stubHandle) Commit(_ context.Context, comment string) error {
	h.comment = comment
	return h.step("commit")
}

func (h *stubHandle) Close() error {
	return h.step("close")
}

// setup isolates HOME and installs registry, tool and device stubs.
func setup(t *testing.T, responses map[string]string, h *stubHandle) *stubRunner {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	t.Setenv("NO_COLOR", "1")

	runner := &stubRunner{}
	oldQ, oldR, oldD := newQuerier, newRunner, dialDevice
	newQuerier = func() irr.Querier { return stubQuerier(responses) }
	newRunner = func() resolve.Runner { return runner }
	dialDevice = func(ctx context.Context, target device.Target) (device.Handle, error) {
		if h == nil {
			return nil, errors.New("no device in this test")
		}
		return h, nil
	}
	t.Cleanup(func() {
		newQuerier, newRunner, dialDevice = oldQ, oldR, oldD
		audit.SetDefaultLogger(nil)
	})
	return runner
}

func execute(args ...string) (string, error) {
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

var exampleResponses = map[string]string{
	"!4AS-EXAMPLE": "10.0.0.0/24\n10.0.1.0/24\n% comment\n",
}

const exampleConfig = `policy-options {
    replace:
    prefix-list EXAMPLE-IN {
        10.0.0.0/24;
        10.0.1.0/24;
    }
}
`

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"success", nil, 0},
		{"validation", &util.ValidationError{Errors: []string{"x"}}, 1},
		{"resolution", &util.ResolutionError{ASSet: "AS-X"}, 1},
		{"lock", util.NewDeviceError("lock", "r1", errors.New("held")), 2},
		{"connect", util.NewDeviceError("connect", "r1", errors.New("refused")), 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := exitCode(tt.err); got != tt.want {
				t.Errorf("exitCode() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestRenderToStdout(t *testing.T) {
	runner := setup(t, exampleResponses, nil)

	out, err := execute("-a", "AS-EXAMPLE", "-l", "EXAMPLE-IN", "--test")
	if err != nil {
		t.Fatalf("execute() error = %v", err)
	}
	if out != exampleConfig {
		t.Errorf("output =\n%s\nwant\n%s", out, exampleConfig)
	}
	if !reflect.DeepEqual(runner.names, []string{"bgpq4"}) {
		t.Errorf("tool probes = %v, want one bgpq4 probe", runner.names)
	}
}

func TestRenderToFile(t *testing.T) {
	setup(t, exampleResponses, nil)
	path := filepath.Join(t.TempDir(), "example.conf")

	out, err := execute("-a", "AS-EXAMPLE", "-l", "EXAMPLE-IN", "--test", "-o", path)
	if err != nil {
		t.Fatalf("execute() error = %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != exampleConfig {
		t.Errorf("file =\n%s", data)
	}
	if !strings.Contains(out, "2 prefixes") {
		t.Errorf("output = %q", out)
	}
}

func TestUseBgpq3(t *testing.T) {
	runner := setup(t, exampleResponses, nil)
	if _, err := execute("-a", "AS-EXAMPLE", "-l", "EXAMPLE-IN", "--test", "--use-bgpq3"); err != nil {
		t.Fatalf("execute() error = %v", err)
	}
	if !reflect.DeepEqual(runner.names, []string{"bgpq3"}) {
		t.Errorf("tool probes = %v", runner.names)
	}
}

func TestDirectSkipsTool(t *testing.T) {
	runner := setup(t, exampleResponses, nil)
	if _, err := execute("-a", "AS-EXAMPLE", "-l", "EXAMPLE-IN", "--test", "--direct"); err != nil {
		t.Fatalf("execute() error = %v", err)
	}
	if len(runner.names) != 0 {
		t.Errorf("tool probes = %v, want none", runner.names)
	}
}

func TestExclusiveToolFlags(t *testing.T) {
	setup(t, exampleResponses, nil)
	if _, err := execute("-a", "AS-EXAMPLE", "-l", "L", "--test", "--use-bgpq3", "--direct"); err == nil {
		t.Error("--use-bgpq3 with --direct should be rejected")
	}
}

func TestValidation(t *testing.T) {
	setup(t, exampleResponses, nil)

	tests := []struct {
		name string
		args []string
	}{
		{"missing as-set", []string{"-l", "L", "--test"}},
		{"missing prefix-list", []string{"-a", "AS-EXAMPLE", "--test"}},
		{"missing device", []string{"-a", "AS-EXAMPLE", "-l", "L", "-u", "ops", "-p", "x"}},
		{"missing user", []string{"-a", "AS-EXAMPLE", "-l", "L", "-d", "edge1", "-p", "x"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(tt.args...)
			if !errors.Is(err, util.ErrValidationFailed) {
				t.Fatalf("execute() error = %v, want validation failure", err)
			}
			if exitCode(err) != 1 {
				t.Errorf("exitCode() = %d, want 1", exitCode(err))
			}
		})
	}
}

func TestResolutionFailure(t *testing.T) {
	setup(t, map[string]string{}, nil)

	_, err := execute("-a", "AS-NOTHING", "-l", "L", "--test")
	if !errors.Is(err, util.ErrResolutionExhausted) {
		t.Fatalf("execute() error = %v, want ErrResolutionExhausted", err)
	}
	if exitCode(err) != 1 {
		t.Errorf("exitCode() = %d, want 1", exitCode(err))
	}

	var buf bytes.Buffer
	printError(&buf, err)
	if !strings.Contains(buf.String(), "  - ") {
		t.Errorf("printError() did not list guidance:\n%s", buf.String())
	}
}

func TestApply(t *testing.T) {
	h := &stubHandle{}
	setup(t, exampleResponses, h)

	out, err := execute("-a", "AS-EXAMPLE", "-l", "EXAMPLE-IN", "-d", "edge1", "-u", "ops", "-p", "secret")
	if err != nil {
		t.Fatalf("execute() error = %v", err)
	}
	if !strings.Contains(out, "======[ Writing prefix filter ]======") {
		t.Errorf("output missing banner:\n%s", out)
	}
	want := []string{"lock", "load", "commit", "unlock", "close"}
	if !reflect.DeepEqual(h.calls, want) {
		t.Errorf("device calls = %v, want %v", h.calls, want)
	}
	if h.comment != "Prefix filter update" {
		t.Errorf("commit comment = %q", h.comment)
	}

	events, err := audit.Query(audit.Filter{Device: "edge1"})
	if err != nil || len(events) != 1 {
		t.Fatalf("audit events = %v, %v", events, err)
	}
	if !events[0].Success || events[0].Prefixes != 2 || events[0].Operation != audit.OperationApply {
		t.Errorf("audit event = %+v", events[0])
	}
}

func TestApplyDeviceFailure(t *testing.T) {
	h := &stubHandle{fail: map[string]error{"lock": errors.New("configuration database locked by: admin")}}
	setup(t, exampleResponses, h)

	_, err := execute("-a", "AS-EXAMPLE", "-l", "EXAMPLE-IN", "-d", "edge1", "-u", "ops", "-p", "secret", "--comment", "ticket 7")
	if !errors.Is(err, util.ErrDeviceLock) {
		t.Fatalf("execute() error = %v, want ErrDeviceLock", err)
	}
	if exitCode(err) != 2 {
		t.Errorf("exitCode() = %d, want 2", exitCode(err))
	}
	if !reflect.DeepEqual(h.calls, []string{"lock", "close"}) {
		t.Errorf("device calls = %v", h.calls)
	}

	events, _ := audit.Query(audit.Filter{FailureOnly: true})
	if len(events) != 1 || !strings.Contains(events[0].Error, "locked by") {
		t.Errorf("audit events = %+v", events)
	}
}

func TestMetricsFile(t *testing.T) {
	setup(t, exampleResponses, nil)
	path := filepath.Join(t.TempDir(), "filterupdate.prom")

	if _, err := execute("-a", "AS-EXAMPLE", "-l", "EXAMPLE-IN", "--test", "--metrics-file", path); err != nil {
		t.Fatalf("execute() error = %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("metrics file: %v", err)
	}
	if !strings.Contains(string(data), `filterupdate_prefixes{family="ipv4"} 2`) {
		t.Errorf("metrics =\n%s", data)
	}
}

func TestSettingsCommands(t *testing.T) {
	setup(t, exampleResponses, nil)

	if _, err := execute("settings", "set", "irr_server", "whois.radb.net"); err != nil {
		t.Fatalf("settings set error = %v", err)
	}
	out, err := execute("settings", "get", "irr_server")
	if err != nil || strings.TrimSpace(out) != "whois.radb.net" {
		t.Errorf("settings get = %q, %v", out, err)
	}
	if _, err := execute("settings", "set", "bogus", "x"); err == nil {
		t.Error("settings set bogus should fail")
	}
	out, err = execute("settings", "show")
	if err != nil || !strings.Contains(out, "whois.radb.net") {
		t.Errorf("settings show = %q, %v", out, err)
	}
	if _, err := execute("settings", "clear"); err != nil {
		t.Fatal(err)
	}
	out, _ = execute("settings", "get", "irr_server")
	if strings.TrimSpace(out) != "(not set)" {
		t.Errorf("after clear: %q", out)
	}
}

func TestVersionCommand(t *testing.T) {
	setup(t, exampleResponses, nil)
	out, err := execute("version")
	if err != nil || !strings.HasPrefix(out, "filterupdate") {
		t.Errorf("version = %q, %v", out, err)
	}
}

func TestAuditCommand(t *testing.T) {
	setup(t, exampleResponses, nil)
	if _, err := execute("-a", "AS-EXAMPLE", "-l", "EXAMPLE-IN", "--test"); err != nil {
		t.Fatal(err)
	}
	out, err := execute("audit", "--as-set", "AS-EXAMPLE")
	if err != nil {
		t.Fatalf("audit error = %v", err)
	}
	if !strings.Contains(out, "AS-EXAMPLE") || !strings.Contains(out, "render") {
		t.Errorf("audit output =\n%s", out)
	}
}
