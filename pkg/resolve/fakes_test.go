package resolve

import (
	"context"
	"strings"
	"sync"
)

// fakeRunner answers tool invocations from a function and records every
// argument vector it was given. A missing runner behaves like a shell that
// cannot find the command, for the availability check too.
type fakeRunner struct {
	mu      sync.Mutex
	calls   [][]string
	missing bool
	answer  func(args []string) RunResult
}

func (f *fakeRunner) Run(_ context.Context, _ string, args []string) RunResult {
	f.mu.Lock()
	f.calls = append(f.calls, args)
	f.mu.Unlock()
	if f.missing {
		return RunResult{Stderr: "sh: bgpq4: command not found\n", ExitCode: 127}
	}
	if args == nil {
		return RunResult{Stderr: "usage: bgpq4 [-h host] ...\n", ExitCode: 1}
	}
	return f.answer(args)
}

// toolCalls returns the recorded calls excluding the availability probe.
func (f *fakeRunner) toolCalls() [][]string {
	var out [][]string
	for _, c := range f.calls {
		if c != nil {
			out = append(out, c)
		}
	}
	return out
}

func missingTool() *fakeRunner {
	return &fakeRunner{missing: true}
}

// scriptedQuerier returns canned registry responses keyed by query line.
type scriptedQuerier struct {
	responses map[string]string
	calls     []string
}

func (q *scriptedQuerier) Query(_ context.Context, server, line string) string {
	q.calls = append(q.calls, server+" "+line)
	return q.responses[line]
}

func toolOutput(name string, prefixes ...string) string {
	var b strings.Builder
	b.WriteString("policy-options {\nreplace:\n prefix-list " + name + " {\n")
	for _, p := range prefixes {
		b.WriteString("    " + p + ";\n")
	}
	b.WriteString(" }\n}\n")
	return b.String()
}

func argValue(args []string, flag string) string {
	for i := 0; i < len(args)-1; i++ {
		if args[i] == flag {
			return args[i+1]
		}
	}
	return ""
}

func hasArg(args []string, v string) bool {
	for _, a := range args {
		if a == v {
			return true
		}
	}
	return false
}
