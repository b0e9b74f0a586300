package resolve

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/newtron-network/filterupdate/pkg/irr"
	"github.com/newtron-network/filterupdate/pkg/junos"
	"github.com/newtron-network/filterupdate/pkg/metrics"
	"github.com/newtron-network/filterupdate/pkg/util"
)

// DefaultTool is the prefix-list generator tried first.
const DefaultTool = "bgpq4"

// Markers every accepted tool output must contain.
const (
	markerPolicyOptions = "policy-options {"
	markerPrefixList    = "prefix-list"
)

// Invoker drives the external prefix-list tool across the server, spelling
// and flag-shape matrix. When the tool is missing it delegates to the
// registry dialect sequencer; when every combination fails it makes one
// route-object query before giving up.
type Invoker struct {
	Tool    string
	Runner  Runner
	Querier irr.Querier
	Metrics *metrics.Recorder
}

// NewInvoker creates an invoker for tool using os/exec and the registry
// client q.
func NewInvoker(tool string, q irr.Querier) *Invoker {
	if tool == "" {
		tool = DefaultTool
	}
	return &Invoker{Tool: tool, Runner: ExecRunner{}, Querier: q}
}

// Available runs the tool without arguments. Only a "command not found"
// outcome counts as absent; usage errors still prove it is installed.
func (inv *Invoker) Available(ctx context.Context) bool {
	res := inv.Runner.Run(ctx, inv.Tool, nil)
	if res.NotFound() {
		return false
	}
	return ctx.Err() == nil
}

// Resolve produces the rendered prefix-list for req.
func (inv *Invoker) Resolve(ctx context.Context, req Request) (*Result, error) {
	log := util.WithASSet(req.ASSet)

	if !inv.Available(ctx) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		log.Warnf("%s not found, falling back to direct registry queries", inv.Tool)
		inv.Metrics.Attempt("tool", "unavailable")
		return inv.direct(ctx, req)
	}

	combos := Matrix(req)
	strategies := make([]util.Strategy[*Result], 0, len(combos))
	for _, c := range combos {
		strategies = append(strategies, inv.strategy(c, req))
	}

	if res, name, ok := util.FirstSuccess(ctx, strategies); ok {
		log.WithField("combination", name).Infof("%s produced prefix-list %s", inv.Tool, req.ListName)
		return res, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	log.Warnf("All %d %s invocations failed, querying route objects on %s", len(combos), inv.Tool, req.Server)
	prefixes := irr.RouteObjects(ctx, inv.Querier, req.Server, req.ASSet, req.Family)
	if len(prefixes) == 0 {
		inv.Metrics.Attempt("route-objects", metrics.OutcomeEmpty)
		return nil, inv.exhausted(req, true)
	}
	inv.Metrics.Attempt("route-objects", metrics.OutcomeAccepted)
	return &Result{
		Config:   junos.Render(prefixes, req.ListName),
		Prefixes: prefixes,
		Method:   MethodTool,
		Source:   "route-objects " + req.Server,
	}, nil
}

func (inv *Invoker) strategy(c Combination, req Request) util.Strategy[*Result] {
	return util.StrategyFunc[*Result]{
		Label: c.String(),
		Fn: func(ctx context.Context) (*Result, bool) {
			log := util.WithAttempt("tool", c.String(), c.Server)

			res := inv.Runner.Run(ctx, inv.Tool, c.Args)
			if err := checkToolOutput(res); err != nil {
				log.Debugf("%s %s: %v", inv.Tool, strings.Join(c.Args, " "), err)
				inv.Metrics.Attempt("tool", metrics.OutcomeRejected)
				return nil, false
			}
			inv.Metrics.Attempt("tool", metrics.OutcomeAccepted)

			config := junos.RenamePrefixList(res.Stdout, req.ListName)
			var prefixes []string
			if lists, err := junos.ParsePrefixLists(config); err == nil {
				for _, pl := range lists {
					if pl.Name == req.ListName {
						prefixes = pl.Prefixes
						break
					}
				}
			} else {
				log.Debugf("could not parse %s output: %v", inv.Tool, err)
			}

			return &Result{
				Config:   config,
				Prefixes: prefixes,
				Method:   MethodTool,
				Source:   inv.Tool + " " + c.String(),
			}, true
		},
	}
}

// checkToolOutput rejects a run that failed, wrote to stderr, or did not
// produce a Junos prefix-list.
func checkToolOutput(res RunResult) error {
	switch {
	case res.Err != nil:
		return fmt.Errorf("%w: %v", util.ErrToolRejected, res.Err)
	case res.ExitCode != 0:
		return fmt.Errorf("%w: exit status %d", util.ErrToolRejected, res.ExitCode)
	case res.Stderr != "":
		return fmt.Errorf("%w: stderr: %s", util.ErrToolRejected, strings.TrimSpace(res.Stderr))
	case !strings.Contains(res.Stdout, markerPolicyOptions) || !strings.Contains(res.Stdout, markerPrefixList):
		return fmt.Errorf("%w: output is not a Junos prefix-list", util.ErrToolRejected)
	}
	return nil
}

// direct resolves through the registry dialects when the tool is absent.
func (inv *Invoker) direct(ctx context.Context, req Request) (*Result, error) {
	res, err := resolveDirect(ctx, inv.Querier, inv.Metrics, req)
	if errors.Is(err, util.ErrNoPrefixes) {
		return nil, inv.exhausted(req, false)
	}
	return res, err
}

func (inv *Invoker) exhausted(req Request, toolPresent bool) error {
	e := &util.ResolutionError{
		ASSet:     req.ASSet,
		Tool:      inv.Tool,
		Spellings: SpellingCandidates(req.ASSet),
	}
	if toolPresent {
		e.Servers = ServerCandidates(req.Server)
	} else {
		e.Servers = []string{req.Server}
	}
	e.Guidance = guidance(req, e, toolPresent)
	return e
}

// resolveDirect runs the dialect sequencer and renders its prefixes.
func resolveDirect(ctx context.Context, q irr.Querier, m *metrics.Recorder, req Request) (*Result, error) {
	seq := irr.NewSequencer(q, req.Server)
	var winner irr.Dialect
	seq.OnAttempt = func(a irr.QueryAttempt) {
		if len(a.Prefixes) == 0 {
			m.Attempt("dialect", metrics.OutcomeEmpty)
			return
		}
		m.Attempt("dialect", metrics.OutcomeAccepted)
		winner = a.Dialect
	}

	prefixes, err := seq.Resolve(ctx, req.ASSet, req.Family)
	if err != nil {
		return nil, err
	}
	return &Result{
		Config:   junos.Render(prefixes, req.ListName),
		Prefixes: prefixes,
		Method:   MethodDirect,
		Source:   "registry " + req.Server + " " + winner.String(),
	}, nil
}

func guidance(req Request, e *util.ResolutionError, toolPresent bool) []string {
	var g []string
	if len(e.Spellings) > 1 {
		g = append(g, "check the AS-SET name; tried spellings: "+strings.Join(e.Spellings, ", "))
	} else {
		g = append(g, "check the AS-SET name "+req.ASSet+" exists in the registry")
	}
	g = append(g, "try another registry with -s (tried: "+strings.Join(e.Servers, ", ")+")")
	if toolPresent {
		g = append(g, "run "+e.Tool+" by hand to see its error output, or use --direct for raw registry queries")
	} else {
		g = append(g, "install "+e.Tool+" (or pass --use-bgpq3) for more complete expansion")
	}
	return g
}
