package resolve

import (
	"context"

	"github.com/newtron-network/filterupdate/pkg/cache"
	"github.com/newtron-network/filterupdate/pkg/irr"
	"github.com/newtron-network/filterupdate/pkg/metrics"
	"github.com/newtron-network/filterupdate/pkg/util"
)

// Resolver is the entry point for turning a Request into a Result.
type Resolver struct {
	Querier irr.Querier
	Invoker *Invoker
	Cache   *cache.Cache
	Metrics *metrics.Recorder

	// Refresh skips the cache lookup but still stores the new result.
	Refresh bool
}

// NewResolver creates a resolver using the registry client q and the given
// tool binary.
func NewResolver(q irr.Querier, tool string) *Resolver {
	return &Resolver{
		Querier: q,
		Invoker: NewInvoker(tool, q),
	}
}

// SetMetrics attaches a recorder to the resolver and its invoker.
func (r *Resolver) SetMetrics(m *metrics.Recorder) {
	r.Metrics = m
	if r.Invoker != nil {
		r.Invoker.Metrics = m
	}
}

// Resolve returns the rendered prefix-list for req. A nil error always
// comes with a result holding at least the scaffold.
func (r *Resolver) Resolve(ctx context.Context, req Request) (*Result, error) {
	key := r.cacheKey(req)
	if !r.Refresh {
		if e, ok := r.Cache.Load(ctx, key); ok {
			util.WithASSet(req.ASSet).Infof("Using cached prefix-list from %s", e.StoredAt.Format("2006-01-02 15:04:05"))
			r.Metrics.Resolution(e.Method, "cached")
			r.Metrics.Prefixes(req.Family.String(), len(e.Prefixes))
			return &Result{
				Config:   e.Config,
				Prefixes: e.Prefixes,
				Method:   parseMethod(e.Method),
				Source:   e.Source,
				Cached:   true,
			}, nil
		}
	}

	var (
		res *Result
		err error
	)
	switch req.Method {
	case MethodDirect:
		res, err = resolveDirect(ctx, r.Querier, r.Metrics, req)
		if err == nil {
			break
		}
		if ctx.Err() == nil {
			err = &util.ResolutionError{
				ASSet:    req.ASSet,
				Servers:  []string{req.Server},
				Guidance: []string{"check the AS-SET name or try another registry with -s"},
			}
		}
	default:
		inv := r.Invoker
		if inv == nil {
			inv = NewInvoker("", r.Querier)
			inv.Metrics = r.Metrics
		}
		res, err = inv.Resolve(ctx, req)
	}

	if err != nil {
		r.Metrics.Resolution(req.Method.String(), metrics.OutcomeFailure)
		return nil, err
	}

	r.Metrics.Resolution(res.Method.String(), metrics.OutcomeSuccess)
	r.Metrics.Prefixes(req.Family.String(), len(res.Prefixes))
	r.Cache.Save(ctx, key, &cache.Entry{
		Config:   res.Config,
		Prefixes: res.Prefixes,
		Method:   res.Method.String(),
		Source:   res.Source,
	})
	return res, nil
}

// cacheKey separates results by method and, in tool mode, by tool binary.
func (r *Resolver) cacheKey(req Request) string {
	method := req.Method.String()
	if req.Method == MethodTool {
		tool := DefaultTool
		if r.Invoker != nil && r.Invoker.Tool != "" {
			tool = r.Invoker.Tool
		}
		method += ":" + tool
	}
	return cache.Key(method, req.Family.String(), req.Server, req.ASSet, req.ListName)
}

func parseMethod(s string) Method {
	if s == "direct" {
		return MethodDirect
	}
	return MethodTool
}
