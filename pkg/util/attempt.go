package util

import "context"

// Strategy is one alternative in an ordered fallback chain.
type Strategy[T any] interface {
	Name() string
	Attempt(ctx context.Context) (T, bool)
}

// StrategyFunc adapts a function to the Strategy interface.
type StrategyFunc[T any] struct {
	Label string
	Fn    func(ctx context.Context) (T, bool)
}

func (s StrategyFunc[T]) Name() string { return s.Label }

func (s StrategyFunc[T]) Attempt(ctx context.Context) (T, bool) { return s.Fn(ctx) }

// FirstSuccess evaluates strategies in order and returns the result of the
// first one that succeeds, along with its name. Later strategies are never
// attempted once one succeeds. A cancelled context stops the chain.
func FirstSuccess[T any](ctx context.Context, strategies []Strategy[T]) (T, string, bool) {
	var zero T
	for _, s := range strategies {
		if ctx.Err() != nil {
			return zero, "", false
		}
		if result, ok := s.Attempt(ctx); ok {
			return result, s.Name(), true
		}
	}
	return zero, "", false
}
