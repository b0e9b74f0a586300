package irr

import (
	"context"
	"fmt"
	"strings"

	"github.com/newtron-network/filterupdate/pkg/util"
)

// Dialect is one registry query form for expanding an AS-SET.
type Dialect int

// Dialects in the order they are attempted.
const (
	DialectDirect         Dialect = iota // !4AS-X
	DialectNamedSet                      // !4as-set AS-X
	DialectRecursive                     // !r4 AS-X
	DialectGroup                         // !g AS-X / !6g AS-X
	DialectASSetIndicator                // !a AS-X
	DialectASNumber                      // !i 65000
)

var dialectNames = map[Dialect]string{
	DialectDirect:         "direct",
	DialectNamedSet:       "named-set",
	DialectRecursive:      "recursive",
	DialectGroup:          "group",
	DialectASSetIndicator: "as-set-indicator",
	DialectASNumber:       "as-number",
}

func (d Dialect) String() string {
	if name, ok := dialectNames[d]; ok {
		return name
	}
	return fmt.Sprintf("dialect(%d)", int(d))
}

// QueryLine builds the query for asSet. ok is false when the dialect does
// not apply to this identifier.
func (d Dialect) QueryLine(asSet string, family Family) (string, bool) {
	f := family.digit()
	switch d {
	case DialectDirect:
		return "!" + f + asSet, true
	case DialectNamedSet:
		return "!" + f + "as-set " + asSet, true
	case DialectRecursive:
		return "!r" + f + " " + asSet, true
	case DialectGroup:
		if family == IPv6 {
			return "!6g " + asSet, true
		}
		return "!g " + asSet, true
	case DialectASSetIndicator:
		return "!a " + asSet, true
	case DialectASNumber:
		if !util.IsASNumber(asSet) {
			return "", false
		}
		return "!i " + asSet[2:], true
	}
	return "", false
}

// AllDialects lists every dialect in attempt order.
func AllDialects() []Dialect {
	return []Dialect{
		DialectDirect,
		DialectNamedSet,
		DialectRecursive,
		DialectGroup,
		DialectASSetIndicator,
		DialectASNumber,
	}
}

// QueryAttempt records one dialect try. It lives only for the duration of
// the sequencer run.
type QueryAttempt struct {
	Dialect     Dialect
	Server      string
	QueryLine   string
	RawResponse string
	Prefixes    []string
}

// Sequencer tries each dialect against one server until a dialect yields
// prefixes.
type Sequencer struct {
	Querier Querier
	Server  string

	// OnAttempt, when set, observes every attempt after it is parsed.
	OnAttempt func(QueryAttempt)
}

// NewSequencer creates a sequencer querying server through q.
func NewSequencer(q Querier, server string) *Sequencer {
	if server == "" {
		server = DefaultServer
	}
	return &Sequencer{Querier: q, Server: server}
}

// Resolve returns the de-duplicated prefixes of the first dialect that
// produced any. It returns util.ErrNoPrefixes when every dialect came back
// empty; there is no further fallback at this layer.
func (s *Sequencer) Resolve(ctx context.Context, asSet string, family Family) ([]string, error) {
	asSet = strings.TrimSpace(asSet)

	var strategies []util.Strategy[[]string]
	for _, d := range AllDialects() {
		line, ok := d.QueryLine(asSet, family)
		if !ok {
			continue
		}
		strategies = append(strategies, s.strategy(d, line, family))
	}

	prefixes, name, ok := util.FirstSuccess(ctx, strategies)
	if !ok {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("%s on %s: %w", asSet, s.Server, util.ErrNoPrefixes)
	}

	util.WithASSet(asSet).WithField("dialect", name).Infof("Resolved %d %s prefixes", len(prefixes), family)
	return prefixes, nil
}

func (s *Sequencer) strategy(d Dialect, line string, family Family) util.Strategy[[]string] {
	return util.StrategyFunc[[]string]{
		Label: d.String(),
		Fn: func(ctx context.Context) ([]string, bool) {
			raw := s.Querier.Query(ctx, s.Server, line)
			attempt := QueryAttempt{
				Dialect:     d,
				Server:      s.Server,
				QueryLine:   line,
				RawResponse: raw,
				Prefixes:    Dedup(ParsePrefixes(raw, family)),
			}
			util.WithAttempt("dialect", d.String(), s.Server).WithFields(map[string]interface{}{
				"query":    line,
				"prefixes": len(attempt.Prefixes),
			}).Debug("Dialect attempt")
			if s.OnAttempt != nil {
				s.OnAttempt(attempt)
			}
			return attempt.Prefixes, len(attempt.Prefixes) > 0
		},
	}
}
