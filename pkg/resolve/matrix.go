package resolve

import (
	"fmt"
	"strings"

	"github.com/newtron-network/filterupdate/pkg/irr"
	"github.com/newtron-network/filterupdate/pkg/util"
)

// AlternateServers are tried after the default registry, in this order.
var AlternateServers = []string{
	"whois.radb.net",
	"whois.ripe.net",
	"whois.altdb.net",
}

// Shape names, in attempt order.
const (
	ShapeServerFirst = "server-first"
	ShapeNamed       = "named"
	ShapeAggregate   = "aggregate"
	ShapeOrigin      = "origin-as"
	ShapeNoServer    = "no-server"
)

// Combination is one tool invocation in the matrix.
type Combination struct {
	Server   string
	Spelling string
	Shape    string
	Args     []string
}

func (c Combination) String() string {
	return fmt.Sprintf("%s/%s/%s", c.Server, c.Spelling, c.Shape)
}

// ServerCandidates returns the requested server, followed by the alternate
// registries when the request used the default server.
func ServerCandidates(requested string) []string {
	if requested == "" {
		requested = irr.DefaultServer
	}
	servers := []string{requested}
	if requested == irr.DefaultServer {
		servers = append(servers, AlternateServers...)
	}
	return servers
}

// SpellingCandidates returns the AS-SET spellings to try: the literal
// input, the AS<n>/AS-<n> counterpart, and the :AS-ALL/.AS-ALL forms for a
// plain AS number.
func SpellingCandidates(asSet string) []string {
	spellings := []string{asSet}

	switch {
	case util.IsASNumber(asSet):
		spellings = append(spellings, "AS-"+asSet[2:])
	case util.IsBareNumber(asSet):
		spellings = append(spellings, "AS"+asSet, "AS-"+asSet)
	default:
		if n, ok := util.ParseASDashNumber(asSet); ok {
			spellings = append(spellings, "AS"+n)
		}
	}

	if util.IsASNumber(asSet) && !strings.ContainsAny(asSet, ":.") {
		spellings = append(spellings, asSet+":AS-ALL", asSet+".AS-ALL")
	}
	return util.DedupOrdered(spellings)
}

// FlagShapes builds the argument vectors for one server and spelling. The
// origin-as shape only applies when the spelling is an AS number. The IPv6
// selector is appended to every shape.
func FlagShapes(server, spelling, listName string, family irr.Family) []Combination {
	shapes := []Combination{
		{Shape: ShapeServerFirst, Args: []string{"-h", server, "-J", spelling}},
		{Shape: ShapeNamed, Args: []string{"-J", spelling, "-l", listName, "-h", server}},
		{Shape: ShapeAggregate, Args: []string{"-J", "-A", "-l", listName, "-h", server, spelling}},
	}
	// the origin is the AS number when the spelling has one, else the set
	origin := spelling
	if asn, ok := util.ParseASN(spelling); ok && util.IsASNumber(spelling) {
		origin = fmt.Sprintf("%d", asn)
	}
	shapes = append(shapes,
		Combination{
			Shape: ShapeOrigin,
			Args:  []string{"-J", "-l", listName, "-h", server, "-a", origin, spelling},
		},
		Combination{
			Shape: ShapeNoServer,
			Args:  []string{"-J", "-l", listName, spelling},
		},
	)

	for i := range shapes {
		shapes[i].Server = server
		shapes[i].Spelling = spelling
		if family == irr.IPv6 {
			shapes[i].Args = append(shapes[i].Args, "-6")
		}
	}
	return shapes
}

// Matrix enumerates servers x spellings x shapes, outermost first.
func Matrix(req Request) []Combination {
	var combos []Combination
	for _, server := range ServerCandidates(req.Server) {
		for _, spelling := range SpellingCandidates(req.ASSet) {
			combos = append(combos, FlagShapes(server, spelling, req.ListName, req.Family)...)
		}
	}
	return combos
}
