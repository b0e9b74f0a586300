package irr

import (
	"context"
	"strings"
)

// ParseRouteObjects scans a whois text response for route:/route6:
// attributes of family and returns their validated values in order,
// without duplicates.
func ParseRouteObjects(raw string, family Family) []string {
	field := "route:"
	if family == IPv6 {
		field = "route6:"
	}

	var prefixes []string
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if len(line) < len(field) || !strings.EqualFold(line[:len(field)], field) {
			continue
		}
		value := strings.TrimSpace(line[len(field):])
		if acceptPrefix(value, family) {
			prefixes = append(prefixes, value)
		}
	}
	return Dedup(prefixes)
}

// RouteObjects issues one plain text query for the AS-SET object against
// server and returns the route:/route6: prefixes found in the reply. It is
// the last resort after the prefix-list tool matrix is exhausted.
func RouteObjects(ctx context.Context, q Querier, server, asSet string, family Family) []string {
	raw := q.Query(ctx, server, asSet)
	return ParseRouteObjects(raw, family)
}
