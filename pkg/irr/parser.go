package irr

import (
	"strings"

	"github.com/newtron-network/filterupdate/pkg/util"
)

// ParsePrefixes extracts the CIDR lines for family from a raw registry
// response, in response order. Empty lines, '%' comments and '!' echoes are
// skipped, as is anything that does not look like a prefix of the family.
// Duplicates are kept; see Dedup.
func ParsePrefixes(raw string, family Family) []string {
	var prefixes []string
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "%") || strings.HasPrefix(line, "!") {
			continue
		}
		if acceptPrefix(line, family) {
			prefixes = append(prefixes, line)
		}
	}
	return prefixes
}

func acceptPrefix(s string, family Family) bool {
	if family == IPv6 {
		return util.IsIPv6CIDR(s)
	}
	return util.IsIPv4CIDR(s)
}

// Dedup returns prefixes with repeats removed, first occurrence wins.
func Dedup(prefixes []string) []string {
	return util.DedupOrdered(prefixes)
}
