package util

import (
	"net"
	"regexp"
	"strconv"
	"strings"
)

var (
	ipv4CIDRLine = regexp.MustCompile(`^\d+\.\d+\.\d+\.\d+/\d+$`)
	asNumber     = regexp.MustCompile(`^(?i)AS(\d+)$`)
	asDashNumber = regexp.MustCompile(`^(?i)AS-(\d+)$`)
	bareNumber   = regexp.MustCompile(`^\d+$`)
)

const maxASN = 4294967295 // 4-byte ASN range

// IsIPv4CIDR reports whether s is a dotted-quad CIDR with octets and mask in
// range. The shape check comes first so that forms net.ParseCIDR would
// accept loosely never pass.
func IsIPv4CIDR(s string) bool {
	if !ipv4CIDRLine.MatchString(s) {
		return false
	}
	ip, _, err := net.ParseCIDR(s)
	return err == nil && ip.To4() != nil
}

// IsIPv6CIDR is intentionally permissive: the registry is trusted to emit
// well-formed IPv6 prefixes, so any token carrying both ':' and '/' passes.
func IsIPv6CIDR(s string) bool {
	return strings.Contains(s, ":") && strings.Contains(s, "/")
}

// DedupOrdered removes repeated entries while keeping first-seen order.
func DedupOrdered(items []string) []string {
	if len(items) == 0 {
		return items
	}
	seen := make(map[string]struct{}, len(items))
	out := make([]string, 0, len(items))
	for _, item := range items {
		if _, ok := seen[item]; ok {
			continue
		}
		seen[item] = struct{}{}
		out = append(out, item)
	}
	return out
}

// ParseASN extracts the AS number from "AS65000", "as65000" or "65000".
// ok is false for AS-SET names and out-of-range numbers.
func ParseASN(s string) (uint32, bool) {
	digits := s
	if m := asNumber.FindStringSubmatch(s); m != nil {
		digits = m[1]
	} else if !bareNumber.MatchString(s) {
		return 0, false
	}
	n, err := strconv.ParseUint(digits, 10, 64)
	if err != nil || n == 0 || n > maxASN {
		return 0, false
	}
	return uint32(n), true
}

// IsASNumber reports whether s has the "AS<digits>" shape.
func IsASNumber(s string) bool {
	return asNumber.MatchString(s)
}

// IsBareNumber reports whether s is only digits.
func IsBareNumber(s string) bool {
	return bareNumber.MatchString(s)
}

// ParseASDashNumber extracts digits from the "AS-<digits>" spelling.
func ParseASDashNumber(s string) (string, bool) {
	m := asDashNumber.FindStringSubmatch(s)
	if m == nil {
		return "", false
	}
	return m[1], true
}
