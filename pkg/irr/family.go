// Package irr queries Internet Routing Registries over the whois-style
// protocol on port 43 and extracts the CIDR prefixes of an AS-SET.
package irr

import "fmt"

// Family selects the address family of a resolution.
type Family int

const (
	IPv4 Family = iota
	IPv6
)

func (f Family) String() string {
	if f == IPv6 {
		return "ipv6"
	}
	return "ipv4"
}

// digit is the family character used by the !4/!6 query forms.
func (f Family) digit() string {
	if f == IPv6 {
		return "6"
	}
	return "4"
}

// ParseFamily accepts "4", "6", "ipv4", "ipv6", "inet" and "inet6".
func ParseFamily(s string) (Family, error) {
	switch s {
	case "4", "ipv4", "inet", "":
		return IPv4, nil
	case "6", "ipv6", "inet6":
		return IPv6, nil
	}
	return IPv4, fmt.Errorf("unknown address family %q", s)
}
