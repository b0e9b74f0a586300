package irr

import (
	"reflect"
	"strings"
	"testing"
)

func TestParsePrefixes(t *testing.T) {
	tests := []struct {
		name   string
		raw    string
		family Family
		want   []string
	}{
		{
			name:   "ipv4 with comments",
			raw:    "10.0.0.0/24\n10.0.1.0/24\n% comment\n",
			family: IPv4,
			want:   []string{"10.0.0.0/24", "10.0.1.0/24"},
		},
		{
			name:   "echo and blank lines",
			raw:    "!4AS-EXAMPLE\n\n  192.0.2.0/24  \r\n!",
			family: IPv4,
			want:   []string{"192.0.2.0/24"},
		},
		{
			name:   "ipv4 rejects ipv6 and junk",
			raw:    "2001:db8::/32\nA42\nC\n10.0.0.0/33\n198.51.100.0/24\n",
			family: IPv4,
			want:   []string{"198.51.100.0/24"},
		},
		{
			name:   "ipv6 permissive",
			raw:    "% IRR\n2001:db8::/32\n10.0.0.0/8\n2001:db8:1::/48\n",
			family: IPv6,
			want:   []string{"2001:db8::/32", "2001:db8:1::/48"},
		},
		{
			name:   "duplicates kept in order",
			raw:    "10.0.0.0/24\n10.0.0.0/24\n",
			family: IPv4,
			want:   []string{"10.0.0.0/24", "10.0.0.0/24"},
		},
		{
			name:   "empty",
			raw:    "",
			family: IPv4,
			want:   nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParsePrefixes(tt.raw, tt.family)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ParsePrefixes() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParsePrefixesNeverEmitsCommentsOrEchoes(t *testing.T) {
	raw := "%10.0.0.0/8\n!10.0.0.0/8\n% 2001:db8::/32\n!6as-set AS-X\n10.1.0.0/16\n2001:db8::/32\n"
	for _, family := range []Family{IPv4, IPv6} {
		for _, p := range ParsePrefixes(raw, family) {
			if strings.HasPrefix(p, "%") || strings.HasPrefix(p, "!") {
				t.Errorf("%s: comment or echo leaked: %q", family, p)
			}
		}
	}
}

func TestDedup(t *testing.T) {
	got := Dedup([]string{"10.0.1.0/24", "10.0.0.0/24", "10.0.1.0/24"})
	want := []string{"10.0.1.0/24", "10.0.0.0/24"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Dedup() = %v, want %v", got, want)
	}
}

func TestParseFamily(t *testing.T) {
	for in, want := range map[string]Family{"4": IPv4, "ipv4": IPv4, "inet6": IPv6, "6": IPv6} {
		got, err := ParseFamily(in)
		if err != nil || got != want {
			t.Errorf("ParseFamily(%q) = %v, %v", in, got, err)
		}
	}
	if _, err := ParseFamily("7"); err == nil {
		t.Error("ParseFamily(7) should fail")
	}
}
