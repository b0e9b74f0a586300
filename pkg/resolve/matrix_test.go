package resolve

import (
	"reflect"
	"testing"

	"github.com/newtron-network/filterupdate/pkg/irr"
)

func TestServerCandidates(t *testing.T) {
	tests := []struct {
		name      string
		requested string
		want      []string
	}{
		{"default", irr.DefaultServer, []string{"rr.ntt.net", "whois.radb.net", "whois.ripe.net", "whois.altdb.net"}},
		{"empty uses default", "", []string{"rr.ntt.net", "whois.radb.net", "whois.ripe.net", "whois.altdb.net"}},
		{"explicit server only", "whois.ripe.net", []string{"whois.ripe.net"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ServerCandidates(tt.requested); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ServerCandidates(%q) = %v, want %v", tt.requested, got, tt.want)
			}
		})
	}
}

func TestSpellingCandidates(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"AS-EXAMPLE", []string{"AS-EXAMPLE"}},
		{"AS65000", []string{"AS65000", "AS-65000", "AS65000:AS-ALL", "AS65000.AS-ALL"}},
		{"65000", []string{"65000", "AS65000", "AS-65000"}},
		{"AS-65000", []string{"AS-65000", "AS65000"}},
		{"AS65000:AS-CUSTOMERS", []string{"AS65000:AS-CUSTOMERS"}},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := SpellingCandidates(tt.in); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("SpellingCandidates(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestFlagShapes(t *testing.T) {
	t.Run("as-set ipv4", func(t *testing.T) {
		got := FlagShapes("rr.ntt.net", "AS-EXAMPLE", "EXAMPLE-IN", irr.IPv4)
		want := [][]string{
			{"-h", "rr.ntt.net", "-J", "AS-EXAMPLE"},
			{"-J", "AS-EXAMPLE", "-l", "EXAMPLE-IN", "-h", "rr.ntt.net"},
			{"-J", "-A", "-l", "EXAMPLE-IN", "-h", "rr.ntt.net", "AS-EXAMPLE"},
			{"-J", "-l", "EXAMPLE-IN", "-h", "rr.ntt.net", "-a", "AS-EXAMPLE", "AS-EXAMPLE"},
			{"-J", "-l", "EXAMPLE-IN", "AS-EXAMPLE"},
		}
		if len(got) != len(want) {
			t.Fatalf("len = %d, want %d", len(got), len(want))
		}
		for i := range want {
			if !reflect.DeepEqual(got[i].Args, want[i]) {
				t.Errorf("shape %d (%s) args = %v, want %v", i, got[i].Shape, got[i].Args, want[i])
			}
			if got[i].Server != "rr.ntt.net" || got[i].Spelling != "AS-EXAMPLE" {
				t.Errorf("shape %d not stamped: %+v", i, got[i])
			}
		}
	})

	t.Run("every spelling gets the five shapes", func(t *testing.T) {
		for _, spelling := range []string{"AS-EXAMPLE", "AS65000", "AS65000:AS-ALL", "AS-65000"} {
			got := FlagShapes("rr.ntt.net", spelling, "L", irr.IPv4)
			var shapes []string
			for _, c := range got {
				shapes = append(shapes, c.Shape)
			}
			want := []string{ShapeServerFirst, ShapeNamed, ShapeAggregate, ShapeOrigin, ShapeNoServer}
			if !reflect.DeepEqual(shapes, want) {
				t.Errorf("%s shapes = %v, want %v", spelling, shapes, want)
			}
		}
	})

	t.Run("as number origin uses the number", func(t *testing.T) {
		got := FlagShapes("rr.ntt.net", "AS65000", "L", irr.IPv4)
		if len(got) != 5 {
			t.Fatalf("len = %d, want 5", len(got))
		}
		if got[3].Shape != ShapeOrigin {
			t.Fatalf("shape 3 = %s, want %s", got[3].Shape, ShapeOrigin)
		}
		if argValue(got[3].Args, "-a") != "65000" {
			t.Errorf("origin args = %v", got[3].Args)
		}
	})

	t.Run("ipv6 selector on every shape", func(t *testing.T) {
		for _, c := range FlagShapes("rr.ntt.net", "AS65000", "L", irr.IPv6) {
			if c.Args[len(c.Args)-1] != "-6" {
				t.Errorf("%s args = %v, want trailing -6", c.Shape, c.Args)
			}
		}
		for _, c := range FlagShapes("rr.ntt.net", "AS65000", "L", irr.IPv4) {
			if hasArg(c.Args, "-6") {
				t.Errorf("%s args = %v, unexpected -6", c.Shape, c.Args)
			}
		}
	})
}

func TestMatrixOrder(t *testing.T) {
	req := Request{ASSet: "AS-EXAMPLE", ListName: "L", Server: irr.DefaultServer}
	combos := Matrix(req)
	if len(combos) != 4*5 {
		t.Fatalf("len = %d, want 20", len(combos))
	}
	// server is the outermost loop
	if combos[4].Server != "rr.ntt.net" || combos[5].Server != "whois.radb.net" {
		t.Errorf("unexpected order: %v, %v", combos[4], combos[5])
	}
	if combos[7].Shape != ShapeAggregate {
		t.Errorf("combos[7].Shape = %s, want %s", combos[7].Shape, ShapeAggregate)
	}
}
