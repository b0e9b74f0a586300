package resolve

import (
	"errors"
	"testing"

	"github.com/newtron-network/filterupdate/pkg/irr"
	"github.com/newtron-network/filterupdate/pkg/util"
)

func TestNewRequest(t *testing.T) {
	tests := []struct {
		name     string
		asSet    string
		listName string
		server   string
		wantErr  bool
	}{
		{"valid", "AS-EXAMPLE", "EXAMPLE-IN", "", false},
		{"trimmed", "  AS-EXAMPLE\n", " EXAMPLE-IN ", " whois.radb.net ", false},
		{"missing as-set", "", "L", "", true},
		{"missing list", "AS-EXAMPLE", "", "", true},
		{"list with space", "AS-EXAMPLE", "BAD NAME", "", true},
		{"list with brace", "AS-EXAMPLE", "BAD{", "", true},
		{"as-set with space", "AS EXAMPLE", "L", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := NewRequest(tt.asSet, tt.listName, irr.IPv4, tt.server, MethodTool)
			if (err != nil) != tt.wantErr {
				t.Fatalf("NewRequest() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				if !errors.Is(err, util.ErrValidationFailed) {
					t.Errorf("error %v should wrap ErrValidationFailed", err)
				}
				return
			}
			if req.ASSet != "AS-EXAMPLE" || req.ListName != "EXAMPLE-IN" {
				t.Errorf("req = %+v", req)
			}
			if req.Server == "" {
				t.Error("Server should default")
			}
		})
	}
}

func TestMethodString(t *testing.T) {
	if MethodTool.String() != "tool" || MethodDirect.String() != "direct" {
		t.Errorf("Method strings = %s, %s", MethodTool, MethodDirect)
	}
	if parseMethod("direct") != MethodDirect || parseMethod("tool") != MethodTool {
		t.Error("parseMethod does not invert String")
	}
}
