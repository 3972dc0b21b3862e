package screening

import (
	"strings"
	"testing"
)

func TestRuleValidate(t *testing.T) {
	tests := []struct {
		name    string
		rule    Rule
		wantErr bool
	}{
		{"valid", Rule{Name: "low_score", Expression: "true"}, false},
		{"leading underscore", Rule{Name: "_internal", Expression: "true"}, false},
		{"empty name", Rule{Name: "", Expression: "true"}, true},
		{"starts with digit", Rule{Name: "1rule", Expression: "true"}, true},
		{"hyphen", Rule{Name: "low-score", Expression: "true"}, true},
		{"reserved keyword", Rule{Name: "null", Expression: "true"}, true},
		{"too long", Rule{Name: strings.Repeat("a", 101), Expression: "true"}, true},
		{"max length", Rule{Name: strings.Repeat("a", 100), Expression: "true"}, false},
		{"blank expression", Rule{Name: "ok", Expression: ""}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.rule.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
