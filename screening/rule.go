package screening

import (
	"fmt"
	"regexp"
	"strings"
)

// Rule is a named boolean CEL expression over a normalized report.
type Rule struct {
	Name       string `json:"name"`
	Expression string `json:"expression"`
}

var ruleNamePattern = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// reserved words that cannot be used as rule names
var reservedKeywords = map[string]bool{
	"true": true, "false": true, "null": true,
	"if": true, "else": true, "for": true, "while": true,
	"break": true, "continue": true, "return": true,
	"var": true, "let": true, "const": true, "function": true,
	"in": true, "as": true, "import": true, "package": true,
	"namespace": true, "loop": true, "void": true,
}

// Validate checks the rule name and that an expression is present.
func (r Rule) Validate() error {
	if err := validateName(r.Name); err != nil {
		return fmt.Errorf("invalid rule name %q: %w", r.Name, err)
	}
	if strings.TrimSpace(r.Expression) == "" {
		return fmt.Errorf("rule %q has an empty expression", r.Name)
	}
	return nil
}

func validateName(name string) error {
	if len(name) == 0 {
		return fmt.Errorf("name cannot be empty")
	}
	if len(name) > 100 {
		return fmt.Errorf("name length %d exceeds maximum of 100 characters", len(name))
	}
	if !ruleNamePattern.MatchString(name) {
		return fmt.Errorf("must match pattern ^[a-zA-Z_][a-zA-Z0-9_]*$")
	}
	if reservedKeywords[name] {
		return fmt.Errorf("cannot use reserved keyword %q", name)
	}
	return nil
}
