// Package rules loads and indexes the declarative GOST rule catalogue.
//
// The catalogue is read once at startup, validated against an embedded
// JSON Schema, and never mutated afterwards, so concurrent readers need
// no synchronization.
package rules

import "fmt"

// Type groups rules by what part of the document they inspect.
type Type string

const (
	TypeStructure  Type = "structure"
	TypeFormatting Type = "formatting"
	TypeContent    Type = "content"
	TypeCitation   Type = "citation"
)

// Types lists every known rule type in evaluation order.
func Types() []Type {
	return []Type{TypeStructure, TypeFormatting, TypeContent, TypeCitation}
}

func (t Type) valid() bool {
	switch t {
	case TypeStructure, TypeFormatting, TypeContent, TypeCitation:
		return true
	}
	return false
}

// CheckType selects the comparison strategy applied to a rule.
type CheckType string

const (
	CheckEquals         CheckType = "equals"
	CheckContains       CheckType = "contains"
	CheckListPresence   CheckType = "list_presence"
	CheckMinValue       CheckType = "min_value"
	CheckMaxValue       CheckType = "max_value"
	CheckRange          CheckType = "range"
	CheckObjectEquals   CheckType = "object_equals"
	CheckObjectContains CheckType = "object_contains"
)

func (c CheckType) valid() bool {
	switch c {
	case CheckEquals, CheckContains, CheckListPresence, CheckMinValue,
		CheckMaxValue, CheckRange, CheckObjectEquals, CheckObjectContains:
		return true
	}
	return false
}

// Severity is the criticality tier of a failed rule.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityWarning  Severity = "warning"
	SeverityInfo     Severity = "info"
)

func (s Severity) valid() bool {
	switch s {
	case SeverityCritical, SeverityWarning, SeverityInfo:
		return true
	}
	return false
}

// Rule is one declarative catalogue entry.
type Rule struct {
	ID          string    `yaml:"id" json:"id"`
	Section     string    `yaml:"section" json:"section"`
	Title       string    `yaml:"title" json:"title"`
	Description string    `yaml:"description,omitempty" json:"description,omitempty"`
	Type        Type      `yaml:"rule_type" json:"rule_type"`
	Field       string    `yaml:"field" json:"field"`
	Check       CheckType `yaml:"check_type" json:"check_type"`
	Severity    Severity  `yaml:"severity" json:"severity"`
	Expected    any       `yaml:"expected_value" json:"expected_value"`
	Unit        string    `yaml:"unit,omitempty" json:"unit,omitempty"`
}

func (r *Rule) validate() error {
	if r.ID == "" {
		return fmt.Errorf("rule is missing id")
	}
	for _, req := range []struct{ name, val string }{
		{"section", r.Section},
		{"title", r.Title},
		{"field", r.Field},
	} {
		if req.val == "" {
			return fmt.Errorf("rule %s: missing %s", r.ID, req.name)
		}
	}
	if !r.Type.valid() {
		return fmt.Errorf("rule %s: unknown rule_type %q", r.ID, r.Type)
	}
	if !r.Check.valid() {
		return fmt.Errorf("rule %s: unknown check_type %q", r.ID, r.Check)
	}
	if !r.Severity.valid() {
		return fmt.Errorf("rule %s: unknown severity %q", r.ID, r.Severity)
	}
	if r.Expected == nil {
		return fmt.Errorf("rule %s: missing expected_value", r.ID)
	}
	return nil
}

// Requirement is one expected item of a list_presence rule: a label plus
// optional synonym phrases accepted as equivalent.
type Requirement struct {
	Name     string
	Synonyms []string
}

// Requirements normalizes a list_presence expected_value into requirement
// entries. Plain strings become requirements without synonyms; objects
// supply {name, synonyms}.
func (r *Rule) Requirements() []Requirement {
	list, ok := r.Expected.([]any)
	if !ok {
		return nil
	}
	var reqs []Requirement
	for _, item := range list {
		switch v := item.(type) {
		case string:
			reqs = append(reqs, Requirement{Name: v})
		case map[string]any:
			req := Requirement{}
			if name, ok := v["name"].(string); ok {
				req.Name = name
			}
			if syns, ok := v["synonyms"].([]any); ok {
				for _, s := range syns {
					if str, ok := s.(string); ok {
						req.Synonyms = append(req.Synonyms, str)
					}
				}
			}
			if req.Name != "" {
				reqs = append(reqs, req)
			}
		}
	}
	return reqs
}
