package rules

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultCatalogue(t *testing.T) {
	cat, err := Default()
	if err != nil {
		t.Fatal(err)
	}
	if cat.Len() == 0 {
		t.Fatal("default catalogue is empty")
	}

	font, ok := cat.Get("6.1.1_font")
	if !ok {
		t.Fatal("font rule missing from default catalogue")
	}
	if font.Check != CheckObjectEquals {
		t.Errorf("font rule check = %q, want object_equals", font.Check)
	}
	if font.Severity != SeverityCritical {
		t.Errorf("font rule severity = %q, want critical", font.Severity)
	}

	elements, ok := cat.Get("5.1_required_elements")
	if !ok {
		t.Fatal("required elements rule missing")
	}
	if len(elements.Requirements()) == 0 {
		t.Error("required elements rule has no requirements")
	}

	// Every rule groups under a known type.
	counted := 0
	for _, typ := range Types() {
		counted += len(cat.ByType(typ))
	}
	if counted != cat.Len() {
		t.Errorf("rules by type = %d, total = %d", counted, cat.Len())
	}

	summary := cat.Summarize()
	if summary.Total != cat.Len() {
		t.Errorf("summary total = %d, want %d", summary.Total, cat.Len())
	}
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	content := `rules:
  - id: test_pages
    section: "5.2"
    title: "Объем работы"
    rule_type: structure
    field: page_count
    check_type: range
    severity: info
    expected_value:
      min: 10
      max: 50
    unit: pages
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cat, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cat.Len() != 1 {
		t.Fatalf("len = %d, want 1", cat.Len())
	}
	rule, _ := cat.Get("test_pages")
	if rule.Type != TypeStructure || rule.Unit != "pages" {
		t.Errorf("unexpected rule: %+v", rule)
	}
}

func TestLoadBytesRejectsDefects(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		errPart string
	}{
		{
			"not yaml",
			"{{{",
			"parse yaml",
		},
		{
			"empty catalogue",
			"rules: []",
			"",
		},
		{
			"missing required field",
			`rules:
  - id: r1
    title: "t"
    rule_type: structure
    field: page_count
    check_type: equals
    severity: info
    expected_value: 1
`,
			"",
		},
		{
			"unknown check type",
			`rules:
  - id: r1
    section: "1"
    title: "t"
    rule_type: structure
    field: page_count
    check_type: fuzzy_match
    severity: info
    expected_value: 1
`,
			"",
		},
		{
			"duplicate id",
			`rules:
  - id: r1
    section: "1"
    title: "t"
    rule_type: structure
    field: page_count
    check_type: equals
    severity: info
    expected_value: 1
  - id: r1
    section: "1"
    title: "t"
    rule_type: structure
    field: page_count
    check_type: equals
    severity: info
    expected_value: 2
`,
			"duplicate rule id",
		},
	}

	for _, tt := range tests {
		_, err := LoadBytes([]byte(tt.yaml))
		if err == nil {
			t.Errorf("%s: expected error", tt.name)
			continue
		}
		if tt.errPart != "" && !strings.Contains(err.Error(), tt.errPart) {
			t.Errorf("%s: error %q does not mention %q", tt.name, err, tt.errPart)
		}
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestRequirements(t *testing.T) {
	rule := Rule{
		Expected: []any{
			"введение",
			map[string]any{
				"name":     "цель",
				"synonyms": []any{"задач", "объект исследования"},
			},
		},
	}

	reqs := rule.Requirements()
	if len(reqs) != 2 {
		t.Fatalf("requirements = %d, want 2", len(reqs))
	}
	if reqs[0].Name != "введение" || len(reqs[0].Synonyms) != 0 {
		t.Errorf("first requirement = %+v", reqs[0])
	}
	if reqs[1].Name != "цель" || len(reqs[1].Synonyms) != 2 {
		t.Errorf("second requirement = %+v", reqs[1])
	}
}

func TestRequirementsNonList(t *testing.T) {
	rule := Rule{Expected: "scalar"}
	if reqs := rule.Requirements(); reqs != nil {
		t.Errorf("requirements = %v, want nil", reqs)
	}
}

func TestBySection(t *testing.T) {
	cat, err := Default()
	if err != nil {
		t.Fatal(err)
	}
	var section string
	for _, r := range cat.All() {
		section = r.Section
		break
	}
	if len(cat.BySection(section)) == 0 {
		t.Errorf("no rules for section %q", section)
	}
}
