package rules

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"
)

//go:embed schema.json
var schemaJSON string

//go:embed default_rules.yaml
var defaultRules []byte

var compiledSchema = jsonschema.MustCompileString("rules.schema.json", schemaJSON)

// Catalogue is an immutable, id-indexed rule set.
type Catalogue struct {
	rules map[string]Rule
	order []string
}

type catalogueFile struct {
	Rules []Rule `yaml:"rules" json:"rules"`
}

// Load reads and validates a rule catalogue from a YAML file.
// Any defect (missing file, schema violation, duplicate id) is a
// startup-time configuration error and is returned, never swallowed.
func Load(path string) (*Catalogue, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rule catalogue: %w", err)
	}
	cat, err := LoadBytes(data)
	if err != nil {
		return nil, fmt.Errorf("rule catalogue %s: %w", path, err)
	}
	return cat, nil
}

// LoadBytes parses and validates a YAML rule catalogue.
func LoadBytes(data []byte) (*Catalogue, error) {
	var generic any
	if err := yaml.Unmarshal(data, &generic); err != nil {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}

	// The schema validator expects encoding/json value shapes, so the
	// decoded YAML is round-tripped through JSON before validation.
	jsonBytes, err := json.Marshal(generic)
	if err != nil {
		return nil, fmt.Errorf("normalize catalogue: %w", err)
	}
	var jsonValue any
	if err := json.NewDecoder(bytes.NewReader(jsonBytes)).Decode(&jsonValue); err != nil {
		return nil, fmt.Errorf("normalize catalogue: %w", err)
	}
	if err := compiledSchema.Validate(jsonValue); err != nil {
		return nil, fmt.Errorf("invalid rule catalogue: %w", err)
	}

	var file catalogueFile
	if err := json.Unmarshal(jsonBytes, &file); err != nil {
		return nil, fmt.Errorf("decode rules: %w", err)
	}

	cat := &Catalogue{rules: make(map[string]Rule, len(file.Rules))}
	for i := range file.Rules {
		r := file.Rules[i]
		if err := r.validate(); err != nil {
			return nil, err
		}
		if _, dup := cat.rules[r.ID]; dup {
			return nil, fmt.Errorf("duplicate rule id %q", r.ID)
		}
		cat.rules[r.ID] = r
		cat.order = append(cat.order, r.ID)
	}
	if len(cat.order) == 0 {
		return nil, fmt.Errorf("rule catalogue is empty")
	}
	return cat, nil
}

// Default returns the embedded catalogue shipped with the service.
func Default() (*Catalogue, error) {
	return LoadBytes(defaultRules)
}

// Get returns the rule with the given id.
func (c *Catalogue) Get(id string) (Rule, bool) {
	r, ok := c.rules[id]
	return r, ok
}

// All returns every rule in file order.
func (c *Catalogue) All() []Rule {
	out := make([]Rule, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.rules[id])
	}
	return out
}

// ByType returns the rules of one type, in file order.
func (c *Catalogue) ByType(t Type) []Rule {
	var out []Rule
	for _, id := range c.order {
		if r := c.rules[id]; r.Type == t {
			out = append(out, r)
		}
	}
	return out
}

// BySection returns the rules belonging to one standard section.
func (c *Catalogue) BySection(section string) []Rule {
	var out []Rule
	for _, id := range c.order {
		if r := c.rules[id]; r.Section == section {
			out = append(out, r)
		}
	}
	return out
}

// Len returns the number of rules.
func (c *Catalogue) Len() int { return len(c.order) }

// Summary aggregates catalogue statistics for diagnostics endpoints.
type Summary struct {
	Total      int              `json:"total_rules"`
	ByType     map[Type]int     `json:"by_type"`
	BySeverity map[Severity]int `json:"by_severity"`
}

// Summarize returns counts by type and severity.
func (c *Catalogue) Summarize() Summary {
	s := Summary{
		Total:      len(c.order),
		ByType:     make(map[Type]int),
		BySeverity: make(map[Severity]int),
	}
	for _, r := range c.rules {
		s.ByType[r.Type]++
		s.BySeverity[r.Severity]++
	}
	return s
}
