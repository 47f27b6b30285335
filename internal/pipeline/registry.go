package pipeline

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/fairyhunter13/resume-matcher/internal/domain"
)

//go:embed schemas.yaml
var schemasYAML []byte

// Shape is the top-level JSON kind a schema expects.
type Shape string

const (
	ShapeObject Shape = "object"
	ShapeArray  Shape = "array"
	ShapeText   Shape = "text"
)

// Policy is the data description of one schema.
type Policy struct {
	ID            domain.SchemaID     `yaml:"-"`
	Shape         Shape               `yaml:"shape"`
	AllowFallback bool                `yaml:"allow_fallback"`
	Temperature   float64             `yaml:"temperature"`
	MaxTokens     int                 `yaml:"max_tokens"`
	Required      []string            `yaml:"required"`
	ExtraRequired []string            `yaml:"extra_required"`
	ExactKeys     map[string][]string `yaml:"exact_keys"`
}

// RequiredPaths returns every required path for the schema.
func (p Policy) RequiredPaths() []string {
	out := make([]string, 0, len(p.Required)+len(p.ExtraRequired))
	out = append(out, p.Required...)
	return append(out, p.ExtraRequired...)
}

// Registry maps schema IDs to their policies.
type Registry struct {
	policies map[domain.SchemaID]Policy
}

// LoadRegistry parses a schema policy document and checks that every known
// schema is described.
func LoadRegistry(doc []byte) (*Registry, error) {
	var file struct {
		Schemas map[string]Policy `yaml:"schemas"`
	}
	if err := yaml.Unmarshal(doc, &file); err != nil {
		return nil, fmt.Errorf("op=pipeline.LoadRegistry: %w", err)
	}
	reg := &Registry{policies: make(map[domain.SchemaID]Policy, len(file.Schemas))}
	for name, pol := range file.Schemas {
		id, err := domain.ParseSchemaID(name)
		if err != nil {
			return nil, fmt.Errorf("op=pipeline.LoadRegistry: %w", err)
		}
		switch pol.Shape {
		case ShapeObject, ShapeArray, ShapeText:
		default:
			return nil, fmt.Errorf("op=pipeline.LoadRegistry: schema %s: unknown shape %q", name, pol.Shape)
		}
		if pol.MaxTokens <= 0 {
			return nil, fmt.Errorf("op=pipeline.LoadRegistry: schema %s: max_tokens must be positive", name)
		}
		pol.ID = id
		reg.policies[id] = pol
	}
	for _, id := range domain.AllSchemas {
		if _, ok := reg.policies[id]; !ok {
			return nil, fmt.Errorf("op=pipeline.LoadRegistry: schema %s not described", id)
		}
	}
	return reg, nil
}

// DefaultRegistry loads the embedded schema policies.
func DefaultRegistry() (*Registry, error) { return LoadRegistry(schemasYAML) }

// Policy returns the policy for id.
func (r *Registry) Policy(id domain.SchemaID) (Policy, error) {
	p, ok := r.policies[id]
	if !ok {
		return Policy{}, fmt.Errorf("%w: unknown schema %q", domain.ErrInvalidArgument, id)
	}
	return p, nil
}
