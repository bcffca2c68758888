package clinical

import (
	_ "embed"
	"fmt"
	"log/slog"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed registry.yaml
var registryYAML []byte

// Registry is the immutable phase/category table. It is safe for concurrent
// use because nothing mutates it after Load returns.
type Registry struct {
	phases     []Phase
	phaseByID  map[PhaseID]Phase
	categories map[PhaseID][]Category
	byCategory map[CategoryID]Category
	templates  map[CategoryID]map[string]any
}

type document struct {
	Phases []phaseDoc `yaml:"phases"`
}

type phaseDoc struct {
	Phase      `yaml:",inline"`
	Categories []categoryDoc `yaml:"categories"`
}

type categoryDoc struct {
	ID        CategoryID     `yaml:"id"`
	Label     string         `yaml:"label"`
	InputMode InputMode      `yaml:"input_mode"`
	DataTypes []DataType     `yaml:"data_types"`
	Template  map[string]any `yaml:"template"`
}

var defaultRegistry = sync.OnceValues(func() (*Registry, error) {
	return Load(registryYAML)
})

// Default returns the registry bundled with the binary. It panics if the
// embedded document is invalid, which can only happen with a broken build.
func Default() *Registry {
	r, err := defaultRegistry()
	if err != nil {
		panic(fmt.Sprintf("clinical: embedded registry: %v", err))
	}
	return r
}

// Load parses and checks a registry document.
func Load(data []byte) (*Registry, error) {
	if err := checkDocument(data); err != nil {
		return nil, err
	}

	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse registry: %w", err)
	}
	if err := validateDocument(doc); err != nil {
		return nil, err
	}

	r := &Registry{
		phaseByID:  make(map[PhaseID]Phase, len(doc.Phases)),
		categories: make(map[PhaseID][]Category, len(doc.Phases)),
		byCategory: make(map[CategoryID]Category),
		templates:  make(map[CategoryID]map[string]any),
	}
	for _, pd := range doc.Phases {
		r.phases = append(r.phases, pd.Phase)
		r.phaseByID[pd.ID] = pd.Phase
		for _, cd := range pd.Categories {
			c := Category{
				ID:        cd.ID,
				Phase:     pd.ID,
				Label:     cd.Label,
				InputMode: cd.InputMode,
				DataTypes: cd.DataTypes,
			}
			r.categories[pd.ID] = append(r.categories[pd.ID], c)
			r.byCategory[c.ID] = c
			if cd.Template != nil {
				r.templates[c.ID] = cd.Template
			}
		}
	}

	slog.Debug("clinical registry loaded", "phases", len(r.phases), "categories", len(r.byCategory))
	return r, nil
}

// Phases returns all phases in canonical order.
func (r *Registry) Phases() []Phase {
	return append([]Phase(nil), r.phases...)
}

// PhaseByID returns the phase with the given ID.
func (r *Registry) PhaseByID(id PhaseID) (Phase, bool) {
	p, ok := r.phaseByID[id]
	return p, ok
}

// CategoriesForPhase returns the phase's categories in registry order, or an
// empty list for an unknown phase.
func (r *Registry) CategoriesForPhase(id PhaseID) []Category {
	cats := r.categories[id]
	out := make([]Category, len(cats))
	copy(out, cats)
	return out
}

// CategoryByID returns a category if it is registered under the given phase.
func (r *Registry) CategoryByID(phase PhaseID, id CategoryID) (Category, bool) {
	c, ok := r.byCategory[id]
	if !ok || c.Phase != phase {
		return Category{}, false
	}
	return c, true
}

// LookupCategory finds a category by ID alone.
func (r *Registry) LookupCategory(id CategoryID) (Category, bool) {
	c, ok := r.byCategory[id]
	return c, ok
}

// DefaultTemplate returns a fresh copy of the category's starting content.
// Unknown categories get an empty record.
func (r *Registry) DefaultTemplate(id CategoryID) map[string]any {
	t, ok := r.templates[id]
	if !ok {
		return map[string]any{}
	}
	return deepCopyMap(t)
}

// Place returns the placement for a registered phase/category pair.
func (r *Registry) Place(phase PhaseID, category CategoryID) (Placement, error) {
	if _, ok := r.phaseByID[phase]; !ok {
		return Placement{}, fmt.Errorf("unknown phase %q", phase)
	}
	if _, ok := r.CategoryByID(phase, category); !ok {
		return Placement{}, fmt.Errorf("category %q is not registered under phase %q", category, phase)
	}
	return Placement{phase: phase, category: category}, nil
}

// MustPlace is Place for pairs known at compile time.
func (r *Registry) MustPlace(phase PhaseID, category CategoryID) Placement {
	p, err := r.Place(phase, category)
	if err != nil {
		panic(err)
	}
	return p
}

// InputModeOf returns the input mode of a placed category.
func (r *Registry) InputModeOf(p Placement) InputMode {
	return r.byCategory[p.category].InputMode
}

func deepCopyMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = deepCopyValue(v)
	}
	return out
}

func deepCopyValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return deepCopyMap(t)
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = deepCopyValue(e)
		}
		return out
	default:
		return v
	}
}
