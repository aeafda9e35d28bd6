package persistence

import (
	"fmt"
	"sort"
	"sync"

	"github.com/asaidimu/go-loom/core/schema"
)

// Model is the runtime aggregate for one schema definition: a unique name, a
// singular/plural naming pair, ordered fields, relation descriptors, and the
// bound DataSource that owns its records. Models are constructed once at
// schema-build time and are immutable thereafter except for the data source
// binding.
type Model struct {
	def *schema.ModelDefinition

	mu     sync.RWMutex
	source DataSource
}

// NewModel validates a definition and wraps it in a runtime model.
func NewModel(def *schema.ModelDefinition) (*Model, error) {
	if def == nil {
		return nil, fmt.Errorf("model definition is nil")
	}
	if err := def.Validate(); err != nil {
		return nil, err
	}
	return &Model{def: def}, nil
}

// Name returns the unique, singular model name.
func (m *Model) Name() string {
	return m.def.Name
}

// Plural returns the collection name used by storage backends.
func (m *Model) Plural() string {
	return m.def.Plural
}

// Definition returns the underlying schema definition.
func (m *Model) Definition() *schema.ModelDefinition {
	return m.def
}

// Relations returns the relation descriptors declared on this model.
func (m *Model) Relations() []schema.RelationDefinition {
	return m.def.Relations
}

// Relation returns the named relation descriptor, or an error.
func (m *Model) Relation(name string) (*schema.RelationDefinition, error) {
	for i := range m.def.Relations {
		if m.def.Relations[i].Name == name {
			return &m.def.Relations[i], nil
		}
	}
	return nil, fmt.Errorf("model %q has no relation %q", m.def.Name, name)
}

// BindSource attaches the data source owning this model's records. Binding
// happens once after construction; rebinding is an error.
func (m *Model) BindSource(source DataSource) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.source != nil {
		return fmt.Errorf("model %q already has a data source bound", m.def.Name)
	}
	m.source = source
	return nil
}

// Source returns the bound data source, or an error when the model was never
// bound.
func (m *Model) Source() (DataSource, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.source == nil {
		return nil, fmt.Errorf("model %q has no data source bound", m.def.Name)
	}
	return m.source, nil
}

// Mutation builds a Mutation from raw input data. Values shaped as
// {operator: value} maps on list-valued fields become array-operation
// directives; read-only and generated fields are dropped; everything else is
// carried as scalar data. Unknown fields pass through untouched, since records
// are opaque mappings and the storage layer is schema-lenient.
func (m *Model) Mutation(raw map[string]any) *Mutation {
	data := schema.Document{}
	var operations []ArrayOperation

	for key, value := range raw {
		field := m.def.Field(key)
		if field != nil && (field.ReadOnly || field.Generated) {
			continue
		}
		if field != nil && field.List {
			if ops, ok := splitArrayOperations(key, value); ok {
				operations = append(operations, ops...)
				continue
			}
		}
		data[key] = value
	}
	return NewMutationWithOperations(data, operations)
}

// splitArrayOperations interprets a raw value as array-operation directives.
// It only matches maps whose keys are all recognized operators.
func splitArrayOperations(field string, value any) ([]ArrayOperation, bool) {
	directives, ok := value.(map[string]any)
	if !ok || len(directives) == 0 {
		return nil, false
	}
	ops := make([]ArrayOperation, 0, len(directives))
	for opKey, opValue := range directives {
		operator := ArrayOperator(opKey)
		if _, known := arrayOperators[operator]; !known {
			return nil, false
		}
		ops = append(ops, ArrayOperation{Field: field, Operator: operator, Value: opValue})
	}
	// Map iteration order is random; keep directives deterministic.
	sort.Slice(ops, func(i, j int) bool { return ops[i].Operator < ops[j].Operator })
	return ops, true
}

// Registry is the arena of models indexed by name. Relations hold model names
// and resolve them through the registry after all models are registered, which
// keeps Model/Relation references acyclic.
type Registry struct {
	mu     sync.RWMutex
	models map[string]*Model
}

// NewRegistry creates an empty model registry.
func NewRegistry() *Registry {
	return &Registry{models: make(map[string]*Model)}
}

// Register adds a model to the registry. Names are unique.
func (r *Registry) Register(m *Model) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.models[m.Name()]; exists {
		return fmt.Errorf("model %q is already registered", m.Name())
	}
	r.models[m.Name()] = m
	return nil
}

// Model looks a model up by name.
func (r *Registry) Model(name string) (*Model, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.models[name]
	if !ok {
		return nil, fmt.Errorf("model %q is not registered", name)
	}
	return m, nil
}

// Models returns all registered models sorted by name.
func (r *Registry) Models() []*Model {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Model, 0, len(r.models))
	for _, m := range r.models {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name() < out[j].Name() })
	return out
}
