// Package relation implements the relation variants that translate abstract
// graph operations (join, connect, disconnect, cascade create/delete) into
// concrete operations against the DataSource contract. Each variant encodes
// where relationship state is physically stored and keeps both sides of the
// link consistent, even when the two sides live in different stores.
//
// Writes that touch both sides (many-to-many add/remove, cascades) are issued
// sequentially with no atomicity between them. A failure after the first write
// leaves a one-directional link; the mitigation is read-repair, not rollback:
// join reads silently drop ids that no longer resolve.
package relation

import (
	"fmt"

	"github.com/asaidimu/go-loom/core/persistence"
	"github.com/asaidimu/go-loom/core/schema"
	"go.uber.org/zap"
)

// Relation is the common surface of every relation variant. Callers type-assert
// to the concrete variant selected at schema-build time.
type Relation interface {
	Kind() schema.RelationKind
	Definition() schema.RelationDefinition
}

// base carries what every variant needs: the model registry for name-keyed
// lookups of both sides, the relation descriptor, and a logger.
type base struct {
	registry *persistence.Registry
	def      schema.RelationDefinition
	logger   *zap.Logger
}

// Kind returns the variant discriminator.
func (b *base) Kind() schema.RelationKind {
	return b.def.Kind
}

// Definition returns the relation descriptor.
func (b *base) Definition() schema.RelationDefinition {
	return b.def
}

func (b *base) modelA() (*persistence.Model, error) {
	return b.registry.Model(b.def.ModelA)
}

func (b *base) modelB() (*persistence.Model, error) {
	return b.registry.Model(b.def.ModelB)
}

func (b *base) sourceA() (persistence.DataSource, error) {
	m, err := b.modelA()
	if err != nil {
		return nil, err
	}
	return m.Source()
}

func (b *base) sourceB() (persistence.DataSource, error) {
	m, err := b.modelB()
	if err != nil {
		return nil, err
	}
	return m.Source()
}

func newBase(registry *persistence.Registry, def schema.RelationDefinition, logger *zap.Logger) base {
	if logger == nil {
		logger = zap.NewNop()
	}
	return base{registry: registry, def: def, logger: logger}
}

// New constructs the variant matching the definition's kind. Model names are
// resolved lazily through the registry, so relations may be built before every
// model has a data source bound.
func New(registry *persistence.Registry, def schema.RelationDefinition, logger *zap.Logger) (Relation, error) {
	switch def.Kind {
	case schema.RelationToOne:
		return NewToOne(registry, def, logger), nil
	case schema.RelationOneToMany:
		return NewOneToMany(registry, def, logger), nil
	case schema.RelationManyToMany:
		return NewManyToMany(registry, def, logger), nil
	case schema.RelationEmbedded:
		return NewEmbedded(registry, def, logger), nil
	default:
		return nil, fmt.Errorf("unknown relation kind %q", def.Kind)
	}
}

// Set holds every relation instance of a schema, keyed by owning model and
// relation name. It is built once after all models are registered.
type Set struct {
	relations map[string]Relation
}

func setKey(model, name string) string {
	return model + "." + name
}

// NewSet builds relation instances for every relation declared on the
// registry's models.
func NewSet(registry *persistence.Registry, logger *zap.Logger) (*Set, error) {
	set := &Set{relations: make(map[string]Relation)}
	for _, m := range registry.Models() {
		for _, def := range m.Relations() {
			r, err := New(registry, def, logger)
			if err != nil {
				return nil, fmt.Errorf("model %q relation %q: %w", m.Name(), def.Name, err)
			}
			key := setKey(m.Name(), def.Name)
			if _, dup := set.relations[key]; dup {
				return nil, fmt.Errorf("model %q declares relation %q twice", m.Name(), def.Name)
			}
			set.relations[key] = r
		}
	}
	return set, nil
}

// Relation returns the relation instance declared on a model under a name.
func (s *Set) Relation(model, name string) (Relation, error) {
	r, ok := s.relations[setKey(model, name)]
	if !ok {
		return nil, fmt.Errorf("no relation %q on model %q", name, model)
	}
	return r, nil
}
