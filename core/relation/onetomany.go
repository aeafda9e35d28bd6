package relation

import (
	"context"
	"fmt"

	"github.com/asaidimu/go-loom/core/persistence"
	"github.com/asaidimu/go-loom/core/query"
	"github.com/asaidimu/go-loom/core/schema"
	"go.uber.org/zap"
)

// OneToMany links one record of model A to many records of model B. The link
// is a foreign id stored as a scalar field on each "many" side (model B)
// record.
type OneToMany struct {
	base
}

// NewOneToMany builds a one-to-many relation from its descriptor.
func NewOneToMany(registry *persistence.Registry, def schema.RelationDefinition, logger *zap.Logger) *OneToMany {
	return &OneToMany{base: newBase(registry, def, logger)}
}

// JoinOne resolves the "one" side (model A) record for a many-side record. A
// cleared foreign key or a dangling foreign id yields ErrNotFound.
func (r *OneToMany) JoinOne(ctx context.Context, record schema.Document) (schema.Document, error) {
	foreignID, ok := record[r.def.ForeignKey].(string)
	if !ok || foreignID == "" {
		return nil, persistence.ErrNotFound
	}
	source, err := r.sourceA()
	if err != nil {
		return nil, err
	}
	return source.FindOneByID(ctx, foreignID)
}

// JoinMany lists the many-side records linked to the given one-side record id.
func (r *OneToMany) JoinMany(ctx context.Context, oneID string) ([]schema.Document, error) {
	source, err := r.sourceB()
	if err != nil {
		return nil, err
	}
	return source.FindManyFromOneRelation(ctx, r.def.ForeignKey, oneID)
}

// Connect points a many-side record's foreign key at the one-side record.
func (r *OneToMany) Connect(ctx context.Context, oneID, manyID string) error {
	source, err := r.sourceB()
	if err != nil {
		return err
	}
	if err := source.UpdateOneRelation(ctx, manyID, r.def.ForeignKey, oneID); err != nil {
		return fmt.Errorf("failed to connect %s %q to %s %q: %w", r.def.ModelB, manyID, r.def.ModelA, oneID, err)
	}
	return nil
}

// Disconnect clears a many-side record's foreign key.
func (r *OneToMany) Disconnect(ctx context.Context, manyID string) error {
	source, err := r.sourceB()
	if err != nil {
		return err
	}
	if err := source.UpdateOneRelation(ctx, manyID, r.def.ForeignKey, nil); err != nil {
		return fmt.Errorf("failed to disconnect %s %q: %w", r.def.ModelB, manyID, err)
	}
	return nil
}

// Delete removes the one-side record and applies the relation's delete policy
// to its dependents: setNull clears their foreign keys, cascade deletes them.
// Dependents are listed before the owner is deleted; the per-dependent writes
// that follow are independent, and a failure part-way leaves foreign keys
// whose target no longer resolves. JoinOne degrades those to ErrNotFound.
func (r *OneToMany) Delete(ctx context.Context, oneID string) error {
	sourceA, err := r.sourceA()
	if err != nil {
		return err
	}
	sourceB, err := r.sourceB()
	if err != nil {
		return err
	}

	dependents, err := sourceB.FindManyFromOneRelation(ctx, r.def.ForeignKey, oneID)
	if err != nil {
		return fmt.Errorf("failed to list dependents of %s %q: %w", r.def.ModelA, oneID, err)
	}

	if err := sourceA.Delete(ctx, query.ByID(oneID)); err != nil {
		return fmt.Errorf("failed to delete %s %q: %w", r.def.ModelA, oneID, err)
	}

	policy := r.def.OnDelete
	if policy == "" {
		policy = schema.DeleteSetNull
	}
	for _, dependent := range dependents {
		id := dependent.ID()
		if id == "" {
			continue
		}
		switch policy {
		case schema.DeleteCascade:
			err = sourceB.Delete(ctx, query.ByID(id))
		default:
			err = sourceB.UpdateOneRelation(ctx, id, r.def.ForeignKey, nil)
		}
		if err != nil {
			return fmt.Errorf("failed to apply %s policy to %s %q: %w", policy, r.def.ModelB, id, err)
		}
	}

	r.logger.Debug("deleted one side of one-to-many relation",
		zap.String("relation", r.def.Name),
		zap.String("id", oneID),
		zap.String("policy", string(policy)),
		zap.Int("dependents", len(dependents)))
	return nil
}
