package relation

import (
	"context"
	"fmt"

	"github.com/asaidimu/go-loom/core/persistence"
	"github.com/asaidimu/go-loom/core/query"
	"github.com/asaidimu/go-loom/core/schema"
	"go.uber.org/zap"
)

// Embedded links a model A record to many model B records by storing the
// foreign ids as keys of a map field on the owning (model A) record, each
// mapped to a "present" marker. Add and remove produce merge patches touching
// only the affected keys, so sibling keys survive concurrent writers.
type Embedded struct {
	base
}

// NewEmbedded builds an embedded relation from its descriptor.
func NewEmbedded(registry *persistence.Registry, def schema.RelationDefinition, logger *zap.Logger) *Embedded {
	return &Embedded{base: newBase(registry, def, logger)}
}

// FindOne returns the first owning record embedding the given foreign id, or
// ErrNotFound.
func (r *Embedded) FindOne(ctx context.Context, id string) (schema.Document, error) {
	source, err := r.sourceA()
	if err != nil {
		return nil, err
	}
	return source.FindOneByEmbedID(ctx, r.def.ForeignKey, id)
}

// FindMany returns every owning record embedding the given foreign id.
func (r *Embedded) FindMany(ctx context.Context, id string) ([]schema.Document, error) {
	source, err := r.sourceA()
	if err != nil {
		return nil, err
	}
	return source.FindManyByEmbedID(ctx, r.def.ForeignKey, id)
}

// Join resolves the embedded foreign ids of an owning record into model B
// records. Keys whose target no longer resolves are silently dropped.
func (r *Embedded) Join(ctx context.Context, record schema.Document) ([]schema.Document, error) {
	source, err := r.sourceB()
	if err != nil {
		return nil, err
	}
	embedded, ok := record[r.def.ForeignKey].(map[string]any)
	if !ok || len(embedded) == 0 {
		return nil, nil
	}
	records := make([]schema.Document, 0, len(embedded))
	for id := range embedded {
		related, err := source.FindOneByID(ctx, id)
		if err != nil {
			if persistence.IsNotFound(err) {
				r.logger.Debug("dropping dangling embedded id",
					zap.String("relation", r.def.Name),
					zap.String("id", id))
				continue
			}
			return nil, fmt.Errorf("failed to resolve %s %q: %w", r.def.ModelB, id, err)
		}
		records = append(records, related)
	}
	return records, nil
}

// Add embeds foreign ids into the owning record's map field via a merge patch
// built by the owning data source, leaving sibling keys untouched.
func (r *Embedded) Add(ctx context.Context, ownerID string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	source, err := r.sourceA()
	if err != nil {
		return err
	}
	patch := source.AddEmbedIDs(r.def.ForeignKey, ids)
	if err := source.Update(ctx, query.ByID(ownerID), persistence.NewMutation(patch)); err != nil {
		return fmt.Errorf("failed to embed ids into %s %q: %w", r.def.ModelA, ownerID, err)
	}
	return nil
}

// Remove deletes exactly the given foreign-id keys from the owning record's
// map field.
func (r *Embedded) Remove(ctx context.Context, ownerID string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	source, err := r.sourceA()
	if err != nil {
		return err
	}
	patch := source.RemoveEmbedIDs(r.def.ForeignKey, ids)
	if err := source.Update(ctx, query.ByID(ownerID), persistence.NewMutation(patch)); err != nil {
		return fmt.Errorf("failed to remove embedded ids from %s %q: %w", r.def.ModelA, ownerID, err)
	}
	return nil
}
