package relation

import (
	"context"
	"fmt"

	"github.com/asaidimu/go-loom/core/persistence"
	"github.com/asaidimu/go-loom/core/schema"
	"go.uber.org/zap"
)

// ToOne links a single record of model A to at most one record of model B. The
// link is a foreign id stored as a scalar field on model A's record; clearing
// the field removes the link.
type ToOne struct {
	base
}

// NewToOne builds a to-one relation from its descriptor.
func NewToOne(registry *persistence.Registry, def schema.RelationDefinition, logger *zap.Logger) *ToOne {
	return &ToOne{base: newBase(registry, def, logger)}
}

// Join resolves the related model B record for an owning-side record. A
// missing or null foreign key, or a foreign id that no longer resolves, yields
// ErrNotFound.
func (r *ToOne) Join(ctx context.Context, record schema.Document) (schema.Document, error) {
	foreignID, ok := record[r.def.ForeignKey].(string)
	if !ok || foreignID == "" {
		return nil, persistence.ErrNotFound
	}
	source, err := r.sourceB()
	if err != nil {
		return nil, err
	}
	return source.FindOneByID(ctx, foreignID)
}

// JoinReverse resolves the relation from model B's side: the model A record
// whose foreign key holds the given B record's id.
func (r *ToOne) JoinReverse(ctx context.Context, record schema.Document) (schema.Document, error) {
	id := record.ID()
	if id == "" {
		return nil, persistence.ErrNotFound
	}
	source, err := r.sourceA()
	if err != nil {
		return nil, err
	}
	return source.FindOneByRelation(ctx, r.def.ForeignKey, id)
}

// Connect points the owning record's foreign key at the target record.
func (r *ToOne) Connect(ctx context.Context, ownerID, targetID string) error {
	source, err := r.sourceA()
	if err != nil {
		return err
	}
	if err := source.UpdateOneRelation(ctx, ownerID, r.def.ForeignKey, targetID); err != nil {
		return fmt.Errorf("failed to connect %s %q to %s %q: %w", r.def.ModelA, ownerID, r.def.ModelB, targetID, err)
	}
	r.logger.Debug("connected to-one relation",
		zap.String("relation", r.def.Name),
		zap.String("owner", ownerID),
		zap.String("target", targetID))
	return nil
}

// Disconnect clears the owning record's foreign key, removing the link. The
// target record is untouched.
func (r *ToOne) Disconnect(ctx context.Context, ownerID string) error {
	source, err := r.sourceA()
	if err != nil {
		return err
	}
	if err := source.UpdateOneRelation(ctx, ownerID, r.def.ForeignKey, nil); err != nil {
		return fmt.Errorf("failed to disconnect %s %q: %w", r.def.ModelA, ownerID, err)
	}
	return nil
}
