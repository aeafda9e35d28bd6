package relation

import (
	"context"
	"fmt"

	"github.com/asaidimu/go-loom/core/persistence"
	"github.com/asaidimu/go-loom/core/query"
	"github.com/asaidimu/go-loom/core/schema"
	"go.uber.org/zap"
)

// ManyToMany links records of models A and B symmetrically. The link is
// persisted twice, once per direction: model A's data source keeps a join
// record per A id holding the linked B ids, and model B's data source keeps
// the mirror. Writing both directions lets either side read its links without
// a fan-out join, at the cost of two non-atomic writes.
type ManyToMany struct {
	base
}

// NewManyToMany builds a many-to-many relation from its descriptor.
func NewManyToMany(registry *persistence.Registry, def schema.RelationDefinition, logger *zap.Logger) *ManyToMany {
	return &ManyToMany{base: newBase(registry, def, logger)}
}

// JoinModelB lists the model B records linked to the given model A record. Ids
// in the join array that no longer resolve are silently dropped (read-repair):
// a dangling link degrades to absent rather than erroring.
func (r *ManyToMany) JoinModelB(ctx context.Context, aID string) ([]schema.Document, error) {
	sourceA, err := r.sourceA()
	if err != nil {
		return nil, err
	}
	sourceB, err := r.sourceB()
	if err != nil {
		return nil, err
	}
	ids, err := sourceA.FindManyFromManyRelation(ctx, r.def.ModelA, r.def.ModelB, aID)
	if err != nil {
		return nil, fmt.Errorf("failed to read join record for %s %q: %w", r.def.ModelA, aID, err)
	}
	return r.resolve(ctx, sourceB, r.def.ModelB, ids)
}

// JoinModelA lists the model A records linked to the given model B record,
// with the same read-repair behavior as JoinModelB.
func (r *ManyToMany) JoinModelA(ctx context.Context, bID string) ([]schema.Document, error) {
	sourceA, err := r.sourceA()
	if err != nil {
		return nil, err
	}
	sourceB, err := r.sourceB()
	if err != nil {
		return nil, err
	}
	ids, err := sourceB.FindManyFromManyRelation(ctx, r.def.ModelB, r.def.ModelA, bID)
	if err != nil {
		return nil, fmt.Errorf("failed to read join record for %s %q: %w", r.def.ModelB, bID, err)
	}
	return r.resolve(ctx, sourceA, r.def.ModelA, ids)
}

// resolve looks every id up on the target side, filtering out ids that no
// longer resolve.
func (r *ManyToMany) resolve(ctx context.Context, source persistence.DataSource, model string, ids []string) ([]schema.Document, error) {
	records := make([]schema.Document, 0, len(ids))
	for _, id := range ids {
		record, err := source.FindOneByID(ctx, id)
		if err != nil {
			if persistence.IsNotFound(err) {
				r.logger.Debug("dropping dangling join id",
					zap.String("relation", r.def.Name),
					zap.String("model", model),
					zap.String("id", id))
				continue
			}
			return nil, fmt.Errorf("failed to resolve %s %q: %w", model, id, err)
		}
		records = append(records, record)
	}
	return records, nil
}

// AddID links an A record and a B record. Two independent writes are issued
// sequentially, one per direction, with no atomicity between them: a failure
// after the first write leaves a one-directional link that read-repair hides.
func (r *ManyToMany) AddID(ctx context.Context, aID, bID string) error {
	sourceA, err := r.sourceA()
	if err != nil {
		return err
	}
	sourceB, err := r.sourceB()
	if err != nil {
		return err
	}
	if err := sourceA.AddIDToManyRelation(ctx, r.def.ModelA, r.def.ModelB, aID, bID); err != nil {
		return fmt.Errorf("failed to link %s %q to %s %q: %w", r.def.ModelA, aID, r.def.ModelB, bID, err)
	}
	if err := sourceB.AddIDToManyRelation(ctx, r.def.ModelB, r.def.ModelA, bID, aID); err != nil {
		return fmt.Errorf("failed to mirror link on %s %q (forward direction already written): %w", r.def.ModelB, bID, err)
	}
	return nil
}

// RemoveID unlinks an A record and a B record, removing both directions with
// the same sequential, non-atomic write pattern as AddID.
func (r *ManyToMany) RemoveID(ctx context.Context, aID, bID string) error {
	sourceA, err := r.sourceA()
	if err != nil {
		return err
	}
	sourceB, err := r.sourceB()
	if err != nil {
		return err
	}
	if err := sourceA.RemoveIDFromManyRelation(ctx, r.def.ModelA, r.def.ModelB, aID, bID); err != nil {
		return fmt.Errorf("failed to unlink %s %q from %s %q: %w", r.def.ModelA, aID, r.def.ModelB, bID, err)
	}
	if err := sourceB.RemoveIDFromManyRelation(ctx, r.def.ModelB, r.def.ModelA, bID, aID); err != nil {
		return fmt.Errorf("failed to mirror unlink on %s %q (forward direction already removed): %w", r.def.ModelB, bID, err)
	}
	return nil
}

// CreateAndAddIDForModelA creates a new model A record and links it to an
// existing B record, as a single logical cascade. The creation and the two
// link writes remain separate operations at the transport level.
func (r *ManyToMany) CreateAndAddIDForModelA(ctx context.Context, bID string, mutation *persistence.Mutation) (schema.Document, error) {
	sourceA, err := r.sourceA()
	if err != nil {
		return nil, err
	}
	record, err := sourceA.Create(ctx, mutation)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", r.def.ModelA, err)
	}
	if err := r.AddID(ctx, record.ID(), bID); err != nil {
		return nil, err
	}
	return record, nil
}

// CreateAndAddIDForModelB creates a new model B record and links it to an
// existing A record.
func (r *ManyToMany) CreateAndAddIDForModelB(ctx context.Context, aID string, mutation *persistence.Mutation) (schema.Document, error) {
	sourceB, err := r.sourceB()
	if err != nil {
		return nil, err
	}
	record, err := sourceB.Create(ctx, mutation)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", r.def.ModelB, err)
	}
	if err := r.AddID(ctx, aID, record.ID()); err != nil {
		return nil, err
	}
	return record, nil
}

// DeleteAndRemoveIDFromModelA deletes a model A record and removes both
// directions of its link to the given B record. The record is deleted first;
// if the link removal fails afterwards a dangling reference remains, which
// join reads filter out.
func (r *ManyToMany) DeleteAndRemoveIDFromModelA(ctx context.Context, aID, bID string) error {
	sourceA, err := r.sourceA()
	if err != nil {
		return err
	}
	if err := sourceA.Delete(ctx, query.ByID(aID)); err != nil {
		return fmt.Errorf("failed to delete %s %q: %w", r.def.ModelA, aID, err)
	}
	return r.RemoveID(ctx, aID, bID)
}

// DeleteAndRemoveIDFromModelB deletes a model B record and removes both
// directions of its link to the given A record.
func (r *ManyToMany) DeleteAndRemoveIDFromModelB(ctx context.Context, aID, bID string) error {
	sourceB, err := r.sourceB()
	if err != nil {
		return err
	}
	if err := sourceB.Delete(ctx, query.ByID(bID)); err != nil {
		return fmt.Errorf("failed to delete %s %q: %w", r.def.ModelB, bID, err)
	}
	return r.RemoveID(ctx, aID, bID)
}
