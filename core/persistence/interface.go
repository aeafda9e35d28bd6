// Package persistence defines the storage-agnostic contract every backend must
// satisfy: the DataSource interface, the Mutation intermediate representation,
// merge-patch payload conventions, and the Model/Registry aggregates that bind
// schema definitions to data sources.
package persistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/asaidimu/go-loom/core/query"
	"github.com/asaidimu/go-loom/core/schema"
)

// ErrNotFound signals that a single-record lookup matched nothing. It is an
// expected outcome, not an operation failure: callers distinguish "no data"
// from transport faults with errors.Is. Data sources must never wrap backend
// faults in ErrNotFound.
var ErrNotFound = errors.New("record not found")

// IsNotFound reports whether an error represents the absent-record outcome.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// JoinKey computes the storage key of a many-to-many join record: the record
// holding the array of target ids linked to one source record.
func JoinKey(sourceSingular, targetSingular, sourceID string) string {
	return fmt.Sprintf("_%s_%s/%s", sourceSingular, targetSingular, sourceID)
}

// DataSource is the sole owner of persistence for one model's records. It is
// the only component allowed to perform physical reads and writes for that
// model. One instance exists per model, constructed with an explicit client or
// store handle rather than ambient global state.
//
// The relation-aware operations are used exclusively by the relation variants
// in core/relation; generic callers stick to the CRUD surface.
type DataSource interface {
	// Find applies Where, OrderBy and pagination over the model's full record
	// set, server-side when the backend supports it and via core/query
	// otherwise.
	Find(ctx context.Context, q *query.Query) (*query.PaginatedResponse, error)
	// FindOne returns the first match of an unordered scan, or ErrNotFound.
	FindOne(ctx context.Context, where query.Where) (schema.Document, error)
	// FindOneByID returns the record with the given id, or ErrNotFound.
	FindOneByID(ctx context.Context, id string) (schema.Document, error)
	// Create persists a new record. When the backend does not natively assign
	// the identity into the record body, the data source back-fills the id
	// field into storage before returning.
	Create(ctx context.Context, mutation *Mutation) (schema.Document, error)
	// Update applies only the fields present in the mutation payload to every
	// matching record. An empty payload is a successful no-op, not an error.
	// The where clause may identify the record by primary id and nothing else.
	Update(ctx context.Context, where query.Where, mutation *Mutation) error
	// Delete removes every matching record, under the same id-only where
	// constraint as Update.
	Delete(ctx context.Context, where query.Where) error

	// FindOneByRelation returns the first record whose foreign-key field holds
	// the given id, or ErrNotFound.
	FindOneByRelation(ctx context.Context, field string, id string) (schema.Document, error)
	// UpdateOneRelation sets a foreign-key field on the record with the given
	// id. A nil value clears the link.
	UpdateOneRelation(ctx context.Context, id string, field string, value any) error
	// FindManyFromOneRelation returns every record whose foreign-key field
	// holds the given id.
	FindManyFromOneRelation(ctx context.Context, field string, id string) ([]schema.Document, error)
	// FindManyFromManyRelation reads the join record for the source record and
	// returns its raw target-id array. Ids are not resolved here: resolution
	// and dangling-id read-repair are the relation layer's job. A missing join
	// record yields an empty slice, never ErrNotFound.
	FindManyFromManyRelation(ctx context.Context, sourceSingular, targetSingular, sourceID string) ([]string, error)
	// AddIDToManyRelation unions targetID into the source record's join array.
	// The write is idempotent: adding an already linked id changes nothing.
	AddIDToManyRelation(ctx context.Context, sourceSingular, targetSingular, sourceID, targetID string) error
	// RemoveIDFromManyRelation removes targetID from the source record's join
	// array. Removing an absent id is a no-op.
	RemoveIDFromManyRelation(ctx context.Context, sourceSingular, targetSingular, sourceID, targetID string) error
	// FindOneByEmbedID returns the first record whose embedded-ids map field
	// contains the given id as a key, or ErrNotFound.
	FindOneByEmbedID(ctx context.Context, field string, id string) (schema.Document, error)
	// FindManyByEmbedID returns every record whose embedded-ids map field
	// contains the given id as a key.
	FindManyByEmbedID(ctx context.Context, field string, id string) ([]schema.Document, error)

	// AddEmbedIDs builds the merge-patch fragment that adds foreign ids as
	// keys of an embedded map field, leaving sibling keys untouched.
	AddEmbedIDs(field string, ids []string) schema.Document
	// RemoveEmbedIDs builds the merge-patch fragment that deletes exactly the
	// given keys from an embedded map field.
	RemoveEmbedIDs(field string, ids []string) schema.Document
}
