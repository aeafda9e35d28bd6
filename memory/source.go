// Package memory provides an in-memory implementation of the
// persistence.DataSource contract. The store supports nothing beyond
// whole-collection scans, so all filtering, sorting and pagination run through
// the pure primitives in core/query. It backs tests and doubles as the
// reference implementation of the contract's semantics.
package memory

import (
	"context"
	"sync"

	"github.com/asaidimu/go-loom/core/persistence"
	"github.com/asaidimu/go-loom/core/query"
	"github.com/asaidimu/go-loom/core/schema"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Source is an in-memory data source for one model's records. It owns the
// model's record collection plus the many-to-many join records keyed by that
// model's side.
type Source struct {
	collection string
	logger     *zap.Logger

	mu      sync.RWMutex
	records map[string]schema.Document
	joins   map[string][]string
}

// Ensure Source implements the persistence.DataSource contract.
var _ persistence.DataSource = (*Source)(nil)

// NewSource creates an empty in-memory data source for the named collection.
func NewSource(collection string, logger *zap.Logger) *Source {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Source{
		collection: collection,
		logger:     logger,
		records:    make(map[string]schema.Document),
		joins:      make(map[string][]string),
	}
}

// snapshot returns clones of all records, in stable insertion-independent
// order left to the caller's sort.
func (s *Source) snapshot() []schema.Document {
	out := make([]schema.Document, 0, len(s.records))
	for _, doc := range s.records {
		out = append(out, doc.Clone())
	}
	return out
}

// Find applies the full query pipeline over a snapshot of the collection.
func (s *Source) Find(ctx context.Context, q *query.Query) (*query.PaginatedResponse, error) {
	s.mu.RLock()
	docs := s.snapshot()
	s.mu.RUnlock()

	// A deterministic base order keeps pagination stable across calls.
	docs = query.Sort(docs, query.OrderBy{{Field: "id", Direction: query.SortDirectionAsc}})
	return query.Apply(docs, q)
}

// FindOne returns the first match of an unordered scan, or ErrNotFound.
func (s *Source) FindOne(ctx context.Context, where query.Where) (schema.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, doc := range s.records {
		passes, err := query.Match(doc, where)
		if err != nil {
			return nil, err
		}
		if passes {
			return doc.Clone(), nil
		}
	}
	return nil, persistence.ErrNotFound
}

// FindOneByID returns the record with the given id, or ErrNotFound.
func (s *Source) FindOneByID(ctx context.Context, id string) (schema.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.records[id]
	if !ok {
		return nil, persistence.ErrNotFound
	}
	return doc.Clone(), nil
}

// Create persists a new record, generating and back-filling the id when the
// payload does not carry one.
func (s *Source) Create(ctx context.Context, mutation *persistence.Mutation) (schema.Document, error) {
	doc := mutation.Payload()
	id := doc.ID()
	if id == "" {
		id = uuid.NewString()
		doc["id"] = id
	}

	s.mu.Lock()
	s.records[id] = doc
	s.mu.Unlock()

	s.logger.Debug("created record", zap.String("collection", s.collection), zap.String("id", id))
	return doc.Clone(), nil
}

// Update merges the mutation payload into every matching record. An empty
// payload is a successful no-op and performs no write.
func (s *Source) Update(ctx context.Context, where query.Where, mutation *persistence.Mutation) error {
	payload := mutation.Payload()
	if len(payload) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, doc := range s.records {
		passes, err := query.Match(doc, where)
		if err != nil {
			return err
		}
		if passes {
			persistence.ApplyPayload(doc, payload)
		}
	}
	return nil
}

// Delete removes every matching record.
func (s *Source) Delete(ctx context.Context, where query.Where) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, doc := range s.records {
		passes, err := query.Match(doc, where)
		if err != nil {
			return err
		}
		if passes {
			delete(s.records, id)
		}
	}
	return nil
}

// FindOneByRelation returns the first record whose foreign-key field holds the
// given id.
func (s *Source) FindOneByRelation(ctx context.Context, field string, id string) (schema.Document, error) {
	return s.FindOne(ctx, query.Where{field: {query.ComparisonOperatorEq: id}})
}

// UpdateOneRelation sets or clears a foreign-key field on one record.
func (s *Source) UpdateOneRelation(ctx context.Context, id string, field string, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.records[id]
	if !ok {
		return persistence.ErrNotFound
	}
	if value == nil {
		delete(doc, field)
	} else {
		doc[field] = value
	}
	return nil
}

// FindManyFromOneRelation returns every record whose foreign-key field holds
// the given id.
func (s *Source) FindManyFromOneRelation(ctx context.Context, field string, id string) ([]schema.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []schema.Document
	for _, doc := range s.records {
		if fk, ok := doc[field].(string); ok && fk == id {
			out = append(out, doc.Clone())
		}
	}
	return out, nil
}

// FindManyFromManyRelation returns the raw target-id array of a join record. A
// missing join record yields an empty slice.
func (s *Source) FindManyFromManyRelation(ctx context.Context, sourceSingular, targetSingular, sourceID string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := s.joins[persistence.JoinKey(sourceSingular, targetSingular, sourceID)]
	out := make([]string, len(ids))
	copy(out, ids)
	return out, nil
}

// AddIDToManyRelation unions an id into a join record's array.
func (s *Source) AddIDToManyRelation(ctx context.Context, sourceSingular, targetSingular, sourceID, targetID string) error {
	key := persistence.JoinKey(sourceSingular, targetSingular, sourceID)
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range s.joins[key] {
		if id == targetID {
			return nil
		}
	}
	s.joins[key] = append(s.joins[key], targetID)
	return nil
}

// RemoveIDFromManyRelation removes an id from a join record's array.
func (s *Source) RemoveIDFromManyRelation(ctx context.Context, sourceSingular, targetSingular, sourceID, targetID string) error {
	key := persistence.JoinKey(sourceSingular, targetSingular, sourceID)
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := s.joins[key]
	out := ids[:0]
	for _, id := range ids {
		if id != targetID {
			out = append(out, id)
		}
	}
	s.joins[key] = out
	return nil
}

// FindOneByEmbedID returns the first record embedding the given id.
func (s *Source) FindOneByEmbedID(ctx context.Context, field string, id string) (schema.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, doc := range s.records {
		if persistence.HasEmbedID(doc, field, id) {
			return doc.Clone(), nil
		}
	}
	return nil, persistence.ErrNotFound
}

// FindManyByEmbedID returns every record embedding the given id.
func (s *Source) FindManyByEmbedID(ctx context.Context, field string, id string) ([]schema.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []schema.Document
	for _, doc := range s.records {
		if persistence.HasEmbedID(doc, field, id) {
			out = append(out, doc.Clone())
		}
	}
	return out, nil
}

// AddEmbedIDs builds the standard dotted-key merge patch.
func (s *Source) AddEmbedIDs(field string, ids []string) schema.Document {
	return persistence.BuildAddEmbedIDs(field, ids)
}

// RemoveEmbedIDs builds the standard dotted-key deletion patch.
func (s *Source) RemoveEmbedIDs(field string, ids []string) schema.Document {
	return persistence.BuildRemoveEmbedIDs(field, ids)
}
