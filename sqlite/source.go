// Package sqlite provides a persistence.DataSource implementation backed by a
// SQLite database. Records are stored as JSON documents in a two-column table
// per model, and many-to-many join records live in a shared joins table. The
// document-blob layout cannot push filters into SQL, so reads scan the table
// and run the pure primitives from core/query, the same path a store without
// native querying would take.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/asaidimu/go-loom/core/persistence"
	"github.com/asaidimu/go-loom/core/query"
	"github.com/asaidimu/go-loom/core/schema"
	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

// Open opens (or creates) a SQLite database file for use with NewSource.
func Open(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	return db, nil
}

// Source is a SQLite-backed data source for one model's records. The
// connection is passed in at construction and shared between sources; it is
// never reached through ambient global state.
type Source struct {
	db         *sql.DB
	collection string
	logger     *zap.Logger
}

// Ensure Source implements the persistence.DataSource contract.
var _ persistence.DataSource = (*Source)(nil)

// NewSource creates a data source over the named collection, creating its
// record table and the shared joins table when missing.
func NewSource(db *sql.DB, collection string, logger *zap.Logger) (*Source, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Source{db: db, collection: collection, logger: logger}

	createRecords := fmt.Sprintf(
		`CREATE TABLE IF NOT EXISTS %q (id TEXT PRIMARY KEY, doc TEXT NOT NULL)`, collection)
	if _, err := db.Exec(createRecords); err != nil {
		return nil, fmt.Errorf("failed to create table %q: %w", collection, err)
	}
	createJoins := `CREATE TABLE IF NOT EXISTS loom_joins (join_key TEXT PRIMARY KEY, target_ids TEXT NOT NULL)`
	if _, err := db.Exec(createJoins); err != nil {
		return nil, fmt.Errorf("failed to create joins table: %w", err)
	}
	return s, nil
}

// loadAll reads every document of the collection, ordered by id so pagination
// is stable across calls.
func (s *Source) loadAll(ctx context.Context) ([]schema.Document, error) {
	rows, err := s.db.QueryContext(ctx,
		fmt.Sprintf(`SELECT doc FROM %q ORDER BY id`, s.collection))
	if err != nil {
		return nil, fmt.Errorf("failed to scan collection %q: %w", s.collection, err)
	}
	defer rows.Close()

	var docs []schema.Document
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		var doc schema.Document
		if err := json.Unmarshal([]byte(raw), &doc); err != nil {
			return nil, fmt.Errorf("failed to decode document: %w", err)
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

func (s *Source) writeDoc(ctx context.Context, id string, doc schema.Document) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to encode document: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		fmt.Sprintf(`INSERT OR REPLACE INTO %q (id, doc) VALUES (?, ?)`, s.collection), id, string(raw))
	if err != nil {
		return fmt.Errorf("failed to write document %q: %w", id, err)
	}
	return nil
}

// Find scans the collection and applies the query pipeline in-process.
func (s *Source) Find(ctx context.Context, q *query.Query) (*query.PaginatedResponse, error) {
	docs, err := s.loadAll(ctx)
	if err != nil {
		return nil, err
	}
	return query.Apply(docs, q)
}

// FindOne returns the first match of a collection scan, or ErrNotFound.
func (s *Source) FindOne(ctx context.Context, where query.Where) (schema.Document, error) {
	docs, err := s.loadAll(ctx)
	if err != nil {
		return nil, err
	}
	for _, doc := range docs {
		passes, err := query.Match(doc, where)
		if err != nil {
			return nil, err
		}
		if passes {
			return doc, nil
		}
	}
	return nil, persistence.ErrNotFound
}

// FindOneByID looks a record up by primary key.
func (s *Source) FindOneByID(ctx context.Context, id string) (schema.Document, error) {
	var raw string
	err := s.db.QueryRowContext(ctx,
		fmt.Sprintf(`SELECT doc FROM %q WHERE id = ?`, s.collection), id).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, persistence.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read document %q: %w", id, err)
	}
	var doc schema.Document
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return nil, fmt.Errorf("failed to decode document %q: %w", id, err)
	}
	return doc, nil
}

// Create persists a new record. SQLite does not assign the identity into the
// document body, so the id is back-filled before the insert.
func (s *Source) Create(ctx context.Context, mutation *persistence.Mutation) (schema.Document, error) {
	doc := mutation.Payload()
	id := doc.ID()
	if id == "" {
		id = uuid.NewString()
	}
	doc["id"] = id
	if err := s.writeDoc(ctx, id, doc); err != nil {
		return nil, err
	}
	s.logger.Debug("created record", zap.String("collection", s.collection), zap.String("id", id))
	return doc, nil
}

// Update merges the mutation payload into every matching record. An empty
// payload performs no write.
func (s *Source) Update(ctx context.Context, where query.Where, mutation *persistence.Mutation) error {
	payload := mutation.Payload()
	if len(payload) == 0 {
		return nil
	}
	docs, err := s.loadAll(ctx)
	if err != nil {
		return err
	}
	for _, doc := range docs {
		passes, err := query.Match(doc, where)
		if err != nil {
			return err
		}
		if !passes {
			continue
		}
		persistence.ApplyPayload(doc, payload)
		if err := s.writeDoc(ctx, doc.ID(), doc); err != nil {
			return err
		}
	}
	return nil
}

// Delete removes every matching record.
func (s *Source) Delete(ctx context.Context, where query.Where) error {
	docs, err := s.loadAll(ctx)
	if err != nil {
		return err
	}
	for _, doc := range docs {
		passes, err := query.Match(doc, where)
		if err != nil {
			return err
		}
		if !passes {
			continue
		}
		_, err = s.db.ExecContext(ctx,
			fmt.Sprintf(`DELETE FROM %q WHERE id = ?`, s.collection), doc.ID())
		if err != nil {
			return fmt.Errorf("failed to delete document %q: %w", doc.ID(), err)
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
	doc, err := s.FindOneByID(ctx, id)
	if err != nil {
		return err
	}
	if value == nil {
		delete(doc, field)
	} else {
		doc[field] = value
	}
	return s.writeDoc(ctx, id, doc)
}

// FindManyFromOneRelation returns every record whose foreign-key field holds
// the given id.
func (s *Source) FindManyFromOneRelation(ctx context.Context, field string, id string) ([]schema.Document, error) {
	docs, err := s.loadAll(ctx)
	if err != nil {
		return nil, err
	}
	var out []schema.Document
	for _, doc := range docs {
		if fk, ok := doc[field].(string); ok && fk == id {
			out = append(out, doc)
		}
	}
	return out, nil
}

func (s *Source) readJoin(ctx context.Context, key string) ([]string, error) {
	var raw string
	err := s.db.QueryRowContext(ctx,
		`SELECT target_ids FROM loom_joins WHERE join_key = ?`, key).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read join record %q: %w", key, err)
	}
	var ids []string
	if err := json.Unmarshal([]byte(raw), &ids); err != nil {
		return nil, fmt.Errorf("failed to decode join record %q: %w", key, err)
	}
	return ids, nil
}

func (s *Source) writeJoin(ctx context.Context, key string, ids []string) error {
	raw, err := json.Marshal(ids)
	if err != nil {
		return fmt.Errorf("failed to encode join record %q: %w", key, err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO loom_joins (join_key, target_ids) VALUES (?, ?)`, key, string(raw))
	if err != nil {
		return fmt.Errorf("failed to write join record %q: %w", key, err)
	}
	return nil
}

// FindManyFromManyRelation returns the raw target-id array of a join record.
func (s *Source) FindManyFromManyRelation(ctx context.Context, sourceSingular, targetSingular, sourceID string) ([]string, error) {
	return s.readJoin(ctx, persistence.JoinKey(sourceSingular, targetSingular, sourceID))
}

// AddIDToManyRelation unions an id into a join record's array.
func (s *Source) AddIDToManyRelation(ctx context.Context, sourceSingular, targetSingular, sourceID, targetID string) error {
	key := persistence.JoinKey(sourceSingular, targetSingular, sourceID)
	ids, err := s.readJoin(ctx, key)
	if err != nil {
		return err
	}
	for _, id := range ids {
		if id == targetID {
			return nil
		}
	}
	return s.writeJoin(ctx, key, append(ids, targetID))
}

// RemoveIDFromManyRelation removes an id from a join record's array.
func (s *Source) RemoveIDFromManyRelation(ctx context.Context, sourceSingular, targetSingular, sourceID, targetID string) error {
	key := persistence.JoinKey(sourceSingular, targetSingular, sourceID)
	ids, err := s.readJoin(ctx, key)
	if err != nil {
		return err
	}
	out := ids[:0]
	for _, id := range ids {
		if id != targetID {
			out = append(out, id)
		}
	}
	return s.writeJoin(ctx, key, out)
}

// FindOneByEmbedID returns the first record embedding the given id.
func (s *Source) FindOneByEmbedID(ctx context.Context, field string, id string) (schema.Document, error) {
	docs, err := s.loadAll(ctx)
	if err != nil {
		return nil, err
	}
	for _, doc := range docs {
		if persistence.HasEmbedID(doc, field, id) {
			return doc, nil
		}
	}
	return nil, persistence.ErrNotFound
}

// FindManyByEmbedID returns every record embedding the given id.
func (s *Source) FindManyByEmbedID(ctx context.Context, field string, id string) ([]schema.Document, error) {
	docs, err := s.loadAll(ctx)
	if err != nil {
		return nil, err
	}
	var out []schema.Document
	for _, doc := range docs {
		if persistence.HasEmbedID(doc, field, id) {
			out = append(out, doc)
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
