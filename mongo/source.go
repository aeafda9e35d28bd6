// Package mongo provides a persistence.DataSource implementation backed by a
// MongoDB collection. Unlike the scan-based backends, filtering, sorting and
// offset pagination are pushed to the server as native queries; embedded-id
// lookups map to dotted-key existence filters and join arrays to $addToSet and
// $pull updates, so the contract's merge-patch and array-union semantics ride
// on primitives the store already makes idempotent.
package mongo

import (
	"context"
	"fmt"
	"regexp"

	"github.com/asaidimu/go-loom/core/persistence"
	"github.com/asaidimu/go-loom/core/query"
	"github.com/asaidimu/go-loom/core/schema"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// joinsCollection holds every model's many-to-many join records, keyed by the
// contract's join key format.
const joinsCollection = "loom_joins"

// Connect dials a MongoDB deployment. The returned client is constructed once
// and passed into each data source, never reached through global state.
func Connect(ctx context.Context, uri string) (*mongo.Client, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}
	return client, nil
}

// Source is a MongoDB-backed data source for one model's records.
type Source struct {
	records *mongo.Collection
	joins   *mongo.Collection
	logger  *zap.Logger
}

// Ensure Source implements the persistence.DataSource contract.
var _ persistence.DataSource = (*Source)(nil)

// NewSource creates a data source over the named collection of a database.
func NewSource(db *mongo.Database, collection string, logger *zap.Logger) *Source {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Source{
		records: db.Collection(collection),
		joins:   db.Collection(joinsCollection),
		logger:  logger,
	}
}

// whereToFilter translates a Where clause into a MongoDB filter document.
func whereToFilter(where query.Where) (bson.M, error) {
	filter := bson.M{}
	for field, condition := range where {
		clauses := bson.M{}
		for operator, value := range condition {
			switch operator {
			case query.ComparisonOperatorEq:
				clauses["$eq"] = value
			case query.ComparisonOperatorNeq:
				clauses["$ne"] = value
			case query.ComparisonOperatorLt:
				clauses["$lt"] = value
			case query.ComparisonOperatorLte:
				clauses["$lte"] = value
			case query.ComparisonOperatorGt:
				clauses["$gt"] = value
			case query.ComparisonOperatorGte:
				clauses["$gte"] = value
			case query.ComparisonOperatorIn:
				clauses["$in"] = value
			case query.ComparisonOperatorNin:
				clauses["$nin"] = value
			case query.ComparisonOperatorContains:
				if s, ok := value.(string); ok {
					clauses["$regex"] = regexp.QuoteMeta(s)
				} else {
					clauses["$elemMatch"] = bson.M{"$eq": value}
				}
			default:
				return nil, fmt.Errorf("unsupported comparison operator: %s", operator)
			}
		}
		filter[field] = clauses
	}
	return filter, nil
}

// orderByToSort translates an OrderBy spec into a MongoDB sort document.
func orderByToSort(orderBy query.OrderBy) bson.D {
	sort := make(bson.D, 0, len(orderBy))
	for _, cfg := range orderBy {
		direction := 1
		if cfg.Direction == query.SortDirectionDesc {
			direction = -1
		}
		sort = append(sort, bson.E{Key: cfg.Field, Value: direction})
	}
	return sort
}

// decodeAll drains a cursor into documents, dropping the server-managed _id.
func decodeAll(ctx context.Context, cursor *mongo.Cursor) ([]schema.Document, error) {
	defer cursor.Close(ctx)
	var docs []schema.Document
	for cursor.Next(ctx) {
		var doc schema.Document
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode document: %w", err)
		}
		delete(doc, "_id")
		docs = append(docs, doc)
	}
	return docs, cursor.Err()
}

// Find pushes Where, OrderBy and offset pagination to the server. Cursor
// pagination falls back to fetching the filtered, sorted sequence and slicing
// in-process, because an id cursor has no server-side meaning under an
// arbitrary sort.
func (s *Source) Find(ctx context.Context, q *query.Query) (*query.PaginatedResponse, error) {
	if q == nil {
		q = &query.Query{}
	}
	filter, err := whereToFilter(q.Where)
	if err != nil {
		return nil, err
	}

	sort := orderByToSort(q.OrderBy)
	if len(sort) == 0 {
		sort = bson.D{{Key: "id", Value: 1}}
	}

	if q.Page != nil && q.Page.Cursor != nil {
		cursor, err := s.records.Find(ctx, filter, options.Find().SetSort(sort))
		if err != nil {
			return nil, fmt.Errorf("failed to query collection: %w", err)
		}
		docs, err := decodeAll(ctx, cursor)
		if err != nil {
			return nil, err
		}
		return query.Paginate(docs, q.Page), nil
	}

	total, err := s.records.CountDocuments(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to count documents: %w", err)
	}

	findOptions := options.Find().SetSort(sort)
	start := 0
	if q.Page != nil {
		if q.Page.Offset != nil && *q.Page.Offset > 0 {
			start = *q.Page.Offset
			findOptions.SetSkip(int64(start))
		}
		if q.Page.Limit > 0 {
			findOptions.SetLimit(int64(q.Page.Limit))
		}
	}

	cursor, err := s.records.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to query collection: %w", err)
	}
	docs, err := decodeAll(ctx, cursor)
	if err != nil {
		return nil, err
	}

	info := query.PageInfo{
		HasNextPage:     start+len(docs) < int(total),
		HasPreviousPage: start > 0,
		Total:           int(total),
	}
	if info.HasNextPage && len(docs) > 0 {
		if id := docs[len(docs)-1].ID(); id != "" {
			cursorID := id
			info.NextCursor = &cursorID
		}
	}
	return &query.PaginatedResponse{Data: docs, PageInfo: info}, nil
}

func (s *Source) findOne(ctx context.Context, filter bson.M) (schema.Document, error) {
	var doc schema.Document
	err := s.records.FindOne(ctx, filter).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, persistence.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read document: %w", err)
	}
	delete(doc, "_id")
	return doc, nil
}

// FindOne returns the first match, or ErrNotFound.
func (s *Source) FindOne(ctx context.Context, where query.Where) (schema.Document, error) {
	filter, err := whereToFilter(where)
	if err != nil {
		return nil, err
	}
	return s.findOne(ctx, filter)
}

// FindOneByID looks a record up by its id field.
func (s *Source) FindOneByID(ctx context.Context, id string) (schema.Document, error) {
	return s.findOne(ctx, bson.M{"id": id})
}

// Create persists a new record, back-filling a generated id into the stored
// document: MongoDB assigns _id natively but not the contract's id field.
func (s *Source) Create(ctx context.Context, mutation *persistence.Mutation) (schema.Document, error) {
	doc := mutation.Payload()
	id := doc.ID()
	if id == "" {
		id = uuid.NewString()
	}
	doc["id"] = id
	if _, err := s.records.InsertOne(ctx, doc); err != nil {
		return nil, fmt.Errorf("failed to insert document: %w", err)
	}
	s.logger.Debug("created record", zap.String("collection", s.records.Name()), zap.String("id", id))
	return doc, nil
}

// Update translates the payload into $set and $unset operators: deletion
// markers become $unset entries and dotted keys address nested map entries
// natively. An empty payload performs no write.
func (s *Source) Update(ctx context.Context, where query.Where, mutation *persistence.Mutation) error {
	payload := mutation.Payload()
	if len(payload) == 0 {
		return nil
	}
	filter, err := whereToFilter(where)
	if err != nil {
		return err
	}

	set := bson.M{}
	unset := bson.M{}
	for key, value := range payload {
		if persistence.IsDeleteMarker(value) {
			unset[key] = ""
		} else {
			set[key] = value
		}
	}
	update := bson.M{}
	if len(set) > 0 {
		update["$set"] = set
	}
	if len(unset) > 0 {
		update["$unset"] = unset
	}

	if _, err := s.records.UpdateMany(ctx, filter, update); err != nil {
		return fmt.Errorf("failed to update documents: %w", err)
	}
	return nil
}

// Delete removes every matching record.
func (s *Source) Delete(ctx context.Context, where query.Where) error {
	filter, err := whereToFilter(where)
	if err != nil {
		return err
	}
	if _, err := s.records.DeleteMany(ctx, filter); err != nil {
		return fmt.Errorf("failed to delete documents: %w", err)
	}
	return nil
}

// FindOneByRelation returns the first record whose foreign-key field holds the
// given id.
func (s *Source) FindOneByRelation(ctx context.Context, field string, id string) (schema.Document, error) {
	return s.findOne(ctx, bson.M{field: id})
}

// UpdateOneRelation sets or clears a foreign-key field on one record.
func (s *Source) UpdateOneRelation(ctx context.Context, id string, field string, value any) error {
	update := bson.M{"$set": bson.M{field: value}}
	if value == nil {
		update = bson.M{"$unset": bson.M{field: ""}}
	}
	result, err := s.records.UpdateOne(ctx, bson.M{"id": id}, update)
	if err != nil {
		return fmt.Errorf("failed to update relation field %q: %w", field, err)
	}
	if result.MatchedCount == 0 {
		return persistence.ErrNotFound
	}
	return nil
}

// FindManyFromOneRelation returns every record whose foreign-key field holds
// the given id.
func (s *Source) FindManyFromOneRelation(ctx context.Context, field string, id string) ([]schema.Document, error) {
	cursor, err := s.records.Find(ctx, bson.M{field: id})
	if err != nil {
		return nil, fmt.Errorf("failed to query relation field %q: %w", field, err)
	}
	return decodeAll(ctx, cursor)
}

// joinRecord is the stored shape of a many-to-many join record.
type joinRecord struct {
	Key string   `bson:"_id"`
	IDs []string `bson:"ids"`
}

// FindManyFromManyRelation returns the raw target-id array of a join record.
func (s *Source) FindManyFromManyRelation(ctx context.Context, sourceSingular, targetSingular, sourceID string) ([]string, error) {
	key := persistence.JoinKey(sourceSingular, targetSingular, sourceID)
	var record joinRecord
	err := s.joins.FindOne(ctx, bson.M{"_id": key}).Decode(&record)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read join record %q: %w", key, err)
	}
	return record.IDs, nil
}

// AddIDToManyRelation unions an id into a join record's array via $addToSet,
// upserting the join record when missing.
func (s *Source) AddIDToManyRelation(ctx context.Context, sourceSingular, targetSingular, sourceID, targetID string) error {
	key := persistence.JoinKey(sourceSingular, targetSingular, sourceID)
	_, err := s.joins.UpdateOne(ctx,
		bson.M{"_id": key},
		bson.M{"$addToSet": bson.M{"ids": targetID}},
		options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to add id to join record %q: %w", key, err)
	}
	return nil
}

// RemoveIDFromManyRelation removes an id from a join record's array via $pull.
func (s *Source) RemoveIDFromManyRelation(ctx context.Context, sourceSingular, targetSingular, sourceID, targetID string) error {
	key := persistence.JoinKey(sourceSingular, targetSingular, sourceID)
	_, err := s.joins.UpdateOne(ctx,
		bson.M{"_id": key},
		bson.M{"$pull": bson.M{"ids": targetID}})
	if err != nil {
		return fmt.Errorf("failed to remove id from join record %q: %w", key, err)
	}
	return nil
}

// FindOneByEmbedID returns the first record embedding the given id, using a
// dotted-key existence filter.
func (s *Source) FindOneByEmbedID(ctx context.Context, field string, id string) (schema.Document, error) {
	return s.findOne(ctx, bson.M{field + "." + id: bson.M{"$exists": true}})
}

// FindManyByEmbedID returns every record embedding the given id.
func (s *Source) FindManyByEmbedID(ctx context.Context, field string, id string) ([]schema.Document, error) {
	cursor, err := s.records.Find(ctx, bson.M{field + "." + id: bson.M{"$exists": true}})
	if err != nil {
		return nil, fmt.Errorf("failed to query embedded field %q: %w", field, err)
	}
	return decodeAll(ctx, cursor)
}

// AddEmbedIDs builds the standard dotted-key merge patch; Update translates it
// to $set entries.
func (s *Source) AddEmbedIDs(field string, ids []string) schema.Document {
	return persistence.BuildAddEmbedIDs(field, ids)
}

// RemoveEmbedIDs builds the standard dotted-key deletion patch; Update
// translates the markers to $unset entries.
func (s *Source) RemoveEmbedIDs(field string, ids []string) schema.Document {
	return persistence.BuildRemoveEmbedIDs(field, ids)
}
