package persistence

import (
	"context"
	"fmt"
	"time"

	"github.com/asaidimu/go-events"
	"github.com/asaidimu/go-loom/core/query"
	"github.com/asaidimu/go-loom/core/schema"
)

// SourceEventType defines the event types emitted around data source writes.
type SourceEventType string

const (
	RecordCreateStart   SourceEventType = "record:create:start"
	RecordCreateSuccess SourceEventType = "record:create:success"
	RecordCreateFailed  SourceEventType = "record:create:failed"
	RecordUpdateStart   SourceEventType = "record:update:start"
	RecordUpdateSuccess SourceEventType = "record:update:success"
	RecordUpdateFailed  SourceEventType = "record:update:failed"
	RecordDeleteStart   SourceEventType = "record:delete:start"
	RecordDeleteSuccess SourceEventType = "record:delete:success"
	RecordDeleteFailed  SourceEventType = "record:delete:failed"
	LinkAddSuccess      SourceEventType = "link:add:success"
	LinkAddFailed       SourceEventType = "link:add:failed"
	LinkRemoveSuccess   SourceEventType = "link:remove:success"
	LinkRemoveFailed    SourceEventType = "link:remove:failed"
)

// SourceEvent describes one data source operation.
type SourceEvent struct {
	Type      SourceEventType `json:"type"`
	Timestamp int64           `json:"timestamp"` // Unix milliseconds
	Operation string          `json:"operation"`
	Model     string          `json:"model"`
	Input     any             `json:"input,omitempty"`
	Output    any             `json:"output,omitempty"`
	Error     *string         `json:"error,omitempty"`
	Duration  *int64          `json:"duration,omitempty"` // milliseconds
}

// EventCallback handles an emitted source event.
type EventCallback func(ctx context.Context, event SourceEvent) error

// EventSource decorates a DataSource with event emission around every write
// operation. Reads pass through untouched.
type EventSource struct {
	DataSource
	model string
	bus   *events.TypedEventBus[SourceEvent]
}

// NewEventSource wraps a data source for the named model.
func NewEventSource(model string, source DataSource) (*EventSource, error) {
	bus, err := events.NewTypedEventBus[SourceEvent](events.DefaultConfig())
	if err != nil {
		return nil, fmt.Errorf("could not initialize event bus: %w", err)
	}
	return &EventSource{DataSource: source, model: model, bus: bus}, nil
}

// Subscribe registers a callback for an event type and returns its
// unsubscribe function.
func (e *EventSource) Subscribe(eventType SourceEventType, callback EventCallback) func() {
	return e.bus.Subscribe(string(eventType), callback)
}

func (e *EventSource) emit(event SourceEvent) {
	if e.bus != nil {
		e.bus.Emit(string(event.Type), event)
	}
}

// withEvents wraps an operation with start, success and failure events.
func (e *EventSource) withEvents(
	operation string,
	startType, successType, failedType SourceEventType,
	input any,
	fn func() (any, error),
) (any, error) {
	startTime := time.Now()
	e.emit(SourceEvent{
		Type:      startType,
		Timestamp: startTime.UnixMilli(),
		Operation: operation,
		Model:     e.model,
		Input:     input,
	})

	result, err := fn()
	duration := time.Since(startTime).Milliseconds()

	if err != nil {
		errStr := err.Error()
		e.emit(SourceEvent{
			Type:      failedType,
			Timestamp: time.Now().UnixMilli(),
			Operation: operation,
			Model:     e.model,
			Input:     input,
			Error:     &errStr,
			Duration:  &duration,
		})
		return nil, err
	}

	e.emit(SourceEvent{
		Type:      successType,
		Timestamp: time.Now().UnixMilli(),
		Operation: operation,
		Model:     e.model,
		Input:     input,
		Output:    result,
		Duration:  &duration,
	})
	return result, nil
}

// Create emits record create events around the wrapped operation.
func (e *EventSource) Create(ctx context.Context, mutation *Mutation) (schema.Document, error) {
	result, err := e.withEvents(
		"create",
		RecordCreateStart, RecordCreateSuccess, RecordCreateFailed,
		mutation.Data(),
		func() (any, error) {
			return e.DataSource.Create(ctx, mutation)
		},
	)
	if err != nil {
		return nil, err
	}
	return result.(schema.Document), nil
}

// Update emits record update events around the wrapped operation.
func (e *EventSource) Update(ctx context.Context, where query.Where, mutation *Mutation) error {
	_, err := e.withEvents(
		"update",
		RecordUpdateStart, RecordUpdateSuccess, RecordUpdateFailed,
		map[string]any{"where": where, "data": mutation.Data()},
		func() (any, error) {
			return nil, e.DataSource.Update(ctx, where, mutation)
		},
	)
	return err
}

// Delete emits record delete events around the wrapped operation.
func (e *EventSource) Delete(ctx context.Context, where query.Where) error {
	_, err := e.withEvents(
		"delete",
		RecordDeleteStart, RecordDeleteSuccess, RecordDeleteFailed,
		where,
		func() (any, error) {
			return nil, e.DataSource.Delete(ctx, where)
		},
	)
	return err
}

// AddIDToManyRelation emits link events around the wrapped operation.
func (e *EventSource) AddIDToManyRelation(ctx context.Context, sourceSingular, targetSingular, sourceID, targetID string) error {
	err := e.DataSource.AddIDToManyRelation(ctx, sourceSingular, targetSingular, sourceID, targetID)
	e.emitLink("link_add", LinkAddSuccess, LinkAddFailed, JoinKey(sourceSingular, targetSingular, sourceID), targetID, err)
	return err
}

// RemoveIDFromManyRelation emits link events around the wrapped operation.
func (e *EventSource) RemoveIDFromManyRelation(ctx context.Context, sourceSingular, targetSingular, sourceID, targetID string) error {
	err := e.DataSource.RemoveIDFromManyRelation(ctx, sourceSingular, targetSingular, sourceID, targetID)
	e.emitLink("link_remove", LinkRemoveSuccess, LinkRemoveFailed, JoinKey(sourceSingular, targetSingular, sourceID), targetID, err)
	return err
}

func (e *EventSource) emitLink(operation string, successType, failedType SourceEventType, joinKey, targetID string, err error) {
	event := SourceEvent{
		Type:      successType,
		Timestamp: time.Now().UnixMilli(),
		Operation: operation,
		Model:     e.model,
		Input:     map[string]any{"joinKey": joinKey, "targetId": targetID},
	}
	if err != nil {
		errStr := err.Error()
		event.Type = failedType
		event.Error = &errStr
	}
	e.emit(event)
}
