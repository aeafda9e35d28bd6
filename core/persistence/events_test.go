package persistence_test

import (
	"context"
	"testing"
	"time"

	"github.com/asaidimu/go-loom/core/persistence"
	"github.com/asaidimu/go-loom/core/query"
	"github.com/asaidimu/go-loom/core/schema"
	"github.com/asaidimu/go-loom/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func waitForEvent(t *testing.T, ch <-chan persistence.SourceEvent) persistence.SourceEvent {
	t.Helper()
	select {
	case ev := <-ch:
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
		return persistence.SourceEvent{}
	}
}

func TestEventSource_CreateEmitsLifecycle(t *testing.T) {
	source, err := persistence.NewEventSource("post", memory.NewSource("posts", nil))
	require.NoError(t, err)

	events := make(chan persistence.SourceEvent, 4)
	collect := func(ctx context.Context, ev persistence.SourceEvent) error {
		events <- ev
		return nil
	}
	defer source.Subscribe(persistence.RecordCreateStart, collect)()
	defer source.Subscribe(persistence.RecordCreateSuccess, collect)()

	doc, err := source.Create(context.Background(), persistence.NewMutation(schema.Document{"title": "hello"}))
	require.NoError(t, err)
	require.NotEmpty(t, doc.ID())

	start := waitForEvent(t, events)
	assert.Equal(t, persistence.RecordCreateStart, start.Type)
	assert.Equal(t, "post", start.Model)
	assert.Equal(t, "create", start.Operation)

	success := waitForEvent(t, events)
	assert.Equal(t, persistence.RecordCreateSuccess, success.Type)
	require.NotNil(t, success.Duration)
	assert.NotNil(t, success.Output)
}

func TestEventSource_UpdateAndDeleteEmitSuccess(t *testing.T) {
	inner := memory.NewSource("posts", nil)
	source, err := persistence.NewEventSource("post", inner)
	require.NoError(t, err)

	events := make(chan persistence.SourceEvent, 4)
	collect := func(ctx context.Context, ev persistence.SourceEvent) error {
		events <- ev
		return nil
	}
	defer source.Subscribe(persistence.RecordUpdateSuccess, collect)()
	defer source.Subscribe(persistence.RecordDeleteSuccess, collect)()

	doc, err := source.Create(context.Background(), persistence.NewMutation(schema.Document{"title": "hello"}))
	require.NoError(t, err)

	err = source.Update(context.Background(), query.ByID(doc.ID()),
		persistence.NewMutation(schema.Document{"title": "renamed"}))
	require.NoError(t, err)
	assert.Equal(t, persistence.RecordUpdateSuccess, waitForEvent(t, events).Type)

	require.NoError(t, source.Delete(context.Background(), query.ByID(doc.ID())))
	assert.Equal(t, persistence.RecordDeleteSuccess, waitForEvent(t, events).Type)

	_, err = inner.FindOneByID(context.Background(), doc.ID())
	assert.True(t, persistence.IsNotFound(err))
}

func TestEventSource_LinkEventsCarryJoinKey(t *testing.T) {
	source, err := persistence.NewEventSource("post", memory.NewSource("posts", nil))
	require.NoError(t, err)

	events := make(chan persistence.SourceEvent, 2)
	defer source.Subscribe(persistence.LinkAddSuccess, func(ctx context.Context, ev persistence.SourceEvent) error {
		events <- ev
		return nil
	})()

	require.NoError(t, source.AddIDToManyRelation(context.Background(), "post", "tag", "p1", "t1"))

	ev := waitForEvent(t, events)
	input, ok := ev.Input.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, persistence.JoinKey("post", "tag", "p1"), input["joinKey"])
	assert.Equal(t, "t1", input["targetId"])
}

func TestEventSource_ReadsPassThrough(t *testing.T) {
	inner := memory.NewSource("posts", nil)
	source, err := persistence.NewEventSource("post", inner)
	require.NoError(t, err)

	doc, err := source.Create(context.Background(), persistence.NewMutation(schema.Document{"title": "hello"}))
	require.NoError(t, err)

	got, err := source.FindOneByID(context.Background(), doc.ID())
	require.NoError(t, err)
	assert.Equal(t, "hello", got["title"])
}
