package persistence

import (
	"testing"

	"github.com/asaidimu/go-loom/core/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyPayload_TopLevel(t *testing.T) {
	doc := schema.Document{"id": "1", "title": "old", "stale": true}
	ApplyPayload(doc, schema.Document{
		"title": "new",
		"stale": DeleteField,
	})

	assert.Equal(t, "new", doc["title"])
	assert.NotContains(t, doc, "stale")
	assert.Equal(t, "1", doc.ID())
}

func TestApplyPayload_DottedKeysLeaveSiblingsUntouched(t *testing.T) {
	doc := schema.Document{
		"id":   "1",
		"tags": map[string]any{"go": true, "db": true},
	}
	ApplyPayload(doc, schema.Document{"tags.infra": true})

	tags := doc["tags"].(map[string]any)
	assert.Equal(t, map[string]any{"go": true, "db": true, "infra": true}, tags)
}

func TestApplyPayload_DottedDelete(t *testing.T) {
	doc := schema.Document{
		"tags": map[string]any{"go": true, "db": true},
	}
	ApplyPayload(doc, schema.Document{"tags.db": DeleteField})

	tags := doc["tags"].(map[string]any)
	assert.Equal(t, map[string]any{"go": true}, tags)
}

func TestApplyPayload_CreatesIntermediateMaps(t *testing.T) {
	doc := schema.Document{"id": "1"}
	ApplyPayload(doc, schema.Document{"meta.author.name": "ada"})

	meta, ok := doc["meta"].(map[string]any)
	require.True(t, ok)
	author, ok := meta["author"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "ada", author["name"])
}

func TestApplyPayload_DeleteAlongMissingPathIsNoOp(t *testing.T) {
	doc := schema.Document{"id": "1"}
	ApplyPayload(doc, schema.Document{"tags.gone": DeleteField})

	// The delete must not conjure the intermediate map into existence.
	assert.NotContains(t, doc, "tags")
}

func TestBuildAddEmbedIDs_Shape(t *testing.T) {
	patch := BuildAddEmbedIDs("tags", []string{"x", "y"})
	assert.Equal(t, schema.Document{"tags.x": true, "tags.y": true}, patch)
}

func TestBuildRemoveEmbedIDs_Shape(t *testing.T) {
	patch := BuildRemoveEmbedIDs("tags", []string{"x"})
	require.Contains(t, patch, "tags.x")
	assert.True(t, IsDeleteMarker(patch["tags.x"]))
	assert.Len(t, patch, 1)
}

func TestHasEmbedID(t *testing.T) {
	doc := schema.Document{"tags": map[string]any{"x": true}}
	assert.True(t, HasEmbedID(doc, "tags", "x"))
	assert.False(t, HasEmbedID(doc, "tags", "y"))
	assert.False(t, HasEmbedID(doc, "labels", "x"))
	assert.False(t, HasEmbedID(schema.Document{"tags": "scalar"}, "tags", "x"))
}
