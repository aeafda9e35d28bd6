package relation_test

import (
	"context"
	"testing"

	"github.com/asaidimu/go-loom/core/persistence"
	"github.com/asaidimu/go-loom/core/query"
	"github.com/asaidimu/go-loom/core/relation"
	"github.com/asaidimu/go-loom/core/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbedded_AddStoresIDsAsMapKeys(t *testing.T) {
	f := newFixture(t, "")
	ctx := context.Background()

	post := f.create(t, f.posts, schema.Document{"title": "hello"})
	rel := f.relation(t, "post", "labels").(*relation.Embedded)

	require.NoError(t, rel.Add(ctx, post.ID(), []string{"t1", "t2"}))

	stored, err := f.posts.FindOneByID(ctx, post.ID())
	require.NoError(t, err)
	labels, ok := stored["labels"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, map[string]any{"t1": true, "t2": true}, labels)
}

func TestEmbedded_AddLeavesSiblingKeysUntouched(t *testing.T) {
	f := newFixture(t, "")
	ctx := context.Background()

	post := f.create(t, f.posts, schema.Document{"title": "hello"})
	rel := f.relation(t, "post", "labels").(*relation.Embedded)

	require.NoError(t, rel.Add(ctx, post.ID(), []string{"t1"}))
	require.NoError(t, rel.Add(ctx, post.ID(), []string{"t2"}))

	stored, err := f.posts.FindOneByID(ctx, post.ID())
	require.NoError(t, err)
	labels := stored["labels"].(map[string]any)
	assert.Len(t, labels, 2)
}

func TestEmbedded_RemoveDeletesOnlyNamedKeys(t *testing.T) {
	f := newFixture(t, "")
	ctx := context.Background()

	post := f.create(t, f.posts, schema.Document{"title": "hello"})
	rel := f.relation(t, "post", "labels").(*relation.Embedded)

	require.NoError(t, rel.Add(ctx, post.ID(), []string{"t1", "t2", "t3"}))
	require.NoError(t, rel.Remove(ctx, post.ID(), []string{"t2"}))

	stored, err := f.posts.FindOneByID(ctx, post.ID())
	require.NoError(t, err)
	labels := stored["labels"].(map[string]any)
	assert.Equal(t, map[string]any{"t1": true, "t3": true}, labels)
}

func TestEmbedded_AddEmptyIDsIsNoOp(t *testing.T) {
	f := newFixture(t, "")
	ctx := context.Background()

	post := f.create(t, f.posts, schema.Document{"title": "hello"})
	rel := f.relation(t, "post", "labels").(*relation.Embedded)

	require.NoError(t, rel.Add(ctx, post.ID(), nil))
	stored, err := f.posts.FindOneByID(ctx, post.ID())
	require.NoError(t, err)
	assert.NotContains(t, stored, "labels")
}

func TestEmbedded_FindOneAndFindMany(t *testing.T) {
	f := newFixture(t, "")
	ctx := context.Background()

	first := f.create(t, f.posts, schema.Document{"title": "one"})
	second := f.create(t, f.posts, schema.Document{"title": "two"})
	f.create(t, f.posts, schema.Document{"title": "unlabelled"})

	rel := f.relation(t, "post", "labels").(*relation.Embedded)
	require.NoError(t, rel.Add(ctx, first.ID(), []string{"shared"}))
	require.NoError(t, rel.Add(ctx, second.ID(), []string{"shared"}))

	many, err := rel.FindMany(ctx, "shared")
	require.NoError(t, err)
	assert.Len(t, many, 2)

	one, err := rel.FindOne(ctx, "shared")
	require.NoError(t, err)
	assert.Contains(t, []string{first.ID(), second.ID()}, one.ID())

	_, err = rel.FindOne(ctx, "absent")
	assert.True(t, persistence.IsNotFound(err))
}

func TestEmbedded_JoinResolvesAndRepairs(t *testing.T) {
	f := newFixture(t, "")
	ctx := context.Background()

	post := f.create(t, f.posts, schema.Document{"title": "hello"})
	tag := f.create(t, f.tags, schema.Document{"name": "go"})
	doomed := f.create(t, f.tags, schema.Document{"name": "stale"})

	rel := f.relation(t, "post", "labels").(*relation.Embedded)
	require.NoError(t, rel.Add(ctx, post.ID(), []string{tag.ID(), doomed.ID()}))
	require.NoError(t, f.tags.Delete(ctx, query.ByID(doomed.ID())))

	stored, err := f.posts.FindOneByID(ctx, post.ID())
	require.NoError(t, err)

	resolved, err := rel.Join(ctx, stored)
	require.NoError(t, err)
	require.Len(t, resolved, 1)
	assert.Equal(t, tag.ID(), resolved[0].ID())
}

func TestEmbedded_JoinWithoutEmbeds(t *testing.T) {
	f := newFixture(t, "")
	ctx := context.Background()

	post := f.create(t, f.posts, schema.Document{"title": "bare"})
	rel := f.relation(t, "post", "labels").(*relation.Embedded)

	resolved, err := rel.Join(ctx, post)
	require.NoError(t, err)
	assert.Empty(t, resolved)
}
