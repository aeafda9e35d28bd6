package relation_test

import (
	"context"
	"testing"

	"github.com/asaidimu/go-loom/core/persistence"
	"github.com/asaidimu/go-loom/core/relation"
	"github.com/asaidimu/go-loom/core/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToOne_JoinResolvesForeignKey(t *testing.T) {
	f := newFixture(t, "")
	ctx := context.Background()

	author := f.create(t, f.users, schema.Document{"name": "ada"})
	post := f.create(t, f.posts, schema.Document{"title": "hello", "authorId": author.ID()})

	rel := f.relation(t, "post", "author").(*relation.ToOne)

	joined, err := rel.Join(ctx, post)
	require.NoError(t, err)
	assert.Equal(t, author.ID(), joined.ID())
	assert.Equal(t, "ada", joined["name"])
}

func TestToOne_JoinMissingForeignKey(t *testing.T) {
	f := newFixture(t, "")
	ctx := context.Background()

	post := f.create(t, f.posts, schema.Document{"title": "orphan"})
	rel := f.relation(t, "post", "author").(*relation.ToOne)

	_, err := rel.Join(ctx, post)
	assert.True(t, persistence.IsNotFound(err))
}

func TestToOne_JoinDanglingForeignKey(t *testing.T) {
	f := newFixture(t, "")
	ctx := context.Background()

	post := f.create(t, f.posts, schema.Document{"title": "hello", "authorId": "gone"})
	rel := f.relation(t, "post", "author").(*relation.ToOne)

	_, err := rel.Join(ctx, post)
	assert.True(t, persistence.IsNotFound(err))
}

func TestToOne_JoinReverse(t *testing.T) {
	f := newFixture(t, "")
	ctx := context.Background()

	author := f.create(t, f.users, schema.Document{"name": "ada"})
	post := f.create(t, f.posts, schema.Document{"title": "hello", "authorId": author.ID()})

	rel := f.relation(t, "post", "author").(*relation.ToOne)

	owner, err := rel.JoinReverse(ctx, author)
	require.NoError(t, err)
	assert.Equal(t, post.ID(), owner.ID())
}

func TestToOne_ConnectAndDisconnect(t *testing.T) {
	f := newFixture(t, "")
	ctx := context.Background()

	author := f.create(t, f.users, schema.Document{"name": "ada"})
	post := f.create(t, f.posts, schema.Document{"title": "hello"})

	rel := f.relation(t, "post", "author").(*relation.ToOne)

	require.NoError(t, rel.Connect(ctx, post.ID(), author.ID()))
	stored, err := f.posts.FindOneByID(ctx, post.ID())
	require.NoError(t, err)
	assert.Equal(t, author.ID(), stored["authorId"])

	require.NoError(t, rel.Disconnect(ctx, post.ID()))
	stored, err = f.posts.FindOneByID(ctx, post.ID())
	require.NoError(t, err)
	assert.NotContains(t, stored, "authorId")

	// The target record is untouched by a disconnect.
	_, err = f.users.FindOneByID(ctx, author.ID())
	assert.NoError(t, err)
}

func TestToOne_ConnectMissingOwner(t *testing.T) {
	f := newFixture(t, "")
	rel := f.relation(t, "post", "author").(*relation.ToOne)

	err := rel.Connect(context.Background(), "missing", "whatever")
	assert.True(t, persistence.IsNotFound(err))
}
