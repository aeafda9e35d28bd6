package relation_test

import (
	"context"
	"testing"

	"github.com/asaidimu/go-loom/core/persistence"
	"github.com/asaidimu/go-loom/core/relation"
	"github.com/asaidimu/go-loom/core/schema"
	"github.com/asaidimu/go-loom/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fixture wires a small blog schema (users, posts, tags) over in-memory data
// sources, one per model.
type fixture struct {
	registry *persistence.Registry
	set      *relation.Set
	users    *memory.Source
	posts    *memory.Source
	tags     *memory.Source
}

func newFixture(t *testing.T, postsOnDelete schema.DeletePolicy) *fixture {
	t.Helper()

	user := &schema.ModelDefinition{
		Name:   "user",
		Plural: "users",
		Fields: []schema.FieldDefinition{
			{Name: "name", Type: schema.FieldTypeString, Required: true},
		},
		Relations: []schema.RelationDefinition{
			{
				Kind:       schema.RelationOneToMany,
				Name:       "posts",
				ModelA:     "user",
				ModelB:     "post",
				FieldA:     "posts",
				ForeignKey: "authorId",
				OnDelete:   postsOnDelete,
			},
		},
	}
	post := &schema.ModelDefinition{
		Name:   "post",
		Plural: "posts",
		Fields: []schema.FieldDefinition{
			{Name: "title", Type: schema.FieldTypeString, Required: true},
			{Name: "authorId", Type: schema.FieldTypeString},
			{Name: "labels", Type: schema.FieldTypeObject},
		},
		Relations: []schema.RelationDefinition{
			{
				Kind:       schema.RelationToOne,
				Name:       "author",
				ModelA:     "post",
				ModelB:     "user",
				FieldA:     "author",
				ForeignKey: "authorId",
			},
			{
				Kind:   schema.RelationManyToMany,
				Name:   "tags",
				ModelA: "post",
				ModelB: "tag",
				FieldA: "tags",
				FieldB: "posts",
			},
			{
				Kind:       schema.RelationEmbedded,
				Name:       "labels",
				ModelA:     "post",
				ModelB:     "tag",
				FieldA:     "labels",
				ForeignKey: "labels",
			},
		},
	}
	tag := &schema.ModelDefinition{
		Name:   "tag",
		Plural: "tags",
		Fields: []schema.FieldDefinition{
			{Name: "name", Type: schema.FieldTypeString, Required: true},
		},
	}

	f := &fixture{
		registry: persistence.NewRegistry(),
		users:    memory.NewSource("users", nil),
		posts:    memory.NewSource("posts", nil),
		tags:     memory.NewSource("tags", nil),
	}
	for _, pair := range []struct {
		def    *schema.ModelDefinition
		source persistence.DataSource
	}{
		{user, f.users}, {post, f.posts}, {tag, f.tags},
	} {
		m, err := persistence.NewModel(pair.def)
		require.NoError(t, err)
		require.NoError(t, m.BindSource(pair.source))
		require.NoError(t, f.registry.Register(m))
	}

	set, err := relation.NewSet(f.registry, nil)
	require.NoError(t, err)
	f.set = set
	return f
}

func (f *fixture) create(t *testing.T, source persistence.DataSource, doc schema.Document) schema.Document {
	t.Helper()
	created, err := source.Create(context.Background(), persistence.NewMutation(doc))
	require.NoError(t, err)
	return created
}

func (f *fixture) relation(t *testing.T, model, name string) relation.Relation {
	t.Helper()
	r, err := f.set.Relation(model, name)
	require.NoError(t, err)
	return r
}

func TestSet_BuildsEveryDeclaredRelation(t *testing.T) {
	f := newFixture(t, "")

	author := f.relation(t, "post", "author")
	assert.Equal(t, schema.RelationToOne, author.Kind())
	assert.IsType(t, &relation.ToOne{}, author)

	posts := f.relation(t, "user", "posts")
	assert.Equal(t, schema.RelationOneToMany, posts.Kind())
	assert.IsType(t, &relation.OneToMany{}, posts)

	tags := f.relation(t, "post", "tags")
	assert.Equal(t, schema.RelationManyToMany, tags.Kind())
	assert.IsType(t, &relation.ManyToMany{}, tags)

	labels := f.relation(t, "post", "labels")
	assert.Equal(t, schema.RelationEmbedded, labels.Kind())
	assert.IsType(t, &relation.Embedded{}, labels)
}

func TestSet_UnknownRelation(t *testing.T) {
	f := newFixture(t, "")
	_, err := f.set.Relation("post", "reviewers")
	assert.Error(t, err)
}

func TestNew_UnknownKind(t *testing.T) {
	_, err := relation.New(persistence.NewRegistry(), schema.RelationDefinition{Kind: "starShaped"}, nil)
	assert.Error(t, err)
}
