package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const blogSchema = `
models:
  - name: user
    plural: users
    fields:
      - name: name
        type: string
        required: true
      - name: role
        type: enum
        values: [admin, editor]
    relations:
      - kind: oneToMany
        name: posts
        model: post
        foreignKey: authorId
        onDelete: cascade
  - name: post
    plural: posts
    fields:
      - name: title
        type: string
        required: true
      - name: tags
        type: string
        list: true
      - name: createdAt
        type: string
        generated: true
    relations:
      - kind: toOne
        name: author
        model: user
        foreignKey: authorId
`

func TestParseModels_Blog(t *testing.T) {
	models, err := ParseModels([]byte(blogSchema))
	require.NoError(t, err)
	require.Len(t, models, 2)

	user := models[0]
	assert.Equal(t, "user", user.Name)
	assert.Equal(t, "users", user.Plural)
	require.Len(t, user.Fields, 2)
	assert.True(t, user.Fields[0].Required)
	assert.Equal(t, FieldTypeEnum, user.Fields[1].Type)
	assert.Equal(t, []any{"admin", "editor"}, user.Fields[1].Values)

	require.Len(t, user.Relations, 1)
	rel := user.Relations[0]
	assert.Equal(t, RelationOneToMany, rel.Kind)
	assert.Equal(t, "user", rel.ModelA, "side A is implied by the enclosing model")
	assert.Equal(t, "post", rel.ModelB)
	assert.Equal(t, "posts", rel.FieldA, "fieldA defaults to the relation name")
	assert.Equal(t, DeleteCascade, rel.OnDelete)

	post := models[1]
	tags := post.Field("tags")
	require.NotNil(t, tags)
	assert.True(t, tags.List)
	created := post.Field("createdAt")
	require.NotNil(t, created)
	assert.True(t, created.Generated)
}

func TestParseModels_RejectsEmptyDocument(t *testing.T) {
	_, err := ParseModels([]byte("models: []"))
	assert.Error(t, err)
}

func TestParseModels_RejectsMalformedYAML(t *testing.T) {
	_, err := ParseModels([]byte("models: [unterminated"))
	assert.Error(t, err)
}

func TestParseModels_RejectsInvalidModel(t *testing.T) {
	doc := `
models:
  - name: user
`
	_, err := ParseModels([]byte(doc))
	assert.Error(t, err, "a model without a plural name fails validation")
}

func TestParseModels_RejectsRelationWithoutForeignKey(t *testing.T) {
	doc := `
models:
  - name: post
    plural: posts
    relations:
      - kind: toOne
        name: author
        model: user
`
	_, err := ParseModels([]byte(doc))
	assert.Error(t, err)
}
