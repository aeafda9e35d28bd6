package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDocument_ID(t *testing.T) {
	assert.Equal(t, "p1", Document{"id": "p1"}.ID())
	assert.Equal(t, "", Document{}.ID())
	assert.Equal(t, "", Document{"id": 42}.ID(), "non-string identity reads as absent")
}

func TestDocument_Clone(t *testing.T) {
	doc := Document{"id": "p1", "title": "hello"}
	clone := doc.Clone()
	clone["title"] = "changed"

	assert.Equal(t, "hello", doc["title"])
}

func TestModelDefinition_ValidateDuplicateFields(t *testing.T) {
	def := &ModelDefinition{
		Name:   "post",
		Plural: "posts",
		Fields: []FieldDefinition{
			{Name: "title", Type: FieldTypeString},
			{Name: "title", Type: FieldTypeString},
		},
	}
	assert.Error(t, def.Validate())
}

func TestModelDefinition_ValidateForeignRelationOwner(t *testing.T) {
	def := &ModelDefinition{
		Name:   "post",
		Plural: "posts",
		Relations: []RelationDefinition{
			{Kind: RelationToOne, Name: "author", ModelA: "comment", ModelB: "user", ForeignKey: "authorId"},
		},
	}
	assert.Error(t, def.Validate(), "relations must name the declaring model as side A")
}
