// Package schema defines the declarative model vocabulary for the data access
// layer: scalar field descriptors, relation descriptors, and the model
// definitions that group them. Definitions are plain values constructed once at
// schema-build time and treated as immutable afterwards.
package schema

import "fmt"

// FieldType represents the scalar field types supported by the schema system.
type FieldType string

const (
	FieldTypeString  FieldType = "string"  // Text data
	FieldTypeNumber  FieldType = "number"  // Floating point numeric data
	FieldTypeInteger FieldType = "integer" // Whole number numeric data
	FieldTypeBoolean FieldType = "boolean" // True/false values
	FieldTypeEnum    FieldType = "enum"    // One out of a set of pre-defined values
	FieldTypeObject  FieldType = "object"  // Nested key-value data, resolves to map[string]any
)

// FieldDefinition describes a single scalar attribute of a model.
type FieldDefinition struct {
	Name string    `json:"name"`
	Type FieldType `json:"type"`
	// Required indicates the field must be present and non-null.
	Required bool `json:"required,omitempty"`
	// List marks the field as holding an ordered list of items.
	List bool `json:"list,omitempty"`
	// ListItemsRequired indicates items of a list field may not be null.
	ListItemsRequired bool `json:"listItemsRequired,omitempty"`
	// Unique indicates the field must have unique values across records.
	Unique bool `json:"unique,omitempty"`
	// ReadOnly fields are served on reads but stripped from mutations.
	ReadOnly bool `json:"readOnly,omitempty"`
	// Generated fields are assigned by the storage layer, never by callers.
	Generated bool `json:"generated,omitempty"`
	// Values specifies the allowed values for an 'enum' type field.
	Values []any `json:"values,omitempty"`
	// Description provides a brief explanation of the field.
	Description string `json:"description,omitempty"`
}

// RelationKind identifies where relationship state is physically stored and
// how many records on each side can reference the link.
type RelationKind string

const (
	// RelationToOne stores a foreign id as a scalar field on one designated side.
	RelationToOne RelationKind = "toOne"
	// RelationOneToMany stores a foreign id on each record of the "many" side.
	RelationOneToMany RelationKind = "oneToMany"
	// RelationManyToMany stores a dedicated join record per side, each holding
	// an array of the other side's ids.
	RelationManyToMany RelationKind = "manyToMany"
	// RelationEmbedded stores foreign ids as keys of a map field on the owning record.
	RelationEmbedded RelationKind = "embedded"
)

// DeletePolicy controls what happens to dependent records when the "one" side
// of a one-to-many relation is deleted.
type DeletePolicy string

const (
	// DeleteSetNull clears the foreign key on dependents, orphaning them.
	DeleteSetNull DeletePolicy = "setNull"
	// DeleteCascade deletes dependent records along with the owner.
	DeleteCascade DeletePolicy = "cascade"
)

// RelationDefinition describes a relation between two models. Models are
// referenced by name and resolved through a registry after all models have
// been registered, so definitions never hold model pointers.
type RelationDefinition struct {
	Kind RelationKind `json:"kind"`
	// Name is the field name the relation is exposed under on model A.
	Name string `json:"name"`
	// ModelA is the model that owns the relation field.
	ModelA string `json:"modelA"`
	// ModelB is the related model.
	ModelB string `json:"modelB"`
	// FieldA is the relation's field name on model A's side.
	FieldA string `json:"fieldA"`
	// FieldB is the relation's field name on model B's side, empty for
	// one-directional relations.
	FieldB string `json:"fieldB,omitempty"`
	// ForeignKey names the scalar field holding the foreign id. For toOne it
	// lives on model A, for oneToMany on each model B ("many" side) record,
	// and for embedded it names the map field on the owning record.
	ForeignKey string `json:"foreignKey,omitempty"`
	// OnDelete applies to oneToMany relations; zero value means setNull.
	OnDelete DeletePolicy `json:"onDelete,omitempty"`
}

// ModelDefinition defines a complete model: identity, naming pair, ordered
// scalar fields and relation descriptors.
type ModelDefinition struct {
	// Name is the unique, singular model name.
	Name string `json:"name"`
	// Plural is the collection name used by storage backends.
	Plural      string `json:"plural"`
	Description string `json:"description,omitempty"`
	// Fields is the ordered collection of scalar attributes. An `id` field is
	// implied and need not be declared.
	Fields []FieldDefinition `json:"fields"`
	// Relations declared on this model (this model is always side A).
	Relations []RelationDefinition `json:"relations,omitempty"`
}

// Field returns the definition of the named scalar field, or nil.
func (m *ModelDefinition) Field(name string) *FieldDefinition {
	for i := range m.Fields {
		if m.Fields[i].Name == name {
			return &m.Fields[i]
		}
	}
	return nil
}

// Validate performs structural checks on a model definition.
func (m *ModelDefinition) Validate() error {
	if m.Name == "" {
		return fmt.Errorf("model definition is missing a name")
	}
	if m.Plural == "" {
		return fmt.Errorf("model %q is missing a plural name", m.Name)
	}
	seen := make(map[string]struct{}, len(m.Fields))
	for _, f := range m.Fields {
		if f.Name == "" {
			return fmt.Errorf("model %q has a field without a name", m.Name)
		}
		if _, dup := seen[f.Name]; dup {
			return fmt.Errorf("model %q declares field %q twice", m.Name, f.Name)
		}
		seen[f.Name] = struct{}{}
	}
	for _, r := range m.Relations {
		if r.ModelA != m.Name {
			return fmt.Errorf("relation %q on model %q names %q as side A", r.Name, m.Name, r.ModelA)
		}
		switch r.Kind {
		case RelationToOne, RelationOneToMany, RelationManyToMany, RelationEmbedded:
		default:
			return fmt.Errorf("relation %q on model %q has unknown kind %q", r.Name, m.Name, r.Kind)
		}
		if (r.Kind == RelationToOne || r.Kind == RelationOneToMany || r.Kind == RelationEmbedded) && r.ForeignKey == "" {
			return fmt.Errorf("relation %q on model %q requires a foreign key field", r.Name, m.Name)
		}
	}
	return nil
}

// Document is an opaque field-name to value mapping representing one persisted
// record. Every stored document carries its identity under the "id" key.
type Document map[string]any

// ID returns the document's identity field as a string, or "" when absent.
func (d Document) ID() string {
	if id, ok := d["id"].(string); ok {
		return id
	}
	return ""
}

// Clone returns a shallow copy of the document.
func (d Document) Clone() Document {
	out := make(Document, len(d))
	for k, v := range d {
		out[k] = v
	}
	return out
}
