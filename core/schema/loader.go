package schema

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// yamlField mirrors FieldDefinition for YAML decoding.
type yamlField struct {
	Name              string    `yaml:"name"`
	Type              FieldType `yaml:"type"`
	Required          bool      `yaml:"required"`
	List              bool      `yaml:"list"`
	ListItemsRequired bool      `yaml:"listItemsRequired"`
	Unique            bool      `yaml:"unique"`
	ReadOnly          bool      `yaml:"readOnly"`
	Generated         bool      `yaml:"generated"`
	Values            []any     `yaml:"values"`
	Description       string    `yaml:"description"`
}

// yamlRelation mirrors RelationDefinition for YAML decoding. ModelA is implied
// by the enclosing model and filled in by the loader.
type yamlRelation struct {
	Kind       RelationKind `yaml:"kind"`
	Name       string       `yaml:"name"`
	Model      string       `yaml:"model"`
	FieldA     string       `yaml:"fieldA"`
	FieldB     string       `yaml:"fieldB"`
	ForeignKey string       `yaml:"foreignKey"`
	OnDelete   DeletePolicy `yaml:"onDelete"`
}

type yamlModel struct {
	Name        string         `yaml:"name"`
	Plural      string         `yaml:"plural"`
	Description string         `yaml:"description"`
	Fields      []yamlField    `yaml:"fields"`
	Relations   []yamlRelation `yaml:"relations"`
}

type yamlSchema struct {
	Models []yamlModel `yaml:"models"`
}

// ParseModels decodes a YAML schema document into model definitions. Each
// definition is validated before being returned; the first invalid model
// fails the whole load.
func ParseModels(data []byte) ([]*ModelDefinition, error) {
	var doc yamlSchema
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode schema document: %w", err)
	}
	if len(doc.Models) == 0 {
		return nil, fmt.Errorf("schema document declares no models")
	}

	models := make([]*ModelDefinition, 0, len(doc.Models))
	for _, ym := range doc.Models {
		m := &ModelDefinition{
			Name:        ym.Name,
			Plural:      ym.Plural,
			Description: ym.Description,
		}
		for _, yf := range ym.Fields {
			m.Fields = append(m.Fields, FieldDefinition{
				Name:              yf.Name,
				Type:              yf.Type,
				Required:          yf.Required,
				List:              yf.List,
				ListItemsRequired: yf.ListItemsRequired,
				Unique:            yf.Unique,
				ReadOnly:          yf.ReadOnly,
				Generated:         yf.Generated,
				Values:            yf.Values,
				Description:       yf.Description,
			})
		}
		for _, yr := range ym.Relations {
			fieldA := yr.FieldA
			if fieldA == "" {
				fieldA = yr.Name
			}
			m.Relations = append(m.Relations, RelationDefinition{
				Kind:       yr.Kind,
				Name:       yr.Name,
				ModelA:     ym.Name,
				ModelB:     yr.Model,
				FieldA:     fieldA,
				FieldB:     yr.FieldB,
				ForeignKey: yr.ForeignKey,
				OnDelete:   yr.OnDelete,
			})
		}
		if err := m.Validate(); err != nil {
			return nil, fmt.Errorf("invalid model definition: %w", err)
		}
		models = append(models, m)
	}
	return models, nil
}
