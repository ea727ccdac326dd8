package schemas

import (
	"github.com/datapress/datapress/pkg/api/types/misc/rfctime"
	"github.com/datapress/datapress/pkg/domain"
)

type Detail struct {
	Id                      string         `json:"id"`
	Name                    string         `json:"name"`
	Version                 int            `json:"version"`
	SchemaDefinition        map[string]any `json:"schemaDefinition"`
	SchemaDefinitionVersion int            `json:"schemaDefinitionVersion"`
	Description             string         `json:"description,omitempty"`
	IsPublished             bool           `json:"isPublished"`
	CreatedAt               rfctime.RFC3339 `json:"createdAt"`
	UpdatedAt               rfctime.RFC3339 `json:"updatedAt"`
}

func (d Detail) Equal(o Detail) bool {
	return d.Id == o.Id &&
		d.Name == o.Name &&
		d.Version == o.Version &&
		d.SchemaDefinitionVersion == o.SchemaDefinitionVersion &&
		d.Description == o.Description &&
		d.IsPublished == o.IsPublished &&
		d.CreatedAt.Equal(o.CreatedAt) &&
		d.UpdatedAt.Equal(o.UpdatedAt)
}

func ComposeDetail(s domain.CanonicalSchema) Detail {
	return Detail{
		Id:                      s.Id,
		Name:                    s.Name,
		Version:                 s.Version,
		SchemaDefinition:        s.SchemaDefinition,
		SchemaDefinitionVersion: s.SchemaDefinitionVersion,
		Description:             s.Description,
		IsPublished:             s.IsPublished,
		CreatedAt:               rfctime.New(s.CreatedAt),
		UpdatedAt:               rfctime.New(s.UpdatedAt),
	}
}

type Spec struct {
	Name             string         `json:"name"`
	Version          int            `json:"version,omitempty"`
	SchemaDefinition map[string]any `json:"schemaDefinition"`
	Description      string         `json:"description,omitempty"`
	IsPublished      bool           `json:"isPublished,omitempty"`
}

type Change struct {
	Description      *string        `json:"description,omitempty"`
	SchemaDefinition map[string]any `json:"schemaDefinition,omitempty"`
	IsPublished      *bool          `json:"isPublished,omitempty"`
}
