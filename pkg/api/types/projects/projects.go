package projects

import (
	"encoding/json"

	"github.com/datapress/datapress/pkg/api/types/misc/rfctime"
	"github.com/datapress/datapress/pkg/domain"
)

type Detail struct {
	Id                      string          `json:"id"`
	OrganisationId          string          `json:"organisationId"`
	CreatedByUserId         *string         `json:"createdByUserId"`
	CanonicalSchemaId       string          `json:"canonicalSchemaId"`
	Name                    string          `json:"name"`
	Description             *string         `json:"description,omitempty"`
	Status                  string          `json:"status"`
	ProcessingConfig        map[string]any  `json:"processingConfig,omitempty"`
	ProcessingConfigVersion *int            `json:"processingConfigVersion,omitempty"`
	CreatedAt               rfctime.RFC3339 `json:"createdAt"`
	UpdatedAt               rfctime.RFC3339 `json:"updatedAt"`
}

func (d Detail) Equal(o Detail) bool {
	descEq := (d.Description == nil && o.Description == nil) ||
		(d.Description != nil && o.Description != nil && *d.Description == *o.Description)
	verEq := (d.ProcessingConfigVersion == nil && o.ProcessingConfigVersion == nil) ||
		(d.ProcessingConfigVersion != nil && o.ProcessingConfigVersion != nil &&
			*d.ProcessingConfigVersion == *o.ProcessingConfigVersion)

	return d.Id == o.Id &&
		d.OrganisationId == o.OrganisationId &&
		d.CanonicalSchemaId == o.CanonicalSchemaId &&
		d.Name == o.Name &&
		descEq &&
		d.Status == o.Status &&
		verEq &&
		d.CreatedAt.Equal(o.CreatedAt) &&
		d.UpdatedAt.Equal(o.UpdatedAt)
}

func ComposeDetail(p domain.Project) Detail {
	return Detail{
		Id:                      p.Id,
		OrganisationId:          p.OrganisationId,
		CreatedByUserId:         p.CreatedByUserId,
		CanonicalSchemaId:       p.CanonicalSchemaId,
		Name:                    p.Name,
		Description:             p.Description,
		Status:                  p.Status.String(),
		ProcessingConfig:        p.ProcessingConfig,
		ProcessingConfigVersion: p.ProcessingConfigVersion,
		CreatedAt:               rfctime.New(p.CreatedAt),
		UpdatedAt:               rfctime.New(p.UpdatedAt),
	}
}

type Spec struct {
	CanonicalSchemaId string         `json:"canonicalSchemaId"`
	Name              string         `json:"name"`
	Description       *string        `json:"description,omitempty"`
	ProcessingConfig  map[string]any `json:"processingConfig,omitempty"`
}

type Change struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
	Status      *string `json:"status,omitempty"`

	// raw, to tell "leave the config alone" (absent) apart from
	// "replace it" (present, possibly null).
	ProcessingConfig json.RawMessage `json:"processingConfig,omitempty"`
}

// ReplacesConfig reports whether the change carries a config replacement.
func (c Change) ReplacesConfig() bool {
	return len(c.ProcessingConfig) != 0
}

// Config decodes the replacement. A JSON null replaces the config with
// nothing.
func (c Change) Config() (map[string]any, error) {
	if !c.ReplacesConfig() || string(c.ProcessingConfig) == "null" {
		return nil, nil
	}
	var out map[string]any
	if err := json.Unmarshal(c.ProcessingConfig, &out); err != nil {
		return nil, err
	}
	return out, nil
}
