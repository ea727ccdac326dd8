package orgs

import (
	"github.com/datapress/datapress/pkg/api/types/misc/rfctime"
	"github.com/datapress/datapress/pkg/domain"
)

type Detail struct {
	Id        string          `json:"id"`
	Name      string          `json:"name"`
	Slug      string          `json:"slug"`
	CreatedAt rfctime.RFC3339 `json:"createdAt"`
	UpdatedAt rfctime.RFC3339 `json:"updatedAt"`
}

func (d Detail) Equal(o Detail) bool {
	return d.Id == o.Id && d.Name == o.Name && d.Slug == o.Slug &&
		d.CreatedAt.Equal(o.CreatedAt) && d.UpdatedAt.Equal(o.UpdatedAt)
}

func ComposeDetail(org domain.Organisation) Detail {
	return Detail{
		Id:        org.Id,
		Name:      org.Name,
		Slug:      org.Slug,
		CreatedAt: rfctime.New(org.CreatedAt),
		UpdatedAt: rfctime.New(org.UpdatedAt),
	}
}

type Change struct {
	Name *string `json:"name,omitempty"`
	Slug *string `json:"slug,omitempty"`
}
