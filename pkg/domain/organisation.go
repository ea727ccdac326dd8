package domain

import "time"

type Organisation struct {
	Id        string
	Name      string
	Slug      string
	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt *time.Time
}

// NewOrganisation is the tenant half of a signup request.
// The admin half is a Registration for the first user.
type NewOrganisation struct {
	Name string
	Slug string
}

type OrganisationUpdate struct {
	Name *string
	Slug *string
}

func (u OrganisationUpdate) IsEmpty() bool {
	return u.Name == nil && u.Slug == nil
}
