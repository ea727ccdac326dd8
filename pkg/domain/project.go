package domain

import (
	"fmt"
	"time"
)

type ProjectStatus string

const (
	Draft    ProjectStatus = "draft"
	Active   ProjectStatus = "active"
	Archived ProjectStatus = "archived"
)

func (ps ProjectStatus) String() string {
	return string(ps)
}

func AsProjectStatus(status string) (ProjectStatus, error) {
	switch status {
	case string(Draft):
		return Draft, nil
	case string(Active):
		return Active, nil
	case string(Archived):
		return Archived, nil
	default:
		return "", fmt.Errorf("'%s' is not ProjectStatus", status)
	}
}

type Project struct {
	Id             string
	OrganisationId string

	// nil when the creating user has been removed.
	CreatedByUserId *string

	CanonicalSchemaId string
	Name              string
	Description       *string
	Status            ProjectStatus

	// nil until a processing config is first set.
	ProcessingConfig Config

	// counts replacements of ProcessingConfig. 1 on first set, nil before.
	ProcessingConfigVersion *int

	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt *time.Time
}

type NewProject struct {
	CreatedByUserId   string
	CanonicalSchemaId string
	Name              string
	Description       *string
	ProcessingConfig  Config
}

type ProjectUpdate struct {
	Name        *string
	Description *string
	Status      *ProjectStatus

	// when ReplaceProcessingConfig is true, ProcessingConfig is written
	// (possibly to null) and ProcessingConfigVersion increments by one.
	ReplaceProcessingConfig bool
	ProcessingConfig        Config
}

func (u ProjectUpdate) IsEmpty() bool {
	return u.Name == nil && u.Description == nil && u.Status == nil &&
		!u.ReplaceProcessingConfig
}

type ProjectFindQuery struct {
	Status ProjectStatus // empty = all
	Page   int
	Limit  int
}
