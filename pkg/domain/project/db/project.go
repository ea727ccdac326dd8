package db

import (
	"context"

	"github.com/datapress/datapress/pkg/domain"
)

type Interface interface {
	// Create registers a project owned by the organisation.
	//
	// When spec carries a processing config, its version counter starts
	// at 1. Otherwise both stay null until the first replacement.
	//
	// Returns
	//
	// - error: ErrMissing when the canonical schema does not exist,
	// ErrConflict when a live project of the organisation has the name.
	Create(ctx context.Context, organisationId string, spec domain.NewProject) (domain.Project, error)

	// Find lists live projects of the organisation, newest first.
	Find(ctx context.Context, organisationId string, query domain.ProjectFindQuery) ([]domain.Project, error)

	// Get retrieves a live project of the organisation.
	//
	// Returns
	//
	// - error: ErrMissing when the project does not exist, is soft-deleted
	// or belongs to another organisation. Callers cannot tell these apart.
	Get(ctx context.Context, organisationId string, projectId string) (domain.Project, error)

	// Update applies delta to a live project. When delta replaces the
	// processing config, the version counter is incremented in the same
	// statement, so concurrent replacements cannot lose an increment.
	//
	// Returns
	//
	// - error: ErrInvalidArgument when delta is empty,
	// ErrMissing when no live project matches,
	// ErrConflict when the new name is taken within the organisation.
	Update(ctx context.Context, organisationId string, projectId string, delta domain.ProjectUpdate) (domain.Project, error)

	// Delete soft-deletes the project and, at the same instant and in the
	// same transaction, all its live sources, processing jobs and datasets.
	//
	// Returns
	//
	// - error: ErrMissing when no live project matches (a second delete of
	// the same project is reported this way, not as a silent success).
	Delete(ctx context.Context, organisationId string, projectId string) error
}
