package db

import (
	"context"

	"github.com/datapress/datapress/pkg/domain"
)

type Interface interface {
	// Create attaches a source to a live project of the organisation.
	//
	// For an api source the connection-config version counter starts at 1.
	//
	// Returns
	//
	// - error: ErrMissing when no live project of the organisation matches
	// spec.ProjectId.
	Create(ctx context.Context, organisationId string, spec domain.NewSource) (domain.Source, error)

	// Find lists live sources reachable through live projects of the
	// organisation, newest first.
	Find(ctx context.Context, organisationId string, query domain.SourceFindQuery) ([]domain.Source, error)

	// Get retrieves a live source through its live project.
	//
	// Returns
	//
	// - error: ErrMissing when the source does not exist, is soft-deleted,
	// or its project is soft-deleted or owned by another organisation.
	Get(ctx context.Context, organisationId string, sourceId string) (domain.Source, error)

	// Update applies delta. When delta replaces the api connection config,
	// the version counter is incremented in the same statement.
	//
	// Returns
	//
	// - error: ErrInvalidArgument when delta is empty,
	// ErrMissing when no live source matches.
	Update(ctx context.Context, organisationId string, sourceId string, delta domain.SourceUpdate) (domain.Source, error)

	// Delete soft-deletes a source.
	//
	// Returns
	//
	// - error: ErrMissing when no live source matches.
	Delete(ctx context.Context, organisationId string, sourceId string) error
}
