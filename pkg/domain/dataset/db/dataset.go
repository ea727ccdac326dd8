package db

import (
	"context"

	"github.com/datapress/datapress/pkg/domain"
)

// Datasets are registered by the job store when a job completes;
// this interface only reads and retires them.
type Interface interface {
	// Find lists live datasets reachable through live projects of the
	// organisation, newest first.
	Find(ctx context.Context, organisationId string, query domain.DatasetFindQuery) ([]domain.Dataset, error)

	// Get retrieves a live dataset through its live project.
	//
	// Returns
	//
	// - error: ErrMissing when the dataset does not exist, is soft-deleted,
	// or its project is not visible to the organisation.
	Get(ctx context.Context, organisationId string, datasetId string) (domain.Dataset, error)

	// Delete soft-deletes a dataset. The file behind OutputStoragePath is
	// untouched.
	//
	// Returns
	//
	// - error: ErrMissing when no live dataset matches.
	Delete(ctx context.Context, organisationId string, datasetId string) error
}
