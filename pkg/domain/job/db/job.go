package db

import (
	"context"

	"github.com/datapress/datapress/pkg/domain"
)

type Interface interface {
	// Create registers a queued processing job for a live project of the
	// organisation, freezing the project's current processing config,
	// schema reference and the given sources into the job's snapshot.
	// The project row is locked while the snapshot is taken, so a
	// concurrent config replacement cannot tear it.
	//
	// Returns
	//
	// - error: ErrMissing when the project, or any source in spec, is not
	// visible to the organisation.
	Create(ctx context.Context, organisationId string, projectId string, triggeredByUserId string, spec domain.JobSpec) (domain.ProcessingJob, error)

	// Find lists live jobs reachable through live projects of the
	// organisation, newest first.
	Find(ctx context.Context, organisationId string, query domain.JobFindQuery) ([]domain.ProcessingJob, error)

	// Get retrieves a live job through its live project.
	//
	// Returns
	//
	// - error: ErrMissing when the job does not exist, is soft-deleted,
	// or its project is not visible to the organisation.
	Get(ctx context.Context, organisationId string, jobId string) (domain.ProcessingJob, error)

	// Retry registers a NEW queued job copying the failed job's snapshot
	// and snapshot version verbatim. The failed job is left untouched.
	//
	// Returns
	//
	// - domain.ProcessingJob: the new job.
	//
	// - error: ErrMissing when no live job matches,
	// ErrInvalidJobStateChanging when the job is not failed.
	Retry(ctx context.Context, organisationId string, jobId string, triggeredByUserId string) (domain.ProcessingJob, error)

	// SetStatus moves a job along queued -> processing. Picking a job up
	// stamps started_at.
	//
	// This is the worker's entry point and is not organisation-scoped.
	//
	// Returns
	//
	// - error: ErrMissing when no live job has the id,
	// ErrInvalidJobStateChanging when the transition is not allowed.
	SetStatus(ctx context.Context, jobId string, newStatus domain.JobStatus) error

	// Complete moves a processing job to completed and registers its
	// dataset, in one transaction.
	//
	// Returns
	//
	// - domain.Dataset: the registered dataset.
	//
	// - error: ErrMissing when no live job has the id,
	// ErrInvalidJobStateChanging when the job is not processing.
	Complete(ctx context.Context, jobId string, result domain.JobResult) (domain.Dataset, error)

	// Fail moves a processing job to failed, recording the message.
	//
	// Returns
	//
	// - error: ErrMissing when no live job has the id,
	// ErrInvalidJobStateChanging when the job is not processing.
	Fail(ctx context.Context, jobId string, message string) error
}
