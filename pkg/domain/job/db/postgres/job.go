package job

import (
	"context"
	"encoding/json"
	"errors"

	dpool "github.com/datapress/datapress/pkg/conn/db/postgres/pool"
	"github.com/datapress/datapress/pkg/domain"
	dberr "github.com/datapress/datapress/pkg/domain/errors/dberrors/postgres"
	"github.com/datapress/datapress/pkg/domain/internal/db/paging"
	kdb "github.com/datapress/datapress/pkg/domain/job/db"
	"github.com/jackc/pgx/v4"
)

type pgJob struct {
	pool dpool.Pool
}

func New(pool dpool.Pool) kdb.Interface {
	return &pgJob{pool: pool}
}

// triggered_by_user_id reads as null once the triggering user is soft-deleted.
const jobColumns = `
	"j"."id", "j"."project_id", "j"."triggered_by",
	(
		select "u"."id" from "users" "u"
		where "u"."id" = "j"."triggered_by_user_id" and "u"."deleted_at" is null
	),
	"j"."status", "j"."config_snapshot", "j"."config_snapshot_version",
	"j"."input_record_count", "j"."output_record_count", "j"."error_message",
	"j"."started_at", "j"."completed_at", "j"."created_at", "j"."updated_at"
`

func scanJob(r pgx.Row) (domain.ProcessingJob, error) {
	var (
		j    domain.ProcessingJob
		snap []byte
	)
	if err := r.Scan(
		&j.Id, &j.ProjectId, &j.TriggeredBy, &j.TriggeredByUserId,
		&j.Status, &snap, &j.ConfigSnapshotVersion,
		&j.InputRecordCount, &j.OutputRecordCount, &j.ErrorMessage,
		&j.StartedAt, &j.CompletedAt, &j.CreatedAt, &j.UpdatedAt,
	); err != nil {
		return domain.ProcessingJob{}, err
	}
	if err := json.Unmarshal(snap, &j.ConfigSnapshot); err != nil {
		return domain.ProcessingJob{}, err
	}
	return j, nil
}

func (s *pgJob) Create(
	ctx context.Context,
	organisationId string, projectId string, triggeredByUserId string,
	spec domain.JobSpec,
) (domain.ProcessingJob, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return domain.ProcessingJob{}, err
	}
	defer tx.Rollback(ctx)

	// lock the project row: a concurrent config replacement waits until
	// the snapshot below is frozen and written.
	var project domain.Project
	var conf []byte
	if err := tx.QueryRow(
		ctx,
		`
		select "id", "canonical_schema_id", "processing_config", "processing_config_version"
		from "projects"
		where "id" = $1 and "organisation_id" = $2 and "deleted_at" is null
		for update
		`,
		projectId, organisationId,
	).Scan(
		&project.Id, &project.CanonicalSchemaId, &conf, &project.ProcessingConfigVersion,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ProcessingJob{}, dberr.Missing{Table: "projects", Identity: projectId}
		}
		return domain.ProcessingJob{}, err
	}
	if conf != nil {
		if err := json.Unmarshal(conf, &project.ProcessingConfig); err != nil {
			return domain.ProcessingJob{}, err
		}
	}

	if len(spec.SourceIds) != 0 {
		var visible int
		if err := tx.QueryRow(
			ctx,
			`
			select count(distinct "id") from "sources"
			where "id" = any($1::uuid[]) and "project_id" = $2 and "deleted_at" is null
			`,
			spec.SourceIds, projectId,
		).Scan(&visible); err != nil {
			return domain.ProcessingJob{}, err
		}
		if visible != len(uniq(spec.SourceIds)) {
			return domain.ProcessingJob{}, dberr.Missing{Table: "sources", Identity: "in job spec"}
		}
	}

	snapshot, err := domain.NewConfigSnapshot(project, spec.SourceIds)
	if err != nil {
		return domain.ProcessingJob{}, err
	}
	snap, err := json.Marshal(snapshot)
	if err != nil {
		return domain.ProcessingJob{}, err
	}

	triggeredBy := spec.TriggeredBy
	if triggeredBy == "" {
		triggeredBy = domain.TriggeredManually
	}

	// a fresh snapshot is always version 1, however many times the
	// project config has been replaced. Retry copies the value verbatim.
	j, err := scanJob(tx.QueryRow(
		ctx,
		`
		insert into "processing_jobs" as "j"
			("project_id", "triggered_by", "triggered_by_user_id",
			 "config_snapshot", "config_snapshot_version")
		values ($1, $2::job_trigger, $3, $4, 1)
		returning `+jobColumns+`
		`,
		projectId, triggeredBy.String(), nilIfEmpty(triggeredByUserId), snap,
	))
	if err != nil {
		return domain.ProcessingJob{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return domain.ProcessingJob{}, err
	}
	return j, nil
}

func nilIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func (s *pgJob) Find(
	ctx context.Context, organisationId string, query domain.JobFindQuery,
) ([]domain.ProcessingJob, error) {
	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Release()

	var projectId *string
	if query.ProjectId != "" {
		projectId = &query.ProjectId
	}
	var status *string
	if query.Status != "" {
		st := query.Status.String()
		status = &st
	}

	rows, err := conn.Query(
		ctx,
		`
		select `+jobColumns+`
		from "processing_jobs" "j"
		inner join "projects" "p"
			on "p"."id" = "j"."project_id"
			and "p"."organisation_id" = $1 and "p"."deleted_at" is null
		where "j"."deleted_at" is null
		  and ($2::uuid is null or "j"."project_id" = $2)
		  and ($3::job_status is null or "j"."status" = $3)
		order by "j"."created_at" desc, "j"."id" desc
		limit $4 offset $5
		`,
		organisationId, projectId, status,
		paging.Limit(query.Limit), paging.Offset(query.Page, query.Limit),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	jobs := []domain.ProcessingJob{}
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, j)
	}
	return jobs, rows.Err()
}

func (s *pgJob) Get(ctx context.Context, organisationId string, jobId string) (domain.ProcessingJob, error) {
	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return domain.ProcessingJob{}, err
	}
	defer conn.Release()

	j, err := scanJob(conn.QueryRow(
		ctx,
		`
		select `+jobColumns+`
		from "processing_jobs" "j"
		inner join "projects" "p"
			on "p"."id" = "j"."project_id"
			and "p"."organisation_id" = $2 and "p"."deleted_at" is null
		where "j"."id" = $1 and "j"."deleted_at" is null
		`,
		jobId, organisationId,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ProcessingJob{}, dberr.Missing{Table: "processing_jobs", Identity: jobId}
	}
	return j, err
}

func (s *pgJob) Retry(
	ctx context.Context, organisationId string, jobId string, triggeredByUserId string,
) (domain.ProcessingJob, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return domain.ProcessingJob{}, err
	}
	defer tx.Rollback(ctx)

	var status domain.JobStatus
	if err := tx.QueryRow(
		ctx,
		`
		select "j"."status"
		from "processing_jobs" "j"
		inner join "projects" "p"
			on "p"."id" = "j"."project_id"
			and "p"."organisation_id" = $2 and "p"."deleted_at" is null
		where "j"."id" = $1 and "j"."deleted_at" is null
		for update of "j"
		`,
		jobId, organisationId,
	).Scan(&status); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ProcessingJob{}, dberr.Missing{Table: "processing_jobs", Identity: jobId}
		}
		return domain.ProcessingJob{}, err
	}
	if status != domain.Failed {
		return domain.ProcessingJob{}, domain.NewErrInvalidJobStateChanging(status, domain.Queued)
	}

	// the snapshot and its version are carried over byte for byte: the
	// retry reruns exactly what the failed job would have run, whatever
	// has happened to the project since.
	j, err := scanJob(tx.QueryRow(
		ctx,
		`
		insert into "processing_jobs" as "j"
			("project_id", "triggered_by", "triggered_by_user_id",
			 "config_snapshot", "config_snapshot_version")
		select "project_id", 'manual', $2, "config_snapshot", "config_snapshot_version"
		from "processing_jobs"
		where "id" = $1
		returning `+jobColumns+`
		`,
		jobId, nilIfEmpty(triggeredByUserId),
	))
	if err != nil {
		return domain.ProcessingJob{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return domain.ProcessingJob{}, err
	}
	return j, nil
}

func (s *pgJob) SetStatus(ctx context.Context, jobId string, newStatus domain.JobStatus) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	current, err := lockJob(ctx, tx, jobId)
	if err != nil {
		return err
	}
	if !current.CanTransitTo(newStatus) {
		return domain.NewErrInvalidJobStateChanging(current, newStatus)
	}

	if _, err := tx.Exec(
		ctx,
		`
		update "processing_jobs"
		set "status" = $2::job_status,
		    "started_at" = case when $2 = 'processing' then now() else "started_at" end,
		    "updated_at" = now()
		where "id" = $1
		`,
		jobId, newStatus.String(),
	); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (s *pgJob) Complete(ctx context.Context, jobId string, result domain.JobResult) (domain.Dataset, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return domain.Dataset{}, err
	}
	defer tx.Rollback(ctx)

	current, err := lockJob(ctx, tx, jobId)
	if err != nil {
		return domain.Dataset{}, err
	}
	if !current.CanTransitTo(domain.Completed) {
		return domain.Dataset{}, domain.NewErrInvalidJobStateChanging(current, domain.Completed)
	}

	if _, err := tx.Exec(
		ctx,
		`
		update "processing_jobs"
		set "status" = 'completed',
		    "input_record_count" = $2, "output_record_count" = $3,
		    "completed_at" = now(), "updated_at" = now()
		where "id" = $1
		`,
		jobId, result.InputRecordCount, result.OutputRecordCount,
	); err != nil {
		return domain.Dataset{}, err
	}

	var lineage []byte
	if result.Dataset.LineageData != nil {
		if lineage, err = json.Marshal(result.Dataset.LineageData); err != nil {
			return domain.Dataset{}, err
		}
	}

	var (
		d   domain.Dataset
		raw []byte
	)
	if err := tx.QueryRow(
		ctx,
		`
		insert into "datasets"
			("project_id", "processing_job_id", "name", "output_format",
			 "output_storage_path", "record_count", "file_size_bytes", "lineage_data")
		select "project_id", "id", $2, $3::output_format, $4, $5, $6, $7
		from "processing_jobs" where "id" = $1
		returning "id", "project_id", "processing_job_id", "name", "output_format",
		          "output_storage_path", "record_count", "file_size_bytes",
		          "lineage_data", "created_at", "updated_at"
		`,
		jobId, result.Dataset.Name, result.Dataset.OutputFormat.String(),
		result.Dataset.OutputStoragePath, result.Dataset.RecordCount,
		result.Dataset.FileSizeBytes, lineage,
	).Scan(
		&d.Id, &d.ProjectId, &d.ProcessingJobId, &d.Name, &d.OutputFormat,
		&d.OutputStoragePath, &d.RecordCount, &d.FileSizeBytes,
		&raw, &d.CreatedAt, &d.UpdatedAt,
	); err != nil {
		return domain.Dataset{}, err
	}
	if raw != nil {
		if err := json.Unmarshal(raw, &d.LineageData); err != nil {
			return domain.Dataset{}, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return domain.Dataset{}, err
	}
	return d, nil
}

func (s *pgJob) Fail(ctx context.Context, jobId string, message string) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	current, err := lockJob(ctx, tx, jobId)
	if err != nil {
		return err
	}
	if !current.CanTransitTo(domain.Failed) {
		return domain.NewErrInvalidJobStateChanging(current, domain.Failed)
	}

	if _, err := tx.Exec(
		ctx,
		`
		update "processing_jobs"
		set "status" = 'failed', "error_message" = $2,
		    "completed_at" = now(), "updated_at" = now()
		where "id" = $1
		`,
		jobId, message,
	); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func lockJob(ctx context.Context, tx dpool.Tx, jobId string) (domain.JobStatus, error) {
	var status domain.JobStatus
	if err := tx.QueryRow(
		ctx,
		`
		select "status" from "processing_jobs"
		where "id" = $1 and "deleted_at" is null
		for update
		`,
		jobId,
	).Scan(&status); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", dberr.Missing{Table: "processing_jobs", Identity: jobId}
		}
		return "", err
	}
	return status, nil
}

func uniq(ids []string) []string {
	seen := map[string]struct{}{}
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
