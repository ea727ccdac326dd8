package dataset

import (
	"context"
	"encoding/json"
	"errors"

	dpool "github.com/datapress/datapress/pkg/conn/db/postgres/pool"
	"github.com/datapress/datapress/pkg/domain"
	dberr "github.com/datapress/datapress/pkg/domain/errors/dberrors/postgres"
	kdb "github.com/datapress/datapress/pkg/domain/dataset/db"
	"github.com/datapress/datapress/pkg/domain/internal/db/paging"
	"github.com/jackc/pgx/v4"
)

type pgDataset struct {
	pool dpool.Pool
}

func New(pool dpool.Pool) kdb.Interface {
	return &pgDataset{pool: pool}
}

const datasetColumns = `
	"d"."id", "d"."project_id", "d"."processing_job_id", "d"."name",
	"d"."output_format", "d"."output_storage_path",
	"d"."record_count", "d"."file_size_bytes", "d"."lineage_data",
	"d"."created_at", "d"."updated_at"
`

func scanDataset(r pgx.Row) (domain.Dataset, error) {
	var (
		d       domain.Dataset
		lineage []byte
	)
	if err := r.Scan(
		&d.Id, &d.ProjectId, &d.ProcessingJobId, &d.Name,
		&d.OutputFormat, &d.OutputStoragePath,
		&d.RecordCount, &d.FileSizeBytes, &lineage,
		&d.CreatedAt, &d.UpdatedAt,
	); err != nil {
		return domain.Dataset{}, err
	}
	if lineage != nil {
		if err := json.Unmarshal(lineage, &d.LineageData); err != nil {
			return domain.Dataset{}, err
		}
	}
	return d, nil
}

func (s *pgDataset) Find(
	ctx context.Context, organisationId string, query domain.DatasetFindQuery,
) ([]domain.Dataset, error) {
	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Release()

	var projectId *string
	if query.ProjectId != "" {
		projectId = &query.ProjectId
	}
	var format *string
	if query.OutputFormat != "" {
		f := query.OutputFormat.String()
		format = &f
	}

	rows, err := conn.Query(
		ctx,
		`
		select `+datasetColumns+`
		from "datasets" "d"
		inner join "projects" "p"
			on "p"."id" = "d"."project_id"
			and "p"."organisation_id" = $1 and "p"."deleted_at" is null
		where "d"."deleted_at" is null
		  and ($2::uuid is null or "d"."project_id" = $2)
		  and ($3::output_format is null or "d"."output_format" = $3)
		order by "d"."created_at" desc, "d"."id" desc
		limit $4 offset $5
		`,
		organisationId, projectId, format,
		paging.Limit(query.Limit), paging.Offset(query.Page, query.Limit),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	datasets := []domain.Dataset{}
	for rows.Next() {
		d, err := scanDataset(rows)
		if err != nil {
			return nil, err
		}
		datasets = append(datasets, d)
	}
	return datasets, rows.Err()
}

func (s *pgDataset) Get(ctx context.Context, organisationId string, datasetId string) (domain.Dataset, error) {
	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return domain.Dataset{}, err
	}
	defer conn.Release()

	d, err := scanDataset(conn.QueryRow(
		ctx,
		`
		select `+datasetColumns+`
		from "datasets" "d"
		inner join "projects" "p"
			on "p"."id" = "d"."project_id"
			and "p"."organisation_id" = $2 and "p"."deleted_at" is null
		where "d"."id" = $1 and "d"."deleted_at" is null
		`,
		datasetId, organisationId,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Dataset{}, dberr.Missing{Table: "datasets", Identity: datasetId}
	}
	return d, err
}

func (s *pgDataset) Delete(ctx context.Context, organisationId string, datasetId string) error {
	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return err
	}
	defer conn.Release()

	tag, err := conn.Exec(
		ctx,
		`
		update "datasets" as "d"
		set "deleted_at" = now(), "updated_at" = now()
		from "projects" "p"
		where "d"."id" = $1 and "d"."deleted_at" is null
		  and "p"."id" = "d"."project_id"
		  and "p"."organisation_id" = $2 and "p"."deleted_at" is null
		`,
		datasetId, organisationId,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return dberr.Missing{Table: "datasets", Identity: datasetId}
	}
	return nil
}
