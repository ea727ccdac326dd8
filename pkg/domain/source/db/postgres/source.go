package source

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	dpool "github.com/datapress/datapress/pkg/conn/db/postgres/pool"
	"github.com/datapress/datapress/pkg/domain"
	domerr "github.com/datapress/datapress/pkg/domain/errors"
	dberr "github.com/datapress/datapress/pkg/domain/errors/dberrors/postgres"
	"github.com/datapress/datapress/pkg/domain/internal/db/paging"
	kdb "github.com/datapress/datapress/pkg/domain/source/db"
	"github.com/jackc/pgconn"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v4"
)

type pgSource struct {
	pool dpool.Pool
}

func New(pool dpool.Pool) kdb.Interface {
	return &pgSource{pool: pool}
}

const sourceColumns = `
	"s"."id", "s"."project_id", "s"."name", "s"."type",
	"s"."upload_path", "s"."mime_type", "s"."size_bytes",
	"s"."api_connection_config", "s"."api_connection_config_version",
	"s"."status", "s"."cached_data_path", "s"."cached_at", "s"."cache_expiry_date",
	"s"."record_count", "s"."error_message",
	"s"."created_at", "s"."updated_at"
`

func scanSource(r pgx.Row) (domain.Source, error) {
	var (
		src        domain.Source
		uploadPath *string
		mimeType   *string
		sizeBytes  *int64
		conf       []byte
	)
	if err := r.Scan(
		&src.Id, &src.ProjectId, &src.Name, &src.Type,
		&uploadPath, &mimeType, &sizeBytes,
		&conf, &src.ApiConnectionConfigVersion,
		&src.Status, &src.CachedDataPath, &src.CachedAt, &src.CacheExpiryDate,
		&src.RecordCount, &src.ErrorMessage,
		&src.CreatedAt, &src.UpdatedAt,
	); err != nil {
		return domain.Source{}, err
	}
	if uploadPath != nil {
		src.File = &domain.FileUpload{UploadPath: *uploadPath}
		if mimeType != nil {
			src.File.MimeType = *mimeType
		}
		if sizeBytes != nil {
			src.File.SizeBytes = *sizeBytes
		}
	}
	if conf != nil {
		if err := json.Unmarshal(conf, &src.ApiConnectionConfig); err != nil {
			return domain.Source{}, err
		}
	}
	return src, nil
}

func (s *pgSource) Create(
	ctx context.Context, organisationId string, spec domain.NewSource,
) (domain.Source, error) {
	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return domain.Source{}, err
	}
	defer conn.Release()

	var uploadPath, mimeType *string
	var sizeBytes *int64
	if spec.File != nil {
		uploadPath = &spec.File.UploadPath
		if spec.File.MimeType != "" {
			mimeType = &spec.File.MimeType
		}
		sizeBytes = &spec.File.SizeBytes
	}

	var conf []byte
	var confVersion *int
	if spec.ApiConnectionConfig != nil {
		if conf, err = json.Marshal(spec.ApiConnectionConfig); err != nil {
			return domain.Source{}, err
		}
		one := 1
		confVersion = &one
	}

	// the insert resolves the project under the caller's organisation in
	// the same statement: zero rows means the project is not visible.
	src, err := scanSource(conn.QueryRow(
		ctx,
		`
		insert into "sources" as "s"
			("project_id", "name", "type",
			 "upload_path", "mime_type", "size_bytes",
			 "api_connection_config", "api_connection_config_version")
		select "p"."id", $3, $4::source_type, $5, $6, $7, $8, $9
		from "projects" "p"
		where "p"."id" = $2 and "p"."organisation_id" = $1 and "p"."deleted_at" is null
		returning `+sourceColumns+`
		`,
		organisationId, spec.ProjectId, spec.Name, spec.Type.String(),
		uploadPath, mimeType, sizeBytes, conf, confVersion,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Source{}, dberr.Missing{Table: "projects", Identity: spec.ProjectId}
	}
	if err := branchMismatch(err); err != nil {
		return domain.Source{}, err
	}
	return src, err
}

// branchMismatch translates the file-or-api CHECK constraint: a file
// source cannot carry an api connection config, nor the other way round.
func branchMismatch(err error) error {
	if pgerr := new(pgconn.PgError); errors.As(err, &pgerr) {
		if pgerr.Code == pgerrcode.CheckViolation {
			return fmt.Errorf(
				"%w: the change does not fit the source type", domerr.ErrInvalidArgument,
			)
		}
	}
	return nil
}

func (s *pgSource) Find(
	ctx context.Context, organisationId string, query domain.SourceFindQuery,
) ([]domain.Source, error) {
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
		select `+sourceColumns+`
		from "sources" "s"
		inner join "projects" "p"
			on "p"."id" = "s"."project_id"
			and "p"."organisation_id" = $1 and "p"."deleted_at" is null
		where "s"."deleted_at" is null
		  and ($2::uuid is null or "s"."project_id" = $2)
		  and ($3::source_status is null or "s"."status" = $3)
		order by "s"."created_at" desc, "s"."id" desc
		limit $4 offset $5
		`,
		organisationId, projectId, status,
		paging.Limit(query.Limit), paging.Offset(query.Page, query.Limit),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sources := []domain.Source{}
	for rows.Next() {
		src, err := scanSource(rows)
		if err != nil {
			return nil, err
		}
		sources = append(sources, src)
	}
	return sources, rows.Err()
}

func (s *pgSource) Get(ctx context.Context, organisationId string, sourceId string) (domain.Source, error) {
	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return domain.Source{}, err
	}
	defer conn.Release()

	src, err := scanSource(conn.QueryRow(
		ctx,
		`
		select `+sourceColumns+`
		from "sources" "s"
		inner join "projects" "p"
			on "p"."id" = "s"."project_id"
			and "p"."organisation_id" = $2 and "p"."deleted_at" is null
		where "s"."id" = $1 and "s"."deleted_at" is null
		`,
		sourceId, organisationId,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Source{}, dberr.Missing{Table: "sources", Identity: sourceId}
	}
	return src, err
}

func (s *pgSource) Update(
	ctx context.Context, organisationId string, sourceId string, delta domain.SourceUpdate,
) (domain.Source, error) {
	if delta.IsEmpty() {
		return domain.Source{}, domerr.ErrInvalidArgument
	}

	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return domain.Source{}, err
	}
	defer conn.Release()

	var status *string
	if delta.Status != nil {
		st := delta.Status.String()
		status = &st
	}

	var conf []byte
	if delta.ReplaceApiConnectionConfig {
		if conf, err = json.Marshal(delta.ApiConnectionConfig); err != nil {
			return domain.Source{}, err
		}
	}

	src, err := scanSource(conn.QueryRow(
		ctx,
		`
		update "sources" as "s"
		set "name" = coalesce($3, "name"),
		    "status" = coalesce($4::source_status, "status"),
		    "error_message" = coalesce($5, "error_message"),
		    "api_connection_config" = case when $6 then $7::jsonb else "api_connection_config" end,
		    "api_connection_config_version" = case when $6
		        then coalesce("api_connection_config_version", 0) + 1
		        else "api_connection_config_version" end,
		    "updated_at" = now()
		from "projects" "p"
		where "s"."id" = $1 and "s"."deleted_at" is null
		  and "p"."id" = "s"."project_id"
		  and "p"."organisation_id" = $2 and "p"."deleted_at" is null
		returning `+sourceColumns+`
		`,
		sourceId, organisationId,
		delta.Name, status, delta.ErrorMessage,
		delta.ReplaceApiConnectionConfig, conf,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Source{}, dberr.Missing{Table: "sources", Identity: sourceId}
	}
	if err := branchMismatch(err); err != nil {
		return domain.Source{}, err
	}
	return src, err
}

func (s *pgSource) Delete(ctx context.Context, organisationId string, sourceId string) error {
	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return err
	}
	defer conn.Release()

	tag, err := conn.Exec(
		ctx,
		`
		update "sources" as "s"
		set "deleted_at" = now(), "updated_at" = now()
		from "projects" "p"
		where "s"."id" = $1 and "s"."deleted_at" is null
		  and "p"."id" = "s"."project_id"
		  and "p"."organisation_id" = $2 and "p"."deleted_at" is null
		`,
		sourceId, organisationId,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return dberr.Missing{Table: "sources", Identity: sourceId}
	}
	return nil
}
