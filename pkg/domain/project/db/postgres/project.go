package project

import (
	"context"
	"encoding/json"
	"errors"

	dpool "github.com/datapress/datapress/pkg/conn/db/postgres/pool"
	"github.com/datapress/datapress/pkg/domain"
	domerr "github.com/datapress/datapress/pkg/domain/errors"
	dberr "github.com/datapress/datapress/pkg/domain/errors/dberrors/postgres"
	"github.com/datapress/datapress/pkg/domain/internal/db/paging"
	kdb "github.com/datapress/datapress/pkg/domain/project/db"
	"github.com/jackc/pgconn"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v4"
)

type pgProject struct {
	pool dpool.Pool
}

func New(pool dpool.Pool) kdb.Interface {
	return &pgProject{pool: pool}
}

// created_by_user_id reads as null once the creating user is soft-deleted.
const projectColumns = `
	"p"."id", "p"."organisation_id",
	(
		select "u"."id" from "users" "u"
		where "u"."id" = "p"."created_by_user_id" and "u"."deleted_at" is null
	),
	"p"."canonical_schema_id", "p"."name", "p"."description", "p"."status",
	"p"."processing_config", "p"."processing_config_version",
	"p"."created_at", "p"."updated_at"
`

func scanProject(r pgx.Row) (domain.Project, error) {
	var (
		p    domain.Project
		conf []byte
	)
	if err := r.Scan(
		&p.Id, &p.OrganisationId, &p.CreatedByUserId,
		&p.CanonicalSchemaId, &p.Name, &p.Description, &p.Status,
		&conf, &p.ProcessingConfigVersion,
		&p.CreatedAt, &p.UpdatedAt,
	); err != nil {
		return domain.Project{}, err
	}
	if conf != nil {
		if err := json.Unmarshal(conf, &p.ProcessingConfig); err != nil {
			return domain.Project{}, err
		}
	}
	return p, nil
}

func (s *pgProject) Create(
	ctx context.Context, organisationId string, spec domain.NewProject,
) (domain.Project, error) {
	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return domain.Project{}, err
	}
	defer conn.Release()

	var conf []byte
	var confVersion *int
	if spec.ProcessingConfig != nil {
		if conf, err = json.Marshal(spec.ProcessingConfig); err != nil {
			return domain.Project{}, err
		}
		one := 1
		confVersion = &one
	}

	p, err := scanProject(conn.QueryRow(
		ctx,
		`
		insert into "projects" as "p"
			("organisation_id", "created_by_user_id", "canonical_schema_id",
			 "name", "description", "processing_config", "processing_config_version")
		values ($1, $2, $3, $4, $5, $6, $7)
		returning `+projectColumns+`
		`,
		organisationId, spec.CreatedByUserId, spec.CanonicalSchemaId,
		spec.Name, spec.Description, conf, confVersion,
	))
	if err != nil {
		if pgerr := new(pgconn.PgError); errors.As(err, &pgerr) {
			switch pgerr.Code {
			case pgerrcode.UniqueViolation:
				return domain.Project{}, dberr.Duplication{Table: "projects", Identity: spec.Name}
			case pgerrcode.ForeignKeyViolation:
				return domain.Project{}, dberr.Missing{
					Table: "canonical_schemas", Identity: spec.CanonicalSchemaId,
				}
			}
		}
		return domain.Project{}, err
	}
	return p, nil
}

func (s *pgProject) Find(
	ctx context.Context, organisationId string, query domain.ProjectFindQuery,
) ([]domain.Project, error) {
	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Release()

	var status *string
	if query.Status != "" {
		st := query.Status.String()
		status = &st
	}

	rows, err := conn.Query(
		ctx,
		`
		select `+projectColumns+`
		from "projects" "p"
		where "p"."organisation_id" = $1 and "p"."deleted_at" is null
		  and ($2::project_status is null or "p"."status" = $2)
		order by "p"."created_at" desc, "p"."id" desc
		limit $3 offset $4
		`,
		organisationId, status,
		paging.Limit(query.Limit), paging.Offset(query.Page, query.Limit),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	projects := []domain.Project{}
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

func (s *pgProject) Get(ctx context.Context, organisationId string, projectId string) (domain.Project, error) {
	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return domain.Project{}, err
	}
	defer conn.Release()

	return getProject(ctx, conn, organisationId, projectId)
}

func getProject(
	ctx context.Context, conn dpool.Queryer, organisationId string, projectId string,
) (domain.Project, error) {
	p, err := scanProject(conn.QueryRow(
		ctx,
		`
		select `+projectColumns+`
		from "projects" "p"
		where "p"."id" = $1 and "p"."organisation_id" = $2 and "p"."deleted_at" is null
		`,
		projectId, organisationId,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Project{}, dberr.Missing{Table: "projects", Identity: projectId}
	}
	return p, err
}

func (s *pgProject) Update(
	ctx context.Context, organisationId string, projectId string, delta domain.ProjectUpdate,
) (domain.Project, error) {
	if delta.IsEmpty() {
		return domain.Project{}, domerr.ErrInvalidArgument
	}

	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return domain.Project{}, err
	}
	defer conn.Release()

	var status *string
	if delta.Status != nil {
		st := delta.Status.String()
		status = &st
	}

	var conf []byte
	if delta.ReplaceProcessingConfig && delta.ProcessingConfig != nil {
		if conf, err = json.Marshal(delta.ProcessingConfig); err != nil {
			return domain.Project{}, err
		}
	}

	// the config and its version counter move in one statement: two
	// concurrent replacements both land, and the counter reflects both.
	p, err := scanProject(conn.QueryRow(
		ctx,
		`
		update "projects" as "p"
		set "name" = coalesce($3, "name"),
		    "description" = coalesce($4, "description"),
		    "status" = coalesce($5::project_status, "status"),
		    "processing_config" = case when $6 then $7::jsonb else "processing_config" end,
		    "processing_config_version" = case when $6
		        then coalesce("processing_config_version", 0) + 1
		        else "processing_config_version" end,
		    "updated_at" = now()
		where "p"."id" = $1 and "p"."organisation_id" = $2 and "p"."deleted_at" is null
		returning `+projectColumns+`
		`,
		projectId, organisationId,
		delta.Name, delta.Description, status,
		delta.ReplaceProcessingConfig, conf,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Project{}, dberr.Missing{Table: "projects", Identity: projectId}
		}
		if pgerr := new(pgconn.PgError); errors.As(err, &pgerr) {
			if pgerr.Code == pgerrcode.UniqueViolation {
				return domain.Project{}, dberr.Duplication{Table: "projects", Identity: projectId}
			}
		}
		return domain.Project{}, err
	}
	return p, nil
}

func (s *pgProject) Delete(ctx context.Context, organisationId string, projectId string) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := getProject(ctx, tx, organisationId, projectId); err != nil {
		return err
	}

	// now() is stable for the whole transaction: the project and every
	// descendant get the same deletion instant, or none of them do.
	for _, command := range []string{
		`
		update "projects" set "deleted_at" = now(), "updated_at" = now()
		where "id" = $1 and "deleted_at" is null
		`,
		`
		update "sources" set "deleted_at" = now(), "updated_at" = now()
		where "project_id" = $1 and "deleted_at" is null
		`,
		`
		update "processing_jobs" set "deleted_at" = now(), "updated_at" = now()
		where "project_id" = $1 and "deleted_at" is null
		`,
		`
		update "datasets" set "deleted_at" = now(), "updated_at" = now()
		where "project_id" = $1 and "deleted_at" is null
		`,
	} {
		if _, err := tx.Exec(ctx, command, projectId); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}
