package schema

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
	kdb "github.com/datapress/datapress/pkg/domain/schema/db"
	"github.com/jackc/pgconn"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v4"
)

type pgSchema struct {
	pool dpool.Pool
}

func New(pool dpool.Pool) kdb.Interface {
	return &pgSchema{pool: pool}
}

const schemaColumns = `
	"id", "name", "version", "schema_definition", "schema_definition_version",
	coalesce("description", ''), "is_published", "created_at", "updated_at"
`

func scanSchema(r pgx.Row) (domain.CanonicalSchema, error) {
	var (
		s   domain.CanonicalSchema
		def []byte
	)
	if err := r.Scan(
		&s.Id, &s.Name, &s.Version, &def, &s.SchemaDefinitionVersion,
		&s.Description, &s.IsPublished, &s.CreatedAt, &s.UpdatedAt,
	); err != nil {
		return domain.CanonicalSchema{}, err
	}
	if err := json.Unmarshal(def, &s.SchemaDefinition); err != nil {
		return domain.CanonicalSchema{}, err
	}
	return s, nil
}

func (s *pgSchema) Create(ctx context.Context, spec domain.NewCanonicalSchema) (domain.CanonicalSchema, error) {
	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return domain.CanonicalSchema{}, err
	}
	defer conn.Release()

	def, err := json.Marshal(spec.SchemaDefinition)
	if err != nil {
		return domain.CanonicalSchema{}, err
	}

	version := spec.Version
	if version == 0 {
		version = 1
	}

	sch, err := scanSchema(conn.QueryRow(
		ctx,
		`
		insert into "canonical_schemas"
			("name", "version", "schema_definition", "description", "is_published")
		values ($1, $2, $3, $4, $5)
		returning `+schemaColumns+`
		`,
		spec.Name, version, def, nullable(spec.Description), spec.IsPublished,
	))
	if err != nil {
		if pgerr := new(pgconn.PgError); errors.As(err, &pgerr) {
			if pgerr.Code == pgerrcode.UniqueViolation {
				return domain.CanonicalSchema{}, dberr.Duplication{
					Table:    "canonical_schemas",
					Identity: fmt.Sprintf("%s@%d", spec.Name, version),
				}
			}
		}
		return domain.CanonicalSchema{}, err
	}
	return sch, nil
}

func (s *pgSchema) Find(ctx context.Context, query domain.CanonicalSchemaFindQuery) ([]domain.CanonicalSchema, error) {
	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Release()

	rows, err := conn.Query(
		ctx,
		`
		select `+schemaColumns+`
		from "canonical_schemas"
		where ($1::boolean is null or "is_published" = $1)
		order by "created_at" desc, "id" desc
		limit $2 offset $3
		`,
		query.IsPublished, paging.Limit(query.Limit), paging.Offset(query.Page, query.Limit),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	schemas := []domain.CanonicalSchema{}
	for rows.Next() {
		sch, err := scanSchema(rows)
		if err != nil {
			return nil, err
		}
		schemas = append(schemas, sch)
	}
	return schemas, rows.Err()
}

func (s *pgSchema) Get(ctx context.Context, schemaId string) (domain.CanonicalSchema, error) {
	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return domain.CanonicalSchema{}, err
	}
	defer conn.Release()

	sch, err := scanSchema(conn.QueryRow(
		ctx,
		`select `+schemaColumns+` from "canonical_schemas" where "id" = $1`,
		schemaId,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.CanonicalSchema{}, dberr.Missing{Table: "canonical_schemas", Identity: schemaId}
	}
	return sch, err
}

func (s *pgSchema) Update(
	ctx context.Context, schemaId string, delta domain.CanonicalSchemaUpdate,
) (domain.CanonicalSchema, error) {
	if delta.IsEmpty() {
		return domain.CanonicalSchema{}, domerr.ErrInvalidArgument
	}

	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return domain.CanonicalSchema{}, err
	}
	defer conn.Release()

	var def []byte
	if delta.ReplaceSchemaDefinition {
		if def, err = json.Marshal(delta.SchemaDefinition); err != nil {
			return domain.CanonicalSchema{}, err
		}
	}

	// the definition and its version move together in a single statement,
	// so concurrent replacements cannot lose an increment.
	sch, err := scanSchema(conn.QueryRow(
		ctx,
		`
		update "canonical_schemas"
		set "description" = coalesce($2, "description"),
		    "is_published" = coalesce($3, "is_published"),
		    "schema_definition" = case when $4 then $5::jsonb else "schema_definition" end,
		    "schema_definition_version" = case when $4
		        then "schema_definition_version" + 1
		        else "schema_definition_version" end,
		    "updated_at" = now()
		where "id" = $1
		returning `+schemaColumns+`
		`,
		schemaId, delta.Description, delta.IsPublished,
		delta.ReplaceSchemaDefinition, def,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.CanonicalSchema{}, dberr.Missing{Table: "canonical_schemas", Identity: schemaId}
	}
	return sch, err
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
