package organisation

import (
	"context"
	"errors"

	dpool "github.com/datapress/datapress/pkg/conn/db/postgres/pool"
	"github.com/datapress/datapress/pkg/domain"
	domerr "github.com/datapress/datapress/pkg/domain/errors"
	dberr "github.com/datapress/datapress/pkg/domain/errors/dberrors/postgres"
	kdb "github.com/datapress/datapress/pkg/domain/organisation/db"
	"github.com/jackc/pgconn"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v4"
)

type pgOrganisation struct {
	pool dpool.Pool
}

func New(pool dpool.Pool) kdb.Interface {
	return &pgOrganisation{pool: pool}
}

func (o *pgOrganisation) Register(
	ctx context.Context, org domain.NewOrganisation, admin domain.Registration,
) (domain.Organisation, domain.User, error) {
	tx, err := o.pool.Begin(ctx)
	if err != nil {
		return domain.Organisation{}, domain.User{}, err
	}
	defer tx.Rollback(ctx)

	var newOrg domain.Organisation
	if err := tx.QueryRow(
		ctx,
		`
		insert into "organisations" ("name", "slug")
		values ($1, $2)
		returning "id", "name", "slug", "created_at", "updated_at"
		`,
		org.Name, org.Slug,
	).Scan(
		&newOrg.Id, &newOrg.Name, &newOrg.Slug,
		&newOrg.CreatedAt, &newOrg.UpdatedAt,
	); err != nil {
		return domain.Organisation{}, domain.User{}, asConflict(err, "organisations", org.Slug)
	}

	var newUser domain.User
	if err := tx.QueryRow(
		ctx,
		`
		insert into "users" ("organisation_id", "email", "name", "password_hash", "role")
		values ($1, $2, $3, $4, 'admin')
		returning "id", "organisation_id", "email", "name", "password_hash", "role",
		          "created_at", "updated_at"
		`,
		newOrg.Id, admin.Email, admin.Name, admin.PasswordHash,
	).Scan(
		&newUser.Id, &newUser.OrganisationId, &newUser.Email, &newUser.Name,
		&newUser.PasswordHash, &newUser.Role,
		&newUser.CreatedAt, &newUser.UpdatedAt,
	); err != nil {
		return domain.Organisation{}, domain.User{}, asConflict(err, "users", admin.Email)
	}

	if err := tx.Commit(ctx); err != nil {
		return domain.Organisation{}, domain.User{}, err
	}
	return newOrg, newUser, nil
}

func (o *pgOrganisation) Get(ctx context.Context, organisationId string) (domain.Organisation, error) {
	conn, err := o.pool.Acquire(ctx)
	if err != nil {
		return domain.Organisation{}, err
	}
	defer conn.Release()

	return getOrganisation(ctx, conn, organisationId)
}

func getOrganisation(ctx context.Context, conn dpool.Queryer, organisationId string) (domain.Organisation, error) {
	var org domain.Organisation
	if err := conn.QueryRow(
		ctx,
		`
		select "id", "name", "slug", "created_at", "updated_at"
		from "organisations"
		where "id" = $1 and "deleted_at" is null
		`,
		organisationId,
	).Scan(
		&org.Id, &org.Name, &org.Slug, &org.CreatedAt, &org.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Organisation{}, dberr.Missing{Table: "organisations", Identity: organisationId}
		}
		return domain.Organisation{}, err
	}
	return org, nil
}

func (o *pgOrganisation) Update(
	ctx context.Context, organisationId string, delta domain.OrganisationUpdate,
) (domain.Organisation, error) {
	if delta.IsEmpty() {
		return domain.Organisation{}, domerr.ErrInvalidArgument
	}

	conn, err := o.pool.Acquire(ctx)
	if err != nil {
		return domain.Organisation{}, err
	}
	defer conn.Release()

	var org domain.Organisation
	if err := conn.QueryRow(
		ctx,
		`
		update "organisations"
		set "name" = coalesce($2, "name"),
		    "slug" = coalesce($3, "slug"),
		    "updated_at" = now()
		where "id" = $1 and "deleted_at" is null
		returning "id", "name", "slug", "created_at", "updated_at"
		`,
		organisationId, delta.Name, delta.Slug,
	).Scan(
		&org.Id, &org.Name, &org.Slug, &org.CreatedAt, &org.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Organisation{}, dberr.Missing{Table: "organisations", Identity: organisationId}
		}
		return domain.Organisation{}, asConflict(err, "organisations", organisationId)
	}
	return org, nil
}

// Delete soft-deletes the organisation, its users and its projects with a
// single timestamp, in one transaction.
//
// The cascade is shallow: sources, jobs and datasets of the projects keep a
// null "deleted_at", and become unreachable because every read of them joins
// through a live project.
func (o *pgOrganisation) Delete(ctx context.Context, organisationId string) error {
	tx, err := o.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := getOrganisation(ctx, tx, organisationId); err != nil {
		return err
	}

	// now() is stable for the whole transaction, so every row in the
	// cascade gets the same deletion instant.
	for _, command := range []string{
		`
		update "organisations" set "deleted_at" = now(), "updated_at" = now()
		where "id" = $1 and "deleted_at" is null
		`,
		`
		update "users" set "deleted_at" = now(), "updated_at" = now()
		where "organisation_id" = $1 and "deleted_at" is null
		`,
		`
		update "projects" set "deleted_at" = now(), "updated_at" = now()
		where "organisation_id" = $1 and "deleted_at" is null
		`,
	} {
		if _, err := tx.Exec(ctx, command, organisationId); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

func asConflict(err error, table string, identity string) error {
	if pgerr := new(pgconn.PgError); errors.As(err, &pgerr) {
		if pgerr.Code == pgerrcode.UniqueViolation {
			return dberr.Duplication{Table: table, Identity: identity}
		}
	}
	return err
}
