package user

import (
	"context"
	"errors"
	"time"

	dpool "github.com/datapress/datapress/pkg/conn/db/postgres/pool"
	"github.com/datapress/datapress/pkg/domain"
	domerr "github.com/datapress/datapress/pkg/domain/errors"
	dberr "github.com/datapress/datapress/pkg/domain/errors/dberrors/postgres"
	kdb "github.com/datapress/datapress/pkg/domain/user/db"
	"github.com/jackc/pgconn"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v4"
)

type pgUser struct {
	pool dpool.Pool
}

func New(pool dpool.Pool) kdb.Interface {
	return &pgUser{pool: pool}
}

const userColumns = `
	"id", "organisation_id", "email",
	coalesce("name", ''), coalesce("password_hash", ''), "role",
	"invite_token", "invite_token_expiry", "created_at", "updated_at"
`

func scanUser(r pgx.Row) (domain.User, error) {
	var u domain.User
	err := r.Scan(
		&u.Id, &u.OrganisationId, &u.Email,
		&u.Name, &u.PasswordHash, &u.Role,
		&u.InviteToken, &u.InviteTokenExpiry, &u.CreatedAt, &u.UpdatedAt,
	)
	return u, err
}

func (s *pgUser) Find(ctx context.Context, organisationId string) ([]domain.User, error) {
	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Release()

	rows, err := conn.Query(
		ctx,
		`
		select `+userColumns+`
		from "users"
		where "organisation_id" = $1 and "deleted_at" is null
		order by "created_at" desc, "id" desc
		`,
		organisationId,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := []domain.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (s *pgUser) Get(ctx context.Context, organisationId string, userId string) (domain.User, error) {
	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return domain.User{}, err
	}
	defer conn.Release()

	u, err := scanUser(conn.QueryRow(
		ctx,
		`
		select `+userColumns+`
		from "users"
		where "id" = $1 and "organisation_id" = $2 and "deleted_at" is null
		`,
		userId, organisationId,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.User{}, dberr.Missing{Table: "users", Identity: userId}
	}
	return u, err
}

func (s *pgUser) GetActive(ctx context.Context, email string) (domain.User, error) {
	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return domain.User{}, err
	}
	defer conn.Release()

	u, err := scanUser(conn.QueryRow(
		ctx,
		`
		select `+userColumns+`
		from "users"
		where "email" = $1 and "deleted_at" is null and "invite_token" is null
		`,
		email,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.User{}, dberr.Missing{Table: "users", Identity: email}
	}
	return u, err
}

func (s *pgUser) Invite(
	ctx context.Context,
	organisationId string, email string, role domain.UserRole,
	token string, expiry time.Time,
) (domain.User, error) {
	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return domain.User{}, err
	}
	defer conn.Release()

	u, err := scanUser(conn.QueryRow(
		ctx,
		`
		insert into "users" ("organisation_id", "email", "role", "invite_token", "invite_token_expiry")
		values ($1, $2, $3, $4, $5)
		returning `+userColumns+`
		`,
		organisationId, email, string(role), token, expiry,
	))
	if err != nil {
		if pgerr := new(pgconn.PgError); errors.As(err, &pgerr) {
			if pgerr.Code == pgerrcode.UniqueViolation {
				return domain.User{}, dberr.Duplication{Table: "users", Identity: email}
			}
		}
		return domain.User{}, err
	}
	return u, nil
}

func (s *pgUser) Redeem(
	ctx context.Context, token string, name string, passwordHash string,
) (domain.User, error) {
	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return domain.User{}, err
	}
	defer conn.Release()

	u, err := scanUser(conn.QueryRow(
		ctx,
		`
		update "users"
		set "name" = $2, "password_hash" = $3,
		    "invite_token" = null, "invite_token_expiry" = null,
		    "updated_at" = now()
		where "invite_token" = $1 and "deleted_at" is null
		  and "invite_token_expiry" > now()
		returning `+userColumns+`
		`,
		token, name, passwordHash,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.User{}, domerr.ErrInvalidInviteToken
	}
	return u, err
}

func (s *pgUser) Update(
	ctx context.Context, organisationId string, userId string, delta domain.UserUpdate,
) (domain.User, error) {
	if delta.IsEmpty() {
		return domain.User{}, domerr.ErrInvalidArgument
	}

	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return domain.User{}, err
	}
	defer conn.Release()

	var role *string
	if delta.Role != nil {
		r := string(*delta.Role)
		role = &r
	}

	u, err := scanUser(conn.QueryRow(
		ctx,
		`
		update "users"
		set "name" = coalesce($3, "name"),
		    "role" = coalesce($4::user_role, "role"),
		    "updated_at" = now()
		where "id" = $1 and "organisation_id" = $2 and "deleted_at" is null
		returning `+userColumns+`
		`,
		userId, organisationId, delta.Name, role,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.User{}, dberr.Missing{Table: "users", Identity: userId}
	}
	return u, err
}

func (s *pgUser) Delete(ctx context.Context, organisationId string, userId string) error {
	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return err
	}
	defer conn.Release()

	tag, err := conn.Exec(
		ctx,
		`
		update "users" set "deleted_at" = now(), "updated_at" = now()
		where "id" = $1 and "organisation_id" = $2 and "deleted_at" is null
		`,
		userId, organisationId,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return dberr.Missing{Table: "users", Identity: userId}
	}
	return nil
}
