package db

import (
	"context"
	"time"

	"github.com/datapress/datapress/pkg/domain"
)

type Interface interface {
	// Find lists the live users of an organisation, newest first.
	Find(ctx context.Context, organisationId string) ([]domain.User, error)

	// Get retrieves a live user of an organisation.
	//
	// Returns
	//
	// - error: ErrMissing when the user does not exist, is soft-deleted or
	// belongs to another organisation.
	Get(ctx context.Context, organisationId string, userId string) (domain.User, error)

	// GetActive retrieves a live, registered (no pending invite) user by
	// email, for login.
	//
	// Returns
	//
	// - error: ErrMissing when no such user exists.
	GetActive(ctx context.Context, email string) (domain.User, error)

	// Invite creates a placeholder user holding an invite token.
	//
	// Returns
	//
	// - error: ErrConflict when a live user already has the email.
	Invite(ctx context.Context, organisationId string, email string, role domain.UserRole, token string, expiry time.Time) (domain.User, error)

	// Redeem turns the placeholder identified by token into a registered
	// user, clearing the token.
	//
	// Returns
	//
	// - error: ErrInvalidInviteToken when the token is unknown, already
	// redeemed or expired.
	Redeem(ctx context.Context, token string, name string, passwordHash string) (domain.User, error)

	// Update applies delta to a live user.
	//
	// Returns
	//
	// - error: ErrInvalidArgument when delta is empty,
	// ErrMissing when no live user matches.
	Update(ctx context.Context, organisationId string, userId string, delta domain.UserUpdate) (domain.User, error)

	// Delete soft-deletes a user. References from projects and jobs the
	// user created are kept and resolved to null by read paths.
	//
	// Returns
	//
	// - error: ErrMissing when no live user matches.
	Delete(ctx context.Context, organisationId string, userId string) error
}
