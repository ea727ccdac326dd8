package db

import (
	"context"

	"github.com/datapress/datapress/pkg/domain"
)

type Interface interface {
	// Register creates an organisation together with its first admin user,
	// in one transaction.
	//
	// Returns
	//
	// - domain.Organisation: the new tenant.
	//
	// - domain.User: its admin user.
	//
	// - error: ErrConflict when the slug or the email is already taken by
	// a live row.
	Register(ctx context.Context, org domain.NewOrganisation, admin domain.Registration) (domain.Organisation, domain.User, error)

	// Get retrieves a live organisation.
	//
	// Returns
	//
	// - error: ErrMissing when no live organisation has the id.
	Get(ctx context.Context, organisationId string) (domain.Organisation, error)

	// Update applies delta to a live organisation.
	//
	// Returns
	//
	// - error: ErrInvalidArgument when delta is empty,
	// ErrMissing when no live organisation has the id,
	// ErrConflict when the new slug is taken.
	Update(ctx context.Context, organisationId string, delta domain.OrganisationUpdate) (domain.Organisation, error)

	// Delete soft-deletes the organisation and, at the same instant and in
	// the same transaction, its users and projects.
	//
	// Returns
	//
	// - error: ErrMissing when no live organisation has the id.
	Delete(ctx context.Context, organisationId string) error
}
