package db

import (
	"context"

	"github.com/datapress/datapress/pkg/domain"
)

type Interface interface {
	// Create registers a canonical schema in the catalog.
	//
	// Returns
	//
	// - error: ErrConflict when (name, version) already exists.
	Create(ctx context.Context, spec domain.NewCanonicalSchema) (domain.CanonicalSchema, error)

	// Find lists schemas matching query, newest first.
	Find(ctx context.Context, query domain.CanonicalSchemaFindQuery) ([]domain.CanonicalSchema, error)

	// Get retrieves a schema.
	//
	// Returns
	//
	// - error: ErrMissing when no schema has the id.
	Get(ctx context.Context, schemaId string) (domain.CanonicalSchema, error)

	// Update applies delta. When delta replaces the definition, the
	// definition version is incremented in the same statement.
	//
	// Returns
	//
	// - error: ErrInvalidArgument when delta is empty,
	// ErrMissing when no schema has the id.
	Update(ctx context.Context, schemaId string, delta domain.CanonicalSchemaUpdate) (domain.CanonicalSchema, error)
}
