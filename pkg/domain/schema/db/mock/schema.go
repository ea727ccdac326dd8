package mock

import (
	"context"
	"errors"

	"github.com/datapress/datapress/pkg/domain"
	dbmock "github.com/datapress/datapress/pkg/domain/internal/db/mock"
	kdb "github.com/datapress/datapress/pkg/domain/schema/db"
)

type SchemaInterface struct {
	Impl struct {
		Create func(ctx context.Context, spec domain.NewCanonicalSchema) (domain.CanonicalSchema, error)
		Find   func(ctx context.Context, query domain.CanonicalSchemaFindQuery) ([]domain.CanonicalSchema, error)
		Get    func(ctx context.Context, schemaId string) (domain.CanonicalSchema, error)
		Update func(ctx context.Context, schemaId string, delta domain.CanonicalSchemaUpdate) (domain.CanonicalSchema, error)
	}

	Calls struct {
		Create dbmock.CallLog[domain.NewCanonicalSchema]
		Find   dbmock.CallLog[domain.CanonicalSchemaFindQuery]
		Get    dbmock.CallLog[string]
		Update dbmock.CallLog[struct {
			SchemaId string
			Delta    domain.CanonicalSchemaUpdate
		}]
	}
}

func NewSchemaInterface() *SchemaInterface {
	return &SchemaInterface{}
}

var _ kdb.Interface = &SchemaInterface{}

func (m *SchemaInterface) Create(ctx context.Context, spec domain.NewCanonicalSchema) (domain.CanonicalSchema, error) {
	m.Calls.Create = append(m.Calls.Create, spec)
	if m.Impl.Create != nil {
		return m.Impl.Create(ctx, spec)
	}

	panic(errors.New("it should not be called"))
}

func (m *SchemaInterface) Find(ctx context.Context, query domain.CanonicalSchemaFindQuery) ([]domain.CanonicalSchema, error) {
	m.Calls.Find = append(m.Calls.Find, query)
	if m.Impl.Find != nil {
		return m.Impl.Find(ctx, query)
	}

	panic(errors.New("it should not be called"))
}

func (m *SchemaInterface) Get(ctx context.Context, schemaId string) (domain.CanonicalSchema, error) {
	m.Calls.Get = append(m.Calls.Get, schemaId)
	if m.Impl.Get != nil {
		return m.Impl.Get(ctx, schemaId)
	}

	panic(errors.New("it should not be called"))
}

func (m *SchemaInterface) Update(
	ctx context.Context, schemaId string, delta domain.CanonicalSchemaUpdate,
) (domain.CanonicalSchema, error) {
	m.Calls.Update = append(m.Calls.Update, struct {
		SchemaId string
		Delta    domain.CanonicalSchemaUpdate
	}{SchemaId: schemaId, Delta: delta})
	if m.Impl.Update != nil {
		return m.Impl.Update(ctx, schemaId, delta)
	}

	panic(errors.New("it should not be called"))
}
