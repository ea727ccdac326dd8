package mock

import (
	"context"
	"errors"

	"github.com/datapress/datapress/pkg/domain"
	dbmock "github.com/datapress/datapress/pkg/domain/internal/db/mock"
	kdb "github.com/datapress/datapress/pkg/domain/source/db"
)

type SourceInterface struct {
	Impl struct {
		Create func(ctx context.Context, organisationId string, spec domain.NewSource) (domain.Source, error)
		Find   func(ctx context.Context, organisationId string, query domain.SourceFindQuery) ([]domain.Source, error)
		Get    func(ctx context.Context, organisationId string, sourceId string) (domain.Source, error)
		Update func(ctx context.Context, organisationId string, sourceId string, delta domain.SourceUpdate) (domain.Source, error)
		Delete func(ctx context.Context, organisationId string, sourceId string) error
	}

	Calls struct {
		Create dbmock.CallLog[struct {
			OrganisationId string
			Spec           domain.NewSource
		}]
		Find dbmock.CallLog[struct {
			OrganisationId string
			Query          domain.SourceFindQuery
		}]
		Get    dbmock.CallLog[struct{ OrganisationId, SourceId string }]
		Update dbmock.CallLog[struct {
			OrganisationId string
			SourceId       string
			Delta          domain.SourceUpdate
		}]
		Delete dbmock.CallLog[struct{ OrganisationId, SourceId string }]
	}
}

func NewSourceInterface() *SourceInterface {
	return &SourceInterface{}
}

var _ kdb.Interface = &SourceInterface{}

func (m *SourceInterface) Create(
	ctx context.Context, organisationId string, spec domain.NewSource,
) (domain.Source, error) {
	m.Calls.Create = append(m.Calls.Create, struct {
		OrganisationId string
		Spec           domain.NewSource
	}{OrganisationId: organisationId, Spec: spec})
	if m.Impl.Create != nil {
		return m.Impl.Create(ctx, organisationId, spec)
	}

	panic(errors.New("it should not be called"))
}

func (m *SourceInterface) Find(
	ctx context.Context, organisationId string, query domain.SourceFindQuery,
) ([]domain.Source, error) {
	m.Calls.Find = append(m.Calls.Find, struct {
		OrganisationId string
		Query          domain.SourceFindQuery
	}{OrganisationId: organisationId, Query: query})
	if m.Impl.Find != nil {
		return m.Impl.Find(ctx, organisationId, query)
	}

	panic(errors.New("it should not be called"))
}

func (m *SourceInterface) Get(
	ctx context.Context, organisationId string, sourceId string,
) (domain.Source, error) {
	m.Calls.Get = append(m.Calls.Get, struct{ OrganisationId, SourceId string }{
		OrganisationId: organisationId, SourceId: sourceId,
	})
	if m.Impl.Get != nil {
		return m.Impl.Get(ctx, organisationId, sourceId)
	}

	panic(errors.New("it should not be called"))
}

func (m *SourceInterface) Update(
	ctx context.Context, organisationId string, sourceId string, delta domain.SourceUpdate,
) (domain.Source, error) {
	m.Calls.Update = append(m.Calls.Update, struct {
		OrganisationId string
		SourceId       string
		Delta          domain.SourceUpdate
	}{OrganisationId: organisationId, SourceId: sourceId, Delta: delta})
	if m.Impl.Update != nil {
		return m.Impl.Update(ctx, organisationId, sourceId, delta)
	}

	panic(errors.New("it should not be called"))
}

func (m *SourceInterface) Delete(ctx context.Context, organisationId string, sourceId string) error {
	m.Calls.Delete = append(m.Calls.Delete, struct{ OrganisationId, SourceId string }{
		OrganisationId: organisationId, SourceId: sourceId,
	})
	if m.Impl.Delete != nil {
		return m.Impl.Delete(ctx, organisationId, sourceId)
	}

	panic(errors.New("it should not be called"))
}
