package mock

import (
	"context"
	"errors"

	"github.com/datapress/datapress/pkg/domain"
	kdb "github.com/datapress/datapress/pkg/domain/dataset/db"
	dbmock "github.com/datapress/datapress/pkg/domain/internal/db/mock"
)

type DatasetInterface struct {
	Impl struct {
		Find   func(ctx context.Context, organisationId string, query domain.DatasetFindQuery) ([]domain.Dataset, error)
		Get    func(ctx context.Context, organisationId string, datasetId string) (domain.Dataset, error)
		Delete func(ctx context.Context, organisationId string, datasetId string) error
	}

	Calls struct {
		Find dbmock.CallLog[struct {
			OrganisationId string
			Query          domain.DatasetFindQuery
		}]
		Get    dbmock.CallLog[struct{ OrganisationId, DatasetId string }]
		Delete dbmock.CallLog[struct{ OrganisationId, DatasetId string }]
	}
}

func NewDatasetInterface() *DatasetInterface {
	return &DatasetInterface{}
}

var _ kdb.Interface = &DatasetInterface{}

func (m *DatasetInterface) Find(
	ctx context.Context, organisationId string, query domain.DatasetFindQuery,
) ([]domain.Dataset, error) {
	m.Calls.Find = append(m.Calls.Find, struct {
		OrganisationId string
		Query          domain.DatasetFindQuery
	}{OrganisationId: organisationId, Query: query})
	if m.Impl.Find != nil {
		return m.Impl.Find(ctx, organisationId, query)
	}

	panic(errors.New("it should not be called"))
}

func (m *DatasetInterface) Get(
	ctx context.Context, organisationId string, datasetId string,
) (domain.Dataset, error) {
	m.Calls.Get = append(m.Calls.Get, struct{ OrganisationId, DatasetId string }{
		OrganisationId: organisationId, DatasetId: datasetId,
	})
	if m.Impl.Get != nil {
		return m.Impl.Get(ctx, organisationId, datasetId)
	}

	panic(errors.New("it should not be called"))
}

func (m *DatasetInterface) Delete(ctx context.Context, organisationId string, datasetId string) error {
	m.Calls.Delete = append(m.Calls.Delete, struct{ OrganisationId, DatasetId string }{
		OrganisationId: organisationId, DatasetId: datasetId,
	})
	if m.Impl.Delete != nil {
		return m.Impl.Delete(ctx, organisationId, datasetId)
	}

	panic(errors.New("it should not be called"))
}
