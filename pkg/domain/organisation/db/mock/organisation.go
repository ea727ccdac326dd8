package mock

import (
	"context"
	"errors"

	"github.com/datapress/datapress/pkg/domain"
	dbmock "github.com/datapress/datapress/pkg/domain/internal/db/mock"
	kdb "github.com/datapress/datapress/pkg/domain/organisation/db"
)

type OrganisationInterface struct {
	Impl struct {
		Register func(ctx context.Context, org domain.NewOrganisation, admin domain.Registration) (domain.Organisation, domain.User, error)
		Get      func(ctx context.Context, organisationId string) (domain.Organisation, error)
		Update   func(ctx context.Context, organisationId string, delta domain.OrganisationUpdate) (domain.Organisation, error)
		Delete   func(ctx context.Context, organisationId string) error
	}

	Calls struct {
		Register dbmock.CallLog[struct {
			Org   domain.NewOrganisation
			Admin domain.Registration
		}]
		Get    dbmock.CallLog[string]
		Update dbmock.CallLog[struct {
			OrganisationId string
			Delta          domain.OrganisationUpdate
		}]
		Delete dbmock.CallLog[string]
	}
}

func NewOrganisationInterface() *OrganisationInterface {
	return &OrganisationInterface{}
}

var _ kdb.Interface = &OrganisationInterface{}

func (m *OrganisationInterface) Register(
	ctx context.Context, org domain.NewOrganisation, admin domain.Registration,
) (domain.Organisation, domain.User, error) {
	m.Calls.Register = append(m.Calls.Register, struct {
		Org   domain.NewOrganisation
		Admin domain.Registration
	}{Org: org, Admin: admin})
	if m.Impl.Register != nil {
		return m.Impl.Register(ctx, org, admin)
	}

	panic(errors.New("it should not be called"))
}

func (m *OrganisationInterface) Get(ctx context.Context, organisationId string) (domain.Organisation, error) {
	m.Calls.Get = append(m.Calls.Get, organisationId)
	if m.Impl.Get != nil {
		return m.Impl.Get(ctx, organisationId)
	}

	panic(errors.New("it should not be called"))
}

func (m *OrganisationInterface) Update(
	ctx context.Context, organisationId string, delta domain.OrganisationUpdate,
) (domain.Organisation, error) {
	m.Calls.Update = append(m.Calls.Update, struct {
		OrganisationId string
		Delta          domain.OrganisationUpdate
	}{OrganisationId: organisationId, Delta: delta})
	if m.Impl.Update != nil {
		return m.Impl.Update(ctx, organisationId, delta)
	}

	panic(errors.New("it should not be called"))
}

func (m *OrganisationInterface) Delete(ctx context.Context, organisationId string) error {
	m.Calls.Delete = append(m.Calls.Delete, organisationId)
	if m.Impl.Delete != nil {
		return m.Impl.Delete(ctx, organisationId)
	}

	panic(errors.New("it should not be called"))
}
