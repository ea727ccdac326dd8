package mock

import (
	"context"
	"errors"

	"github.com/datapress/datapress/pkg/domain"
	dbmock "github.com/datapress/datapress/pkg/domain/internal/db/mock"
	kdb "github.com/datapress/datapress/pkg/domain/project/db"
)

type ProjectInterface struct {
	Impl struct {
		Create func(ctx context.Context, organisationId string, spec domain.NewProject) (domain.Project, error)
		Find   func(ctx context.Context, organisationId string, query domain.ProjectFindQuery) ([]domain.Project, error)
		Get    func(ctx context.Context, organisationId string, projectId string) (domain.Project, error)
		Update func(ctx context.Context, organisationId string, projectId string, delta domain.ProjectUpdate) (domain.Project, error)
		Delete func(ctx context.Context, organisationId string, projectId string) error
	}

	Calls struct {
		Create dbmock.CallLog[struct {
			OrganisationId string
			Spec           domain.NewProject
		}]
		Find dbmock.CallLog[struct {
			OrganisationId string
			Query          domain.ProjectFindQuery
		}]
		Get    dbmock.CallLog[struct{ OrganisationId, ProjectId string }]
		Update dbmock.CallLog[struct {
			OrganisationId string
			ProjectId      string
			Delta          domain.ProjectUpdate
		}]
		Delete dbmock.CallLog[struct{ OrganisationId, ProjectId string }]
	}
}

func NewProjectInterface() *ProjectInterface {
	return &ProjectInterface{}
}

var _ kdb.Interface = &ProjectInterface{}

func (m *ProjectInterface) Create(
	ctx context.Context, organisationId string, spec domain.NewProject,
) (domain.Project, error) {
	m.Calls.Create = append(m.Calls.Create, struct {
		OrganisationId string
		Spec           domain.NewProject
	}{OrganisationId: organisationId, Spec: spec})
	if m.Impl.Create != nil {
		return m.Impl.Create(ctx, organisationId, spec)
	}

	panic(errors.New("it should not be called"))
}

func (m *ProjectInterface) Find(
	ctx context.Context, organisationId string, query domain.ProjectFindQuery,
) ([]domain.Project, error) {
	m.Calls.Find = append(m.Calls.Find, struct {
		OrganisationId string
		Query          domain.ProjectFindQuery
	}{OrganisationId: organisationId, Query: query})
	if m.Impl.Find != nil {
		return m.Impl.Find(ctx, organisationId, query)
	}

	panic(errors.New("it should not be called"))
}

func (m *ProjectInterface) Get(
	ctx context.Context, organisationId string, projectId string,
) (domain.Project, error) {
	m.Calls.Get = append(m.Calls.Get, struct{ OrganisationId, ProjectId string }{
		OrganisationId: organisationId, ProjectId: projectId,
	})
	if m.Impl.Get != nil {
		return m.Impl.Get(ctx, organisationId, projectId)
	}

	panic(errors.New("it should not be called"))
}

func (m *ProjectInterface) Update(
	ctx context.Context, organisationId string, projectId string, delta domain.ProjectUpdate,
) (domain.Project, error) {
	m.Calls.Update = append(m.Calls.Update, struct {
		OrganisationId string
		ProjectId      string
		Delta          domain.ProjectUpdate
	}{OrganisationId: organisationId, ProjectId: projectId, Delta: delta})
	if m.Impl.Update != nil {
		return m.Impl.Update(ctx, organisationId, projectId, delta)
	}

	panic(errors.New("it should not be called"))
}

func (m *ProjectInterface) Delete(ctx context.Context, organisationId string, projectId string) error {
	m.Calls.Delete = append(m.Calls.Delete, struct{ OrganisationId, ProjectId string }{
		OrganisationId: organisationId, ProjectId: projectId,
	})
	if m.Impl.Delete != nil {
		return m.Impl.Delete(ctx, organisationId, projectId)
	}

	panic(errors.New("it should not be called"))
}
