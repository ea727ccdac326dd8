package mock

import (
	"context"
	"errors"

	"github.com/datapress/datapress/pkg/domain"
	dbmock "github.com/datapress/datapress/pkg/domain/internal/db/mock"
	kdb "github.com/datapress/datapress/pkg/domain/job/db"
)

type JobInterface struct {
	Impl struct {
		Create    func(ctx context.Context, organisationId string, projectId string, triggeredByUserId string, spec domain.JobSpec) (domain.ProcessingJob, error)
		Find      func(ctx context.Context, organisationId string, query domain.JobFindQuery) ([]domain.ProcessingJob, error)
		Get       func(ctx context.Context, organisationId string, jobId string) (domain.ProcessingJob, error)
		Retry     func(ctx context.Context, organisationId string, jobId string, triggeredByUserId string) (domain.ProcessingJob, error)
		SetStatus func(ctx context.Context, jobId string, newStatus domain.JobStatus) error
		Complete  func(ctx context.Context, jobId string, result domain.JobResult) (domain.Dataset, error)
		Fail      func(ctx context.Context, jobId string, message string) error
	}

	Calls struct {
		Create dbmock.CallLog[struct {
			OrganisationId    string
			ProjectId         string
			TriggeredByUserId string
			Spec              domain.JobSpec
		}]
		Find dbmock.CallLog[struct {
			OrganisationId string
			Query          domain.JobFindQuery
		}]
		Get   dbmock.CallLog[struct{ OrganisationId, JobId string }]
		Retry dbmock.CallLog[struct {
			OrganisationId    string
			JobId             string
			TriggeredByUserId string
		}]
		SetStatus dbmock.CallLog[struct {
			JobId     string
			NewStatus domain.JobStatus
		}]
		Complete dbmock.CallLog[struct {
			JobId  string
			Result domain.JobResult
		}]
		Fail dbmock.CallLog[struct {
			JobId   string
			Message string
		}]
	}
}

func NewJobInterface() *JobInterface {
	return &JobInterface{}
}

var _ kdb.Interface = &JobInterface{}

func (m *JobInterface) Create(
	ctx context.Context,
	organisationId string, projectId string, triggeredByUserId string,
	spec domain.JobSpec,
) (domain.ProcessingJob, error) {
	m.Calls.Create = append(m.Calls.Create, struct {
		OrganisationId    string
		ProjectId         string
		TriggeredByUserId string
		Spec              domain.JobSpec
	}{
		OrganisationId: organisationId, ProjectId: projectId,
		TriggeredByUserId: triggeredByUserId, Spec: spec,
	})
	if m.Impl.Create != nil {
		return m.Impl.Create(ctx, organisationId, projectId, triggeredByUserId, spec)
	}

	panic(errors.New("it should not be called"))
}

func (m *JobInterface) Find(
	ctx context.Context, organisationId string, query domain.JobFindQuery,
) ([]domain.ProcessingJob, error) {
	m.Calls.Find = append(m.Calls.Find, struct {
		OrganisationId string
		Query          domain.JobFindQuery
	}{OrganisationId: organisationId, Query: query})
	if m.Impl.Find != nil {
		return m.Impl.Find(ctx, organisationId, query)
	}

	panic(errors.New("it should not be called"))
}

func (m *JobInterface) Get(ctx context.Context, organisationId string, jobId string) (domain.ProcessingJob, error) {
	m.Calls.Get = append(m.Calls.Get, struct{ OrganisationId, JobId string }{
		OrganisationId: organisationId, JobId: jobId,
	})
	if m.Impl.Get != nil {
		return m.Impl.Get(ctx, organisationId, jobId)
	}

	panic(errors.New("it should not be called"))
}

func (m *JobInterface) Retry(
	ctx context.Context, organisationId string, jobId string, triggeredByUserId string,
) (domain.ProcessingJob, error) {
	m.Calls.Retry = append(m.Calls.Retry, struct {
		OrganisationId    string
		JobId             string
		TriggeredByUserId string
	}{OrganisationId: organisationId, JobId: jobId, TriggeredByUserId: triggeredByUserId})
	if m.Impl.Retry != nil {
		return m.Impl.Retry(ctx, organisationId, jobId, triggeredByUserId)
	}

	panic(errors.New("it should not be called"))
}

func (m *JobInterface) SetStatus(ctx context.Context, jobId string, newStatus domain.JobStatus) error {
	m.Calls.SetStatus = append(m.Calls.SetStatus, struct {
		JobId     string
		NewStatus domain.JobStatus
	}{JobId: jobId, NewStatus: newStatus})
	if m.Impl.SetStatus != nil {
		return m.Impl.SetStatus(ctx, jobId, newStatus)
	}

	panic(errors.New("it should not be called"))
}

func (m *JobInterface) Complete(ctx context.Context, jobId string, result domain.JobResult) (domain.Dataset, error) {
	m.Calls.Complete = append(m.Calls.Complete, struct {
		JobId  string
		Result domain.JobResult
	}{JobId: jobId, Result: result})
	if m.Impl.Complete != nil {
		return m.Impl.Complete(ctx, jobId, result)
	}

	panic(errors.New("it should not be called"))
}

func (m *JobInterface) Fail(ctx context.Context, jobId string, message string) error {
	m.Calls.Fail = append(m.Calls.Fail, struct {
		JobId   string
		Message string
	}{JobId: jobId, Message: message})
	if m.Impl.Fail != nil {
		return m.Impl.Fail(ctx, jobId, message)
	}

	panic(errors.New("it should not be called"))
}
