package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	apidataset "github.com/datapress/datapress/pkg/api/types/datasets"
	apierr "github.com/datapress/datapress/pkg/api/types/errors"
	apijob "github.com/datapress/datapress/pkg/api/types/jobs"
	"github.com/datapress/datapress/pkg/auth"
	"github.com/datapress/datapress/pkg/domain"
	domerr "github.com/datapress/datapress/pkg/domain/errors"
	jobdb "github.com/datapress/datapress/pkg/domain/job/db"
	"github.com/datapress/datapress/pkg/metrics"
)

func CreateJobHandler(dbJob jobdb.Interface, rec *metrics.Recorder) echo.HandlerFunc {
	return func(c echo.Context) error {
		c.Response().Header().Add("Content-Type", "application/json")

		spec := apijob.Spec{}
		if err := c.Bind(&spec); err != nil {
			return apierr.BadRequest("request body should be a json Spec", err)
		}
		if spec.ProjectId == "" {
			return apierr.BadRequest(`"projectId" is required`, nil)
		}
		if len(spec.SourceIds) == 0 {
			return apierr.BadRequest(`"sourceIds" should name at least one source`, nil)
		}

		trigger := domain.TriggeredManually
		if spec.TriggeredBy != "" {
			var err error
			if trigger, err = domain.AsJobTrigger(spec.TriggeredBy); err != nil {
				return apierr.BadRequest(
					`"triggeredBy" should be "manual" or "scheduled"`, err,
				)
			}
		}

		identity := auth.From(c)
		ctx := c.Request().Context()

		job, err := dbJob.Create(
			ctx, identity.OrganisationId, spec.ProjectId, identity.UserId,
			domain.JobSpec{SourceIds: spec.SourceIds, TriggeredBy: trigger},
		)
		if errors.Is(err, domerr.ErrMissing) {
			return apierr.NotFound()
		}
		if err != nil {
			return apierr.InternalServerError(err)
		}

		rec.JobCreated()
		return c.JSON(http.StatusCreated, apijob.ComposeDetail(job))
	}
}

// PickJobHandler moves a queued job to processing, stamping started_at.
// Called by the processing worker when it picks the job up.
func PickJobHandler(dbJob jobdb.Interface, paramJobId string) echo.HandlerFunc {
	return func(c echo.Context) error {
		c.Response().Header().Add("Content-Type", "application/json")
		jobId := c.Param(paramJobId)
		ctx := c.Request().Context()

		if err := dbJob.SetStatus(ctx, jobId, domain.Processing); err != nil {
			if errors.Is(err, domerr.ErrMissing) {
				return apierr.NotFound()
			}
			if errors.Is(err, domain.ErrInvalidJobStateChanging) {
				return apierr.InvalidState(
					"only a queued job can be picked up", apierr.WithError(err),
				)
			}
			return apierr.InternalServerError(err)
		}

		c.Response().WriteHeader(http.StatusNoContent)
		return nil
	}
}

// CompleteJobHandler records the worker's result: the job moves to
// completed and its dataset row is registered, in one transaction.
func CompleteJobHandler(
	dbJob jobdb.Interface, paramJobId string, rec *metrics.Recorder,
) echo.HandlerFunc {
	return func(c echo.Context) error {
		c.Response().Header().Add("Content-Type", "application/json")

		result := apijob.Result{}
		if err := c.Bind(&result); err != nil {
			return apierr.BadRequest("request body should be a json Result", err)
		}
		format, err := domain.AsOutputFormat(result.Dataset.OutputFormat)
		if err != nil {
			return apierr.BadRequest(
				`"dataset.outputFormat" should be one of "conversationalJsonl", "qaJson" or "structuredJson"`,
				err,
			)
		}
		if result.Dataset.Name == "" || result.Dataset.OutputStoragePath == "" {
			return apierr.BadRequest(
				`"dataset.name" and "dataset.outputStoragePath" are required`, nil,
			)
		}

		jobId := c.Param(paramJobId)
		ctx := c.Request().Context()

		dataset, err := dbJob.Complete(ctx, jobId, domain.JobResult{
			InputRecordCount:  result.InputRecordCount,
			OutputRecordCount: result.OutputRecordCount,
			Dataset: domain.NewDataset{
				Name:              result.Dataset.Name,
				OutputFormat:      format,
				OutputStoragePath: result.Dataset.OutputStoragePath,
				RecordCount:       result.Dataset.RecordCount,
				FileSizeBytes:     result.Dataset.FileSizeBytes,
				LineageData:       result.Dataset.LineageData,
			},
		})
		if errors.Is(err, domerr.ErrMissing) {
			return apierr.NotFound()
		}
		if errors.Is(err, domain.ErrInvalidJobStateChanging) {
			return apierr.InvalidState(
				"only a processing job can complete", apierr.WithError(err),
			)
		}
		if err != nil {
			return apierr.InternalServerError(err)
		}

		rec.JobFinished(domain.Completed.String())
		return c.JSON(http.StatusOK, apidataset.ComposeDetail(dataset))
	}
}

// FailJobHandler records the worker's failure report.
func FailJobHandler(
	dbJob jobdb.Interface, paramJobId string, rec *metrics.Recorder,
) echo.HandlerFunc {
	return func(c echo.Context) error {
		c.Response().Header().Add("Content-Type", "application/json")

		failure := apijob.Failure{}
		if err := c.Bind(&failure); err != nil {
			return apierr.BadRequest("request body should be a json Failure", err)
		}
		if failure.ErrorMessage == "" {
			return apierr.BadRequest(`"errorMessage" is required`, nil)
		}

		jobId := c.Param(paramJobId)
		ctx := c.Request().Context()

		if err := dbJob.Fail(ctx, jobId, failure.ErrorMessage); err != nil {
			if errors.Is(err, domerr.ErrMissing) {
				return apierr.NotFound()
			}
			if errors.Is(err, domain.ErrInvalidJobStateChanging) {
				return apierr.InvalidState(
					"only a processing job can fail", apierr.WithError(err),
				)
			}
			return apierr.InternalServerError(err)
		}

		rec.JobFinished(domain.Failed.String())
		c.Response().WriteHeader(http.StatusNoContent)
		return nil
	}
}

func FindJobHandler(dbJob jobdb.Interface) echo.HandlerFunc {
	return func(c echo.Context) error {
		c.Response().Header().Add("Content-Type", "application/json")

		query := domain.JobFindQuery{
			ProjectId: c.QueryParam("projectId"),
		}
		if s := c.QueryParam("status"); s != "" {
			status, err := domain.AsJobStatus(s)
			if err != nil {
				return apierr.BadRequest(
					`"status" should be one of "queued", "processing", "completed" or "failed"`,
					err,
				)
			}
			query.Status = status
		}
		var err error
		if query.Page, query.Limit, err = pagingParams(c); err != nil {
			return err
		}

		identity := auth.From(c)
		ctx := c.Request().Context()

		jobs, err := dbJob.Find(ctx, identity.OrganisationId, query)
		if err != nil {
			return apierr.InternalServerError(err)
		}

		resp := make([]apijob.Detail, 0, len(jobs))
		for _, j := range jobs {
			resp = append(resp, apijob.ComposeDetail(j))
		}
		return c.JSON(http.StatusOK, resp)
	}
}

func GetJobHandler(dbJob jobdb.Interface) echo.HandlerFunc {
	return func(c echo.Context) error {
		c.Response().Header().Add("Content-Type", "application/json")
		identity := auth.From(c)
		ctx := c.Request().Context()

		job, err := dbJob.Get(ctx, identity.OrganisationId, c.Param("jobId"))
		if errors.Is(err, domerr.ErrMissing) {
			return apierr.NotFound()
		}
		if err != nil {
			return apierr.InternalServerError(err)
		}

		return c.JSON(http.StatusOK, apijob.ComposeDetail(job))
	}
}

// RetryJobHandler registers a new queued job from a failed one. The
// failed job stays as it is.
func RetryJobHandler(dbJob jobdb.Interface, rec *metrics.Recorder) echo.HandlerFunc {
	return func(c echo.Context) error {
		c.Response().Header().Add("Content-Type", "application/json")
		identity := auth.From(c)
		ctx := c.Request().Context()

		job, err := dbJob.Retry(
			ctx, identity.OrganisationId, c.Param("jobId"), identity.UserId,
		)
		if errors.Is(err, domerr.ErrMissing) {
			return apierr.NotFound()
		}
		if errors.Is(err, domain.ErrInvalidJobStateChanging) {
			return apierr.InvalidState(
				"only a failed job can be retried",
				apierr.WithError(err),
			)
		}
		if err != nil {
			return apierr.InternalServerError(err)
		}

		rec.JobCreated()
		return c.JSON(http.StatusCreated, apijob.ComposeDetail(job))
	}
}
