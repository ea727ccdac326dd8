package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	apidataset "github.com/datapress/datapress/pkg/api/types/datasets"
	apierr "github.com/datapress/datapress/pkg/api/types/errors"
	apijob "github.com/datapress/datapress/pkg/api/types/jobs"
	apisource "github.com/datapress/datapress/pkg/api/types/sources"
	"github.com/datapress/datapress/pkg/auth"
	"github.com/datapress/datapress/pkg/domain"
	datasetdb "github.com/datapress/datapress/pkg/domain/dataset/db"
	domerr "github.com/datapress/datapress/pkg/domain/errors"
	jobdb "github.com/datapress/datapress/pkg/domain/job/db"
	projectdb "github.com/datapress/datapress/pkg/domain/project/db"
	sourcedb "github.com/datapress/datapress/pkg/domain/source/db"
)

// resolveProject asserts that the caller owns a live project before its
// children are listed. A foreign or deleted project is Not Found, not an
// empty list.
func resolveProject(c echo.Context, dbProject projectdb.Interface) (string, error) {
	identity := auth.From(c)
	projectId := c.Param("projectId")

	_, err := dbProject.Get(c.Request().Context(), identity.OrganisationId, projectId)
	if errors.Is(err, domerr.ErrMissing) {
		return "", apierr.NotFound()
	}
	if err != nil {
		return "", apierr.InternalServerError(err)
	}
	return projectId, nil
}

// FindProjectSourcesHandler lists the sources of one owned project.
func FindProjectSourcesHandler(
	dbProject projectdb.Interface, dbSource sourcedb.Interface,
) echo.HandlerFunc {
	return func(c echo.Context) error {
		c.Response().Header().Add("Content-Type", "application/json")

		projectId, err := resolveProject(c, dbProject)
		if err != nil {
			return err
		}

		query := domain.SourceFindQuery{ProjectId: projectId}
		if s := c.QueryParam("status"); s != "" {
			status, err := domain.AsSourceStatus(s)
			if err != nil {
				return apierr.BadRequest(
					`"status" should be one of "connected", "cached", "expired" or "error"`,
					err,
				)
			}
			query.Status = status
		}
		if query.Page, query.Limit, err = pagingParams(c); err != nil {
			return err
		}

		identity := auth.From(c)
		sources, err := dbSource.Find(c.Request().Context(), identity.OrganisationId, query)
		if err != nil {
			return apierr.InternalServerError(err)
		}

		resp := make([]apisource.Detail, 0, len(sources))
		for _, s := range sources {
			resp = append(resp, apisource.ComposeDetail(s))
		}
		return c.JSON(http.StatusOK, resp)
	}
}

// FindProjectJobsHandler lists the processing jobs of one owned project.
func FindProjectJobsHandler(
	dbProject projectdb.Interface, dbJob jobdb.Interface,
) echo.HandlerFunc {
	return func(c echo.Context) error {
		c.Response().Header().Add("Content-Type", "application/json")

		projectId, err := resolveProject(c, dbProject)
		if err != nil {
			return err
		}

		query := domain.JobFindQuery{ProjectId: projectId}
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
		if query.Page, query.Limit, err = pagingParams(c); err != nil {
			return err
		}

		identity := auth.From(c)
		jobs, err := dbJob.Find(c.Request().Context(), identity.OrganisationId, query)
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

// FindProjectDatasetsHandler lists the datasets of one owned project.
func FindProjectDatasetsHandler(
	dbProject projectdb.Interface, dbDataset datasetdb.Interface,
) echo.HandlerFunc {
	return func(c echo.Context) error {
		c.Response().Header().Add("Content-Type", "application/json")

		projectId, err := resolveProject(c, dbProject)
		if err != nil {
			return err
		}

		query := domain.DatasetFindQuery{ProjectId: projectId}
		if f := c.QueryParam("outputFormat"); f != "" {
			format, err := domain.AsOutputFormat(f)
			if err != nil {
				return apierr.BadRequest(
					`"outputFormat" should be one of "conversationalJsonl", "qaJson" or "structuredJson"`,
					err,
				)
			}
			query.OutputFormat = format
		}
		if query.Page, query.Limit, err = pagingParams(c); err != nil {
			return err
		}

		identity := auth.From(c)
		datasets, err := dbDataset.Find(c.Request().Context(), identity.OrganisationId, query)
		if err != nil {
			return apierr.InternalServerError(err)
		}

		resp := make([]apidataset.Detail, 0, len(datasets))
		for _, d := range datasets {
			resp = append(resp, apidataset.ComposeDetail(d))
		}
		return c.JSON(http.StatusOK, resp)
	}
}
