package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	apierr "github.com/datapress/datapress/pkg/api/types/errors"
	apiproject "github.com/datapress/datapress/pkg/api/types/projects"
	"github.com/datapress/datapress/pkg/auth"
	"github.com/datapress/datapress/pkg/domain"
	domerr "github.com/datapress/datapress/pkg/domain/errors"
	projectdb "github.com/datapress/datapress/pkg/domain/project/db"
)

func CreateProjectHandler(dbProject projectdb.Interface) echo.HandlerFunc {
	return func(c echo.Context) error {
		c.Response().Header().Add("Content-Type", "application/json")

		spec := apiproject.Spec{}
		if err := c.Bind(&spec); err != nil {
			return apierr.BadRequest("request body should be a json Spec", err)
		}
		if spec.Name == "" || spec.CanonicalSchemaId == "" {
			return apierr.BadRequest(`"name" and "canonicalSchemaId" are required`, nil)
		}

		identity := auth.From(c)
		ctx := c.Request().Context()

		project, err := dbProject.Create(ctx, identity.OrganisationId, domain.NewProject{
			CreatedByUserId:   identity.UserId,
			CanonicalSchemaId: spec.CanonicalSchemaId,
			Name:              spec.Name,
			Description:       spec.Description,
			ProcessingConfig:  spec.ProcessingConfig,
		})
		if errors.Is(err, domerr.ErrMissing) {
			return apierr.BadRequest(`"canonicalSchemaId" is unknown`, err)
		}
		if errors.Is(err, domerr.ErrConflict) {
			return apierr.Conflict(
				"a project with the name already exists", apierr.WithError(err),
			)
		}
		if err != nil {
			return apierr.InternalServerError(err)
		}

		return c.JSON(http.StatusCreated, apiproject.ComposeDetail(project))
	}
}

func FindProjectHandler(dbProject projectdb.Interface) echo.HandlerFunc {
	return func(c echo.Context) error {
		c.Response().Header().Add("Content-Type", "application/json")

		query := domain.ProjectFindQuery{}
		if s := c.QueryParam("status"); s != "" {
			status, err := domain.AsProjectStatus(s)
			if err != nil {
				return apierr.BadRequest(
					`"status" should be one of "draft", "active" or "archived"`, err,
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

		projects, err := dbProject.Find(ctx, identity.OrganisationId, query)
		if err != nil {
			return apierr.InternalServerError(err)
		}

		resp := make([]apiproject.Detail, 0, len(projects))
		for _, p := range projects {
			resp = append(resp, apiproject.ComposeDetail(p))
		}
		return c.JSON(http.StatusOK, resp)
	}
}

func GetProjectHandler(dbProject projectdb.Interface) echo.HandlerFunc {
	return func(c echo.Context) error {
		c.Response().Header().Add("Content-Type", "application/json")
		identity := auth.From(c)
		ctx := c.Request().Context()

		project, err := dbProject.Get(ctx, identity.OrganisationId, c.Param("projectId"))
		if errors.Is(err, domerr.ErrMissing) {
			return apierr.NotFound()
		}
		if err != nil {
			return apierr.InternalServerError(err)
		}

		return c.JSON(http.StatusOK, apiproject.ComposeDetail(project))
	}
}

func UpdateProjectHandler(dbProject projectdb.Interface) echo.HandlerFunc {
	return func(c echo.Context) error {
		c.Response().Header().Add("Content-Type", "application/json")

		change := apiproject.Change{}
		if err := c.Bind(&change); err != nil {
			return apierr.BadRequest("request body should be a json Change", err)
		}

		delta := domain.ProjectUpdate{
			Name:        change.Name,
			Description: change.Description,
		}
		if change.Status != nil {
			status, err := domain.AsProjectStatus(*change.Status)
			if err != nil {
				return apierr.BadRequest(
					`"status" should be one of "draft", "active" or "archived"`, err,
				)
			}
			delta.Status = &status
		}
		if change.ReplacesConfig() {
			conf, err := change.Config()
			if err != nil {
				return apierr.BadRequest(
					`"processingConfig" should be a json object or null`, err,
				)
			}
			delta.ReplaceProcessingConfig = true
			delta.ProcessingConfig = conf
		}

		identity := auth.From(c)
		ctx := c.Request().Context()

		project, err := dbProject.Update(
			ctx, identity.OrganisationId, c.Param("projectId"), delta,
		)
		if errors.Is(err, domerr.ErrInvalidArgument) {
			return apierr.BadRequest("nothing to change", err)
		}
		if errors.Is(err, domerr.ErrMissing) {
			return apierr.NotFound()
		}
		if errors.Is(err, domerr.ErrConflict) {
			return apierr.Conflict(
				"a project with the name already exists", apierr.WithError(err),
			)
		}
		if err != nil {
			return apierr.InternalServerError(err)
		}

		return c.JSON(http.StatusOK, apiproject.ComposeDetail(project))
	}
}

func DeleteProjectHandler(dbProject projectdb.Interface) echo.HandlerFunc {
	return func(c echo.Context) error {
		c.Response().Header().Add("Content-Type", "application/json")
		identity := auth.From(c)
		ctx := c.Request().Context()

		if err := dbProject.Delete(
			ctx, identity.OrganisationId, c.Param("projectId"),
		); err != nil {
			if errors.Is(err, domerr.ErrMissing) {
				return apierr.NotFound()
			}
			return apierr.InternalServerError(err)
		}

		c.Response().WriteHeader(http.StatusNoContent)
		return nil
	}
}
