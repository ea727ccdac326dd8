package handlers

import (
	"errors"
	"net/http"
	"path"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	apierr "github.com/datapress/datapress/pkg/api/types/errors"
	apisource "github.com/datapress/datapress/pkg/api/types/sources"
	"github.com/datapress/datapress/pkg/auth"
	"github.com/datapress/datapress/pkg/blob"
	"github.com/datapress/datapress/pkg/domain"
	domerr "github.com/datapress/datapress/pkg/domain/errors"
	sourcedb "github.com/datapress/datapress/pkg/domain/source/db"
)

// CreateSourceHandler attaches a source to a project.
//
// A json body creates an api source. A multipart body with a "file"
// part uploads the payload to the blob store and creates a file source.
func CreateSourceHandler(
	dbSource sourcedb.Interface, store blob.Store, maxFileSize int64,
) echo.HandlerFunc {
	return func(c echo.Context) error {
		c.Response().Header().Add("Content-Type", "application/json")

		contentType := c.Request().Header.Get(echo.HeaderContentType)
		if strings.HasPrefix(contentType, echo.MIMEMultipartForm) {
			return createFileSource(c, dbSource, store, maxFileSize)
		}
		return createApiSource(c, dbSource)
	}
}

func createApiSource(c echo.Context, dbSource sourcedb.Interface) error {
	spec := apisource.Spec{}
	if err := c.Bind(&spec); err != nil {
		return apierr.BadRequest("request body should be a json Spec", err)
	}
	if spec.ProjectId == "" || spec.Name == "" {
		return apierr.BadRequest(`"projectId" and "name" are required`, nil)
	}
	if spec.ApiConnectionConfig == nil {
		return apierr.BadRequest(
			`"apiConnectionConfig" is required for an api source`, nil,
		)
	}

	identity := auth.From(c)
	ctx := c.Request().Context()

	source, err := dbSource.Create(ctx, identity.OrganisationId, domain.NewSource{
		ProjectId:           spec.ProjectId,
		Name:                spec.Name,
		Type:                domain.ApiSource,
		ApiConnectionConfig: spec.ApiConnectionConfig,
	})
	if errors.Is(err, domerr.ErrMissing) {
		return apierr.NotFound()
	}
	if err != nil {
		return apierr.InternalServerError(err)
	}

	return c.JSON(http.StatusCreated, apisource.ComposeDetail(source))
}

func createFileSource(
	c echo.Context, dbSource sourcedb.Interface, store blob.Store, maxFileSize int64,
) error {
	projectId := c.FormValue("projectId")
	name := c.FormValue("name")
	if projectId == "" || name == "" {
		return apierr.BadRequest(`"projectId" and "name" are required`, nil)
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return apierr.BadRequest(`multipart part "file" is required`, err)
	}
	if maxFileSize < fileHeader.Size {
		return apierr.FileSizeExceeded("upload a smaller file, or split it")
	}

	file, err := fileHeader.Open()
	if err != nil {
		return apierr.InternalServerError(err)
	}
	defer file.Close()

	mimeType := fileHeader.Header.Get("Content-Type")

	ctx := c.Request().Context()
	key := path.Join("sources", uuid.NewString(), fileHeader.Filename)
	info, err := store.Put(ctx, key, file, blob.PutOptions{ContentType: mimeType})
	if err != nil {
		return apierr.InternalServerError(err)
	}

	identity := auth.From(c)
	source, err := dbSource.Create(ctx, identity.OrganisationId, domain.NewSource{
		ProjectId: projectId,
		Name:      name,
		Type:      domain.FileSource,
		File: &domain.FileUpload{
			UploadPath: key,
			MimeType:   mimeType,
			SizeBytes:  info.Size,
		},
	})
	if err != nil {
		// the project was not visible; do not leave the upload orphaned.
		store.Delete(ctx, key)
	}
	if errors.Is(err, domerr.ErrMissing) {
		return apierr.NotFound()
	}
	if err != nil {
		return apierr.InternalServerError(err)
	}

	return c.JSON(http.StatusCreated, apisource.ComposeDetail(source))
}

func FindSourceHandler(dbSource sourcedb.Interface) echo.HandlerFunc {
	return func(c echo.Context) error {
		c.Response().Header().Add("Content-Type", "application/json")

		query := domain.SourceFindQuery{
			ProjectId: c.QueryParam("projectId"),
		}
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
		var err error
		if query.Page, query.Limit, err = pagingParams(c); err != nil {
			return err
		}

		identity := auth.From(c)
		ctx := c.Request().Context()

		sources, err := dbSource.Find(ctx, identity.OrganisationId, query)
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

func GetSourceHandler(dbSource sourcedb.Interface) echo.HandlerFunc {
	return func(c echo.Context) error {
		c.Response().Header().Add("Content-Type", "application/json")
		identity := auth.From(c)
		ctx := c.Request().Context()

		source, err := dbSource.Get(ctx, identity.OrganisationId, c.Param("sourceId"))
		if errors.Is(err, domerr.ErrMissing) {
			return apierr.NotFound()
		}
		if err != nil {
			return apierr.InternalServerError(err)
		}

		return c.JSON(http.StatusOK, apisource.ComposeDetail(source))
	}
}

func UpdateSourceHandler(dbSource sourcedb.Interface) echo.HandlerFunc {
	return func(c echo.Context) error {
		c.Response().Header().Add("Content-Type", "application/json")

		change := apisource.Change{}
		if err := c.Bind(&change); err != nil {
			return apierr.BadRequest("request body should be a json Change", err)
		}

		delta := domain.SourceUpdate{
			Name:         change.Name,
			ErrorMessage: change.ErrorMessage,
		}
		if change.Status != nil {
			status, err := domain.AsSourceStatus(*change.Status)
			if err != nil {
				return apierr.BadRequest(
					`"status" should be one of "connected", "cached", "expired" or "error"`,
					err,
				)
			}
			delta.Status = &status
		}
		if change.ReplacesConfig() {
			conf, err := change.Config()
			if err != nil {
				return apierr.BadRequest(
					`"apiConnectionConfig" should be a json object`, err,
				)
			}
			delta.ReplaceApiConnectionConfig = true
			delta.ApiConnectionConfig = conf
		}

		identity := auth.From(c)
		ctx := c.Request().Context()

		source, err := dbSource.Update(
			ctx, identity.OrganisationId, c.Param("sourceId"), delta,
		)
		if errors.Is(err, domerr.ErrInvalidArgument) {
			return apierr.BadRequest("the source does not accept this change", err)
		}
		if errors.Is(err, domerr.ErrMissing) {
			return apierr.NotFound()
		}
		if err != nil {
			return apierr.InternalServerError(err)
		}

		return c.JSON(http.StatusOK, apisource.ComposeDetail(source))
	}
}

func DeleteSourceHandler(dbSource sourcedb.Interface) echo.HandlerFunc {
	return func(c echo.Context) error {
		c.Response().Header().Add("Content-Type", "application/json")
		identity := auth.From(c)
		ctx := c.Request().Context()

		if err := dbSource.Delete(
			ctx, identity.OrganisationId, c.Param("sourceId"),
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
