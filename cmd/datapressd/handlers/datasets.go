package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	apidataset "github.com/datapress/datapress/pkg/api/types/datasets"
	apierr "github.com/datapress/datapress/pkg/api/types/errors"
	"github.com/datapress/datapress/pkg/auth"
	"github.com/datapress/datapress/pkg/blob"
	"github.com/datapress/datapress/pkg/domain"
	datasetdb "github.com/datapress/datapress/pkg/domain/dataset/db"
	domerr "github.com/datapress/datapress/pkg/domain/errors"
)

func FindDatasetHandler(dbDataset datasetdb.Interface) echo.HandlerFunc {
	return func(c echo.Context) error {
		c.Response().Header().Add("Content-Type", "application/json")

		query := domain.DatasetFindQuery{
			ProjectId: c.QueryParam("projectId"),
		}
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
		var err error
		if query.Page, query.Limit, err = pagingParams(c); err != nil {
			return err
		}

		identity := auth.From(c)
		ctx := c.Request().Context()

		datasets, err := dbDataset.Find(ctx, identity.OrganisationId, query)
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

func GetDatasetHandler(dbDataset datasetdb.Interface) echo.HandlerFunc {
	return func(c echo.Context) error {
		c.Response().Header().Add("Content-Type", "application/json")
		identity := auth.From(c)
		ctx := c.Request().Context()

		dataset, err := dbDataset.Get(ctx, identity.OrganisationId, c.Param("datasetId"))
		if errors.Is(err, domerr.ErrMissing) {
			return apierr.NotFound()
		}
		if err != nil {
			return apierr.InternalServerError(err)
		}

		return c.JSON(http.StatusOK, apidataset.ComposeDetail(dataset))
	}
}

// DownloadDatasetHandler streams the dataset file from the blob store.
func DownloadDatasetHandler(dbDataset datasetdb.Interface, store blob.Store) echo.HandlerFunc {
	return func(c echo.Context) error {
		identity := auth.From(c)
		ctx := c.Request().Context()

		dataset, err := dbDataset.Get(ctx, identity.OrganisationId, c.Param("datasetId"))
		if errors.Is(err, domerr.ErrMissing) {
			return apierr.NotFound()
		}
		if err != nil {
			return apierr.InternalServerError(err)
		}

		_, body, err := store.Get(ctx, dataset.OutputStoragePath)
		if errors.Is(err, blob.ErrNotFound) {
			// row exists but the file behind it is gone
			return apierr.NotFound()
		}
		if err != nil {
			return apierr.InternalServerError(err)
		}
		defer body.Close()

		return c.Stream(http.StatusOK, dataset.OutputFormat.MimeType(), body)
	}
}

func DeleteDatasetHandler(dbDataset datasetdb.Interface) echo.HandlerFunc {
	return func(c echo.Context) error {
		c.Response().Header().Add("Content-Type", "application/json")
		identity := auth.From(c)
		ctx := c.Request().Context()

		if err := dbDataset.Delete(
			ctx, identity.OrganisationId, c.Param("datasetId"),
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
