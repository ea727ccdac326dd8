package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	apierr "github.com/datapress/datapress/pkg/api/types/errors"
	apiorg "github.com/datapress/datapress/pkg/api/types/orgs"
	"github.com/datapress/datapress/pkg/auth"
	"github.com/datapress/datapress/pkg/domain"
	domerr "github.com/datapress/datapress/pkg/domain/errors"
	orgdb "github.com/datapress/datapress/pkg/domain/organisation/db"
)

func GetOrganisationHandler(dbOrg orgdb.Interface) echo.HandlerFunc {
	return func(c echo.Context) error {
		c.Response().Header().Add("Content-Type", "application/json")
		identity := auth.From(c)
		ctx := c.Request().Context()

		org, err := dbOrg.Get(ctx, identity.OrganisationId)
		if errors.Is(err, domerr.ErrMissing) {
			return apierr.NotFound()
		}
		if err != nil {
			return apierr.InternalServerError(err)
		}

		return c.JSON(http.StatusOK, apiorg.ComposeDetail(org))
	}
}

func UpdateOrganisationHandler(dbOrg orgdb.Interface) echo.HandlerFunc {
	return func(c echo.Context) error {
		c.Response().Header().Add("Content-Type", "application/json")

		change := apiorg.Change{}
		if err := c.Bind(&change); err != nil {
			return apierr.BadRequest("request body should be a json Change", err)
		}

		identity := auth.From(c)
		ctx := c.Request().Context()

		org, err := dbOrg.Update(ctx, identity.OrganisationId, domain.OrganisationUpdate{
			Name: change.Name,
			Slug: change.Slug,
		})
		if errors.Is(err, domerr.ErrInvalidArgument) {
			return apierr.BadRequest("nothing to change", err)
		}
		if errors.Is(err, domerr.ErrMissing) {
			return apierr.NotFound()
		}
		if errors.Is(err, domerr.ErrConflict) {
			return apierr.Conflict("the slug is already taken", apierr.WithError(err))
		}
		if err != nil {
			return apierr.InternalServerError(err)
		}

		return c.JSON(http.StatusOK, apiorg.ComposeDetail(org))
	}
}

// DeleteOrganisationHandler soft-deletes the caller's organisation with
// its users and projects. Entities below projects stay untouched but
// become unreachable, since every read goes through a live project.
func DeleteOrganisationHandler(dbOrg orgdb.Interface) echo.HandlerFunc {
	return func(c echo.Context) error {
		c.Response().Header().Add("Content-Type", "application/json")
		identity := auth.From(c)
		ctx := c.Request().Context()

		if err := dbOrg.Delete(ctx, identity.OrganisationId); err != nil {
			if errors.Is(err, domerr.ErrMissing) {
				return apierr.NotFound()
			}
			return apierr.InternalServerError(err)
		}

		c.Response().WriteHeader(http.StatusNoContent)
		return nil
	}
}
