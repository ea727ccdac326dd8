package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	apierr "github.com/datapress/datapress/pkg/api/types/errors"
	apiuser "github.com/datapress/datapress/pkg/api/types/users"
	"github.com/datapress/datapress/pkg/auth"
	"github.com/datapress/datapress/pkg/domain"
	domerr "github.com/datapress/datapress/pkg/domain/errors"
	userdb "github.com/datapress/datapress/pkg/domain/user/db"
)

func FindUserHandler(dbUser userdb.Interface) echo.HandlerFunc {
	return func(c echo.Context) error {
		c.Response().Header().Add("Content-Type", "application/json")
		identity := auth.From(c)
		ctx := c.Request().Context()

		users, err := dbUser.Find(ctx, identity.OrganisationId)
		if err != nil {
			return apierr.InternalServerError(err)
		}

		resp := make([]apiuser.Detail, 0, len(users))
		for _, u := range users {
			resp = append(resp, apiuser.ComposeDetail(u))
		}
		return c.JSON(http.StatusOK, resp)
	}
}

func GetUserHandler(dbUser userdb.Interface) echo.HandlerFunc {
	return func(c echo.Context) error {
		c.Response().Header().Add("Content-Type", "application/json")
		identity := auth.From(c)
		ctx := c.Request().Context()

		user, err := dbUser.Get(ctx, identity.OrganisationId, c.Param("userId"))
		if errors.Is(err, domerr.ErrMissing) {
			return apierr.NotFound()
		}
		if err != nil {
			return apierr.InternalServerError(err)
		}

		return c.JSON(http.StatusOK, apiuser.ComposeDetail(user))
	}
}

func UpdateUserHandler(dbUser userdb.Interface) echo.HandlerFunc {
	return func(c echo.Context) error {
		c.Response().Header().Add("Content-Type", "application/json")

		change := apiuser.Change{}
		if err := c.Bind(&change); err != nil {
			return apierr.BadRequest("request body should be a json Change", err)
		}

		delta := domain.UserUpdate{Name: change.Name}
		if change.Role != nil {
			role, err := domain.AsUserRole(*change.Role)
			if err != nil {
				return apierr.BadRequest(`"role" should be "admin" or "member"`, err)
			}
			delta.Role = &role
		}

		identity := auth.From(c)
		ctx := c.Request().Context()

		user, err := dbUser.Update(ctx, identity.OrganisationId, c.Param("userId"), delta)
		if errors.Is(err, domerr.ErrInvalidArgument) {
			return apierr.BadRequest("nothing to change", err)
		}
		if errors.Is(err, domerr.ErrMissing) {
			return apierr.NotFound()
		}
		if err != nil {
			return apierr.InternalServerError(err)
		}

		return c.JSON(http.StatusOK, apiuser.ComposeDetail(user))
	}
}

func DeleteUserHandler(dbUser userdb.Interface) echo.HandlerFunc {
	return func(c echo.Context) error {
		c.Response().Header().Add("Content-Type", "application/json")
		identity := auth.From(c)

		if c.Param("userId") == identity.UserId {
			return apierr.BadRequest("you cannot remove yourself", nil)
		}

		ctx := c.Request().Context()
		if err := dbUser.Delete(ctx, identity.OrganisationId, c.Param("userId")); err != nil {
			if errors.Is(err, domerr.ErrMissing) {
				return apierr.NotFound()
			}
			return apierr.InternalServerError(err)
		}

		c.Response().WriteHeader(http.StatusNoContent)
		return nil
	}
}
