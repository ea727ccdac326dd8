package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	apierr "github.com/datapress/datapress/pkg/api/types/errors"
	apisource "github.com/datapress/datapress/pkg/api/types/sources"
	"github.com/datapress/datapress/pkg/auth"
	"github.com/datapress/datapress/pkg/connectors/teamworkdesk"
	"github.com/datapress/datapress/pkg/crypt"
	"github.com/datapress/datapress/pkg/domain"
	domerr "github.com/datapress/datapress/pkg/domain/errors"
	sourcedb "github.com/datapress/datapress/pkg/domain/source/db"
)

type teamworkDeskConnectionRequest struct {
	SiteName string `json:"siteName"`
	ApiKey   string `json:"apiKey"`
}

type teamworkDeskConnectionResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type teamworkDeskSourceRequest struct {
	ProjectId string `json:"projectId"`
	Name      string `json:"name"`
	SiteName  string `json:"siteName"`
	ApiKey    string `json:"apiKey"`
}

func mapTeamworkDeskError(err error) error {
	switch {
	case errors.Is(err, teamworkdesk.ErrBadCredentials),
		errors.Is(err, teamworkdesk.ErrSiteNotFound),
		errors.Is(err, teamworkdesk.ErrRateLimited):
		return apierr.BadRequest(err.Error(), err)
	default:
		return apierr.InternalServerError(err)
	}
}

// TestTeamworkDeskConnectionHandler validates credentials against the
// Teamwork Desk api without persisting anything.
func TestTeamworkDeskConnectionHandler(client *teamworkdesk.Client) echo.HandlerFunc {
	return func(c echo.Context) error {
		c.Response().Header().Add("Content-Type", "application/json")

		req := teamworkDeskConnectionRequest{}
		if err := c.Bind(&req); err != nil {
			return apierr.BadRequest("request body should be json", err)
		}
		if req.SiteName == "" || req.ApiKey == "" {
			return apierr.BadRequest(`"siteName" and "apiKey" are required`, nil)
		}

		ctx := c.Request().Context()
		if err := client.TestConnection(ctx, req.SiteName, req.ApiKey); err != nil {
			return mapTeamworkDeskError(err)
		}

		return c.JSON(http.StatusOK, teamworkDeskConnectionResponse{
			Success: true,
			Message: "successfully connected to Teamwork Desk",
		})
	}
}

// CreateTeamworkDeskSourceHandler verifies credentials, seals the api
// key and attaches an api source carrying the connection config.
func CreateTeamworkDeskSourceHandler(
	dbSource sourcedb.Interface, client *teamworkdesk.Client, key *crypt.Key,
) echo.HandlerFunc {
	return func(c echo.Context) error {
		c.Response().Header().Add("Content-Type", "application/json")

		req := teamworkDeskSourceRequest{}
		if err := c.Bind(&req); err != nil {
			return apierr.BadRequest("request body should be json", err)
		}
		if req.ProjectId == "" || req.Name == "" ||
			req.SiteName == "" || req.ApiKey == "" {
			return apierr.BadRequest(
				`"projectId", "name", "siteName" and "apiKey" are required`, nil,
			)
		}

		ctx := c.Request().Context()
		if err := client.TestConnection(ctx, req.SiteName, req.ApiKey); err != nil {
			return mapTeamworkDeskError(err)
		}

		sealed, err := crypt.Seal(key, req.ApiKey)
		if err != nil {
			return apierr.InternalServerError(err)
		}
		conf := teamworkdesk.NewConnectionConfig(req.SiteName, sealed)

		identity := auth.From(c)
		source, err := dbSource.Create(ctx, identity.OrganisationId, domain.NewSource{
			ProjectId: req.ProjectId,
			Name:      req.Name,
			Type:      domain.ApiSource,
			ApiConnectionConfig: domain.Config{
				"provider": conf.Provider,
				"siteName": conf.SiteName,
				"apiKey":   conf.ApiKey,
				"dataType": conf.DataType,
			},
		})
		if errors.Is(err, domerr.ErrMissing) {
			return apierr.NotFound()
		}
		if err != nil {
			return apierr.InternalServerError(err)
		}

		return c.JSON(http.StatusCreated, apisource.ComposeDetail(source))
	}
}
