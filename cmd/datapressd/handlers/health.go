package handlers

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	apierr "github.com/datapress/datapress/pkg/api/types/errors"
)

// Pinger reports whether the backing database is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

func HealthHandler(pinger Pinger) echo.HandlerFunc {
	return func(c echo.Context) error {
		c.Response().Header().Add("Content-Type", "application/json")
		ctx := c.Request().Context()

		if err := pinger.Ping(ctx); err != nil {
			return apierr.InternalServerError(err)
		}

		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	}
}
