package handlers

import (
	"strconv"

	"github.com/labstack/echo/v4"

	apierr "github.com/datapress/datapress/pkg/api/types/errors"
)

// pagingParams reads the page and limit query params.
// Zero means "use the store default".
func pagingParams(c echo.Context) (page int, limit int, err error) {
	if p := c.QueryParam("page"); p != "" {
		page, err = strconv.Atoi(p)
		if err != nil || page < 1 {
			return 0, 0, apierr.BadRequest(`"page" should be a positive integer`, err)
		}
	}
	if l := c.QueryParam("limit"); l != "" {
		limit, err = strconv.Atoi(l)
		if err != nil || limit < 1 {
			return 0, 0, apierr.BadRequest(`"limit" should be a positive integer`, err)
		}
	}
	return page, limit, nil
}
