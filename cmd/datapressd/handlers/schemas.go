package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/santhosh-tekuri/jsonschema/v6"

	apierr "github.com/datapress/datapress/pkg/api/types/errors"
	apischema "github.com/datapress/datapress/pkg/api/types/schemas"
	"github.com/datapress/datapress/pkg/domain"
	domerr "github.com/datapress/datapress/pkg/domain/errors"
	schemadb "github.com/datapress/datapress/pkg/domain/schema/db"
)

// compileSchemaDefinition checks that definition is a valid JSON Schema.
func compileSchemaDefinition(definition map[string]any) error {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("definition.json", any(definition)); err != nil {
		return err
	}
	_, err := compiler.Compile("definition.json")
	return err
}

func CreateSchemaHandler(dbSchema schemadb.Interface) echo.HandlerFunc {
	return func(c echo.Context) error {
		c.Response().Header().Add("Content-Type", "application/json")

		spec := apischema.Spec{}
		if err := c.Bind(&spec); err != nil {
			return apierr.BadRequest("request body should be a json Spec", err)
		}
		if spec.Name == "" || spec.SchemaDefinition == nil {
			return apierr.BadRequest(`"name" and "schemaDefinition" are required`, nil)
		}
		if err := compileSchemaDefinition(spec.SchemaDefinition); err != nil {
			return apierr.BadRequest(
				`"schemaDefinition" should be a valid JSON Schema`, err,
			)
		}

		ctx := c.Request().Context()
		schema, err := dbSchema.Create(ctx, domain.NewCanonicalSchema{
			Name:             spec.Name,
			Version:          spec.Version,
			SchemaDefinition: spec.SchemaDefinition,
			Description:      spec.Description,
			IsPublished:      spec.IsPublished,
		})
		if errors.Is(err, domerr.ErrConflict) {
			return apierr.Conflict(
				"a schema with the name and version already exists",
				apierr.WithError(err),
			)
		}
		if err != nil {
			return apierr.InternalServerError(err)
		}

		return c.JSON(http.StatusCreated, apischema.ComposeDetail(schema))
	}
}

func FindSchemaHandler(dbSchema schemadb.Interface) echo.HandlerFunc {
	return func(c echo.Context) error {
		c.Response().Header().Add("Content-Type", "application/json")

		query := domain.CanonicalSchemaFindQuery{}
		if p := c.QueryParam("isPublished"); p != "" {
			published, err := strconv.ParseBool(p)
			if err != nil {
				return apierr.BadRequest(`"isPublished" should be true or false`, err)
			}
			query.IsPublished = &published
		}
		var err error
		if query.Page, query.Limit, err = pagingParams(c); err != nil {
			return err
		}

		ctx := c.Request().Context()
		schemas, err := dbSchema.Find(ctx, query)
		if err != nil {
			return apierr.InternalServerError(err)
		}

		resp := make([]apischema.Detail, 0, len(schemas))
		for _, s := range schemas {
			resp = append(resp, apischema.ComposeDetail(s))
		}
		return c.JSON(http.StatusOK, resp)
	}
}

func GetSchemaHandler(dbSchema schemadb.Interface) echo.HandlerFunc {
	return func(c echo.Context) error {
		c.Response().Header().Add("Content-Type", "application/json")
		ctx := c.Request().Context()

		schema, err := dbSchema.Get(ctx, c.Param("schemaId"))
		if errors.Is(err, domerr.ErrMissing) {
			return apierr.NotFound()
		}
		if err != nil {
			return apierr.InternalServerError(err)
		}

		return c.JSON(http.StatusOK, apischema.ComposeDetail(schema))
	}
}

func UpdateSchemaHandler(dbSchema schemadb.Interface) echo.HandlerFunc {
	return func(c echo.Context) error {
		c.Response().Header().Add("Content-Type", "application/json")

		change := apischema.Change{}
		if err := c.Bind(&change); err != nil {
			return apierr.BadRequest("request body should be a json Change", err)
		}

		delta := domain.CanonicalSchemaUpdate{
			Description: change.Description,
			IsPublished: change.IsPublished,
		}
		if change.SchemaDefinition != nil {
			if err := compileSchemaDefinition(change.SchemaDefinition); err != nil {
				return apierr.BadRequest(
					`"schemaDefinition" should be a valid JSON Schema`, err,
				)
			}
			delta.ReplaceSchemaDefinition = true
			delta.SchemaDefinition = change.SchemaDefinition
		}

		ctx := c.Request().Context()
		schema, err := dbSchema.Update(ctx, c.Param("schemaId"), delta)
		if errors.Is(err, domerr.ErrInvalidArgument) {
			return apierr.BadRequest("nothing to change", err)
		}
		if errors.Is(err, domerr.ErrMissing) {
			return apierr.NotFound()
		}
		if err != nil {
			return apierr.InternalServerError(err)
		}

		return c.JSON(http.StatusOK, apischema.ComposeDetail(schema))
	}
}
