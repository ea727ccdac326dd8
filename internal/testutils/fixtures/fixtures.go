// Package fixtures seeds database rows for store tests.
//
// Rows are created through the postgres stores themselves, so fixtures
// stay valid as the stores evolve.
package fixtures

import (
	"context"
	"fmt"
	"testing"

	dpool "github.com/datapress/datapress/pkg/conn/db/postgres/pool"
	"github.com/datapress/datapress/pkg/domain"
	orgpg "github.com/datapress/datapress/pkg/domain/organisation/db/postgres"
	projectpg "github.com/datapress/datapress/pkg/domain/project/db/postgres"
	schemapg "github.com/datapress/datapress/pkg/domain/schema/db/postgres"
	sourcepg "github.com/datapress/datapress/pkg/domain/source/db/postgres"
)

var serial int

// unique suffixes fixture names so tests can call the same helper twice.
func unique(prefix string) string {
	serial += 1
	return fmt.Sprintf("%s-%d", prefix, serial)
}

// Organisation registers a tenant with its admin user.
func Organisation(ctx context.Context, t *testing.T, pool dpool.Pool) (domain.Organisation, domain.User) {
	t.Helper()

	slug := unique("fixture")
	org, admin, err := orgpg.New(pool).Register(
		ctx,
		domain.NewOrganisation{Name: "Fixture " + slug, Slug: slug},
		domain.Registration{
			Email:        slug + "@example.com",
			Name:         "Fixture Admin",
			PasswordHash: "$2a$04$fixturefixturefixturefixture",
		},
	)
	if err != nil {
		t.Fatal(err)
	}
	return org, admin
}

// Schema registers a published canonical schema.
func Schema(ctx context.Context, t *testing.T, pool dpool.Pool) domain.CanonicalSchema {
	t.Helper()

	schema, err := schemapg.New(pool).Create(ctx, domain.NewCanonicalSchema{
		Name:    unique("fixture-schema"),
		Version: 1,
		SchemaDefinition: domain.Config{
			"type": "object",
			"properties": map[string]any{
				"messages": map[string]any{"type": "array"},
			},
		},
		Description: "schema for store tests",
		IsPublished: true,
	})
	if err != nil {
		t.Fatal(err)
	}
	return schema
}

// Project creates a project with a first-version processing config.
func Project(
	ctx context.Context, t *testing.T, pool dpool.Pool,
	organisationId, createdByUserId, schemaId string,
) domain.Project {
	t.Helper()

	project, err := projectpg.New(pool).Create(ctx, organisationId, domain.NewProject{
		CreatedByUserId:   createdByUserId,
		CanonicalSchemaId: schemaId,
		Name:              unique("fixture-project"),
		ProcessingConfig:  domain.Config{"outputFormat": "qaJson"},
	})
	if err != nil {
		t.Fatal(err)
	}
	return project
}

// FileSource attaches an uploaded-file source to the project.
func FileSource(
	ctx context.Context, t *testing.T, pool dpool.Pool,
	organisationId, projectId string,
) domain.Source {
	t.Helper()

	source, err := sourcepg.New(pool).Create(ctx, organisationId, domain.NewSource{
		ProjectId: projectId,
		Name:      unique("fixture-source"),
		Type:      domain.FileSource,
		File: &domain.FileUpload{
			UploadPath: unique("sources/fixture") + "/data.json",
			MimeType:   "application/json",
			SizeBytes:  128,
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	return source
}
