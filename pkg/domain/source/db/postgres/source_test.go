package source_test

import (
	"context"
	"errors"
	"testing"

	"github.com/datapress/datapress/internal/testutils/fixtures"
	"github.com/datapress/datapress/pkg/conn/db/postgres/pool/testenv"
	"github.com/datapress/datapress/pkg/domain"
	domerr "github.com/datapress/datapress/pkg/domain/errors"
	sourcepg "github.com/datapress/datapress/pkg/domain/source/db/postgres"
	"github.com/datapress/datapress/pkg/utils/pointer"
	"github.com/datapress/datapress/pkg/utils/try"
)

func TestSource_Update(t *testing.T) {
	ctx := context.Background()
	poolBroaker := testenv.NewPoolBroaker(ctx, t)

	t.Run("it renames and moves the status of a file source", func(t *testing.T) {
		pool := poolBroaker.GetPool(ctx, t)
		org, admin := fixtures.Organisation(ctx, t, pool)
		schema := fixtures.Schema(ctx, t, pool)
		project := fixtures.Project(ctx, t, pool, org.Id, admin.Id, schema.Id)
		source := fixtures.FileSource(ctx, t, pool, org.Id, project.Id)

		testee := sourcepg.New(pool)
		updated := try.To(testee.Update(ctx, org.Id, source.Id, domain.SourceUpdate{
			Name:   pointer.Ref("renamed"),
			Status: pointer.Ref(domain.Cached),
		})).OrFatal(t)

		if updated.Name != "renamed" || updated.Status != domain.Cached {
			t.Errorf("unmatch: %+v", updated)
		}
	})

	t.Run("it increments the config version of an api source on replacement", func(t *testing.T) {
		pool := poolBroaker.GetPool(ctx, t)
		org, admin := fixtures.Organisation(ctx, t, pool)
		schema := fixtures.Schema(ctx, t, pool)
		project := fixtures.Project(ctx, t, pool, org.Id, admin.Id, schema.Id)

		testee := sourcepg.New(pool)
		source := try.To(testee.Create(ctx, org.Id, domain.NewSource{
			ProjectId:           project.Id,
			Name:                "desk tickets",
			Type:                domain.ApiSource,
			ApiConnectionConfig: domain.Config{"provider": "teamwork_desk", "siteName": "acme"},
		})).OrFatal(t)
		if source.ApiConnectionConfigVersion == nil || *source.ApiConnectionConfigVersion != 1 {
			t.Fatalf("unmatch config version at creation: %v", source.ApiConnectionConfigVersion)
		}

		updated := try.To(testee.Update(ctx, org.Id, source.Id, domain.SourceUpdate{
			ReplaceApiConnectionConfig: true,
			ApiConnectionConfig:        domain.Config{"provider": "teamwork_desk", "siteName": "acme-eu"},
		})).OrFatal(t)

		if updated.ApiConnectionConfig["siteName"] != "acme-eu" {
			t.Errorf("unmatch config: %v", updated.ApiConnectionConfig)
		}
		if updated.ApiConnectionConfigVersion == nil || *updated.ApiConnectionConfigVersion != 2 {
			t.Errorf("unmatch config version: %v", updated.ApiConnectionConfigVersion)
		}
	})

	t.Run("it rejects an api connection config on a file source", func(t *testing.T) {
		pool := poolBroaker.GetPool(ctx, t)
		org, admin := fixtures.Organisation(ctx, t, pool)
		schema := fixtures.Schema(ctx, t, pool)
		project := fixtures.Project(ctx, t, pool, org.Id, admin.Id, schema.Id)
		source := fixtures.FileSource(ctx, t, pool, org.Id, project.Id)

		testee := sourcepg.New(pool)
		_, err := testee.Update(ctx, org.Id, source.Id, domain.SourceUpdate{
			ReplaceApiConnectionConfig: true,
			ApiConnectionConfig:        domain.Config{"provider": "teamwork_desk"},
		})
		if !errors.Is(err, domerr.ErrInvalidArgument) {
			t.Errorf("got %v, want ErrInvalidArgument", err)
		}

		// the source is left as it was
		got := try.To(testee.Get(ctx, org.Id, source.Id)).OrFatal(t)
		if got.ApiConnectionConfig != nil || got.File == nil {
			t.Errorf("the file source has been rewritten: %+v", got)
		}
	})
}
