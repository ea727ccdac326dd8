package job_test

import (
	"context"
	"errors"
	"testing"

	"github.com/datapress/datapress/internal/testutils/fixtures"
	"github.com/datapress/datapress/pkg/conn/db/postgres/pool/testenv"
	"github.com/datapress/datapress/pkg/domain"
	datasetpg "github.com/datapress/datapress/pkg/domain/dataset/db/postgres"
	domerr "github.com/datapress/datapress/pkg/domain/errors"
	jobpg "github.com/datapress/datapress/pkg/domain/job/db/postgres"
	projectpg "github.com/datapress/datapress/pkg/domain/project/db/postgres"
	"github.com/datapress/datapress/pkg/utils/cmp"
	"github.com/datapress/datapress/pkg/utils/try"
)

func TestJob_Create(t *testing.T) {
	ctx := context.Background()
	poolBroaker := testenv.NewPoolBroaker(ctx, t)

	t.Run("it freezes the project configuration into the snapshot", func(t *testing.T) {
		pool := poolBroaker.GetPool(ctx, t)
		org, admin := fixtures.Organisation(ctx, t, pool)
		schema := fixtures.Schema(ctx, t, pool)
		project := fixtures.Project(ctx, t, pool, org.Id, admin.Id, schema.Id)
		source := fixtures.FileSource(ctx, t, pool, org.Id, project.Id)

		testee := jobpg.New(pool)
		job := try.To(testee.Create(
			ctx, org.Id, project.Id, admin.Id,
			domain.JobSpec{SourceIds: []string{source.Id}},
		)).OrFatal(t)

		if job.Status != domain.Queued {
			t.Errorf("new job is not queued: %s", job.Status)
		}
		if job.TriggeredBy != domain.TriggeredManually {
			t.Errorf("unmatch triggeredBy: %s", job.TriggeredBy)
		}
		if job.TriggeredByUserId == nil || *job.TriggeredByUserId != admin.Id {
			t.Errorf("unmatch triggeredByUserId: %v", job.TriggeredByUserId)
		}
		if job.ConfigSnapshot.CanonicalSchemaId != schema.Id {
			t.Errorf("unmatch canonicalSchemaId: %s", job.ConfigSnapshot.CanonicalSchemaId)
		}
		if !cmp.SliceEq(job.ConfigSnapshot.SourceIds, []string{source.Id}) {
			t.Errorf("unmatch sourceIds: %+v", job.ConfigSnapshot.SourceIds)
		}
		if job.ConfigSnapshotVersion != 1 {
			t.Errorf("unmatch snapshot version: %d", job.ConfigSnapshotVersion)
		}

		// replacing the config after creation must not reach the snapshot
		try.To(projectpg.New(pool).Update(ctx, org.Id, project.Id, domain.ProjectUpdate{
			ReplaceProcessingConfig: true,
			ProcessingConfig:        domain.Config{"outputFormat": "structuredJson"},
		})).OrFatal(t)

		got := try.To(testee.Get(ctx, org.Id, job.Id)).OrFatal(t)
		if got.ConfigSnapshot.ProjectConfig["outputFormat"] != "qaJson" {
			t.Errorf("snapshot follows the project: %v", got.ConfigSnapshot.ProjectConfig)
		}
		if got.ConfigSnapshotVersion != 1 {
			t.Errorf("snapshot version follows the project: %d", got.ConfigSnapshotVersion)
		}
	})

	t.Run("it pins the snapshot version at 1 for a well-edited project", func(t *testing.T) {
		pool := poolBroaker.GetPool(ctx, t)
		org, admin := fixtures.Organisation(ctx, t, pool)
		schema := fixtures.Schema(ctx, t, pool)
		project := fixtures.Project(ctx, t, pool, org.Id, admin.Id, schema.Id)

		// push the project to config version 3 before the first job
		projects := projectpg.New(pool)
		for _, format := range []string{"structuredJson", "conversationalJsonl"} {
			try.To(projects.Update(ctx, org.Id, project.Id, domain.ProjectUpdate{
				ReplaceProcessingConfig: true,
				ProcessingConfig:        domain.Config{"outputFormat": format},
			})).OrFatal(t)
		}

		testee := jobpg.New(pool)
		job := try.To(testee.Create(ctx, org.Id, project.Id, admin.Id, domain.JobSpec{})).OrFatal(t)

		if job.ConfigSnapshotVersion != 1 {
			t.Errorf("unmatch snapshot version: %d", job.ConfigSnapshotVersion)
		}
		if job.ConfigSnapshot.ProjectConfig["outputFormat"] != "conversationalJsonl" {
			t.Errorf("snapshot misses the latest config: %v", job.ConfigSnapshot.ProjectConfig)
		}
	})

	t.Run("it rejects a project of another organisation", func(t *testing.T) {
		pool := poolBroaker.GetPool(ctx, t)
		org, admin := fixtures.Organisation(ctx, t, pool)
		schema := fixtures.Schema(ctx, t, pool)
		project := fixtures.Project(ctx, t, pool, org.Id, admin.Id, schema.Id)

		stranger, _ := fixtures.Organisation(ctx, t, pool)

		testee := jobpg.New(pool)
		_, err := testee.Create(ctx, stranger.Id, project.Id, "", domain.JobSpec{})
		if !errors.Is(err, domerr.ErrMissing) {
			t.Errorf("got %v, want ErrMissing", err)
		}
	})

	t.Run("it rejects a spec naming a source of another project", func(t *testing.T) {
		pool := poolBroaker.GetPool(ctx, t)
		org, admin := fixtures.Organisation(ctx, t, pool)
		schema := fixtures.Schema(ctx, t, pool)
		project := fixtures.Project(ctx, t, pool, org.Id, admin.Id, schema.Id)

		other := fixtures.Project(ctx, t, pool, org.Id, admin.Id, schema.Id)
		otherSource := fixtures.FileSource(ctx, t, pool, org.Id, other.Id)

		testee := jobpg.New(pool)
		_, err := testee.Create(
			ctx, org.Id, project.Id, admin.Id,
			domain.JobSpec{SourceIds: []string{otherSource.Id}},
		)
		if !errors.Is(err, domerr.ErrMissing) {
			t.Errorf("got %v, want ErrMissing", err)
		}
	})
}

func TestJob_lifecycle(t *testing.T) {
	ctx := context.Background()
	poolBroaker := testenv.NewPoolBroaker(ctx, t)

	t.Run("it completes a picked job and registers its dataset", func(t *testing.T) {
		pool := poolBroaker.GetPool(ctx, t)
		org, admin := fixtures.Organisation(ctx, t, pool)
		schema := fixtures.Schema(ctx, t, pool)
		project := fixtures.Project(ctx, t, pool, org.Id, admin.Id, schema.Id)

		testee := jobpg.New(pool)
		job := try.To(testee.Create(ctx, org.Id, project.Id, admin.Id, domain.JobSpec{})).OrFatal(t)

		if err := testee.SetStatus(ctx, job.Id, domain.Processing); err != nil {
			t.Fatal(err)
		}
		picked := try.To(testee.Get(ctx, org.Id, job.Id)).OrFatal(t)
		if picked.Status != domain.Processing {
			t.Errorf("unmatch status: %s", picked.Status)
		}
		if picked.StartedAt == nil {
			t.Errorf("started_at is not stamped")
		}

		dataset := try.To(testee.Complete(ctx, job.Id, domain.JobResult{
			InputRecordCount:  100,
			OutputRecordCount: 80,
			Dataset: domain.NewDataset{
				Name:              "completed dataset",
				OutputFormat:      domain.QaJson,
				OutputStoragePath: "datasets/x/output.json",
				RecordCount:       80,
				FileSizeBytes:     2048,
				LineageData:       domain.Config{"jobId": job.Id},
			},
		})).OrFatal(t)

		completed := try.To(testee.Get(ctx, org.Id, job.Id)).OrFatal(t)
		if completed.Status != domain.Completed {
			t.Errorf("unmatch status: %s", completed.Status)
		}
		if completed.InputRecordCount == nil || *completed.InputRecordCount != 100 {
			t.Errorf("unmatch inputRecordCount: %v", completed.InputRecordCount)
		}
		if completed.OutputRecordCount == nil || *completed.OutputRecordCount != 80 {
			t.Errorf("unmatch outputRecordCount: %v", completed.OutputRecordCount)
		}
		if completed.CompletedAt == nil {
			t.Errorf("completed_at is not stamped")
		}

		if dataset.ProjectId != project.Id || dataset.ProcessingJobId != job.Id {
			t.Errorf("dataset is not linked to the job: %+v", dataset)
		}
		found := try.To(
			datasetpg.New(pool).Get(ctx, org.Id, dataset.Id),
		).OrFatal(t)
		if found.Name != "completed dataset" || found.OutputFormat != domain.QaJson {
			t.Errorf("unmatch dataset: %+v", found)
		}
	})

	t.Run("it rejects transitions the status machine forbids", func(t *testing.T) {
		pool := poolBroaker.GetPool(ctx, t)
		org, admin := fixtures.Organisation(ctx, t, pool)
		schema := fixtures.Schema(ctx, t, pool)
		project := fixtures.Project(ctx, t, pool, org.Id, admin.Id, schema.Id)

		testee := jobpg.New(pool)
		job := try.To(testee.Create(ctx, org.Id, project.Id, admin.Id, domain.JobSpec{})).OrFatal(t)

		// a queued job cannot complete or fail without being picked up
		if _, err := testee.Complete(ctx, job.Id, domain.JobResult{
			Dataset: domain.NewDataset{Name: "x", OutputFormat: domain.QaJson},
		}); !errors.Is(err, domain.ErrInvalidJobStateChanging) {
			t.Errorf("got %v, want ErrInvalidJobStateChanging", err)
		}
		if err := testee.Fail(ctx, job.Id, "boom"); !errors.Is(err, domain.ErrInvalidJobStateChanging) {
			t.Errorf("got %v, want ErrInvalidJobStateChanging", err)
		}

		// nothing leaves completed
		if err := testee.SetStatus(ctx, job.Id, domain.Processing); err != nil {
			t.Fatal(err)
		}
		try.To(testee.Complete(ctx, job.Id, domain.JobResult{
			Dataset: domain.NewDataset{
				Name: "x", OutputFormat: domain.QaJson,
				OutputStoragePath: "datasets/x/output.json",
			},
		})).OrFatal(t)
		if err := testee.SetStatus(ctx, job.Id, domain.Processing); !errors.Is(err, domain.ErrInvalidJobStateChanging) {
			t.Errorf("got %v, want ErrInvalidJobStateChanging", err)
		}
	})

	t.Run("it records the failure message", func(t *testing.T) {
		pool := poolBroaker.GetPool(ctx, t)
		org, admin := fixtures.Organisation(ctx, t, pool)
		schema := fixtures.Schema(ctx, t, pool)
		project := fixtures.Project(ctx, t, pool, org.Id, admin.Id, schema.Id)

		testee := jobpg.New(pool)
		job := try.To(testee.Create(ctx, org.Id, project.Id, admin.Id, domain.JobSpec{})).OrFatal(t)
		if err := testee.SetStatus(ctx, job.Id, domain.Processing); err != nil {
			t.Fatal(err)
		}
		if err := testee.Fail(ctx, job.Id, "source cache expired"); err != nil {
			t.Fatal(err)
		}

		failed := try.To(testee.Get(ctx, org.Id, job.Id)).OrFatal(t)
		if failed.Status != domain.Failed {
			t.Errorf("unmatch status: %s", failed.Status)
		}
		if failed.ErrorMessage == nil || *failed.ErrorMessage != "source cache expired" {
			t.Errorf("unmatch errorMessage: %v", failed.ErrorMessage)
		}
	})
}

func TestJob_Retry(t *testing.T) {
	ctx := context.Background()
	poolBroaker := testenv.NewPoolBroaker(ctx, t)

	t.Run("it carries the failed job's snapshot verbatim", func(t *testing.T) {
		pool := poolBroaker.GetPool(ctx, t)
		org, admin := fixtures.Organisation(ctx, t, pool)
		schema := fixtures.Schema(ctx, t, pool)
		project := fixtures.Project(ctx, t, pool, org.Id, admin.Id, schema.Id)
		source := fixtures.FileSource(ctx, t, pool, org.Id, project.Id)

		testee := jobpg.New(pool)
		job := try.To(testee.Create(
			ctx, org.Id, project.Id, admin.Id,
			domain.JobSpec{SourceIds: []string{source.Id}},
		)).OrFatal(t)
		if err := testee.SetStatus(ctx, job.Id, domain.Processing); err != nil {
			t.Fatal(err)
		}
		if err := testee.Fail(ctx, job.Id, "boom"); err != nil {
			t.Fatal(err)
		}

		// the project moves on; the retry must not see it
		try.To(projectpg.New(pool).Update(ctx, org.Id, project.Id, domain.ProjectUpdate{
			ReplaceProcessingConfig: true,
			ProcessingConfig:        domain.Config{"outputFormat": "structuredJson"},
		})).OrFatal(t)

		retried := try.To(testee.Retry(ctx, org.Id, job.Id, admin.Id)).OrFatal(t)
		if retried.Id == job.Id {
			t.Errorf("retry did not register a new job")
		}
		if retried.Status != domain.Queued {
			t.Errorf("unmatch status: %s", retried.Status)
		}
		if retried.ConfigSnapshot.ProjectConfig["outputFormat"] != "qaJson" {
			t.Errorf("snapshot is not carried verbatim: %v", retried.ConfigSnapshot.ProjectConfig)
		}
		if retried.ConfigSnapshotVersion != job.ConfigSnapshotVersion {
			t.Errorf("unmatch snapshot version: %d", retried.ConfigSnapshotVersion)
		}
		if !cmp.SliceEq(retried.ConfigSnapshot.SourceIds, job.ConfigSnapshot.SourceIds) {
			t.Errorf("unmatch sourceIds: %+v", retried.ConfigSnapshot.SourceIds)
		}

		// the failed job is left untouched
		old := try.To(testee.Get(ctx, org.Id, job.Id)).OrFatal(t)
		if old.Status != domain.Failed {
			t.Errorf("the failed job has been modified: %s", old.Status)
		}
	})

	t.Run("it refuses to retry a job which has not failed", func(t *testing.T) {
		pool := poolBroaker.GetPool(ctx, t)
		org, admin := fixtures.Organisation(ctx, t, pool)
		schema := fixtures.Schema(ctx, t, pool)
		project := fixtures.Project(ctx, t, pool, org.Id, admin.Id, schema.Id)

		testee := jobpg.New(pool)
		job := try.To(testee.Create(ctx, org.Id, project.Id, admin.Id, domain.JobSpec{})).OrFatal(t)

		if _, err := testee.Retry(ctx, org.Id, job.Id, admin.Id); !errors.Is(err, domain.ErrInvalidJobStateChanging) {
			t.Errorf("got %v, want ErrInvalidJobStateChanging", err)
		}
	})
}

func TestJob_Find(t *testing.T) {
	ctx := context.Background()
	poolBroaker := testenv.NewPoolBroaker(ctx, t)

	t.Run("it filters by project and status, scoped to the organisation", func(t *testing.T) {
		pool := poolBroaker.GetPool(ctx, t)
		org, admin := fixtures.Organisation(ctx, t, pool)
		schema := fixtures.Schema(ctx, t, pool)
		project := fixtures.Project(ctx, t, pool, org.Id, admin.Id, schema.Id)
		other := fixtures.Project(ctx, t, pool, org.Id, admin.Id, schema.Id)

		stranger, strangerAdmin := fixtures.Organisation(ctx, t, pool)
		strangerProject := fixtures.Project(ctx, t, pool, stranger.Id, strangerAdmin.Id, schema.Id)

		testee := jobpg.New(pool)
		queued := try.To(testee.Create(ctx, org.Id, project.Id, admin.Id, domain.JobSpec{})).OrFatal(t)
		picked := try.To(testee.Create(ctx, org.Id, project.Id, admin.Id, domain.JobSpec{})).OrFatal(t)
		if err := testee.SetStatus(ctx, picked.Id, domain.Processing); err != nil {
			t.Fatal(err)
		}
		elsewhere := try.To(testee.Create(ctx, org.Id, other.Id, admin.Id, domain.JobSpec{})).OrFatal(t)
		try.To(testee.Create(ctx, stranger.Id, strangerProject.Id, strangerAdmin.Id, domain.JobSpec{})).OrFatal(t)

		ids := func(jobs []domain.ProcessingJob) []string {
			out := make([]string, 0, len(jobs))
			for _, j := range jobs {
				out = append(out, j.Id)
			}
			return out
		}

		all := try.To(testee.Find(ctx, org.Id, domain.JobFindQuery{})).OrFatal(t)
		if !cmp.SliceContentEq(ids(all), []string{queued.Id, picked.Id, elsewhere.Id}) {
			t.Errorf("unmatch: jobs of the organisation: %+v", ids(all))
		}

		inProject := try.To(testee.Find(ctx, org.Id, domain.JobFindQuery{ProjectId: project.Id})).OrFatal(t)
		if !cmp.SliceContentEq(ids(inProject), []string{queued.Id, picked.Id}) {
			t.Errorf("unmatch: jobs of the project: %+v", ids(inProject))
		}

		processing := try.To(testee.Find(ctx, org.Id, domain.JobFindQuery{Status: domain.Processing})).OrFatal(t)
		if !cmp.SliceContentEq(ids(processing), []string{picked.Id}) {
			t.Errorf("unmatch: processing jobs: %+v", ids(processing))
		}
	})

	t.Run("it hides jobs of other organisations from Get", func(t *testing.T) {
		pool := poolBroaker.GetPool(ctx, t)
		org, admin := fixtures.Organisation(ctx, t, pool)
		schema := fixtures.Schema(ctx, t, pool)
		project := fixtures.Project(ctx, t, pool, org.Id, admin.Id, schema.Id)

		stranger, _ := fixtures.Organisation(ctx, t, pool)

		testee := jobpg.New(pool)
		job := try.To(testee.Create(ctx, org.Id, project.Id, admin.Id, domain.JobSpec{})).OrFatal(t)

		if _, err := testee.Get(ctx, stranger.Id, job.Id); !errors.Is(err, domerr.ErrMissing) {
			t.Errorf("got %v, want ErrMissing", err)
		}
	})
}
