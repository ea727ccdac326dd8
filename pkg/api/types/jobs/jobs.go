package jobs

import (
	"github.com/datapress/datapress/pkg/api/types/misc/rfctime"
	"github.com/datapress/datapress/pkg/domain"
)

type Snapshot struct {
	ProjectConfig         map[string]any `json:"projectConfig"`
	SourceIds             []string       `json:"sourceIds"`
	CanonicalSchemaId     string         `json:"canonicalSchemaId"`
	DeidentificationRules []any          `json:"deidentificationRules"`
}

type Detail struct {
	Id                string  `json:"id"`
	ProjectId         string  `json:"projectId"`
	TriggeredBy       string  `json:"triggeredBy"`
	TriggeredByUserId *string `json:"triggeredByUserId"`
	Status            string  `json:"status"`

	ConfigSnapshot        Snapshot `json:"configSnapshot"`
	ConfigSnapshotVersion int      `json:"configSnapshotVersion"`

	InputRecordCount  *int    `json:"inputRecordCount,omitempty"`
	OutputRecordCount *int    `json:"outputRecordCount,omitempty"`
	ErrorMessage      *string `json:"errorMessage,omitempty"`

	StartedAt   *rfctime.RFC3339 `json:"startedAt,omitempty"`
	CompletedAt *rfctime.RFC3339 `json:"completedAt,omitempty"`
	CreatedAt   rfctime.RFC3339  `json:"createdAt"`
	UpdatedAt   rfctime.RFC3339  `json:"updatedAt"`
}

func (d Detail) Equal(o Detail) bool {
	return d.Id == o.Id &&
		d.ProjectId == o.ProjectId &&
		d.TriggeredBy == o.TriggeredBy &&
		d.Status == o.Status &&
		d.ConfigSnapshotVersion == o.ConfigSnapshotVersion &&
		d.CreatedAt.Equal(o.CreatedAt) &&
		d.UpdatedAt.Equal(o.UpdatedAt)
}

func ComposeDetail(j domain.ProcessingJob) Detail {
	return Detail{
		Id:                j.Id,
		ProjectId:         j.ProjectId,
		TriggeredBy:       j.TriggeredBy.String(),
		TriggeredByUserId: j.TriggeredByUserId,
		Status:            j.Status.String(),
		ConfigSnapshot: Snapshot{
			ProjectConfig:         j.ConfigSnapshot.ProjectConfig,
			SourceIds:             j.ConfigSnapshot.SourceIds,
			CanonicalSchemaId:     j.ConfigSnapshot.CanonicalSchemaId,
			DeidentificationRules: j.ConfigSnapshot.DeidentificationRules,
		},
		ConfigSnapshotVersion: j.ConfigSnapshotVersion,
		InputRecordCount:      j.InputRecordCount,
		OutputRecordCount:     j.OutputRecordCount,
		ErrorMessage:          j.ErrorMessage,
		StartedAt:             rfctime.Pointer(j.StartedAt),
		CompletedAt:           rfctime.Pointer(j.CompletedAt),
		CreatedAt:             rfctime.New(j.CreatedAt),
		UpdatedAt:             rfctime.New(j.UpdatedAt),
	}
}

type Spec struct {
	ProjectId   string   `json:"projectId"`
	SourceIds   []string `json:"sourceIds"`
	TriggeredBy string   `json:"triggeredBy,omitempty"`
}

// Result is the worker's completion report.
type Result struct {
	InputRecordCount  int         `json:"inputRecordCount"`
	OutputRecordCount int         `json:"outputRecordCount"`
	Dataset           DatasetSpec `json:"dataset"`
}

type DatasetSpec struct {
	Name              string         `json:"name"`
	OutputFormat      string         `json:"outputFormat"`
	OutputStoragePath string         `json:"outputStoragePath"`
	RecordCount       int            `json:"recordCount"`
	FileSizeBytes     int64          `json:"fileSizeBytes"`
	LineageData       map[string]any `json:"lineageData,omitempty"`
}

// Failure is the worker's error report.
type Failure struct {
	ErrorMessage string `json:"errorMessage"`
}
