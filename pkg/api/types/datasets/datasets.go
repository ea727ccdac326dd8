package datasets

import (
	"github.com/datapress/datapress/pkg/api/types/misc/rfctime"
	"github.com/datapress/datapress/pkg/domain"
)

type Detail struct {
	Id              string `json:"id"`
	ProjectId       string `json:"projectId"`
	ProcessingJobId string `json:"processingJobId"`

	Name              string         `json:"name"`
	OutputFormat      string         `json:"outputFormat"`
	OutputStoragePath string         `json:"outputStoragePath"`
	RecordCount       int            `json:"recordCount"`
	FileSizeBytes     int64          `json:"fileSizeBytes"`
	LineageData       map[string]any `json:"lineageData,omitempty"`

	CreatedAt rfctime.RFC3339 `json:"createdAt"`
	UpdatedAt rfctime.RFC3339 `json:"updatedAt"`
}

func (d Detail) Equal(o Detail) bool {
	return d.Id == o.Id &&
		d.ProjectId == o.ProjectId &&
		d.ProcessingJobId == o.ProcessingJobId &&
		d.Name == o.Name &&
		d.OutputFormat == o.OutputFormat &&
		d.OutputStoragePath == o.OutputStoragePath &&
		d.RecordCount == o.RecordCount &&
		d.FileSizeBytes == o.FileSizeBytes &&
		d.CreatedAt.Equal(o.CreatedAt) &&
		d.UpdatedAt.Equal(o.UpdatedAt)
}

func ComposeDetail(d domain.Dataset) Detail {
	return Detail{
		Id:                d.Id,
		ProjectId:         d.ProjectId,
		ProcessingJobId:   d.ProcessingJobId,
		Name:              d.Name,
		OutputFormat:      d.OutputFormat.String(),
		OutputStoragePath: d.OutputStoragePath,
		RecordCount:       d.RecordCount,
		FileSizeBytes:     d.FileSizeBytes,
		LineageData:       d.LineageData,
		CreatedAt:         rfctime.New(d.CreatedAt),
		UpdatedAt:         rfctime.New(d.UpdatedAt),
	}
}
