package domain

import (
	"fmt"
	"time"
)

type OutputFormat string

const (
	ConversationalJsonl OutputFormat = "conversationalJsonl"
	QaJson              OutputFormat = "qaJson"
	StructuredJson      OutputFormat = "structuredJson"
)

func (of OutputFormat) String() string {
	return string(of)
}

func AsOutputFormat(format string) (OutputFormat, error) {
	switch format {
	case string(ConversationalJsonl):
		return ConversationalJsonl, nil
	case string(QaJson):
		return QaJson, nil
	case string(StructuredJson):
		return StructuredJson, nil
	default:
		return "", fmt.Errorf("'%s' is not OutputFormat", format)
	}
}

// MimeType is the content type served when downloading a dataset file.
func (of OutputFormat) MimeType() string {
	if of == ConversationalJsonl {
		return "application/x-jsonlines"
	}
	return "application/json"
}

// Dataset is the structured output of a completed processing job.
// Rows are created exclusively by the worker on job completion;
// no API path creates one directly.
type Dataset struct {
	Id              string
	ProjectId       string
	ProcessingJobId string

	Name              string
	OutputFormat      OutputFormat
	OutputStoragePath string
	RecordCount       int
	FileSizeBytes     int64

	// provenance of the transformation.
	LineageData Config

	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt *time.Time
}

type NewDataset struct {
	Name              string
	OutputFormat      OutputFormat
	OutputStoragePath string
	RecordCount       int
	FileSizeBytes     int64
	LineageData       Config
}

type DatasetFindQuery struct {
	ProjectId    string       // empty = all projects of the organisation
	OutputFormat OutputFormat // empty = all
	Page         int
	Limit        int
}
