package domain

import (
	"errors"
	"fmt"
	"time"
)

type JobStatus string

const (
	// This job is waiting to be picked up by the processing worker.
	Queued JobStatus = "queued"

	// The worker is transforming source data for this job.
	Processing JobStatus = "processing"

	// This job has produced its dataset. Terminal.
	Completed JobStatus = "completed"

	// This job stopped with an error. Terminal, but may spawn a retry.
	Failed JobStatus = "failed"
)

func (js JobStatus) String() string {
	return string(js)
}

func AsJobStatus(status string) (JobStatus, error) {
	switch status {
	case string(Queued):
		return Queued, nil
	case string(Processing):
		return Processing, nil
	case string(Completed):
		return Completed, nil
	case string(Failed):
		return Failed, nil
	default:
		return "", fmt.Errorf("'%s' is not JobStatus", status)
	}
}

// CanTransitTo reports whether the worker may move a job from js to next.
//
// queued -> processing -> completed | failed. Nothing leaves completed;
// failed jobs are not resumed but retried as new jobs.
func (js JobStatus) CanTransitTo(next JobStatus) bool {
	switch js {
	case Queued:
		return next == Processing
	case Processing:
		return next == Completed || next == Failed
	default:
		return false
	}
}

var ErrInvalidJobStateChanging = errors.New("cannot change processing job state")

func NewErrInvalidJobStateChanging(from, to JobStatus) error {
	return fmt.Errorf("%w: %s -> %s", ErrInvalidJobStateChanging, from, to)
}

type JobTrigger string

const (
	TriggeredManually  JobTrigger = "manual"
	TriggeredScheduled JobTrigger = "scheduled"
)

func (jt JobTrigger) String() string {
	return string(jt)
}

func AsJobTrigger(trigger string) (JobTrigger, error) {
	switch trigger {
	case string(TriggeredManually):
		return TriggeredManually, nil
	case string(TriggeredScheduled):
		return TriggeredScheduled, nil
	default:
		return "", fmt.Errorf("'%s' is not JobTrigger", trigger)
	}
}

// ConfigSnapshot is a point-in-time copy of a project's processing
// configuration and schema reference, frozen when a job is created.
// It never changes afterwards, whatever happens to the project.
type ConfigSnapshot struct {
	ProjectConfig         Config   `json:"projectConfig"`
	SourceIds             []string `json:"sourceIds"`
	CanonicalSchemaId     string   `json:"canonicalSchemaId"`
	DeidentificationRules []any    `json:"deidentificationRules"`
}

// NewConfigSnapshot freezes the project's current configuration for a job
// over the given sources. The project config is deep-copied so that later
// edits to the project are not visible through the snapshot.
func NewConfigSnapshot(p Project, sourceIds []string) (ConfigSnapshot, error) {
	conf, err := p.ProcessingConfig.Clone()
	if err != nil {
		return ConfigSnapshot{}, err
	}

	rules := []any{}
	if r, ok := conf["deidentificationRules"].([]any); ok {
		rules = r
	}

	ids := make([]string, len(sourceIds))
	copy(ids, sourceIds)

	return ConfigSnapshot{
		ProjectConfig:         conf,
		SourceIds:             ids,
		CanonicalSchemaId:     p.CanonicalSchemaId,
		DeidentificationRules: rules,
	}, nil
}

type ProcessingJob struct {
	Id        string
	ProjectId string

	TriggeredBy JobTrigger

	// nil when the triggering user has been removed.
	TriggeredByUserId *string

	Status JobStatus

	// immutable once set (a copy, not a reference).
	ConfigSnapshot        ConfigSnapshot
	ConfigSnapshotVersion int

	// populated only on completion.
	InputRecordCount  *int
	OutputRecordCount *int

	// populated only on failure.
	ErrorMessage *string

	StartedAt   *time.Time
	CompletedAt *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt *time.Time
}

// JobSpec is the caller's request for a new processing job.
type JobSpec struct {
	SourceIds   []string
	TriggeredBy JobTrigger // defaults to manual
}

type JobFindQuery struct {
	ProjectId string    // empty = all projects of the organisation
	Status    JobStatus // empty = all
	Page      int
	Limit     int
}

// JobResult carries what the worker reports when a job completes.
// The dataset row is registered in the same transaction as the transition.
type JobResult struct {
	InputRecordCount  int
	OutputRecordCount int
	Dataset           NewDataset
}
