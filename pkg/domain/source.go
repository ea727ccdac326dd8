package domain

import (
	"fmt"
	"time"
)

type SourceType string

const (
	FileSource SourceType = "file"
	ApiSource  SourceType = "api"
)

func (st SourceType) String() string {
	return string(st)
}

func AsSourceType(sourceType string) (SourceType, error) {
	switch sourceType {
	case string(FileSource):
		return FileSource, nil
	case string(ApiSource):
		return ApiSource, nil
	default:
		return "", fmt.Errorf("'%s' is not SourceType", sourceType)
	}
}

type SourceStatus string

const (
	Connected     SourceStatus = "connected"
	Cached        SourceStatus = "cached"
	Expired       SourceStatus = "expired"
	SourceInError SourceStatus = "error"
)

func (ss SourceStatus) String() string {
	return string(ss)
}

func AsSourceStatus(status string) (SourceStatus, error) {
	switch status {
	case string(Connected):
		return Connected, nil
	case string(Cached):
		return Cached, nil
	case string(Expired):
		return Expired, nil
	case string(SourceInError):
		return SourceInError, nil
	default:
		return "", fmt.Errorf("'%s' is not SourceStatus", status)
	}
}

// FileUpload describes the stored payload of a file-branch source.
type FileUpload struct {
	UploadPath string
	MimeType   string
	SizeBytes  int64
}

// Source is a data input attached to a project. Exactly one of the file
// branch (FileUpload) and the api branch (ApiConnectionConfig) is present,
// keyed by SourceType.
type Source struct {
	Id        string
	ProjectId string
	Name      string
	Type      SourceType

	// file branch
	File *FileUpload

	// api branch
	ApiConnectionConfig Config

	// counts replacements of ApiConnectionConfig. 1 at creation, nil for
	// file sources.
	ApiConnectionConfigVersion *int

	Status SourceStatus

	// cache bookkeeping, maintained by the (external) fetcher.
	CachedDataPath  *string
	CachedAt        *time.Time
	CacheExpiryDate *time.Time

	RecordCount  *int
	ErrorMessage *string

	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt *time.Time
}

type NewSource struct {
	ProjectId string
	Name      string
	Type      SourceType

	// file branch only
	File *FileUpload

	// api branch only
	ApiConnectionConfig Config
}

type SourceUpdate struct {
	Name *string

	// when ReplaceApiConnectionConfig is true, ApiConnectionConfig is
	// written and ApiConnectionConfigVersion increments by one.
	ReplaceApiConnectionConfig bool
	ApiConnectionConfig        Config

	Status       *SourceStatus
	ErrorMessage *string
}

func (u SourceUpdate) IsEmpty() bool {
	return u.Name == nil && !u.ReplaceApiConnectionConfig &&
		u.Status == nil && u.ErrorMessage == nil
}

type SourceFindQuery struct {
	ProjectId string       // empty = all projects of the organisation
	Status    SourceStatus // empty = all
	Page      int
	Limit     int
}
