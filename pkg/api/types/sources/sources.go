package sources

import (
	"encoding/json"

	"github.com/datapress/datapress/pkg/api/types/misc/rfctime"
	"github.com/datapress/datapress/pkg/domain"
)

type FileDetail struct {
	UploadPath string `json:"uploadPath"`
	MimeType   string `json:"mimeType,omitempty"`
	SizeBytes  int64  `json:"sizeBytes"`
}

type Detail struct {
	Id        string `json:"id"`
	ProjectId string `json:"projectId"`
	Name      string `json:"name"`
	Type      string `json:"type"`

	File *FileDetail `json:"file,omitempty"`

	ApiConnectionConfig        map[string]any `json:"apiConnectionConfig,omitempty"`
	ApiConnectionConfigVersion *int           `json:"apiConnectionConfigVersion,omitempty"`

	Status          string           `json:"status"`
	CachedDataPath  *string          `json:"cachedDataPath,omitempty"`
	CachedAt        *rfctime.RFC3339 `json:"cachedAt,omitempty"`
	CacheExpiryDate *rfctime.RFC3339 `json:"cacheExpiryDate,omitempty"`
	RecordCount     *int             `json:"recordCount,omitempty"`
	ErrorMessage    *string          `json:"errorMessage,omitempty"`

	CreatedAt rfctime.RFC3339 `json:"createdAt"`
	UpdatedAt rfctime.RFC3339 `json:"updatedAt"`
}

func (d Detail) Equal(o Detail) bool {
	if (d.File == nil) != (o.File == nil) {
		return false
	}
	if d.File != nil && *d.File != *o.File {
		return false
	}
	return d.Id == o.Id &&
		d.ProjectId == o.ProjectId &&
		d.Name == o.Name &&
		d.Type == o.Type &&
		d.Status == o.Status &&
		d.CreatedAt.Equal(o.CreatedAt) &&
		d.UpdatedAt.Equal(o.UpdatedAt)
}

func ComposeDetail(s domain.Source) Detail {
	d := Detail{
		Id:                         s.Id,
		ProjectId:                  s.ProjectId,
		Name:                       s.Name,
		Type:                       s.Type.String(),
		ApiConnectionConfig:        s.ApiConnectionConfig,
		ApiConnectionConfigVersion: s.ApiConnectionConfigVersion,
		Status:                     s.Status.String(),
		CachedDataPath:             s.CachedDataPath,
		CachedAt:                   rfctime.Pointer(s.CachedAt),
		CacheExpiryDate:            rfctime.Pointer(s.CacheExpiryDate),
		RecordCount:                s.RecordCount,
		ErrorMessage:               s.ErrorMessage,
		CreatedAt:                  rfctime.New(s.CreatedAt),
		UpdatedAt:                  rfctime.New(s.UpdatedAt),
	}
	if s.File != nil {
		d.File = &FileDetail{
			UploadPath: s.File.UploadPath,
			MimeType:   s.File.MimeType,
			SizeBytes:  s.File.SizeBytes,
		}
	}
	return d
}

// Spec creates an api source. File sources are not created this way:
// they are registered by the upload endpoint, which carries the payload
// as multipart form data.
type Spec struct {
	ProjectId           string         `json:"projectId"`
	Name                string         `json:"name"`
	ApiConnectionConfig map[string]any `json:"apiConnectionConfig"`
}

type Change struct {
	Name         *string `json:"name,omitempty"`
	Status       *string `json:"status,omitempty"`
	ErrorMessage *string `json:"errorMessage,omitempty"`

	// raw, to tell "leave the config alone" (absent) apart from
	// "replace it" (present).
	ApiConnectionConfig json.RawMessage `json:"apiConnectionConfig,omitempty"`
}

func (c Change) ReplacesConfig() bool {
	return len(c.ApiConnectionConfig) != 0
}

func (c Change) Config() (map[string]any, error) {
	if !c.ReplacesConfig() || string(c.ApiConnectionConfig) == "null" {
		return nil, nil
	}
	var out map[string]any
	if err := json.Unmarshal(c.ApiConnectionConfig, &out); err != nil {
		return nil, err
	}
	return out, nil
}
