package domain

import (
	"time"
)

// RunStatus is the outcome of one pipeline run that did not fail.
type RunStatus string

const (
	RunStatusProcessed  RunStatus = "processed"
	RunStatusNoSections RunStatus = "no_sections"
)

// Source identifies where a report document comes from. Exactly one of URL
// or Path is set.
type Source struct {
	URL    string `json:"url,omitempty" validate:"omitempty,url"`
	Path   string `json:"path,omitempty" validate:"required_without=URL"`
	Render bool   `json:"render,omitempty"`
	Label  string `json:"label,omitempty" validate:"max=200"`
}

// String returns the URL or path of the source.
func (s Source) String() string {
	if s.URL != "" {
		return s.URL
	}
	return s.Path
}

// RunResult describes one processed report. PersistenceErr is set when the
// in-memory result is valid but writing it out failed.
type RunResult struct {
	ID             string            `json:"id"`
	Source         string            `json:"source"`
	Status         RunStatus         `json:"status"`
	Message        string            `json:"message"`
	Sections       int               `json:"sections"`
	RawRows        int               `json:"raw_rows"`
	Records        []CanonicalRecord `json:"records,omitempty"`
	PersistenceErr error             `json:"-"`
	StartedAt      time.Time         `json:"started_at"`
	Duration       time.Duration     `json:"duration"`
}

// UploadRecord is the side record kept for every object written to storage.
type UploadRecord struct {
	ID         string    `json:"id" validate:"required,uuid"`
	RunID      string    `json:"run_id"`
	Uploader   string    `json:"uploader" validate:"required"`
	Label      string    `json:"label"`
	Backend    string    `json:"backend" validate:"required"`
	ObjectName string    `json:"object_name" validate:"required"`
	Rows       int       `json:"rows" validate:"min=0"`
	UploadedAt time.Time `json:"uploaded_at" validate:"required"`
}
