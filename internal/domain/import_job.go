package domain

import (
	"time"

	"github.com/google/uuid"
)

// ImportStatus tracks the lifecycle of an upload.
// Jobs move pending -> processing -> {completed, failed} and are
// immutable once terminal.
type ImportStatus string

const (
	ImportStatusPending    ImportStatus = "pending"
	ImportStatusProcessing ImportStatus = "processing"
	ImportStatusCompleted  ImportStatus = "completed"
	ImportStatusFailed     ImportStatus = "failed"
)

// Terminal reports whether no further transitions are allowed.
func (s ImportStatus) Terminal() bool {
	return s == ImportStatusCompleted || s == ImportStatusFailed
}

// RowError records why a single row was rejected during ingestion.
type RowError struct {
	Row     int    `json:"row"`
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ImportJob is the audit record for one upload. Once terminal,
// ProcessedRows + FailedRows == TotalRows.
type ImportJob struct {
	ID            uuid.UUID    `json:"id"`
	Filename      string       `json:"filename"`
	Source        ImportSource `json:"source"`
	Module        Module       `json:"module"`
	Status        ImportStatus `json:"status"`
	TotalRows     int          `json:"totalRows"`
	ProcessedRows int          `json:"processedRows"`
	FailedRows    int          `json:"failedRows"`
	Errors        []RowError   `json:"errors"`
	UploadedBy    string       `json:"uploadedBy"`
	CreatedAt     time.Time    `json:"createdAt"`
	UpdatedAt     time.Time    `json:"updatedAt"`
}

// NewImportJob creates a pending job for an upload.
func NewImportJob(filename string, source ImportSource, module Module, uploadedBy string) ImportJob {
	now := time.Now().UTC()
	return ImportJob{
		ID:         uuid.New(),
		Filename:   filename,
		Source:     source,
		Module:     module,
		Status:     ImportStatusPending,
		Errors:     []RowError{},
		UploadedBy: uploadedBy,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}
