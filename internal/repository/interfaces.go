package repository

import (
	"context"

	"github.com/perfwatch/ingest/internal/domain"

	"github.com/google/uuid"
)

// ImportJobFilter narrows the import job listing.
type ImportJobFilter struct {
	Status     *domain.ImportStatus
	UploadedBy string
	Limit      int
}

// ImportJobRepository owns the upload audit records. A job is mutated
// only by its own ingestion run and becomes immutable once terminal.
type ImportJobRepository interface {
	Create(ctx context.Context, job domain.ImportJob) (domain.ImportJob, error)
	MarkProcessing(ctx context.Context, id uuid.UUID) error
	SetTotalRows(ctx context.Context, id uuid.UUID, total int) error
	Finalize(ctx context.Context, id uuid.UUID, status domain.ImportStatus, processed, failed int, errs []domain.RowError) error
	GetByID(ctx context.Context, id uuid.UUID) (domain.ImportJob, error)
	List(ctx context.Context, filter ImportJobFilter) ([]domain.ImportJob, error)
}

// RecordRepository stores transformed performance records. Records are
// insert-only.
type RecordRepository interface {
	Create(ctx context.Context, rec domain.PerformanceRecord) (domain.PerformanceRecord, error)
	ListByImportJob(ctx context.Context, jobID uuid.UUID, limit int) ([]domain.PerformanceRecord, error)
}

// OfficerFilter narrows the officer listing.
type OfficerFilter struct {
	Department string
	District   string
	Limit      int
}

// OfficerRepository maintains the per-badge aggregates. ApplyIncrement
// must upsert by badge id and add counters atomically at the store;
// read-modify-write loses concurrent updates.
type OfficerRepository interface {
	ApplyIncrement(ctx context.Context, inc domain.OfficerIncrement, weights domain.KPIWeights) error
	GetByBadgeID(ctx context.Context, badgeID string) (domain.Officer, error)
	List(ctx context.Context, filter OfficerFilter) ([]domain.Officer, error)
}

// KPIWeightsRepository reads the score weighting configuration.
type KPIWeightsRepository interface {
	Get(ctx context.Context) (domain.KPIWeights, error)
}
