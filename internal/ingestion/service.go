package ingestion

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"

	"github.com/perfwatch/ingest/internal/domain"
	"github.com/perfwatch/ingest/internal/repository"

	"github.com/google/uuid"
)

// Service drives the per-row ingestion loop: parse, transform, persist,
// aggregate. Row failures are collected and never abort the batch; only
// a failure before rows exist (unsupported format, corrupt bytes) fails
// the whole job.
type Service struct {
	jobRepo     repository.ImportJobRepository
	recordRepo  repository.RecordRepository
	officerRepo repository.OfficerRepository
	weightsRepo repository.KPIWeightsRepository
}

// NewService wires the orchestrator with its stores.
func NewService(
	jobRepo repository.ImportJobRepository,
	recordRepo repository.RecordRepository,
	officerRepo repository.OfficerRepository,
	weightsRepo repository.KPIWeightsRepository,
) *Service {
	return &Service{
		jobRepo:     jobRepo,
		recordRepo:  recordRepo,
		officerRepo: officerRepo,
		weightsRepo: weightsRepo,
	}
}

// Request describes one upload.
type Request struct {
	FileName   string
	Source     domain.ImportSource
	Module     domain.Module
	UploadedBy string
	Data       io.Reader
}

// Result is returned to the caller even when every row failed, as long
// as parsing itself succeeded.
type Result struct {
	ImportJobID   uuid.UUID           `json:"importJobId"`
	Status        domain.ImportStatus `json:"status"`
	TotalRows     int                 `json:"totalRows"`
	ProcessedRows int                 `json:"processedRows"`
	FailedRows    int                 `json:"failedRows"`
	Errors        []domain.RowError   `json:"errors"`
}

// Ingest runs one upload through the pipeline. Rows are processed
// strictly in file order; each persistence call completes before the
// next row starts.
func (s *Service) Ingest(ctx context.Context, req Request) (Result, error) {
	if strings.TrimSpace(req.FileName) == "" {
		return Result{}, errors.New("file name is required")
	}
	if strings.TrimSpace(req.UploadedBy) == "" {
		return Result{}, errors.New("uploader identity is required")
	}
	if req.Data == nil {
		return Result{}, errors.New("data reader is required")
	}

	job, err := s.jobRepo.Create(ctx, domain.NewImportJob(req.FileName, req.Source, req.Module, req.UploadedBy))
	if err != nil {
		return Result{}, fmt.Errorf("failed to create import job: %w", err)
	}
	if err := s.jobRepo.MarkProcessing(ctx, job.ID); err != nil {
		return Result{}, fmt.Errorf("failed to mark job processing: %w", err)
	}

	payload, err := io.ReadAll(req.Data)
	if err != nil {
		return Result{}, s.failJob(ctx, job.ID, fmt.Errorf("failed to read upload: %w", err))
	}
	if len(payload) == 0 {
		return Result{}, s.failJob(ctx, job.ID, errors.New("file is empty"))
	}

	rows, err := ParseRows(req.FileName, payload)
	if err != nil {
		return Result{}, s.failJob(ctx, job.ID, err)
	}

	if err := s.jobRepo.SetTotalRows(ctx, job.ID, len(rows)); err != nil {
		return Result{}, s.failJob(ctx, job.ID, fmt.Errorf("failed to record row count: %w", err))
	}

	weights := s.loadWeights(ctx)

	var (
		rowErrors = []domain.RowError{}
		processed int
		failed    int
	)

	for i, row := range rows {
		rowNumber := i + 1

		rec, err := TransformRow(req.Module, row)
		if err != nil {
			failed++
			rowErrors = append(rowErrors, domain.RowError{Row: rowNumber, Field: "transformation", Message: err.Error()})
			continue
		}
		rec.ImportJobID = job.ID

		stored, err := s.recordRepo.Create(ctx, rec)
		if err != nil {
			failed++
			rowErrors = append(rowErrors, domain.RowError{Row: rowNumber, Field: "general", Message: err.Error()})
			continue
		}

		if err := s.officerRepo.ApplyIncrement(ctx, domain.IncrementFor(stored), weights); err != nil {
			failed++
			rowErrors = append(rowErrors, domain.RowError{Row: rowNumber, Field: "general", Message: err.Error()})
			continue
		}

		processed++
	}

	// A batch with at least one good row completes; only total failure
	// over a non-empty file marks the job failed. An empty parse result
	// is a completed zero-row job.
	status := domain.ImportStatusCompleted
	if len(rows) > 0 && failed == len(rows) {
		status = domain.ImportStatusFailed
	}

	if err := s.jobRepo.Finalize(ctx, job.ID, status, processed, failed, rowErrors); err != nil {
		return Result{}, fmt.Errorf("failed to finalize import job: %w", err)
	}

	log.Printf("[INGEST] %s module=%s total=%d processed=%d failed=%d status=%s",
		req.FileName, req.Module, len(rows), processed, failed, status)

	return Result{
		ImportJobID:   job.ID,
		Status:        status,
		TotalRows:     len(rows),
		ProcessedRows: processed,
		FailedRows:    failed,
		Errors:        rowErrors,
	}, nil
}

// failJob marks the job failed with a single synthetic error and returns
// the original error so it propagates to the caller as a hard failure.
func (s *Service) failJob(ctx context.Context, jobID uuid.UUID, cause error) error {
	synthetic := []domain.RowError{{Row: 0, Field: "file_parsing", Message: cause.Error()}}
	if err := s.jobRepo.Finalize(ctx, jobID, domain.ImportStatusFailed, 0, 0, synthetic); err != nil {
		log.Printf("[INGEST] failed to mark job %s failed: %v", jobID, err)
	}
	return cause
}

// loadWeights falls back to the stock weighting when the configuration
// row cannot be read; score refresh should not block ingestion.
func (s *Service) loadWeights(ctx context.Context) domain.KPIWeights {
	if s.weightsRepo == nil {
		return domain.DefaultKPIWeights()
	}
	weights, err := s.weightsRepo.Get(ctx)
	if err != nil {
		log.Printf("[INGEST] using default kpi weights: %v", err)
		return domain.DefaultKPIWeights()
	}
	return weights
}
