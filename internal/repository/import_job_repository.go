package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/perfwatch/ingest/internal/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

type importJobRepository struct {
	pool *pgxpool.Pool
}

// NewImportJobRepository wires a repository backed by pgxpool.
func NewImportJobRepository(pool *pgxpool.Pool) ImportJobRepository {
	return &importJobRepository{pool: pool}
}

func (r *importJobRepository) Create(ctx context.Context, job domain.ImportJob) (domain.ImportJob, error) {
	errsJSON, err := json.Marshal(job.Errors)
	if err != nil {
		return domain.ImportJob{}, fmt.Errorf("failed to encode job errors: %w", err)
	}

	row := r.pool.QueryRow(
		ctx,
		`INSERT INTO import_jobs (id, filename, source, module, status, total_rows, processed_rows, failed_rows, errors, uploaded_by)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 RETURNING created_at, updated_at`,
		job.ID,
		job.Filename,
		job.Source,
		job.Module,
		job.Status,
		job.TotalRows,
		job.ProcessedRows,
		job.FailedRows,
		errsJSON,
		job.UploadedBy,
	)

	var createdAt, updatedAt pgtype.Timestamptz
	if err := row.Scan(&createdAt, &updatedAt); err != nil {
		return domain.ImportJob{}, fmt.Errorf("failed to create import job: %w", err)
	}
	if createdAt.Valid {
		job.CreatedAt = createdAt.Time
	}
	if updatedAt.Valid {
		job.UpdatedAt = updatedAt.Time
	}

	return job, nil
}

func (r *importJobRepository) MarkProcessing(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(
		ctx,
		`UPDATE import_jobs
		 SET status = $2, updated_at = now()
		 WHERE id = $1 AND status = $3`,
		id,
		domain.ImportStatusProcessing,
		domain.ImportStatusPending,
	)
	if err != nil {
		return fmt.Errorf("failed to mark import job processing: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("import job %s is not pending", id)
	}
	return nil
}

func (r *importJobRepository) SetTotalRows(ctx context.Context, id uuid.UUID, total int) error {
	_, err := r.pool.Exec(
		ctx,
		`UPDATE import_jobs SET total_rows = $2, updated_at = now() WHERE id = $1`,
		id,
		total,
	)
	if err != nil {
		return fmt.Errorf("failed to set total rows: %w", err)
	}
	return nil
}

func (r *importJobRepository) Finalize(ctx context.Context, id uuid.UUID, status domain.ImportStatus, processed, failed int, errs []domain.RowError) error {
	if !status.Terminal() {
		return fmt.Errorf("cannot finalize import job to non-terminal status %q", status)
	}

	errsJSON, err := json.Marshal(errs)
	if err != nil {
		return fmt.Errorf("failed to encode job errors: %w", err)
	}

	// Terminal jobs are immutable: finalize only transitions out of processing.
	tag, err := r.pool.Exec(
		ctx,
		`UPDATE import_jobs
		 SET status = $2, processed_rows = $3, failed_rows = $4, errors = $5, updated_at = now()
		 WHERE id = $1 AND status = $6`,
		id,
		status,
		processed,
		failed,
		errsJSON,
		domain.ImportStatusProcessing,
	)
	if err != nil {
		return fmt.Errorf("failed to finalize import job: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("import job %s is not processing", id)
	}
	return nil
}

func (r *importJobRepository) GetByID(ctx context.Context, id uuid.UUID) (domain.ImportJob, error) {
	row := r.pool.QueryRow(
		ctx,
		`SELECT id, filename, source, module, status, total_rows, processed_rows, failed_rows, errors, uploaded_by, created_at, updated_at
		 FROM import_jobs
		 WHERE id = $1`,
		id,
	)
	return scanImportJob(row)
}

func (r *importJobRepository) List(ctx context.Context, filter ImportJobFilter) ([]domain.ImportJob, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}

	query := `SELECT id, filename, source, module, status, total_rows, processed_rows, failed_rows, errors, uploaded_by, created_at, updated_at
		 FROM import_jobs`
	args := []any{}
	where := []string{}

	if filter.Status != nil {
		args = append(args, *filter.Status)
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}
	if filter.UploadedBy != "" {
		args = append(args, filter.UploadedBy)
		where = append(where, fmt.Sprintf("uploaded_by = $%d", len(args)))
	}
	for i, clause := range where {
		if i == 0 {
			query += " WHERE " + clause
		} else {
			query += " AND " + clause
		}
	}
	args = append(args, limit)
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d", len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list import jobs: %w", err)
	}
	defer rows.Close()

	jobs := []domain.ImportJob{}
	for rows.Next() {
		job, err := scanImportJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate import jobs: %w", err)
	}

	return jobs, nil
}

func scanImportJob(row pgx.Row) (domain.ImportJob, error) {
	var (
		job       domain.ImportJob
		errsJSON  []byte
		createdAt pgtype.Timestamptz
		updatedAt pgtype.Timestamptz
	)
	if err := row.Scan(
		&job.ID,
		&job.Filename,
		&job.Source,
		&job.Module,
		&job.Status,
		&job.TotalRows,
		&job.ProcessedRows,
		&job.FailedRows,
		&errsJSON,
		&job.UploadedBy,
		&createdAt,
		&updatedAt,
	); err != nil {
		return domain.ImportJob{}, fmt.Errorf("failed to scan import job: %w", err)
	}

	job.Errors = []domain.RowError{}
	if len(errsJSON) > 0 {
		if err := json.Unmarshal(errsJSON, &job.Errors); err != nil {
			return domain.ImportJob{}, fmt.Errorf("failed to decode job errors: %w", err)
		}
	}
	if createdAt.Valid {
		job.CreatedAt = createdAt.Time
	}
	if updatedAt.Valid {
		job.UpdatedAt = updatedAt.Time
	}

	return job, nil
}
