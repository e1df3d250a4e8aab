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

type recordRepository struct {
	pool *pgxpool.Pool
}

// NewRecordRepository wires a repository backed by pgxpool.
func NewRecordRepository(pool *pgxpool.Pool) RecordRepository {
	return &recordRepository{pool: pool}
}

func (r *recordRepository) Create(ctx context.Context, rec domain.PerformanceRecord) (domain.PerformanceRecord, error) {
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}

	rawJSON, err := json.Marshal(rec.RawRow)
	if err != nil {
		return domain.PerformanceRecord{}, fmt.Errorf("failed to encode raw row: %w", err)
	}

	row := r.pool.QueryRow(
		ctx,
		`INSERT INTO performance_records (
			id, module, badge_id, officer_name, department, district,
			drive_name, drive_date, cases_handled,
			case_number, conviction_date, crime_type, court_name,
			detection_date, crime_category, value_recovered,
			raw_row, import_job_id
		 ) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
		 RETURNING created_at`,
		rec.ID,
		rec.Module,
		rec.BadgeID,
		rec.OfficerName,
		rec.Department,
		rec.District,
		rec.DriveName,
		rec.DriveDate,
		rec.CasesHandled,
		rec.CaseNumber,
		rec.ConvictionDate,
		rec.CrimeType,
		rec.CourtName,
		rec.DetectionDate,
		rec.CrimeCategory,
		rec.ValueRecovered,
		rawJSON,
		rec.ImportJobID,
	)

	var createdAt pgtype.Timestamptz
	if err := row.Scan(&createdAt); err != nil {
		return domain.PerformanceRecord{}, fmt.Errorf("failed to create performance record: %w", err)
	}
	if createdAt.Valid {
		rec.CreatedAt = createdAt.Time
	}

	return rec, nil
}

func (r *recordRepository) ListByImportJob(ctx context.Context, jobID uuid.UUID, limit int) ([]domain.PerformanceRecord, error) {
	if limit <= 0 {
		limit = 100
	}

	rows, err := r.pool.Query(
		ctx,
		`SELECT id, module, badge_id, officer_name, department, district,
			drive_name, drive_date, cases_handled,
			case_number, conviction_date, crime_type, court_name,
			detection_date, crime_category, value_recovered,
			raw_row, import_job_id, created_at
		 FROM performance_records
		 WHERE import_job_id = $1
		 ORDER BY created_at
		 LIMIT $2`,
		jobID,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list performance records: %w", err)
	}
	defer rows.Close()

	records := []domain.PerformanceRecord{}
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate performance records: %w", err)
	}

	return records, nil
}

func scanRecord(row pgx.Row) (domain.PerformanceRecord, error) {
	var (
		rec            domain.PerformanceRecord
		driveDate      pgtype.Timestamptz
		convictionDate pgtype.Timestamptz
		detectionDate  pgtype.Timestamptz
		createdAt      pgtype.Timestamptz
		rawJSON        []byte
	)
	if err := row.Scan(
		&rec.ID,
		&rec.Module,
		&rec.BadgeID,
		&rec.OfficerName,
		&rec.Department,
		&rec.District,
		&rec.DriveName,
		&driveDate,
		&rec.CasesHandled,
		&rec.CaseNumber,
		&convictionDate,
		&rec.CrimeType,
		&rec.CourtName,
		&detectionDate,
		&rec.CrimeCategory,
		&rec.ValueRecovered,
		&rawJSON,
		&rec.ImportJobID,
		&createdAt,
	); err != nil {
		return domain.PerformanceRecord{}, fmt.Errorf("failed to scan performance record: %w", err)
	}

	if driveDate.Valid {
		rec.DriveDate = &driveDate.Time
	}
	if convictionDate.Valid {
		rec.ConvictionDate = &convictionDate.Time
	}
	if detectionDate.Valid {
		rec.DetectionDate = &detectionDate.Time
	}
	if createdAt.Valid {
		rec.CreatedAt = createdAt.Time
	}
	if len(rawJSON) > 0 {
		if err := json.Unmarshal(rawJSON, &rec.RawRow); err != nil {
			return domain.PerformanceRecord{}, fmt.Errorf("failed to decode raw row: %w", err)
		}
	}

	return rec, nil
}
