package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/perfwatch/ingest/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

type officerRepository struct {
	pool *pgxpool.Pool
}

// NewOfficerRepository wires a repository backed by pgxpool.
func NewOfficerRepository(pool *pgxpool.Pool) OfficerRepository {
	return &officerRepository{pool: pool}
}

// ApplyIncrement upserts the aggregate by badge id in a single statement.
// Counter additions happen inside the UPDATE arithmetic, so concurrent
// uploads naming the same badge id never lose increments to a
// read-modify-write race. The derived total score is refreshed from the
// post-increment counters and the supplied weights in the same write.
// Identity fields only ever improve: a real name replaces the generated
// placeholder, never the other way around.
func (r *officerRepository) ApplyIncrement(ctx context.Context, inc domain.OfficerIncrement, weights domain.KPIWeights) error {
	var name, department, district string
	if inc.Name != nil {
		name = *inc.Name
	}
	if inc.Department != nil {
		department = *inc.Department
	}
	if inc.District != nil {
		district = *inc.District
	}

	_, err := r.pool.Exec(
		ctx,
		`INSERT INTO officers (badge_id, name, department, designation, district, case_closed, cyber_resolved, total_score, last_updated)
		 VALUES (
			$1,
			COALESCE(NULLIF($2, ''), 'Officer ' || $1),
			COALESCE(NULLIF($3, ''), 'Unknown'),
			'Officer',
			NULLIF($4, ''),
			$5,
			$6,
			$5 * $7 + $6 * $8,
			now()
		 )
		 ON CONFLICT (badge_id) DO UPDATE SET
			case_closed    = officers.case_closed + EXCLUDED.case_closed,
			cyber_resolved = officers.cyber_resolved + EXCLUDED.cyber_resolved,
			name = CASE
				WHEN $2 <> '' AND officers.name = 'Officer ' || officers.badge_id THEN $2
				ELSE officers.name
			END,
			department = COALESCE(NULLIF($3, ''), officers.department),
			district   = COALESCE(NULLIF($4, ''), officers.district),
			total_score = (officers.case_closed + EXCLUDED.case_closed) * $7
				+ (officers.cyber_resolved + EXCLUDED.cyber_resolved) * $8
				+ officers.feedback_score * $9
				+ officers.awareness_programs * $10,
			last_updated = now(),
			updated_at   = now()`,
		inc.BadgeID,
		name,
		department,
		district,
		inc.CaseClosed,
		inc.CyberResolved,
		weights.CaseClosed,
		weights.CyberResolved,
		weights.Feedback,
		weights.Awareness,
	)
	if err != nil {
		return fmt.Errorf("failed to apply officer increment: %w", err)
	}

	return nil
}

func (r *officerRepository) GetByBadgeID(ctx context.Context, badgeID string) (domain.Officer, error) {
	row := r.pool.QueryRow(
		ctx,
		`SELECT id, badge_id, name, department, designation, district,
			case_closed, cyber_resolved, feedback_score, awareness_programs,
			emergency_responses, total_score, last_updated, created_at, updated_at
		 FROM officers
		 WHERE badge_id = $1`,
		badgeID,
	)

	officer, err := scanOfficer(row)
	if err != nil {
		return domain.Officer{}, fmt.Errorf("failed to fetch officer %s: %w", badgeID, err)
	}
	return officer, nil
}

// List returns officers ranked by total score, highest first. Ties fall
// back to badge id so the ordering is stable across requests.
func (r *officerRepository) List(ctx context.Context, filter OfficerFilter) ([]domain.Officer, error) {
	query := `SELECT id, badge_id, name, department, designation, district,
		case_closed, cyber_resolved, feedback_score, awareness_programs,
		emergency_responses, total_score, last_updated, created_at, updated_at
	 FROM officers`

	var (
		conditions []string
		args       []any
	)
	if filter.Department != "" {
		args = append(args, filter.Department)
		conditions = append(conditions, fmt.Sprintf("department = $%d", len(args)))
	}
	if filter.District != "" {
		args = append(args, filter.District)
		conditions = append(conditions, fmt.Sprintf("district = $%d", len(args)))
	}
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}

	query += " ORDER BY total_score DESC, badge_id ASC"

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	args = append(args, limit)
	query += fmt.Sprintf(" LIMIT $%d", len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list officers: %w", err)
	}
	defer rows.Close()

	officers := []domain.Officer{}
	for rows.Next() {
		officer, err := scanOfficer(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan officer: %w", err)
		}
		officers = append(officers, officer)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate officers: %w", err)
	}

	return officers, nil
}

func scanOfficer(row pgx.Row) (domain.Officer, error) {
	var (
		officer     domain.Officer
		lastUpdated pgtype.Timestamptz
		createdAt   pgtype.Timestamptz
		updatedAt   pgtype.Timestamptz
	)
	if err := row.Scan(
		&officer.ID,
		&officer.BadgeID,
		&officer.Name,
		&officer.Department,
		&officer.Designation,
		&officer.District,
		&officer.CaseClosed,
		&officer.CyberResolved,
		&officer.FeedbackScore,
		&officer.AwarenessPrograms,
		&officer.EmergencyResponses,
		&officer.TotalScore,
		&lastUpdated,
		&createdAt,
		&updatedAt,
	); err != nil {
		return domain.Officer{}, err
	}

	if lastUpdated.Valid {
		officer.LastUpdated = lastUpdated.Time
	}
	if createdAt.Valid {
		officer.CreatedAt = createdAt.Time
	}
	if updatedAt.Valid {
		officer.UpdatedAt = updatedAt.Time
	}

	return officer, nil
}
