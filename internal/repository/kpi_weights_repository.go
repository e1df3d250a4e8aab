package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/perfwatch/ingest/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type kpiWeightsRepository struct {
	pool *pgxpool.Pool
}

// NewKPIWeightsRepository wires a repository backed by pgxpool.
func NewKPIWeightsRepository(pool *pgxpool.Pool) KPIWeightsRepository {
	return &kpiWeightsRepository{pool: pool}
}

// Get reads the single weighting row, falling back to the stock weights
// when none has been configured yet.
func (r *kpiWeightsRepository) Get(ctx context.Context) (domain.KPIWeights, error) {
	row := r.pool.QueryRow(
		ctx,
		`SELECT case_closed_weight, cyber_resolved_weight, feedback_weight, awareness_weight
		 FROM kpi_weights
		 ORDER BY updated_at DESC
		 LIMIT 1`,
	)

	var weights domain.KPIWeights
	if err := row.Scan(&weights.CaseClosed, &weights.CyberResolved, &weights.Feedback, &weights.Awareness); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.DefaultKPIWeights(), nil
		}
		return domain.KPIWeights{}, fmt.Errorf("failed to fetch kpi weights: %w", err)
	}

	return weights, nil
}
