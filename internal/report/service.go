package report

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/perfwatch/ingest/internal/domain"
	"github.com/perfwatch/ingest/internal/repository"
)

// csvHeader is the column order of the officer report download.
var csvHeader = []string{
	"badgeId",
	"name",
	"department",
	"designation",
	"district",
	"caseClosed",
	"cyberResolved",
	"feedbackScore",
	"awarenessPrograms",
	"totalScore",
	"lastUpdated",
}

// Service serves the officer ranking built from the running aggregates.
type Service struct {
	officers repository.OfficerRepository
}

// NewService wires the reporting reads.
func NewService(officers repository.OfficerRepository) *Service {
	return &Service{officers: officers}
}

// Leaderboard returns officers ranked by total score, highest first.
func (s *Service) Leaderboard(ctx context.Context, filter repository.OfficerFilter) ([]domain.Officer, error) {
	return s.officers.List(ctx, filter)
}

// WriteCSV streams the ranked officers to w as CSV, header first. Rows
// are written in ranking order.
func (s *Service) WriteCSV(ctx context.Context, w io.Writer, filter repository.OfficerFilter) error {
	officers, err := s.officers.List(ctx, filter)
	if err != nil {
		return fmt.Errorf("list officers: %w", err)
	}

	csvWriter := csv.NewWriter(w)
	if err := csvWriter.Write(csvHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	row := make([]string, len(csvHeader))
	for _, officer := range officers {
		row[0] = officer.BadgeID
		row[1] = officer.Name
		row[2] = officer.Department
		row[3] = officer.Designation
		row[4] = formatOptional(officer.District)
		row[5] = strconv.Itoa(officer.CaseClosed)
		row[6] = strconv.Itoa(officer.CyberResolved)
		row[7] = strconv.FormatFloat(officer.FeedbackScore, 'f', -1, 64)
		row[8] = strconv.Itoa(officer.AwarenessPrograms)
		row[9] = strconv.FormatFloat(officer.TotalScore, 'f', -1, 64)
		row[10] = formatTime(officer.LastUpdated)
		if err := csvWriter.Write(row); err != nil {
			return fmt.Errorf("write officer row: %w", err)
		}
	}

	csvWriter.Flush()
	if err := csvWriter.Error(); err != nil {
		return fmt.Errorf("flush rows: %w", err)
	}
	return nil
}

func formatOptional(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}

func formatTime(value time.Time) string {
	if value.IsZero() {
		return ""
	}
	return value.UTC().Format(time.RFC3339)
}
