package ingestion

import (
	"errors"
	"fmt"
	"time"

	"github.com/perfwatch/ingest/internal/domain"
)

// ErrMissingBadgeID rejects a row with no recognizable badge identifier.
// The reason string is the same for every module kind.
var ErrMissingBadgeID = errors.New("missing badge id")

// TransformRow maps a parsed row to a structured performance record for
// the declared module. Transformers are pure: no persistence, no
// cross-field validation (a future-dated conviction passes, deliberately).
func TransformRow(module domain.Module, row Row) (domain.PerformanceRecord, error) {
	switch module {
	case domain.ModuleSpecialDrives:
		return transformSpecialDrives(row)
	case domain.ModuleConvictions:
		return transformConvictions(row)
	case domain.ModuleDetections:
		return transformDetections(row)
	default:
		return domain.PerformanceRecord{}, fmt.Errorf("unknown module %q", module)
	}
}

func baseRecord(module domain.Module, row Row) (domain.PerformanceRecord, error) {
	badgeID := extractBadgeID(row)
	if badgeID == "" {
		return domain.PerformanceRecord{}, ErrMissingBadgeID
	}
	return domain.PerformanceRecord{
		Module:      module,
		BadgeID:     badgeID,
		OfficerName: stringField(row, "officerName", "Officer Name", "officer_name"),
		Department:  stringField(row, "department", "Department"),
		District:    stringField(row, "district", "District"),
		RawRow:      rawRow(row),
		CreatedAt:   time.Now().UTC(),
	}, nil
}

func transformSpecialDrives(row Row) (domain.PerformanceRecord, error) {
	rec, err := baseRecord(domain.ModuleSpecialDrives, row)
	if err != nil {
		return domain.PerformanceRecord{}, err
	}

	rec.DriveName = stringField(row, "driveName", "Drive Name", "drive_name")
	rec.DriveDate = dateField(row, "driveDate", "Drive Date", "drive_date")
	// Present-but-unparsable counts default to zero rather than failing the row.
	rec.CasesHandled = intField(row, "casesHandled", "Cases Handled", "cases_handled")

	return rec, nil
}

func transformConvictions(row Row) (domain.PerformanceRecord, error) {
	rec, err := baseRecord(domain.ModuleConvictions, row)
	if err != nil {
		return domain.PerformanceRecord{}, err
	}

	rec.CaseNumber = stringField(row, "caseNumber", "Case Number", "case_number")
	rec.ConvictionDate = dateField(row, "convictionDate", "Conviction Date", "conviction_date")
	rec.CrimeType = stringField(row, "crimeType", "Crime Type", "crime_type")
	rec.CourtName = stringField(row, "courtName", "Court Name", "court_name")

	return rec, nil
}

func transformDetections(row Row) (domain.PerformanceRecord, error) {
	rec, err := baseRecord(domain.ModuleDetections, row)
	if err != nil {
		return domain.PerformanceRecord{}, err
	}

	rec.DetectionDate = dateField(row, "detectionDate", "Detection Date", "detection_date")
	rec.CrimeCategory = stringField(row, "crimeCategory", "Crime Category", "crime_category")
	rec.ValueRecovered = floatField(row, "valueRecovered", "Value Recovered", "value_recovered")

	return rec, nil
}

// rawRow snapshots the parsed row for audit and replay.
func rawRow(row Row) map[string]any {
	snapshot := make(map[string]any, len(row))
	for k, v := range row {
		snapshot[k] = v
	}
	return snapshot
}
