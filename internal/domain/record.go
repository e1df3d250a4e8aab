package domain

import (
	"time"

	"github.com/google/uuid"
)

// PerformanceRecord is one successfully transformed row. The Module field
// discriminates which of the optional groups below is populated; the raw
// source row is kept verbatim for audit and replay. Records are created
// once and never mutated.
type PerformanceRecord struct {
	ID          uuid.UUID `json:"id"`
	Module      Module    `json:"module"`
	BadgeID     string    `json:"officerBadgeId"`
	OfficerName *string   `json:"officerName,omitempty"`
	Department  *string   `json:"department,omitempty"`
	District    *string   `json:"district,omitempty"`

	// Special Drives
	DriveName    *string    `json:"driveName,omitempty"`
	DriveDate    *time.Time `json:"driveDate,omitempty"`
	CasesHandled int        `json:"casesHandled,omitempty"`

	// Convictions
	CaseNumber     *string    `json:"caseNumber,omitempty"`
	ConvictionDate *time.Time `json:"convictionDate,omitempty"`
	CrimeType      *string    `json:"crimeType,omitempty"`
	CourtName      *string    `json:"courtName,omitempty"`

	// Detections
	DetectionDate  *time.Time `json:"detectionDate,omitempty"`
	CrimeCategory  *string    `json:"crimeCategory,omitempty"`
	ValueRecovered float64    `json:"valueRecovered,omitempty"`

	RawRow      map[string]any `json:"rawData"`
	ImportJobID uuid.UUID      `json:"importJobId"`
	CreatedAt   time.Time      `json:"createdAt"`
}
