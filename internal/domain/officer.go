package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Officer is the running per-badge performance aggregate read by
// ranking and reporting. It is created lazily the first time a badge id
// is seen and mutated only through incremental counter additions; it is
// never recomputed from source records, so re-ingesting a file counts
// the same rows again.
type Officer struct {
	ID                 uuid.UUID `json:"id"`
	BadgeID            string    `json:"badgeId"`
	Name               string    `json:"name"`
	Department         string    `json:"department"`
	Designation        string    `json:"designation"`
	District           *string   `json:"district,omitempty"`
	CaseClosed         int       `json:"caseClosed"`
	CyberResolved      int       `json:"cyberResolved"`
	FeedbackScore      float64   `json:"feedbackScore"`
	AwarenessPrograms  int       `json:"awarenessPrograms"`
	EmergencyResponses int       `json:"emergencyResponses"`
	TotalScore         float64   `json:"totalScore"`
	LastUpdated        time.Time `json:"lastUpdated"`
	CreatedAt          time.Time `json:"createdAt"`
	UpdatedAt          time.Time `json:"updatedAt"`
}

// PlaceholderName is the name assigned when an officer is first created
// from a row that carried no name. A later row with a real name replaces it.
func PlaceholderName(badgeID string) string {
	return fmt.Sprintf("Officer %s", badgeID)
}

// OfficerIncrement describes the counter deltas one record contributes.
// Deltas are applied atomically at the store, never read-modify-write.
type OfficerIncrement struct {
	BadgeID       string
	Name          *string
	Department    *string
	District      *string
	CaseClosed    int
	CyberResolved int
}

// IncrementFor maps a transformed record to its aggregate contribution.
// Special Drives add their handled cases, Convictions count one closed
// case, Detections count toward cyberResolved only when the crime
// category mentions cyber.
func IncrementFor(rec PerformanceRecord) OfficerIncrement {
	inc := OfficerIncrement{
		BadgeID:    rec.BadgeID,
		Name:       rec.OfficerName,
		Department: rec.Department,
		District:   rec.District,
	}

	switch rec.Module {
	case ModuleSpecialDrives:
		inc.CaseClosed = rec.CasesHandled
	case ModuleConvictions:
		inc.CaseClosed = 1
	case ModuleDetections:
		if rec.CrimeCategory != nil && strings.Contains(strings.ToLower(*rec.CrimeCategory), "cyber") {
			inc.CyberResolved = 1
		}
	}

	return inc
}

// KPIWeights controls how the derived total score is computed from the
// individual counters. A single row exists; defaults mirror the weights
// operators started with.
type KPIWeights struct {
	CaseClosed    float64 `json:"caseClosedWeight"`
	CyberResolved float64 `json:"cyberResolvedWeight"`
	Feedback      float64 `json:"feedbackWeight"`
	Awareness     float64 `json:"awarenessWeight"`
}

// DefaultKPIWeights returns the stock weighting.
func DefaultKPIWeights() KPIWeights {
	return KPIWeights{
		CaseClosed:    0.4,
		CyberResolved: 0.3,
		Feedback:      0.2,
		Awareness:     0.1,
	}
}
