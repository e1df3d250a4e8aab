package ingestion

import (
	"testing"
	"time"
)

func TestCleanValue(t *testing.T) {
	cases := []struct {
		raw  any
		want any
	}{
		{nil, nil},
		{"", nil},
		{"   ", nil},
		{"null", nil},
		{"NULL", nil},
		{"n/a", nil},
		{"N/A", nil},
		{"  Cuttack  ", "Cuttack"},
		{float64(42), float64(42)},
	}

	for _, tc := range cases {
		if got := cleanValue(tc.raw); got != tc.want {
			t.Fatalf("cleanValue(%#v) = %#v, want %#v", tc.raw, got, tc.want)
		}
	}
}

func TestCleanValueKeepsNumericStrings(t *testing.T) {
	// Badge-like strings must not be promoted to dates or numbers here;
	// only transformers that expect a date field do the upgrade.
	if got := cleanValue("20250101"); got != "20250101" {
		t.Fatalf("numeric string mangled: %#v", got)
	}
}

func TestExtractBadgeIDAliasOrder(t *testing.T) {
	row := Row{"id": "fallback", "badgeId": " pb123 "}
	if got := extractBadgeID(row); got != "PB123" {
		t.Fatalf("expected primary alias to win, got %q", got)
	}
}

func TestExtractBadgeIDHumanReadableAlias(t *testing.T) {
	row := Row{"Badge ID": "pb7"}
	if got := extractBadgeID(row); got != "PB7" {
		t.Fatalf("expected PB7, got %q", got)
	}
}

func TestExtractBadgeIDNumericCell(t *testing.T) {
	row := Row{"badge": float64(4210)}
	if got := extractBadgeID(row); got != "4210" {
		t.Fatalf("expected 4210, got %q", got)
	}
}

func TestExtractBadgeIDMissing(t *testing.T) {
	row := Row{"name": "Asha", "badgeId": "  ", "badge": "null"}
	if got := extractBadgeID(row); got != "" {
		t.Fatalf("expected empty badge id, got %q", got)
	}
}

func TestDateField(t *testing.T) {
	row := Row{"Drive Date": "2025-03-15"}
	got := dateField(row, "driveDate", "Drive Date", "drive_date")
	if got == nil {
		t.Fatalf("expected date")
	}
	want := time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestDateFieldUnparsable(t *testing.T) {
	row := Row{"Drive Date": "sometime soon"}
	if got := dateField(row, "Drive Date"); got != nil {
		t.Fatalf("expected nil for unparsable date, got %v", got)
	}
}

func TestIntFieldDefaultsToZero(t *testing.T) {
	if got := intField(Row{"Cases Handled": "plenty"}, "Cases Handled"); got != 0 {
		t.Fatalf("expected 0 for unparsable count, got %d", got)
	}
	if got := intField(Row{}, "Cases Handled"); got != 0 {
		t.Fatalf("expected 0 for missing count, got %d", got)
	}
	if got := intField(Row{"Cases Handled": float64(7)}, "Cases Handled"); got != 7 {
		t.Fatalf("expected 7, got %d", got)
	}
	if got := intField(Row{"Cases Handled": "-3"}, "Cases Handled"); got != 0 {
		t.Fatalf("expected negative count clamped to 0, got %d", got)
	}
}

func TestFloatFieldParsesStrings(t *testing.T) {
	if got := floatField(Row{"Value Recovered": "5000.50"}, "Value Recovered"); got != 5000.50 {
		t.Fatalf("expected 5000.50, got %v", got)
	}
	if got := floatField(Row{"Value Recovered": "lots"}, "Value Recovered"); got != 0 {
		t.Fatalf("expected 0 for unparsable value, got %v", got)
	}
}
