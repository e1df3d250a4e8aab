package ingestion

import (
	"strconv"
	"strings"
	"time"
)

var timeLayouts = []string{
	time.RFC3339,
	time.RFC3339Nano,
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006/01/02",
	"01/02/2006",
	"02/01/2006",
	"02-01-2006",
	"Jan 2, 2006",
	"2 Jan 2006",
}

// badgeIDAliases is the ordered list of header variants checked when
// extracting the person identifier. Keys are matched case sensitively;
// the first non-empty hit wins.
var badgeIDAliases = []string{
	"badgeId",
	"badge_id",
	"badge",
	"officerBadgeId",
	"officer_badge_id",
	"officer_id",
	"id",
	"Badge ID",
	"BadgeID",
}

// cleanValue normalizes a raw cell: strings are trimmed, empty strings
// and the sentinel tokens "null" / "n/a" become nil, numbers and dates
// pass through. Strings are not blindly promoted to dates here; only
// transformers that expect a date field do that, so numeric badge-like
// strings stay strings.
func cleanValue(raw any) any {
	switch v := raw.(type) {
	case nil:
		return nil
	case string:
		trimmed := strings.TrimSpace(v)
		lower := strings.ToLower(trimmed)
		if trimmed == "" || lower == "null" || lower == "n/a" {
			return nil
		}
		return trimmed
	default:
		return raw
	}
}

// extractBadgeID returns the canonical badge identifier from a row, or ""
// when no alias matches. A missing badge id is the one signal that makes
// a row unusable for every module kind.
func extractBadgeID(row Row) string {
	for _, key := range badgeIDAliases {
		value, ok := row[key]
		if !ok {
			continue
		}
		cleaned := scalarString(cleanValue(value))
		if cleaned != "" {
			return strings.ToUpper(cleaned)
		}
	}
	return ""
}

// fieldValue returns the first cleaned non-nil value among the aliases.
func fieldValue(row Row, aliases ...string) any {
	for _, key := range aliases {
		if raw, ok := row[key]; ok {
			if cleaned := cleanValue(raw); cleaned != nil {
				return cleaned
			}
		}
	}
	return nil
}

// stringField keeps only textual values; numbers and dates yield nil.
func stringField(row Row, aliases ...string) *string {
	if s, ok := fieldValue(row, aliases...).(string); ok {
		return &s
	}
	return nil
}

// dateField promotes a value to a date when the cell is already a date
// or a string that parses under one of the known layouts.
func dateField(row Row, aliases ...string) *time.Time {
	switch v := fieldValue(row, aliases...).(type) {
	case time.Time:
		return &v
	case string:
		if ts, ok := parseDate(v); ok {
			return &ts
		}
	}
	return nil
}

// intField coerces a numeric cell to an int, defaulting to zero when the
// value is missing or unparsable. Negative values clamp to zero; counters
// only ever move forward.
func intField(row Row, aliases ...string) int {
	n := int(floatField(row, aliases...))
	if n < 0 {
		return 0
	}
	return n
}

// floatField coerces a numeric cell to a float64, defaulting to zero when
// missing or unparsable. Negatives clamp to zero.
func floatField(row Row, aliases ...string) float64 {
	var f float64
	switch v := fieldValue(row, aliases...).(type) {
	case float64:
		f = v
	case int:
		f = float64(v)
	case string:
		parsed, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return 0
		}
		f = parsed
	default:
		return 0
	}
	if f < 0 {
		return 0
	}
	return f
}

func parseDate(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	for _, layout := range timeLayouts {
		if ts, err := time.Parse(layout, raw); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}

func scalarString(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	case int:
		return strconv.Itoa(s)
	default:
		return ""
	}
}
