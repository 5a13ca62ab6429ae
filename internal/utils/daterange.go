package utils

import (
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

const rangeSeparator = " to "

type DateRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// SplitDateRange splits "start to end" into its trimmed halves without
// validating them. A value without the separator is returned as start only.
func SplitDateRange(value string) (string, string) {
	value = strings.TrimSpace(value)
	start, end, found := strings.Cut(value, rangeSeparator)
	if !found {
		return value, ""
	}
	return strings.TrimSpace(start), strings.TrimSpace(end)
}

// ParseDateRange parses "YYYY-MM-DD to YYYY-MM-DD". Anything else yields nil.
func ParseDateRange(value string) *DateRange {
	startRaw, endRaw := SplitDateRange(value)
	if startRaw == "" || endRaw == "" {
		return nil
	}
	start, err := time.Parse(dateLayout, startRaw)
	if err != nil {
		return nil
	}
	end, err := time.Parse(dateLayout, endRaw)
	if err != nil {
		return nil
	}
	if end.Before(start) {
		return nil
	}
	return &DateRange{Start: start, End: end}
}
