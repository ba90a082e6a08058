package models

import (
	"fmt"
	"strings"
)

// TimeRange selects the statistics window requested from the backend.
type TimeRange string

const (
	ShortTerm  TimeRange = "short_term"  // roughly the last four weeks
	MediumTerm TimeRange = "medium_term" // roughly the last six months
	LongTerm   TimeRange = "long_term"   // all time

	DefaultTimeRange = MediumTerm
)

// TimeRanges lists every [TimeRange] in selector order.
func TimeRanges() []TimeRange {
	return []TimeRange{ShortTerm, MediumTerm, LongTerm}
}

// ParseTimeRange accepts the wire values and the short aliases short, medium and long.
func ParseTimeRange(s string) (TimeRange, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "short_term", "short":
		return ShortTerm, nil
	case "medium_term", "medium", "":
		return MediumTerm, nil
	case "long_term", "long":
		return LongTerm, nil
	default:
		return "", fmt.Errorf("unknown time range %q", s)
	}
}

// Valid reports whether t is one of the three known windows.
func (t TimeRange) Valid() bool {
	switch t {
	case ShortTerm, MediumTerm, LongTerm:
		return true
	}
	return false
}

func (t TimeRange) String() string {
	return string(t)
}

// Label is the human-readable selector text.
func (t TimeRange) Label() string {
	switch t {
	case ShortTerm:
		return "Last 4 weeks"
	case MediumTerm:
		return "Last 6 months"
	case LongTerm:
		return "All time"
	default:
		return "Unknown"
	}
}
