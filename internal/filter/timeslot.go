package filter

import (
	"strconv"
	"strings"
)

type TimeCategory string

const (
	Morning         TimeCategory = "Morning"
	Afternoon       TimeCategory = "Afternoon"
	Evening         TimeCategory = "Evening"
	NoTimeSpecified TimeCategory = "No Time Specified"
)

const rangeSep = " - "

// TimeSlot is the parsed start of a "HH:MM - HH:MM" range. Start is an
// HHMM code (9:15 -> 915): it orders correctly but is not minutes.
type TimeSlot struct {
	Start    int
	Valid    bool
	Category TimeCategory
}

// Classify never fails: anything without a range separator is unspecified,
// and unreadable hour/minute parts count as 0.
func Classify(s string) TimeSlot {
	if s == "" || !strings.Contains(s, rangeSep) {
		return TimeSlot{Category: NoTimeSpecified}
	}
	start, _, _ := strings.Cut(s, rangeSep)
	parts := strings.Split(start, ":")
	code := clockPart(parts[0]) * 100
	if len(parts) > 1 {
		code += clockPart(parts[1])
	}

	slot := TimeSlot{Start: code, Valid: true}
	switch {
	case code < 1200:
		slot.Category = Morning
	case code < 1600:
		slot.Category = Afternoon
	default:
		slot.Category = Evening
	}
	return slot
}

func clockPart(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0
	}
	return n
}
