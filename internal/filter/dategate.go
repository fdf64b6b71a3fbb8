package filter

import (
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// Dates are parsed with an explicit midnight so a bare "2024-05-01" is
// read in the engine's location rather than as UTC.
const eventDateLayout = "2006-01-02T15:04:05"

func midnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// parseEventDate returns the event day at local midnight, or false.
func parseEventDate(s string, loc *time.Location) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	t, err := time.ParseInLocation(eventDateLayout, strings.TrimSpace(s)+"T00:00:00", loc)
	if err != nil {
		log.Error().Str("event_date", s).Msg("invalid event date")
		return time.Time{}, false
	}
	return midnight(t), true
}

// IsUpcoming reports whether an event on eventDate is today or later.
// Listings with neither a date nor a day are recurring and always pass;
// a day without a readable date does not.
func IsUpcoming(eventDate, day string, today time.Time) bool {
	today = midnight(today)
	if d, ok := parseEventDate(eventDate, today.Location()); ok {
		return !d.Before(today)
	}
	return eventDate == "" && day == ""
}
