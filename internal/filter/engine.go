// Package filter narrows and orders sheet records for the event finder.
//
// Everything here is pure and synchronous: records in, records out. The
// only side effects are log lines for unreadable dates and a fault counter.
package filter

import (
	"cmp"
	"fmt"
	"slices"
	"time"

	"github.com/rs/zerolog/log"

	"playgroup_finder/internal/adapters/observability"
	"playgroup_finder/internal/domain"
)

type Engine struct {
	now func() time.Time
	loc *time.Location
}

type Option func(*Engine)

// WithClock overrides the source of "today".
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithLocation sets the zone in which "today" and event dates are read.
func WithLocation(loc *time.Location) Option {
	return func(e *Engine) {
		if loc != nil {
			e.loc = loc
		}
	}
}

func NewEngine(opts ...Option) *Engine {
	e := &Engine{now: time.Now, loc: time.Local}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Apply returns the records matching c, ordered for display. A fault while
// filtering yields an empty result; it is logged and counted, not returned.
func (e *Engine) Apply(records []domain.Record, c domain.Criteria, translation string) (out []domain.Record) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().
				Str("panic", fmt.Sprint(r)).
				Str("translation", translation).
				Interface("criteria", c).
				Msg("filter engine fault, returning empty result")
			observability.ObserveFilterFault()
			out = []domain.Record{}
		}
	}()
	return e.apply(records, c, translation)
}

type ranked struct {
	rec    domain.Record
	paused bool
	slot   TimeSlot
}

func (e *Engine) apply(records []domain.Record, c domain.Criteria, translation string) []domain.Record {
	today := midnight(e.now().In(e.loc))

	// organizer, date and address are free text and never translated
	want := domain.Criteria{
		Area:      translate(translation, c.Area),
		Language:  translate(translation, c.Language),
		Day:       translate(translation, c.Day),
		Age:       translate(translation, c.Age),
		Time:      translate(translation, c.Time),
		Organizer: c.Organizer,
		Date:      c.Date,
		Address:   c.Address,
	}

	kept := make([]ranked, 0, len(records))
	for _, r := range records {
		if !matches(r, want, today) {
			continue
		}
		kept = append(kept, ranked{
			rec:    r,
			paused: r.Str(domain.FieldPaused) == "yes",
			slot:   Classify(r.Str(domain.FieldTime)),
		})
	}

	slices.SortStableFunc(kept, compareRanked)

	out := make([]domain.Record, len(kept))
	for i, k := range kept {
		out[i] = k.rec
	}
	return out
}

// matches checks the predicates in a fixed order and stops at the first miss.
func matches(r domain.Record, c domain.Criteria, today time.Time) bool {
	if c.Address != "" && r.Str(domain.FieldAddress) != c.Address {
		return false
	}
	// past events are dropped whether or not a date was asked for
	eventDate := r.Str(domain.FieldEventDate)
	if !IsUpcoming(eventDate, r.Str(domain.FieldDay), today) {
		return false
	}
	if c.Area != "" && r.Str(domain.FieldArea) != c.Area {
		return false
	}
	if c.Language != "" && !Accepts(DimensionLanguage, c.Language, r.Str(domain.FieldLanguage)) {
		return false
	}
	if c.Day != "" && r.Str(domain.FieldDay) != c.Day {
		return false
	}
	if c.Organizer != "" && r.Str(domain.FieldOrganizer) != c.Organizer {
		return false
	}
	if c.Age != "" && !Accepts(DimensionAge, c.Age, r.Str(domain.FieldAge)) {
		return false
	}
	if c.Time != "" && string(Classify(r.Str(domain.FieldTime)).Category) != c.Time {
		return false
	}
	if c.Date != "" && eventDate != c.Date {
		return false
	}
	return true
}

// compareRanked puts paused listings last, then untimed ones, then orders
// by start time.
func compareRanked(a, b ranked) int {
	if a.paused != b.paused {
		if a.paused {
			return 1
		}
		return -1
	}
	switch {
	case !a.slot.Valid && !b.slot.Valid:
		return 0
	case !a.slot.Valid:
		return 1
	case !b.slot.Valid:
		return -1
	}
	return cmp.Compare(a.slot.Start, b.slot.Start)
}
