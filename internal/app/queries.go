package app

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"

	"playgroup_finder/internal/adapters/observability"
	"playgroup_finder/internal/domain"
	"playgroup_finder/internal/filter"
	"playgroup_finder/internal/ttlcache"
)

const sheetCacheKey = "sheetData"

// SheetService keeps a short-lived in-process copy of the transformed
// sheet. Cached record sets are shared between callers and must be
// treated as read-only.
type SheetService struct {
	src          domain.RowSource
	cache        *ttlcache.Cache[[]domain.Record]
	fetchTimeout time.Duration
	sf           singleflight.Group
}

func NewSheetService(src domain.RowSource, ttl time.Duration) *SheetService {
	return &SheetService{
		src:          src,
		cache:        ttlcache.New[[]domain.Record](ttl, nil),
		fetchTimeout: 30 * time.Second,
	}
}

// Records returns the current record set, fetching at most once per TTL
// window. Concurrent misses share a single upstream call.
func (s *SheetService) Records(ctx context.Context) ([]domain.Record, error) {
	if recs, ok := s.cache.Get(sheetCacheKey); ok {
		observability.ObserveCache("sheet", "hit")
		log.Debug().Int("records", len(recs)).Msg("serving cached sheet data")
		return recs, nil
	}
	observability.ObserveCache("sheet", "miss")

	v, err, _ := s.sf.Do(sheetCacheKey, func() (any, error) {
		if recs, ok := s.cache.Get(sheetCacheKey); ok {
			return recs, nil
		}
		// detached so one caller going away does not fail the others
		fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.fetchTimeout)
		defer cancel()

		tbl, err := s.src.FetchRows(fctx)
		if err != nil {
			return nil, err
		}
		recs := filter.FromRows(tbl)
		s.cache.Set(sheetCacheKey, recs)
		observability.ObserveCache("sheet", "set")
		log.Info().Int("records", len(recs)).Msg("sheet data cached")
		return recs, nil
	})
	if err != nil {
		log.Error().Err(err).Msg("fetching sheet data failed")
		return nil, fmt.Errorf("load sheet data: %w", err)
	}
	return v.([]domain.Record), nil
}

// Invalidate drops the cached copy so the next call refetches.
func (s *SheetService) Invalidate() {
	s.cache.Delete(sheetCacheKey)
}

type QueryService struct {
	sheets   *SheetService
	engine   *filter.Engine
	cache    domain.Cache
	cacheTTL time.Duration
}

func NewQueryService(sheets *SheetService, engine *filter.Engine, c domain.Cache, ttl time.Duration) *QueryService {
	return &QueryService{sheets: sheets, engine: engine, cache: c, cacheTTL: ttl}
}

func (s *QueryService) AllRecords(ctx context.Context) ([]domain.Record, error) {
	return s.sheets.Records(ctx)
}

// filteredKey is the literal JSON of the request, so two requests share a
// result only when they spell their filters identically.
func filteredKey(c domain.Criteria, translation string) string {
	b, _ := json.Marshal(struct {
		Filters     domain.Criteria `json:"filters"`
		Translation string          `json:"translation,omitempty"`
	}{c, translation})
	return "filtered:" + string(b)
}

func (s *QueryService) Filtered(ctx context.Context, c domain.Criteria, translation string) (domain.FilteredResult, error) {
	key := filteredKey(c, translation)

	var cached []domain.Record
	ok, err := s.cache.Get(ctx, key, &cached)
	if err != nil {
		log.Warn().Err(err).Msg("filtered cache read failed")
	}
	if ok && err == nil {
		return newFilteredResult(cached, true), nil
	}

	recs, err := s.sheets.Records(ctx)
	if err != nil {
		return domain.FilteredResult{}, err
	}
	out := s.engine.Apply(recs, c, translation)
	observability.ObserveFilterResult(len(out))
	log.Info().
		Int("records", len(recs)).
		Int("matched", len(out)).
		Str("translation", translation).
		Msg("filters applied")

	if err := s.cache.Set(ctx, key, out, int(s.cacheTTL.Seconds())); err != nil {
		log.Warn().Err(err).Msg("filtered cache write failed")
	}
	return newFilteredResult(out, false), nil
}

func newFilteredResult(recs []domain.Record, cached bool) domain.FilteredResult {
	if recs == nil {
		recs = []domain.Record{}
	}
	res := domain.FilteredResult{Data: recs, Count: len(recs), Cached: cached}
	if len(recs) > 0 {
		res.Sample = recs[0]
	}
	return res
}

// Markers lists records that can be placed on a map, one per address.
func (s *QueryService) Markers(ctx context.Context) ([]domain.Marker, error) {
	recs, err := s.sheets.Records(ctx)
	if err != nil {
		return nil, err
	}
	return mapMarkers(recs), nil
}
