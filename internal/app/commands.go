package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"playgroup_finder/internal/adapters/observability"
	"playgroup_finder/internal/domain"
)

// SyncService copies sheet ranges into the snapshot store.
type SyncService struct {
	sheets domain.RangeFetcher
	repo   domain.SnapshotRepository
	now    func() time.Time
}

func NewSyncService(f domain.RangeFetcher, r domain.SnapshotRepository) *SyncService {
	return &SyncService{sheets: f, repo: r, now: time.Now}
}

// SyncRange fetches rng and replaces its stored snapshot. A range that is
// missing or not shared with us is recorded as a failure and skipped;
// anything else is returned.
func (s *SyncService) SyncRange(ctx context.Context, rng string) (err error) {
	defer func() { observability.ObserveSync(rng, err) }()

	tbl, err := s.sheets.FetchRange(ctx, rng)
	if err != nil {
		if lerr := s.repo.LogSyncFailure(ctx, rng, err.Error()); lerr != nil {
			log.Warn().Err(lerr).Str("range", rng).Msg("recording sync failure failed")
		}
		if errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrForbidden) ||
			errors.Is(err, domain.ErrUnauthorized) {
			log.Warn().Err(err).Str("range", rng).Msg("range unavailable, keeping previous snapshot")
			return nil
		}
		return err
	}

	snap := domain.Snapshot{Range: rng, Table: tbl, FetchedAt: s.now()}
	if err := s.repo.SaveSnapshot(ctx, snap); err != nil {
		return fmt.Errorf("save snapshot %q: %w", rng, err)
	}
	log.Info().Str("range", rng).Int("rows", len(tbl.Rows())).Msg("snapshot stored")
	return nil
}
