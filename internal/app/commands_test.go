package app_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"playgroup_finder/internal/app"
	"playgroup_finder/internal/domain"
)

type fakeFetcher struct {
	tables map[string]domain.Table
	errs   map[string]error
}

func (f *fakeFetcher) FetchRange(_ context.Context, rng string) (domain.Table, error) {
	if err := f.errs[rng]; err != nil {
		return nil, err
	}
	return f.tables[rng], nil
}

type fakeRepo struct {
	saved    map[string]domain.Snapshot
	failures []string
	saveErr  error
}

func (r *fakeRepo) SaveSnapshot(_ context.Context, s domain.Snapshot) error {
	if r.saveErr != nil {
		return r.saveErr
	}
	if r.saved == nil {
		r.saved = map[string]domain.Snapshot{}
	}
	r.saved[s.Range] = s
	return nil
}

func (r *fakeRepo) LogSyncFailure(_ context.Context, rng, reason string) error {
	r.failures = append(r.failures, rng+": "+reason)
	return nil
}

func (r *fakeRepo) GetSnapshot(_ context.Context, rng string) (domain.Snapshot, error) {
	s, ok := r.saved[rng]
	if !ok {
		return domain.Snapshot{}, domain.ErrNotFound
	}
	return s, nil
}

func TestSyncRange_StoresSnapshot(t *testing.T) {
	f := &fakeFetcher{tables: map[string]domain.Table{"Main!A:C": {{"Address"}, {"1 Main St"}}}}
	repo := &fakeRepo{}
	svc := app.NewSyncService(f, repo)

	if err := svc.SyncRange(context.Background(), "Main!A:C"); err != nil {
		t.Fatalf("SyncRange: %v", err)
	}
	got, err := repo.GetSnapshot(context.Background(), "Main!A:C")
	if err != nil {
		t.Fatalf("GetSnapshot: %v", err)
	}
	if len(got.Table) != 2 || got.FetchedAt.IsZero() {
		t.Fatalf("unexpected snapshot: %+v", got)
	}
}

func TestSyncRange_Failures(t *testing.T) {
	upstream := fmt.Errorf("sheets: status 503: %w", domain.ErrUpstream)
	f := &fakeFetcher{errs: map[string]error{
		"Gone!A:B":   fmt.Errorf("sheets: %w", domain.ErrNotFound),
		"Secret!A:B": fmt.Errorf("sheets: %w", domain.ErrForbidden),
		"Flaky!A:B":  upstream,
	}}
	repo := &fakeRepo{}
	svc := app.NewSyncService(f, repo)
	ctx := context.Background()

	// unavailable ranges are skipped
	for _, rng := range []string{"Gone!A:B", "Secret!A:B"} {
		if err := svc.SyncRange(ctx, rng); err != nil {
			t.Fatalf("%s: expected skip, got %v", rng, err)
		}
	}
	if err := svc.SyncRange(ctx, "Flaky!A:B"); !errors.Is(err, domain.ErrUpstream) {
		t.Fatalf("expected upstream error, got %v", err)
	}
	if len(repo.failures) != 3 {
		t.Fatalf("expected every failure recorded, got %v", repo.failures)
	}
	if len(repo.saved) != 0 {
		t.Fatalf("nothing should be saved: %+v", repo.saved)
	}
}

func TestSyncRange_SaveError(t *testing.T) {
	f := &fakeFetcher{tables: map[string]domain.Table{"Main!A:C": {{"Address"}}}}
	repo := &fakeRepo{saveErr: errors.New("deadlock")}

	err := app.NewSyncService(f, repo).SyncRange(context.Background(), "Main!A:C")
	if err == nil || len(repo.failures) != 0 {
		t.Fatalf("expected save error without a fetch failure record, got %v / %v", err, repo.failures)
	}
}
