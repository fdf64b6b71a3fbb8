package mysql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"playgroup_finder/internal/domain"
)

type Repo struct{ db *sql.DB }

func New(db *sql.DB) *Repo { return &Repo{db: db} }

func (r *Repo) SaveSnapshot(ctx context.Context, s domain.Snapshot) error {
	header, err := json.Marshal(nonNil(s.Table.Header()))
	if err != nil {
		return fmt.Errorf("encode header: %w", err)
	}
	rows, err := json.Marshal(nonNilRows(s.Table.Rows()))
	if err != nil {
		return fmt.Errorf("encode rows: %w", err)
	}
	fetched := s.FetchedAt
	if fetched.IsZero() {
		fetched = time.Now()
	}
	_, err = r.db.ExecContext(ctx, upsertSnapshotSQL,
		s.Range,
		string(header),
		string(rows),
		len(s.Table.Rows()),
		fetched.UTC(),
	)
	return err
}

func (r *Repo) LogSyncFailure(ctx context.Context, rng string, reason string) error {
	if len(reason) > 1024 {
		reason = reason[:1024]
	}
	_, err := r.db.ExecContext(ctx, insertSyncFailureSQL, rng, reason)
	return err
}

func (r *Repo) GetSnapshot(ctx context.Context, rng string) (domain.Snapshot, error) {
	row := r.db.QueryRowContext(ctx, getSnapshotSQL, rng)

	var s domain.Snapshot
	var headerJSON, rowsJSON []byte
	if err := row.Scan(&s.Range, &headerJSON, &rowsJSON, &s.FetchedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Snapshot{}, domain.ErrNotFound
		}
		return domain.Snapshot{}, err
	}

	var header []string
	var rows [][]string
	if err := json.Unmarshal(headerJSON, &header); err != nil {
		return domain.Snapshot{}, fmt.Errorf("decode header: %w", err)
	}
	if err := json.Unmarshal(rowsJSON, &rows); err != nil {
		return domain.Snapshot{}, fmt.Errorf("decode rows: %w", err)
	}
	s.Table = append(domain.Table{header}, rows...)
	return s, nil
}

// SnapshotSource serves one stored range as a row source, so the API can
// run off the ingestor's copy instead of calling Sheets directly.
type SnapshotSource struct {
	repo *Repo
	rng  string
}

func NewSnapshotSource(repo *Repo, rng string) *SnapshotSource {
	return &SnapshotSource{repo: repo, rng: rng}
}

func (s *SnapshotSource) FetchRows(ctx context.Context) (domain.Table, error) {
	snap, err := s.repo.GetSnapshot(ctx, s.rng)
	if err != nil {
		return nil, fmt.Errorf("load snapshot %q: %w", s.rng, err)
	}
	return snap.Table, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func nonNilRows(rs [][]string) [][]string {
	if rs == nil {
		return [][]string{}
	}
	return rs
}
