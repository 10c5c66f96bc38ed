package store

import (
	"context"
	"time"

	"geofrag/internal/sources"
)

// RunRecord is one archived pipeline run: when it ran, how it ended, and
// the per-source outcomes behind the status.
type RunRecord struct {
	ID         string
	StartedAt  time.Time
	FinishedAt time.Time
	Status     string
	Outcomes   []sources.Outcome
}

type Store interface {
	SaveRun(ctx context.Context, run RunRecord) error
	ListRuns(ctx context.Context, limit int) ([]RunRecord, error)
	Close() error
}

// NopStore archives nothing. It stands in when no database path is
// configured, keeping the pipeline free of nil checks.
type NopStore struct{}

func (s *NopStore) SaveRun(ctx context.Context, run RunRecord) error {
	_ = ctx
	_ = run
	return nil
}

func (s *NopStore) ListRuns(ctx context.Context, limit int) ([]RunRecord, error) {
	_ = ctx
	_ = limit
	return nil, nil
}

func (s *NopStore) Close() error {
	return nil
}
