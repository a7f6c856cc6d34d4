// Package store persists the summaries of finished training episodes.
package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// EpisodeRecord summarises one finished episode of an experiment
type EpisodeRecord struct {
	RunID         string    `json:"run_id"`
	Experiment    string    `json:"experiment"`
	Episode       int       `json:"episode"`
	TotalReward   float64   `json:"total_reward"`
	Steps         int       `json:"steps"`
	Captures      int       `json:"captures"`
	Success       bool      `json:"success"`
	AverageLast10 float64   `json:"average_last_10"`
	CreatedAt     time.Time `json:"created_at"`
}

// EpisodeStore keeps episode records grouped by run. ListEpisodes returns
// the last limit records of the run in insertion order, all of them when
// limit is not positive.
type EpisodeStore interface {
	SaveEpisode(ctx context.Context, record EpisodeRecord) error
	ListEpisodes(ctx context.Context, runID string, limit int) ([]EpisodeRecord, error)
	Close() error
}

var ErrUnknownStore = errors.New("unsupported store backend")

// NewStore opens the backend named by kind. dsn is the database path for
// sqlite and the address or URL for redis, memory ignores it.
func NewStore(ctx context.Context, kind, dsn string) (EpisodeStore, error) {
	switch kind {
	case "", "memory":
		return NewMemoryStore(), nil
	case "sqlite":
		return NewSQLiteStore(ctx, dsn)
	case "redis":
		return NewRedisStore(ctx, dsn)
	default:
		return nil, errors.Wrapf(ErrUnknownStore, "%q", kind)
	}
}

// NewRunID returns a fresh identifier for a training run
func NewRunID() string {
	return uuid.NewString()
}

func lastN(records []EpisodeRecord, limit int) []EpisodeRecord {
	if limit > 0 && len(records) > limit {
		records = records[len(records)-limit:]
	}
	out := make([]EpisodeRecord, len(records))
	copy(out, records)
	return out
}
