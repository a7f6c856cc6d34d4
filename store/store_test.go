package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func record(run string, episode int) EpisodeRecord {
	return EpisodeRecord{
		RunID:         run,
		Experiment:    "qlearning",
		Episode:       episode,
		TotalReward:   float64(episode) - 3,
		Steps:         10 + episode,
		Captures:      episode % 3,
		Success:       episode%2 == 0,
		AverageLast10: 0.5,
		CreatedAt:     time.Date(2024, 1, 2, 3, 4, 5, episode, time.UTC),
	}
}

func exerciseStore(t *testing.T, s EpisodeStore) {
	ctx := context.Background()
	run, other := NewRunID(), NewRunID()
	for i := 0; i < 5; i++ {
		require.NoError(t, s.SaveEpisode(ctx, record(run, i)))
	}
	require.NoError(t, s.SaveEpisode(ctx, record(other, 42)))

	all, err := s.ListEpisodes(ctx, run, 0)
	require.NoError(t, err)
	require.Len(t, all, 5)
	for i, r := range all {
		assert.Equal(t, record(run, i), r)
	}

	last, err := s.ListEpisodes(ctx, run, 2)
	require.NoError(t, err)
	require.Len(t, last, 2)
	assert.Equal(t, 3, last[0].Episode)
	assert.Equal(t, 4, last[1].Episode)

	none, err := s.ListEpisodes(ctx, NewRunID(), 0)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestMemoryStore(t *testing.T) {
	s := NewMemoryStore()
	exerciseStore(t, s)
	require.NoError(t, s.Close())
}

func TestSQLiteStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "episodes.db")
	s, err := NewStore(context.Background(), "sqlite", path)
	require.NoError(t, err)
	exerciseStore(t, s)
	require.NoError(t, s.Close())

	// records survive a reopen
	reopened, err := NewSQLiteStore(context.Background(), path)
	require.NoError(t, err)
	defer reopened.Close()
	_, err = reopened.ListEpisodes(context.Background(), "missing", 0)
	require.NoError(t, err)
}

func TestSQLiteStoreNeedsPath(t *testing.T) {
	_, err := NewSQLiteStore(context.Background(), "")
	require.Error(t, err)
}

func TestRedisStore(t *testing.T) {
	addr := os.Getenv("PURSUIT_REDIS_ADDR")
	if addr == "" {
		t.Skip("PURSUIT_REDIS_ADDR not set")
	}
	s, err := NewRedisStore(context.Background(), addr)
	require.NoError(t, err)
	defer s.Close()
	exerciseStore(t, s)
}

func TestNewStoreUnknownKind(t *testing.T) {
	_, err := NewStore(context.Background(), "postgres", "")
	require.ErrorIs(t, err, ErrUnknownStore)

	s, err := NewStore(context.Background(), "", "")
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, s)
}
