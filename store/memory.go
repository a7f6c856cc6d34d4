package store

import (
	"context"
	"sync"
)

type MemoryStore struct {
	mu   sync.RWMutex
	runs map[string][]EpisodeRecord
}

var _ EpisodeStore = &MemoryStore{}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		runs: make(map[string][]EpisodeRecord),
	}
}

func (m *MemoryStore) SaveEpisode(_ context.Context, record EpisodeRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs[record.RunID] = append(m.runs[record.RunID], record)
	return nil
}

func (m *MemoryStore) ListEpisodes(_ context.Context, runID string, limit int) ([]EpisodeRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return lastN(m.runs[runID], limit), nil
}

func (m *MemoryStore) Close() error {
	return nil
}
