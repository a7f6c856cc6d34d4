package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/pkg/errors"

	_ "modernc.org/sqlite"
)

type SQLiteStore struct {
	path string
	db   *sql.DB
}

var _ EpisodeStore = &SQLiteStore{}

// NewSQLiteStore opens the database file and creates the episodes table
func NewSQLiteStore(ctx context.Context, path string) (*SQLiteStore, error) {
	if path == "" {
		return nil, errors.New("sqlite path is required")
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.Wrapf(err, "opening %s", path)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, errors.Wrapf(err, "opening %s", path)
	}
	if err := createTables(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &SQLiteStore{path: path, db: db}, nil
}

func createTables(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS episodes (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id TEXT NOT NULL,
			experiment TEXT NOT NULL,
			episode INTEGER NOT NULL,
			total_reward REAL NOT NULL,
			steps INTEGER NOT NULL,
			captures INTEGER NOT NULL,
			success INTEGER NOT NULL,
			average_last_10 REAL NOT NULL,
			created_at TEXT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS episodes_run ON episodes (run_id, id);
	`)
	return errors.Wrap(err, "creating episodes table")
}

func (s *SQLiteStore) SaveEpisode(ctx context.Context, r EpisodeRecord) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO episodes (run_id, experiment, episode, total_reward, steps, captures, success, average_last_10, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, r.RunID, r.Experiment, r.Episode, r.TotalReward, r.Steps, r.Captures, r.Success, r.AverageLast10, r.CreatedAt.UTC().Format(time.RFC3339Nano))
	return errors.Wrapf(err, "saving episode %d of run %s", r.Episode, r.RunID)
}

func (s *SQLiteStore) ListEpisodes(ctx context.Context, runID string, limit int) ([]EpisodeRecord, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT run_id, experiment, episode, total_reward, steps, captures, success, average_last_10, created_at
		FROM episodes WHERE run_id = ? ORDER BY id DESC LIMIT ?
	`, runID, limit)
	if err != nil {
		return nil, errors.Wrapf(err, "listing run %s", runID)
	}
	defer rows.Close()

	out := make([]EpisodeRecord, 0)
	for rows.Next() {
		var r EpisodeRecord
		var created string
		if err := rows.Scan(&r.RunID, &r.Experiment, &r.Episode, &r.TotalReward, &r.Steps, &r.Captures, &r.Success, &r.AverageLast10, &created); err != nil {
			return nil, errors.Wrap(err, "scanning episode")
		}
		if r.CreatedAt, err = time.Parse(time.RFC3339Nano, created); err != nil {
			return nil, errors.Wrapf(err, "parsing time of episode %d", r.Episode)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrapf(err, "listing run %s", runID)
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
