package store

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

// MaxRedisEpisodes bounds the list kept per run
const MaxRedisEpisodes = 100000

type RedisStore struct {
	cli    *redis.Client
	prefix string
}

var _ EpisodeStore = &RedisStore{}

// NewRedisStore connects to addr, which is either host:port or a redis:// URL
func NewRedisStore(ctx context.Context, addr string) (*RedisStore, error) {
	opts := &redis.Options{Addr: addr}
	if strings.HasPrefix(addr, "redis://") || strings.HasPrefix(addr, "rediss://") {
		parsed, err := redis.ParseURL(addr)
		if err != nil {
			return nil, errors.Wrapf(err, "parsing redis url")
		}
		opts = parsed
	}
	if opts.Addr == "" {
		opts.Addr = "127.0.0.1:6379"
	}
	cli := redis.NewClient(opts)
	if err := cli.Ping(ctx).Err(); err != nil {
		_ = cli.Close()
		return nil, errors.Wrapf(err, "connecting to redis at %s", opts.Addr)
	}
	return &RedisStore{cli: cli, prefix: "pursuit:episodes:"}, nil
}

func (s *RedisStore) key(runID string) string {
	return s.prefix + runID
}

func (s *RedisStore) SaveEpisode(ctx context.Context, record EpisodeRecord) error {
	bs, err := json.Marshal(record)
	if err != nil {
		return errors.Wrap(err, "encoding episode")
	}
	pipe := s.cli.TxPipeline()
	pipe.RPush(ctx, s.key(record.RunID), bs)
	pipe.LTrim(ctx, s.key(record.RunID), -MaxRedisEpisodes, -1)
	_, err = pipe.Exec(ctx)
	return errors.Wrapf(err, "saving episode %d of run %s", record.Episode, record.RunID)
}

func (s *RedisStore) ListEpisodes(ctx context.Context, runID string, limit int) ([]EpisodeRecord, error) {
	start := int64(0)
	if limit > 0 {
		start = int64(-limit)
	}
	vals, err := s.cli.LRange(ctx, s.key(runID), start, -1).Result()
	if err != nil {
		return nil, errors.Wrapf(err, "listing run %s", runID)
	}
	out := make([]EpisodeRecord, len(vals))
	for i, v := range vals {
		if err := json.Unmarshal([]byte(v), &out[i]); err != nil {
			return nil, errors.Wrap(err, "decoding episode")
		}
	}
	return out, nil
}

// Clear drops every record of the run
func (s *RedisStore) Clear(ctx context.Context, runID string) error {
	return s.cli.Del(ctx, s.key(runID)).Err()
}

func (s *RedisStore) Close() error {
	return s.cli.Close()
}
