package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/empowering-agents/server/internal/agent/model"
	errx "github.com/empowering-agents/server/internal/core/error"
	logx "github.com/empowering-agents/server/pkg/logger"
	"github.com/redis/go-redis/v9"
)

// RedisMemoryRepository stores each user's memory as a single JSON document
// under one key. SET overwrites the whole document, matching the file
// repository's full-overwrite semantics.
type RedisMemoryRepository struct {
	rdb redis.Cmdable
	ttl time.Duration
}

func NewRedisMemoryRepository(rdb redis.Cmdable, ttl time.Duration) *RedisMemoryRepository {
	return &RedisMemoryRepository{rdb: rdb, ttl: ttl}
}

func (r *RedisMemoryRepository) memoryKey(userID string) string {
	return fmt.Sprintf("memory:%s:document", userID)
}

func (r *RedisMemoryRepository) Load(ctx context.Context, userID string) (*model.UserMemory, error) {
	key := r.memoryKey(userID)

	raw, err := r.rdb.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrMemoryNotFound
		}
		logx.Error().Err(err).Str("key", key).Msg("failed to load memory document from redis")
		return nil, errx.WrapRedis(err)
	}

	var m model.UserMemory
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		logx.Error().Err(err).Str("user_id", userID).Msg("failed to unmarshal memory document")
		return nil, fmt.Errorf("unmarshal memory document: %w", err)
	}
	return &m, nil
}

func (r *RedisMemoryRepository) Save(ctx context.Context, memory *model.UserMemory) error {
	b, err := json.Marshal(memory)
	if err != nil {
		logx.Error().Err(err).Str("user_id", memory.UserID).Msg("failed to marshal memory document")
		return fmt.Errorf("marshal memory document: %w", err)
	}
	key := r.memoryKey(memory.UserID)

	if err := r.rdb.Set(ctx, key, b, r.ttl).Err(); err != nil {
		logx.Error().Err(err).Str("key", key).Msg("failed to write memory document to redis")
		return errx.WrapRedis(err)
	}
	return nil
}

var _ model.MemoryRepository = (*RedisMemoryRepository)(nil)
