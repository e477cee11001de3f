package game

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// GamePersistence — абстракция "положить/достать snapshot".
// Реализуем Redis-ом; в тестах — in-memory map.
type GamePersistence interface {
	Save(ctx context.Context, gameID string, snap GameSnapshot) error
	Load(ctx context.Context, gameID string) (GameSnapshot, bool, error)
}

type RedisGameStore struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisGameStore(rdb *redis.Client, ttl time.Duration) *RedisGameStore {
	return &RedisGameStore{rdb: rdb, ttl: ttl}
}

func (s *RedisGameStore) key(gameID string) string {
	return fmt.Sprintf("game:%s:snapshot", gameID)
}

func (s *RedisGameStore) Save(ctx context.Context, gameID string, snap GameSnapshot) error {
	b, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, s.key(gameID), b, s.ttl).Err()
}

func (s *RedisGameStore) Load(ctx context.Context, gameID string) (GameSnapshot, bool, error) {
	val, err := s.rdb.Get(ctx, s.key(gameID)).Bytes()
	if err == redis.Nil {
		return GameSnapshot{}, false, nil
	}
	if err != nil {
		return GameSnapshot{}, false, err
	}

	var snap GameSnapshot
	if err := json.Unmarshal(val, &snap); err != nil {
		return GameSnapshot{}, false, err
	}
	return snap, true, nil
}
