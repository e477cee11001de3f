package game

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Round — one hidden prompt / public response pair. Immutable once created.
type Round struct {
	ID             string    `json:"id"`
	HiddenPrompt   string    `json:"hiddenPrompt"`
	PublicResponse string    `json:"publicResponse"`
	Tier           int       `json:"tier"`
	CreatedAt      time.Time `json:"createdAt"`
}

// RoundStore bridges stateless request handlers: the generator writes the
// Round before returning the public half, the scorer reads the hidden prompt
// later, possibly from another request.
type RoundStore interface {
	Put(ctx context.Context, r Round) error
	Get(ctx context.Context, id string) (Round, error) // ErrRoundNotFound on miss
}

// MemoryRoundStore keeps the latest rounds, evicting the oldest insertion
// once the cap is exceeded. Insertion-order FIFO, not LRU — a simplicity
// trade-off carried over deliberately.
type MemoryRoundStore struct {
	mu     sync.Mutex
	cap    int
	order  []string
	rounds map[string]Round
}

const DefaultRoundCap = 100

func NewMemoryRoundStore(capacity int) *MemoryRoundStore {
	if capacity <= 0 {
		capacity = DefaultRoundCap
	}
	return &MemoryRoundStore{
		cap:    capacity,
		rounds: make(map[string]Round),
	}
}

func (s *MemoryRoundStore) Put(ctx context.Context, r Round) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.rounds[r.ID]; !exists {
		s.order = append(s.order, r.ID)
	}
	s.rounds[r.ID] = r

	for len(s.order) > s.cap {
		oldest := s.order[0]
		s.order = s.order[1:]
		delete(s.rounds, oldest)
	}
	return nil
}

func (s *MemoryRoundStore) Get(ctx context.Context, id string) (Round, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.rounds[id]
	if !ok {
		return Round{}, ErrRoundNotFound
	}
	return r, nil
}

// Len is for tests and metrics.
func (s *MemoryRoundStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.rounds)
}

// RedisRoundStore is the multi-process variant. TTL plays the role of the
// retention cap.
type RedisRoundStore struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisRoundStore(rdb *redis.Client, ttl time.Duration) *RedisRoundStore {
	return &RedisRoundStore{rdb: rdb, ttl: ttl}
}

func (s *RedisRoundStore) key(id string) string {
	return fmt.Sprintf("round:%s", id)
}

func (s *RedisRoundStore) Put(ctx context.Context, r Round) error {
	b, err := json.Marshal(r)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, s.key(r.ID), b, s.ttl).Err()
}

func (s *RedisRoundStore) Get(ctx context.Context, id string) (Round, error) {
	val, err := s.rdb.Get(ctx, s.key(id)).Bytes()
	if err == redis.Nil {
		return Round{}, ErrRoundNotFound
	}
	if err != nil {
		return Round{}, err
	}

	var r Round
	if err := json.Unmarshal(val, &r); err != nil {
		return Round{}, err
	}
	return r, nil
}
