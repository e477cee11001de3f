package game

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryRoundStore_PutGet(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryRoundStore(10)

	r := Round{ID: "r1", HiddenPrompt: "What is fire?", PublicResponse: "It dances."}
	require.NoError(t, s.Put(ctx, r))

	got, err := s.Get(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, r.HiddenPrompt, got.HiddenPrompt)

	_, err = s.Get(ctx, "missing")
	assert.True(t, errors.Is(err, ErrRoundNotFound))
}

func TestMemoryRoundStore_EvictsOldestInsertion(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryRoundStore(100)

	for i := 1; i <= 101; i++ {
		require.NoError(t, s.Put(ctx, Round{ID: fmt.Sprintf("r%d", i)}))
	}

	// insertion #1 is gone; #2 and the newest survive
	_, err := s.Get(ctx, "r1")
	assert.True(t, errors.Is(err, ErrRoundNotFound))

	_, err = s.Get(ctx, "r2")
	assert.NoError(t, err)
	_, err = s.Get(ctx, "r101")
	assert.NoError(t, err)

	assert.Equal(t, 100, s.Len())
}

func TestMemoryRoundStore_EvictionIsInsertionOrderNotAccessOrder(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryRoundStore(3)

	for i := 1; i <= 3; i++ {
		require.NoError(t, s.Put(ctx, Round{ID: fmt.Sprintf("r%d", i)}))
	}

	// touching r1 must not save it: FIFO, not LRU
	_, err := s.Get(ctx, "r1")
	require.NoError(t, err)

	require.NoError(t, s.Put(ctx, Round{ID: "r4"}))

	_, err = s.Get(ctx, "r1")
	assert.True(t, errors.Is(err, ErrRoundNotFound))
	_, err = s.Get(ctx, "r2")
	assert.NoError(t, err)
}

func TestMemoryRoundStore_DuplicatePutDoesNotEvict(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryRoundStore(2)

	require.NoError(t, s.Put(ctx, Round{ID: "a"}))
	require.NoError(t, s.Put(ctx, Round{ID: "b"}))
	// rewriting an existing id must not count as a new insertion
	require.NoError(t, s.Put(ctx, Round{ID: "a", Tier: 2}))

	got, err := s.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, 2, got.Tier)

	_, err = s.Get(ctx, "b")
	assert.NoError(t, err)
	assert.Equal(t, 2, s.Len())
}

func TestMemoryRoundStore_DefaultCap(t *testing.T) {
	s := NewMemoryRoundStore(0)
	ctx := context.Background()
	for i := 0; i < DefaultRoundCap+5; i++ {
		require.NoError(t, s.Put(ctx, Round{ID: fmt.Sprintf("r%d", i)}))
	}
	assert.Equal(t, DefaultRoundCap, s.Len())
}
