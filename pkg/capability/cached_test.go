package capability

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mapStore struct {
	mu   sync.Mutex
	data map[string][]byte
	err  error
}

func (s *mapStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, false, s.err
	}
	v, ok := s.data[key]
	return v, ok, nil
}

func (s *mapStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	if s.data == nil {
		s.data = make(map[string][]byte)
	}
	s.data[key] = value
	return nil
}

func TestCachedMemoizes(t *testing.T) {
	inner := &fakeProvider{name: "p", res: EntailmentResult{Entails: true, Confidence: 0.8}}
	obs := &recordingObserver{}
	c := NewCached(inner, &mapStore{}, time.Hour, nil, obs)

	for i := 0; i < 3; i++ {
		res, err := c.CheckEntailment(context.Background(), "Win a prize", "competition")
		require.NoError(t, err)
		assert.Equal(t, 0.8, res.Confidence)
	}
	assert.Equal(t, 1, inner.calls)
	assert.Equal(t, 2, obs.hits)
	assert.Equal(t, 1, obs.miss)

	// Different inputs miss.
	_, err := c.CheckEntailment(context.Background(), "Win a prize", "charity")
	require.NoError(t, err)
	assert.Equal(t, 2, inner.calls)
}

func TestCachedDoesNotCacheFailures(t *testing.T) {
	inner := &fakeProvider{name: "p", err: errors.New("down")}
	store := &mapStore{}
	c := NewCached(inner, store, time.Hour, nil, nil)

	_, err := c.DetectPeople(context.Background(), Image{Data: []byte{1, 2, 3}})
	require.Error(t, err)
	assert.Empty(t, store.data)
}

func TestCachedStoreErrorsFallThrough(t *testing.T) {
	inner := &fakeProvider{name: "p", res: EntailmentResult{Entails: true}}
	c := NewCached(inner, &mapStore{err: errors.New("redis down")}, time.Hour, nil, nil)

	res, err := c.VerifyLockup(context.Background(), Image{}, LockupDrinkaware)
	require.NoError(t, err)
	assert.True(t, res.Valid)
}

func TestKey(t *testing.T) {
	a := Key(OpCheckEntailment, []byte("ab"), []byte("c"))
	b := Key(OpCheckEntailment, []byte("a"), []byte("bc"))
	assert.NotEqual(t, a, b)
	assert.Contains(t, a, OpCheckEntailment+":")
}
