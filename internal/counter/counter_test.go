package counter

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"adrelay/internal/core/domain"
)

// memStore is an in-memory port.CounterStore. It round-trips state
// through JSON so the test also covers what the redis adapter persists.
type memStore struct {
	mu   sync.Mutex
	data map[string][]byte
	fail error
}

func newMemStore() *memStore {
	return &memStore{data: make(map[string][]byte)}
}

func (s *memStore) Load(_ context.Context, key string) (*domain.CounterState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail != nil {
		return nil, s.fail
	}
	raw, ok := s.data[key]
	if !ok {
		return nil, nil
	}
	var st domain.CounterState
	if err := json.Unmarshal(raw, &st); err != nil {
		return nil, err
	}
	return &st, nil
}

func (s *memStore) Save(_ context.Context, key string, st *domain.CounterState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail != nil {
		return s.fail
	}
	raw, err := json.Marshal(st)
	if err != nil {
		return err
	}
	s.data[key] = raw
	return nil
}

func TestRecordBumpsAllGranularities(t *testing.T) {
	ctx := context.Background()
	r := New(newMemStore(), 0)
	at := time.Date(2026, 8, 26, 10, 0, 0, 0, time.UTC)

	require.NoError(t, r.RecordImpression(ctx, 1, 10, "u1", at))
	require.NoError(t, r.RecordImpression(ctx, 1, 10, "u2", at))
	require.NoError(t, r.RecordImpression(ctx, 1, 20, "u1", at))
	require.NoError(t, r.RecordClick(ctx, 1, 10, "u1", at))

	totals, err := r.Stats(ctx, 1, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, domain.Tally{Impressions: 3, Clicks: 1}, totals)

	zone10 := int64(10)
	perZone, err := r.Stats(ctx, 1, &zone10, nil)
	require.NoError(t, err)
	assert.Equal(t, domain.Tally{Impressions: 2, Clicks: 1}, perZone)

	perDay, err := r.Stats(ctx, 1, &zone10, &at)
	require.NoError(t, err)
	assert.Equal(t, domain.Tally{Impressions: 2, Clicks: 1}, perDay)

	other := time.Date(2026, 8, 27, 0, 0, 0, 0, time.UTC)
	empty, err := r.Stats(ctx, 1, &zone10, &other)
	require.NoError(t, err)
	assert.Equal(t, domain.Tally{}, empty)
}

func TestCheckCap(t *testing.T) {
	ctx := context.Background()
	r := New(newMemStore(), 24*time.Hour)
	now := time.Now()

	capped, err := r.CheckCap(ctx, 1, "u1", 2)
	require.NoError(t, err)
	assert.False(t, capped)

	require.NoError(t, r.RecordImpression(ctx, 1, 10, "u1", now))
	require.NoError(t, r.RecordImpression(ctx, 1, 10, "u1", now))

	capped, err = r.CheckCap(ctx, 1, "u1", 2)
	require.NoError(t, err)
	assert.True(t, capped)

	// Another user is unaffected.
	capped, err = r.CheckCap(ctx, 1, "u2", 2)
	require.NoError(t, err)
	assert.False(t, capped)
}

// Timestamps older than the window roll off on write, keeping the
// per-user lists bounded.
func TestUserListPrunedToWindow(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	r := New(store, time.Hour)
	base := time.Date(2026, 8, 26, 10, 0, 0, 0, time.UTC)

	require.NoError(t, r.RecordImpression(ctx, 1, 10, "u1", base))
	require.NoError(t, r.RecordImpression(ctx, 1, 10, "u1", base.Add(30*time.Minute)))
	require.NoError(t, r.RecordImpression(ctx, 1, 10, "u1", base.Add(2*time.Hour)))

	st, err := store.Load(ctx, "counters:1")
	require.NoError(t, err)
	require.NotNil(t, st)
	assert.Len(t, st.UserImpressions["u1"], 1)
	// Totals are lifetime counters and keep growing.
	assert.EqualValues(t, 3, st.Totals.Impressions)
}

func TestImpressionsSince(t *testing.T) {
	ctx := context.Background()
	r := New(newMemStore(), 24*time.Hour)
	base := time.Date(2026, 8, 26, 10, 0, 0, 0, time.UTC)

	require.NoError(t, r.RecordImpression(ctx, 1, 10, "u1", base))
	require.NoError(t, r.RecordImpression(ctx, 1, 10, "u1", base.Add(2*time.Hour)))

	n, err := r.ImpressionsSince(ctx, 1, "u1", base.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

// All operations on one campaign key are totally ordered: concurrent
// increments never lose updates.
func TestConcurrentIncrementsAreSerialized(t *testing.T) {
	ctx := context.Background()
	r := New(newMemStore(), 24*time.Hour)
	now := time.Now()

	const workers, perWorker = 10, 50
	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func() {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				if err := r.RecordImpression(ctx, 1, 10, "u1", now); err != nil {
					t.Error(err)
					return
				}
			}
		}()
	}
	wg.Wait()

	totals, err := r.Stats(ctx, 1, nil, nil)
	require.NoError(t, err)
	assert.EqualValues(t, workers*perWorker, totals.Impressions)
}

func TestStoreFailurePropagates(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	store.fail = errors.New("store down")
	r := New(store, 24*time.Hour)

	err := r.RecordImpression(ctx, 1, 10, "u1", time.Now())
	assert.Error(t, err)
}
