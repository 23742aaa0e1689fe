package kv

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/canlabel/labeler-station/internal/domain"
	"github.com/canlabel/labeler-station/internal/store"
	"github.com/canlabel/labeler-station/internal/store/storetest"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(t.TempDir(), nil)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestContract(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Store { return newTestStore(t) })
}

func TestContract_InMemory(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Store {
		s, err := OpenInMemory(nil)
		require.NoError(t, err)
		t.Cleanup(func() { s.Close() })
		return s
	})
}

func TestCanKeyOrdersNumerically(t *testing.T) {
	assert.Less(t, canKey(9), canKey(10))
	assert.Less(t, canKey(999999), canKey(1000000))
	assert.Len(t, canKey(1), 20)
}

func TestLotPrefixDoesNotOverlap(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.AppendRecord(ctx, storetest.Record(1, "00235"))
	require.NoError(t, err)

	// Shorter lot strings never reach the workflow, but the index must still be exact.
	exists, err := s.LotExists(ctx, "0023")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestReopenKeepsLedger(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	s, err := Open(dir, nil)
	require.NoError(t, err)
	require.NoError(t, s.SeedCounter(ctx, &domain.SequenceCounter{ID: "ctr-main", NextID: 4821}))
	_, err = s.AppendRecord(ctx, storetest.Record(4821, "00235"))
	require.NoError(t, err)
	require.NoError(t, s.AdvanceCounter(ctx, "ctr-main", 4822))
	require.NoError(t, s.Close())

	s2, err := Open(dir, nil)
	require.NoError(t, err)
	defer s2.Close()

	c, err := s2.ReadCounter(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(4822), c.NextID)

	maxID, err := s2.MaxCanID(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(4821), maxID)
}

func TestPingAfterClose(t *testing.T) {
	s, err := OpenInMemory(nil)
	require.NoError(t, err)
	require.NoError(t, s.Ping(context.Background()))
	require.NoError(t, s.Close())
	assert.Error(t, s.Ping(context.Background()))
}

func TestUpsertBrand_RejectsIndicatorOutOfRange(t *testing.T) {
	s := newTestStore(t)
	err := s.UpsertBrand(context.Background(), &domain.Brand{Name: "X", Indicator: 10})
	assert.Error(t, err)
}
