// Package storetest holds the behavioral contract every store backend must satisfy.
package storetest

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/canlabel/labeler-station/internal/domain"
	"github.com/canlabel/labeler-station/internal/store"
)

// Factory opens an empty store for one subtest.
type Factory func(t *testing.T) store.Store

// Record builds a valid print record for canID.
func Record(canID int64, lot string) *domain.PrintRecord {
	return &domain.PrintRecord{
		CanID:           canID,
		Lot:             lot,
		ProductID:       "prod-dulce",
		BrandID:         "brand-serena",
		WeightGrams:     500,
		RNE:             "02-033527",
		RNPA:            "02-123456",
		Code21:          fmt.Sprintf("7014%06d%s005000", canID, lot),
		ManufactureDate: time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC),
		ExpiryDate:      time.Date(2028, 3, 14, 0, 0, 0, 0, time.UTC),
		PrintedAt:       time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC),
	}
}

// Run exercises the full store contract against backends produced by open.
func Run(t *testing.T, open Factory) {
	t.Helper()

	t.Run("Catalog", func(t *testing.T) { testCatalog(t, open(t)) })
	t.Run("CounterSeedAndRead", func(t *testing.T) { testCounterSeed(t, open(t)) })
	t.Run("CounterAdvanceIsMonotonic", func(t *testing.T) { testCounterAdvance(t, open(t)) })
	t.Run("CounterConcurrentAdvance", func(t *testing.T) { testConcurrentAdvance(t, open(t)) })
	t.Run("AppendAndGet", func(t *testing.T) { testAppendAndGet(t, open(t)) })
	t.Run("DuplicateCanID", func(t *testing.T) { testDuplicateCanID(t, open(t)) })
	t.Run("Lots", func(t *testing.T) { testLots(t, open(t)) })
	t.Run("RecentAndMax", func(t *testing.T) { testRecentAndMax(t, open(t)) })
	t.Run("Audit", func(t *testing.T) { testAudit(t, open(t)) })
}

func testCatalog(t *testing.T, s store.Store) {
	ctx := context.Background()

	products, err := s.ListProducts(ctx)
	require.NoError(t, err)
	assert.Empty(t, products)

	p := &domain.Product{Name: "Dulce de leche", ProductCode: "014", RNE: "02-033527", RNPA: "02-123456"}
	require.NoError(t, s.UpsertProduct(ctx, p))
	assert.NotEmpty(t, p.ID, "id assigned on insert")

	require.NoError(t, s.UpsertProduct(ctx, &domain.Product{ID: "prod-aaa", Name: "Arequipe", ProductCode: "002"}))

	p.Name = "Dulce de leche repostero"
	require.NoError(t, s.UpsertProduct(ctx, p))

	products, err = s.ListProducts(ctx)
	require.NoError(t, err)
	require.Len(t, products, 2)
	assert.Equal(t, "Arequipe", products[0].Name, "ordered by name")
	assert.Equal(t, "Dulce de leche repostero", products[1].Name)
	assert.Equal(t, "014", products[1].ProductCode)

	require.NoError(t, s.UpsertBrand(ctx, &domain.Brand{ID: "brand-serena", Name: "Serena", Indicator: 7}))
	require.NoError(t, s.UpsertBrand(ctx, &domain.Brand{ID: "brand-alba", Name: "Alba", Indicator: 0}))

	brands, err := s.ListBrands(ctx)
	require.NoError(t, err)
	require.Len(t, brands, 2)
	assert.Equal(t, "Alba", brands[0].Name)
	assert.Equal(t, 0, brands[0].Indicator)
	assert.Equal(t, 7, brands[1].Indicator)
}

func testCounterSeed(t *testing.T, s store.Store) {
	ctx := context.Background()

	_, err := s.ReadCounter(ctx)
	require.ErrorIs(t, err, store.ErrCounterNotFound)

	c := &domain.SequenceCounter{NextID: 4821}
	require.NoError(t, s.SeedCounter(ctx, c))
	assert.NotEmpty(t, c.ID)

	got, err := s.ReadCounter(ctx)
	require.NoError(t, err)
	assert.Equal(t, c.ID, got.ID)
	assert.Equal(t, int64(4821), got.NextID)

	err = s.SeedCounter(ctx, &domain.SequenceCounter{NextID: 1})
	require.ErrorIs(t, err, store.ErrAlreadyExists)

	got, err = s.ReadCounter(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(4821), got.NextID, "reseeding must not rewind")
}

func testCounterAdvance(t *testing.T, s store.Store) {
	ctx := context.Background()
	c := &domain.SequenceCounter{ID: "ctr-main", NextID: 4821}
	require.NoError(t, s.SeedCounter(ctx, c))

	require.NoError(t, s.AdvanceCounter(ctx, "ctr-main", 4822))

	err := s.AdvanceCounter(ctx, "ctr-main", 4822)
	require.ErrorIs(t, err, store.ErrStaleCounter, "repeat advance is rejected")

	err = s.AdvanceCounter(ctx, "ctr-main", 100)
	require.ErrorIs(t, err, store.ErrStaleCounter, "backwards advance is rejected")

	err = s.AdvanceCounter(ctx, "ctr-missing", 9000)
	require.ErrorIs(t, err, store.ErrCounterNotFound)

	got, err := s.ReadCounter(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(4822), got.NextID)
}

func testConcurrentAdvance(t *testing.T, s store.Store) {
	ctx := context.Background()
	require.NoError(t, s.SeedCounter(ctx, &domain.SequenceCounter{ID: "ctr-main", NextID: 10}))

	const writers = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
	)
	for range writers {
		wg.Go(func() {
			if err := s.AdvanceCounter(ctx, "ctr-main", 11); err == nil {
				mu.Lock()
				successes++
				mu.Unlock()
			}
		})
	}
	wg.Wait()

	assert.Equal(t, 1, successes, "exactly one writer wins the same advance")

	got, err := s.ReadCounter(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(11), got.NextID)
}

func testAppendAndGet(t *testing.T, s store.Store) {
	ctx := context.Background()

	rec := Record(4821, "00235")
	recID, err := s.AppendRecord(ctx, rec)
	require.NoError(t, err)
	assert.NotEmpty(t, recID)
	assert.Equal(t, recID, rec.ID)

	got, err := s.GetRecordByCanID(ctx, 4821)
	require.NoError(t, err)
	assert.Equal(t, recID, got.ID)
	assert.Equal(t, "00235", got.Lot)
	assert.Equal(t, int64(500), got.WeightGrams)
	assert.Equal(t, rec.Code21, got.Code21)
	assert.Equal(t, "02-033527", got.RNE)
	assert.Equal(t, "2026-03-14", got.ManufactureDate.Format(domain.DateLayout))
	assert.Equal(t, "2028-03-14", got.ExpiryDate.Format(domain.DateLayout))
	assert.True(t, rec.PrintedAt.Equal(got.PrintedAt))

	_, err = s.GetRecordByCanID(ctx, 9999)
	require.ErrorIs(t, err, store.ErrNotFound)
}

func testDuplicateCanID(t *testing.T, s store.Store) {
	ctx := context.Background()

	_, err := s.AppendRecord(ctx, Record(4821, "00235"))
	require.NoError(t, err)

	_, err = s.AppendRecord(ctx, Record(4821, "00999"))
	require.ErrorIs(t, err, store.ErrDuplicateCanID)

	got, err := s.GetRecordByCanID(ctx, 4821)
	require.NoError(t, err)
	assert.Equal(t, "00235", got.Lot, "first record is untouched")

	maxID, err := s.MaxCanID(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(4821), maxID)
}

func testLots(t *testing.T, s store.Store) {
	ctx := context.Background()

	exists, err := s.LotExists(ctx, "00235")
	require.NoError(t, err)
	assert.False(t, exists)

	for _, canID := range []int64{12, 10, 11} {
		_, err := s.AppendRecord(ctx, Record(canID, "00235"))
		require.NoError(t, err)
	}
	_, err = s.AppendRecord(ctx, Record(13, "00236"))
	require.NoError(t, err)

	exists, err = s.LotExists(ctx, "00235")
	require.NoError(t, err)
	assert.True(t, exists)

	records, err := s.ListRecordsByLot(ctx, "00235")
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, []int64{10, 11, 12}, []int64{records[0].CanID, records[1].CanID, records[2].CanID})

	records, err = s.ListRecordsByLot(ctx, "99999")
	require.NoError(t, err)
	assert.Empty(t, records)
}

func testRecentAndMax(t *testing.T, s store.Store) {
	ctx := context.Background()

	maxID, err := s.MaxCanID(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), maxID)

	for canID := int64(1); canID <= 5; canID++ {
		_, err := s.AppendRecord(ctx, Record(canID, "00235"))
		require.NoError(t, err)
	}

	maxID, err = s.MaxCanID(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(5), maxID)

	recent, err := s.ListRecentRecords(ctx, 3)
	require.NoError(t, err)
	require.Len(t, recent, 3)
	assert.Equal(t, int64(5), recent[0].CanID)
	assert.Equal(t, int64(3), recent[2].CanID)

	all, err := s.ListRecentRecords(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, all, 5)
}

func testAudit(t *testing.T, s store.Store) {
	ctx := context.Background()

	audit, err := s.Audit(ctx)
	require.NoError(t, err)
	assert.Nil(t, audit.Counter)
	assert.Zero(t, audit.Records)

	require.NoError(t, s.SeedCounter(ctx, &domain.SequenceCounter{ID: "ctr-main", NextID: 4}))
	for _, canID := range []int64{1, 2, 4} {
		_, err := s.AppendRecord(ctx, Record(canID, "00235"))
		require.NoError(t, err)
	}

	audit, err = s.Audit(ctx)
	require.NoError(t, err)
	require.NotNil(t, audit.Counter)
	assert.Equal(t, int64(3), audit.Records)
	assert.Equal(t, int64(1), audit.MinCanID)
	assert.Equal(t, int64(4), audit.MaxCanID)
	assert.Equal(t, []store.Gap{{From: 3, To: 3}}, audit.Gaps)
	assert.True(t, audit.Lagging, "record 4 exists but counter still says 4")

	require.NoError(t, s.AdvanceCounter(ctx, "ctr-main", 5))
	audit, err = s.Audit(ctx)
	require.NoError(t, err)
	assert.False(t, audit.Lagging)
}
