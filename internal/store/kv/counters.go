package kv

import (
	"context"
	"fmt"

	"github.com/dgraph-io/badger/v4"

	"github.com/canlabel/labeler-station/internal/domain"
	"github.com/canlabel/labeler-station/internal/id"
	"github.com/canlabel/labeler-station/internal/store"
)

// ReadCounter returns the station's ledger row, the oldest if several exist.
// Returns store.ErrCounterNotFound if the ledger was never seeded.
func (s *Store) ReadCounter(ctx context.Context) (*domain.SequenceCounter, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var rows []*counterRow
	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		rows, err = s.counters.list(txn)
		return err
	})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, store.ErrCounterNotFound
	}

	oldest := rows[0]
	for _, r := range rows[1:] {
		if r.CreatedAt.Before(oldest.CreatedAt) {
			oldest = r
		}
	}
	c := oldest.SequenceCounter
	return &c, nil
}

// AdvanceCounter moves the counter forward to nextID inside one transaction.
// Concurrent advances conflict at commit; the loser gets an error and the row keeps the winner's value.
func (s *Store) AdvanceCounter(ctx context.Context, counterID string, nextID int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return s.db.Update(func(txn *badger.Txn) error {
		row, err := s.counters.get(txn, counterID)
		if err != nil {
			if err == store.ErrNotFound {
				return store.ErrCounterNotFound
			}
			return err
		}
		if row.NextID >= nextID {
			return store.ErrStaleCounter.WithCause(
				fmt.Errorf("counter %s is at %d, requested %d", counterID, row.NextID, nextID))
		}
		row.NextID = nextID
		row.UpdatedAt = s.now().UTC()
		return s.counters.put(txn, counterID, row)
	})
}

// SeedCounter creates the ledger row.
// Returns store.ErrAlreadyExists if any ledger row exists.
func (s *Store) SeedCounter(ctx context.Context, c *domain.SequenceCounter) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if c.NextID < 1 {
		return fmt.Errorf("seed counter: next id must be positive, got %d", c.NextID)
	}
	if c.ID == "" {
		c.ID = id.MustGenerate(id.PrefixCounter)
	}

	now := s.now().UTC()
	c.UpdatedAt = now

	return s.db.Update(func(txn *badger.Txn) error {
		existing, err := s.counters.list(txn)
		if err != nil {
			return err
		}
		if len(existing) > 0 {
			return store.ErrAlreadyExists
		}
		return s.counters.put(txn, c.ID, &counterRow{SequenceCounter: *c, CreatedAt: now})
	})
}
