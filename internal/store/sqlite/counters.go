package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/canlabel/labeler-station/internal/domain"
	"github.com/canlabel/labeler-station/internal/id"
	"github.com/canlabel/labeler-station/internal/store"
)

// ReadCounter returns the station's ledger row.
// Returns store.ErrCounterNotFound if the ledger was never seeded.
func (s *Store) ReadCounter(ctx context.Context) (*domain.SequenceCounter, error) {
	var (
		c         domain.SequenceCounter
		updatedAt string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, next_id, updated_at FROM counters ORDER BY created_at ASC, id ASC LIMIT 1`,
	).Scan(&c.ID, &c.NextID, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrCounterNotFound
	}
	if err != nil {
		return nil, err
	}

	if c.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return &c, nil
}

// AdvanceCounter moves next_id forward to nextID.
// The WHERE clause is the monotonic guard: a stale or repeated advance changes no rows.
func (s *Store) AdvanceCounter(ctx context.Context, counterID string, nextID int64) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE counters SET next_id = ?, updated_at = ? WHERE id = ? AND next_id < ?`,
		nextID, formatTime(s.now()), counterID, nextID,
	)
	if err != nil {
		return err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 1 {
		return nil
	}

	var current int64
	err = s.db.QueryRowContext(ctx, `SELECT next_id FROM counters WHERE id = ?`, counterID).Scan(&current)
	if errors.Is(err, sql.ErrNoRows) {
		return store.ErrCounterNotFound
	}
	if err != nil {
		return err
	}
	return store.ErrStaleCounter.WithCause(fmt.Errorf("counter %s is at %d, requested %d", counterID, current, nextID))
}

// SeedCounter creates the ledger row.
// Returns store.ErrAlreadyExists if any ledger row exists.
func (s *Store) SeedCounter(ctx context.Context, c *domain.SequenceCounter) error {
	if c.NextID < 1 {
		return fmt.Errorf("seed counter: next id must be positive, got %d", c.NextID)
	}
	if c.ID == "" {
		c.ID = id.MustGenerate(id.PrefixCounter)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	var existing int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM counters`).Scan(&existing); err != nil {
		return err
	}
	if existing > 0 {
		return store.ErrAlreadyExists
	}

	now := s.now()
	c.UpdatedAt = now.UTC()
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO counters (id, next_id, created_at, updated_at) VALUES (?, ?, ?, ?)`,
		c.ID, c.NextID, formatTime(now), formatTime(now),
	); err != nil {
		return err
	}
	return tx.Commit()
}
