// Package kv implements the station store on an embedded Badger database.
//
// Key layout:
//
//	product:<id>                 JSON domain.Product
//	brand:<id>                   JSON domain.Brand
//	counter:<id>                 JSON counterRow
//	record:<id>                  JSON domain.PrintRecord
//	record:idx:can:<can id>      record id (can id zero padded to 20 digits)
//	record:idx:lot:<lot>:<can>   record id
package kv

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/canlabel/labeler-station/internal/store"
)

// Store wraps a Badger database instance.
type Store struct {
	db     *badger.DB
	logger *slog.Logger
	now    func() time.Time

	products *entity[productRow]
	brands   *entity[brandRow]
	counters *entity[counterRow]
	records  *entity[recordRow]
}

var _ store.Store = (*Store)(nil)

// Open opens (or creates) a Badger database in the directory path.
func Open(path string, logger *slog.Logger) (*Store, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil            // Disable Badger's internal logging
	opts.SyncWrites = true       // A committed record must be on disk before the counter moves
	opts.CompactL0OnClose = true // Compact L0 tables on close for faster startup

	return open(opts, logger)
}

// OpenInMemory opens a volatile store, used by tests and dry runs.
func OpenInMemory(logger *slog.Logger) (*Store, error) {
	opts := badger.DefaultOptions("").WithInMemory(true)
	opts.Logger = nil
	return open(opts, logger)
}

func open(opts badger.Options, logger *slog.Logger) (*Store, error) {
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger db: %w", err)
	}

	s := &Store{
		db:       db,
		logger:   logger,
		now:      time.Now,
		products: newEntity[productRow]("product:"),
		brands:   newEntity[brandRow]("brand:"),
		counters: newEntity[counterRow]("counter:"),
		records:  newEntity[recordRow]("record:"),
	}

	if logger != nil {
		logger.Info("Badger store opened", "path", opts.Dir, "in_memory", opts.InMemory)
	}
	return s, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping reports whether the database is open.
func (s *Store) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.db.IsClosed() {
		return fmt.Errorf("badger db is closed")
	}
	return nil
}

// canKey renders a can id so lexical key order equals numeric order.
func canKey(canID int64) string {
	return fmt.Sprintf("%020d", canID)
}
