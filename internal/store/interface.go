// Package store defines the persistence contracts of the labeler station:
// catalog, counter ledger and print log.
package store

import (
	"context"

	"github.com/canlabel/labeler-station/internal/domain"
)

// Catalog exposes the products and brands an operator can choose from.
type Catalog interface {
	ListProducts(ctx context.Context) ([]*domain.Product, error)
	ListBrands(ctx context.Context) ([]*domain.Brand, error)
}

// Ledger holds the next unused can id.
type Ledger interface {
	// ReadCounter returns the ledger row. ErrCounterNotFound when unseeded.
	ReadCounter(ctx context.Context) (*domain.SequenceCounter, error)

	// AdvanceCounter moves the counter to nextID. It only succeeds when nextID is
	// greater than the stored value; otherwise it returns ErrStaleCounter and
	// leaves the row unchanged.
	AdvanceCounter(ctx context.Context, counterID string, nextID int64) error
}

// RecordStore is the append-only print log.
type RecordStore interface {
	// AppendRecord stores rec and returns its id, assigning one if rec.ID is empty.
	// Returns ErrDuplicateCanID if a record with the same can id exists.
	AppendRecord(ctx context.Context, rec *domain.PrintRecord) (string, error)
	GetRecordByCanID(ctx context.Context, canID int64) (*domain.PrintRecord, error)
	ListRecordsByLot(ctx context.Context, lot string) ([]*domain.PrintRecord, error)
	LotExists(ctx context.Context, lot string) (bool, error)
	// MaxCanID returns the highest stored can id, or 0 for an empty log.
	MaxCanID(ctx context.Context) (int64, error)
	// ListRecentRecords returns up to limit records, newest first.
	ListRecentRecords(ctx context.Context, limit int) ([]*domain.PrintRecord, error)
}

// Seeder writes catalog entries and the initial ledger row.
// Only setup tooling uses it; the print workflow never does.
type Seeder interface {
	UpsertProduct(ctx context.Context, p *domain.Product) error
	UpsertBrand(ctx context.Context, b *domain.Brand) error
	// SeedCounter creates the ledger row. Returns ErrAlreadyExists if one exists.
	SeedCounter(ctx context.Context, c *domain.SequenceCounter) error
}

// Store is the full persistence surface implemented by each backend.
type Store interface {
	Catalog
	Ledger
	RecordStore
	Seeder

	// Audit summarizes ledger consistency for inspection tooling.
	Audit(ctx context.Context) (*LedgerAudit, error)

	Ping(ctx context.Context) error
	Close() error
}
