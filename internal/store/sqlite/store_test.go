package sqlite

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/canlabel/labeler-station/internal/domain"
	"github.com/canlabel/labeler-station/internal/store"
	"github.com/canlabel/labeler-station/internal/store/storetest"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "test.db")
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	s, err := Open(dbPath, logger)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestContract(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Store { return newTestStore(t) })
}

func TestOpen(t *testing.T) {
	s := newTestStore(t)

	var journalMode string
	if err := s.db.QueryRow("PRAGMA journal_mode").Scan(&journalMode); err != nil {
		t.Fatalf("query journal_mode: %v", err)
	}
	if journalMode != "wal" {
		t.Errorf("expected wal, got %s", journalMode)
	}

	// FULL = 2
	var synchronous int
	if err := s.db.QueryRow("PRAGMA synchronous").Scan(&synchronous); err != nil {
		t.Fatalf("query synchronous: %v", err)
	}
	if synchronous != 2 {
		t.Errorf("expected synchronous=2, got %d", synchronous)
	}

	for _, table := range []string{"products", "brands", "counters", "print_records"} {
		var name string
		err := s.db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&name)
		if err != nil {
			t.Errorf("table %s not found: %v", table, err)
		}
	}

	if err := s.Ping(context.Background()); err != nil {
		t.Errorf("ping: %v", err)
	}
}

func TestReopenKeepsLedger(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	s, err := Open(dbPath, logger)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	if err := s.SeedCounter(ctx, &domain.SequenceCounter{ID: "ctr-main", NextID: 4821}); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if err := s.AdvanceCounter(ctx, "ctr-main", 4822); err != nil {
		t.Fatalf("advance: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("close store: %v", err)
	}

	// Schema is idempotent.
	s2, err := Open(dbPath, logger)
	if err != nil {
		t.Fatalf("reopen store: %v", err)
	}
	defer s2.Close()

	c, err := s2.ReadCounter(ctx)
	if err != nil {
		t.Fatalf("read counter: %v", err)
	}
	if c.NextID != 4822 {
		t.Errorf("expected next_id 4822 after reopen, got %d", c.NextID)
	}
}

func TestCheckConstraints(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.UpsertBrand(ctx, &domain.Brand{ID: "brand-x", Name: "X", Indicator: 12}); err == nil {
		t.Error("expected indicator check constraint to reject 12")
	}

	rec := storetest.Record(1, "00235")
	rec.WeightGrams = -5
	if _, err := s.AppendRecord(ctx, rec); err == nil {
		t.Error("expected negative weight to be rejected")
	}
}

func TestAppendRecord_DuplicateRecordID(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	first := storetest.Record(1, "00235")
	first.ID = "rec-same"
	if _, err := s.AppendRecord(ctx, first); err != nil {
		t.Fatalf("append: %v", err)
	}

	second := storetest.Record(2, "00235")
	second.ID = "rec-same"
	_, err := s.AppendRecord(ctx, second)
	if err != store.ErrAlreadyExists {
		t.Errorf("expected ErrAlreadyExists, got %v", err)
	}
}
