package kv

import (
	"context"
	"errors"
	"strconv"

	"github.com/dgraph-io/badger/v4"

	"github.com/canlabel/labeler-station/internal/domain"
	"github.com/canlabel/labeler-station/internal/id"
	"github.com/canlabel/labeler-station/internal/store"
)

const (
	indexCan = "can"
	indexLot = "lot"
)

// AppendRecord writes the record and its indexes in one transaction.
// Returns store.ErrDuplicateCanID if the can id was already recorded.
func (s *Store) AppendRecord(ctx context.Context, rec *domain.PrintRecord) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if rec.ID == "" {
		rec.ID = id.MustGenerate(id.PrefixRecord)
	}
	if rec.PrintedAt.IsZero() {
		rec.PrintedAt = s.now()
	}

	can := canKey(rec.CanID)
	err := s.db.Update(func(txn *badger.Txn) error {
		canIdx := s.records.indexKey(indexCan, can)
		taken, err := exists(txn, canIdx)
		if err != nil {
			return err
		}
		if taken {
			return store.ErrDuplicateCanID
		}

		dup, err := exists(txn, s.records.key(rec.ID))
		if err != nil {
			return err
		}
		if dup {
			return store.ErrAlreadyExists
		}

		if err := s.records.put(txn, rec.ID, toRecordRow(rec)); err != nil {
			return err
		}
		if err := txn.Set(canIdx, []byte(rec.ID)); err != nil {
			return err
		}
		return txn.Set(s.records.indexKey(indexLot, rec.Lot, can), []byte(rec.ID))
	})
	if err != nil {
		return "", err
	}
	return rec.ID, nil
}

// GetRecordByCanID retrieves the record for a can id.
// Returns store.ErrNotFound if no label was printed for it.
func (s *Store) GetRecordByCanID(ctx context.Context, canID int64) (*domain.PrintRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var rec *domain.PrintRecord
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(s.records.indexKey(indexCan, canKey(canID)))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return store.ErrNotFound
		}
		if err != nil {
			return err
		}
		recID, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}
		rec, err = s.loadRecord(txn, string(recID))
		return err
	})
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// ListRecordsByLot returns the lot's records in can id order.
func (s *Store) ListRecordsByLot(ctx context.Context, lot string) ([]*domain.PrintRecord, error) {
	// The trailing separator keeps lot 0023 from matching 00235.
	prefix := append(s.records.indexKey(indexLot, lot), ':')
	return s.recordsByIndex(ctx, prefix, false, 0)
}

// LotExists reports whether any label was printed for lot.
func (s *Store) LotExists(ctx context.Context, lot string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	prefix := append(s.records.indexKey(indexLot, lot), ':')
	var found bool
	err := s.db.View(func(txn *badger.Txn) error {
		ids, err := indexValues(txn, prefix, false, 1)
		found = len(ids) > 0
		return err
	})
	return found, err
}

// MaxCanID returns the highest recorded can id, or 0 when the log is empty.
func (s *Store) MaxCanID(ctx context.Context) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	prefix := s.records.indexKey(indexCan)
	var maxID int64
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Reverse = true
		opts.Prefix = prefix

		it := txn.NewIterator(opts)
		defer it.Close()

		it.Seek(append(append([]byte{}, prefix...), 0xFF))
		if !it.ValidForPrefix(prefix) {
			return nil
		}
		var err error
		maxID, err = strconv.ParseInt(string(it.Item().Key()[len(prefix):]), 10, 64)
		return err
	})
	return maxID, err
}

// ListRecentRecords returns up to limit records, newest can id first.
func (s *Store) ListRecentRecords(ctx context.Context, limit int) ([]*domain.PrintRecord, error) {
	if limit <= 0 {
		limit = store.DefaultRecentLimit
	}
	return s.recordsByIndex(ctx, s.records.indexKey(indexCan), true, limit)
}

func (s *Store) recordsByIndex(ctx context.Context, prefix []byte, reverse bool, limit int) ([]*domain.PrintRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var records []*domain.PrintRecord
	err := s.db.View(func(txn *badger.Txn) error {
		ids, err := indexValues(txn, prefix, reverse, limit)
		if err != nil {
			return err
		}
		for _, recID := range ids {
			rec, err := s.loadRecord(txn, recID)
			if err != nil {
				return err
			}
			records = append(records, rec)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}

func (s *Store) loadRecord(txn *badger.Txn, recID string) (*domain.PrintRecord, error) {
	row, err := s.records.get(txn, recID)
	if err != nil {
		return nil, err
	}
	return row.toDomain()
}
