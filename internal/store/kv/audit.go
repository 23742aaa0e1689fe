package kv

import (
	"context"
	"errors"
	"strconv"

	"github.com/dgraph-io/badger/v4"

	"github.com/canlabel/labeler-station/internal/store"
)

// Audit compares the counter with the print log by walking the can id index.
func (s *Store) Audit(ctx context.Context) (*store.LedgerAudit, error) {
	audit := &store.LedgerAudit{}

	counter, err := s.ReadCounter(ctx)
	switch {
	case errors.Is(err, store.ErrCounterNotFound):
	case err != nil:
		return nil, err
	default:
		audit.Counter = counter
	}

	prefix := s.records.indexKey(indexCan)
	var ids []int64
	err = s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false // Key-only walk
		opts.Prefix = prefix

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			canID, err := strconv.ParseInt(string(it.Item().Key()[len(prefix):]), 10, 64)
			if err != nil {
				return err
			}
			ids = append(ids, canID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	audit.Records = int64(len(ids))
	if len(ids) > 0 {
		audit.MinCanID = ids[0]
		audit.MaxCanID = ids[len(ids)-1]
	}
	audit.Gaps = store.FindGaps(ids)
	if audit.Counter != nil && audit.Records > 0 {
		audit.Lagging = audit.Counter.Lags(audit.MaxCanID)
	}
	return audit, nil
}
