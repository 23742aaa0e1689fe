package sqlite

import (
	"context"
	"errors"

	"github.com/canlabel/labeler-station/internal/store"
)

// Audit compares the counter with the print log.
// A missing counter is reported as nil rather than an error so an unseeded database can be inspected.
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

	rows, err := s.db.QueryContext(ctx, `SELECT can_id FROM print_records ORDER BY can_id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var canID int64
		if err := rows.Scan(&canID); err != nil {
			return nil, err
		}
		ids = append(ids, canID)
	}
	if err := rows.Err(); err != nil {
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
