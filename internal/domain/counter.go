package domain

import "time"

// SequenceCounter is the ledger row holding the next unused can id.
// NextID never decreases; each value is consumed by at most one PrintRecord.
type SequenceCounter struct {
	UpdatedAt time.Time `json:"updated_at"`
	ID        string    `json:"id"`
	NextID    int64     `json:"next_id"`
}

// Lags reports whether a persisted record already consumed NextID or a later value,
// i.e. the counter was not advanced after its last print.
func (c *SequenceCounter) Lags(maxCanID int64) bool {
	return maxCanID >= c.NextID
}
