package store

import "github.com/canlabel/labeler-station/internal/domain"

// DefaultRecentLimit is used when a caller asks for recent records without a limit.
const DefaultRecentLimit = 50

// Gap is an inclusive range of can ids with no print record.
type Gap struct {
	From int64 `json:"from"`
	To   int64 `json:"to"`
}

// LedgerAudit compares the counter with the print log.
type LedgerAudit struct {
	Counter  *domain.SequenceCounter `json:"counter,omitempty"`
	Gaps     []Gap                   `json:"gaps"`
	Records  int64                   `json:"records"`
	MinCanID int64                   `json:"min_can_id"`
	MaxCanID int64                   `json:"max_can_id"`
	// Lagging means a record holds a can id at or past the counter.
	Lagging bool `json:"lagging"`
}

// FindGaps returns missing ranges in an ascending list of can ids.
func FindGaps(ascending []int64) []Gap {
	var gaps []Gap
	for i := 1; i < len(ascending); i++ {
		prev, cur := ascending[i-1], ascending[i]
		if cur > prev+1 {
			gaps = append(gaps, Gap{From: prev + 1, To: cur - 1})
		}
	}
	return gaps
}
