package api

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/canlabel/labeler-station/internal/domain"
)

// LabelDate is a calendar date printed on a label. It unmarshals from either:
// - a plain date: "2026-03-14"
// - an RFC3339 timestamp: "2026-03-14T09:30:00-03:00" (the clock part is dropped)
//
// It always marshals to the plain date.
type LabelDate struct {
	time.Time
}

// UnmarshalJSON handles both date forms.
func (d *LabelDate) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("label date must be a string: %w", err)
	}

	if t, err := time.Parse(domain.DateLayout, s); err == nil {
		d.Time = t
		return nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		y, m, day := t.Date()
		d.Time = time.Date(y, m, day, 0, 0, 0, 0, time.UTC)
		return nil
	}
	return fmt.Errorf("cannot parse label date: %s", s)
}

// MarshalJSON outputs the plain date.
func (d LabelDate) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.Format(domain.DateLayout))
}

// Schema describes LabelDate as a string in the OpenAPI document.
func (LabelDate) Schema(huma.Registry) *huma.Schema {
	return &huma.Schema{
		Type:        huma.TypeString,
		Description: "Calendar date, YYYY-MM-DD (RFC3339 timestamps are accepted)",
		Examples:    []any{"2026-03-14"},
	}
}

// timeOrZero unwraps an optional date.
func timeOrZero(d *LabelDate) time.Time {
	if d == nil {
		return time.Time{}
	}
	return d.Time
}
