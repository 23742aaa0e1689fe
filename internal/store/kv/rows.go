package kv

import (
	"time"

	"github.com/canlabel/labeler-station/internal/domain"
)

type productRow struct {
	domain.Product
	UpdatedAt time.Time `json:"updated_at"`
}

type brandRow struct {
	domain.Brand
	UpdatedAt time.Time `json:"updated_at"`
}

type counterRow struct {
	domain.SequenceCounter
	CreatedAt time.Time `json:"created_at"`
}

// recordRow keeps the calendar dates as strings so they round-trip without a zone.
type recordRow struct {
	ManufactureDate string `json:"manufacture_date"`
	ExpiryDate      string `json:"expiry_date"`
	domain.PrintRecord
}

func toRecordRow(rec *domain.PrintRecord) *recordRow {
	return &recordRow{
		PrintRecord:     *rec,
		ManufactureDate: rec.ManufactureDate.Format(domain.DateLayout),
		ExpiryDate:      rec.ExpiryDate.Format(domain.DateLayout),
	}
}

func (r *recordRow) toDomain() (*domain.PrintRecord, error) {
	rec := r.PrintRecord
	var err error
	if rec.ManufactureDate, err = time.Parse(domain.DateLayout, r.ManufactureDate); err != nil {
		return nil, err
	}
	if rec.ExpiryDate, err = time.Parse(domain.DateLayout, r.ExpiryDate); err != nil {
		return nil, err
	}
	return &rec, nil
}
