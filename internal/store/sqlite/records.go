package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/canlabel/labeler-station/internal/domain"
	"github.com/canlabel/labeler-station/internal/id"
	"github.com/canlabel/labeler-station/internal/store"
)

// recordColumns is the ordered list of columns selected in record queries.
// Must match the scan order in scanRecord.
const recordColumns = `id, can_id, lot, product_id, brand_id, weight_grams, rne, rnpa, code21,
	manufacture_date, expiry_date, printed_at`

// scanRecord scans a sql.Row (or sql.Rows via its Scan method) into a domain.PrintRecord.
func scanRecord(scanner interface{ Scan(dest ...any) error }) (*domain.PrintRecord, error) {
	var (
		rec         domain.PrintRecord
		manufacture string
		expiry      string
		printedAt   string
	)

	err := scanner.Scan(
		&rec.ID,
		&rec.CanID,
		&rec.Lot,
		&rec.ProductID,
		&rec.BrandID,
		&rec.WeightGrams,
		&rec.RNE,
		&rec.RNPA,
		&rec.Code21,
		&manufacture,
		&expiry,
		&printedAt,
	)
	if err != nil {
		return nil, err
	}

	if rec.ManufactureDate, err = parseDate(manufacture); err != nil {
		return nil, err
	}
	if rec.ExpiryDate, err = parseDate(expiry); err != nil {
		return nil, err
	}
	if rec.PrintedAt, err = parseTime(printedAt); err != nil {
		return nil, err
	}
	return &rec, nil
}

// AppendRecord inserts a print record.
// Returns store.ErrDuplicateCanID if the can id was already recorded.
func (s *Store) AppendRecord(ctx context.Context, rec *domain.PrintRecord) (string, error) {
	if rec.ID == "" {
		rec.ID = id.MustGenerate(id.PrefixRecord)
	}
	if rec.PrintedAt.IsZero() {
		rec.PrintedAt = s.now()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO print_records (
			id, can_id, lot, product_id, brand_id, weight_grams, rne, rnpa, code21,
			manufacture_date, expiry_date, printed_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID,
		rec.CanID,
		rec.Lot,
		rec.ProductID,
		rec.BrandID,
		rec.WeightGrams,
		rec.RNE,
		rec.RNPA,
		rec.Code21,
		formatDate(rec.ManufactureDate),
		formatDate(rec.ExpiryDate),
		formatTime(rec.PrintedAt),
	)
	if err != nil {
		switch {
		case isUniqueViolation(err, "can_id"):
			return "", store.ErrDuplicateCanID.WithCause(err)
		case isUniqueViolation(err, "print_records.id"):
			return "", store.ErrAlreadyExists
		}
		return "", err
	}
	return rec.ID, nil
}

// GetRecordByCanID retrieves the record for a can id.
// Returns store.ErrNotFound if no label was printed for it.
func (s *Store) GetRecordByCanID(ctx context.Context, canID int64) (*domain.PrintRecord, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+recordColumns+` FROM print_records WHERE can_id = ?`, canID)

	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// ListRecordsByLot returns the lot's records in can id order.
func (s *Store) ListRecordsByLot(ctx context.Context, lot string) ([]*domain.PrintRecord, error) {
	return s.queryRecords(ctx,
		`SELECT `+recordColumns+` FROM print_records WHERE lot = ? ORDER BY can_id ASC`, lot)
}

// LotExists reports whether any label was printed for lot.
func (s *Store) LotExists(ctx context.Context, lot string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM print_records WHERE lot = ?)`, lot).Scan(&exists)
	return exists, err
}

// MaxCanID returns the highest recorded can id, or 0 when the log is empty.
func (s *Store) MaxCanID(ctx context.Context) (int64, error) {
	var maxID sql.NullInt64
	if err := s.db.QueryRowContext(ctx, `SELECT MAX(can_id) FROM print_records`).Scan(&maxID); err != nil {
		return 0, err
	}
	return maxID.Int64, nil
}

// ListRecentRecords returns up to limit records, newest can id first.
func (s *Store) ListRecentRecords(ctx context.Context, limit int) ([]*domain.PrintRecord, error) {
	if limit <= 0 {
		limit = store.DefaultRecentLimit
	}
	return s.queryRecords(ctx,
		`SELECT `+recordColumns+` FROM print_records ORDER BY can_id DESC LIMIT ?`, limit)
}

func (s *Store) queryRecords(ctx context.Context, query string, args ...any) ([]*domain.PrintRecord, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []*domain.PrintRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return records, nil
}
