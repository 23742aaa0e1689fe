package sqlite

import (
	"context"

	"github.com/canlabel/labeler-station/internal/domain"
	"github.com/canlabel/labeler-station/internal/id"
)

// ListProducts returns every product ordered by name.
func (s *Store) ListProducts(ctx context.Context) ([]*domain.Product, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, product_code, rne, rnpa FROM products ORDER BY name ASC, id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var products []*domain.Product
	for rows.Next() {
		var p domain.Product
		if err := rows.Scan(&p.ID, &p.Name, &p.ProductCode, &p.RNE, &p.RNPA); err != nil {
			return nil, err
		}
		products = append(products, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return products, nil
}

// ListBrands returns every brand ordered by name.
func (s *Store) ListBrands(ctx context.Context) ([]*domain.Brand, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, indicator FROM brands ORDER BY name ASC, id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var brands []*domain.Brand
	for rows.Next() {
		var b domain.Brand
		if err := rows.Scan(&b.ID, &b.Name, &b.Indicator); err != nil {
			return nil, err
		}
		brands = append(brands, &b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return brands, nil
}

// UpsertProduct inserts or replaces a product. An empty ID is assigned.
func (s *Store) UpsertProduct(ctx context.Context, p *domain.Product) error {
	if p.ID == "" {
		p.ID = id.MustGenerate(id.PrefixProduct)
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO products (id, name, product_code, rne, rnpa, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			product_code = excluded.product_code,
			rne = excluded.rne,
			rnpa = excluded.rnpa,
			updated_at = excluded.updated_at`,
		p.ID, p.Name, p.ProductCode, p.RNE, p.RNPA, formatTime(s.now()),
	)
	return err
}

// UpsertBrand inserts or replaces a brand. An empty ID is assigned.
func (s *Store) UpsertBrand(ctx context.Context, b *domain.Brand) error {
	if b.ID == "" {
		b.ID = id.MustGenerate(id.PrefixBrand)
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO brands (id, name, indicator, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			indicator = excluded.indicator,
			updated_at = excluded.updated_at`,
		b.ID, b.Name, b.Indicator, formatTime(s.now()),
	)
	return err
}
