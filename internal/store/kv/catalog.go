package kv

import (
	"cmp"
	"context"
	"fmt"
	"slices"

	"github.com/dgraph-io/badger/v4"
	"github.com/samber/lo"

	"github.com/canlabel/labeler-station/internal/domain"
	"github.com/canlabel/labeler-station/internal/id"
)

// ListProducts returns every product ordered by name.
func (s *Store) ListProducts(ctx context.Context) ([]*domain.Product, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var rows []*productRow
	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		rows, err = s.products.list(txn)
		return err
	})
	if err != nil {
		return nil, err
	}

	products := lo.Map(rows, func(r *productRow, _ int) *domain.Product {
		p := r.Product
		return &p
	})
	slices.SortFunc(products, func(a, b *domain.Product) int {
		return cmp.Or(cmp.Compare(a.Name, b.Name), cmp.Compare(a.ID, b.ID))
	})
	return products, nil
}

// ListBrands returns every brand ordered by name.
func (s *Store) ListBrands(ctx context.Context) ([]*domain.Brand, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var rows []*brandRow
	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		rows, err = s.brands.list(txn)
		return err
	})
	if err != nil {
		return nil, err
	}

	brands := lo.Map(rows, func(r *brandRow, _ int) *domain.Brand {
		b := r.Brand
		return &b
	})
	slices.SortFunc(brands, func(a, b *domain.Brand) int {
		return cmp.Or(cmp.Compare(a.Name, b.Name), cmp.Compare(a.ID, b.ID))
	})
	return brands, nil
}

// UpsertProduct inserts or replaces a product. An empty ID is assigned.
func (s *Store) UpsertProduct(ctx context.Context, p *domain.Product) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if p.ID == "" {
		p.ID = id.MustGenerate(id.PrefixProduct)
	}
	row := &productRow{Product: *p, UpdatedAt: s.now().UTC()}
	return s.db.Update(func(txn *badger.Txn) error {
		return s.products.put(txn, p.ID, row)
	})
}

// UpsertBrand inserts or replaces a brand. An empty ID is assigned.
func (s *Store) UpsertBrand(ctx context.Context, b *domain.Brand) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if b.Indicator < 0 || b.Indicator > 9 {
		return fmt.Errorf("brand %s: indicator %d out of range 0-9", b.Name, b.Indicator)
	}
	if b.ID == "" {
		b.ID = id.MustGenerate(id.PrefixBrand)
	}
	row := &brandRow{Brand: *b, UpdatedAt: s.now().UTC()}
	return s.db.Update(func(txn *badger.Txn) error {
		return s.brands.put(txn, b.ID, row)
	})
}
