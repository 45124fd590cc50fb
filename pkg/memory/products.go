package memory

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"

	"salesflow/pkg/apperr"
	"salesflow/pkg/page"
	"salesflow/pkg/product"
)

// Products provides an in-memory implementation of product.Repository.
type Products struct {
	db *DB
}

var _ product.Repository = (*Products)(nil)

func (r *Products) Create(ctx context.Context, p *product.Product) error {
	return r.db.write(func(t *tables) error {
		t.lastProduct++
		p.ID = t.lastProduct
		t.products[p.ID] = *p
		return nil
	})
}

func (r *Products) Get(ctx context.Context, id int64) (product.Product, error) {
	var (
		p  product.Product
		ok bool
	)
	r.db.read(func(t *tables) { p, ok = t.products[id] })
	if !ok {
		return product.Product{}, apperr.NotFound("product", id)
	}
	return p, nil
}

func (r *Products) List(ctx context.Context, offset, limit int) ([]product.Product, error) {
	var all []product.Product
	r.db.read(func(t *tables) { all = sorted(t.products, nil) })
	from, to := page.Window(len(all), offset, limit)
	return all[from:to], nil
}

func (r *Products) Count(ctx context.Context) (int, error) {
	var n int
	r.db.read(func(t *tables) { n = len(t.products) })
	return n, nil
}

func (r *Products) CountByCategory(ctx context.Context, category string) (int, error) {
	var n int
	r.db.read(func(t *tables) {
		for _, p := range t.products {
			if strings.EqualFold(p.Category, category) {
				n++
			}
		}
	})
	return n, nil
}

func (r *Products) PriceAbove(ctx context.Context, price decimal.Decimal) ([]product.Product, error) {
	var out []product.Product
	r.db.read(func(t *tables) {
		out = sorted(t.products, func(p product.Product) bool { return p.Price.GreaterThan(price) })
	})
	return out, nil
}

// Update merges the catalog fields under the write lock. The stored stock is
// kept.
func (r *Products) Update(ctx context.Context, id int64, merge func(*product.Product) error) (product.Product, error) {
	var p product.Product
	err := r.db.write(func(t *tables) error {
		cur, ok := t.products[id]
		if !ok {
			return apperr.NotFound("product", id)
		}
		next := cur
		if err := merge(&next); err != nil {
			return err
		}
		next.ID = id
		next.Stock = cur.Stock
		t.products[id] = next
		p = next
		return nil
	})
	return p, err
}

// Delete removes a product no order item references.
func (r *Products) Delete(ctx context.Context, id int64) error {
	return r.db.write(func(t *tables) error {
		if _, ok := t.products[id]; !ok {
			return apperr.NotFound("product", id)
		}
		for _, li := range t.items {
			if li.ProductID == id {
				return apperr.Conflict("product %d is referenced by order items", id)
			}
		}
		delete(t.products, id)
		return nil
	})
}
