package postgres

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"salesflow/pkg/apperr"
	"salesflow/pkg/product"
)

const productColumns = `id, nome, categoria, preco, estoque`

// Products persists products in PostgreSQL.
type Products struct {
	db *sqlx.DB
}

var _ product.Repository = (*Products)(nil)

// Create inserts p and sets its id.
func (r *Products) Create(ctx context.Context, p *product.Product) error {
	err := r.db.QueryRowxContext(ctx,
		`INSERT INTO produto (nome, categoria, preco, estoque) VALUES ($1, $2, $3, $4) RETURNING id`,
		p.Name, p.Category, p.Price, p.Stock,
	).Scan(&p.ID)
	if err != nil {
		return mapErr("insert product", err)
	}
	return nil
}

// Get returns the product with id.
func (r *Products) Get(ctx context.Context, id int64) (product.Product, error) {
	var p product.Product
	err := r.db.GetContext(ctx, &p, `SELECT `+productColumns+` FROM produto WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return product.Product{}, apperr.NotFound("product", id)
	}
	if err != nil {
		return product.Product{}, mapErr("select product", err)
	}
	return p, nil
}

func (r *Products) List(ctx context.Context, offset, limit int) ([]product.Product, error) {
	q, args := pageArgs(`SELECT `+productColumns+` FROM produto ORDER BY id`, nil, offset, limit)
	return r.selectAll(ctx, "list products", q, args...)
}

func (r *Products) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.GetContext(ctx, &n, `SELECT count(*) FROM produto`); err != nil {
		return 0, mapErr("count products", err)
	}
	return n, nil
}

func (r *Products) CountByCategory(ctx context.Context, category string) (int, error) {
	var n int
	err := r.db.GetContext(ctx, &n, `SELECT count(*) FROM produto WHERE lower(categoria) = lower($1)`, category)
	if err != nil {
		return 0, mapErr("count products by category", err)
	}
	return n, nil
}

func (r *Products) PriceAbove(ctx context.Context, price decimal.Decimal) ([]product.Product, error) {
	return r.selectAll(ctx, "products by price",
		`SELECT `+productColumns+` FROM produto WHERE preco > $1 ORDER BY id`, price)
}

// Update locks the product row, applies merge and writes the catalog fields
// back in one transaction. Stock is left to the order workflow.
func (r *Products) Update(ctx context.Context, id int64, merge func(*product.Product) error) (product.Product, error) {
	var p product.Product
	err := inTx(ctx, r.db, func(tx *sqlx.Tx) error {
		err := tx.GetContext(ctx, &p, `SELECT `+productColumns+` FROM produto WHERE id = $1 FOR UPDATE`, id)
		if errors.Is(err, sql.ErrNoRows) {
			return apperr.NotFound("product", id)
		}
		if err != nil {
			return mapErr("lock product", err)
		}
		stock := p.Stock
		if err := merge(&p); err != nil {
			return err
		}
		p.Stock = stock
		_, err = tx.ExecContext(ctx,
			`UPDATE produto SET nome = $2, categoria = $3, preco = $4 WHERE id = $1`,
			id, p.Name, p.Category, p.Price)
		if err != nil {
			return mapErr("update product", err)
		}
		return nil
	})
	if err != nil {
		return product.Product{}, err
	}
	p.ID = id
	return p, nil
}

// Delete removes a product no order line references.
func (r *Products) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM produto WHERE id = $1`, id)
	if pqCode(err) == codeForeignKeyViolation {
		return apperr.Conflict("product %d is referenced by order items", id)
	}
	if err != nil {
		return mapErr("delete product", err)
	}
	return affected(res, "product", id)
}

func (r *Products) selectAll(ctx context.Context, op, query string, args ...any) ([]product.Product, error) {
	var out []product.Product
	if err := r.db.SelectContext(ctx, &out, query, args...); err != nil {
		return nil, mapErr(op, err)
	}
	return out, nil
}
