// Package product holds the Product entity, its repository contract and the
// catalog service. Stock is written only by the order workflow.
package product

import (
	"context"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"salesflow/pkg/apperr"
)

// Product is a sellable item with its current price and available stock.
type Product struct {
	ID       int64           `json:"id" db:"id"`
	Name     string          `json:"nome" db:"nome"`
	Category string          `json:"categoria" db:"categoria"`
	Price    decimal.Decimal `json:"preco" db:"preco" swaggertype:"number"`
	Stock    int             `json:"estoque" db:"estoque"`
}

// Patch carries a partial update. Stock is accepted only to be rejected.
type Patch struct {
	Name     *string          `json:"nome,omitempty"`
	Category *string          `json:"categoria,omitempty"`
	Price    *decimal.Decimal `json:"preco,omitempty" swaggertype:"number"`
	Stock    *int             `json:"estoque,omitempty"`
}

// Availability answers whether a quantity can be ordered right now.
type Availability struct {
	ProductID int64 `json:"produto_id"`
	Stock     int   `json:"estoque_atual"`
	Requested int   `json:"quantidade_solicitada"`
	Available bool  `json:"disponivel"`
}

// Repository defines behavior for persisting products. Update applies merge
// to the stored product and saves it atomically, and never writes the stock
// column.
type Repository interface {
	Create(ctx context.Context, p *Product) error
	Get(ctx context.Context, id int64) (Product, error)
	// List returns products ordered by id. A limit of 0 means no limit.
	List(ctx context.Context, offset, limit int) ([]Product, error)
	Count(ctx context.Context) (int, error)
	CountByCategory(ctx context.Context, category string) (int, error)
	PriceAbove(ctx context.Context, price decimal.Decimal) ([]Product, error)
	Update(ctx context.Context, id int64, merge func(*Product) error) (Product, error)
	Delete(ctx context.Context, id int64) error
}

// Validate checks the required fields and the non-negative price and stock.
func (p Product) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return apperr.Validation("nome is required")
	}
	if strings.TrimSpace(p.Category) == "" {
		return apperr.Validation("categoria is required")
	}
	if p.Price.IsNegative() {
		return apperr.Validation("preco must not be negative")
	}
	if p.Stock < 0 {
		return apperr.Validation("estoque must not be negative")
	}
	return nil
}

// Apply merges p into dst. Stock changes are refused.
func (p Patch) Apply(dst *Product) error {
	if p.Stock != nil && *p.Stock != dst.Stock {
		return apperr.Validation("estoque is managed by orders and cannot be updated directly")
	}
	if p.Name != nil {
		dst.Name = *p.Name
	}
	if p.Category != nil {
		dst.Category = *p.Category
	}
	if p.Price != nil {
		dst.Price = *p.Price
	}
	return nil
}

var CSVHeader = []string{"id", "nome", "categoria", "preco", "estoque"}

// CSVRecord renders p in CSVHeader order.
func (p Product) CSVRecord() []string {
	return []string{
		strconv.FormatInt(p.ID, 10), p.Name, p.Category, p.Price.String(), strconv.Itoa(p.Stock),
	}
}
