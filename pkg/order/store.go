package order

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"salesflow/pkg/product"
)

// Store runs the workflow's writes as one atomic unit.
type Store interface {
	// WithinTx commits when fn returns nil and rolls everything back
	// otherwise.
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}

// Tx is the set of reads and writes available inside a transaction. Lookups
// of a single missing row return an apperr NotFound error.
type Tx interface {
	CustomerExists(ctx context.Context, id int64) (bool, error)
	StatusByName(ctx context.Context, name StatusName) (Status, error)
	StatusByID(ctx context.Context, id int64) (Status, error)

	// LockProducts returns the existing products among ids, locked against
	// concurrent stock changes until the transaction ends.
	LockProducts(ctx context.Context, ids []int64) (map[int64]product.Product, error)
	// AdjustStock adds delta to the product's stock.
	AdjustStock(ctx context.Context, productID int64, delta int) error

	InsertOrder(ctx context.Context, o *Order) error
	// LockOrder loads an order for update.
	LockOrder(ctx context.Context, id int64) (Order, error)
	// SaveOrder writes the status and total of o.
	SaveOrder(ctx context.Context, o Order) error
	DeleteOrder(ctx context.Context, id int64) error

	Items(ctx context.Context, orderID int64) ([]LineItem, error)
	InsertItem(ctx context.Context, li *LineItem) error
	DeleteItems(ctx context.Context, orderID int64) error
}

// Related selects which relationships a read loads alongside the orders.
type Related uint8

const (
	WithCustomer Related = 1 << iota
	WithStatus
	WithItems

	WithAll = WithCustomer | WithStatus | WithItems
)

// Has reports whether flag is set.
func (r Related) Has(flag Related) bool { return r&flag != 0 }

// Filter narrows an order read. Zero fields do not filter.
type Filter struct {
	OrderID    int64
	CustomerID int64
	// Day matches orders created on the same UTC calendar day.
	Day time.Time
}

// ProductRef is the product snapshot shown next to a line item.
type ProductRef struct {
	ID       int64           `json:"id"`
	Name     string          `json:"nome"`
	Category string          `json:"categoria"`
	Price    decimal.Decimal `json:"preco" swaggertype:"number"`
}

// ItemRecord is a line item with its product, nil when the reference is
// broken.
type ItemRecord struct {
	LineItem
	Product *ProductRef
}

// Record is an order with the relationships requested through Related.
type Record struct {
	Order        Order
	CustomerName *string
	Status       *Status
	Items        []ItemRecord
}

// Reader serves the denormalized read side.
type Reader interface {
	CountOrders(ctx context.Context, f Filter) (int, error)
	// FindOrders returns matching orders ordered by id. A limit of 0 means
	// no limit.
	FindOrders(ctx context.Context, f Filter, offset, limit int, rel Related) ([]Record, error)
}

// Repository is everything a storage backend provides for orders.
type Repository interface {
	Store
	Reader
}
