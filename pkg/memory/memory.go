// Package memory implements the storage backend in process memory. Order
// transactions hold the write lock and work on a copy of the tables that
// replaces the live copy only when the transaction succeeds.
package memory

import (
	"context"
	"sort"
	"sync"

	"salesflow/pkg/customer"
	"salesflow/pkg/order"
	"salesflow/pkg/product"
)

type tables struct {
	customers map[int64]customer.Customer
	products  map[int64]product.Product
	statuses  map[int64]order.Status
	orders    map[int64]order.Order
	items     map[int64]order.LineItem

	lastCustomer int64
	lastProduct  int64
	lastStatus   int64
	lastOrder    int64
	lastItem     int64
}

func newTables() *tables {
	return &tables{
		customers: make(map[int64]customer.Customer),
		products:  make(map[int64]product.Product),
		statuses:  make(map[int64]order.Status),
		orders:    make(map[int64]order.Order),
		items:     make(map[int64]order.LineItem),
	}
}

func (t *tables) clone() *tables {
	c := *t
	c.customers = cloneMap(t.customers)
	c.products = cloneMap(t.products)
	c.statuses = cloneMap(t.statuses)
	c.orders = cloneMap(t.orders)
	c.items = cloneMap(t.items)
	return &c
}

func cloneMap[V any](m map[int64]V) map[int64]V {
	out := make(map[int64]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// sorted returns the values of m ordered by key.
func sorted[V any](m map[int64]V, keep func(V) bool) []V {
	keys := make([]int64, 0, len(m))
	for k, v := range m {
		if keep == nil || keep(v) {
			keys = append(keys, k)
		}
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	out := make([]V, 0, len(keys))
	for _, k := range keys {
		out = append(out, m[k])
	}
	return out
}

// DB is an in-memory database shared by the repositories it hands out.
type DB struct {
	mu sync.RWMutex
	t  *tables
}

// New creates an empty database.
func New() *DB {
	return &DB{t: newTables()}
}

// SeedStatuses inserts the order statuses that are missing. It is safe to
// call more than once.
func (db *DB) SeedStatuses(ctx context.Context) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	for _, s := range order.SeedStatuses {
		if _, ok := db.t.statusByName(s.Name); ok {
			continue
		}
		db.t.lastStatus++
		s.ID = db.t.lastStatus
		db.t.statuses[s.ID] = s
	}
	return nil
}

// Customers returns the customer repository.
func (db *DB) Customers() *Customers { return &Customers{db: db} }

// Products returns the product repository.
func (db *DB) Products() *Products { return &Products{db: db} }

// Orders returns the order store and reader.
func (db *DB) Orders() *Orders { return &Orders{db: db} }

func (db *DB) read(fn func(t *tables)) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	fn(db.t)
}

func (db *DB) write(fn func(t *tables) error) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	return fn(db.t)
}

func (t *tables) statusByName(name order.StatusName) (order.Status, bool) {
	for _, s := range t.statuses {
		if s.Name == name {
			return s, true
		}
	}
	return order.Status{}, false
}
