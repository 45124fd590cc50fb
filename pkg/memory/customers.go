package memory

import (
	"context"
	"strings"

	"salesflow/pkg/apperr"
	"salesflow/pkg/customer"
	"salesflow/pkg/page"
)

// Customers provides an in-memory implementation of customer.Repository.
type Customers struct {
	db *DB
}

var _ customer.Repository = (*Customers)(nil)

// Create stores c and assigns its id.
func (r *Customers) Create(ctx context.Context, c *customer.Customer) error {
	return r.db.write(func(t *tables) error {
		t.lastCustomer++
		c.ID = t.lastCustomer
		t.customers[c.ID] = *c
		return nil
	})
}

// Get retrieves a customer by ID.
func (r *Customers) Get(ctx context.Context, id int64) (customer.Customer, error) {
	var (
		c  customer.Customer
		ok bool
	)
	r.db.read(func(t *tables) { c, ok = t.customers[id] })
	if !ok {
		return customer.Customer{}, apperr.NotFound("customer", id)
	}
	return c, nil
}

func (r *Customers) List(ctx context.Context, offset, limit int) ([]customer.Customer, error) {
	var all []customer.Customer
	r.db.read(func(t *tables) { all = sorted(t.customers, nil) })
	from, to := page.Window(len(all), offset, limit)
	return all[from:to], nil
}

func (r *Customers) Count(ctx context.Context) (int, error) {
	var n int
	r.db.read(func(t *tables) { n = len(t.customers) })
	return n, nil
}

// Update merges and stores a customer under the write lock.
func (r *Customers) Update(ctx context.Context, id int64, merge func(*customer.Customer) error) (customer.Customer, error) {
	var c customer.Customer
	err := r.db.write(func(t *tables) error {
		cur, ok := t.customers[id]
		if !ok {
			return apperr.NotFound("customer", id)
		}
		if err := merge(&cur); err != nil {
			return err
		}
		cur.ID = id
		t.customers[id] = cur
		c = cur
		return nil
	})
	return c, err
}

// Delete removes a customer that owns no orders.
func (r *Customers) Delete(ctx context.Context, id int64) error {
	return r.db.write(func(t *tables) error {
		if _, ok := t.customers[id]; !ok {
			return apperr.NotFound("customer", id)
		}
		for _, o := range t.orders {
			if o.CustomerID == id {
				return apperr.Conflict("customer %d still has orders", id)
			}
		}
		delete(t.customers, id)
		return nil
	})
}

func (r *Customers) ByState(ctx context.Context, state string) ([]customer.Customer, error) {
	var out []customer.Customer
	r.db.read(func(t *tables) {
		out = sorted(t.customers, func(c customer.Customer) bool {
			return strings.EqualFold(c.State, state)
		})
	})
	return out, nil
}

func (r *Customers) SearchByName(ctx context.Context, fragment string) ([]customer.Customer, error) {
	fragment = strings.ToLower(fragment)
	var out []customer.Customer
	r.db.read(func(t *tables) {
		out = sorted(t.customers, func(c customer.Customer) bool {
			return strings.Contains(strings.ToLower(c.Name), fragment)
		})
	})
	return out, nil
}
