package memory

import (
	"context"

	"salesflow/pkg/apperr"
	"salesflow/pkg/order"
	"salesflow/pkg/page"
	"salesflow/pkg/product"
)

// Orders provides an in-memory implementation of order.Repository.
type Orders struct {
	db *DB
}

var _ order.Repository = (*Orders)(nil)

// WithinTx runs fn against a copy of the tables and publishes the copy only
// when fn succeeds. Transactions are serialized.
func (r *Orders) WithinTx(ctx context.Context, fn func(ctx context.Context, tx order.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	work := r.db.t.clone()
	if err := fn(ctx, &tx{t: work}); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	r.db.t = work
	return nil
}

func (r *Orders) CountOrders(ctx context.Context, f order.Filter) (int, error) {
	var n int
	r.db.read(func(t *tables) {
		for _, o := range t.orders {
			if matches(o, f) {
				n++
			}
		}
	})
	return n, nil
}

func (r *Orders) FindOrders(ctx context.Context, f order.Filter, offset, limit int, rel order.Related) ([]order.Record, error) {
	var out []order.Record
	r.db.read(func(t *tables) {
		all := sorted(t.orders, func(o order.Order) bool { return matches(o, f) })
		from, to := page.Window(len(all), offset, limit)

		out = make([]order.Record, 0, to-from)
		for _, o := range all[from:to] {
			out = append(out, t.record(o, rel))
		}
	})
	return out, nil
}

func matches(o order.Order, f order.Filter) bool {
	if f.OrderID != 0 && o.ID != f.OrderID {
		return false
	}
	if f.CustomerID != 0 && o.CustomerID != f.CustomerID {
		return false
	}
	if !f.Day.IsZero() {
		y1, m1, d1 := o.CreatedAt.UTC().Date()
		y2, m2, d2 := f.Day.Date()
		if y1 != y2 || m1 != m2 || d1 != d2 {
			return false
		}
	}
	return true
}

func (t *tables) record(o order.Order, rel order.Related) order.Record {
	rec := order.Record{Order: o}
	if rel.Has(order.WithCustomer) {
		if c, ok := t.customers[o.CustomerID]; ok {
			name := c.Name
			rec.CustomerName = &name
		}
	}
	if rel.Has(order.WithStatus) {
		if s, ok := t.statuses[o.StatusID]; ok {
			rec.Status = &s
		}
	}
	if rel.Has(order.WithItems) {
		for _, li := range t.orderItems(o.ID) {
			ir := order.ItemRecord{LineItem: li}
			if p, ok := t.products[li.ProductID]; ok {
				ir.Product = &order.ProductRef{ID: p.ID, Name: p.Name, Category: p.Category, Price: p.Price}
			}
			rec.Items = append(rec.Items, ir)
		}
	}
	return rec
}

func (t *tables) orderItems(orderID int64) []order.LineItem {
	return sorted(t.items, func(li order.LineItem) bool { return li.OrderID == orderID })
}

// tx is a transaction over a private copy of the tables.
type tx struct {
	t *tables
}

func (x *tx) CustomerExists(ctx context.Context, id int64) (bool, error) {
	_, ok := x.t.customers[id]
	return ok, nil
}

func (x *tx) StatusByName(ctx context.Context, name order.StatusName) (order.Status, error) {
	s, ok := x.t.statusByName(name)
	if !ok {
		return order.Status{}, apperr.NotFound("status", name)
	}
	return s, nil
}

func (x *tx) StatusByID(ctx context.Context, id int64) (order.Status, error) {
	s, ok := x.t.statuses[id]
	if !ok {
		return order.Status{}, apperr.NotFound("status", id)
	}
	return s, nil
}

func (x *tx) LockProducts(ctx context.Context, ids []int64) (map[int64]product.Product, error) {
	out := make(map[int64]product.Product, len(ids))
	for _, id := range ids {
		if p, ok := x.t.products[id]; ok {
			out[id] = p
		}
	}
	return out, nil
}

func (x *tx) AdjustStock(ctx context.Context, productID int64, delta int) error {
	p, ok := x.t.products[productID]
	if !ok {
		return apperr.NotFound("product", productID)
	}
	if p.Stock+delta < 0 {
		return apperr.InsufficientStock(p.Name, p.Stock)
	}
	p.Stock += delta
	x.t.products[productID] = p
	return nil
}

func (x *tx) InsertOrder(ctx context.Context, o *order.Order) error {
	x.t.lastOrder++
	o.ID = x.t.lastOrder
	x.t.orders[o.ID] = *o
	return nil
}

func (x *tx) LockOrder(ctx context.Context, id int64) (order.Order, error) {
	o, ok := x.t.orders[id]
	if !ok {
		return order.Order{}, apperr.NotFound("order", id)
	}
	return o, nil
}

func (x *tx) SaveOrder(ctx context.Context, o order.Order) error {
	cur, ok := x.t.orders[o.ID]
	if !ok {
		return apperr.NotFound("order", o.ID)
	}
	cur.StatusID = o.StatusID
	cur.Total = o.Total
	x.t.orders[o.ID] = cur
	return nil
}

func (x *tx) DeleteOrder(ctx context.Context, id int64) error {
	if _, ok := x.t.orders[id]; !ok {
		return apperr.NotFound("order", id)
	}
	delete(x.t.orders, id)
	return nil
}

func (x *tx) Items(ctx context.Context, orderID int64) ([]order.LineItem, error) {
	return x.t.orderItems(orderID), nil
}

func (x *tx) InsertItem(ctx context.Context, li *order.LineItem) error {
	if _, ok := x.t.orders[li.OrderID]; !ok {
		return apperr.NotFound("order", li.OrderID)
	}
	if _, ok := x.t.products[li.ProductID]; !ok {
		return apperr.NotFound("product", li.ProductID)
	}
	x.t.lastItem++
	li.ID = x.t.lastItem
	x.t.items[li.ID] = *li
	return nil
}

func (x *tx) DeleteItems(ctx context.Context, orderID int64) error {
	for id, li := range x.t.items {
		if li.OrderID == orderID {
			delete(x.t.items, id)
		}
	}
	return nil
}
