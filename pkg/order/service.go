package order

import (
	"context"
	"sort"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"salesflow/pkg/apperr"
	"salesflow/pkg/logger"
	"salesflow/pkg/otel"
)

// Publisher receives events for changes that have been committed.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

// Service is the order workflow engine. Every write runs inside a single
// Store transaction; an error leaves products, orders and items untouched.
//
// An order holds stock for its items unless its status is CANCELLED.
type Service struct {
	store  Store
	events Publisher
	log    *logger.Logger
	now    func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithClock overrides the clock used for data_pedido and event timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates the workflow engine over store. A nil events drops events.
func NewService(store Store, events Publisher, log *logger.Logger, opts ...Option) *Service {
	s := &Service{
		store:  store,
		events: events,
		log:    log,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create inserts a PENDING order for an existing customer and claims stock
// for every line.
func (s *Service) Create(ctx context.Context, in CreateInput) (Details, error) {
	ctx, span := otel.AddSpan(ctx, "order.Create", attribute.Int64("cliente_id", in.CustomerID))
	defer span.End()

	if err := in.Validate(); err != nil {
		return Details{}, err
	}

	var out Details
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx Tx) error {
		ok, err := tx.CustomerExists(ctx, in.CustomerID)
		if err != nil {
			return err
		}
		if !ok {
			return apperr.NotFound("customer", in.CustomerID)
		}

		st, err := tx.StatusByName(ctx, StatusPending)
		if err != nil {
			if apperr.KindOf(err) == apperr.KindNotFound {
				return apperr.Configuration("initial status %s is not seeded", StatusPending)
			}
			return err
		}

		o := Order{
			CustomerID: in.CustomerID,
			StatusID:   st.ID,
			CreatedAt:  s.now().UTC(),
		}
		if err := tx.InsertOrder(ctx, &o); err != nil {
			return err
		}

		if err := take(ctx, tx, in.Items, true); err != nil {
			return err
		}
		items, err := insertItems(ctx, tx, o.ID, in.Items)
		if err != nil {
			return err
		}

		o.Total = Total(items)
		if err := tx.SaveOrder(ctx, o); err != nil {
			return err
		}
		out = Details{Order: o, Status: st.Name, Items: items}
		return nil
	})
	if err != nil {
		return Details{}, apperr.From("create order", err)
	}

	s.publish(ctx, EventCreated, out)
	return out, nil
}

// Update replaces the status, the items, or both. Crossing into CANCELLED
// returns the held stock; leaving it claims the stock again.
func (s *Service) Update(ctx context.Context, id int64, p Patch) (Details, error) {
	ctx, span := otel.AddSpan(ctx, "order.Update", attribute.Int64("pedido_id", id))
	defer span.End()

	if id <= 0 {
		return Details{}, apperr.Validation("invalid order id %d", id)
	}
	if err := p.Validate(); err != nil {
		return Details{}, err
	}

	var out Details
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx Tx) error {
		o, err := tx.LockOrder(ctx, id)
		if err != nil {
			return err
		}
		cur, err := tx.StatusByID(ctx, o.StatusID)
		if err != nil {
			return err
		}

		next := cur
		if p.Status != nil {
			name := ParseStatusName(string(*p.Status))
			next, err = tx.StatusByName(ctx, name)
			if err != nil {
				return err
			}
		}

		items, err := tx.Items(ctx, o.ID)
		if err != nil {
			return err
		}

		wasHeld, nowHeld := cur.Name.HoldsStock(), next.Name.HoldsStock()
		replace := p.Items != nil

		if err := lockProducts(ctx, tx, items, p.Items); err != nil {
			return err
		}
		if wasHeld && (replace || !nowHeld) {
			if err := give(ctx, tx, items); err != nil {
				return err
			}
		}

		switch {
		case replace:
			if err := take(ctx, tx, p.Items, nowHeld); err != nil {
				return err
			}
			if err := tx.DeleteItems(ctx, o.ID); err != nil {
				return err
			}
			if items, err = insertItems(ctx, tx, o.ID, p.Items); err != nil {
				return err
			}
		case nowHeld && !wasHeld:
			if err := take(ctx, tx, inputsOf(items), true); err != nil {
				return err
			}
		}

		o.StatusID = next.ID
		o.Total = Total(items)
		if err := tx.SaveOrder(ctx, o); err != nil {
			return err
		}
		out = Details{Order: o, Status: next.Name, Items: items}
		return nil
	})
	if err != nil {
		return Details{}, apperr.From("update order", err)
	}

	s.publish(ctx, EventUpdated, out)
	return out, nil
}

// Delete removes an order and its items, returning held stock.
func (s *Service) Delete(ctx context.Context, id int64) error {
	ctx, span := otel.AddSpan(ctx, "order.Delete", attribute.Int64("pedido_id", id))
	defer span.End()

	if id <= 0 {
		return apperr.Validation("invalid order id %d", id)
	}

	var out Details
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx Tx) error {
		o, err := tx.LockOrder(ctx, id)
		if err != nil {
			return err
		}
		st, err := tx.StatusByID(ctx, o.StatusID)
		if err != nil {
			return err
		}
		items, err := tx.Items(ctx, o.ID)
		if err != nil {
			return err
		}

		if st.Name.HoldsStock() {
			if err := lockProducts(ctx, tx, items, nil); err != nil {
				return err
			}
			if err := give(ctx, tx, items); err != nil {
				return err
			}
		}
		if err := tx.DeleteItems(ctx, o.ID); err != nil {
			return err
		}
		if err := tx.DeleteOrder(ctx, o.ID); err != nil {
			return err
		}
		out = Details{Order: o, Status: st.Name, Items: items}
		return nil
	})
	if err != nil {
		return apperr.From("delete order", err)
	}

	s.publish(ctx, EventDeleted, out)
	return nil
}

func (s *Service) publish(ctx context.Context, typ EventType, d Details) {
	if s.events == nil {
		return
	}
	e := Event{
		Type:       typ,
		OrderID:    d.ID,
		CustomerID: d.CustomerID,
		Status:     d.Status,
		Total:      d.Total,
		OccurredAt: s.now().UTC(),
	}
	if err := s.events.Publish(ctx, e); err != nil {
		s.log.Error(ctx, "publish order event", "type", typ, "pedido_id", d.ID, "error", err)
	}
}

// take locks the products referenced by lines and checks, in input order,
// that each exists. With hold set it also checks the remaining stock covers
// each quantity and subtracts it.
func take(ctx context.Context, tx Tx, lines []ItemInput, hold bool) error {
	products, err := tx.LockProducts(ctx, productIDs(lines))
	if err != nil {
		return err
	}

	remaining := make(map[int64]int, len(products))
	for id, p := range products {
		remaining[id] = p.Stock
	}

	for _, l := range lines {
		p, ok := products[l.ProductID]
		if !ok {
			return apperr.NotFound("product", l.ProductID)
		}
		if !hold {
			continue
		}
		if l.Quantity > remaining[p.ID] {
			return apperr.InsufficientStock(p.Name, remaining[p.ID])
		}
		if err := tx.AdjustStock(ctx, p.ID, -l.Quantity); err != nil {
			return err
		}
		remaining[p.ID] -= l.Quantity
	}
	return nil
}

// lockProducts locks every product of the current items and of the
// replacement lines in one ascending pass, before any stock moves.
func lockProducts(ctx context.Context, tx Tx, items []LineItem, lines []ItemInput) error {
	ids := productIDs(append(inputsOf(items), lines...))
	if len(ids) == 0 {
		return nil
	}
	_, err := tx.LockProducts(ctx, ids)
	return err
}

// give returns the quantities of items to stock, in ascending product id
// order.
func give(ctx context.Context, tx Tx, items []LineItem) error {
	sorted := make([]LineItem, len(items))
	copy(sorted, items)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].ProductID < sorted[j].ProductID })
	for _, li := range sorted {
		if err := tx.AdjustStock(ctx, li.ProductID, li.Quantity); err != nil {
			return err
		}
	}
	return nil
}

func insertItems(ctx context.Context, tx Tx, orderID int64, lines []ItemInput) ([]LineItem, error) {
	items := make([]LineItem, 0, len(lines))
	for _, l := range lines {
		li := LineItem{
			OrderID:   orderID,
			ProductID: l.ProductID,
			Quantity:  l.Quantity,
			UnitPrice: l.UnitPrice,
		}
		if err := tx.InsertItem(ctx, &li); err != nil {
			return nil, err
		}
		items = append(items, li)
	}
	return items, nil
}

func inputsOf(items []LineItem) []ItemInput {
	lines := make([]ItemInput, len(items))
	for i, li := range items {
		lines[i] = ItemInput{ProductID: li.ProductID, Quantity: li.Quantity, UnitPrice: li.UnitPrice}
	}
	return lines
}

// productIDs returns the distinct ids of lines in ascending order.
func productIDs(lines []ItemInput) []int64 {
	seen := make(map[int64]struct{}, len(lines))
	ids := make([]int64, 0, len(lines))
	for _, l := range lines {
		if _, ok := seen[l.ProductID]; ok {
			continue
		}
		seen[l.ProductID] = struct{}{}
		ids = append(ids, l.ProductID)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
