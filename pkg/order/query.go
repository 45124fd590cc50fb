package order

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"

	"salesflow/pkg/apperr"
	"salesflow/pkg/logger"
	"salesflow/pkg/otel"
	"salesflow/pkg/page"
)

// DayLayout is the DD/MM/YYYY date format accepted by ByDay callers.
const DayLayout = "02/01/2006"

// ItemView is a line item as shown to clients.
type ItemView struct {
	ID        int64           `json:"id"`
	Quantity  int             `json:"quantidade"`
	UnitPrice decimal.Decimal `json:"preco_unitario" swaggertype:"number"`
	Subtotal  decimal.Decimal `json:"subtotal" swaggertype:"number"`
	Product   ProductRef      `json:"produto"`
}

// View is the denormalized order read model.
type View struct {
	ID           int64           `json:"id"`
	CreatedAt    time.Time       `json:"data_pedido"`
	Total        decimal.Decimal `json:"valor_total" swaggertype:"number"`
	Status       StatusName      `json:"status"`
	CustomerName string          `json:"cliente_nome"`
	Items        []ItemView      `json:"itens"`
}

// ItemsSummary lists the items of one order with their aggregate value.
type ItemsSummary struct {
	OrderID int64           `json:"pedido_id"`
	Count   int             `json:"total_itens"`
	Total   decimal.Decimal `json:"valor_total" swaggertype:"number"`
	Items   []ItemView      `json:"itens"`
}

// Query assembles read views from a Reader.
type Query struct {
	repo Reader
	log  *logger.Logger
}

// NewQuery creates a Query over repo.
func NewQuery(repo Reader, log *logger.Logger) *Query {
	return &Query{repo: repo, log: log}
}

// ParseDay parses a DD/MM/YYYY date as a UTC day.
func ParseDay(s string) (time.Time, error) {
	d, err := time.ParseInLocation(DayLayout, s, time.UTC)
	if err != nil {
		return time.Time{}, apperr.Validation("invalid date %q, expected DD/MM/YYYY", s)
	}
	return d, nil
}

// List returns one page of order views ordered by id.
func (q *Query) List(ctx context.Context, r page.Request) (page.Result[View], error) {
	ctx, span := otel.AddSpan(ctx, "order.List", attribute.Int("page", r.Page), attribute.Int("size", r.Size))
	defer span.End()

	total, err := q.repo.CountOrders(ctx, Filter{})
	if err != nil {
		return page.Result[View]{}, apperr.From("count orders", err)
	}
	recs, err := q.repo.FindOrders(ctx, Filter{}, r.Offset(), r.Limit(), WithAll)
	if err != nil {
		return page.Result[View]{}, apperr.From("list orders", err)
	}
	return page.NewResult(r, q.views(ctx, recs), total), nil
}

// Get returns the view of one order.
func (q *Query) Get(ctx context.Context, id int64) (View, error) {
	ctx, span := otel.AddSpan(ctx, "order.Get", attribute.Int64("pedido_id", id))
	defer span.End()

	if id <= 0 {
		return View{}, apperr.Validation("invalid order id %d", id)
	}
	recs, err := q.repo.FindOrders(ctx, Filter{OrderID: id}, 0, 1, WithAll)
	if err != nil {
		return View{}, apperr.From("get order", err)
	}
	if len(recs) == 0 {
		return View{}, apperr.NotFound("order", id)
	}
	return q.view(ctx, recs[0]), nil
}

// ByCustomer returns the views of every order placed by a customer.
func (q *Query) ByCustomer(ctx context.Context, customerID int64) ([]View, error) {
	ctx, span := otel.AddSpan(ctx, "order.ByCustomer", attribute.Int64("cliente_id", customerID))
	defer span.End()

	if customerID <= 0 {
		return nil, apperr.Validation("invalid customer id %d", customerID)
	}
	recs, err := q.repo.FindOrders(ctx, Filter{CustomerID: customerID}, 0, 0, WithAll)
	if err != nil {
		return nil, apperr.From("orders by customer", err)
	}
	return q.views(ctx, recs), nil
}

// ByDay returns the orders created on the UTC calendar day of day.
func (q *Query) ByDay(ctx context.Context, day time.Time) ([]View, error) {
	ctx, span := otel.AddSpan(ctx, "order.ByDay", attribute.String("data", day.Format(DayLayout)))
	defer span.End()

	recs, err := q.repo.FindOrders(ctx, Filter{Day: day}, 0, 0, WithAll)
	if err != nil {
		return nil, apperr.From("orders by day", err)
	}
	return q.views(ctx, recs), nil
}

// Items lists the items of an order. An order without items is reported as
// not found.
func (q *Query) Items(ctx context.Context, orderID int64) (ItemsSummary, error) {
	ctx, span := otel.AddSpan(ctx, "order.Items", attribute.Int64("pedido_id", orderID))
	defer span.End()

	if orderID <= 0 {
		return ItemsSummary{}, apperr.Validation("invalid order id %d", orderID)
	}
	recs, err := q.repo.FindOrders(ctx, Filter{OrderID: orderID}, 0, 1, WithItems)
	if err != nil {
		return ItemsSummary{}, apperr.From("order items", err)
	}
	if len(recs) == 0 {
		return ItemsSummary{}, apperr.NotFound("order", orderID)
	}

	items := q.items(ctx, recs[0])
	if len(items) == 0 {
		return ItemsSummary{}, &apperr.Error{
			Kind:   apperr.KindNotFound,
			Entity: "order",
			Msg:    "no items found for this order",
		}
	}

	total := decimal.Zero
	for _, it := range items {
		total = total.Add(it.Subtotal)
	}
	return ItemsSummary{
		OrderID: orderID,
		Count:   len(items),
		Total:   total,
		Items:   items,
	}, nil
}

func (q *Query) views(ctx context.Context, recs []Record) []View {
	out := make([]View, 0, len(recs))
	for _, rec := range recs {
		out = append(out, q.view(ctx, rec))
	}
	return out
}

func (q *Query) view(ctx context.Context, rec Record) View {
	v := View{
		ID:        rec.Order.ID,
		CreatedAt: rec.Order.CreatedAt,
		Total:     rec.Order.Total,
		Items:     q.items(ctx, rec),
	}
	if rec.Status != nil {
		v.Status = rec.Status.Name
	}
	if rec.CustomerName != nil {
		v.CustomerName = *rec.CustomerName
	}
	return v
}

func (q *Query) items(ctx context.Context, rec Record) []ItemView {
	out := make([]ItemView, 0, len(rec.Items))
	for _, it := range rec.Items {
		if it.Product == nil {
			q.log.Warn(ctx, "order item references a missing product",
				"pedido_id", rec.Order.ID, "item_id", it.ID, "produto_id", it.ProductID)
			continue
		}
		out = append(out, ItemView{
			ID:        it.ID,
			Quantity:  it.Quantity,
			UnitPrice: it.UnitPrice,
			Subtotal:  it.Subtotal(),
			Product:   *it.Product,
		})
	}
	return out
}
