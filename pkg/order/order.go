package order

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"salesflow/pkg/apperr"
)

// StatusName is one value of the closed order-status enumeration.
type StatusName string

const (
	StatusPending    StatusName = "PENDING"
	StatusProcessing StatusName = "PROCESSING"
	StatusPaid       StatusName = "PAID"
	StatusShipped    StatusName = "SHIPPED"
	StatusDelivered  StatusName = "DELIVERED"
	StatusCancelled  StatusName = "CANCELLED"
)

// ParseStatusName normalizes s. Unknown names are not rejected here; they
// fail the status lookup inside the workflow.
func ParseStatusName(s string) StatusName {
	return StatusName(strings.ToUpper(strings.TrimSpace(s)))
}

// HoldsStock reports whether orders in this status keep their line-item
// quantities subtracted from product stock.
func (n StatusName) HoldsStock() bool {
	return n != StatusCancelled
}

// Status is a row of the status lookup table.
type Status struct {
	ID          int64      `json:"id" db:"id"`
	Name        StatusName `json:"nome" db:"nome"`
	Description string     `json:"descricao" db:"descricao"`
}

// SeedStatuses is the reference data every backend must contain.
var SeedStatuses = []Status{
	{Name: StatusPending, Description: "Pendente"},
	{Name: StatusProcessing, Description: "Em Processamento"},
	{Name: StatusPaid, Description: "Pago"},
	{Name: StatusShipped, Description: "Enviado"},
	{Name: StatusDelivered, Description: "Entregue"},
	{Name: StatusCancelled, Description: "Cancelado"},
}

// Order represents a customer purchase order.
type Order struct {
	ID         int64           `json:"id" db:"id"`
	CustomerID int64           `json:"cliente_id" db:"cliente_id"`
	StatusID   int64           `json:"status_id" db:"status_id"`
	CreatedAt  time.Time       `json:"data_pedido" db:"data_pedido"`
	Total      decimal.Decimal `json:"valor_total" db:"valor_total" swaggertype:"number"`
}

// LineItem is one product/quantity/price tuple owned by an order. UnitPrice
// is the price captured when the line was written.
type LineItem struct {
	ID        int64           `json:"id" db:"id"`
	OrderID   int64           `json:"pedido_id" db:"pedido_id"`
	ProductID int64           `json:"produto_id" db:"produto_id"`
	Quantity  int             `json:"quantidade" db:"quantidade"`
	UnitPrice decimal.Decimal `json:"preco_unitario" db:"preco_unitario" swaggertype:"number"`
}

// Subtotal is quantity times unit price.
func (li LineItem) Subtotal() decimal.Decimal {
	return li.UnitPrice.Mul(decimal.NewFromInt(int64(li.Quantity)))
}

// Total sums quantity * unit price over items.
func Total(items []LineItem) decimal.Decimal {
	sum := decimal.Zero
	for _, li := range items {
		sum = sum.Add(li.Subtotal())
	}
	return sum
}

// Details is an order as returned by the write operations.
type Details struct {
	Order
	Status StatusName `json:"status"`
	Items  []LineItem `json:"itens"`
}

// ItemInput is a requested line.
type ItemInput struct {
	ProductID int64           `json:"produto_id"`
	Quantity  int             `json:"quantidade"`
	UnitPrice decimal.Decimal `json:"preco_unitario" swaggertype:"number"`
}

// CreateInput is the payload of a new order.
type CreateInput struct {
	CustomerID int64       `json:"cliente_id"`
	Items      []ItemInput `json:"itens"`
}

// Patch changes the status, the items, or both. A nil Items leaves the
// current lines in place.
type Patch struct {
	Status *StatusName `json:"status,omitempty"`
	Items  []ItemInput `json:"itens"`
}

func (in ItemInput) validate(i int) error {
	if in.ProductID <= 0 {
		return apperr.Validation("itens[%d]: invalid produto_id %d", i, in.ProductID)
	}
	if in.Quantity <= 0 {
		return apperr.Validation("itens[%d]: quantidade must be positive", i)
	}
	if in.UnitPrice.IsNegative() {
		return apperr.Validation("itens[%d]: preco_unitario must not be negative", i)
	}
	return nil
}

func validateItems(items []ItemInput) error {
	if len(items) == 0 {
		return apperr.Validation("itens must not be empty")
	}
	for i, in := range items {
		if err := in.validate(i); err != nil {
			return err
		}
	}
	return nil
}

// Validate checks the customer id and every line before any I/O.
func (in CreateInput) Validate() error {
	if in.CustomerID <= 0 {
		return apperr.Validation("invalid cliente_id %d", in.CustomerID)
	}
	return validateItems(in.Items)
}

// Validate rejects an empty status and an explicitly empty item list.
func (p Patch) Validate() error {
	if p.Status != nil && *p.Status == "" {
		return apperr.Validation("status must not be blank")
	}
	if p.Items != nil {
		return validateItems(p.Items)
	}
	return nil
}

// EventType names an order lifecycle event.
type EventType string

const (
	EventCreated EventType = "order.created"
	EventUpdated EventType = "order.updated"
	EventDeleted EventType = "order.deleted"
)

// Event describes a committed change to an order.
type Event struct {
	Type       EventType       `json:"type"`
	OrderID    int64           `json:"pedido_id"`
	CustomerID int64           `json:"cliente_id"`
	Status     StatusName      `json:"status"`
	Total      decimal.Decimal `json:"valor_total"`
	OccurredAt time.Time       `json:"ocorrido_em"`
}
