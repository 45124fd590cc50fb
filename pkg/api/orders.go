package api

import (
	"net/http"

	"salesflow/pkg/apperr"
	"salesflow/pkg/order"
	"salesflow/pkg/otel"
	"salesflow/pkg/page"
)

type deleteOrderResponse struct {
	Message string `json:"message"`
	OrderID int64  `json:"pedido_id"`
	Status  string `json:"status"`
}

// createOrderHandler creates an order and claims stock for its items.
// @Summary Create order
// @Tags pedidos
// @Accept json
// @Produce json
// @Param order body order.CreateInput true "Order"
// @Success 200 {object} order.Details
// @Failure 400 {object} errorResponse
// @Failure 404 {object} errorResponse
// @Failure 500 {object} errorResponse
// @Router /pedidos/ [post]
func (s *Server) createOrderHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.AddSpan(r.Context(), "createOrderHandler")
	defer span.End()

	var in order.CreateInput
	if err := decode(r, &in); err != nil {
		s.fail(ctx, w, "create order", err)
		return
	}
	d, err := s.orders.Create(ctx, in)
	if err != nil {
		s.fail(ctx, w, "create order", err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

// listOrdersHandler lists orders one page at a time.
// @Summary List orders
// @Tags pedidos
// @Produce json
// @Param page query int false "Page" default(1)
// @Param size query int false "Page size" default(10)
// @Success 200 {object} page.Result[order.View]
// @Failure 400 {object} errorResponse
// @Router /pedidos/ [get]
func (s *Server) listOrdersHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.AddSpan(r.Context(), "listOrdersHandler")
	defer span.End()

	req, err := page.FromQuery(r.URL.Query())
	if err != nil {
		s.fail(ctx, w, "list orders", err)
		return
	}
	res, err := s.queries.List(ctx, req)
	if err != nil {
		s.fail(ctx, w, "list orders", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// getOrderHandler retrieves an order view by ID.
// @Summary Get order
// @Tags pedidos
// @Produce json
// @Param id path int true "Order ID"
// @Success 200 {object} order.View
// @Failure 404 {object} errorResponse
// @Router /pedidos/{id} [get]
func (s *Server) getOrderHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.AddSpan(r.Context(), "getOrderHandler")
	defer span.End()

	id, err := pathID(r)
	if err != nil {
		s.fail(ctx, w, "get order", err)
		return
	}
	v, err := s.queries.Get(ctx, id)
	if err != nil {
		s.fail(ctx, w, "get order", err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

// updateOrderHandler changes the status or replaces the items of an order.
// @Summary Update order
// @Tags pedidos
// @Accept json
// @Produce json
// @Param id path int true "Order ID"
// @Param patch body order.Patch true "Changes"
// @Success 200 {object} order.Details
// @Failure 400 {object} errorResponse
// @Failure 404 {object} errorResponse
// @Router /pedidos/{id} [put]
func (s *Server) updateOrderHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.AddSpan(r.Context(), "updateOrderHandler")
	defer span.End()

	id, err := pathID(r)
	if err != nil {
		s.fail(ctx, w, "update order", err)
		return
	}
	var p order.Patch
	if err := decode(r, &p); err != nil {
		s.fail(ctx, w, "update order", err)
		return
	}
	d, err := s.orders.Update(ctx, id, p)
	if err != nil {
		s.fail(ctx, w, "update order", err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

// deleteOrderHandler removes an order and its items.
// @Summary Delete order
// @Tags pedidos
// @Produce json
// @Param id path int true "Order ID"
// @Success 200 {object} deleteOrderResponse
// @Failure 404 {object} errorResponse
// @Router /pedidos/{id} [delete]
func (s *Server) deleteOrderHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.AddSpan(r.Context(), "deleteOrderHandler")
	defer span.End()

	id, err := pathID(r)
	if err != nil {
		s.fail(ctx, w, "delete order", err)
		return
	}
	if err := s.orders.Delete(ctx, id); err != nil {
		s.fail(ctx, w, "delete order", err)
		return
	}
	writeJSON(w, http.StatusOK, deleteOrderResponse{Message: "order deleted", OrderID: id, Status: "deleted"})
}

// ordersByCustomerHandler lists the orders of one customer.
// @Summary List orders by customer
// @Tags pedidos
// @Produce json
// @Param id path int true "Customer ID"
// @Success 200 {array} order.View
// @Router /pedidos/cliente/{id} [get]
func (s *Server) ordersByCustomerHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.AddSpan(r.Context(), "ordersByCustomerHandler")
	defer span.End()

	id, err := pathID(r)
	if err != nil {
		s.fail(ctx, w, "orders by customer", err)
		return
	}
	views, err := s.queries.ByCustomer(ctx, id)
	if err != nil {
		s.fail(ctx, w, "orders by customer", err)
		return
	}
	writeJSON(w, http.StatusOK, views)
}

// ordersByDayHandler lists the orders created on one day.
// @Summary List orders by date
// @Tags pedidos
// @Produce json
// @Param data query string true "Date as DD/MM/YYYY"
// @Success 200 {array} order.View
// @Failure 400 {object} errorResponse
// @Router /pedidos/buscar-por-data [get]
func (s *Server) ordersByDayHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.AddSpan(r.Context(), "ordersByDayHandler")
	defer span.End()

	raw := r.URL.Query().Get("data")
	if raw == "" {
		s.fail(ctx, w, "orders by day", apperr.Validation("query parameter data is required"))
		return
	}
	day, err := order.ParseDay(raw)
	if err != nil {
		s.fail(ctx, w, "orders by day", err)
		return
	}
	views, err := s.queries.ByDay(ctx, day)
	if err != nil {
		s.fail(ctx, w, "orders by day", err)
		return
	}
	writeJSON(w, http.StatusOK, views)
}

// orderItemsHandler lists the items of an order with subtotals.
// @Summary List order items
// @Tags pedidos
// @Produce json
// @Param id path int true "Order ID"
// @Success 200 {object} order.ItemsSummary
// @Failure 404 {object} errorResponse
// @Router /pedidos/{id}/itens [get]
func (s *Server) orderItemsHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.AddSpan(r.Context(), "orderItemsHandler")
	defer span.End()

	id, err := pathID(r)
	if err != nil {
		s.fail(ctx, w, "order items", err)
		return
	}
	sum, err := s.queries.Items(ctx, id)
	if err != nil {
		s.fail(ctx, w, "order items", err)
		return
	}
	writeJSON(w, http.StatusOK, sum)
}
