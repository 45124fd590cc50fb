package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"salesflow/pkg/customer"
	"salesflow/pkg/otel"
	"salesflow/pkg/page"
)

type countResponse struct {
	Count int `json:"quantidade"`
}

type deleteCustomerResponse struct {
	Message    string `json:"message"`
	CustomerID int64  `json:"cliente_id"`
}

// createCustomerHandler registers a customer.
// @Summary Create customer
// @Tags clientes
// @Accept json
// @Produce json
// @Param customer body customer.Customer true "Customer"
// @Success 200 {object} customer.Customer
// @Failure 400 {object} errorResponse
// @Router /clientes/ [post]
func (s *Server) createCustomerHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.AddSpan(r.Context(), "createCustomerHandler")
	defer span.End()

	var c customer.Customer
	if err := decode(r, &c); err != nil {
		s.fail(ctx, w, "create customer", err)
		return
	}
	c, err := s.customers.Create(ctx, c)
	if err != nil {
		s.fail(ctx, w, "create customer", err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// listCustomersHandler lists customers one page at a time.
// @Summary List customers
// @Tags clientes
// @Produce json
// @Param page query int false "Page" default(1)
// @Param size query int false "Page size" default(10)
// @Success 200 {object} page.Result[customer.Customer]
// @Router /clientes/ [get]
func (s *Server) listCustomersHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.AddSpan(r.Context(), "listCustomersHandler")
	defer span.End()

	req, err := page.FromQuery(r.URL.Query())
	if err != nil {
		s.fail(ctx, w, "list customers", err)
		return
	}
	res, err := s.customers.List(ctx, req)
	if err != nil {
		s.fail(ctx, w, "list customers", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// @Summary Get customer
// @Tags clientes
// @Produce json
// @Param id path int true "Customer ID"
// @Success 200 {object} customer.Customer
// @Failure 404 {object} errorResponse
// @Router /clientes/{id} [get]
func (s *Server) getCustomerHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.AddSpan(r.Context(), "getCustomerHandler")
	defer span.End()

	id, err := pathID(r)
	if err != nil {
		s.fail(ctx, w, "get customer", err)
		return
	}
	c, err := s.customers.Get(ctx, id)
	if err != nil {
		s.fail(ctx, w, "get customer", err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// updateCustomerHandler merges the given fields into a customer.
// @Summary Update customer
// @Tags clientes
// @Accept json
// @Produce json
// @Param id path int true "Customer ID"
// @Param patch body customer.Patch true "Fields to change"
// @Success 200 {object} customer.Customer
// @Failure 400 {object} errorResponse
// @Failure 404 {object} errorResponse
// @Router /clientes/{id} [put]
func (s *Server) updateCustomerHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.AddSpan(r.Context(), "updateCustomerHandler")
	defer span.End()

	id, err := pathID(r)
	if err != nil {
		s.fail(ctx, w, "update customer", err)
		return
	}
	var p customer.Patch
	if err := decode(r, &p); err != nil {
		s.fail(ctx, w, "update customer", err)
		return
	}
	c, err := s.customers.Update(ctx, id, p)
	if err != nil {
		s.fail(ctx, w, "update customer", err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// @Summary Delete customer
// @Tags clientes
// @Produce json
// @Param id path int true "Customer ID"
// @Success 200 {object} deleteCustomerResponse
// @Failure 404 {object} errorResponse
// @Failure 409 {object} errorResponse
// @Router /clientes/{id} [delete]
func (s *Server) deleteCustomerHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.AddSpan(r.Context(), "deleteCustomerHandler")
	defer span.End()

	id, err := pathID(r)
	if err != nil {
		s.fail(ctx, w, "delete customer", err)
		return
	}
	if err := s.customers.Delete(ctx, id); err != nil {
		s.fail(ctx, w, "delete customer", err)
		return
	}
	writeJSON(w, http.StatusOK, deleteCustomerResponse{Message: "customer deleted", CustomerID: id})
}

// @Summary Count customers
// @Tags clientes
// @Produce json
// @Success 200 {object} countResponse
// @Router /clientes/quantidade [get]
func (s *Server) countCustomersHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.AddSpan(r.Context(), "countCustomersHandler")
	defer span.End()

	n, err := s.customers.Count(ctx)
	if err != nil {
		s.fail(ctx, w, "count customers", err)
		return
	}
	writeJSON(w, http.StatusOK, countResponse{Count: n})
}

// @Summary List customers by state
// @Tags clientes
// @Produce json
// @Param estado path string true "State"
// @Success 200 {array} customer.Customer
// @Router /clientes/clientes_por_estado/{estado} [get]
func (s *Server) customersByStateHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.AddSpan(r.Context(), "customersByStateHandler")
	defer span.End()

	list, err := s.customers.ByState(ctx, mux.Vars(r)["estado"])
	if err != nil {
		s.fail(ctx, w, "customers by state", err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// @Summary Search customers by name
// @Tags clientes
// @Produce json
// @Param nome path string true "Name fragment"
// @Success 200 {array} customer.Customer
// @Router /clientes/busca/{nome} [get]
func (s *Server) searchCustomersHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.AddSpan(r.Context(), "searchCustomersHandler")
	defer span.End()

	list, err := s.customers.SearchByName(ctx, mux.Vars(r)["nome"])
	if err != nil {
		s.fail(ctx, w, "search customers", err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}
