package api

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"

	"salesflow/pkg/apperr"
	"salesflow/pkg/otel"
	"salesflow/pkg/page"
	"salesflow/pkg/product"
)

type deleteProductResponse struct {
	Message   string `json:"message"`
	ProductID int64  `json:"produto_id"`
}

// createProductHandler adds a product to the catalog.
// @Summary Create product
// @Tags produtos
// @Accept json
// @Produce json
// @Param product body product.Product true "Product"
// @Success 200 {object} product.Product
// @Failure 400 {object} errorResponse
// @Router /produtos/ [post]
func (s *Server) createProductHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.AddSpan(r.Context(), "createProductHandler")
	defer span.End()

	var p product.Product
	if err := decode(r, &p); err != nil {
		s.fail(ctx, w, "create product", err)
		return
	}
	p, err := s.products.Create(ctx, p)
	if err != nil {
		s.fail(ctx, w, "create product", err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// @Summary List products
// @Tags produtos
// @Produce json
// @Param page query int false "Page" default(1)
// @Param size query int false "Page size" default(10)
// @Success 200 {object} page.Result[product.Product]
// @Router /produtos/ [get]
func (s *Server) listProductsHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.AddSpan(r.Context(), "listProductsHandler")
	defer span.End()

	req, err := page.FromQuery(r.URL.Query())
	if err != nil {
		s.fail(ctx, w, "list products", err)
		return
	}
	res, err := s.products.List(ctx, req)
	if err != nil {
		s.fail(ctx, w, "list products", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// @Summary Get product
// @Tags produtos
// @Produce json
// @Param id path int true "Product ID"
// @Success 200 {object} product.Product
// @Failure 404 {object} errorResponse
// @Router /produtos/{id} [get]
func (s *Server) getProductHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.AddSpan(r.Context(), "getProductHandler")
	defer span.End()

	id, err := pathID(r)
	if err != nil {
		s.fail(ctx, w, "get product", err)
		return
	}
	p, err := s.products.Get(ctx, id)
	if err != nil {
		s.fail(ctx, w, "get product", err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// updateProductHandler changes name, category or price. Stock is rejected.
// @Summary Update product
// @Tags produtos
// @Accept json
// @Produce json
// @Param id path int true "Product ID"
// @Param patch body product.Patch true "Fields to change"
// @Success 200 {object} product.Product
// @Failure 400 {object} errorResponse
// @Failure 404 {object} errorResponse
// @Router /produtos/{id} [put]
func (s *Server) updateProductHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.AddSpan(r.Context(), "updateProductHandler")
	defer span.End()

	id, err := pathID(r)
	if err != nil {
		s.fail(ctx, w, "update product", err)
		return
	}
	var patch product.Patch
	if err := decode(r, &patch); err != nil {
		s.fail(ctx, w, "update product", err)
		return
	}
	p, err := s.products.Update(ctx, id, patch)
	if err != nil {
		s.fail(ctx, w, "update product", err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// @Summary Delete product
// @Tags produtos
// @Produce json
// @Param id path int true "Product ID"
// @Success 200 {object} deleteProductResponse
// @Failure 404 {object} errorResponse
// @Failure 409 {object} errorResponse
// @Router /produtos/{id} [delete]
func (s *Server) deleteProductHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.AddSpan(r.Context(), "deleteProductHandler")
	defer span.End()

	id, err := pathID(r)
	if err != nil {
		s.fail(ctx, w, "delete product", err)
		return
	}
	if err := s.products.Delete(ctx, id); err != nil {
		s.fail(ctx, w, "delete product", err)
		return
	}
	writeJSON(w, http.StatusOK, deleteProductResponse{Message: "product deleted", ProductID: id})
}

// @Summary Count products
// @Tags produtos
// @Produce json
// @Success 200 {object} countResponse
// @Router /produtos/quantidade [get]
func (s *Server) countProductsHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.AddSpan(r.Context(), "countProductsHandler")
	defer span.End()

	n, err := s.products.Count(ctx)
	if err != nil {
		s.fail(ctx, w, "count products", err)
		return
	}
	writeJSON(w, http.StatusOK, countResponse{Count: n})
}

// @Summary Count products in a category
// @Tags produtos
// @Produce json
// @Param categoria path string true "Category"
// @Success 200 {object} countResponse
// @Router /produtos/categoria_qtd/{categoria} [get]
func (s *Server) countByCategoryHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.AddSpan(r.Context(), "countByCategoryHandler")
	defer span.End()

	n, err := s.products.CountByCategory(ctx, mux.Vars(r)["categoria"])
	if err != nil {
		s.fail(ctx, w, "count products by category", err)
		return
	}
	writeJSON(w, http.StatusOK, countResponse{Count: n})
}

// @Summary List products above a price
// @Tags produtos
// @Produce json
// @Param preco path string true "Price"
// @Success 200 {array} product.Product
// @Failure 400 {object} errorResponse
// @Router /produtos/preco_maior_que/{preco} [get]
func (s *Server) priceAboveHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.AddSpan(r.Context(), "priceAboveHandler")
	defer span.End()

	raw := mux.Vars(r)["preco"]
	price, err := decimal.NewFromString(raw)
	if err != nil {
		s.fail(ctx, w, "products by price", apperr.Validation("invalid preco %q", raw))
		return
	}
	list, err := s.products.PriceAbove(ctx, price)
	if err != nil {
		s.fail(ctx, w, "products by price", err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// availabilityHandler reports whether a quantity of a product is in stock.
// @Summary Product availability
// @Tags produtos
// @Produce json
// @Param id path int true "Product ID"
// @Param quantidade query int true "Requested quantity"
// @Success 200 {object} product.Availability
// @Failure 400 {object} errorResponse
// @Failure 404 {object} errorResponse
// @Router /produtos/{id}/disponibilidade [get]
func (s *Server) availabilityHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.AddSpan(r.Context(), "availabilityHandler")
	defer span.End()

	id, err := pathID(r)
	if err != nil {
		s.fail(ctx, w, "product availability", err)
		return
	}
	qty, err := strconv.Atoi(r.URL.Query().Get("quantidade"))
	if err != nil {
		s.fail(ctx, w, "product availability", apperr.Validation("quantidade must be an integer"))
		return
	}
	a, err := s.products.Availability(ctx, id, qty)
	if err != nil {
		s.fail(ctx, w, "product availability", err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}
