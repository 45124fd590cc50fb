// Package api exposes the sales services over HTTP.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
	httpSwagger "github.com/swaggo/http-swagger"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"salesflow/pkg/apperr"
	"salesflow/pkg/customer"
	"salesflow/pkg/logger"
	"salesflow/pkg/order"
	"salesflow/pkg/otel"
	"salesflow/pkg/page"
	"salesflow/pkg/product"
)

//go:generate mockgen -destination=mocks/mocks.go -package=mocks salesflow/pkg/api OrderWorkflow,OrderQueries

// OrderWorkflow performs the transactional order writes.
type OrderWorkflow interface {
	Create(ctx context.Context, in order.CreateInput) (order.Details, error)
	Update(ctx context.Context, id int64, p order.Patch) (order.Details, error)
	Delete(ctx context.Context, id int64) error
}

// OrderQueries serves the denormalized order views.
type OrderQueries interface {
	List(ctx context.Context, r page.Request) (page.Result[order.View], error)
	Get(ctx context.Context, id int64) (order.View, error)
	ByCustomer(ctx context.Context, customerID int64) ([]order.View, error)
	ByDay(ctx context.Context, day time.Time) ([]order.View, error)
	Items(ctx context.Context, orderID int64) (order.ItemsSummary, error)
}

// CustomerService manages customers.
type CustomerService interface {
	Create(ctx context.Context, c customer.Customer) (customer.Customer, error)
	Get(ctx context.Context, id int64) (customer.Customer, error)
	List(ctx context.Context, r page.Request) (page.Result[customer.Customer], error)
	All(ctx context.Context) ([]customer.Customer, error)
	Update(ctx context.Context, id int64, p customer.Patch) (customer.Customer, error)
	Delete(ctx context.Context, id int64) error
	Count(ctx context.Context) (int, error)
	ByState(ctx context.Context, state string) ([]customer.Customer, error)
	SearchByName(ctx context.Context, fragment string) ([]customer.Customer, error)
}

// ProductService manages the product catalog.
type ProductService interface {
	Create(ctx context.Context, p product.Product) (product.Product, error)
	Get(ctx context.Context, id int64) (product.Product, error)
	List(ctx context.Context, r page.Request) (page.Result[product.Product], error)
	All(ctx context.Context) ([]product.Product, error)
	Update(ctx context.Context, id int64, p product.Patch) (product.Product, error)
	Delete(ctx context.Context, id int64) error
	Count(ctx context.Context) (int, error)
	CountByCategory(ctx context.Context, category string) (int, error)
	PriceAbove(ctx context.Context, price decimal.Decimal) ([]product.Product, error)
	Availability(ctx context.Context, id int64, quantity int) (product.Availability, error)
}

var (
	_ OrderWorkflow   = (*order.Service)(nil)
	_ OrderQueries    = (*order.Query)(nil)
	_ CustomerService = (*customer.Service)(nil)
	_ ProductService  = (*product.Service)(nil)
)

// Services groups the collaborators a Server routes to.
type Services struct {
	Orders    OrderWorkflow
	Queries   OrderQueries
	Customers CustomerService
	Products  ProductService
}

// Server holds the HTTP handlers.
type Server struct {
	orders    OrderWorkflow
	queries   OrderQueries
	customers CustomerService
	products  ProductService
	log       *logger.Logger
	tracer    trace.Tracer
	now       func() time.Time
}

// NewServer creates a Server. A nil tracer disables request spans.
func NewServer(svc Services, log *logger.Logger, tracer trace.Tracer) *Server {
	if tracer == nil {
		tracer = noop.NewTracerProvider().Tracer("salesflow")
	}
	return &Server{
		orders:    svc.Orders,
		queries:   svc.Queries,
		customers: svc.Customers,
		products:  svc.Products,
		log:       log,
		tracer:    tracer,
		now:       time.Now,
	}
}

// Routes builds the router.
func (s *Server) Routes() http.Handler {
	r := mux.NewRouter()
	r.Use(s.recoverMiddleware, s.traceMiddleware, s.logMiddleware)

	r.HandleFunc("/", s.welcomeHandler).Methods(http.MethodGet)

	p := r.PathPrefix("/pedidos").Subrouter()
	root(p, s.createOrderHandler, http.MethodPost)
	root(p, s.listOrdersHandler, http.MethodGet)
	p.HandleFunc("/buscar-por-data", s.ordersByDayHandler).Methods(http.MethodGet)
	p.HandleFunc("/cliente/{id:[0-9]+}", s.ordersByCustomerHandler).Methods(http.MethodGet)
	p.HandleFunc("/{id:[0-9]+}", s.getOrderHandler).Methods(http.MethodGet)
	p.HandleFunc("/{id:[0-9]+}", s.updateOrderHandler).Methods(http.MethodPut)
	p.HandleFunc("/{id:[0-9]+}", s.deleteOrderHandler).Methods(http.MethodDelete)
	p.HandleFunc("/{id:[0-9]+}/itens", s.orderItemsHandler).Methods(http.MethodGet)

	c := r.PathPrefix("/clientes").Subrouter()
	root(c, s.createCustomerHandler, http.MethodPost)
	root(c, s.listCustomersHandler, http.MethodGet)
	c.HandleFunc("/quantidade", s.countCustomersHandler).Methods(http.MethodGet)
	c.HandleFunc("/clientes_por_estado/{estado}", s.customersByStateHandler).Methods(http.MethodGet)
	c.HandleFunc("/busca/{nome}", s.searchCustomersHandler).Methods(http.MethodGet)
	c.HandleFunc("/csv", s.exportHandler("clientes", s.customersCSV)).Methods(http.MethodGet)
	c.HandleFunc("/csv/zip", s.exportZipHandler("clientes", s.customersCSV)).Methods(http.MethodGet)
	c.HandleFunc("/csv/hash", s.exportHashHandler("clientes", s.customersCSV)).Methods(http.MethodGet)
	c.HandleFunc("/{id:[0-9]+}", s.getCustomerHandler).Methods(http.MethodGet)
	c.HandleFunc("/{id:[0-9]+}", s.updateCustomerHandler).Methods(http.MethodPut)
	c.HandleFunc("/{id:[0-9]+}", s.deleteCustomerHandler).Methods(http.MethodDelete)

	pr := r.PathPrefix("/produtos").Subrouter()
	root(pr, s.createProductHandler, http.MethodPost)
	root(pr, s.listProductsHandler, http.MethodGet)
	pr.HandleFunc("/quantidade", s.countProductsHandler).Methods(http.MethodGet)
	pr.HandleFunc("/categoria_qtd/{categoria}", s.countByCategoryHandler).Methods(http.MethodGet)
	pr.HandleFunc("/preco_maior_que/{preco}", s.priceAboveHandler).Methods(http.MethodGet)
	pr.HandleFunc("/csv", s.exportHandler("produtos", s.productsCSV)).Methods(http.MethodGet)
	pr.HandleFunc("/csv/zip", s.exportZipHandler("produtos", s.productsCSV)).Methods(http.MethodGet)
	pr.HandleFunc("/csv/hash", s.exportHashHandler("produtos", s.productsCSV)).Methods(http.MethodGet)
	pr.HandleFunc("/{id:[0-9]+}", s.getProductHandler).Methods(http.MethodGet)
	pr.HandleFunc("/{id:[0-9]+}", s.updateProductHandler).Methods(http.MethodPut)
	pr.HandleFunc("/{id:[0-9]+}", s.deleteProductHandler).Methods(http.MethodDelete)
	pr.HandleFunc("/{id:[0-9]+}/disponibilidade", s.availabilityHandler).Methods(http.MethodGet)

	r.PathPrefix("/swagger/").Handler(httpSwagger.WrapHandler)
	return r
}

// root registers h for the collection path with and without the trailing
// slash.
func root(r *mux.Router, h http.HandlerFunc, method string) {
	r.HandleFunc("", h).Methods(method)
	r.HandleFunc("/", h).Methods(method)
}

// welcomeHandler lists the API resources.
// @Summary Welcome
// @Produce json
// @Success 200 {object} map[string]any
// @Router / [get]
func (s *Server) welcomeHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"message":  "salesflow API",
		"recursos": []string{"/clientes", "/produtos", "/pedidos"},
		"docs":     "/swagger/index.html",
	})
}

type errorResponse struct {
	Detail string `json:"detail"`
}

// statusOf maps an error kind to its HTTP status.
func statusOf(err error) int {
	switch apperr.KindOf(err) {
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindValidation, apperr.KindInsufficientStock:
		return http.StatusBadRequest
	case apperr.KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// fail writes err as a {"detail": ...} body. Server-side failures are logged.
func (s *Server) fail(ctx context.Context, w http.ResponseWriter, op string, err error) {
	status := statusOf(err)
	if status >= http.StatusInternalServerError {
		s.log.Error(ctx, op, "error", err)
	} else {
		s.log.Debug(ctx, op, "status", status, "error", err)
	}
	writeJSON(w, status, errorResponse{Detail: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func decode(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return apperr.Validation("invalid request body: %v", err)
	}
	return nil
}

func pathID(r *http.Request) (int64, error) {
	raw := mux.Vars(r)["id"]
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, apperr.Validation("invalid id %q", raw)
	}
	return id, nil
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) traceMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		name := r.Method + " " + r.URL.Path
		if route := mux.CurrentRoute(r); route != nil {
			if tpl, err := route.GetPathTemplate(); err == nil {
				name = r.Method + " " + tpl
			}
		}

		ctx := otel.ExtractHTTP(r.Context(), r.Header)
		ctx, span := s.tracer.Start(ctx, name, trace.WithSpanKind(trace.SpanKindServer))
		defer span.End()

		ctx = otel.InjectTracing(ctx, s.tracer)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) logMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		reqID := r.Header.Get("X-Request-ID")
		if reqID == "" {
			reqID = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", reqID)

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		s.log.Info(r.Context(), "request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start).String(),
			"request_id", reqID,
		)
	})
}

func (s *Server) recoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if v := recover(); v != nil {
				s.log.Error(r.Context(), "panic", "panic", v, "path", r.URL.Path)
				writeJSON(w, http.StatusInternalServerError, errorResponse{Detail: "internal server error"})
			}
		}()
		next.ServeHTTP(w, r)
	})
}
