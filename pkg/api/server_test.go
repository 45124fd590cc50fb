package api_test

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"salesflow/pkg/api"
	"salesflow/pkg/customer"
	"salesflow/pkg/export"
	"salesflow/pkg/logger"
	"salesflow/pkg/memory"
	"salesflow/pkg/order"
	"salesflow/pkg/product"
)

func newStack(t *testing.T) http.Handler {
	t.Helper()
	db := memory.New()
	require.NoError(t, db.SeedStatuses(context.Background()))
	log := logger.Nop()
	srv := api.NewServer(api.Services{
		Orders:    order.NewService(db.Orders(), nil, log),
		Queries:   order.NewQuery(db.Orders(), log),
		Customers: customer.NewService(db.Customers()),
		Products:  product.NewService(db.Products()),
	}, log, nil)
	return srv.Routes()
}

func decodeBody[T any](t *testing.T, body *bytes.Buffer) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(body.Bytes(), &v))
	return v
}

func TestWelcome(t *testing.T) {
	rec := do(newStack(t), http.MethodGet, "/", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "/pedidos")
}

func TestRequestIDIsPropagated(t *testing.T) {
	h := newStack(t)
	req, err := http.NewRequest(http.MethodGet, "/clientes/quantidade", nil)
	require.NoError(t, err)
	req.Header.Set("X-Request-ID", "abc-123")
	rec := serve(h, req)
	assert.Equal(t, "abc-123", rec.Header().Get("X-Request-ID"))
	assert.JSONEq(t, `{"quantidade":0}`, rec.Body.String())
}

func TestCustomerEndpoints(t *testing.T) {
	h := newStack(t)

	rec := do(h, http.MethodPost, "/clientes/", `{"nome":"Ana Souza","email":"ana@example.com","estado":"SP"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	ana := decodeBody[customer.Customer](t, rec.Body)
	assert.Positive(t, ana.ID)

	rec = do(h, http.MethodPost, "/clientes", `{"nome":"Bruno Lima","email":"bruno@example.com","estado":"RJ"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(h, http.MethodPost, "/clientes", `{"nome":"","email":"x@example.com"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(h, http.MethodGet, "/clientes/quantidade", "")
	assert.JSONEq(t, `{"quantidade":2}`, rec.Body.String())

	rec = do(h, http.MethodGet, "/clientes/clientes_por_estado/sp", "")
	require.Equal(t, http.StatusOK, rec.Code)
	byState := decodeBody[[]customer.Customer](t, rec.Body)
	require.Len(t, byState, 1)
	assert.Equal(t, "Ana Souza", byState[0].Name)

	rec = do(h, http.MethodGet, "/clientes/busca/lima", "")
	found := decodeBody[[]customer.Customer](t, rec.Body)
	require.Len(t, found, 1)
	assert.Equal(t, "Bruno Lima", found[0].Name)

	rec = do(h, http.MethodGet, "/clientes/busca/zzz", "")
	assert.JSONEq(t, `[]`, rec.Body.String())

	rec = do(h, http.MethodPut, "/clientes/1", `{"cidade":"Campinas"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	updated := decodeBody[customer.Customer](t, rec.Body)
	assert.Equal(t, "Campinas", updated.City)
	assert.Equal(t, "ana@example.com", updated.Email)

	rec = do(h, http.MethodGet, "/clientes/?page=1&size=1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"total":2`)
	assert.Contains(t, rec.Body.String(), `"pages":2`)

	rec = do(h, http.MethodDelete, "/clientes/2", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"message":"customer deleted","cliente_id":2}`, rec.Body.String())

	rec = do(h, http.MethodGet, "/clientes/2", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "customer 2 not found", detail(t, rec))
}

func TestProductEndpoints(t *testing.T) {
	h := newStack(t)

	rec := do(h, http.MethodPost, "/produtos/", `{"nome":"Teclado","categoria":"Perifericos","preco":150.5,"estoque":4}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	p := decodeBody[product.Product](t, rec.Body)
	assert.True(t, decimal.RequireFromString("150.5").Equal(p.Price))

	rec = do(h, http.MethodPost, "/produtos/", `{"nome":"Cabo","categoria":"Perifericos","preco":9.9,"estoque":0}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(h, http.MethodPost, "/produtos/", `{"nome":"Mouse","categoria":"Perifericos","preco":-1,"estoque":1}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(h, http.MethodPut, "/produtos/1", `{"estoque":99}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(h, http.MethodPut, "/produtos/1", `{"preco":120}`)
	require.Equal(t, http.StatusOK, rec.Code)
	p = decodeBody[product.Product](t, rec.Body)
	assert.Equal(t, 4, p.Stock)

	rec = do(h, http.MethodGet, "/produtos/quantidade", "")
	assert.JSONEq(t, `{"quantidade":2}`, rec.Body.String())

	rec = do(h, http.MethodGet, "/produtos/categoria_qtd/Perifericos", "")
	assert.JSONEq(t, `{"quantidade":2}`, rec.Body.String())

	rec = do(h, http.MethodGet, "/produtos/preco_maior_que/100", "")
	above := decodeBody[[]product.Product](t, rec.Body)
	require.Len(t, above, 1)
	assert.Equal(t, "Teclado", above[0].Name)

	rec = do(h, http.MethodGet, "/produtos/preco_maior_que/barato", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(h, http.MethodGet, "/produtos/1/disponibilidade?quantidade=5", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"produto_id":1,"estoque_atual":4,"quantidade_solicitada":5,"disponivel":false}`, rec.Body.String())

	rec = do(h, http.MethodGet, "/produtos/1/disponibilidade", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(h, http.MethodGet, "/produtos/42/disponibilidade?quantidade=1", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestOrderWorkflowOverHTTP(t *testing.T) {
	h := newStack(t)
	require.Equal(t, http.StatusOK, do(h, http.MethodPost, "/clientes", `{"nome":"Ana","email":"ana@example.com"}`).Code)
	require.Equal(t, http.StatusOK, do(h, http.MethodPost, "/produtos", `{"nome":"Teclado","categoria":"Perifericos","preco":100,"estoque":5}`).Code)

	rec := do(h, http.MethodPost, "/pedidos", `{"cliente_id":1,"itens":[{"produto_id":1,"quantidade":6,"preco_unitario":100}]}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "insufficient stock for product Teclado: available 5", detail(t, rec))

	rec = do(h, http.MethodPost, "/pedidos", `{"cliente_id":9999,"itens":[{"produto_id":1,"quantidade":1,"preco_unitario":100}]}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(h, http.MethodPost, "/pedidos", `{"cliente_id":1,"itens":[{"produto_id":1,"quantidade":2,"preco_unitario":100}]}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = do(h, http.MethodGet, "/produtos/1", "")
	assert.Equal(t, 3, decodeBody[product.Product](t, rec.Body).Stock)

	first := do(h, http.MethodGet, "/pedidos/1", "")
	second := do(h, http.MethodGet, "/pedidos/1", "")
	require.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, first.Body.String(), second.Body.String())
	assert.Contains(t, first.Body.String(), `"cliente_nome":"Ana"`)

	rec = do(h, http.MethodDelete, "/clientes/1", "")
	assert.Equal(t, http.StatusConflict, rec.Code)
	rec = do(h, http.MethodDelete, "/produtos/1", "")
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = do(h, http.MethodPut, "/pedidos/1", `{"status":"CANCELLED"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	rec = do(h, http.MethodGet, "/produtos/1", "")
	assert.Equal(t, 5, decodeBody[product.Product](t, rec.Body).Stock)

	rec = do(h, http.MethodDelete, "/pedidos/1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	rec = do(h, http.MethodGet, "/pedidos/1/itens", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = do(h, http.MethodDelete, "/produtos/1", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestExportEndpoints(t *testing.T) {
	h := newStack(t)
	require.Equal(t, http.StatusOK, do(h, http.MethodPost, "/produtos", `{"nome":"Teclado","categoria":"Perifericos","preco":150.5,"estoque":4}`).Code)
	require.Equal(t, http.StatusOK, do(h, http.MethodPost, "/produtos", `{"nome":"Mouse, sem fio","categoria":"Perifericos","preco":80,"estoque":2}`).Code)

	rec := do(h, http.MethodGet, "/produtos/csv", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "produtos.csv")
	plain := rec.Body.Bytes()

	rows, err := csv.NewReader(bytes.NewReader(plain)).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, product.CSVHeader, rows[0])
	assert.Equal(t, []string{"2", "Mouse, sem fio", "Perifericos", "80", "2"}, rows[2])

	rec = do(h, http.MethodGet, "/produtos/csv/hash", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"arquivo":"produtos.csv","sha256":"`+export.Hash(plain)+`"}`, rec.Body.String())

	rec = do(h, http.MethodGet, "/produtos/csv/zip", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/zip", rec.Header().Get("Content-Type"))
	zr, err := zip.NewReader(bytes.NewReader(rec.Body.Bytes()), int64(rec.Body.Len()))
	require.NoError(t, err)
	require.Len(t, zr.File, 1)
	assert.Equal(t, "produtos.csv", zr.File[0].Name)
	f, err := zr.File[0].Open()
	require.NoError(t, err)
	defer f.Close()
	unzipped, err := io.ReadAll(f)
	require.NoError(t, err)
	assert.Equal(t, plain, unzipped)

	rec = do(h, http.MethodGet, "/clientes/csv", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, strings.Join(customer.CSVHeader, ",")+"\n", rec.Body.String())
}

func TestListRejectsOverflowingPage(t *testing.T) {
	h := newStack(t)
	for _, path := range []string{"/pedidos/", "/clientes/", "/produtos/"} {
		rec := do(h, http.MethodGet, path+"?page=9223372036854775807&size=10", "")
		assert.Equal(t, http.StatusBadRequest, rec.Code, path)
		assert.Equal(t, "page 9223372036854775807 is out of range", detail(t, rec), path)
	}

	rec := do(h, http.MethodGet, "/produtos/?page=92233720368547758&size=100", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"items":[]`)
}
