package postgres

import (
	"errors"
	"testing"
	"time"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"

	"salesflow/pkg/apperr"
	"salesflow/pkg/order"
)

func TestWhere(t *testing.T) {
	cond, args := where(order.Filter{})
	assert.Empty(t, cond)
	assert.Empty(t, args)

	day := time.Date(2024, 3, 20, 0, 0, 0, 0, time.UTC)
	cond, args = where(order.Filter{CustomerID: 4, Day: day})
	assert.Equal(t, " WHERE p.cliente_id = $1 AND p.data_pedido >= $2 AND p.data_pedido < $3", cond)
	assert.Equal(t, []any{int64(4), day, day.AddDate(0, 0, 1)}, args)
}

func TestPageArgs(t *testing.T) {
	q, args := pageArgs("SELECT 1", []any{"x"}, 20, 10)
	assert.Equal(t, "SELECT 1 LIMIT $2 OFFSET $3", q)
	assert.Equal(t, []any{"x", 10, 20}, args)

	q, args = pageArgs("SELECT 1", nil, 0, 0)
	assert.Equal(t, "SELECT 1", q)
	assert.Empty(t, args)
}

func TestMapErr(t *testing.T) {
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(mapErr("op", &pq.Error{Code: codeForeignKeyViolation})))
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(mapErr("op", &pq.Error{Code: codeUniqueViolation})))
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(mapErr("op", &pq.Error{Code: codeCheckViolation})))
	assert.Equal(t, apperr.KindStorage, apperr.KindOf(mapErr("op", errors.New("conn reset"))))

	nf := apperr.NotFound("order", 1)
	assert.Same(t, nf, mapErr("op", nf))
}
