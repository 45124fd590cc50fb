package postgres

import (
	"context"
	"database/sql"
	"strconv"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"salesflow/pkg/apperr"
	"salesflow/pkg/order"
	"salesflow/pkg/product"
)

// Orders persists orders and their items in PostgreSQL.
type Orders struct {
	db *sqlx.DB
}

var _ order.Repository = (*Orders)(nil)

// WithinTx runs fn in a read-committed transaction. Row locks taken through
// the Tx serialize competing writers on the same products and orders.
func (r *Orders) WithinTx(ctx context.Context, fn func(ctx context.Context, tx order.Tx) error) error {
	return inTx(ctx, r.db, func(tx *sqlx.Tx) error {
		return fn(ctx, &pgTx{tx: tx})
	})
}

// where renders the filter as a WHERE clause over pedido aliased as p.
func where(f order.Filter) (string, []any) {
	var (
		conds []string
		args  []any
	)
	add := func(cond string, v any) {
		args = append(args, v)
		conds = append(conds, strings.ReplaceAll(cond, "?", "$"+strconv.Itoa(len(args))))
	}
	if f.OrderID != 0 {
		add("p.id = ?", f.OrderID)
	}
	if f.CustomerID != 0 {
		add("p.cliente_id = ?", f.CustomerID)
	}
	if !f.Day.IsZero() {
		y, m, d := f.Day.Date()
		start := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
		add("p.data_pedido >= ?", start)
		add("p.data_pedido < ?", start.AddDate(0, 0, 1))
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// CountOrders counts the orders matching f.
func (r *Orders) CountOrders(ctx context.Context, f order.Filter) (int, error) {
	cond, args := where(f)
	var n int
	if err := r.db.GetContext(ctx, &n, `SELECT count(*) FROM pedido p`+cond, args...); err != nil {
		return 0, mapErr("count orders", err)
	}
	return n, nil
}

type orderRow struct {
	order.Order
	CustomerName      sql.NullString `db:"cliente_nome"`
	StatusName        sql.NullString `db:"status_nome"`
	StatusDescription sql.NullString `db:"status_descricao"`
}

type itemRow struct {
	order.LineItem
	RefID       sql.NullInt64       `db:"ref_id"`
	RefName     sql.NullString      `db:"ref_nome"`
	RefCategory sql.NullString      `db:"ref_categoria"`
	RefPrice    decimal.NullDecimal `db:"ref_preco"`
}

// FindOrders loads the matching orders and then, with one query per
// relationship, the related rows selected by rel.
func (r *Orders) FindOrders(ctx context.Context, f order.Filter, offset, limit int, rel order.Related) ([]order.Record, error) {
	var q strings.Builder
	q.WriteString(`SELECT p.id, p.cliente_id, p.status_id, p.data_pedido, p.valor_total`)
	if rel.Has(order.WithCustomer) {
		q.WriteString(`, c.nome AS cliente_nome`)
	}
	if rel.Has(order.WithStatus) {
		q.WriteString(`, s.nome AS status_nome, s.descricao AS status_descricao`)
	}
	q.WriteString(` FROM pedido p`)
	if rel.Has(order.WithCustomer) {
		q.WriteString(` LEFT JOIN cliente c ON c.id = p.cliente_id`)
	}
	if rel.Has(order.WithStatus) {
		q.WriteString(` LEFT JOIN status_pedido s ON s.id = p.status_id`)
	}
	cond, args := where(f)
	query, args := pageArgs(q.String()+cond+` ORDER BY p.id`, args, offset, limit)

	var rows []orderRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, mapErr("select orders", err)
	}

	out := make([]order.Record, len(rows))
	ids := make([]int64, len(rows))
	index := make(map[int64]int, len(rows))
	for i, row := range rows {
		row.Order.CreatedAt = row.Order.CreatedAt.UTC()
		rec := order.Record{Order: row.Order}
		if row.CustomerName.Valid {
			name := row.CustomerName.String
			rec.CustomerName = &name
		}
		if row.StatusName.Valid {
			rec.Status = &order.Status{
				ID:          row.StatusID,
				Name:        order.StatusName(row.StatusName.String),
				Description: row.StatusDescription.String,
			}
		}
		out[i] = rec
		ids[i] = row.ID
		index[row.ID] = i
	}

	if !rel.Has(order.WithItems) || len(ids) == 0 {
		return out, nil
	}

	var items []itemRow
	err := r.db.SelectContext(ctx, &items,
		`SELECT i.id, i.pedido_id, i.produto_id, i.quantidade, i.preco_unitario,
		        pr.id AS ref_id, pr.nome AS ref_nome, pr.categoria AS ref_categoria, pr.preco AS ref_preco
		 FROM item_pedido i
		 LEFT JOIN produto pr ON pr.id = i.produto_id
		 WHERE i.pedido_id = ANY($1)
		 ORDER BY i.id`, pq.Array(ids))
	if err != nil {
		return nil, mapErr("select order items", err)
	}
	for _, it := range items {
		ir := order.ItemRecord{LineItem: it.LineItem}
		if it.RefID.Valid {
			ir.Product = &order.ProductRef{
				ID:       it.RefID.Int64,
				Name:     it.RefName.String,
				Category: it.RefCategory.String,
				Price:    it.RefPrice.Decimal,
			}
		}
		i := index[it.OrderID]
		out[i].Items = append(out[i].Items, ir)
	}
	return out, nil
}

// pgTx implements order.Tx on a database transaction.
type pgTx struct {
	tx *sqlx.Tx
}

func (t *pgTx) CustomerExists(ctx context.Context, id int64) (bool, error) {
	var got int64
	err := t.tx.GetContext(ctx, &got, `SELECT id FROM cliente WHERE id = $1 FOR KEY SHARE`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, mapErr("select customer", err)
	}
	return true, nil
}

func (t *pgTx) StatusByName(ctx context.Context, name order.StatusName) (order.Status, error) {
	var s order.Status
	err := t.tx.GetContext(ctx, &s, `SELECT id, nome, descricao FROM status_pedido WHERE nome = $1`, name)
	if errors.Is(err, sql.ErrNoRows) {
		return order.Status{}, apperr.NotFound("status", name)
	}
	if err != nil {
		return order.Status{}, mapErr("select status", err)
	}
	return s, nil
}

func (t *pgTx) StatusByID(ctx context.Context, id int64) (order.Status, error) {
	var s order.Status
	err := t.tx.GetContext(ctx, &s, `SELECT id, nome, descricao FROM status_pedido WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return order.Status{}, apperr.NotFound("status", id)
	}
	if err != nil {
		return order.Status{}, mapErr("select status", err)
	}
	return s, nil
}

// LockProducts takes the row locks in ascending id order so two orders over
// the same products cannot deadlock.
func (t *pgTx) LockProducts(ctx context.Context, ids []int64) (map[int64]product.Product, error) {
	var ps []product.Product
	err := t.tx.SelectContext(ctx, &ps,
		`SELECT `+productColumns+` FROM produto WHERE id = ANY($1) ORDER BY id FOR UPDATE`, pq.Array(ids))
	if err != nil {
		return nil, mapErr("lock products", err)
	}
	out := make(map[int64]product.Product, len(ps))
	for _, p := range ps {
		out[p.ID] = p
	}
	return out, nil
}

func (t *pgTx) AdjustStock(ctx context.Context, productID int64, delta int) error {
	var stock int
	err := t.tx.GetContext(ctx, &stock,
		`UPDATE produto SET estoque = estoque + $2 WHERE id = $1 AND estoque + $2 >= 0 RETURNING estoque`,
		productID, delta)
	if err == nil {
		return nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return mapErr("adjust stock", err)
	}

	var p product.Product
	err = t.tx.GetContext(ctx, &p, `SELECT `+productColumns+` FROM produto WHERE id = $1`, productID)
	if errors.Is(err, sql.ErrNoRows) {
		return apperr.NotFound("product", productID)
	}
	if err != nil {
		return mapErr("select product", err)
	}
	return apperr.InsufficientStock(p.Name, p.Stock)
}

func (t *pgTx) InsertOrder(ctx context.Context, o *order.Order) error {
	err := t.tx.GetContext(ctx, &o.ID,
		`INSERT INTO pedido (cliente_id, status_id, data_pedido, valor_total) VALUES ($1, $2, $3, $4) RETURNING id`,
		o.CustomerID, o.StatusID, o.CreatedAt, o.Total)
	if err != nil {
		return mapErr("insert order", err)
	}
	return nil
}

func (t *pgTx) LockOrder(ctx context.Context, id int64) (order.Order, error) {
	var o order.Order
	err := t.tx.GetContext(ctx, &o,
		`SELECT id, cliente_id, status_id, data_pedido, valor_total FROM pedido WHERE id = $1 FOR UPDATE`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return order.Order{}, apperr.NotFound("order", id)
	}
	if err != nil {
		return order.Order{}, mapErr("lock order", err)
	}
	o.CreatedAt = o.CreatedAt.UTC()
	return o, nil
}

func (t *pgTx) SaveOrder(ctx context.Context, o order.Order) error {
	res, err := t.tx.ExecContext(ctx,
		`UPDATE pedido SET status_id = $2, valor_total = $3 WHERE id = $1`, o.ID, o.StatusID, o.Total)
	if err != nil {
		return mapErr("update order", err)
	}
	return affected(res, "order", o.ID)
}

func (t *pgTx) DeleteOrder(ctx context.Context, id int64) error {
	res, err := t.tx.ExecContext(ctx, `DELETE FROM pedido WHERE id = $1`, id)
	if err != nil {
		return mapErr("delete order", err)
	}
	return affected(res, "order", id)
}

func (t *pgTx) Items(ctx context.Context, orderID int64) ([]order.LineItem, error) {
	var items []order.LineItem
	err := t.tx.SelectContext(ctx, &items,
		`SELECT id, pedido_id, produto_id, quantidade, preco_unitario FROM item_pedido WHERE pedido_id = $1 ORDER BY id`,
		orderID)
	if err != nil {
		return nil, mapErr("select order items", err)
	}
	return items, nil
}

func (t *pgTx) InsertItem(ctx context.Context, li *order.LineItem) error {
	err := t.tx.GetContext(ctx, &li.ID,
		`INSERT INTO item_pedido (pedido_id, produto_id, quantidade, preco_unitario) VALUES ($1, $2, $3, $4) RETURNING id`,
		li.OrderID, li.ProductID, li.Quantity, li.UnitPrice)
	if err != nil {
		return mapErr("insert order item", err)
	}
	return nil
}

func (t *pgTx) DeleteItems(ctx context.Context, orderID int64) error {
	if _, err := t.tx.ExecContext(ctx, `DELETE FROM item_pedido WHERE pedido_id = $1`, orderID); err != nil {
		return mapErr("delete order items", err)
	}
	return nil
}
