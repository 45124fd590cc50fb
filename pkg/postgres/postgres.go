// Package postgres implements the storage backend on PostgreSQL.
package postgres

import (
	"context"
	"database/sql"
	"strconv"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"salesflow/pkg/apperr"
	"salesflow/pkg/order"
)

// Pool configures the connection pool.
type Pool struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// DB holds the connection pool shared by the repositories.
type DB struct {
	db *sqlx.DB
}

// Open connects to url and verifies the connection.
func Open(ctx context.Context, url string, pool Pool) (*DB, error) {
	db, err := sqlx.Open("postgres", url)
	if err != nil {
		return nil, errors.Wrap(err, "open postgres")
	}
	db.SetMaxOpenConns(pool.MaxOpenConns)
	db.SetMaxIdleConns(pool.MaxIdleConns)
	db.SetConnMaxLifetime(pool.ConnMaxLifetime)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "ping postgres")
	}
	return &DB{db: db}, nil
}

// Close closes the connection pool.
func (d *DB) Close() error {
	return d.db.Close()
}

// Customers returns the customer repository.
func (d *DB) Customers() *Customers { return &Customers{db: d.db} }

// Products returns the product repository.
func (d *DB) Products() *Products { return &Products{db: d.db} }

// Orders returns the order store and reader.
func (d *DB) Orders() *Orders { return &Orders{db: d.db} }

var schema = []string{
	`CREATE TABLE IF NOT EXISTS cliente (
		id              BIGSERIAL PRIMARY KEY,
		nome            TEXT NOT NULL,
		data_nascimento TEXT NOT NULL DEFAULT '',
		email           TEXT NOT NULL,
		telefone        TEXT NOT NULL DEFAULT '',
		endereco        TEXT NOT NULL DEFAULT '',
		cidade          TEXT NOT NULL DEFAULT '',
		estado          TEXT NOT NULL DEFAULT '',
		cep             TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE TABLE IF NOT EXISTS produto (
		id        BIGSERIAL PRIMARY KEY,
		nome      TEXT NOT NULL,
		categoria TEXT NOT NULL,
		preco     NUMERIC NOT NULL CHECK (preco >= 0),
		estoque   INTEGER NOT NULL CHECK (estoque >= 0)
	)`,
	`CREATE TABLE IF NOT EXISTS status_pedido (
		id        BIGSERIAL PRIMARY KEY,
		nome      TEXT NOT NULL UNIQUE,
		descricao TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE TABLE IF NOT EXISTS pedido (
		id          BIGSERIAL PRIMARY KEY,
		cliente_id  BIGINT NOT NULL REFERENCES cliente (id),
		status_id   BIGINT NOT NULL REFERENCES status_pedido (id),
		data_pedido TIMESTAMPTZ NOT NULL DEFAULT now(),
		valor_total NUMERIC NOT NULL DEFAULT 0
	)`,
	`CREATE INDEX IF NOT EXISTS pedido_cliente_id_idx ON pedido (cliente_id)`,
	`CREATE INDEX IF NOT EXISTS pedido_data_pedido_idx ON pedido (data_pedido)`,
	`CREATE TABLE IF NOT EXISTS item_pedido (
		id             BIGSERIAL PRIMARY KEY,
		pedido_id      BIGINT NOT NULL REFERENCES pedido (id),
		produto_id     BIGINT NOT NULL REFERENCES produto (id),
		quantidade     INTEGER NOT NULL CHECK (quantidade > 0),
		preco_unitario NUMERIC NOT NULL CHECK (preco_unitario >= 0)
	)`,
	`CREATE INDEX IF NOT EXISTS item_pedido_pedido_id_idx ON item_pedido (pedido_id)`,
	`CREATE INDEX IF NOT EXISTS item_pedido_produto_id_idx ON item_pedido (produto_id)`,
}

// Migrate creates the tables and indexes that do not exist yet.
func (d *DB) Migrate(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := d.db.ExecContext(ctx, stmt); err != nil {
			return errors.Wrap(err, "apply schema")
		}
	}
	return nil
}

// SeedStatuses inserts the order statuses that are missing. It is safe to
// call more than once.
func (d *DB) SeedStatuses(ctx context.Context) error {
	for _, s := range order.SeedStatuses {
		_, err := d.db.ExecContext(ctx,
			`INSERT INTO status_pedido (nome, descricao) VALUES ($1, $2) ON CONFLICT (nome) DO NOTHING`,
			s.Name, s.Description)
		if err != nil {
			return errors.Wrapf(err, "seed status %s", s.Name)
		}
	}
	return nil
}

const (
	codeForeignKeyViolation = "23503"
	codeUniqueViolation     = "23505"
	codeCheckViolation      = "23514"
)

func pqCode(err error) pq.ErrorCode {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code
	}
	return ""
}

// mapErr translates a driver error raised during op into an apperr kind.
func mapErr(op string, err error) error {
	var ae *apperr.Error
	if errors.As(err, &ae) {
		return ae
	}
	switch pqCode(err) {
	case codeForeignKeyViolation, codeUniqueViolation:
		return apperr.Conflict("%s: %s", op, err.Error())
	case codeCheckViolation:
		return apperr.Validation("%s: %s", op, err.Error())
	}
	return apperr.Storage(op, err)
}

// inTx runs fn in a transaction, rolling back when fn fails.
func inTx(ctx context.Context, db *sqlx.DB, fn func(tx *sqlx.Tx) error) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return mapErr("begin transaction", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return mapErr("commit transaction", err)
	}
	return nil
}

// affected returns NotFound when res changed no rows.
func affected(res sql.Result, entity string, id int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return apperr.Storage("rows affected", err)
	}
	if n == 0 {
		return apperr.NotFound(entity, id)
	}
	return nil
}

func pageArgs(query string, args []any, offset, limit int) (string, []any) {
	if limit > 0 {
		args = append(args, limit)
		query += " LIMIT $" + strconv.Itoa(len(args))
	}
	if offset > 0 {
		args = append(args, offset)
		query += " OFFSET $" + strconv.Itoa(len(args))
	}
	return query, args
}
