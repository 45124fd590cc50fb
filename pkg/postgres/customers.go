package postgres

import (
	"context"
	"database/sql"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"salesflow/pkg/apperr"
	"salesflow/pkg/customer"
)

const customerColumns = `id, nome, data_nascimento, email, telefone, endereco, cidade, estado, cep`

// Customers persists customers in PostgreSQL.
type Customers struct {
	db *sqlx.DB
}

var _ customer.Repository = (*Customers)(nil)

// Create inserts c and assigns its id.
func (r *Customers) Create(ctx context.Context, c *customer.Customer) error {
	err := r.db.QueryRowxContext(ctx,
		`INSERT INTO cliente (nome, data_nascimento, email, telefone, endereco, cidade, estado, cep)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING id`,
		c.Name, c.BirthDate, c.Email, c.Phone, c.Address, c.City, c.State, c.ZipCode,
	).Scan(&c.ID)
	if err != nil {
		return mapErr("insert customer", err)
	}
	return nil
}

// Get retrieves a customer by ID.
func (r *Customers) Get(ctx context.Context, id int64) (customer.Customer, error) {
	var c customer.Customer
	err := r.db.GetContext(ctx, &c, `SELECT `+customerColumns+` FROM cliente WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return customer.Customer{}, apperr.NotFound("customer", id)
	}
	if err != nil {
		return customer.Customer{}, mapErr("select customer", err)
	}
	return c, nil
}

func (r *Customers) List(ctx context.Context, offset, limit int) ([]customer.Customer, error) {
	q, args := pageArgs(`SELECT `+customerColumns+` FROM cliente ORDER BY id`, nil, offset, limit)
	return r.selectAll(ctx, "list customers", q, args...)
}

func (r *Customers) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.GetContext(ctx, &n, `SELECT count(*) FROM cliente`); err != nil {
		return 0, mapErr("count customers", err)
	}
	return n, nil
}

// Update locks the customer row, applies merge and writes the result back in
// one transaction.
func (r *Customers) Update(ctx context.Context, id int64, merge func(*customer.Customer) error) (customer.Customer, error) {
	var c customer.Customer
	err := inTx(ctx, r.db, func(tx *sqlx.Tx) error {
		err := tx.GetContext(ctx, &c, `SELECT `+customerColumns+` FROM cliente WHERE id = $1 FOR UPDATE`, id)
		if errors.Is(err, sql.ErrNoRows) {
			return apperr.NotFound("customer", id)
		}
		if err != nil {
			return mapErr("lock customer", err)
		}
		if err := merge(&c); err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx,
			`UPDATE cliente SET nome = $2, data_nascimento = $3, email = $4, telefone = $5,
			 endereco = $6, cidade = $7, estado = $8, cep = $9 WHERE id = $1`,
			id, c.Name, c.BirthDate, c.Email, c.Phone, c.Address, c.City, c.State, c.ZipCode)
		if err != nil {
			return mapErr("update customer", err)
		}
		return nil
	})
	if err != nil {
		return customer.Customer{}, err
	}
	c.ID = id
	return c, nil
}

// Delete removes a customer. The pedido foreign key rejects customers that
// still own orders.
func (r *Customers) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM cliente WHERE id = $1`, id)
	if pqCode(err) == codeForeignKeyViolation {
		return apperr.Conflict("customer %d still has orders", id)
	}
	if err != nil {
		return mapErr("delete customer", err)
	}
	return affected(res, "customer", id)
}

func (r *Customers) ByState(ctx context.Context, state string) ([]customer.Customer, error) {
	return r.selectAll(ctx, "customers by state",
		`SELECT `+customerColumns+` FROM cliente WHERE lower(estado) = lower($1) ORDER BY id`, state)
}

func (r *Customers) SearchByName(ctx context.Context, fragment string) ([]customer.Customer, error) {
	return r.selectAll(ctx, "search customers",
		`SELECT `+customerColumns+` FROM cliente WHERE nome ILIKE '%' || $1 || '%' ESCAPE '\' ORDER BY id`,
		escapeLike(fragment))
}

func (r *Customers) selectAll(ctx context.Context, op, query string, args ...any) ([]customer.Customer, error) {
	var out []customer.Customer
	if err := r.db.SelectContext(ctx, &out, query, args...); err != nil {
		return nil, mapErr(op, err)
	}
	return out, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
