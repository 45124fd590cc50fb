// Package customer holds the Customer entity, its repository contract and the
// CRUD service used by the HTTP layer.
package customer

import (
	"context"
	"strconv"
	"strings"

	"salesflow/pkg/apperr"
)

// Customer is a registered buyer.
type Customer struct {
	ID        int64  `json:"id" db:"id"`
	Name      string `json:"nome" db:"nome"`
	BirthDate string `json:"data_nascimento" db:"data_nascimento"`
	Email     string `json:"email" db:"email"`
	Phone     string `json:"telefone" db:"telefone"`
	Address   string `json:"endereco" db:"endereco"`
	City      string `json:"cidade" db:"cidade"`
	State     string `json:"estado" db:"estado"`
	ZipCode   string `json:"cep" db:"cep"`
}

// Patch carries the fields of a partial update. Nil fields are left alone.
type Patch struct {
	Name      *string `json:"nome,omitempty"`
	BirthDate *string `json:"data_nascimento,omitempty"`
	Email     *string `json:"email,omitempty"`
	Phone     *string `json:"telefone,omitempty"`
	Address   *string `json:"endereco,omitempty"`
	City      *string `json:"cidade,omitempty"`
	State     *string `json:"estado,omitempty"`
	ZipCode   *string `json:"cep,omitempty"`
}

// Repository defines behavior for persisting customers.
type Repository interface {
	Create(ctx context.Context, c *Customer) error
	Get(ctx context.Context, id int64) (Customer, error)
	// List returns customers ordered by id. A limit of 0 means no limit.
	List(ctx context.Context, offset, limit int) ([]Customer, error)
	Count(ctx context.Context) (int, error)
	// Update applies merge to the stored customer and saves the result as one
	// atomic step, so concurrent partial updates never drop each other's fields.
	Update(ctx context.Context, id int64, merge func(*Customer) error) (Customer, error)
	Delete(ctx context.Context, id int64) error
	ByState(ctx context.Context, state string) ([]Customer, error)
	SearchByName(ctx context.Context, fragment string) ([]Customer, error)
}

// Validate checks the required fields.
func (c Customer) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return apperr.Validation("nome is required")
	}
	if strings.TrimSpace(c.Email) == "" {
		return apperr.Validation("email is required")
	}
	return nil
}

// Apply merges the set fields of p into c.
func (p Patch) Apply(c *Customer) {
	set := func(dst *string, v *string) {
		if v != nil {
			*dst = *v
		}
	}
	set(&c.Name, p.Name)
	set(&c.BirthDate, p.BirthDate)
	set(&c.Email, p.Email)
	set(&c.Phone, p.Phone)
	set(&c.Address, p.Address)
	set(&c.City, p.City)
	set(&c.State, p.State)
	set(&c.ZipCode, p.ZipCode)
}

// CSVHeader lists the export columns in CSVRecord order.
var CSVHeader = []string{"id", "nome", "data_nascimento", "email", "telefone", "endereco", "cidade", "estado", "cep"}

// CSVRecord renders c in CSVHeader order.
func (c Customer) CSVRecord() []string {
	return []string{
		strconv.FormatInt(c.ID, 10), c.Name, c.BirthDate, c.Email, c.Phone,
		c.Address, c.City, c.State, c.ZipCode,
	}
}
