package customer

import (
	"context"
	"strings"

	"salesflow/pkg/apperr"
	"salesflow/pkg/page"
)

// Service validates input and delegates to a Repository.
type Service struct {
	repo Repository
}

// NewService creates a Service backed by repo.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Create validates c and stores it under a new id.
func (s *Service) Create(ctx context.Context, c Customer) (Customer, error) {
	c.ID = 0
	if err := c.Validate(); err != nil {
		return Customer{}, err
	}
	if err := s.repo.Create(ctx, &c); err != nil {
		return Customer{}, apperr.From("create customer", err)
	}
	return c, nil
}

// Get returns the customer with id.
func (s *Service) Get(ctx context.Context, id int64) (Customer, error) {
	if id <= 0 {
		return Customer{}, apperr.Validation("invalid customer id %d", id)
	}
	c, err := s.repo.Get(ctx, id)
	if err != nil {
		return Customer{}, apperr.From("get customer", err)
	}
	return c, nil
}

// List returns one page of customers ordered by id.
func (s *Service) List(ctx context.Context, r page.Request) (page.Result[Customer], error) {
	total, err := s.repo.Count(ctx)
	if err != nil {
		return page.Result[Customer]{}, apperr.From("count customers", err)
	}
	items, err := s.repo.List(ctx, r.Offset(), r.Limit())
	if err != nil {
		return page.Result[Customer]{}, apperr.From("list customers", err)
	}
	return page.NewResult(r, items, total), nil
}

// All returns every customer ordered by id.
func (s *Service) All(ctx context.Context) ([]Customer, error) {
	items, err := s.repo.List(ctx, 0, 0)
	if err != nil {
		return nil, apperr.From("list customers", err)
	}
	return items, nil
}

// Update merges p into the stored customer and re-validates the result. The
// merge runs inside the repository so concurrent patches compose.
func (s *Service) Update(ctx context.Context, id int64, p Patch) (Customer, error) {
	if id <= 0 {
		return Customer{}, apperr.Validation("invalid customer id %d", id)
	}
	c, err := s.repo.Update(ctx, id, func(c *Customer) error {
		p.Apply(c)
		return c.Validate()
	})
	if err != nil {
		return Customer{}, apperr.From("update customer", err)
	}
	return c, nil
}

// Delete removes a customer. Customers that still own orders are kept and a
// conflict is returned.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if id <= 0 {
		return apperr.Validation("invalid customer id %d", id)
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return apperr.From("delete customer", err)
	}
	return nil
}

// Count returns the number of customers.
func (s *Service) Count(ctx context.Context) (int, error) {
	n, err := s.repo.Count(ctx)
	if err != nil {
		return 0, apperr.From("count customers", err)
	}
	return n, nil
}

// ByState returns the customers of a state, ignoring case.
func (s *Service) ByState(ctx context.Context, state string) ([]Customer, error) {
	items, err := s.repo.ByState(ctx, strings.TrimSpace(state))
	if err != nil {
		return nil, apperr.From("customers by state", err)
	}
	return nonNil(items), nil
}

// SearchByName returns the customers whose name contains fragment, ignoring case.
func (s *Service) SearchByName(ctx context.Context, fragment string) ([]Customer, error) {
	items, err := s.repo.SearchByName(ctx, strings.TrimSpace(fragment))
	if err != nil {
		return nil, apperr.From("search customers", err)
	}
	return nonNil(items), nil
}

func nonNil(items []Customer) []Customer {
	if items == nil {
		return []Customer{}
	}
	return items
}
