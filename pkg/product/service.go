package product

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"

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

// Create validates p and stores it under a new id.
func (s *Service) Create(ctx context.Context, p Product) (Product, error) {
	p.ID = 0
	if err := p.Validate(); err != nil {
		return Product{}, err
	}
	if err := s.repo.Create(ctx, &p); err != nil {
		return Product{}, apperr.From("create product", err)
	}
	return p, nil
}

// Get returns the product with id.
func (s *Service) Get(ctx context.Context, id int64) (Product, error) {
	if id <= 0 {
		return Product{}, apperr.Validation("invalid product id %d", id)
	}
	p, err := s.repo.Get(ctx, id)
	if err != nil {
		return Product{}, apperr.From("get product", err)
	}
	return p, nil
}

// List returns one page of products ordered by id.
func (s *Service) List(ctx context.Context, r page.Request) (page.Result[Product], error) {
	total, err := s.repo.Count(ctx)
	if err != nil {
		return page.Result[Product]{}, apperr.From("count products", err)
	}
	items, err := s.repo.List(ctx, r.Offset(), r.Limit())
	if err != nil {
		return page.Result[Product]{}, apperr.From("list products", err)
	}
	return page.NewResult(r, items, total), nil
}

// All returns every product ordered by id.
func (s *Service) All(ctx context.Context) ([]Product, error) {
	items, err := s.repo.List(ctx, 0, 0)
	if err != nil {
		return nil, apperr.From("list products", err)
	}
	return items, nil
}

// Update merges patch into the stored product atomically. Stock changes are
// rejected.
func (s *Service) Update(ctx context.Context, id int64, patch Patch) (Product, error) {
	if id <= 0 {
		return Product{}, apperr.Validation("invalid product id %d", id)
	}
	p, err := s.repo.Update(ctx, id, func(p *Product) error {
		if err := patch.Apply(p); err != nil {
			return err
		}
		return p.Validate()
	})
	if err != nil {
		return Product{}, apperr.From("update product", err)
	}
	return p, nil
}

// Delete removes a product that no order line references.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if id <= 0 {
		return apperr.Validation("invalid product id %d", id)
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return apperr.From("delete product", err)
	}
	return nil
}

// Count returns the number of products.
func (s *Service) Count(ctx context.Context) (int, error) {
	n, err := s.repo.Count(ctx)
	if err != nil {
		return 0, apperr.From("count products", err)
	}
	return n, nil
}

// CountByCategory returns the number of products in category, ignoring case.
func (s *Service) CountByCategory(ctx context.Context, category string) (int, error) {
	n, err := s.repo.CountByCategory(ctx, strings.TrimSpace(category))
	if err != nil {
		return 0, apperr.From("count products by category", err)
	}
	return n, nil
}

// PriceAbove returns the products priced strictly above price.
func (s *Service) PriceAbove(ctx context.Context, price decimal.Decimal) ([]Product, error) {
	items, err := s.repo.PriceAbove(ctx, price)
	if err != nil {
		return nil, apperr.From("products by price", err)
	}
	if items == nil {
		items = []Product{}
	}
	return items, nil
}

// Availability compares quantity against the current stock.
func (s *Service) Availability(ctx context.Context, id int64, quantity int) (Availability, error) {
	if quantity <= 0 {
		return Availability{}, apperr.Validation("quantidade must be positive")
	}
	p, err := s.Get(ctx, id)
	if err != nil {
		return Availability{}, err
	}
	return Availability{
		ProductID: p.ID,
		Stock:     p.Stock,
		Requested: quantity,
		Available: p.Stock >= quantity,
	}, nil
}
