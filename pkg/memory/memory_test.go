package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"salesflow/pkg/apperr"
	"salesflow/pkg/customer"
	"salesflow/pkg/order"
	"salesflow/pkg/product"
)

func TestCustomers(t *testing.T) {
	ctx := context.Background()
	repo := New().Customers()
	c := customer.Customer{Name: "Ana", Email: "ana@example.com", State: "SP"}
	if err := repo.Create(ctx, &c); err != nil {
		t.Fatalf("create: %v", err)
	}
	got, err := repo.Get(ctx, c.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Name != "Ana" {
		t.Fatalf("expected Ana, got %s", got.Name)
	}
	updated, err := repo.Update(ctx, c.ID, func(c *customer.Customer) error {
		c.Name = "Ana Maria"
		return nil
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Name != "Ana Maria" || updated.Email != "ana@example.com" {
		t.Fatalf("unexpected update result %+v", updated)
	}
	if _, err := repo.Update(ctx, 99, func(*customer.Customer) error { return nil }); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected not found for unknown customer, got %v", err)
	}
	list, err := repo.List(ctx, 0, 0)
	if err != nil || len(list) != 1 {
		t.Fatalf("list: %v len=%d", err, len(list))
	}
	if err := repo.Delete(ctx, c.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := repo.Get(ctx, c.ID); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected not found after delete, got %v", err)
	}
}

func TestCustomerQueries(t *testing.T) {
	ctx := context.Background()
	repo := New().Customers()
	for _, c := range []customer.Customer{
		{Name: "Ana Souza", Email: "a@x", State: "SP"},
		{Name: "Bruno", Email: "b@x", State: "rj"},
		{Name: "Carla Souza", Email: "c@x", State: "sp"},
	} {
		require.NoError(t, repo.Create(ctx, &c))
	}

	sp, err := repo.ByState(ctx, "SP")
	require.NoError(t, err)
	require.Len(t, sp, 2)
	assert.Equal(t, "Ana Souza", sp[0].Name)
	assert.Equal(t, "Carla Souza", sp[1].Name)

	found, err := repo.SearchByName(ctx, "souza")
	require.NoError(t, err)
	assert.Len(t, found, 2)

	second, err := repo.List(ctx, 1, 1)
	require.NoError(t, err)
	require.Len(t, second, 1)
	assert.Equal(t, "Bruno", second[0].Name)

	past, err := repo.List(ctx, 10, 5)
	require.NoError(t, err)
	assert.Empty(t, past)
}

func TestProductUpdateKeepsStock(t *testing.T) {
	ctx := context.Background()
	repo := New().Products()
	p := product.Product{Name: "Mouse", Category: "perifericos", Price: decimal.NewFromInt(50), Stock: 7}
	require.NoError(t, repo.Create(ctx, &p))

	_, err := repo.Update(ctx, p.ID, func(p *product.Product) error {
		p.Price = decimal.NewFromInt(45)
		p.Stock = 100
		return nil
	})
	require.NoError(t, err)

	_, err = repo.Update(ctx, p.ID, func(p *product.Product) error {
		p.Name = "Trackball"
		return apperr.Validation("rejected")
	})
	require.ErrorIs(t, err, apperr.ErrValidation)

	got, err := repo.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 7, got.Stock)
	assert.Equal(t, "Mouse", got.Name)
	assert.True(t, got.Price.Equal(decimal.NewFromInt(45)))
}

func TestProductQueries(t *testing.T) {
	ctx := context.Background()
	repo := New().Products()
	for _, p := range []product.Product{
		{Name: "A", Category: "Livros", Price: decimal.RequireFromString("10.00")},
		{Name: "B", Category: "livros", Price: decimal.RequireFromString("30.50")},
		{Name: "C", Category: "Jogos", Price: decimal.RequireFromString("99.90")},
	} {
		require.NoError(t, repo.Create(ctx, &p))
	}

	n, err := repo.CountByCategory(ctx, "LIVROS")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	above, err := repo.PriceAbove(ctx, decimal.RequireFromString("30.50"))
	require.NoError(t, err)
	require.Len(t, above, 1)
	assert.Equal(t, "C", above[0].Name)
}

func TestSeedStatusesIsIdempotent(t *testing.T) {
	ctx := context.Background()
	db := New()
	require.NoError(t, db.SeedStatuses(ctx))
	require.NoError(t, db.SeedStatuses(ctx))

	assert.Len(t, db.t.statuses, len(order.SeedStatuses))
	_, ok := db.t.statusByName(order.StatusCancelled)
	assert.True(t, ok)
}

func TestWithinTxRollsBack(t *testing.T) {
	ctx := context.Background()
	db := New()
	require.NoError(t, db.SeedStatuses(ctx))
	p := product.Product{Name: "Teclado", Category: "perifericos", Price: decimal.NewFromInt(100), Stock: 3}
	require.NoError(t, db.Products().Create(ctx, &p))

	boom := errors.New("boom")
	err := db.Orders().WithinTx(ctx, func(ctx context.Context, tx order.Tx) error {
		o := order.Order{CustomerID: 1, StatusID: 1, CreatedAt: time.Now()}
		require.NoError(t, tx.InsertOrder(ctx, &o))
		require.NoError(t, tx.AdjustStock(ctx, p.ID, -2))
		return boom
	})
	require.ErrorIs(t, err, boom)

	got, err := db.Products().Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, got.Stock)

	n, err := db.Orders().CountOrders(ctx, order.Filter{})
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestAdjustStockNeverNegative(t *testing.T) {
	ctx := context.Background()
	db := New()
	p := product.Product{Name: "Cabo", Category: "acessorios", Stock: 1}
	require.NoError(t, db.Products().Create(ctx, &p))

	err := db.Orders().WithinTx(ctx, func(ctx context.Context, tx order.Tx) error {
		return tx.AdjustStock(ctx, p.ID, -2)
	})
	assert.Equal(t, apperr.KindInsufficientStock, apperr.KindOf(err))
}

func TestReferencedDeletesConflict(t *testing.T) {
	ctx := context.Background()
	db := New()
	require.NoError(t, db.SeedStatuses(ctx))

	c := customer.Customer{Name: "Ana", Email: "a@x"}
	require.NoError(t, db.Customers().Create(ctx, &c))
	p := product.Product{Name: "Livro", Category: "livros", Price: decimal.NewFromInt(20), Stock: 5}
	require.NoError(t, db.Products().Create(ctx, &p))

	err := db.Orders().WithinTx(ctx, func(ctx context.Context, tx order.Tx) error {
		o := order.Order{CustomerID: c.ID, StatusID: 1, CreatedAt: time.Now()}
		if err := tx.InsertOrder(ctx, &o); err != nil {
			return err
		}
		return tx.InsertItem(ctx, &order.LineItem{OrderID: o.ID, ProductID: p.ID, Quantity: 1})
	})
	require.NoError(t, err)

	assert.ErrorIs(t, db.Customers().Delete(ctx, c.ID), apperr.ErrConflict)
	assert.ErrorIs(t, db.Products().Delete(ctx, p.ID), apperr.ErrConflict)
}

func TestFindOrdersByDay(t *testing.T) {
	ctx := context.Background()
	db := New()
	day := time.Date(2024, 3, 20, 23, 30, 0, 0, time.UTC)

	err := db.Orders().WithinTx(ctx, func(ctx context.Context, tx order.Tx) error {
		for _, at := range []time.Time{day, day.Add(time.Hour), day.Add(-24 * time.Hour)} {
			o := order.Order{CustomerID: 1, StatusID: 1, CreatedAt: at}
			if err := tx.InsertOrder(ctx, &o); err != nil {
				return err
			}
		}
		return nil
	})
	require.NoError(t, err)

	recs, err := db.Orders().FindOrders(ctx, order.Filter{Day: time.Date(2024, 3, 20, 0, 0, 0, 0, time.UTC)}, 0, 0, 0)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, int64(1), recs[0].Order.ID)
}
