package postgres

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"salesflow/pkg/apperr"
	"salesflow/pkg/customer"
	"salesflow/pkg/logger"
	"salesflow/pkg/order"
	"salesflow/pkg/page"
	"salesflow/pkg/product"
)

// startPostgres runs a throwaway PostgreSQL container and returns a migrated,
// seeded DB. The test is skipped when Docker is unavailable.
func startPostgres(t *testing.T) *DB {
	t.Helper()
	if testing.Short() {
		t.Skip("integration test")
	}
	ctx := context.Background()

	c, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "postgres:16-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "salesflow",
				"POSTGRES_PASSWORD": "salesflow",
				"POSTGRES_DB":       "salesflow",
			},
			WaitingFor: wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(90 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		t.Skipf("postgres container unavailable: %v", err)
	}
	t.Cleanup(func() { _ = c.Terminate(ctx) })

	host, err := c.Host(ctx)
	require.NoError(t, err)
	port, err := c.MappedPort(ctx, "5432")
	require.NoError(t, err)

	url := fmt.Sprintf("postgres://salesflow:salesflow@%s:%s/salesflow?sslmode=disable", host, port.Port())
	db, err := Open(ctx, url, Pool{MaxOpenConns: 10, MaxIdleConns: 2, ConnMaxLifetime: time.Minute})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, db.Migrate(ctx))
	require.NoError(t, db.Migrate(ctx))
	require.NoError(t, db.SeedStatuses(ctx))
	require.NoError(t, db.SeedStatuses(ctx))
	return db
}

func TestPostgres(t *testing.T) {
	db := startPostgres(t)
	ctx := context.Background()

	c := customer.Customer{Name: "Ana Souza", Email: "ana@example.com", State: "SP"}
	require.NoError(t, db.Customers().Create(ctx, &c))
	p1 := product.Product{Name: "Teclado", Category: "Perifericos", Price: decimal.RequireFromString("10.00"), Stock: 5}
	require.NoError(t, db.Products().Create(ctx, &p1))
	p2 := product.Product{Name: "Mouse", Category: "perifericos", Price: decimal.RequireFromString("25.90"), Stock: 20}
	require.NoError(t, db.Products().Create(ctx, &p2))

	svc := order.NewService(db.Orders(), nil, logger.Nop())
	query := order.NewQuery(db.Orders(), logger.Nop())
	stock := func(id int64) int {
		p, err := db.Products().Get(ctx, id)
		require.NoError(t, err)
		return p.Stock
	}

	t.Run("customers", func(t *testing.T) {
		got, err := db.Customers().SearchByName(ctx, "souza")
		require.NoError(t, err)
		require.Len(t, got, 1)

		got, err = db.Customers().ByState(ctx, "sp")
		require.NoError(t, err)
		require.Len(t, got, 1)

		_, err = db.Customers().Get(ctx, 9999)
		assert.ErrorIs(t, err, apperr.ErrNotFound)
	})

	t.Run("products", func(t *testing.T) {
		n, err := db.Products().CountByCategory(ctx, "PERIFERICOS")
		require.NoError(t, err)
		assert.Equal(t, 2, n)

		above, err := db.Products().PriceAbove(ctx, decimal.NewFromInt(20))
		require.NoError(t, err)
		require.Len(t, above, 1)
		assert.Equal(t, p2.ID, above[0].ID)
	})

	t.Run("concurrent partial updates keep every field", func(t *testing.T) {
		customers := customer.NewService(db.Customers())
		products := product.NewService(db.Products())
		bia, err := customers.Create(ctx, customer.Customer{Name: "Bia", Email: "bia@example.com", State: "RJ"})
		require.NoError(t, err)

		const rounds = 20
		var wg sync.WaitGroup
		wg.Add(3)
		go func() {
			defer wg.Done()
			for i := 1; i <= rounds; i++ {
				city := fmt.Sprintf("city-%d", i)
				_, err := customers.Update(ctx, bia.ID, customer.Patch{City: &city})
				assert.NoError(t, err)
			}
		}()
		go func() {
			defer wg.Done()
			for i := 1; i <= rounds; i++ {
				phone := fmt.Sprintf("phone-%d", i)
				_, err := customers.Update(ctx, bia.ID, customer.Patch{Phone: &phone})
				assert.NoError(t, err)
			}
		}()
		go func() {
			defer wg.Done()
			for i := 1; i <= rounds; i++ {
				name := fmt.Sprintf("Mouse v%d", i)
				_, err := products.Update(ctx, p2.ID, product.Patch{Name: &name})
				assert.NoError(t, err)
			}
		}()
		wg.Wait()

		got, err := customers.Get(ctx, bia.ID)
		require.NoError(t, err)
		assert.Equal(t, fmt.Sprintf("city-%d", rounds), got.City)
		assert.Equal(t, fmt.Sprintf("phone-%d", rounds), got.Phone)

		mouse, err := products.Get(ctx, p2.ID)
		require.NoError(t, err)
		assert.Equal(t, fmt.Sprintf("Mouse v%d", rounds), mouse.Name)
		assert.Equal(t, 20, mouse.Stock)
		assert.True(t, mouse.Price.Equal(p2.Price))

		_, err = customers.Update(ctx, 9999, customer.Patch{})
		assert.ErrorIs(t, err, apperr.ErrNotFound)
	})

	t.Run("create claims stock", func(t *testing.T) {
		got, err := svc.Create(ctx, order.CreateInput{
			CustomerID: c.ID,
			Items:      []order.ItemInput{{ProductID: p1.ID, Quantity: 3, UnitPrice: decimal.RequireFromString("10.0")}},
		})
		require.NoError(t, err)
		assert.True(t, got.Total.Equal(decimal.NewFromInt(30)))
		assert.Equal(t, 2, stock(p1.ID))

		v, err := query.Get(ctx, got.ID)
		require.NoError(t, err)
		assert.Equal(t, "Ana Souza", v.CustomerName)
		assert.Equal(t, order.StatusPending, v.Status)
		require.Len(t, v.Items, 1)
		assert.Equal(t, "Teclado", v.Items[0].Product.Name)

		views, err := query.ByDay(ctx, got.CreatedAt)
		require.NoError(t, err)
		assert.NotEmpty(t, views)
	})

	t.Run("insufficient stock rolls back", func(t *testing.T) {
		before, err := db.Orders().CountOrders(ctx, order.Filter{})
		require.NoError(t, err)

		_, err = svc.Create(ctx, order.CreateInput{
			CustomerID: c.ID,
			Items: []order.ItemInput{
				{ProductID: p2.ID, Quantity: 1, UnitPrice: decimal.NewFromInt(1)},
				{ProductID: p1.ID, Quantity: 3, UnitPrice: decimal.NewFromInt(1)},
			},
		})
		require.ErrorIs(t, err, apperr.ErrInsufficientStock)
		assert.Equal(t, 2, stock(p1.ID))
		assert.Equal(t, 20, stock(p2.ID))

		after, err := db.Orders().CountOrders(ctx, order.Filter{})
		require.NoError(t, err)
		assert.Equal(t, before, after)
	})

	t.Run("unknown customer", func(t *testing.T) {
		_, err := svc.Create(ctx, order.CreateInput{
			CustomerID: 9999,
			Items:      []order.ItemInput{{ProductID: p1.ID, Quantity: 1}},
		})
		require.ErrorIs(t, err, apperr.ErrNotFound)
	})

	t.Run("referenced deletes conflict", func(t *testing.T) {
		assert.ErrorIs(t, db.Customers().Delete(ctx, c.ID), apperr.ErrConflict)
		assert.ErrorIs(t, db.Products().Delete(ctx, p1.ID), apperr.ErrConflict)
	})

	t.Run("cancel and delete", func(t *testing.T) {
		got, err := svc.Create(ctx, order.CreateInput{
			CustomerID: c.ID,
			Items:      []order.ItemInput{{ProductID: p2.ID, Quantity: 4, UnitPrice: decimal.NewFromInt(2)}},
		})
		require.NoError(t, err)
		require.Equal(t, 16, stock(p2.ID))

		cancelled := order.StatusCancelled
		_, err = svc.Update(ctx, got.ID, order.Patch{Status: &cancelled})
		require.NoError(t, err)
		assert.Equal(t, 20, stock(p2.ID))

		require.NoError(t, svc.Delete(ctx, got.ID))
		assert.Equal(t, 20, stock(p2.ID))
		_, err = query.Get(ctx, got.ID)
		assert.ErrorIs(t, err, apperr.ErrNotFound)
	})

	t.Run("concurrent creates never oversell", func(t *testing.T) {
		p := product.Product{Name: "Cabo", Category: "acessorios", Price: decimal.NewFromInt(5), Stock: 8}
		require.NoError(t, db.Products().Create(ctx, &p))

		var (
			wg sync.WaitGroup
			mu sync.Mutex
			ok int
		)
		for i := 0; i < 20; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := svc.Create(ctx, order.CreateInput{
					CustomerID: c.ID,
					Items:      []order.ItemInput{{ProductID: p.ID, Quantity: 1, UnitPrice: decimal.NewFromInt(5)}},
				})
				if err == nil {
					mu.Lock()
					ok++
					mu.Unlock()
				}
			}()
		}
		wg.Wait()
		assert.Equal(t, 8, ok)
		assert.Equal(t, 0, stock(p.ID))
	})

	t.Run("releasing stock while creating in reverse order", func(t *testing.T) {
		a := product.Product{Name: "Hub", Category: "acessorios", Price: decimal.NewFromInt(40), Stock: 1000}
		b := product.Product{Name: "Dock", Category: "acessorios", Price: decimal.NewFromInt(90), Stock: 1000}
		require.NoError(t, db.Products().Create(ctx, &a))
		require.NoError(t, db.Products().Create(ctx, &b))
		forward := []order.ItemInput{
			{ProductID: a.ID, Quantity: 1, UnitPrice: decimal.NewFromInt(40)},
			{ProductID: b.ID, Quantity: 1, UnitPrice: decimal.NewFromInt(90)},
		}
		reverse := []order.ItemInput{forward[1], forward[0]}

		const rounds = 15
		ids := make([]int64, 0, 2*rounds)
		for i := 0; i < 2*rounds; i++ {
			d, err := svc.Create(ctx, order.CreateInput{CustomerID: c.ID, Items: reverse})
			require.NoError(t, err)
			ids = append(ids, d.ID)
		}

		var (
			wg   sync.WaitGroup
			mu   sync.Mutex
			errs []error
		)
		run := func(fn func() error) {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if err := fn(); err != nil {
					mu.Lock()
					errs = append(errs, err)
					mu.Unlock()
				}
			}()
		}
		cancelled := order.StatusCancelled
		for i := 0; i < rounds; i++ {
			del, upd := ids[i], ids[rounds+i]
			run(func() error { return svc.Delete(ctx, del) })
			run(func() error {
				_, err := svc.Update(ctx, upd, order.Patch{Status: &cancelled, Items: forward})
				return err
			})
			run(func() error {
				_, err := svc.Create(ctx, order.CreateInput{CustomerID: c.ID, Items: forward})
				return err
			})
		}
		wg.Wait()

		assert.Empty(t, errs)
		assert.Equal(t, 1000-rounds, stock(a.ID))
		assert.Equal(t, 1000-rounds, stock(b.ID))
	})

	t.Run("pagination", func(t *testing.T) {
		total, err := db.Orders().CountOrders(ctx, order.Filter{})
		require.NoError(t, err)

		r, err := page.New(1, 3)
		require.NoError(t, err)
		res, err := query.List(ctx, r)
		require.NoError(t, err)
		assert.Equal(t, total, res.Total)
		assert.Equal(t, page.Pages(total, 3), res.Pages)
		assert.Len(t, res.Items, 3)
	})
}
