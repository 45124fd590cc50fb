package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/urfave/cli/v2"

	_ "salesflow/docs"
	"salesflow/pkg/api"
	"salesflow/pkg/config"
	"salesflow/pkg/customer"
	"salesflow/pkg/events"
	"salesflow/pkg/export"
	"salesflow/pkg/logger"
	"salesflow/pkg/memory"
	"salesflow/pkg/order"
	"salesflow/pkg/otel"
	"salesflow/pkg/postgres"
	"salesflow/pkg/product"
)

// @title SalesFlow API
// @version 1.0
// @description Customers, products and orders with stock-aware order workflow
// @host localhost:8443
// @BasePath /
func main() {
	decimal.MarshalJSONWithoutQuotes = true

	app := &cli.App{
		Name:   "salesflow",
		Usage:  "sales management API",
		Action: serve,
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "run the HTTP API",
				Action: serve,
			},
			{
				Name:   "migrate",
				Usage:  "create the schema and seed the order statuses",
				Action: migrate,
			},
			{
				Name:  "export",
				Usage: "write the customer and product tables as CSV files",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "dir", Value: ".", Usage: "output directory"},
				},
				Action: exportTables,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		logger.New(os.Stderr, logger.LevelError, "salesflow", nil).Error(context.Background(), "exit", "error", err)
		os.Exit(1)
	}
}

// setup loads the configuration and builds the logger.
func setup() (config.Config, *logger.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, nil, err
	}
	level, err := logger.ParseLevel(cfg.LogLevel)
	if err != nil {
		return config.Config{}, nil, err
	}
	return cfg, logger.New(os.Stdout, level, "salesflow", otel.GetTraceID), nil
}

// backend is the storage the services run on.
type backend struct {
	customers customer.Repository
	products  product.Repository
	orders    order.Repository
	close     func() error
}

func openBackend(ctx context.Context, cfg config.Config, log *logger.Logger) (*backend, error) {
	if cfg.Storage == config.StorageMemory {
		db := memory.New()
		if err := db.SeedStatuses(ctx); err != nil {
			return nil, err
		}
		log.Warn(ctx, "using in-memory storage, data is lost on exit")
		return &backend{
			customers: db.Customers(),
			products:  db.Products(),
			orders:    db.Orders(),
			close:     func() error { return nil },
		}, nil
	}

	db, err := postgres.Open(ctx, cfg.DatabaseURL, postgres.Pool{
		MaxOpenConns:    cfg.DBMaxOpenConns,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		ConnMaxLifetime: cfg.DBConnMaxLife,
	})
	if err != nil {
		return nil, err
	}
	if err := db.Migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	if err := db.SeedStatuses(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return &backend{
		customers: db.Customers(),
		products:  db.Products(),
		orders:    db.Orders(),
		close:     db.Close,
	}, nil
}

func publisher(ctx context.Context, cfg config.Config, log *logger.Logger) (order.Publisher, func() error) {
	if cfg.RedisAddr == "" {
		log.Info(ctx, "order events disabled")
		return events.Nop{}, func() error { return nil }
	}
	client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	if err := client.Ping(ctx).Err(); err != nil {
		log.Warn(ctx, "redis unreachable", "addr", cfg.RedisAddr, "error", err)
	}
	log.Info(ctx, "publishing order events", "addr", cfg.RedisAddr, "stream", cfg.EventsStream)
	return events.NewRedisPublisher(client, cfg.EventsStream), client.Close
}

func serve(c *cli.Context) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	tp, shutdown, err := otel.InitTracing(log, otel.Config{ServiceName: "salesflow", Host: cfg.OtelHost, Probability: cfg.OtelProbability})
	if err != nil {
		return err
	}
	defer shutdown(context.Background())

	store, err := openBackend(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer store.close()

	pub, closePub := publisher(ctx, cfg, log)
	defer closePub()

	srv := api.NewServer(api.Services{
		Orders:    order.NewService(store.orders, pub, log),
		Queries:   order.NewQuery(store.orders, log),
		Customers: customer.NewService(store.customers),
		Products:  product.NewService(store.products),
	}, log, tp.Tracer("salesflow"))

	httpSrv := &http.Server{Addr: cfg.HTTPAddr, Handler: srv.Routes()}

	errc := make(chan error, 1)
	go func() {
		log.Info(ctx, "listening", "addr", cfg.HTTPAddr, "tls", cfg.TLS(), "storage", cfg.Storage)
		if cfg.TLS() {
			errc <- httpSrv.ListenAndServeTLS(cfg.TLSCert, cfg.TLSKey)
			return
		}
		errc <- httpSrv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	log.Info(context.Background(), "shutting down", "timeout", cfg.ShutdownTimeout.String())
	sctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	return httpSrv.Shutdown(sctx)
}

func migrate(c *cli.Context) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}
	defer log.Sync()
	if cfg.Storage != config.StoragePostgres {
		return errors.New("migrate requires STORAGE=postgres")
	}

	store, err := openBackend(c.Context, cfg, log)
	if err != nil {
		return err
	}
	defer store.close()
	log.Info(c.Context, "schema ready")
	return nil
}

func exportTables(c *cli.Context) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}
	defer log.Sync()

	store, err := openBackend(c.Context, cfg, log)
	if err != nil {
		return err
	}
	defer store.close()

	dir := c.String("dir")
	customers, err := customer.NewService(store.customers).All(c.Context)
	if err != nil {
		return err
	}
	data, err := export.CSV(customer.CSVHeader, customers)
	if err != nil {
		return err
	}
	if err := writeExport(c.Context, log, dir, "clientes", data); err != nil {
		return err
	}

	products, err := product.NewService(store.products).All(c.Context)
	if err != nil {
		return err
	}
	data, err = export.CSV(product.CSVHeader, products)
	if err != nil {
		return err
	}
	return writeExport(c.Context, log, dir, "produtos", data)
}

// writeExport writes name.csv and name.zip into dir and logs the CSV hash.
func writeExport(ctx context.Context, log *logger.Logger, dir, name string, data []byte) error {
	if err := os.WriteFile(filepath.Join(dir, name+".csv"), data, 0o644); err != nil {
		return err
	}
	f, err := os.Create(filepath.Join(dir, name+".zip"))
	if err != nil {
		return err
	}
	if err := export.WriteZip(f, name+".csv", time.Now(), data); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	log.Info(ctx, "exported", "file", name+".csv", "sha256", export.Hash(data))
	return nil
}
