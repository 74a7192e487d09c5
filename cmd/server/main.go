// Package main is the entry point for the mercator API server.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"mercator/internal/config"
	"mercator/internal/domain/catalogs/item"
	"mercator/internal/domain/catalogs/location"
	"mercator/internal/domain/issuing"
	"mercator/internal/domain/pricing"
	"mercator/internal/domain/receiving"
	"mercator/internal/domain/stock"
	v1 "mercator/internal/infrastructure/http/v1"
	"mercator/internal/infrastructure/storage/postgres"
	"mercator/internal/infrastructure/storage/postgres/catalog_repo"
	"mercator/internal/infrastructure/storage/postgres/document_repo"
	"mercator/internal/infrastructure/storage/postgres/pricing_repo"
	"mercator/internal/infrastructure/storage/postgres/stock_repo"
	"mercator/pkg/logger"
	"mercator/pkg/numerator"
)

func main() {
	configPath := flag.String("config", "config/example.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Printf("failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{
		Level:       cfg.Log.Level,
		Development: cfg.App.Env == "development",
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	log.Info("starting mercator server")

	if cfg.Migrations.Auto {
		if err := runMigrations(cfg.Postgres.DSN, cfg.Migrations.Dir); err != nil {
			log.Fatalw("migrations failed", "error", err)
		}
		log.Info("migrations applied")
	}

	poolCfg := postgres.DefaultPoolConfig(cfg.Postgres.DSN)
	poolCfg.MaxConns = cfg.Postgres.MaxConns
	poolCfg.MinConns = cfg.Postgres.MinConns

	pool, err := postgres.NewPool(ctx, poolCfg)
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()
	log.Info("database connection established")

	txManager := postgres.NewTxManager(pool)

	// --- Repositories ---
	itemRepo := catalog_repo.NewItemRepo(txManager)
	locationRepo := catalog_repo.NewLocationRepo(txManager)
	stockRepo := stock_repo.NewStockRepo(txManager)
	pricingRepo := pricing_repo.NewPricingRepo(txManager)
	receiptRepo := document_repo.NewGoodsReceiptRepo(txManager)
	issueRepo := document_repo.NewStockIssueRepo(txManager)

	// --- Services ---
	// Resolving the querier through the transaction manager lets number
	// allocation roll back together with a failed document create.
	numeratorService := numerator.NewContextual(func(ctx context.Context) numerator.Querier {
		return txManager.GetQuerier(ctx)
	})

	itemService := item.NewService(itemRepo, txManager, numeratorService)
	locationService := location.NewService(locationRepo, txManager, numeratorService)
	stockService := stock.NewService(stockRepo, txManager)

	resolver := pricing.NewResolver(pricingRepo, itemService)
	pricingService := pricing.NewService(pricingRepo, resolver, itemService, txManager)

	receiptService := receiving.NewService(receiptRepo, stockService, txManager, numeratorService)
	issueService := issuing.NewService(issueRepo, stockService, itemService, txManager, numeratorService)

	// --- Router ---
	router := v1.NewRouter(v1.RouterConfig{
		Logger: log,
		Pool:   pool,

		ItemService:     itemService,
		LocationService: locationService,
		StockService:    stockService,
		PricingService:  pricingService,
		ReceiptService:  receiptService,
		IssueService:    issueService,
	})

	server := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Infow("server starting", "addr", cfg.HTTP.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalw("server failed", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalw("server forced to shutdown", "error", err)
	}

	log.Info("server stopped")
}

func runMigrations(dsn, dir string) error {
	sqlDB, err := goose.OpenDBWithDriver("pgx", dsn)
	if err != nil {
		return err
	}
	defer func() { _ = sqlDB.Close() }()
	return goose.Up(sqlDB, dir)
}
