package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/senyabanana/hay-exchange/internal/db"
	"github.com/senyabanana/hay-exchange/internal/handlers"
	"github.com/senyabanana/hay-exchange/internal/router"
	"github.com/senyabanana/hay-exchange/internal/router/config"
	"github.com/senyabanana/hay-exchange/internal/services"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

func main() {
	cfg, err := config.LoadConfig(".")
	if err != nil {
		log.Fatal("cannot load config:", err)
	}

	database, err := openDatabase(cfg)
	if err != nil {
		log.Fatalf("error initializing database: %v", err)
	}
	defer database.Close()

	logger := log.New(os.Stdout, "INFO: ", log.LstdFlags)

	listingService := services.NewListingService(database)
	negotiationService := services.NewNegotiationService(database)
	purchaseOrderService := services.NewPurchaseOrderService(database)
	deliveryService := services.NewDeliveryService(database)

	routes := router.InitRoutes(router.Handlers{
		Listings:       handlers.NewListingHandler(listingService, negotiationService, purchaseOrderService, logger, cfg.RequestTimeout),
		Negotiations:   handlers.NewNegotiationHandler(negotiationService, logger, cfg.RequestTimeout),
		PurchaseOrders: handlers.NewPurchaseOrderHandler(purchaseOrderService, logger, cfg.RequestTimeout),
		Deliveries:     handlers.NewDeliveryHandler(deliveryService, logger, cfg.RequestTimeout),
	}, cfg.CORSOrigins)

	server := &http.Server{
		Addr:         cfg.ServerAddress,
		Handler:      routes,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("server is listening on %s...", cfg.ServerAddress)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Printf("server forced to shutdown: %v", err)
	}
	log.Println("server stopped")
}

func openDatabase(cfg config.Config) (db.DB, error) {
	if cfg.DBDriver == config.DriverSQLite {
		return db.NewSQLite(cfg.SQLitePath)
	}
	runDBMigration(cfg.MigrationURL, cfg.PostgresConn)
	return db.InitDb(cfg)
}

func runDBMigration(migrationURL string, dbSource string) {
	migration, err := migrate.New(migrationURL, dbSource)
	if err != nil {
		log.Fatal("cannot create a new migrate instance", err)
	}

	if err = migration.Up(); err != nil && err != migrate.ErrNoChange {
		log.Fatal("failed to run migrate up:", err)
	}
	log.Println("db migrated successfully")
}
