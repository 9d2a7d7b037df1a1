package main

import (
	"context"
	"log"
	"net/http"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"pharmacare/internal/analytics"
	"pharmacare/internal/api"
	"pharmacare/internal/config"
	"pharmacare/internal/database"
	"pharmacare/internal/inventory"
	"pharmacare/internal/kv"
	"pharmacare/internal/metrics"
	"pharmacare/internal/migrations"
	"pharmacare/internal/pos"
	"pharmacare/internal/seed"
	"pharmacare/internal/session"
	"pharmacare/internal/store"
	"pharmacare/internal/users"
)

func main() {
	_ = godotenv.Load()

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("logger init failed: %v", err)
	}
	defer logger.Sync()

	cfg := config.Load()
	db := database.Connect(cfg.DatabaseDSN)
	defer db.Close()

	migrations.Run(db)

	userStore := store.NewUserStore(db)
	categoryStore := store.NewCategoryStore(db)
	medicineStore := store.NewMedicineStore(db)
	saleStore := store.NewSaleStore(db)

	ctx := context.Background()
	if err := seed.Run(ctx, userStore, categoryStore, medicineStore); err != nil {
		logger.Fatal("seed failed", zap.Error(err))
	}
	if cfg.CatalogCSV != "" {
		seed.LoadCatalog(ctx, medicineStore, cfg.CatalogCSV)
	}

	sessions := session.NewStore(userStore, kv.NewFileStore(cfg.SessionFile), logger)
	<-sessions.Ready()

	m, registry := metrics.New()
	handler := api.New(
		sessions,
		inventory.NewService(medicineStore),
		pos.NewService(saleStore),
		analytics.NewService(medicineStore, saleStore),
		users.NewService(userStore),
		categoryStore,
		m,
		registry,
		cfg.Secret,
		logger,
	)

	logger.Info("PharmaCare server starting", zap.String("port", cfg.HTTPPort))
	if err := http.ListenAndServe(":"+cfg.HTTPPort, handler.Router()); err != nil {
		logger.Fatal("server error", zap.Error(err))
	}
}
