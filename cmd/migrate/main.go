// Command migrate applies the database schema. It is idempotent and safe
// to run on every deploy, before the server starts.
package main

import (
	"go.uber.org/zap"

	"github.com/partsdesk/backend/internal/domain/order"
	"github.com/partsdesk/backend/internal/domain/quote"
	"github.com/partsdesk/backend/internal/infrastructure/config"
	"github.com/partsdesk/backend/internal/infrastructure/logger"
	"github.com/partsdesk/backend/internal/infrastructure/persistence"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	log, err := logger.NewForEnvironment(cfg.App.Env)
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = log.Sync()
	}()

	db, err := persistence.NewDatabase(&cfg.Database)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()

	log.Info("Running migrations", zap.String("database", cfg.Database.DBName))

	if err := db.DB.AutoMigrate(
		&order.Order{},
		&order.Item{},
		&quote.Quote{},
		&quote.Item{},
	); err != nil {
		log.Fatal("Migration failed", zap.Error(err))
	}

	log.Info("Migrations applied")
}
