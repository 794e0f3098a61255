package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/partsdesk/backend/internal/application/checkout"
	orderapp "github.com/partsdesk/backend/internal/application/order"
	quoteapp "github.com/partsdesk/backend/internal/application/quote"
	"github.com/partsdesk/backend/internal/infrastructure/accounting"
	"github.com/partsdesk/backend/internal/infrastructure/auth"
	"github.com/partsdesk/backend/internal/infrastructure/cache"
	"github.com/partsdesk/backend/internal/infrastructure/catalog"
	"github.com/partsdesk/backend/internal/infrastructure/config"
	"github.com/partsdesk/backend/internal/infrastructure/crm"
	"github.com/partsdesk/backend/internal/infrastructure/logger"
	"github.com/partsdesk/backend/internal/infrastructure/notification"
	"github.com/partsdesk/backend/internal/infrastructure/payment"
	"github.com/partsdesk/backend/internal/infrastructure/persistence"
	"github.com/partsdesk/backend/internal/infrastructure/shipping"
	"github.com/partsdesk/backend/internal/infrastructure/tasks"
	"github.com/partsdesk/backend/internal/interfaces/http/handler"
	"github.com/partsdesk/backend/internal/interfaces/http/router"
)

const version = "1.0.0"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = log.Sync()
	}()

	log.Info("Starting PartsDesk backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("version", version),
	)

	db, err := persistence.NewDatabase(&cfg.Database)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	db.DB.Logger = logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level))
	log.Info("Database connected")

	store := newCacheStore(cfg, log)
	defer closeCacheStore(store, log)

	orderRepo := persistence.NewGormOrderRepository(db.DB)
	quoteRepo := persistence.NewGormQuoteRepository(db.DB)

	lookup, err := catalog.NewStaticPriceLookup(cfg.Catalog)
	if err != nil {
		log.Fatal("Failed to load product catalog", zap.Error(err))
	}

	rates, err := shipping.NewResolver(shippingConfig(cfg), log)
	if err != nil {
		log.Fatal("Failed to configure shipping rates", zap.Error(err))
	}

	var payments payment.Authorizer
	if cfg.Stripe.SecretKey != "" {
		adapter, err := payment.NewStripeAdapter(&payment.StripeConfig{
			SecretKey:         cfg.Stripe.SecretKey,
			IsTestMode:        cfg.Stripe.IsTestMode,
			AllowedCurrencies: cfg.Stripe.AllowedCurrencies,
			MaxNetworkRetries: int64(cfg.Stripe.MaxNetworkRetries),
		}, log)
		if err != nil {
			log.Fatal("Failed to configure payments", zap.Error(err))
		}
		payments = adapter
		log.Info("Card payments enabled", zap.Bool("test_mode", cfg.Stripe.IsTestMode))
	} else {
		log.Warn("Stripe secret key not set, card payments disabled")
	}

	var crmLedger orderapp.Ledger
	if cfg.CRM.Enabled {
		adapter, err := crm.NewZohoAdapter(zohoConfig(cfg))
		if err != nil {
			log.Fatal("Failed to configure CRM ledger", zap.Error(err))
		}
		crmLedger = adapter
		log.Info("CRM ledger enabled")
	}

	var accountingLedger orderapp.Ledger
	if cfg.Accounting.Enabled {
		adapter, err := accounting.NewQuickBooksAdapter(quickbooksConfig(cfg), store)
		if err != nil {
			log.Fatal("Failed to configure accounting ledger", zap.Error(err))
		}
		accountingLedger = adapter
		log.Info("Accounting ledger enabled")
	}

	var mailer orderapp.Sender
	if cfg.Email.Enabled {
		m, err := notification.NewMailer(&notification.Config{
			Host:       cfg.Email.Host,
			Port:       cfg.Email.Port,
			Username:   cfg.Email.Username,
			Password:   cfg.Email.Password,
			From:       cfg.Email.From,
			OpsMailbox: cfg.Email.OpsMailbox,
		})
		if err != nil {
			log.Fatal("Failed to configure mailer", zap.Error(err))
		}
		mailer = m
		log.Info("Email notifications enabled")
	}

	dispatcher := tasks.NewDispatcher(tasks.Config{
		Workers:     cfg.Dispatcher.Workers,
		QueueSize:   cfg.Dispatcher.QueueSize,
		TaskTimeout: cfg.Dispatcher.TaskTimeout,
	}, log)
	defer dispatcher.Close()

	pricing := checkout.NewPricingService(lookup, rates, cfg.Checkout.MaxManualChargeCents, log)
	syncService := orderapp.NewSyncService(orderRepo, quoteRepo, crmLedger, accountingLedger, log)
	orderService := orderapp.NewService(orderRepo, pricing, syncService, dispatcher, mailer, log)
	quoteService := quoteapp.NewService(quoteRepo, syncService, dispatcher, mailer, log)

	jwtService := auth.NewJWTService(cfg.JWT)

	engine := router.New(router.Handlers{
		System:   handler.NewSystemHandler(db, version),
		Orders:   handler.NewOrderHandler(orderService),
		Quotes:   handler.NewQuoteHandler(quoteService),
		Checkout: handler.NewCheckoutHandler(pricing, lookup, rates, payments, defaultCurrency(cfg), log),
	}, router.Options{
		Config:     cfg,
		Logger:     log,
		JWTService: jwtService,
		Cache:      store,
	})

	server := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Info("HTTP server listening", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("Shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Forced server shutdown", zap.Error(err))
	}

	log.Info("Server stopped")
}

func newCacheStore(cfg *config.Config, log *zap.Logger) cache.Store {
	if !cfg.Redis.Enabled {
		return cache.NewMemoryStore()
	}
	store, err := cache.NewRedisStore(cache.RedisConfig{
		Host:     cfg.Redis.Host,
		Port:     cfg.Redis.Port,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	}, "")
	if err != nil {
		log.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	log.Info("Redis cache connected", zap.String("host", cfg.Redis.Host))
	return store
}

func closeCacheStore(store cache.Store, log *zap.Logger) {
	type closer interface{ Close() error }
	if c, ok := store.(closer); ok {
		if err := c.Close(); err != nil {
			log.Error("Error closing cache store", zap.Error(err))
		}
	}
}

func shippingConfig(cfg *config.Config) *shipping.Config {
	sc := shipping.DefaultConfig()
	sc.APIToken = cfg.Shipping.APIToken
	if cfg.Shipping.BaseURL != "" {
		sc.BaseURL = cfg.Shipping.BaseURL
	}
	if cfg.Shipping.TimeoutSeconds > 0 {
		sc.TimeoutSeconds = cfg.Shipping.TimeoutSeconds
	}
	if weight, err := decimal.NewFromString(cfg.Shipping.DefaultWeightOz); err == nil && weight.IsPositive() {
		sc.DefaultWeightOz = weight
	}
	sc.Origin = shipping.OriginAddress{
		Name:    cfg.Shipping.OriginName,
		Street1: cfg.Shipping.OriginStreet,
		City:    cfg.Shipping.OriginCity,
		State:   cfg.Shipping.OriginState,
		Zip:     cfg.Shipping.OriginZip,
		Country: cfg.Shipping.OriginCountry,
	}
	return sc
}

func zohoConfig(cfg *config.Config) *crm.ZohoConfig {
	zc := crm.NewZohoConfig(cfg.CRM.AccessToken)
	if cfg.CRM.APIBaseURL != "" {
		zc.APIBaseURL = cfg.CRM.APIBaseURL
	}
	if cfg.CRM.SalesOrderModule != "" {
		zc.SalesOrderModule = cfg.CRM.SalesOrderModule
	}
	if cfg.CRM.LeadModule != "" {
		zc.LeadModule = cfg.CRM.LeadModule
	}
	if cfg.CRM.TimeoutSeconds > 0 {
		zc.TimeoutSeconds = cfg.CRM.TimeoutSeconds
	}
	return zc
}

func quickbooksConfig(cfg *config.Config) *accounting.QuickBooksConfig {
	qc := accounting.NewQuickBooksConfig(
		cfg.Accounting.ClientID,
		cfg.Accounting.ClientSecret,
		cfg.Accounting.RefreshToken,
		cfg.Accounting.RealmID,
	)
	qc.IsSandbox = cfg.Accounting.IsSandbox
	if cfg.Accounting.APIBaseURL != "" {
		qc.APIBaseURL = cfg.Accounting.APIBaseURL
	}
	if cfg.Accounting.TokenURL != "" {
		qc.TokenURL = cfg.Accounting.TokenURL
	}
	if cfg.Accounting.TimeoutSeconds > 0 {
		qc.TimeoutSeconds = cfg.Accounting.TimeoutSeconds
	}
	return qc
}

func defaultCurrency(cfg *config.Config) string {
	for _, c := range cfg.Stripe.AllowedCurrencies {
		return strings.ToUpper(c)
	}
	return "USD"
}
