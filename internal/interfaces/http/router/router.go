// Package router assembles the HTTP API surface: middleware chain, public
// storefront routes, and authenticated back-office routes.
package router

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/partsdesk/backend/internal/infrastructure/auth"
	"github.com/partsdesk/backend/internal/infrastructure/cache"
	"github.com/partsdesk/backend/internal/infrastructure/config"
	"github.com/partsdesk/backend/internal/infrastructure/logger"
	"github.com/partsdesk/backend/internal/interfaces/http/handler"
	"github.com/partsdesk/backend/internal/interfaces/http/middleware"
)

const maxRequestBody = 1 << 20 // 1 MiB

// Handlers bundles everything the router mounts
type Handlers struct {
	System   *handler.SystemHandler
	Orders   *handler.OrderHandler
	Quotes   *handler.QuoteHandler
	Checkout *handler.CheckoutHandler
}

// Options carries the router's cross-cutting dependencies
type Options struct {
	Config     *config.Config
	Logger     *zap.Logger
	JWTService *auth.JWTService
	Cache      cache.Store
}

// New builds the gin engine with the full middleware chain and route table
func New(h Handlers, opts Options) *gin.Engine {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	if opts.Config != nil && opts.Config.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(middleware.RequestID())
	engine.Use(logger.GinMiddleware(log))
	engine.Use(logger.Recovery(log))
	engine.Use(middleware.Secure())
	engine.Use(middleware.CORSWithConfig(corsConfig(opts.Config)))
	engine.Use(middleware.BodyLimit(maxRequestBody))

	if opts.Config != nil && opts.Config.HTTP.RateLimitEnabled && opts.Cache != nil {
		window := opts.Config.HTTP.RateLimitWindow
		if window <= 0 {
			window = time.Minute
		}
		limiter := middleware.NewRateLimiter(opts.Cache, opts.Config.HTTP.RateLimitRequests, window, log)
		engine.Use(middleware.RateLimit(limiter))
	}

	if opts.Config != nil && len(opts.Config.HTTP.TrustedProxies) > 0 {
		_ = engine.SetTrustedProxies(opts.Config.HTTP.TrustedProxies)
	}

	api := engine.Group("/api/v1")

	// Probes
	api.GET("/health", h.System.Health)
	api.GET("/ready", h.System.Ready)

	// Public storefront surface. Order capture takes an optional token so a
	// signed-in salesperson gets attributed without blocking guest checkout.
	api.POST("/quotes", h.Quotes.Create)
	api.GET("/track", h.Orders.Track)
	api.POST("/shipping/rates", h.Checkout.Rates)
	api.POST("/payments/authorize", h.Checkout.Authorize)
	api.POST("/orders", middleware.OptionalAuthenticate(opts.JWTService), h.Orders.Create)

	// Authenticated surface
	authed := api.Group("")
	authed.Use(middleware.Authenticate(opts.JWTService, log))
	{
		authed.GET("/orders", h.Orders.List)
		authed.GET("/orders/:id", h.Orders.Get)

		staff := authed.Group("")
		staff.Use(middleware.RequireRoles(auth.RoleSuperAdmin, auth.RoleSalesperson))
		{
			staff.PATCH("/orders/:id", h.Orders.Update)
			staff.POST("/orders/:id/sync/:target", h.Orders.Sync)
			staff.GET("/quotes", h.Quotes.List)
			staff.GET("/quotes/:id", h.Quotes.Get)
			staff.PATCH("/quotes/:id", h.Quotes.Update)
			staff.POST("/quotes/:id/sync/:target", h.Quotes.Sync)
		}
	}

	return engine
}

func corsConfig(cfg *config.Config) middleware.CORSConfig {
	corsCfg := middleware.DefaultCORSConfig()
	if cfg == nil {
		return corsCfg
	}
	if len(cfg.HTTP.CORSAllowOrigins) > 0 {
		corsCfg.AllowOrigins = cfg.HTTP.CORSAllowOrigins
	}
	if len(cfg.HTTP.CORSAllowMethods) > 0 {
		corsCfg.AllowMethods = cfg.HTTP.CORSAllowMethods
	}
	if len(cfg.HTTP.CORSAllowHeaders) > 0 {
		corsCfg.AllowHeaders = cfg.HTTP.CORSAllowHeaders
	}
	return corsCfg
}
