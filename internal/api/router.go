package api

import (
	"fmt"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/sweetshop/sweets-api/docs"
	"github.com/sweetshop/sweets-api/internal/api/handler"
	"github.com/sweetshop/sweets-api/internal/api/middleware"
	"github.com/sweetshop/sweets-api/internal/core/ports"
)

const metricsSubsystem = "sweetshop"

// Deps carries everything the router wires into handlers.
type Deps struct {
	Logger          zerolog.Logger
	AuthService     ports.AuthService
	CatalogService  ports.CatalogService
	Tokens          middleware.TokenVerifier
	ReadinessChecks []handler.DependencyCheck

	AllowedOrigins []string
	MaxUploadMB    int

	// Registry receives the HTTP metrics. Nil means the default registry.
	Registry *prometheus.Registry
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(d.Logger)

	var (
		registerer prometheus.Registerer = prometheus.DefaultRegisterer
		gatherer   prometheus.Gatherer   = prometheus.DefaultGatherer
	)
	if d.Registry != nil {
		registerer, gatherer = d.Registry, d.Registry
	}

	// --- Global middleware ---
	e.Pre(echomiddleware.RemoveTrailingSlash())
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(middleware.RequestLogger(d.Logger))
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins: d.AllowedOrigins,
		AllowHeaders: []string{
			echo.HeaderOrigin,
			echo.HeaderContentType,
			echo.HeaderAccept,
			echo.HeaderAuthorization,
			"Idempotency-Key",
		},
	}))
	if d.MaxUploadMB > 0 {
		e.Use(echomiddleware.BodyLimit(fmt.Sprintf("%dM", d.MaxUploadMB)))
	}
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Subsystem:  metricsSubsystem,
		Registerer: registerer,
	}))

	authMW := middleware.Auth(d.Tokens)
	adminMW := middleware.RequireAdmin()

	// --- Operational endpoints (no auth required) ---
	healthHandler := handler.NewHealthHandler()
	readinessHandler := handler.NewReadinessHandler(d.ReadinessChecks...)

	e.GET("/health", healthHandler.Liveness)           // liveness  – is the process alive?
	e.GET("/health/ready", readinessHandler.Readiness) // readiness – are dependencies up?
	e.GET("/metrics", echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{Gatherer: gatherer}))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	api := e.Group("/api")

	// --- Auth routes ---
	authHandler := handler.NewAuthHandler(d.AuthService)
	auth := api.Group("/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)
	auth.GET("/me", authHandler.Me, authMW)

	// --- Catalog routes ---
	sweetHandler := handler.NewSweetHandler(d.CatalogService)
	sweets := api.Group("/sweets")
	sweets.GET("", sweetHandler.List)
	sweets.GET("/home", sweetHandler.ListHomepage)
	sweets.GET("/search", sweetHandler.Search, authMW)
	sweets.POST("", sweetHandler.Create, authMW)
	sweets.PUT("/:id", sweetHandler.Update, authMW)
	sweets.DELETE("/:id", sweetHandler.Delete, authMW, adminMW)
	sweets.POST("/:id/purchase", sweetHandler.Purchase, authMW)
	sweets.POST("/:id/restock", sweetHandler.Restock, authMW, adminMW)

	return e
}
