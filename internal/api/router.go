package api

import (
	"time"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/boxtrail/transfer-system/internal/api/handler"
	"github.com/boxtrail/transfer-system/internal/api/middleware"
	"github.com/boxtrail/transfer-system/internal/core/domain"
	"github.com/boxtrail/transfer-system/internal/core/service"
	mongodb "github.com/boxtrail/transfer-system/internal/infrastructure/db/mongo"
)

// Deps carries everything the router needs to assemble the service graph.
type Deps struct {
	DB        *mongo.Database
	Redis     *redis.Client
	JWTSecret string
	Audit     service.TransitionSink
	Logger    zerolog.Logger
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(deps Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(deps.Logger)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echomiddleware.Logger())
	e.Use(echoprometheus.NewMiddleware("transfer"))

	// --- Dependencies ---
	authRepo := mongodb.NewAuthRepository(deps.DB)
	authService := service.NewAuthService(authRepo, deps.JWTSecret, 24*time.Hour)
	authHandler := handler.NewAuthHandler(authService)

	shipmentService := service.NewShipmentService(
		mongodb.NewShipmentRepository(deps.DB),
		mongodb.NewBoxRepository(deps.DB),
		mongodb.NewBaseRepository(deps.DB),
		mongodb.NewAgreementRepository(deps.DB),
		mongodb.NewCatalogRepository(deps.DB),
		deps.Audit,
		deps.Logger,
	)
	shipmentHandler := handler.NewShipmentHandler(shipmentService)

	// --- Auth routes ---
	e.POST("/auth/register", authHandler.Register)
	e.POST("/auth/login", authHandler.Login)

	// --- Health probes and metrics (no auth required) ---
	healthHandler := handler.NewHealthHandler()
	readinessHandler := handler.NewReadinessHandler(deps.DB, deps.Redis)

	e.GET("/health", healthHandler.Liveness)        // liveness  – is the process alive?
	e.GET("/health/ready", readinessHandler.Readiness) // readiness – are dependencies up?
	e.GET("/metrics", echoprometheus.NewHandler())

	// --- Shipment routes ---
	v1 := e.Group("/v1", middleware.Auth(deps.JWTSecret), middleware.RBAC(domain.RoleAdmin, domain.RoleMember))
	v1.POST("/shipments", shipmentHandler.Create)
	v1.GET("/shipments", shipmentHandler.List)
	v1.GET("/shipments/:label", shipmentHandler.Get)
	v1.PATCH("/shipments/:label/boxes", shipmentHandler.UpdateBoxes)
	v1.POST("/shipments/:label/send", shipmentHandler.Send)
	v1.POST("/shipments/:label/cancel", shipmentHandler.Cancel)
	v1.POST("/shipments/:label/lost", shipmentHandler.MarkLost)
	v1.POST("/shipments/:label/receive", shipmentHandler.StartReceiving)
	v1.POST("/shipments/:label/reconcile", shipmentHandler.Reconcile)

	return e
}
