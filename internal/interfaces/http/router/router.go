package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/retaildesk/backend/internal/infrastructure/logger"
	"github.com/retaildesk/backend/internal/infrastructure/telemetry"
	"github.com/retaildesk/backend/internal/interfaces/http/dto"
	"github.com/retaildesk/backend/internal/interfaces/http/handler"
	"github.com/retaildesk/backend/internal/interfaces/http/middleware"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"
)

// RouteRegistrar defines the interface for registering routes
type RouteRegistrar interface {
	RegisterRoutes(rg *gin.RouterGroup)
}

// Router manages HTTP route registration
type Router struct {
	engine     *gin.Engine
	apiVersion string
	registrars []RouteRegistrar
}

// RouterOption is a functional option for Router configuration
type RouterOption func(*Router)

// WithAPIVersion sets the API version prefix (e.g., "v1", "v2")
func WithAPIVersion(version string) RouterOption {
	return func(r *Router) {
		r.apiVersion = version
	}
}

// NewRouter creates a new Router instance
func NewRouter(engine *gin.Engine, opts ...RouterOption) *Router {
	r := &Router{
		engine:     engine,
		apiVersion: "v1",
		registrars: make([]RouteRegistrar, 0),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register adds a RouteRegistrar to be registered later
func (r *Router) Register(registrar RouteRegistrar) *Router {
	r.registrars = append(r.registrars, registrar)
	return r
}

// Setup registers all routes under /api/<version>
func (r *Router) Setup() {
	api := r.engine.Group("/api/" + r.apiVersion)
	for _, registrar := range r.registrars {
		registrar.RegisterRoutes(api)
	}
}

// EngineConfig configures the gin engine and its middleware chain
type EngineConfig struct {
	Logger           *zap.Logger
	ServiceName      string
	CORSAllowOrigins []string
	MeterProvider    *telemetry.MeterProvider
	MetricsEnabled   bool
}

// NewEngine builds a gin engine with the standard middleware chain:
// recovery, request id, request logging, tracing, CORS, metrics.
func NewEngine(cfg EngineConfig) *gin.Engine {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	middleware.SetupValidator()

	engine := gin.New()
	engine.Use(
		logger.Recovery(log),
		middleware.RequestID(),
		logger.GinMiddleware(log),
		otelgin.Middleware(cfg.ServiceName),
		middleware.Secure(),
		middleware.CORS(cfg.CORSAllowOrigins...),
		middleware.HTTPMetrics(middleware.HTTPMetricsConfig{
			MeterProvider: cfg.MeterProvider,
			Enabled:       cfg.MetricsEnabled,
			Logger:        log,
		}),
	)
	engine.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, dto.NewErrorResponseWithRequestID(
			dto.ErrCodeNotFound, "Route not found", middleware.GetRequestID(c)))
	})
	return engine
}

// Handlers are the HTTP handlers the console exposes
type Handlers struct {
	Sales   *handler.SalesOrderHandler
	Reports *handler.ReportHandler
	System  *handler.SystemHandler
}

// Setup registers /health and the versioned API on engine
func Setup(engine *gin.Engine, h Handlers) {
	engine.GET("/health", h.System.Health)

	products := NewDomainGroup("products", "/products").
		GET("/available", h.Sales.AvailableProducts)

	sales := NewDomainGroup("sales", "/sales").
		GET("", h.Sales.List).
		POST("", h.Sales.Create).
		GET("/:id", h.Sales.Get).
		PUT("/:id", h.Sales.Update).
		PATCH("/:id/status", h.Sales.Transition).
		DELETE("/:id", h.Sales.Delete)
	sales.Group("statistics", "/statistics").
		GET("", h.Reports.GetDashboard).
		GET("/chart", h.Reports.GetChart)

	NewRouter(engine).
		Register(products).
		Register(sales).
		Setup()
}
