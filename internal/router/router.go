package router

import (
	"time"

	"github.com/gin-gonic/gin"

	pkgauth "github.com/orientmedical/diagnostics-api/pkg/auth"
	"github.com/orientmedical/diagnostics-api/pkg/logger"
	"github.com/orientmedical/diagnostics-api/pkg/metrics"

	"github.com/orientmedical/diagnostics-api/internal/handler"
	"github.com/orientmedical/diagnostics-api/internal/middleware"
)

// Handler is anything that mounts routes on the authenticated API group.
type Handler interface {
	RegisterRoutes(*gin.RouterGroup)
}

// PublicHandler additionally mounts routes that carry no token.
type PublicHandler interface {
	Handler
	RegisterPublicRoutes(*gin.RouterGroup)
}

type Config struct {
	RateLimitRPS   float64
	RateLimitBurst int
	Timeout        time.Duration
	CORS           middleware.CORSConfig
}

type Router struct {
	engine   *gin.Engine
	tokens   *pkgauth.JWTManager
	authH    PublicHandler
	handlers []Handler
	ops      *handler.Handler
}

func New(
	tokens *pkgauth.JWTManager,
	log *logger.Logger,
	m *metrics.Metrics,
	cfg Config,
	authH PublicHandler,
	handlers ...Handler,
) *Router {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	middleware.RegisterValidations()

	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}

	engine.Use(
		gin.Recovery(),
		middleware.RequestID(),
		middleware.Logger(log),
		middleware.ErrorHandler(log),
		middleware.Metrics(m),
		middleware.Timeout(cfg.Timeout),
		middleware.CORS(cfg.CORS),
	)
	if cfg.RateLimitRPS > 0 {
		engine.Use(middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst).Middleware())
	}

	return &Router{
		engine:   engine,
		tokens:   tokens,
		authH:    authH,
		handlers: handlers,
		ops:      handler.NewHandler(),
	}
}

// Setup mounts all routes. Everything under /api/v1 except login and
// refresh requires a valid access token; per-route permission checks
// live with the handlers that own the routes.
func (r *Router) Setup() {
	r.engine.GET("/health/live", r.ops.LivenessCheck)
	r.engine.GET("/health/ready", r.ops.ReadinessCheck)
	r.engine.GET("/metrics", r.ops.MetricsHandler)

	api := r.engine.Group("/api/v1")
	r.authH.RegisterPublicRoutes(api)

	authed := api.Group("")
	authed.Use(middleware.Authenticate(r.tokens))

	r.authH.RegisterRoutes(authed)
	for _, h := range r.handlers {
		h.RegisterRoutes(authed)
	}
}

func (r *Router) Engine() *gin.Engine {
	return r.engine
}
