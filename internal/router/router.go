package router

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/jwalitptl/clinic-core/internal/middleware"
	"github.com/jwalitptl/clinic-core/pkg/metrics"
)

type Handler interface {
	RegisterRoutes(*gin.RouterGroup)
}

type RouterConfig struct {
	RateLimit rate.Limit
	RateBurst int

	// Gatherer serves /metrics. Nil disables the route.
	Gatherer prometheus.Gatherer
	Metrics  *metrics.Metrics
	Logger   zerolog.Logger
}

type Router struct {
	engine    *gin.Engine
	auth      *middleware.AuthMiddleware
	health    Handler
	public    []Handler
	protected []Handler
	gatherer  prometheus.Gatherer
	limiter   *middleware.RateLimiter
}

// NewRouter wires the middleware chain. public handlers are served without a
// token, protected ones behind auth.
func NewRouter(auth *middleware.AuthMiddleware, health Handler, public, protected []Handler, config RouterConfig) *Router {
	gin.SetMode(gin.ReleaseMode)

	engine := gin.New()

	engine.Use(
		middleware.RequestID(config.Logger),
		middleware.Recovery(config.Logger),
		middleware.Logger(config.Logger),
		middleware.Metrics(config.Metrics),
	)

	var limiter *middleware.RateLimiter
	if config.RateLimit > 0 {
		limiter = middleware.NewRateLimiter(middleware.RateLimiterConfig{
			Rate:  config.RateLimit,
			Burst: config.RateBurst,
		})
	}

	return &Router{
		engine:    engine,
		auth:      auth,
		health:    health,
		public:    public,
		protected: protected,
		gatherer:  config.Gatherer,
		limiter:   limiter,
	}
}

func (r *Router) Setup() {
	root := r.engine.Group("")
	if r.health != nil {
		r.health.RegisterRoutes(root)
	}
	if r.gatherer != nil {
		r.engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(r.gatherer, promhttp.HandlerOpts{})))
	}

	api := r.engine.Group("/api/v1")
	api.Use(func(c *gin.Context) {
		c.Header("X-API-Version", "1.0")
		c.Next()
	})

	// Public routes are limited per client address, protected ones per
	// physician once the token has been checked.
	public := api.Group("")
	if r.limiter != nil {
		public.Use(r.limiter.RateLimit())
	}
	for _, h := range r.public {
		h.RegisterRoutes(public)
	}

	protected := api.Group("")
	if r.auth != nil {
		protected.Use(r.auth.Authenticate())
	}
	if r.limiter != nil {
		protected.Use(r.limiter.RateLimit())
	}
	for _, h := range r.protected {
		h.RegisterRoutes(protected)
	}
}

func (r *Router) Engine() *gin.Engine {
	return r.engine
}
