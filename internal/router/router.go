package router

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"github.com/medboard/bedside-api/internal/middleware"
	"github.com/medboard/bedside-api/pkg/logger"
)

type Handler interface {
	RegisterRoutes(*gin.RouterGroup)
}

type Config struct {
	RateLimit rate.Limit
	RateBurst int
	CORS      middleware.CORSConfig
	Logger    *logger.Logger
}

type Router struct {
	engine  *gin.Engine
	auth    *middleware.AuthMiddleware
	config  Config
	metrics *routerMetrics
}

type routerMetrics struct {
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
}

func newRouterMetrics() *routerMetrics {
	m := &routerMetrics{
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "bedside_http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path", "status"}),
		requestTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bedside_http_requests_total",
			Help: "HTTP requests handled",
		}, []string{"method", "path", "status"}),
	}
	prometheus.MustRegister(m.requestDuration, m.requestTotal)
	return m
}

func NewRouter(auth *middleware.AuthMiddleware, config Config) *Router {
	return &Router{
		engine:  gin.New(),
		auth:    auth,
		config:  config,
		metrics: newRouterMetrics(),
	}
}

func (r *Router) Engine() *gin.Engine {
	return r.engine
}

// Setup wires middleware and registers handlers. Public carries only
// health and metrics; everything else requires a staff token.
func (r *Router) Setup(public []Handler, protected []Handler) {
	r.engine.Use(gin.Recovery())
	r.engine.Use(middleware.RequestID())
	r.engine.Use(middleware.CORS(r.config.CORS))
	r.engine.Use(r.observe())

	limiter := middleware.NewRateLimiter(middleware.RateLimiterConfig{
		Rate:  r.config.RateLimit,
		Burst: r.config.RateBurst,
	})
	r.engine.Use(limiter.RateLimit())

	r.engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	publicGroup := r.engine.Group("/")
	for _, h := range public {
		h.RegisterRoutes(publicGroup)
	}

	api := r.engine.Group("/api/v1")
	api.Use(r.auth.Authenticate())
	for _, h := range protected {
		h.RegisterRoutes(api)
	}
}

func (r *Router) observe() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := strconv.Itoa(c.Writer.Status())
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		r.metrics.requestDuration.WithLabelValues(c.Request.Method, path, status).Observe(time.Since(start).Seconds())
		r.metrics.requestTotal.WithLabelValues(c.Request.Method, path, status).Inc()

		if r.config.Logger != nil {
			r.config.Logger.Info("http request",
				"method", c.Request.Method,
				"path", path,
				"status", status,
				"duration_ms", time.Since(start).Milliseconds(),
				"request_id", middleware.RequestIDFromContext(c),
			)
		}
	}
}
