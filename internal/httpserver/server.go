package httpserver

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/subculture-collective/hooksink/internal/config"
	"github.com/subculture-collective/hooksink/internal/dispatch"
	"github.com/subculture-collective/hooksink/internal/handlers"
	"github.com/subculture-collective/hooksink/internal/ledger"
	"github.com/subculture-collective/hooksink/internal/metrics"
	"github.com/subculture-collective/hooksink/internal/middleware"
	"github.com/subculture-collective/hooksink/internal/signature"
)

// NewRouter wires public endpoints and the authenticated delivery endpoint.
// Public: /, /health, /metrics
// Signed: /webhook
func NewRouter(
	cfg config.Config,
	led ledger.Ledger,
	disp *dispatch.Dispatcher,
	verifier *signature.Verifier,
	logger *zap.Logger,
) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery())

	startTime := time.Now()

	// Liveness plus the ledger's current footprint. No auth required.
	r.GET("/health", func(c *gin.Context) {
		size, err := led.Size(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "error": err.Error()})
			return
		}
		metrics.LedgerSize.Set(float64(size))
		c.JSON(http.StatusOK, gin.H{
			"status":         "ok",
			"ledger_size":    size,
			"uptime_seconds": int64(time.Since(startTime).Seconds()),
		})
	})

	// Service info for humans pointing a sender at the receiver.
	r.GET("/", func(c *gin.Context) {
		size, _ := led.Size(c.Request.Context())
		c.JSON(http.StatusOK, gin.H{
			"service": "hooksink webhook receiver",
			"endpoints": gin.H{
				"webhook": "POST /webhook",
				"health":  "GET /health",
				"metrics": "GET /metrics",
			},
			"processed_deliveries": size,
		})
	})

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	hook := r.Group("/")
	if cfg.RateLimitRPS > 0 {
		hook.Use(middleware.RateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst))
	}
	handlers.RegisterWebhookRoutes(hook, &handlers.Webhook{
		Verifier:   verifier,
		Ledger:     led,
		Dispatcher: disp,
		Logger:     logger,
	})

	return r
}
