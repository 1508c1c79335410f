package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/subculture-collective/hooksink/internal/dispatch"
	"github.com/subculture-collective/hooksink/internal/envelope"
	"github.com/subculture-collective/hooksink/internal/ledger"
	"github.com/subculture-collective/hooksink/internal/metrics"
	"github.com/subculture-collective/hooksink/internal/signature"
)

// Required request headers for POST /webhook.
const (
	HeaderSignature  = "X-Webhook-Signature"
	HeaderEvent      = "X-Webhook-Event"
	HeaderDeliveryID = "X-Webhook-Delivery-ID"
	HeaderReplay     = "X-Webhook-Replay"
)

var requiredHeaders = []string{HeaderSignature, HeaderEvent, HeaderDeliveryID}

// Webhook bundles the receiver pipeline dependencies.
type Webhook struct {
	Verifier   *signature.Verifier
	Ledger     ledger.Ledger
	Dispatcher *dispatch.Dispatcher
	Logger     *zap.Logger
}

// RegisterWebhookRoutes registers the delivery endpoint.
//
// POST /webhook
//   - Authenticated by X-Webhook-Signature (HMAC-SHA256 hex of the raw body)
//   - Idempotent: duplicate X-Webhook-Delivery-ID acknowledges without
//     re-invoking handlers
//
// The pipeline order is a contract: header checks, then signature
// verification on the raw bytes, then parsing, then the ledger. A
// well-signed but malformed body fails with 400, not 401, and nothing
// unverified ever reaches the parser or the ledger.
func RegisterWebhookRoutes(r gin.IRoutes, w *Webhook) {
	r.POST("/webhook", func(c *gin.Context) {
		start := time.Now()

		sig := c.GetHeader(HeaderSignature)
		event := c.GetHeader(HeaderEvent)
		deliveryID := c.GetHeader(HeaderDeliveryID)
		replay := c.GetHeader(HeaderReplay) == "true"

		// Reject before any cryptographic work.
		if sig == "" || event == "" || deliveryID == "" {
			metrics.Deliveries.WithLabelValues("invalid").Inc()
			c.JSON(http.StatusBadRequest, gin.H{
				"error":    "missing required headers",
				"required": requiredHeaders,
			})
			return
		}

		raw, err := c.GetRawData()
		if err != nil {
			metrics.Deliveries.WithLabelValues("invalid").Inc()
			c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable request body"})
			return
		}

		if err := w.Verifier.Verify(raw, sig); err != nil {
			if errors.Is(err, signature.ErrInvalidSignature) {
				metrics.SignatureFailures.Inc()
				metrics.Deliveries.WithLabelValues("unauthorized").Inc()
				w.Logger.Warn("rejected delivery: bad signature",
					zap.String("event", event),
					zap.String("delivery_id", deliveryID),
				)
				c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid signature"})
				return
			}
			metrics.Deliveries.WithLabelValues("error").Inc()
			w.Logger.Error("signature verification fault", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "signature verification error"})
			return
		}

		// Parse only after the signature is accepted, and only the raw
		// bytes that were verified.
		env, err := envelope.Parse(raw)
		if err != nil {
			metrics.Deliveries.WithLabelValues("invalid").Inc()
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		first, err := w.Ledger.CheckAndRecord(c.Request.Context(), deliveryID)
		if err != nil {
			metrics.Deliveries.WithLabelValues("error").Inc()
			w.Logger.Error("ledger unavailable",
				zap.String("delivery_id", deliveryID),
				zap.Error(err),
			)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "delivery ledger unavailable"})
			return
		}
		if !first {
			metrics.Deliveries.WithLabelValues("duplicate").Inc()
			w.Logger.Info("duplicate delivery, skipping",
				zap.String("event", event),
				zap.String("delivery_id", deliveryID),
				zap.Bool("replay", replay),
			)
			c.JSON(http.StatusOK, gin.H{
				"status":      "already_processed",
				"delivery_id": deliveryID,
			})
			return
		}

		// The delivery is recorded: from here the request succeeds no
		// matter what the handler does. Failures stay visible through the
		// dispatcher's log line and metrics.
		outcome := w.Dispatcher.Dispatch(c.Request.Context(), dispatch.Delivery{
			ID:       deliveryID,
			Event:    event,
			Envelope: env,
			Replay:   replay,
		})

		metrics.Deliveries.WithLabelValues("success").Inc()
		w.Logger.Info("webhook processed",
			zap.String("event", event),
			zap.String("delivery_id", deliveryID),
			zap.Bool("replay", replay),
			zap.Bool("handled", outcome.Handled),
			zap.Duration("elapsed", time.Since(start)),
		)

		c.JSON(http.StatusOK, gin.H{
			"status":      "success",
			"event":       event,
			"delivery_id": deliveryID,
			"received_at": time.Now().UTC().Format(time.RFC3339),
		})
	})
}
