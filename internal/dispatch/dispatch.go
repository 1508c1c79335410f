// Package dispatch routes validated webhook envelopes to type-specific
// handlers and normalizes handler failures into captured outcomes.
package dispatch

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/subculture-collective/hooksink/internal/envelope"
	"github.com/subculture-collective/hooksink/internal/metrics"
)

// Delivery is one authenticated, validated webhook delivery.
type Delivery struct {
	ID       string
	Event    string
	Envelope envelope.Envelope
	Replay   bool
}

// Handler processes a single delivery of its event type.
type Handler interface {
	Handle(ctx context.Context, d Delivery) error
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, d Delivery) error

// Handle implements Handler.
func (f HandlerFunc) Handle(ctx context.Context, d Delivery) error {
	return f(ctx, d)
}

// Outcome is the captured result of a dispatch. A failed or unrecognized
// delivery still acknowledges at the HTTP level; Outcome is how the
// failure stays observable.
type Outcome struct {
	// Handled reports whether a handler was registered for the event type.
	Handled bool

	// Err holds the handler error or recovered panic, nil on success.
	Err error
}

// Dispatcher maps event types to handlers.
//
// Register all handlers before serving requests; Dispatch is safe for
// concurrent use once configuration is done.
type Dispatcher struct {
	handlers map[string]Handler
	logger   *zap.Logger
	timeout  time.Duration
}

// New creates a Dispatcher. Every dispatch runs under a context bounded
// by timeout so a slow handler cannot hold a request slot indefinitely.
func New(logger *zap.Logger, timeout time.Duration) *Dispatcher {
	return &Dispatcher{
		handlers: make(map[string]Handler),
		logger:   logger,
		timeout:  timeout,
	}
}

// Register binds a handler to an event type, replacing any previous one.
func (d *Dispatcher) Register(event string, h Handler) {
	d.handlers[event] = h
}

// Dispatch routes a delivery to its handler and captures the result.
//
// Unknown event types are logged and acknowledged: recognition of the
// event is decoupled from acknowledgment of the delivery. Handler errors
// and panics are logged with full context and counted, never propagated;
// by the time a handler runs the delivery is already recorded in the
// ledger, so failing the request would only confuse the sender.
func (d *Dispatcher) Dispatch(ctx context.Context, dl Delivery) Outcome {
	h, ok := d.handlers[dl.Event]
	if !ok {
		d.logger.Warn("unhandled event type",
			zap.String("event", dl.Event),
			zap.String("delivery_id", dl.ID),
		)
		metrics.UnknownEvents.WithLabelValues(dl.Event).Inc()
		return Outcome{Handled: false}
	}

	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	start := time.Now()
	err := d.invoke(ctx, h, dl)
	if err != nil {
		d.logger.Error("handler failed",
			zap.String("event", dl.Event),
			zap.String("delivery_id", dl.ID),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err),
		)
		metrics.HandlerFailures.WithLabelValues(dl.Event).Inc()
	}
	return Outcome{Handled: true, Err: err}
}

// invoke runs the handler, converting a panic into an error.
func (d *Dispatcher) invoke(ctx context.Context, h Handler, dl Delivery) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panic: %v", r)
		}
	}()
	return h.Handle(ctx, dl)
}
