package dispatch

import (
	"context"

	"go.uber.org/zap"
)

// RegisterClipHandlers binds the clip moderation event types.
// The handlers log the interesting payload fields; real business logic
// hangs off the same registrations.
func RegisterClipHandlers(d *Dispatcher, logger *zap.Logger) {
	d.Register("clip.submitted", HandlerFunc(func(_ context.Context, dl Delivery) error {
		logger.Info("clip submitted",
			zap.String("delivery_id", dl.ID),
			zap.Any("submission_id", dl.Envelope.Data["submission_id"]),
			zap.Any("clip_id", dl.Envelope.Data["clip_id"]),
			zap.Any("user_id", dl.Envelope.Data["user_id"]),
		)
		return nil
	}))

	d.Register("clip.approved", HandlerFunc(func(_ context.Context, dl Delivery) error {
		logger.Info("clip approved",
			zap.String("delivery_id", dl.ID),
			zap.Any("clip_id", dl.Envelope.Data["clip_id"]),
			zap.Any("approved_by", dl.Envelope.Data["approved_by"]),
		)
		return nil
	}))

	d.Register("clip.rejected", HandlerFunc(func(_ context.Context, dl Delivery) error {
		logger.Info("clip rejected",
			zap.String("delivery_id", dl.ID),
			zap.Any("clip_id", dl.Envelope.Data["clip_id"]),
			zap.Any("reason", dl.Envelope.Data["reason"]),
		)
		return nil
	}))
}
