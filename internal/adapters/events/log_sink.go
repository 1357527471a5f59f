// internal/adapters/events/log_sink.go
package events

import (
	"context"
	"log/slog"

	"github.com/vanamwellness/checkout-service/internal/domain"
)

// LogSink stands in for the broker when none is configured. OTP codes are written to
// the log so a developer can complete verification locally.
type LogSink struct {
	logger *slog.Logger
}

func NewLogSink(logger *slog.Logger) *LogSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogSink{logger: logger}
}

func (s *LogSink) DispatchOTP(ctx context.Context, msg domain.OTPMessage) error {
	s.logger.InfoContext(ctx, "otp dispatch",
		"session_id", msg.SessionID,
		"channel", msg.Target,
		"destination", msg.Destination,
		"code", msg.Code,
		"expires_at", msg.ExpiresAt)
	return nil
}

func (s *LogSink) PublishOrderPlaced(ctx context.Context, o *domain.OrderRecord) error {
	s.logger.InfoContext(ctx, "order placed event",
		"order_id", o.OrderID,
		"total", o.Totals.Total,
		"items", len(o.Items))
	return nil
}
