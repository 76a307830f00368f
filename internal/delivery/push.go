package delivery

import (
	"context"
	"log/slog"
	"time"

	"github.com/phrazzld/notifyd/internal/domain"
)

// Push simulates a push notification addressed by recipient ID.
type Push struct {
	latency time.Duration
	logger  *slog.Logger
}

var _ Channel = (*Push)(nil)

// NewPush creates a Push channel with the given simulated latency.
// A nil logger uses slog.Default().
func NewPush(latency time.Duration, logger *slog.Logger) *Push {
	if logger == nil {
		logger = slog.Default()
	}
	return &Push{latency: latency, logger: logger.With("channel", domain.ChannelPush)}
}

// Send delivers message to the recipient's registered devices.
func (c *Push) Send(ctx context.Context, recipient *domain.Recipient, message string) (Receipt, error) {
	c.logger.InfoContext(ctx, "sending push notification",
		"recipient_id", recipient.ID,
		"message_length", len(message))

	if err := wait(ctx, c.latency); err != nil {
		return Receipt{}, err
	}
	return Delivered(), nil
}
