package delivery

import (
	"context"
	"log/slog"
	"time"

	"github.com/phrazzld/notifyd/internal/domain"
	"github.com/phrazzld/notifyd/internal/redact"
)

// SMS simulates delivery to the recipient's phone number.
type SMS struct {
	latency time.Duration
	logger  *slog.Logger
}

var _ Channel = (*SMS)(nil)

// NewSMS creates an SMS channel with the given simulated latency.
// A nil logger uses slog.Default().
func NewSMS(latency time.Duration, logger *slog.Logger) *SMS {
	if logger == nil {
		logger = slog.Default()
	}
	return &SMS{latency: latency, logger: logger.With("channel", domain.ChannelSMS)}
}

// Send delivers message to recipient.Phone.
func (c *SMS) Send(ctx context.Context, recipient *domain.Recipient, message string) (Receipt, error) {
	if recipient.Phone == "" {
		return Undelivered("recipient has no phone number"), nil
	}

	c.logger.InfoContext(ctx, "sending sms",
		"recipient_id", recipient.ID,
		"to", redact.Phone(recipient.Phone),
		"message_length", len(message))

	if err := wait(ctx, c.latency); err != nil {
		return Receipt{}, err
	}
	return Delivered(), nil
}
