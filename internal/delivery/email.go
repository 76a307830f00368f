package delivery

import (
	"context"
	"log/slog"
	"time"

	"github.com/phrazzld/notifyd/internal/domain"
	"github.com/phrazzld/notifyd/internal/redact"
)

// Email simulates delivery to the recipient's email address.
type Email struct {
	latency time.Duration
	logger  *slog.Logger
}

var _ Channel = (*Email)(nil)

// NewEmail creates an Email channel with the given simulated latency.
// A nil logger uses slog.Default().
func NewEmail(latency time.Duration, logger *slog.Logger) *Email {
	if logger == nil {
		logger = slog.Default()
	}
	return &Email{latency: latency, logger: logger.With("channel", domain.ChannelEmail)}
}

// Send delivers message to recipient.Email.
func (c *Email) Send(ctx context.Context, recipient *domain.Recipient, message string) (Receipt, error) {
	if recipient.Email == "" {
		return Undelivered("recipient has no email address"), nil
	}

	c.logger.InfoContext(ctx, "sending email",
		"recipient_id", recipient.ID,
		"to", redact.Email(recipient.Email),
		"message_length", len(message))

	if err := wait(ctx, c.latency); err != nil {
		return Receipt{}, err
	}
	return Delivered(), nil
}
