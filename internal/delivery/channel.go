package delivery

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/phrazzld/notifyd/internal/config"
	"github.com/phrazzld/notifyd/internal/domain"
)

// Receipt reports the outcome of one delivery attempt.
type Receipt struct {
	Delivered bool
	// Reason describes why delivery did not happen. Empty when Delivered.
	Reason string
}

// Delivered returns a successful receipt.
func Delivered() Receipt {
	return Receipt{Delivered: true}
}

// Undelivered returns a failed receipt carrying reason.
func Undelivered(reason string) Receipt {
	return Receipt{Reason: reason}
}

// Channel performs a single outbound delivery attempt.
//
// Implementations must not retry internally. A recipient the channel cannot
// reach is an Undelivered receipt, not an error; errors are reserved for
// faults such as a cancelled context or an unreachable provider.
type Channel interface {
	Send(ctx context.Context, recipient *domain.Recipient, message string) (Receipt, error)
}

// ChannelFunc adapts an ordinary function to the Channel interface.
type ChannelFunc func(ctx context.Context, recipient *domain.Recipient, message string) (Receipt, error)

// Send calls f(ctx, recipient, message).
func (f ChannelFunc) Send(ctx context.Context, recipient *domain.Recipient, message string) (Receipt, error) {
	return f(ctx, recipient, message)
}

// Set binds one Channel to each member of the fixed domain.Channel set.
type Set struct {
	Email Channel
	SMS   Channel
	Push  Channel
}

// NewSet builds the simulated email, SMS and push channels from configuration.
func NewSet(cfg config.ChannelsConfig, logger *slog.Logger) Set {
	return Set{
		Email: NewEmail(cfg.EmailLatency, logger),
		SMS:   NewSMS(cfg.SMSLatency, logger),
		Push:  NewPush(cfg.PushLatency, logger),
	}
}

// For returns the Channel registered for c.
// Returns domain.ErrInvalidChannel for values outside the set, and an error
// when the set has no implementation bound for a valid channel.
func (s Set) For(c domain.Channel) (Channel, error) {
	var ch Channel
	switch c {
	case domain.ChannelEmail:
		ch = s.Email
	case domain.ChannelSMS:
		ch = s.SMS
	case domain.ChannelPush:
		ch = s.Push
	default:
		return nil, fmt.Errorf("%w: %q", domain.ErrInvalidChannel, c)
	}
	if ch == nil {
		return nil, fmt.Errorf("no delivery channel bound for %s", c)
	}
	return ch, nil
}

// wait blocks for d or until ctx is done.
func wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
