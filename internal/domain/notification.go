package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Channel identifies the delivery mechanism for a notification.
type Channel string

// Supported delivery channels
const (
	ChannelEmail Channel = "email"
	ChannelSMS   Channel = "sms"
	ChannelPush  Channel = "push"
)

// Channels lists every supported channel in declaration order.
var Channels = []Channel{ChannelEmail, ChannelSMS, ChannelPush}

// Valid reports whether c is one of the supported channels.
func (c Channel) Valid() bool {
	switch c {
	case ChannelEmail, ChannelSMS, ChannelPush:
		return true
	default:
		return false
	}
}

// ParseChannel converts a caller-supplied string into a Channel.
// Matching is case-insensitive and ignores surrounding whitespace.
func ParseChannel(s string) (Channel, error) {
	c := Channel(strings.ToLower(strings.TrimSpace(s)))
	if !c.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidChannel, s)
	}
	return c, nil
}

// Priority determines the order in which pending notifications are drained.
type Priority string

// Supported priorities
const (
	PriorityHigh   Priority = "high"
	PriorityNormal Priority = "normal"
	PriorityLow    Priority = "low"
)

// Valid reports whether p is one of the supported priorities.
func (p Priority) Valid() bool {
	switch p {
	case PriorityHigh, PriorityNormal, PriorityLow:
		return true
	default:
		return false
	}
}

// Rank returns the drain rank of the priority. Lower ranks drain first.
// Unknown priorities rank after low.
func (p Priority) Rank() int {
	switch p {
	case PriorityHigh:
		return 0
	case PriorityNormal:
		return 1
	case PriorityLow:
		return 2
	default:
		return 3
	}
}

// ParsePriority converts a caller-supplied string into a Priority.
// An empty string yields PriorityNormal.
func ParsePriority(s string) (Priority, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return PriorityNormal, nil
	}
	p := Priority(s)
	if !p.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidPriority, s)
	}
	return p, nil
}

// NotificationStatus represents the delivery lifecycle state of a notification
type NotificationStatus string

// Possible notification status values
const (
	StatusQueued NotificationStatus = "queued"
	StatusSent   NotificationStatus = "sent"
	StatusFailed NotificationStatus = "failed"
)

// Valid reports whether s is a known status.
func (s NotificationStatus) Valid() bool {
	switch s {
	case StatusQueued, StatusSent, StatusFailed:
		return true
	default:
		return false
	}
}

// Terminal reports whether s is a final state. Terminal records never
// transition again.
func (s NotificationStatus) Terminal() bool {
	return s == StatusSent || s == StatusFailed
}

// Notification is a persisted delivery request together with its lifecycle
// status. It is created queued and mutated exactly once, to sent or failed.
type Notification struct {
	ID          uuid.UUID          `json:"id"`
	RecipientID uuid.UUID          `json:"recipient_id"`
	Message     string             `json:"message"`
	Channel     Channel            `json:"channel"`
	Priority    Priority           `json:"priority"`
	Status      NotificationStatus `json:"status"`
	Error       string             `json:"error,omitempty"`
	CreatedAt   time.Time          `json:"created_at"`
	UpdatedAt   time.Time          `json:"updated_at"`
	SentAt      *time.Time         `json:"sent_at,omitempty"`
}

// NewNotification creates a queued notification with a fresh ID.
// Returns ErrInvalidChannel or ErrInvalidPriority when either value falls
// outside its enumerated set.
func NewNotification(
	recipientID uuid.UUID,
	message string,
	channel Channel,
	priority Priority,
	createdAt time.Time,
) (*Notification, error) {
	n := &Notification{
		ID:          uuid.New(),
		RecipientID: recipientID,
		Message:     message,
		Channel:     channel,
		Priority:    priority,
		Status:      StatusQueued,
		CreatedAt:   createdAt.UTC(),
		UpdatedAt:   createdAt.UTC(),
	}

	if err := n.Validate(); err != nil {
		return nil, err
	}

	return n, nil
}

// Validate checks if the Notification has valid data.
func (n *Notification) Validate() error {
	if n.ID == uuid.Nil {
		return fmt.Errorf("%w: notification ID cannot be empty", ErrValidation)
	}
	if !n.Channel.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidChannel, n.Channel)
	}
	if !n.Priority.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidPriority, n.Priority)
	}
	if !n.Status.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, n.Status)
	}
	return nil
}

// MarkSent records a successful delivery.
func (n *Notification) MarkSent(at time.Time) error {
	if n.Status.Terminal() {
		return fmt.Errorf("%w: %s", ErrTerminalStatus, n.Status)
	}
	at = at.UTC()
	n.Status = StatusSent
	n.Error = ""
	n.SentAt = &at
	n.UpdatedAt = at
	return nil
}

// MarkFailed records a failed delivery with a human-readable reason.
func (n *Notification) MarkFailed(reason string, at time.Time) error {
	if n.Status.Terminal() {
		return fmt.Errorf("%w: %s", ErrTerminalStatus, n.Status)
	}
	n.Status = StatusFailed
	n.Error = reason
	n.SentAt = nil
	n.UpdatedAt = at.UTC()
	return nil
}

// Clone returns a deep copy of the notification.
func (n *Notification) Clone() *Notification {
	c := *n
	if n.SentAt != nil {
		sentAt := *n.SentAt
		c.SentAt = &sentAt
	}
	return &c
}
