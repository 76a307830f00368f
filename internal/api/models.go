package api

import (
	"time"

	"github.com/phrazzld/notifyd/internal/domain"
)

// CreateNotificationRequest is the body of POST /api/notifications.
// Channel and priority are checked by the dispatcher so that unknown values
// map to the dedicated error messages.
type CreateNotificationRequest struct {
	RecipientID string `json:"recipient_id" validate:"required,uuid"`
	Message     string `json:"message"      validate:"required,max=4096"`
	Channel     string `json:"channel"      validate:"required"`
	Priority    string `json:"priority,omitempty"`
}

// NotificationResponse is the API representation of a notification.
type NotificationResponse struct {
	ID          string     `json:"id"`
	RecipientID string     `json:"recipient_id"`
	Message     string     `json:"message"`
	Channel     string     `json:"channel"`
	Priority    string     `json:"priority"`
	Status      string     `json:"status"`
	Error       string     `json:"error,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	SentAt      *time.Time `json:"sent_at,omitempty"`
}

// CreateRecipientRequest is the body of POST /api/recipients.
type CreateRecipientRequest struct {
	Name  string `json:"name"            validate:"required,max=200"`
	Email string `json:"email"           validate:"required,email"`
	Phone string `json:"phone,omitempty" validate:"omitempty,e164"`
}

// RecipientResponse is the API representation of a recipient.
type RecipientResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func notificationToResponse(n *domain.Notification) NotificationResponse {
	return NotificationResponse{
		ID:          n.ID.String(),
		RecipientID: n.RecipientID.String(),
		Message:     n.Message,
		Channel:     string(n.Channel),
		Priority:    string(n.Priority),
		Status:      string(n.Status),
		Error:       n.Error,
		CreatedAt:   n.CreatedAt,
		UpdatedAt:   n.UpdatedAt,
		SentAt:      n.SentAt,
	}
}

func recipientToResponse(r *domain.Recipient) RecipientResponse {
	return RecipientResponse{
		ID:        r.ID.String(),
		Name:      r.Name,
		Email:     r.Email,
		Phone:     r.Phone,
		CreatedAt: r.CreatedAt,
	}
}
