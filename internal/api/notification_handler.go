package api

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/phrazzld/notifyd/internal/api/shared"
	"github.com/phrazzld/notifyd/internal/domain"
	"github.com/phrazzld/notifyd/internal/platform/logger"
)

// Dispatcher is the subset of *dispatch.Dispatcher used by the API.
type Dispatcher interface {
	Enqueue(
		ctx context.Context,
		recipientID uuid.UUID,
		message string,
		channel domain.Channel,
		priority domain.Priority,
	) (*domain.Notification, error)
	Get(ctx context.Context, id uuid.UUID) (*domain.Notification, error)
}

// NotificationHandler handles notification-related HTTP requests
type NotificationHandler struct {
	dispatcher Dispatcher
}

// NewNotificationHandler creates a NotificationHandler backed by dispatcher.
func NewNotificationHandler(dispatcher Dispatcher) *NotificationHandler {
	return &NotificationHandler{dispatcher: dispatcher}
}

// CreateNotification handles POST /api/notifications.
// Delivery happens asynchronously, so the queued record is returned with
// 202 Accepted.
func (h *NotificationHandler) CreateNotification(w http.ResponseWriter, r *http.Request) {
	var req CreateNotificationRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	// Already checked by the uuid validator tag.
	recipientID := uuid.MustParse(req.RecipientID)

	n, err := h.dispatcher.Enqueue(
		r.Context(),
		recipientID,
		req.Message,
		domain.Channel(req.Channel),
		domain.Priority(req.Priority),
	)
	if err != nil {
		respondWithMappedError(w, r, err)
		return
	}

	log := logger.FromContext(r.Context())
	if subject, ok := shared.GetSubject(r.Context()); ok {
		log = log.With("subject", subject)
	}
	log.Info("notification accepted",
		"notification_id", n.ID,
		"recipient_id", n.RecipientID,
		"channel", n.Channel,
		"priority", n.Priority)

	shared.RespondWithJSON(w, r, http.StatusAccepted, notificationToResponse(n))
}

// GetNotification handles GET /api/notifications/{id}.
func (h *NotificationHandler) GetNotification(w http.ResponseWriter, r *http.Request) {
	id, ok := handlePathUUID(w, r, "id")
	if !ok {
		return
	}

	n, err := h.dispatcher.Get(r.Context(), id)
	if err != nil {
		respondWithMappedError(w, r, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, notificationToResponse(n))
}
