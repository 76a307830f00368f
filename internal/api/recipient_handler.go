package api

import (
	"net/http"

	"github.com/phrazzld/notifyd/internal/api/shared"
	"github.com/phrazzld/notifyd/internal/domain"
	"github.com/phrazzld/notifyd/internal/platform/logger"
	"github.com/phrazzld/notifyd/internal/store"
)

// RecipientHandler handles recipient-related HTTP requests
type RecipientHandler struct {
	recipients store.RecipientStore
}

// NewRecipientHandler creates a RecipientHandler backed by recipients.
func NewRecipientHandler(recipients store.RecipientStore) *RecipientHandler {
	return &RecipientHandler{recipients: recipients}
}

// CreateRecipient handles POST /api/recipients.
func (h *RecipientHandler) CreateRecipient(w http.ResponseWriter, r *http.Request) {
	var req CreateRecipientRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	recipient, err := domain.NewRecipient(req.Name, req.Email, req.Phone)
	if err != nil {
		respondWithMappedError(w, r, err)
		return
	}

	if err := h.recipients.Create(r.Context(), recipient); err != nil {
		respondWithMappedError(w, r, err)
		return
	}

	logger.FromContext(r.Context()).Info("recipient created", "recipient_id", recipient.ID)
	shared.RespondWithJSON(w, r, http.StatusCreated, recipientToResponse(recipient))
}

// GetRecipient handles GET /api/recipients/{id}.
func (h *RecipientHandler) GetRecipient(w http.ResponseWriter, r *http.Request) {
	id, ok := handlePathUUID(w, r, "id")
	if !ok {
		return
	}

	recipient, err := h.recipients.FindByID(r.Context(), id)
	if err != nil {
		respondWithMappedError(w, r, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, recipientToResponse(recipient))
}

// DeleteRecipient handles DELETE /api/recipients/{id}.
// Queued notifications for the recipient stay queued and fail at delivery.
func (h *RecipientHandler) DeleteRecipient(w http.ResponseWriter, r *http.Request) {
	id, ok := handlePathUUID(w, r, "id")
	if !ok {
		return
	}

	if err := h.recipients.Delete(r.Context(), id); err != nil {
		respondWithMappedError(w, r, err)
		return
	}

	logger.FromContext(r.Context()).Info("recipient deleted", "recipient_id", id)
	w.WriteHeader(http.StatusNoContent)
}
