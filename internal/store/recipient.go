package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/phrazzld/notifyd/internal/domain"
)

// RecipientStore defines the interface for recipient persistence.
type RecipientStore interface {
	// FindByID retrieves a recipient by ID.
	// Returns ErrRecipientNotFound if the recipient does not exist.
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Recipient, error)

	// Create saves a new recipient.
	// Returns ErrInvalidEntity wrapping the validation error if data is invalid.
	Create(ctx context.Context, r *domain.Recipient) error

	// Delete removes a recipient by ID.
	// Returns ErrRecipientNotFound if the recipient does not exist.
	Delete(ctx context.Context, id uuid.UUID) error
}
