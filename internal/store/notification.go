package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/phrazzld/notifyd/internal/domain"
)

// NotificationStore defines the interface for notification record persistence.
// Records are written as whole documents; there is no partial-field merge.
type NotificationStore interface {
	// Insert persists a newly created record.
	// Returns ErrDuplicate if a record with the same ID already exists.
	Insert(ctx context.Context, n *domain.Notification) error

	// Update overwrites the stored record identified by id with n and
	// returns the stored copy.
	// Returns ErrNotificationNotFound if no such record exists.
	Update(ctx context.Context, id uuid.UUID, n *domain.Notification) (*domain.Notification, error)

	// GetByID retrieves a record by its ID.
	// Returns ErrNotificationNotFound if the record does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Notification, error)

	// ListByStatus returns all records in the given status, oldest first.
	ListByStatus(ctx context.Context, status domain.NotificationStatus) ([]*domain.Notification, error)
}
