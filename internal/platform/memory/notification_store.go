package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/phrazzld/notifyd/internal/domain"
	"github.com/phrazzld/notifyd/internal/store"
)

// NotificationStore is an in-memory implementation of store.NotificationStore.
type NotificationStore struct {
	mu      sync.RWMutex
	records map[uuid.UUID]*domain.Notification
}

var _ store.NotificationStore = (*NotificationStore)(nil)

// NewNotificationStore creates an empty NotificationStore.
func NewNotificationStore() *NotificationStore {
	return &NotificationStore{records: make(map[uuid.UUID]*domain.Notification)}
}

// Insert persists a newly created record.
func (s *NotificationStore) Insert(_ context.Context, n *domain.Notification) error {
	if n == nil {
		return fmt.Errorf("%w: notification cannot be nil", store.ErrInvalidEntity)
	}
	if err := n.Validate(); err != nil {
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.records[n.ID]; exists {
		return fmt.Errorf("%w: notification %s", store.ErrDuplicate, n.ID)
	}
	s.records[n.ID] = n.Clone()
	return nil
}

// Update overwrites the stored record and returns the stored copy.
func (s *NotificationStore) Update(
	_ context.Context,
	id uuid.UUID,
	n *domain.Notification,
) (*domain.Notification, error) {
	if n == nil {
		return nil, fmt.Errorf("%w: notification cannot be nil", store.ErrInvalidEntity)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.records[id]; !exists {
		return nil, store.ErrNotificationNotFound
	}
	stored := n.Clone()
	stored.ID = id
	s.records[id] = stored
	return stored.Clone(), nil
}

// GetByID retrieves a record by its ID.
func (s *NotificationStore) GetByID(_ context.Context, id uuid.UUID) (*domain.Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n, ok := s.records[id]
	if !ok {
		return nil, store.ErrNotificationNotFound
	}
	return n.Clone(), nil
}

// ListByStatus returns all records in the given status ordered by creation time.
func (s *NotificationStore) ListByStatus(
	_ context.Context,
	status domain.NotificationStatus,
) ([]*domain.Notification, error) {
	s.mu.RLock()
	result := make([]*domain.Notification, 0)
	for _, n := range s.records {
		if n.Status == status {
			result = append(result, n.Clone())
		}
	}
	s.mu.RUnlock()

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result, nil
}

// Len returns the number of stored records.
func (s *NotificationStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}
