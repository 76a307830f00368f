package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/phrazzld/notifyd/internal/domain"
	"github.com/phrazzld/notifyd/internal/store"
)

// RecipientStore is an in-memory implementation of store.RecipientStore.
type RecipientStore struct {
	mu         sync.RWMutex
	recipients map[uuid.UUID]domain.Recipient
}

var _ store.RecipientStore = (*RecipientStore)(nil)

// NewRecipientStore creates an empty RecipientStore.
func NewRecipientStore() *RecipientStore {
	return &RecipientStore{recipients: make(map[uuid.UUID]domain.Recipient)}
}

// FindByID retrieves a recipient by ID.
func (s *RecipientStore) FindByID(_ context.Context, id uuid.UUID) (*domain.Recipient, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.recipients[id]
	if !ok {
		return nil, store.ErrRecipientNotFound
	}
	return &r, nil
}

// Create saves a new recipient.
func (s *RecipientStore) Create(_ context.Context, r *domain.Recipient) error {
	if r == nil {
		return fmt.Errorf("%w: recipient cannot be nil", store.ErrInvalidEntity)
	}
	if err := r.Validate(); err != nil {
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.recipients[r.ID]; exists {
		return fmt.Errorf("%w: recipient %s", store.ErrDuplicate, r.ID)
	}
	s.recipients[r.ID] = *r
	return nil
}

// Delete removes a recipient by ID.
func (s *RecipientStore) Delete(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.recipients[id]; !exists {
		return store.ErrRecipientNotFound
	}
	delete(s.recipients, id)
	return nil
}
