package domain

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Common validation errors for Recipient
var (
	ErrEmptyRecipientID   = errors.New("recipient ID cannot be empty")
	ErrEmptyRecipientName = errors.New("recipient name cannot be empty")
	ErrEmptyEmail         = errors.New("email cannot be empty")
)

// Recipient is the addressee of a notification. Channels read the contact
// field they need (email address, phone number or the ID itself for push).
type Recipient struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// NewRecipient creates a new Recipient with a generated ID.
// Returns an error if validation fails.
func NewRecipient(name, email, phone string) (*Recipient, error) {
	r := &Recipient{
		ID:        uuid.New(),
		Name:      strings.TrimSpace(name),
		Email:     strings.TrimSpace(email),
		Phone:     strings.TrimSpace(phone),
		CreatedAt: time.Now().UTC(),
	}

	if err := r.Validate(); err != nil {
		return nil, err
	}

	return r, nil
}

// Validate checks if the Recipient has valid data.
func (r *Recipient) Validate() error {
	if r.ID == uuid.Nil {
		return ErrEmptyRecipientID
	}
	if r.Name == "" {
		return ErrEmptyRecipientName
	}
	if r.Email == "" {
		return ErrEmptyEmail
	}
	if !validateEmailFormat(r.Email) {
		return ErrInvalidEmail
	}
	return nil
}

// validateEmailFormat performs a basic structural check: a non-empty local
// part, an @, and a domain with an interior dot.
func validateEmailFormat(email string) bool {
	at := strings.IndexByte(email, '@')
	if at <= 0 || at == len(email)-1 {
		return false
	}

	domainPart := email[at+1:]
	if len(domainPart) < 3 || strings.ContainsRune(domainPart, '@') {
		return false
	}

	dot := strings.IndexByte(domainPart, '.')
	return dot > 0 && dot < len(domainPart)-1
}
