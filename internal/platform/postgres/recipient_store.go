package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/phrazzld/notifyd/internal/domain"
	"github.com/phrazzld/notifyd/internal/platform/logger"
	"github.com/phrazzld/notifyd/internal/store"
)

// PostgresRecipientStore implements store.RecipientStore on PostgreSQL.
type PostgresRecipientStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresRecipientStore creates a store over db. A nil logger uses slog.Default().
func NewPostgresRecipientStore(db store.DBTX, logger *slog.Logger) *PostgresRecipientStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresRecipientStore{
		db:     db,
		logger: logger.With(slog.String("component", "recipient_store")),
	}
}

var _ store.RecipientStore = (*PostgresRecipientStore)(nil)

// FindByID implements store.RecipientStore.FindByID
func (s *PostgresRecipientStore) FindByID(ctx context.Context, id uuid.UUID) (*domain.Recipient, error) {
	query := `
		SELECT id, name, email, phone, created_at
		FROM recipients
		WHERE id = $1
	`

	var r domain.Recipient
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&r.ID,
		&r.Name,
		&r.Email,
		&r.Phone,
		&r.CreatedAt,
	)
	if err != nil {
		return nil, mapNotFound(err, store.ErrRecipientNotFound)
	}

	r.CreatedAt = r.CreatedAt.UTC()
	return &r, nil
}

// Create implements store.RecipientStore.Create
func (s *PostgresRecipientStore) Create(ctx context.Context, r *domain.Recipient) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := r.Validate(); err != nil {
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	query := `
		INSERT INTO recipients (id, name, email, phone, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := s.db.ExecContext(ctx, query, r.ID, r.Name, r.Email, r.Phone, r.CreatedAt)
	if err != nil {
		log.Log(ctx, writeErrorLevel(err), "failed to create recipient",
			slog.String("error", err.Error()),
			slog.String("recipient_id", r.ID.String()))
		return store.NewStoreError("recipient", "create", "failed to create recipient", MapError(err))
	}

	log.Info("recipient created", slog.String("recipient_id", r.ID.String()))
	return nil
}

// Delete implements store.RecipientStore.Delete
func (s *PostgresRecipientStore) Delete(ctx context.Context, id uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	result, err := s.db.ExecContext(ctx, `DELETE FROM recipients WHERE id = $1`, id)
	if err != nil {
		log.Error("failed to delete recipient",
			slog.String("error", err.Error()),
			slog.String("recipient_id", id.String()))
		return store.NewStoreError("recipient", "delete", "failed to delete recipient", MapError(err))
	}

	if err := CheckRowsAffected(result, store.ErrRecipientNotFound); err != nil {
		return err
	}

	log.Info("recipient deleted", slog.String("recipient_id", id.String()))
	return nil
}
