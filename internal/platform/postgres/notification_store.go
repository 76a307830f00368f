package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/phrazzld/notifyd/internal/domain"
	"github.com/phrazzld/notifyd/internal/platform/logger"
	"github.com/phrazzld/notifyd/internal/store"
)

const notificationColumns = `id, recipient_id, message, channel, priority, status, error, created_at, updated_at, sent_at`

// PostgresNotificationStore implements store.NotificationStore on PostgreSQL.
type PostgresNotificationStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresNotificationStore creates a store over db. A nil logger uses slog.Default().
func NewPostgresNotificationStore(db store.DBTX, logger *slog.Logger) *PostgresNotificationStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresNotificationStore{
		db:     db,
		logger: logger.With(slog.String("component", "notification_store")),
	}
}

var _ store.NotificationStore = (*PostgresNotificationStore)(nil)

// Insert implements store.NotificationStore.Insert
func (s *PostgresNotificationStore) Insert(ctx context.Context, n *domain.Notification) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := n.Validate(); err != nil {
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	query := `
		INSERT INTO notifications (` + notificationColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := s.db.ExecContext(ctx, query,
		n.ID,
		n.RecipientID,
		n.Message,
		n.Channel,
		n.Priority,
		n.Status,
		n.Error,
		n.CreatedAt,
		n.UpdatedAt,
		n.SentAt,
	)
	if err != nil {
		log.Log(ctx, writeErrorLevel(err), "failed to insert notification",
			slog.String("error", err.Error()),
			slog.String("notification_id", n.ID.String()))
		return store.NewStoreError("notification", "insert", "failed to insert notification", MapError(err))
	}

	log.Debug("notification inserted",
		slog.String("notification_id", n.ID.String()),
		slog.String("channel", string(n.Channel)),
		slog.String("priority", string(n.Priority)))
	return nil
}

// Update implements store.NotificationStore.Update
func (s *PostgresNotificationStore) Update(
	ctx context.Context,
	id uuid.UUID,
	n *domain.Notification,
) (*domain.Notification, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		UPDATE notifications
		SET recipient_id = $2, message = $3, channel = $4, priority = $5,
			status = $6, error = $7, created_at = $8, updated_at = $9, sent_at = $10
		WHERE id = $1
		RETURNING ` + notificationColumns

	row := s.db.QueryRowContext(ctx, query,
		id,
		n.RecipientID,
		n.Message,
		n.Channel,
		n.Priority,
		n.Status,
		n.Error,
		n.CreatedAt,
		n.UpdatedAt,
		n.SentAt,
	)

	stored, err := scanNotification(row)
	if err != nil {
		err = mapNotFound(err, store.ErrNotificationNotFound)
		if !store.IsNotFoundError(err) {
			log.Error("failed to update notification",
				slog.String("error", err.Error()),
				slog.String("notification_id", id.String()))
		}
		return nil, store.NewStoreError("notification", "update", "failed to update notification", err)
	}

	log.Debug("notification updated",
		slog.String("notification_id", id.String()),
		slog.String("status", string(stored.Status)))
	return stored, nil
}

// GetByID implements store.NotificationStore.GetByID
func (s *PostgresNotificationStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Notification, error) {
	query := `SELECT ` + notificationColumns + ` FROM notifications WHERE id = $1`

	n, err := scanNotification(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, mapNotFound(err, store.ErrNotificationNotFound)
	}
	return n, nil
}

// ListByStatus implements store.NotificationStore.ListByStatus
func (s *PostgresNotificationStore) ListByStatus(
	ctx context.Context,
	status domain.NotificationStatus,
) ([]*domain.Notification, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT ` + notificationColumns + `
		FROM notifications
		WHERE status = $1
		ORDER BY created_at ASC, id ASC
	`
	rows, err := s.db.QueryContext(ctx, query, status)
	if err != nil {
		log.Error("failed to list notifications",
			slog.String("error", err.Error()),
			slog.String("status", string(status)))
		return nil, store.NewStoreError("notification", "list", "failed to list notifications", MapError(err))
	}
	defer func() { _ = rows.Close() }()

	result := make([]*domain.Notification, 0)
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, store.NewStoreError("notification", "list", "failed to scan notification", MapError(err))
		}
		result = append(result, n)
	}
	if err := rows.Err(); err != nil {
		return nil, store.NewStoreError("notification", "list", "failed to iterate notifications", MapError(err))
	}

	return result, nil
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanNotification(row rowScanner) (*domain.Notification, error) {
	var (
		n        domain.Notification
		channel  string
		priority string
		status   string
		sentAt   sql.NullTime
	)

	err := row.Scan(
		&n.ID,
		&n.RecipientID,
		&n.Message,
		&channel,
		&priority,
		&status,
		&n.Error,
		&n.CreatedAt,
		&n.UpdatedAt,
		&sentAt,
	)
	if err != nil {
		return nil, err
	}

	n.Channel = domain.Channel(channel)
	n.Priority = domain.Priority(priority)
	n.Status = domain.NotificationStatus(status)
	n.CreatedAt = n.CreatedAt.UTC()
	n.UpdatedAt = n.UpdatedAt.UTC()
	if sentAt.Valid {
		t := sentAt.Time.UTC()
		n.SentAt = &t
	}
	return &n, nil
}
