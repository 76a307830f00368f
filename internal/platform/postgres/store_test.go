package postgres_test

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/notifyd/internal/domain"
	"github.com/phrazzld/notifyd/internal/platform/postgres"
	"github.com/phrazzld/notifyd/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// openTestDB connects to DATABASE_URL and applies migrations, skipping the
// test when no database is configured.
func openTestDB(t *testing.T) *sql.DB {
	t.Helper()

	url := os.Getenv("DATABASE_URL")
	if url == "" {
		t.Skip("DATABASE_URL not set, skipping PostgreSQL tests")
	}

	ctx := context.Background()
	db, err := postgres.Open(ctx, url)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, postgres.Migrate(ctx, db, nil))
	return db
}

// withTx runs fn inside a transaction that is always rolled back.
func withTx(t *testing.T, db *sql.DB, fn func(t *testing.T, tx *sql.Tx)) {
	t.Helper()

	tx, err := db.Begin()
	require.NoError(t, err)
	defer func() {
		if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
			t.Logf("failed to roll back transaction: %v", err)
		}
	}()

	fn(t, tx)
}

func TestRecipientStore(t *testing.T) {
	db := openTestDB(t)

	withTx(t, db, func(t *testing.T, tx *sql.Tx) {
		ctx := context.Background()
		s := postgres.NewPostgresRecipientStore(tx, nil)

		r, err := domain.NewRecipient("Ada", "ada@example.com", "+15550100")
		require.NoError(t, err)
		require.NoError(t, s.Create(ctx, r))

		got, err := s.FindByID(ctx, r.ID)
		require.NoError(t, err)
		assert.Equal(t, r.Name, got.Name)
		assert.Equal(t, r.Email, got.Email)
		assert.Equal(t, r.Phone, got.Phone)

		require.NoError(t, s.Delete(ctx, r.ID))
		_, err = s.FindByID(ctx, r.ID)
		assert.ErrorIs(t, err, store.ErrRecipientNotFound)
		assert.ErrorIs(t, s.Delete(ctx, r.ID), store.ErrRecipientNotFound)
	})
}

// A failed statement aborts the surrounding transaction, so duplicate checks
// run last.
func TestRecipientStoreDuplicate(t *testing.T) {
	db := openTestDB(t)

	withTx(t, db, func(t *testing.T, tx *sql.Tx) {
		ctx := context.Background()
		s := postgres.NewPostgresRecipientStore(tx, nil)

		r, err := domain.NewRecipient("Ada", "ada@example.com", "")
		require.NoError(t, err)
		require.NoError(t, s.Create(ctx, r))
		assert.ErrorIs(t, s.Create(ctx, r), store.ErrDuplicate)
	})
}

func TestRecipientStoreRejectsInvalid(t *testing.T) {
	db := openTestDB(t)

	withTx(t, db, func(t *testing.T, tx *sql.Tx) {
		s := postgres.NewPostgresRecipientStore(tx, nil)
		err := s.Create(context.Background(), &domain.Recipient{ID: uuid.New()})
		assert.ErrorIs(t, err, store.ErrInvalidEntity)
	})
}

func TestNotificationStoreLifecycle(t *testing.T) {
	db := openTestDB(t)

	withTx(t, db, func(t *testing.T, tx *sql.Tx) {
		ctx := context.Background()
		s := postgres.NewPostgresNotificationStore(tx, nil)

		created := time.Now().UTC().Truncate(time.Microsecond)
		n, err := domain.NewNotification(uuid.New(), "hello", domain.ChannelSMS, domain.PriorityHigh, created)
		require.NoError(t, err)
		require.NoError(t, s.Insert(ctx, n))

		got, err := s.GetByID(ctx, n.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.StatusQueued, got.Status)
		assert.Equal(t, domain.ChannelSMS, got.Channel)
		assert.Equal(t, domain.PriorityHigh, got.Priority)
		assert.Nil(t, got.SentAt)
		assert.True(t, created.Equal(got.CreatedAt))

		sentAt := created.Add(time.Second)
		require.NoError(t, n.MarkSent(sentAt))
		stored, err := s.Update(ctx, n.ID, n)
		require.NoError(t, err)
		assert.Equal(t, domain.StatusSent, stored.Status)
		require.NotNil(t, stored.SentAt)
		assert.True(t, sentAt.Equal(*stored.SentAt))

		_, err = s.Update(ctx, uuid.New(), n)
		assert.ErrorIs(t, err, store.ErrNotificationNotFound)

		_, err = s.GetByID(ctx, uuid.New())
		assert.ErrorIs(t, err, store.ErrNotificationNotFound)

		assert.ErrorIs(t, s.Insert(ctx, n), store.ErrDuplicate)
	})
}

func TestNotificationStoreListByStatus(t *testing.T) {
	db := openTestDB(t)

	withTx(t, db, func(t *testing.T, tx *sql.Tx) {
		ctx := context.Background()
		s := postgres.NewPostgresNotificationStore(tx, nil)

		base := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
		var want []uuid.UUID
		for i := 2; i >= 0; i-- {
			n, err := domain.NewNotification(uuid.New(), "m", domain.ChannelPush, domain.PriorityLow,
				base.Add(time.Duration(i)*time.Second))
			require.NoError(t, err)
			require.NoError(t, s.Insert(ctx, n))
			want = append([]uuid.UUID{n.ID}, want...)
		}

		failed, err := domain.NewNotification(uuid.New(), "m", domain.ChannelEmail, domain.PriorityHigh, base)
		require.NoError(t, err)
		require.NoError(t, failed.MarkFailed("rejected", base))
		require.NoError(t, s.Insert(ctx, failed))

		queued, err := s.ListByStatus(ctx, domain.StatusQueued)
		require.NoError(t, err)

		var got []uuid.UUID
		for _, n := range queued {
			got = append(got, n.ID)
		}
		assert.Equal(t, want, got)

		failedList, err := s.ListByStatus(ctx, domain.StatusFailed)
		require.NoError(t, err)
		require.Len(t, failedList, 1)
		assert.Equal(t, "rejected", failedList[0].Error)
	})
}

func TestNotificationSchemaRejectsUnknownChannel(t *testing.T) {
	db := openTestDB(t)

	withTx(t, db, func(t *testing.T, tx *sql.Tx) {
		_, err := tx.ExecContext(context.Background(),
			`INSERT INTO notifications (id, recipient_id, message, channel) VALUES ($1, $2, 'm', 'fax')`,
			uuid.New(), uuid.New())
		require.Error(t, err)
		assert.True(t, postgres.IsCheckConstraintViolation(err))
		assert.ErrorIs(t, postgres.MapError(err), store.ErrInvalidEntity)
	})
}
