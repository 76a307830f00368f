package postgres_test

import (
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/phrazzld/notifyd/internal/platform/postgres"
	"github.com/phrazzld/notifyd/internal/store"
	"github.com/stretchr/testify/assert"
)

func newPgError(code string) *pgconn.PgError {
	return &pgconn.PgError{
		Code:           code,
		Message:        "error message",
		TableName:      "notifications",
		ColumnName:     "channel",
		ConstraintName: "notifications_channel_check",
	}
}

// mockResult implements sql.Result for testing
type mockResult struct {
	rowsAffected int64
	err          error
}

func (m mockResult) LastInsertId() (int64, error) { return 0, m.err }
func (m mockResult) RowsAffected() (int64, error) { return m.rowsAffected, m.err }

func TestMapError(t *testing.T) {
	t.Parallel()

	generic := errors.New("connection refused")

	tests := []struct {
		name    string
		err     error
		wantErr error
	}{
		{"no rows", sql.ErrNoRows, store.ErrNotFound},
		{"unique violation", newPgError("23505"), store.ErrDuplicate},
		{"foreign key violation", newPgError("23503"), store.ErrInvalidEntity},
		{"check violation", newPgError("23514"), store.ErrInvalidEntity},
		{"not null violation", newPgError("23502"), store.ErrInvalidEntity},
		{"wrapped pg error", fmt.Errorf("exec: %w", newPgError("23505")), store.ErrDuplicate},
		{"unmapped error", generic, generic},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.ErrorIs(t, postgres.MapError(tt.err), tt.wantErr)
		})
	}

	assert.NoError(t, postgres.MapError(nil))
}

func TestMapErrorKeepsConstraintName(t *testing.T) {
	t.Parallel()

	err := postgres.MapError(newPgError("23514"))
	assert.ErrorContains(t, err, "notifications_channel_check")
}

func TestViolationPredicates(t *testing.T) {
	t.Parallel()

	assert.True(t, postgres.IsUniqueViolation(newPgError("23505")))
	assert.False(t, postgres.IsUniqueViolation(newPgError("23503")))
	assert.True(t, postgres.IsCheckConstraintViolation(newPgError("23514")))
	assert.False(t, postgres.IsUniqueViolation(nil))
	assert.False(t, postgres.IsCheckConstraintViolation(errors.New("plain")))
}

func TestIsNotFoundError(t *testing.T) {
	t.Parallel()

	assert.True(t, postgres.IsNotFoundError(sql.ErrNoRows))
	assert.True(t, postgres.IsNotFoundError(store.ErrRecipientNotFound))
	assert.False(t, postgres.IsNotFoundError(errors.New("other")))
}

func TestCheckRowsAffected(t *testing.T) {
	t.Parallel()

	assert.NoError(t, postgres.CheckRowsAffected(mockResult{rowsAffected: 1}, store.ErrRecipientNotFound))
	assert.ErrorIs(t,
		postgres.CheckRowsAffected(mockResult{rowsAffected: 0}, store.ErrRecipientNotFound),
		store.ErrRecipientNotFound)
	assert.ErrorIs(t, postgres.CheckRowsAffected(mockResult{}, nil), store.ErrNotFound)
	assert.Error(t, postgres.CheckRowsAffected(nil, nil))

	failing := mockResult{err: errors.New("driver error")}
	err := postgres.CheckRowsAffected(failing, nil)
	assert.ErrorContains(t, err, "driver error")
	assert.NotErrorIs(t, err, store.ErrNotFound)
}
