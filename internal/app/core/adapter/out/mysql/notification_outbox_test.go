package mysql

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSQLNotification_ToDomain(t *testing.T) {
	id := uuid.New()
	created := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	row := sqlNotification{
		ID:        id[:],
		AccountID: "ACC-1",
		Balance:   "123.45",
		Message:   "debited",
		Status:    StatusPending,
		CreatedAt: created.UnixMilli(),
	}

	n, err := row.toDomain()
	require.NoError(t, err)
	assert.Equal(t, id, n.ID)
	assert.Equal(t, "ACC-1", n.AccountID)
	assert.True(t, n.Balance.Equal(decimal.RequireFromString("123.45")))
	assert.Equal(t, created, n.CreatedAt)
}

func TestSQLNotification_ToDomainRejectsBadRows(t *testing.T) {
	_, err := sqlNotification{ID: []byte{1, 2, 3}, Balance: "1"}.toDomain()
	assert.Error(t, err)

	id := uuid.New()
	_, err = sqlNotification{ID: id[:], Balance: "not-a-number"}.toDomain()
	assert.Error(t, err)
}

func TestSQLNotification_TableName(t *testing.T) {
	assert.Equal(t, "notification_outbox", (&sqlNotification{}).TableName())
}
