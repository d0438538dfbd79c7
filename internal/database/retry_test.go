package database

import (
	"context"
	"database/sql/driver"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func fastRetry(t *testing.T) {
	initial, max := RetryInitialInterval, RetryMaxInterval
	RetryInitialInterval = time.Millisecond
	RetryMaxInterval = 2 * time.Millisecond
	t.Cleanup(func() {
		RetryInitialInterval, RetryMaxInterval = initial, max
	})
}

func TestWithRetryTransient(t *testing.T) {
	fastRetry(t)

	t.Run("Succeeds after transient failures", func(t *testing.T) {
		attempts := 0
		err := WithRetry(context.Background(), func() error {
			attempts++
			if attempts < 3 {
				return &pgconn.PgError{Code: "53300", Message: "too many connections"}
			}
			return nil
		})
		assert.NoError(t, err)
		assert.Equal(t, 3, attempts)
	})

	t.Run("Gives up after three attempts", func(t *testing.T) {
		attempts := 0
		err := WithRetry(context.Background(), func() error {
			attempts++
			return driver.ErrBadConn
		})
		assert.Error(t, err)
		assert.Equal(t, RetryAttempts, attempts)
	})
}

func TestWithRetryPermanent(t *testing.T) {
	fastRetry(t)

	attempts := 0
	uniqueViolation := &pgconn.PgError{Code: "23505", Message: "duplicate key"}
	err := WithRetry(context.Background(), func() error {
		attempts++
		return uniqueViolation
	})

	assert.Equal(t, 1, attempts)
	var pgErr *pgconn.PgError
	assert.True(t, errors.As(err, &pgErr))
	assert.Equal(t, "23505", pgErr.Code)
}

func TestIsTransient(t *testing.T) {
	assert.True(t, IsTransient(&pgconn.PgError{Code: "08006"}))
	assert.True(t, IsTransient(&pgconn.PgError{Code: "57P01"}))
	assert.True(t, IsTransient(errors.New("database is locked (5) (SQLITE_BUSY)")))
	assert.False(t, IsTransient(&pgconn.PgError{Code: "23505"}))
	assert.False(t, IsTransient(errors.New("record not found")))
	assert.False(t, IsTransient(context.Canceled))
	assert.False(t, IsTransient(nil))
}
