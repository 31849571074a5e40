package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// The pool connects lazily, so a valid DSN pointing at a closed port turns
// the first query into a connection failure. That failure must surface as
// an error in its own right, never as the item-not-found sentinel, or the
// caller would read an outage as a bad item number.
func TestCarts_AddStorageFailureIsNotItemNotFound(t *testing.T) {
	pool, err := pgxpool.New(context.Background(),
		"postgres://u:p@127.0.0.1:1/db?sslmode=disable&connect_timeout=1")
	require.NoError(t, err)
	defer pool.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	_, err = NewCarts(pool).Add(ctx, "dev-1", 1, 1)
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrItemNotFound))
}
