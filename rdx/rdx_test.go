package rdx

import (
	"context"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRevokeAndCheckToken(t *testing.T) {
	client, mock := redismock.NewClientMock()
	Conn = client

	mock.ExpectSet("revoked:jti123", "1", time.Hour).SetVal("OK")
	require.NoError(t, RevokeToken(context.Background(), "jti123", time.Hour))

	mock.ExpectExists("revoked:jti123").SetVal(1)
	revoked, err := IsTokenRevoked(context.Background(), "jti123")
	require.NoError(t, err)
	assert.True(t, revoked)

	mock.ExpectExists("revoked:other").SetVal(0)
	revoked, err = IsTokenRevoked(context.Background(), "other")
	require.NoError(t, err)
	assert.False(t, revoked)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRevokeTokenSkipsExpired(t *testing.T) {
	client, mock := redismock.NewClientMock()
	Conn = client

	// A token already past expiry needs no revocation entry.
	require.NoError(t, RevokeToken(context.Background(), "stale", -time.Minute))
	assert.NoError(t, mock.ExpectationsWereMet())
}
