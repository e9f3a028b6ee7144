package rdx

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// Conn is the shared Redis connection, bound once at startup.
var Conn *redis.Client

func Init(addr, password string) *redis.Client {
	Conn = redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       0,
	})
	return Conn
}

const revokedPrefix = "revoked:"

// RevokeToken records a logged-out token until its natural expiry, after
// which the entry is dropped by Redis itself.
func RevokeToken(ctx context.Context, tokenID string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	return Conn.Set(ctx, revokedPrefix+tokenID, "1", ttl).Err()
}

// IsTokenRevoked reports whether a token has been logged out.
func IsTokenRevoked(ctx context.Context, tokenID string) (bool, error) {
	n, err := Conn.Exists(ctx, revokedPrefix+tokenID).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
