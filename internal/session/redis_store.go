package session

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Store keeps active sessions in Redis so logout works across server
// restarts. A session maps a random token to the external auth subject.
type Store struct {
	client *redis.Client
	ttl    time.Duration
}

// NewStore connects to Redis and verifies the connection.
func NewStore(redisHost, redisPort string, ttl time.Duration) (*Store, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         fmt.Sprintf("%s:%s", redisHost, redisPort),
		Password:     "", // no password
		DB:           0,  // default DB
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &Store{client: client, ttl: ttl}, nil
}

func sessionKey(token string) string {
	return fmt.Sprintf("session:%s", token)
}

// Create stores a new session and returns its token. The TTL doubles as
// automatic cleanup of abandoned sessions.
func (s *Store) Create(ctx context.Context, authID string) (string, error) {
	token := uuid.NewString()
	if err := s.client.Set(ctx, sessionKey(token), authID, s.ttl).Err(); err != nil {
		return "", fmt.Errorf("failed to store session: %w", err)
	}
	return token, nil
}

// Resolve returns the auth subject for a session token, or "" when the
// session does not exist or has expired.
func (s *Store) Resolve(ctx context.Context, token string) (string, error) {
	result := s.client.Get(ctx, sessionKey(token))
	if result.Err() == redis.Nil {
		return "", nil
	}
	if result.Err() != nil {
		return "", fmt.Errorf("failed to read session: %w", result.Err())
	}
	// Sliding expiry: activity keeps the session alive.
	s.client.Expire(ctx, sessionKey(token), s.ttl)
	return result.Val(), nil
}

// Revoke deletes a session. Revoking an unknown token is a no-op.
func (s *Store) Revoke(ctx context.Context, token string) error {
	if err := s.client.Del(ctx, sessionKey(token)).Err(); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// Close releases the Redis connection.
func (s *Store) Close() error {
	return s.client.Close()
}
