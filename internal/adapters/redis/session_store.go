package redis

// Package redis provides Redis-based adapters for the crednova system.

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/crednova/crednova-api/internal/ports"
	"github.com/redis/go-redis/v9"
)

// SessionStore is a Redis-based browser session store for production use.
// It handles TTL semantics automatically based on the snapshot ExpiresAt.
type SessionStore struct {
	client redis.UniversalClient
	prefix string
}

// NewSessionStore creates a new Redis-based session store.
func NewSessionStore(client redis.UniversalClient) *SessionStore {
	return &SessionStore{
		client: client,
		prefix: "session:",
	}
}

// NewSessionStoreWithPrefix creates a Redis session store with a custom key prefix.
func NewSessionStoreWithPrefix(client redis.UniversalClient, prefix string) *SessionStore {
	return &SessionStore{
		client: client,
		prefix: prefix,
	}
}

func (s *SessionStore) Save(ctx context.Context, snap ports.BrowserSession) error {
	if snap.ID == "" {
		return errors.New("session ID cannot be empty")
	}

	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}

	key := s.prefix + snap.ID
	ttl := time.Until(snap.ExpiresAt)
	if ttl <= 0 {
		// Snapshot is already expired, don't save it
		return errors.New("session is expired")
	}

	return s.client.Set(ctx, key, data, ttl).Err()
}

func (s *SessionStore) Get(ctx context.Context, id string) (ports.BrowserSession, error) {
	if id == "" {
		return ports.BrowserSession{}, ErrNotFound
	}

	key := s.prefix + id
	data, err := s.client.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return ports.BrowserSession{}, ErrNotFound
		}
		return ports.BrowserSession{}, fmt.Errorf("redis get: %w", err)
	}

	var snap ports.BrowserSession
	if unmarshalErr := json.Unmarshal([]byte(data), &snap); unmarshalErr != nil {
		return ports.BrowserSession{}, fmt.Errorf("unmarshal session: %w", unmarshalErr)
	}

	// Redis TTL should have evicted this already; enforce ExpiresAt here too.
	if time.Now().After(snap.ExpiresAt) {
		// Clean up expired snapshot; if cleanup fails bubble the error up.
		if deleteErr := s.Delete(ctx, id); deleteErr != nil {
			return ports.BrowserSession{}, fmt.Errorf("cleanup expired session: %w", deleteErr)
		}
		return ports.BrowserSession{}, ErrNotFound
	}

	return snap, nil
}

func (s *SessionStore) Delete(ctx context.Context, id string) error {
	if id == "" {
		return nil // Nothing to delete
	}

	key := s.prefix + id
	return s.client.Del(ctx, key).Err()
}

// ErrNotFound is returned when a session is not found.
type notFoundError struct{}

func (notFoundError) Error() string { return "session not found" }

var ErrNotFound error = notFoundError{}
