package gearimport

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	defaultSessionRedisPrefix  = "gear-import:"
	defaultSessionRedisTimeout = 2 * time.Second
)

// RedisSessionStore keeps sessions in Redis as JSON, one key per session,
// with the session TTL as key expiry.
type RedisSessionStore struct {
	client *redis.Client
	ttl    time.Duration
	prefix string
}

// NewRedisSessionStore creates a Redis-backed session store. An empty prefix
// uses "gear-import:".
func NewRedisSessionStore(client *redis.Client, ttl time.Duration, prefix string) *RedisSessionStore {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		prefix = defaultSessionRedisPrefix
	}

	return &RedisSessionStore{
		client: client,
		ttl:    ttl,
		prefix: prefix,
	}
}

func (s *RedisSessionStore) key(id string) string {
	return s.prefix + id
}

// Save writes the session and resets its expiry.
func (s *RedisSessionStore) Save(ctx context.Context, sess *Session) error {
	sess.ExpiresAt = time.Now().Add(s.ttl)

	payload, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, defaultSessionRedisTimeout)
	defer cancel()

	if err := s.client.Set(ctx, s.key(sess.ID), payload, s.ttl).Err(); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// Get loads a session owned by userID.
func (s *RedisSessionStore) Get(ctx context.Context, userID, id string) (*Session, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, ErrSessionExpired
	}

	ctx, cancel := context.WithTimeout(ctx, defaultSessionRedisTimeout)
	defer cancel()

	payload, err := s.client.Get(ctx, s.key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrSessionExpired
	}
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}

	var sess Session
	if err := json.Unmarshal(payload, &sess); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	if sess.UserID != userID {
		return nil, ErrSessionExpired
	}
	if sess.ID == "" {
		sess.ID = id
	}

	return &sess, nil
}

// Delete removes a session.
func (s *RedisSessionStore) Delete(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, defaultSessionRedisTimeout)
	defer cancel()

	return s.client.Del(ctx, s.key(id)).Err()
}

var _ SessionStore = (*RedisSessionStore)(nil)
