// internal/services/session_store.go
package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/michel-brotherhood/marca-facil-formulario/internal/wizard"
)

var ErrSessionNotFound = errors.New("session not found")

// SessionStore keeps engine snapshots between requests.
type SessionStore interface {
	Load(ctx context.Context, id uuid.UUID) (*wizard.State, error)
	Save(ctx context.Context, id uuid.UUID, st wizard.State) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type RedisSessionStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisSessionStore(client *redis.Client, ttl time.Duration) *RedisSessionStore {
	return &RedisSessionStore{client: client, ttl: ttl}
}

func sessionKey(id uuid.UUID) string {
	return "session:" + id.String()
}

func (s *RedisSessionStore) Load(ctx context.Context, id uuid.UUID) (*wizard.State, error) {
	data, err := s.client.Get(ctx, sessionKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}

	var st wizard.State
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	return &st, nil
}

// Save refreshes the TTL on every write, so active sessions do not expire.
func (s *RedisSessionStore) Save(ctx context.Context, id uuid.UUID, st wizard.State) error {
	data, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := s.client.Set(ctx, sessionKey(id), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

func (s *RedisSessionStore) Delete(ctx context.Context, id uuid.UUID) error {
	return s.client.Del(ctx, sessionKey(id)).Err()
}

// MemorySessionStore is used when Redis is disabled (development, tests).
// Snapshots are stored JSON-encoded so callers never share record memory.
type MemorySessionStore struct {
	mu       sync.RWMutex
	ttl      time.Duration
	sessions map[uuid.UUID]memorySession
	now      func() time.Time
}

type memorySession struct {
	data      []byte
	expiresAt time.Time
}

func NewMemorySessionStore(ttl time.Duration) *MemorySessionStore {
	return &MemorySessionStore{
		ttl:      ttl,
		sessions: make(map[uuid.UUID]memorySession),
		now:      time.Now,
	}
}

func (s *MemorySessionStore) Load(_ context.Context, id uuid.UUID) (*wizard.State, error) {
	s.mu.RLock()
	sess, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok || s.now().After(sess.expiresAt) {
		return nil, ErrSessionNotFound
	}

	var st wizard.State
	if err := json.Unmarshal(sess.data, &st); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	return &st, nil
}

func (s *MemorySessionStore) Save(_ context.Context, id uuid.UUID, st wizard.State) error {
	data, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[id] = memorySession{data: data, expiresAt: s.now().Add(s.ttl)}
	s.evictExpiredLocked()
	return nil
}

func (s *MemorySessionStore) Delete(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
	return nil
}

func (s *MemorySessionStore) evictExpiredLocked() {
	now := s.now()
	for id, sess := range s.sessions {
		if now.After(sess.expiresAt) {
			delete(s.sessions, id)
		}
	}
}
