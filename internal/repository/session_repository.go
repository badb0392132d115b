package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/noah-isme/incident-reporter/internal/models"
)

// ErrSessionNotFound is returned when a session id is unknown or expired.
var ErrSessionNotFound = errors.New("session not found")

const sessionKeyPrefix = "incident:session:"

// MemorySessionRepository keeps sessions in process memory. Expired entries
// are dropped when read.
type MemorySessionRepository struct {
	mu       sync.RWMutex
	sessions map[string]models.SessionState
	now      func() time.Time
}

// NewMemorySessionRepository constructs an empty in-memory store.
func NewMemorySessionRepository() *MemorySessionRepository {
	return &MemorySessionRepository{
		sessions: make(map[string]models.SessionState),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Get returns a copy of the stored session.
func (r *MemorySessionRepository) Get(_ context.Context, id string) (*models.SessionState, error) {
	r.mu.RLock()
	state, ok := r.sessions[id]
	r.mu.RUnlock()
	if !ok {
		return nil, ErrSessionNotFound
	}
	if state.Expired(r.now()) {
		r.mu.Lock()
		delete(r.sessions, id)
		r.mu.Unlock()
		return nil, ErrSessionNotFound
	}
	return &state, nil
}

// Save stores the session, replacing any previous value.
func (r *MemorySessionRepository) Save(_ context.Context, state *models.SessionState) error {
	if state == nil || state.ID == "" {
		return fmt.Errorf("save session: missing id")
	}
	r.mu.Lock()
	r.sessions[state.ID] = *state
	r.mu.Unlock()
	return nil
}

// Delete removes the session. Unknown ids are ignored.
func (r *MemorySessionRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	delete(r.sessions, id)
	r.mu.Unlock()
	return nil
}

// Len reports how many sessions are held, expired ones included.
func (r *MemorySessionRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// RedisSessionRepository stores sessions as JSON values with a TTL matching ExpiresAt.
type RedisSessionRepository struct {
	client *redis.Client
}

// NewRedisSessionRepository constructs a Redis-backed session store.
func NewRedisSessionRepository(client *redis.Client) *RedisSessionRepository {
	return &RedisSessionRepository{client: client}
}

// Get loads and decodes the session.
func (r *RedisSessionRepository) Get(ctx context.Context, id string) (*models.SessionState, error) {
	raw, err := r.client.Get(ctx, sessionKeyPrefix+id).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("redis get session: %w", err)
	}
	var state models.SessionState
	if err := json.Unmarshal(raw, &state); err != nil {
		return nil, fmt.Errorf("unmarshal session: %w", err)
	}
	if state.Expired(time.Now().UTC()) {
		return nil, ErrSessionNotFound
	}
	return &state, nil
}

// Save encodes the session and sets it with the remaining lifetime as TTL.
func (r *RedisSessionRepository) Save(ctx context.Context, state *models.SessionState) error {
	if state == nil || state.ID == "" {
		return fmt.Errorf("save session: missing id")
	}
	payload, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	ttl := time.Until(state.ExpiresAt)
	if state.ExpiresAt.IsZero() {
		ttl = 0
	} else if ttl <= 0 {
		return r.Delete(ctx, state.ID)
	}
	if err := r.client.Set(ctx, sessionKeyPrefix+state.ID, payload, ttl).Err(); err != nil {
		return fmt.Errorf("redis set session: %w", err)
	}
	return nil
}

// Delete removes the session key.
func (r *RedisSessionRepository) Delete(ctx context.Context, id string) error {
	if err := r.client.Del(ctx, sessionKeyPrefix+id).Err(); err != nil {
		return fmt.Errorf("redis delete session: %w", err)
	}
	return nil
}
