package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var ErrNotFound = errors.New("session: not found")

const (
	keyPrefix  = "session:"
	defaultTTL = time.Hour
)

// Identity is the verified caller identity attached to a session. Cart
// operations key on UserID and never on anything the client supplies.
type Identity struct {
	UserID     string `json:"user_id"`
	Privileged bool   `json:"privileged"`
}

// Store keeps sessions in Redis so both front ends resolve the same identity.
type Store struct {
	client *redis.Client
	ttl    time.Duration
}

func NewStore(client *redis.Client) *Store {
	return &Store{client: client, ttl: defaultTTL}
}

// Create issues a new session ID for the identity.
func (s *Store) Create(ctx context.Context, id Identity) (string, error) {
	payload, err := json.Marshal(id)
	if err != nil {
		return "", fmt.Errorf("session: encode: %w", err)
	}
	sid := uuid.NewString()
	if err := s.client.Set(ctx, keyPrefix+sid, payload, s.ttl).Err(); err != nil {
		return "", fmt.Errorf("session: store: %w", err)
	}
	return sid, nil
}

// Get resolves a session ID to its identity, or ErrNotFound.
func (s *Store) Get(ctx context.Context, sid string) (Identity, error) {
	raw, err := s.client.Get(ctx, keyPrefix+sid).Bytes()
	if errors.Is(err, redis.Nil) {
		return Identity{}, ErrNotFound
	}
	if err != nil {
		return Identity{}, fmt.Errorf("session: load: %w", err)
	}
	var id Identity
	if err := json.Unmarshal(raw, &id); err != nil {
		return Identity{}, fmt.Errorf("session: decode: %w", err)
	}
	return id, nil
}
