package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"safenest/internal/auth/models"
	id "safenest/pkg/domain"
	"safenest/pkg/platform/sentinel"
)

const sessionKeyPrefix = "safenest:session:"

// RedisStore keeps each session as a JSON value that expires with it.
type RedisStore struct {
	client redis.UniversalClient
	now    func() time.Time
}

func NewRedis(client redis.UniversalClient) *RedisStore {
	return &RedisStore{client: client, now: time.Now}
}

func key(sessionID id.SessionID) string {
	return sessionKeyPrefix + sessionID.String()
}

// Create stores the session with a TTL matching its expiry. SETNX keeps an
// existing session from being overwritten.
func (s *RedisStore) Create(ctx context.Context, session *models.Session) error {
	ttl := session.ExpiresAt.Sub(s.now())
	if ttl <= 0 {
		return fmt.Errorf("session %s already expired", session.ID)
	}
	payload, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	ok, err := s.client.SetNX(ctx, key(session.ID), payload, ttl).Result()
	if err != nil {
		return fmt.Errorf("store session: %w", err)
	}
	if !ok {
		return sentinel.ErrConflict
	}
	return nil
}

func (s *RedisStore) FindByID(ctx context.Context, sessionID id.SessionID) (*models.Session, error) {
	raw, err := s.client.Get(ctx, key(sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	var session models.Session
	if err := json.Unmarshal(raw, &session); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	return &session, nil
}

func (s *RedisStore) Delete(ctx context.Context, sessionID id.SessionID) error {
	n, err := s.client.Del(ctx, key(sessionID)).Result()
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	if n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}
