package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Priyesh-Ghadge/PCCOER-HELP-DESK/internal/models"
)

const sessionKeyPrefix = "verification:session:"

// SessionRepository stores verification sessions in Redis, keyed per actor.
// Keys carry a TTL that is refreshed on every save, which bounds requester
// inactivity without affecting active sessions.
type SessionRepository struct {
	client *redis.Client
	ttl    time.Duration
}

// NewSessionRepository constructs a SessionRepository.
func NewSessionRepository(client *redis.Client, ttl time.Duration) *SessionRepository {
	return &SessionRepository{client: client, ttl: ttl}
}

// Find returns the live session for an actor, or (nil, nil) when none exists.
func (r *SessionRepository) Find(ctx context.Context, actorID string) (*models.VerificationSession, error) {
	raw, err := r.client.Get(ctx, sessionKeyPrefix+actorID).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("get session %s: %w", actorID, err)
	}

	var session models.VerificationSession
	if err := json.Unmarshal(raw, &session); err != nil {
		return nil, fmt.Errorf("unmarshal session %s: %w", actorID, err)
	}
	return &session, nil
}

// Save writes the session back and refreshes its TTL.
func (r *SessionRepository) Save(ctx context.Context, session *models.VerificationSession) error {
	payload, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("marshal session %s: %w", session.ActorID, err)
	}
	if err := r.client.Set(ctx, sessionKeyPrefix+session.ActorID, payload, r.ttl).Err(); err != nil {
		return fmt.Errorf("set session %s: %w", session.ActorID, err)
	}
	return nil
}

// Delete removes the actor's session. Deleting an absent session is a no-op.
func (r *SessionRepository) Delete(ctx context.Context, actorID string) error {
	if err := r.client.Del(ctx, sessionKeyPrefix+actorID).Err(); err != nil {
		return fmt.Errorf("delete session %s: %w", actorID, err)
	}
	return nil
}
