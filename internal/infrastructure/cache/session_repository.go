package cache

import (
	"context"
	"fmt"
	"time"

	domainRepo "clinic-anamnesis-api/internal/domain/repository"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

type redisSessionRepository struct {
	client *redis.Client
}

// NewSessionRepository stores one key per issued token:
// <kind>_token:<admin id>:<token id>.
func NewSessionRepository(client *redis.Client) domainRepo.SessionRepository {
	return &redisSessionRepository{client: client}
}

func SessionKey(kind string, adminID uuid.UUID, tokenID string) string {
	return fmt.Sprintf("%s_token:%s:%s", kind, adminID.String(), tokenID)
}

func (r *redisSessionRepository) Store(ctx context.Context, kind string, adminID uuid.UUID, tokenID string, ttl time.Duration) error {
	return r.client.Set(ctx, SessionKey(kind, adminID, tokenID), "valid", ttl).Err()
}

func (r *redisSessionRepository) Exists(ctx context.Context, kind string, adminID uuid.UUID, tokenID string) (bool, error) {
	n, err := r.client.Exists(ctx, SessionKey(kind, adminID, tokenID)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *redisSessionRepository) Revoke(ctx context.Context, kind string, adminID uuid.UUID, tokenID string) error {
	return r.client.Del(ctx, SessionKey(kind, adminID, tokenID)).Err()
}
