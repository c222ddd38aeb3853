package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// SessionRepository tracks live admin tokens so they can be revoked before
// they expire.
type SessionRepository interface {
	Store(ctx context.Context, kind string, adminID uuid.UUID, tokenID string, ttl time.Duration) error
	Exists(ctx context.Context, kind string, adminID uuid.UUID, tokenID string) (bool, error)
	Revoke(ctx context.Context, kind string, adminID uuid.UUID, tokenID string) error
}
