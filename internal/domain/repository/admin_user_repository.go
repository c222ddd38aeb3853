package repository

import (
	"context"

	"clinic-anamnesis-api/internal/domain/entity"

	"github.com/google/uuid"
)

type AdminUserRepository interface {
	Create(ctx context.Context, admin *entity.AdminUser) error
	FindByEmail(ctx context.Context, email string) (*entity.AdminUser, error)
	FindByID(ctx context.Context, id uuid.UUID) (*entity.AdminUser, error)
}
