package repository

import (
	"context"
	"errors"

	"clinic-anamnesis-api/internal/domain/entity"
	domainRepo "clinic-anamnesis-api/internal/domain/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type adminUserRepository struct {
	db *gorm.DB
}

func NewAdminUserRepository(db *gorm.DB) domainRepo.AdminUserRepository {
	return &adminUserRepository{db: db}
}

func (r *adminUserRepository) Create(ctx context.Context, admin *entity.AdminUser) error {
	return conn(ctx, r.db).Create(admin).Error
}

func (r *adminUserRepository) FindByEmail(ctx context.Context, email string) (*entity.AdminUser, error) {
	var admin entity.AdminUser
	err := conn(ctx, r.db).Where("email = ?", email).First(&admin).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &admin, nil
}

func (r *adminUserRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.AdminUser, error) {
	var admin entity.AdminUser
	err := conn(ctx, r.db).Where("id = ?", id).First(&admin).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &admin, nil
}
