package repository

import (
	"context"
	"errors"

	"clinic-anamnesis-api/internal/domain/entity"
	domainRepo "clinic-anamnesis-api/internal/domain/repository"

	"gorm.io/gorm"
)

type auditLogRepository struct {
	db *gorm.DB
}

func NewAuditLogRepository(db *gorm.DB) domainRepo.AuditLogRepository {
	return &auditLogRepository{db: db}
}

func (r *auditLogRepository) Create(ctx context.Context, log *entity.AuditLog) error {
	return conn(ctx, r.db).Create(log).Error
}

// FindAll returns entries newest first, optionally restricted to one entity.
func (r *auditLogRepository) FindAll(ctx context.Context, entityID string) ([]entity.AuditLog, error) {
	logs := []entity.AuditLog{}
	query := conn(ctx, r.db).Order("created_at DESC").Order("id DESC")
	if entityID != "" {
		query = query.Where("entity_id = ?", entityID)
	}
	if err := query.Find(&logs).Error; err != nil {
		return nil, err
	}
	return logs, nil
}

func (r *auditLogRepository) FindByID(ctx context.Context, id int64) (*entity.AuditLog, error) {
	var log entity.AuditLog
	err := conn(ctx, r.db).Where("id = ?", id).First(&log).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &log, nil
}
