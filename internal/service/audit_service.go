package service

import (
	"context"

	"clinic-anamnesis-api/internal/domain/entity"
	"clinic-anamnesis-api/internal/domain/repository"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"
)

// AuditService records who changed what. Calls made with a transactional
// ctx are written in that transaction.
type AuditService interface {
	LogCreate(ctx context.Context, adminID *uuid.UUID, action string, entityName string, entityID string, newValue interface{}) error
	LogUpdate(ctx context.Context, adminID *uuid.UUID, action string, entityName string, entityID string, oldValue, newValue interface{}) error
	LogDelete(ctx context.Context, adminID *uuid.UUID, action string, entityName string, entityID string, oldValue interface{}) error
	LogEvent(ctx context.Context, adminID *uuid.UUID, action string, details map[string]interface{}) error
}

type auditService struct {
	log       *logrus.Logger
	auditRepo repository.AuditLogRepository
}

func NewAuditService(log *logrus.Logger, auditRepo repository.AuditLogRepository) AuditService {
	return &auditService{
		log:       log,
		auditRepo: auditRepo,
	}
}

// LogCreate logs a create action
func (s *auditService) LogCreate(ctx context.Context, adminID *uuid.UUID, action string, entityName string, entityID string, newValue interface{}) error {
	return s.write(ctx, adminID, action, entityID, datatypes.JSONMap{
		"entity":    entityName,
		"old_value": nil,
		"new_value": newValue,
	})
}

// LogUpdate logs an update action with old and new values
func (s *auditService) LogUpdate(ctx context.Context, adminID *uuid.UUID, action string, entityName string, entityID string, oldValue, newValue interface{}) error {
	return s.write(ctx, adminID, action, entityID, datatypes.JSONMap{
		"entity":    entityName,
		"old_value": oldValue,
		"new_value": newValue,
	})
}

// LogDelete logs a delete action with old value
func (s *auditService) LogDelete(ctx context.Context, adminID *uuid.UUID, action string, entityName string, entityID string, oldValue interface{}) error {
	return s.write(ctx, adminID, action, entityID, datatypes.JSONMap{
		"entity":    entityName,
		"old_value": oldValue,
		"new_value": nil,
	})
}

func (s *auditService) LogEvent(ctx context.Context, adminID *uuid.UUID, action string, details map[string]interface{}) error {
	entityID := ""
	if adminID != nil {
		entityID = adminID.String()
	}
	return s.write(ctx, adminID, action, entityID, datatypes.JSONMap(details))
}

func (s *auditService) write(ctx context.Context, adminID *uuid.UUID, action, entityID string, metadata datatypes.JSONMap) error {
	auditLog := &entity.AuditLog{
		AdminID:  adminID,
		Action:   action,
		EntityID: entityID,
		Metadata: metadata,
	}

	if err := s.auditRepo.Create(ctx, auditLog); err != nil {
		s.log.Warnf("Failed to create audit log: %+v", err)
		return err
	}

	return nil
}
