package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// AuditLog represents a system audit trail entry
type AuditLog struct {
	ID        int64             `gorm:"primaryKey;autoIncrement" json:"id"`
	AdminID   *uuid.UUID        `gorm:"type:uuid;index" json:"admin_id,omitempty"`
	Action    string            `gorm:"type:varchar(100);not null;index" json:"action"`
	EntityID  string            `gorm:"type:varchar(64);index" json:"entity_id"`
	Metadata  datatypes.JSONMap `gorm:"type:jsonb" json:"metadata,omitempty"`
	CreatedAt time.Time         `gorm:"autoCreateTime;index" json:"created_at"`
}

func (AuditLog) TableName() string {
	return "audit_logs"
}

// Audit actions
const (
	AuditActionPatientCreate = "patient.create"
	AuditActionPatientUpdate = "patient.update"
	AuditActionPatientDelete = "patient.delete"
	AuditActionAdminLogin    = "admin.login"
	AuditActionAdminLogout   = "admin.logout"
	AuditActionAdminCreate   = "admin.create"
)
