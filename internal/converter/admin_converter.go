package converter

import (
	"clinic-anamnesis-api/internal/delivery/dto"
	"clinic-anamnesis-api/internal/domain/entity"
)

// AdminToResponse converts an AdminUser entity to AdminResponse DTO
func AdminToResponse(admin *entity.AdminUser) *dto.AdminResponse {
	if admin == nil {
		return nil
	}

	return &dto.AdminResponse{
		ID:        admin.ID,
		Email:     admin.Email,
		FullName:  admin.FullName,
		IsActive:  admin.IsActive,
		CreatedAt: admin.CreatedAt,
		UpdatedAt: admin.UpdatedAt,
	}
}
