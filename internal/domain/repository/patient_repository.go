package repository

import (
	"context"

	"clinic-anamnesis-api/internal/domain/entity"
)

type PatientRepository interface {
	Create(ctx context.Context, patient *entity.Patient) error
	FindAll(ctx context.Context) ([]entity.Patient, error)
	FindByID(ctx context.Context, id int64) (*entity.Patient, error)
	// FindByIDForUpdate reads the row and locks it until the surrounding
	// transaction ends.
	FindByIDForUpdate(ctx context.Context, id int64) (*entity.Patient, error)
	// UpdateColumns assigns the given column values to the row with id and
	// reports how many rows matched. Keys must come from
	// entity.PatientMutableColumns() or entity.PatientColumnUpdatedAt.
	UpdateColumns(ctx context.Context, id int64, values map[string]interface{}) (int64, error)
	Delete(ctx context.Context, id int64) (int64, error)
}
