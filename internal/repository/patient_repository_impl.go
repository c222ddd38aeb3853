package repository

import (
	"context"
	"errors"

	"clinic-anamnesis-api/internal/domain/entity"
	domainRepo "clinic-anamnesis-api/internal/domain/repository"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type patientRepository struct {
	db *gorm.DB
}

func NewPatientRepository(db *gorm.DB) domainRepo.PatientRepository {
	return &patientRepository{db: db}
}

func (r *patientRepository) Create(ctx context.Context, patient *entity.Patient) error {
	return conn(ctx, r.db).Create(patient).Error
}

func (r *patientRepository) FindAll(ctx context.Context) ([]entity.Patient, error) {
	patients := []entity.Patient{}
	err := conn(ctx, r.db).
		Order(entity.PatientColumnCreatedAt + " DESC").
		Order(entity.PatientColumnID + " ASC").
		Find(&patients).Error
	if err != nil {
		return nil, err
	}
	return patients, nil
}

func (r *patientRepository) FindByID(ctx context.Context, id int64) (*entity.Patient, error) {
	return r.find(conn(ctx, r.db), id)
}

func (r *patientRepository) FindByIDForUpdate(ctx context.Context, id int64) (*entity.Patient, error) {
	return r.find(conn(ctx, r.db).Clauses(clause.Locking{Strength: "UPDATE"}), id)
}

func (r *patientRepository) find(db *gorm.DB, id int64) (*entity.Patient, error) {
	var patient entity.Patient
	err := db.Where("id = ?", id).First(&patient).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &patient, nil
}

// UpdateColumns issues UPDATE patients SET <cols> WHERE id = ? with every
// value bound as a parameter. Column names are quoted by GORM.
func (r *patientRepository) UpdateColumns(ctx context.Context, id int64, values map[string]interface{}) (int64, error) {
	result := conn(ctx, r.db).
		Model(&entity.Patient{}).
		Where("id = ?", id).
		Updates(values)
	return result.RowsAffected, result.Error
}

func (r *patientRepository) Delete(ctx context.Context, id int64) (int64, error) {
	result := conn(ctx, r.db).Where("id = ?", id).Delete(&entity.Patient{})
	return result.RowsAffected, result.Error
}
