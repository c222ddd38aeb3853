package converter

import (
	"clinic-anamnesis-api/internal/delivery/dto"
	"clinic-anamnesis-api/internal/domain/entity"
)

// PatientToResponse converts a Patient entity to PatientResponse DTO
func PatientToResponse(patient *entity.Patient) *dto.PatientResponse {
	if patient == nil {
		return nil
	}

	resp := &dto.PatientResponse{
		ID:        patient.ID,
		Name:      patient.Name,
		Email:     patient.Email,
		Phone:     patient.Phone,
		CreatedAt: patient.CreatedAt,
		UpdatedAt: patient.UpdatedAt,
	}
	if patient.BirthDate != nil {
		birthDate := patient.BirthDate.Format(entity.DateLayout)
		resp.BirthDate = &birthDate
	}
	return resp
}

// PatientsToResponses converts a slice of Patient entities. The result is
// never nil so an empty table encodes as [].
func PatientsToResponses(patients []entity.Patient) []dto.PatientResponse {
	responses := make([]dto.PatientResponse, len(patients))
	for i := range patients {
		responses[i] = *PatientToResponse(&patients[i])
	}
	return responses
}
