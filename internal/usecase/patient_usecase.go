package usecase

import (
	"context"
	"errors"
	"strconv"
	"time"

	"clinic-anamnesis-api/internal/converter"
	"clinic-anamnesis-api/internal/delivery/dto"
	"clinic-anamnesis-api/internal/delivery/http/middleware"
	"clinic-anamnesis-api/internal/domain/entity"
	"clinic-anamnesis-api/internal/domain/event"
	"clinic-anamnesis-api/internal/domain/repository"
	"clinic-anamnesis-api/internal/service"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	auditEntityPatient = "patient"
	publishTimeout     = 5 * time.Second
)

type PatientUsecase interface {
	List(ctx context.Context) ([]dto.PatientResponse, error)
	Get(ctx context.Context, id int64) (*dto.PatientResponse, error)
	Create(ctx context.Context, req *dto.CreatePatientRequest) (*dto.PatientResponse, error)
	Update(ctx context.Context, req *dto.UpdatePatientRequest) (*dto.PatientResponse, error)
	Delete(ctx context.Context, id int64) error
}

type patientUsecase struct {
	log          *logrus.Logger
	tx           repository.Transactor
	patientRepo  repository.PatientRepository
	auditService service.AuditService
	publisher    event.Publisher
	now          func() time.Time
}

func NewPatientUsecase(
	log *logrus.Logger,
	tx repository.Transactor,
	patientRepo repository.PatientRepository,
	auditService service.AuditService,
	publisher event.Publisher,
) PatientUsecase {
	if publisher == nil {
		publisher = event.NoopPublisher{}
	}
	return &patientUsecase{
		log:          log,
		tx:           tx,
		patientRepo:  patientRepo,
		auditService: auditService,
		publisher:    publisher,
		now:          storeNow,
	}
}

// storeNow matches the microsecond precision of TIMESTAMPTZ so values read
// back equal the values written.
func storeNow() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}

// List returns every patient, newest first; equal timestamps keep insertion
// order.
func (u *patientUsecase) List(ctx context.Context) ([]dto.PatientResponse, error) {
	patients, err := u.patientRepo.FindAll(ctx)
	if err != nil {
		return nil, u.classify("list patients", err)
	}
	return converter.PatientsToResponses(patients), nil
}

func (u *patientUsecase) Get(ctx context.Context, id int64) (*dto.PatientResponse, error) {
	if id <= 0 {
		return nil, ErrPatientNotFound
	}
	patient, err := u.patientRepo.FindByID(ctx, id)
	if err != nil {
		return nil, u.classify("get patient", err)
	}
	if patient == nil {
		return nil, ErrPatientNotFound
	}
	return converter.PatientToResponse(patient), nil
}

func (u *patientUsecase) Create(ctx context.Context, req *dto.CreatePatientRequest) (*dto.PatientResponse, error) {
	req.Normalize()

	problems := map[string]string{}
	if req.Name == "" {
		problems["name"] = "name is required"
	}
	if req.Email == "" {
		problems["email"] = "email is required"
	}
	var birthDate *time.Time
	if req.BirthDate != nil {
		d, err := parseDate(*req.BirthDate)
		if err != nil {
			problems["birth_date"] = "birth_date must be a date in the format YYYY-MM-DD"
		} else {
			birthDate = &d
		}
	}
	if len(problems) > 0 {
		return nil, &ValidationError{Message: "Validation failed", Fields: problems}
	}

	now := u.now()
	patient := &entity.Patient{
		Name:      req.Name,
		Email:     req.Email,
		Phone:     req.Phone,
		BirthDate: birthDate,
		CreatedAt: now,
		UpdatedAt: now,
	}

	err := u.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := u.patientRepo.Create(ctx, patient); err != nil {
			return err
		}
		return u.auditService.LogCreate(ctx, actor(ctx), entity.AuditActionPatientCreate, auditEntityPatient,
			patientKey(patient.ID), converter.PatientToResponse(patient))
	})
	if err != nil {
		return nil, u.classify("create patient", err)
	}

	resp := converter.PatientToResponse(patient)
	u.publish(ctx, event.PatientCreated, patient.ID, resp)
	return resp, nil
}

// Update applies a partial update. Only allowlisted columns present in the
// request change; all of them change in one statement or none do.
func (u *patientUsecase) Update(ctx context.Context, req *dto.UpdatePatientRequest) (*dto.PatientResponse, error) {
	if req.ID <= 0 {
		return nil, ErrPatientNotFound
	}

	values, err := BuildPatientAssignments(req.Fields)
	if err != nil {
		return nil, err
	}

	var before, after *entity.Patient
	err = u.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		var err error
		before, err = u.patientRepo.FindByIDForUpdate(ctx, req.ID)
		if err != nil {
			return err
		}
		if before == nil {
			return ErrPatientNotFound
		}

		updatedAt := u.now()
		if updatedAt.Before(before.UpdatedAt) {
			updatedAt = before.UpdatedAt
		}
		values[entity.PatientColumnUpdatedAt] = updatedAt

		n, err := u.patientRepo.UpdateColumns(ctx, req.ID, values)
		if err != nil {
			return err
		}
		if n == 0 {
			return ErrPatientNotFound
		}

		after, err = u.patientRepo.FindByID(ctx, req.ID)
		if err != nil {
			return err
		}
		if after == nil {
			return ErrPatientNotFound
		}

		return u.auditService.LogUpdate(ctx, actor(ctx), entity.AuditActionPatientUpdate, auditEntityPatient,
			patientKey(req.ID), converter.PatientToResponse(before), converter.PatientToResponse(after))
	})
	if err != nil {
		return nil, u.classify("update patient", err)
	}

	resp := converter.PatientToResponse(after)
	u.publish(ctx, event.PatientUpdated, after.ID, resp)
	return resp, nil
}

// Delete removes the row for good. The audit entry keeps a copy of the
// deleted record.
func (u *patientUsecase) Delete(ctx context.Context, id int64) error {
	if id <= 0 {
		return ErrPatientNotFound
	}

	err := u.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		existing, err := u.patientRepo.FindByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if existing == nil {
			return ErrPatientNotFound
		}

		n, err := u.patientRepo.Delete(ctx, id)
		if err != nil {
			return err
		}
		if n == 0 {
			return ErrPatientNotFound
		}

		return u.auditService.LogDelete(ctx, actor(ctx), entity.AuditActionPatientDelete, auditEntityPatient,
			patientKey(id), converter.PatientToResponse(existing))
	})
	if err != nil {
		return u.classify("delete patient", err)
	}

	u.publish(ctx, event.PatientDeleted, id, nil)
	return nil
}

// classify passes domain errors through and wraps everything else as a
// StoreError, logging the cause.
func (u *patientUsecase) classify(op string, err error) error {
	var validationErr *ValidationError
	var storeErr *StoreError
	if errors.Is(err, ErrPatientNotFound) || errors.As(err, &validationErr) || errors.As(err, &storeErr) {
		return err
	}
	u.log.WithError(err).WithField("op", op).Warn("Patient store operation failed")
	return &StoreError{Op: op, Err: err}
}

// publish runs after commit. A failed publish is logged and never undoes or
// retries the change.
func (u *patientUsecase) publish(ctx context.Context, eventType string, patientID int64, patient *dto.PatientResponse) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	evt := event.PatientEvent{
		ID:         uuid.New().String(),
		Type:       eventType,
		PatientID:  patientID,
		OccurredAt: u.now(),
	}
	if patient != nil {
		evt.Patient = patient
	}

	if err := u.publisher.Publish(ctx, evt); err != nil {
		u.log.WithError(err).WithFields(logrus.Fields{
			"event_type": eventType,
			"patient_id": patientID,
		}).Warn("Failed to publish patient event")
	}
}

func actor(ctx context.Context) *uuid.UUID {
	adminID, ok := middleware.GetAdminIDFromContext(ctx)
	if !ok {
		return nil
	}
	return &adminID
}

func patientKey(id int64) string {
	return strconv.FormatInt(id, 10)
}
