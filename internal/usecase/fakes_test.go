package usecase

import (
	"context"
	"errors"
	"io"
	"sort"
	"time"

	"clinic-anamnesis-api/internal/domain/entity"
	"clinic-anamnesis-api/internal/domain/event"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

// memPatientRepo keeps patients in memory and mimics the column semantics of
// the gorm repository.
type memPatientRepo struct {
	rows       map[int64]entity.Patient
	nextID     int64
	err        error
	updateArgs []map[string]interface{}
}

func newMemPatientRepo() *memPatientRepo {
	return &memPatientRepo{rows: map[int64]entity.Patient{}, nextID: 1}
}

func (r *memPatientRepo) Create(_ context.Context, patient *entity.Patient) error {
	if r.err != nil {
		return r.err
	}
	patient.ID = r.nextID
	r.nextID++
	r.rows[patient.ID] = *patient
	return nil
}

func (r *memPatientRepo) FindAll(context.Context) ([]entity.Patient, error) {
	if r.err != nil {
		return nil, r.err
	}
	patients := make([]entity.Patient, 0, len(r.rows))
	for _, p := range r.rows {
		patients = append(patients, p)
	}
	sort.Slice(patients, func(i, j int) bool {
		if !patients[i].CreatedAt.Equal(patients[j].CreatedAt) {
			return patients[i].CreatedAt.After(patients[j].CreatedAt)
		}
		return patients[i].ID < patients[j].ID
	})
	return patients, nil
}

func (r *memPatientRepo) FindByID(_ context.Context, id int64) (*entity.Patient, error) {
	if r.err != nil {
		return nil, r.err
	}
	p, ok := r.rows[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (r *memPatientRepo) FindByIDForUpdate(ctx context.Context, id int64) (*entity.Patient, error) {
	return r.FindByID(ctx, id)
}

func (r *memPatientRepo) UpdateColumns(_ context.Context, id int64, values map[string]interface{}) (int64, error) {
	if r.err != nil {
		return 0, r.err
	}
	r.updateArgs = append(r.updateArgs, values)
	p, ok := r.rows[id]
	if !ok {
		return 0, nil
	}
	for col, v := range values {
		switch col {
		case entity.PatientColumnName:
			p.Name = v.(string)
		case entity.PatientColumnEmail:
			p.Email = v.(string)
		case entity.PatientColumnPhone:
			if v == nil {
				p.Phone = nil
			} else {
				s := v.(string)
				p.Phone = &s
			}
		case entity.PatientColumnBirthDate:
			if v == nil {
				p.BirthDate = nil
			} else {
				d := v.(time.Time)
				p.BirthDate = &d
			}
		case entity.PatientColumnUpdatedAt:
			p.UpdatedAt = v.(time.Time)
		default:
			return 0, errors.New("column " + col + " does not exist")
		}
	}
	r.rows[id] = p
	return 1, nil
}

func (r *memPatientRepo) Delete(_ context.Context, id int64) (int64, error) {
	if r.err != nil {
		return 0, r.err
	}
	if _, ok := r.rows[id]; !ok {
		return 0, nil
	}
	delete(r.rows, id)
	return 1, nil
}

// memTransactor restores the repository snapshot when fn fails.
type memTransactor struct {
	repo *memPatientRepo
}

func (t memTransactor) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	snapshot := make(map[int64]entity.Patient, len(t.repo.rows))
	for id, p := range t.repo.rows {
		snapshot[id] = p
	}
	if err := fn(ctx); err != nil {
		t.repo.rows = snapshot
		return err
	}
	return nil
}

type auditCall struct {
	adminID  *uuid.UUID
	action   string
	entityID string
	oldValue interface{}
	newValue interface{}
}

type fakeAuditService struct {
	calls []auditCall
	err   error
}

func (f *fakeAuditService) LogCreate(_ context.Context, adminID *uuid.UUID, action, _, entityID string, newValue interface{}) error {
	return f.record(auditCall{adminID: adminID, action: action, entityID: entityID, newValue: newValue})
}

func (f *fakeAuditService) LogUpdate(_ context.Context, adminID *uuid.UUID, action, _, entityID string, oldValue, newValue interface{}) error {
	return f.record(auditCall{adminID: adminID, action: action, entityID: entityID, oldValue: oldValue, newValue: newValue})
}

func (f *fakeAuditService) LogDelete(_ context.Context, adminID *uuid.UUID, action, _, entityID string, oldValue interface{}) error {
	return f.record(auditCall{adminID: adminID, action: action, entityID: entityID, oldValue: oldValue})
}

func (f *fakeAuditService) LogEvent(_ context.Context, adminID *uuid.UUID, action string, details map[string]interface{}) error {
	return f.record(auditCall{adminID: adminID, action: action, newValue: details})
}

func (f *fakeAuditService) record(c auditCall) error {
	if f.err != nil {
		return f.err
	}
	f.calls = append(f.calls, c)
	return nil
}

type fakePublisher struct {
	events []event.PatientEvent
	err    error
}

func (f *fakePublisher) Publish(_ context.Context, evt event.PatientEvent) error {
	f.events = append(f.events, evt)
	return f.err
}

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) Now() time.Time {
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.t = c.t.Add(d)
}
