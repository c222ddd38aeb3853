package event

import (
	"context"
	"time"
)

const (
	PatientCreated = "patient.created"
	PatientUpdated = "patient.updated"
	PatientDeleted = "patient.deleted"
)

// PatientEvent announces a committed change to a patient record.
type PatientEvent struct {
	ID         string      `json:"id"`
	Type       string      `json:"type"`
	PatientID  int64       `json:"patient_id"`
	OccurredAt time.Time   `json:"occurred_at"`
	Patient    interface{} `json:"patient,omitempty"`
}

type Publisher interface {
	Publish(ctx context.Context, evt PatientEvent) error
}

// NoopPublisher drops every event. Used when no broker is configured.
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, PatientEvent) error { return nil }
