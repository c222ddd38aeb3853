package dto

import (
	"encoding/json"
	"strings"
	"time"
)

// Request DTOs

type CreatePatientRequest struct {
	Name      string  `json:"name" validate:"required"`
	Email     string  `json:"email" validate:"required"`
	Phone     *string `json:"phone"`
	BirthDate *string `json:"birth_date" validate:"omitempty,datetime=2006-01-02"`
}

// Normalize trims every field and turns blank optional fields into absent
// ones.
func (r *CreatePatientRequest) Normalize() {
	r.Name = strings.TrimSpace(r.Name)
	r.Email = strings.TrimSpace(r.Email)
	r.Phone = trimOptional(r.Phone)
	r.BirthDate = trimOptional(r.BirthDate)
}

// UpdatePatientRequest carries the raw JSON value of every key the caller
// sent besides id. Keys are checked against the mutable column allowlist
// before anything is decoded.
type UpdatePatientRequest struct {
	ID     int64
	Fields map[string]json.RawMessage
}

// Response DTOs

type PatientResponse struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     *string   `json:"phone"`
	BirthDate *string   `json:"birth_date"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func trimOptional(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
