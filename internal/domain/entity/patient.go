package entity

import (
	"time"
)

// Patient is a person registered through the anamnesis questionnaire or the
// admin dashboard.
type Patient struct {
	ID        int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	Name      string     `gorm:"type:text;not null" json:"name"`
	Email     string     `gorm:"type:text;not null" json:"email"`
	Phone     *string    `gorm:"type:text" json:"phone"`
	BirthDate *time.Time `gorm:"type:date" json:"birth_date"`
	CreatedAt time.Time  `gorm:"not null;autoCreateTime:false" json:"created_at"`
	UpdatedAt time.Time  `gorm:"not null;autoUpdateTime:false" json:"updated_at"`
}

func (Patient) TableName() string {
	return "patients"
}

// Column names of the patients table.
const (
	PatientColumnID        = "id"
	PatientColumnName      = "name"
	PatientColumnEmail     = "email"
	PatientColumnPhone     = "phone"
	PatientColumnBirthDate = "birth_date"
	PatientColumnCreatedAt = "created_at"
	PatientColumnUpdatedAt = "updated_at"
)

// patientMutableColumns is the closed set of columns a partial update may
// assign, in the order assignments are built.
var patientMutableColumns = [...]string{
	PatientColumnName,
	PatientColumnEmail,
	PatientColumnPhone,
	PatientColumnBirthDate,
}

// PatientMutableColumns returns a fresh copy of the columns a partial update
// may assign. Update statements are only ever built from these constants.
func PatientMutableColumns() []string {
	cols := make([]string, len(patientMutableColumns))
	copy(cols, patientMutableColumns[:])
	return cols
}

// IsPatientMutableColumn reports whether name is one of the mutable columns.
func IsPatientMutableColumn(name string) bool {
	switch name {
	case PatientColumnName, PatientColumnEmail, PatientColumnPhone, PatientColumnBirthDate:
		return true
	}
	return false
}

// DateLayout is the wire and storage format of calendar dates.
const DateLayout = "2006-01-02"
