package usecase

import (
	"encoding/json"
	"sort"
	"strings"
	"time"

	"clinic-anamnesis-api/internal/domain/entity"
)

// BuildPatientAssignments turns the fields of a partial update into the
// column → value map handed to the repository.
//
// Every key of fields must be a mutable column; otherwise the whole request
// is rejected. The returned map is filled by walking
// entity.PatientMutableColumns(), so its keys are always the package constants
// and never text taken from the request.
func BuildPatientAssignments(fields map[string]json.RawMessage) (map[string]interface{}, error) {
	var unknown []string
	for key := range fields {
		if !entity.IsPatientMutableColumn(key) {
			unknown = append(unknown, key)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		details := make(map[string]string, len(unknown))
		for _, key := range unknown {
			details[key] = "unknown field"
		}
		return nil, &ValidationError{
			Message: "unknown fields; updatable fields are " + strings.Join(mutableColumnNames(), ", "),
			Fields:  details,
		}
	}

	values := make(map[string]interface{}, len(fields)+1)
	problems := map[string]string{}
	for _, col := range entity.PatientMutableColumns() {
		raw, ok := fields[col]
		if !ok {
			continue
		}
		v, problem := decodePatientColumn(col, raw)
		if problem != "" {
			problems[col] = problem
			continue
		}
		values[col] = v
	}

	if len(problems) > 0 {
		return nil, &ValidationError{Message: "Validation failed", Fields: problems}
	}
	if len(values) == 0 {
		return nil, ErrNothingToUpdate
	}

	return values, nil
}

// decodePatientColumn returns the value to bind for col, or a description of
// what is wrong with raw.
func decodePatientColumn(col string, raw json.RawMessage) (interface{}, string) {
	var s *string
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, col + " must be a string"
	}

	switch col {
	case entity.PatientColumnName, entity.PatientColumnEmail:
		if s == nil {
			return nil, col + " must not be null"
		}
		v := strings.TrimSpace(*s)
		if v == "" {
			return nil, col + " must not be empty"
		}
		return v, ""

	case entity.PatientColumnPhone:
		if s == nil || strings.TrimSpace(*s) == "" {
			return nil, ""
		}
		return strings.TrimSpace(*s), ""

	case entity.PatientColumnBirthDate:
		if s == nil || strings.TrimSpace(*s) == "" {
			return nil, ""
		}
		d, err := parseDate(*s)
		if err != nil {
			return nil, col + " must be a date in the format YYYY-MM-DD"
		}
		return d, ""
	}

	return nil, col + " is not updatable"
}

func parseDate(s string) (time.Time, error) {
	return time.Parse(entity.DateLayout, strings.TrimSpace(s))
}

func mutableColumnNames() []string {
	return entity.PatientMutableColumns()
}
