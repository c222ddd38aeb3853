package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"clinic-anamnesis-api/internal/delivery/dto"
	"clinic-anamnesis-api/internal/usecase"
	"clinic-anamnesis-api/pkg/response"
	"clinic-anamnesis-api/pkg/validator"

	"github.com/gorilla/mux"
)

const maxBodyBytes = 1 << 20

var errTrailingData = errors.New("request body must hold a single JSON value")

type PatientHandler struct {
	patientUsecase usecase.PatientUsecase
	validator      *validator.CustomValidator
}

func NewPatientHandler(patientUsecase usecase.PatientUsecase, validator *validator.CustomValidator) *PatientHandler {
	return &PatientHandler{
		patientUsecase: patientUsecase,
		validator:      validator,
	}
}

func (h *PatientHandler) GetAllPatients(w http.ResponseWriter, r *http.Request) {
	patients, err := h.patientUsecase.List(r.Context())
	if err != nil {
		writePatientError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, patients)
}

func (h *PatientHandler) GetPatient(w http.ResponseWriter, r *http.Request) {
	id, err := parseURLID(mux.Vars(r)["id"])
	if err != nil {
		response.BadRequest(w, "Invalid patient ID")
		return
	}

	patient, err := h.patientUsecase.Get(r.Context(), id)
	if err != nil {
		writePatientError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, patient)
}

func (h *PatientHandler) CreatePatient(w http.ResponseWriter, r *http.Request) {
	var req dto.CreatePatientRequest
	if err := decodeBody(w, r, &req, true); err != nil {
		response.BadRequest(w, decodeErrorMessage(err))
		return
	}

	req.Normalize()
	if err := h.validator.Validate(&req); err != nil {
		response.ValidationError(w, "", h.validator.FormatValidationErrors(err))
		return
	}

	patient, err := h.patientUsecase.Create(r.Context(), &req)
	if err != nil {
		writePatientError(w, err)
		return
	}

	response.JSON(w, http.StatusCreated, patient)
}

// UpdatePatient serves PUT and PATCH. The target id comes from the path when
// routed as /patients/{id}, otherwise from the body.
func (h *PatientHandler) UpdatePatient(w http.ResponseWriter, r *http.Request) {
	var fields map[string]json.RawMessage
	if err := decodeBody(w, r, &fields, false); err != nil {
		response.BadRequest(w, decodeErrorMessage(err))
		return
	}
	if fields == nil {
		response.BadRequest(w, "Request body must be a JSON object")
		return
	}

	bodyID, hasBodyID := fields["id"]
	delete(fields, "id")

	req := dto.UpdatePatientRequest{Fields: fields}
	if hasBodyID {
		req.ID = parseID(bodyID)
	}

	if raw, ok := mux.Vars(r)["id"]; ok {
		pathID, err := parseURLID(raw)
		if err != nil {
			response.BadRequest(w, "Invalid patient ID")
			return
		}
		if hasBodyID && req.ID != pathID {
			response.ValidationError(w, "Body id does not match the patient in the path", map[string]string{
				"id": "id must match the path",
			})
			return
		}
		req.ID = pathID
	}

	patient, err := h.patientUsecase.Update(r.Context(), &req)
	if err != nil {
		writePatientError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, patient)
}

// DeletePatient takes the id from the path, the `id` query parameter, or a
// JSON body, in that order. A path or query id that is not an integer is a
// bad request; a missing or unparsable body id is reported as not found.
func (h *PatientHandler) DeletePatient(w http.ResponseWriter, r *http.Request) {
	var (
		id  int64
		err error
	)
	switch {
	case mux.Vars(r)["id"] != "":
		id, err = parseURLID(mux.Vars(r)["id"])
	case strings.TrimSpace(r.URL.Query().Get("id")) != "":
		id, err = parseURLID(r.URL.Query().Get("id"))
	default:
		var body struct {
			ID json.RawMessage `json:"id"`
		}
		if decodeErr := decodeBody(w, r, &body, false); decodeErr != nil && !errors.Is(decodeErr, io.EOF) {
			response.BadRequest(w, decodeErrorMessage(decodeErr))
			return
		}
		id = parseID(body.ID)
	}
	if err != nil {
		response.BadRequest(w, "Invalid patient ID")
		return
	}

	if err := h.patientUsecase.Delete(r.Context(), id); err != nil {
		writePatientError(w, err)
		return
	}

	response.NoContent(w)
}

func writePatientError(w http.ResponseWriter, err error) {
	var validationErr *usecase.ValidationError
	switch {
	case errors.As(err, &validationErr):
		if len(validationErr.Fields) == 0 {
			response.ValidationError(w, validationErr.Message, nil)
			return
		}
		response.ValidationError(w, validationErr.Message, validationErr.Fields)
	case errors.Is(err, usecase.ErrPatientNotFound):
		response.NotFound(w, "Patient not found")
	default:
		response.InternalServerError(w, "internal error")
	}
}

// parseID accepts a JSON number or a numeric string. Anything else yields 0,
// which the usecase reports as not found.
func parseID(raw json.RawMessage) int64 {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return 0
	}

	var n json.Number
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v interface{}
	if err := dec.Decode(&v); err != nil {
		return 0
	}
	switch t := v.(type) {
	case json.Number:
		n = t
	case string:
		n = json.Number(strings.TrimSpace(t))
	default:
		return 0
	}

	id, err := n.Int64()
	if err != nil {
		return 0
	}
	return id
}

// decodeBody reads exactly one JSON value from the request body into v.
func decodeBody(w http.ResponseWriter, r *http.Request, v interface{}, strict bool) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if strict {
		dec.DisallowUnknownFields()
	}
	if err := dec.Decode(v); err != nil {
		return err
	}
	var extra json.RawMessage
	if err := dec.Decode(&extra); !errors.Is(err, io.EOF) {
		return errTrailingData
	}
	return nil
}

// parseURLID parses an id taken from the path or query string.
func parseURLID(raw string) (int64, error) {
	return strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
}

func decodeErrorMessage(err error) string {
	var maxErr *http.MaxBytesError
	switch {
	case errors.Is(err, io.EOF):
		return "Request body is required"
	case errors.As(err, &maxErr):
		return "Request body is too large"
	case errors.Is(err, errTrailingData):
		return "Request body must hold a single JSON value"
	case strings.HasPrefix(err.Error(), "json: unknown field "):
		return "Unknown field " + strings.TrimPrefix(err.Error(), "json: unknown field ")
	default:
		return "Invalid request body"
	}
}
