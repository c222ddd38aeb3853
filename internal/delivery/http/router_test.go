package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"testing"
	"time"

	"clinic-anamnesis-api/config"
	"clinic-anamnesis-api/internal/delivery/http/handler"
	"clinic-anamnesis-api/internal/delivery/http/middleware"
	"clinic-anamnesis-api/internal/domain/entity"
	"clinic-anamnesis-api/internal/domain/event"
	"clinic-anamnesis-api/internal/service"
	"clinic-anamnesis-api/internal/usecase"
	"clinic-anamnesis-api/pkg/jwt"
	"clinic-anamnesis-api/pkg/validator"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type patientStore struct {
	rows   map[int64]entity.Patient
	nextID int64
	err    error
}

func (s *patientStore) Create(_ context.Context, p *entity.Patient) error {
	if s.err != nil {
		return s.err
	}
	s.nextID++
	p.ID = s.nextID
	s.rows[p.ID] = *p
	return nil
}

func (s *patientStore) FindAll(context.Context) ([]entity.Patient, error) {
	if s.err != nil {
		return nil, s.err
	}
	out := make([]entity.Patient, 0, len(s.rows))
	for _, p := range s.rows {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *patientStore) FindByID(_ context.Context, id int64) (*entity.Patient, error) {
	if s.err != nil {
		return nil, s.err
	}
	p, ok := s.rows[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (s *patientStore) FindByIDForUpdate(ctx context.Context, id int64) (*entity.Patient, error) {
	return s.FindByID(ctx, id)
}

func (s *patientStore) UpdateColumns(_ context.Context, id int64, values map[string]interface{}) (int64, error) {
	p, ok := s.rows[id]
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
			p.Phone = nil
			if v != nil {
				phone := v.(string)
				p.Phone = &phone
			}
		case entity.PatientColumnBirthDate:
			p.BirthDate = nil
			if v != nil {
				d := v.(time.Time)
				p.BirthDate = &d
			}
		case entity.PatientColumnUpdatedAt:
			p.UpdatedAt = v.(time.Time)
		}
	}
	s.rows[id] = p
	return 1, nil
}

func (s *patientStore) Delete(_ context.Context, id int64) (int64, error) {
	if _, ok := s.rows[id]; !ok {
		return 0, nil
	}
	delete(s.rows, id)
	return 1, nil
}

type inlineTransactor struct{}

func (inlineTransactor) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type auditStore struct {
	logs []entity.AuditLog
}

func (s *auditStore) Create(_ context.Context, log *entity.AuditLog) error {
	log.ID = int64(len(s.logs) + 1)
	s.logs = append(s.logs, *log)
	return nil
}

func (s *auditStore) FindAll(_ context.Context, entityID string) ([]entity.AuditLog, error) {
	out := []entity.AuditLog{}
	for i := len(s.logs) - 1; i >= 0; i-- {
		if entityID == "" || s.logs[i].EntityID == entityID {
			out = append(out, s.logs[i])
		}
	}
	return out, nil
}

func (s *auditStore) FindByID(_ context.Context, id int64) (*entity.AuditLog, error) {
	for i := range s.logs {
		if s.logs[i].ID == id {
			return &s.logs[i], nil
		}
	}
	return nil, nil
}

type sessionSet map[string]bool

func (s sessionSet) Store(_ context.Context, kind string, adminID uuid.UUID, tokenID string, _ time.Duration) error {
	s[kind+adminID.String()+tokenID] = true
	return nil
}

func (s sessionSet) Exists(_ context.Context, kind string, adminID uuid.UUID, tokenID string) (bool, error) {
	return s[kind+adminID.String()+tokenID], nil
}

func (s sessionSet) Revoke(_ context.Context, kind string, adminID uuid.UUID, tokenID string) error {
	delete(s, kind+adminID.String()+tokenID)
	return nil
}

type activeAdmins struct{}

func (activeAdmins) FindByID(_ context.Context, id uuid.UUID) (*entity.AdminUser, error) {
	return &entity.AdminUser{ID: id, Email: "admin@clinic.test", IsActive: true}, nil
}

type testServer struct {
	handler http.Handler
	store   *patientStore
	audit   *auditStore
	token   string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	log := logrus.New()
	log.SetOutput(io.Discard)

	store := &patientStore{rows: map[int64]entity.Patient{}}
	audit := &auditStore{}
	sessions := sessionSet{}
	jwtService := jwt.NewJWTService(config.JWTConfig{Secret: "router-secret", AccessExpiry: time.Minute, RefreshExpiry: time.Hour})
	v := validator.NewValidator()

	auditService := service.NewAuditService(log, audit)
	patientUsecase := usecase.NewPatientUsecase(log, inlineTransactor{}, store, auditService, event.NoopPublisher{})
	authUsecase := usecase.NewAuthUsecase(log, nil, sessions, auditService, jwtService)
	auditLogUsecase := usecase.NewAuditLogUsecase(log, audit)

	router := NewRouter(
		handler.NewPatientHandler(patientUsecase, v),
		handler.NewAuthHandler(authUsecase, v),
		handler.NewAuditLogHandler(auditLogUsecase),
		handler.NewHealthHandler(map[string]handler.HealthCheck{
			"postgres": func(context.Context) error { return nil },
		}),
		middleware.NewAuthMiddleware(jwtService, sessions, log),
		middleware.RequireActiveAdmin(activeAdmins{}, log),
		middleware.NewCORSMiddleware("*"),
		middleware.NewLoggingMiddleware(log),
	)

	adminID := uuid.New()
	token, tokenID, err := jwtService.GenerateAccessToken(adminID, "admin@clinic.test")
	require.NoError(t, err)
	require.NoError(t, sessions.Store(context.Background(), string(jwt.AccessToken), adminID, tokenID, time.Minute))

	return &testServer{handler: router.Setup(), store: store, audit: audit, token: token}
}

func (s *testServer) do(t *testing.T, method, path, body string, authed bool) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = bytes.NewBufferString(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if authed {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}
	w := httptest.NewRecorder()
	s.handler.ServeHTTP(w, req)
	return w
}

type patientBody struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     *string   `json:"phone"`
	BirthDate *string   `json:"birth_date"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type errorBody struct {
	Kind    string            `json:"kind"`
	Message string            `json:"message"`
	Details map[string]string `json:"details"`
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v), w.Body.String())
}

func TestPatientLifecycle(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodPost, "/api/v1/patients", `{"name":"Maria Silva","email":"maria@x.com"}`, false)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var created patientBody
	decode(t, w, &created)
	assert.NotZero(t, created.ID)
	assert.Equal(t, created.CreatedAt, created.UpdatedAt)
	assert.Nil(t, created.Phone)

	w = s.do(t, http.MethodGet, "/api/v1/patients", "", true)
	require.Equal(t, http.StatusOK, w.Code)
	var list []patientBody
	decode(t, w, &list)
	require.NotEmpty(t, list)
	assert.Equal(t, created.ID, list[0].ID)

	w = s.do(t, http.MethodPut, "/api/v1/patients", `{"id":`+strconv.FormatInt(created.ID, 10)+`,"phone":"11999999999"}`, true)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var updated patientBody
	decode(t, w, &updated)
	require.NotNil(t, updated.Phone)
	assert.Equal(t, "11999999999", *updated.Phone)
	assert.Equal(t, "Maria Silva", updated.Name)
	assert.Equal(t, "maria@x.com", updated.Email)

	w = s.do(t, http.MethodDelete, "/api/v1/patients?id="+strconv.FormatInt(created.ID, 10), "", true)
	require.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, w.Body.String())

	w = s.do(t, http.MethodGet, "/api/v1/patients/"+strconv.FormatInt(created.ID, 10), "", true)
	require.Equal(t, http.StatusNotFound, w.Code)
	var notFound errorBody
	decode(t, w, &notFound)
	assert.Equal(t, "not_found", notFound.Kind)

	assert.Len(t, s.audit.logs, 3)
}

func TestUpdateByPath(t *testing.T) {
	s := newTestServer(t)
	w := s.do(t, http.MethodPost, "/api/v1/patients", `{"name":"Ana","email":"ana@x.com"}`, false)
	require.Equal(t, http.StatusCreated, w.Code)

	w = s.do(t, http.MethodPatch, "/api/v1/patients/1", `{"birth_date":"1990-05-17"}`, true)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var updated patientBody
	decode(t, w, &updated)
	require.NotNil(t, updated.BirthDate)
	assert.Equal(t, "1990-05-17", *updated.BirthDate)

	w = s.do(t, http.MethodPut, "/api/v1/patients/1", `{"id":2,"name":"X"}`, true)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodPut, "/api/v1/patients/abc", `{"name":"X"}`, true)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUpdate_UnknownFieldsAreRejected(t *testing.T) {
	s := newTestServer(t)
	s.do(t, http.MethodPost, "/api/v1/patients", `{"name":"Ana","email":"ana@x.com"}`, false)
	before := s.store.rows[1]

	w := s.do(t, http.MethodPut, "/api/v1/patients", `{"id":1,"name":"X","name = 'x'; DROP TABLE patients; --":"y"}`, true)

	require.Equal(t, http.StatusBadRequest, w.Code)
	var body errorBody
	decode(t, w, &body)
	assert.Equal(t, "validation_error", body.Kind)
	assert.Contains(t, body.Details, "name = 'x'; DROP TABLE patients; --")
	assert.Equal(t, before, s.store.rows[1])
}

func TestUpdate_EmptyAndMissingID(t *testing.T) {
	s := newTestServer(t)
	s.do(t, http.MethodPost, "/api/v1/patients", `{"name":"Ana","email":"ana@x.com"}`, false)

	w := s.do(t, http.MethodPut, "/api/v1/patients", `{"id":1}`, true)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodPut, "/api/v1/patients", `{"name":"X"}`, true)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(t, http.MethodPut, "/api/v1/patients", `{"id":"1","name":"Ana Maria"}`, true)
	assert.Equal(t, http.StatusOK, w.Code)

	w = s.do(t, http.MethodPut, "/api/v1/patients", `not json`, true)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreate_RejectsBadInput(t *testing.T) {
	s := newTestServer(t)

	for _, body := range []string{
		`{"name":"Ana"}`,
		`{"name":"Ana","email":"ana@x.com","birth_date":"17/05/1990"}`,
		`{"name":"Ana","email":"ana@x.com","id":7}`,
		``,
	} {
		w := s.do(t, http.MethodPost, "/api/v1/patients", body, false)
		assert.Equal(t, http.StatusBadRequest, w.Code, body)

		var resp errorBody
		decode(t, w, &resp)
		assert.Equal(t, "validation_error", resp.Kind, body)
	}
	assert.Empty(t, s.store.rows)
}

func TestDelete_Missing(t *testing.T) {
	s := newTestServer(t)

	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodDelete, "/api/v1/patients?id=99", "", true).Code)
	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodDelete, "/api/v1/patients", "", true).Code)
	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodDelete, "/api/v1/patients/99", "", true).Code)
}

func TestMalformedIDs(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		method string
		path   string
		body   string
		want   int
	}{
		{http.MethodGet, "/api/v1/patients/abc", "", http.StatusBadRequest},
		{http.MethodPut, "/api/v1/patients/abc", `{"name":"Ana"}`, http.StatusBadRequest},
		{http.MethodDelete, "/api/v1/patients/abc", "", http.StatusBadRequest},
		{http.MethodDelete, "/api/v1/patients?id=abc", "", http.StatusBadRequest},
		{http.MethodDelete, "/api/v1/patients?id=0", "", http.StatusNotFound},
		{http.MethodDelete, "/api/v1/patients?id=-3", "", http.StatusNotFound},
		{http.MethodDelete, "/api/v1/patients", `{"id":"abc"}`, http.StatusNotFound},
		{http.MethodPut, "/api/v1/patients", `{"id":"abc","name":"Ana"}`, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path+" "+tt.body, func(t *testing.T) {
			w := s.do(t, tt.method, tt.path, tt.body, true)
			require.Equal(t, tt.want, w.Code, w.Body.String())
			if tt.want == http.StatusBadRequest {
				var body errorBody
				decode(t, w, &body)
				assert.Equal(t, "Invalid patient ID", body.Message)
			}
		})
	}
}

func TestTrailingBodyDataIsRejected(t *testing.T) {
	s := newTestServer(t)
	w := s.do(t, http.MethodPost, "/api/v1/patients", `{"name":"Ana","email":"ana@x.com"}`, false)
	require.Equal(t, http.StatusCreated, w.Code)
	var created patientBody
	decode(t, w, &created)
	id := strconv.FormatInt(created.ID, 10)

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		authed bool
	}{
		{"create", http.MethodPost, "/api/v1/patients", `{"name":"Bia","email":"bia@x.com"} trailing`, false},
		{"create second object", http.MethodPost, "/api/v1/patients", `{"name":"Bia","email":"bia@x.com"}{"name":"Caio"}`, false},
		{"update", http.MethodPut, "/api/v1/patients", `{"id":` + id + `,"name":"Ana B"} trailing`, true},
		{"update by path", http.MethodPatch, "/api/v1/patients/" + id, `{"name":"Ana B"}]`, true},
		{"delete", http.MethodDelete, "/api/v1/patients", `{"id":` + id + `} {"id":2}`, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := s.do(t, tt.method, tt.path, tt.body, tt.authed)
			require.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
			var body errorBody
			decode(t, w, &body)
			assert.Equal(t, "validation_error", body.Kind)
		})
	}

	stored := s.store.rows[created.ID]
	assert.Equal(t, "Ana", stored.Name)
	assert.Len(t, s.store.rows, 1)

	w = s.do(t, http.MethodDelete, "/api/v1/patients", `{"id":`+id+"}\n", true)
	assert.Equal(t, http.StatusNoContent, w.Code, w.Body.String())
}

func TestMethodNotAllowed(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		method string
		path   string
	}{
		{http.MethodPost, "/api/v1/patients/1"},
		{http.MethodTrace, "/api/v1/patients"},
		{http.MethodTrace, "/api/v1/patients/1"},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			w := s.do(t, tt.method, tt.path, `{}`, true)

			require.Equal(t, http.StatusMethodNotAllowed, w.Code)
			var body errorBody
			decode(t, w, &body)
			assert.Equal(t, "method_not_allowed", body.Kind)
		})
	}
}

func TestAdminRoutesRequireToken(t *testing.T) {
	s := newTestServer(t)

	for _, tc := range []struct{ method, path string }{
		{http.MethodGet, "/api/v1/patients"},
		{http.MethodGet, "/api/v1/patients/1"},
		{http.MethodPut, "/api/v1/patients"},
		{http.MethodDelete, "/api/v1/patients?id=1"},
		{http.MethodGet, "/api/v1/audit-logs"},
	} {
		w := s.do(t, tc.method, tc.path, "", false)
		assert.Equal(t, http.StatusUnauthorized, w.Code, tc.path)
	}
}

func TestStoreErrorsAreNotLeaked(t *testing.T) {
	s := newTestServer(t)
	s.store.err = errors.New(`pq: relation "patients" does not exist`)

	w := s.do(t, http.MethodGet, "/api/v1/patients", "", true)

	require.Equal(t, http.StatusInternalServerError, w.Code)
	var body errorBody
	decode(t, w, &body)
	assert.Equal(t, "store_error", body.Kind)
	assert.Equal(t, "internal error", body.Message)
	assert.NotContains(t, w.Body.String(), "relation")
}

func TestAuditLogs(t *testing.T) {
	s := newTestServer(t)
	s.do(t, http.MethodPost, "/api/v1/patients", `{"name":"Ana","email":"ana@x.com"}`, false)
	s.do(t, http.MethodPost, "/api/v1/patients", `{"name":"Bia","email":"bia@x.com"}`, false)

	w := s.do(t, http.MethodGet, "/api/v1/audit-logs?entity_id=2", "", true)
	require.Equal(t, http.StatusOK, w.Code)
	var list struct {
		Logs []struct {
			ID       int64  `json:"id"`
			Action   string `json:"action"`
			EntityID string `json:"entity_id"`
		} `json:"logs"`
		Total int `json:"total"`
	}
	decode(t, w, &list)
	require.Equal(t, 1, list.Total)
	assert.Equal(t, entity.AuditActionPatientCreate, list.Logs[0].Action)

	w = s.do(t, http.MethodGet, "/api/v1/audit-logs/1", "", true)
	assert.Equal(t, http.StatusOK, w.Code)
	w = s.do(t, http.MethodGet, "/api/v1/audit-logs/50", "", true)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHealthAndPreflight(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodGet, "/api/v1/health", "", false)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"postgres":"up"`)

	w = s.do(t, http.MethodOptions, "/api/v1/patients", "", false)
	assert.Equal(t, http.StatusNoContent, w.Code)
}
