package http

import (
	"net/http"

	"clinic-anamnesis-api/internal/delivery/http/handler"
	"clinic-anamnesis-api/internal/delivery/http/middleware"
	"clinic-anamnesis-api/pkg/response"

	"github.com/gorilla/mux"
)

type Router struct {
	router            *mux.Router
	patientHandler    *handler.PatientHandler
	authHandler       *handler.AuthHandler
	auditLogHandler   *handler.AuditLogHandler
	healthHandler     *handler.HealthHandler
	authMiddleware    *middleware.AuthMiddleware
	activeAdmin       func(http.Handler) http.Handler
	corsMiddleware    *middleware.CORSMiddleware
	loggingMiddleware *middleware.LoggingMiddleware
}

func NewRouter(
	patientHandler *handler.PatientHandler,
	authHandler *handler.AuthHandler,
	auditLogHandler *handler.AuditLogHandler,
	healthHandler *handler.HealthHandler,
	authMiddleware *middleware.AuthMiddleware,
	activeAdmin func(http.Handler) http.Handler,
	corsMiddleware *middleware.CORSMiddleware,
	loggingMiddleware *middleware.LoggingMiddleware,
) *Router {
	return &Router{
		router:            mux.NewRouter(),
		patientHandler:    patientHandler,
		authHandler:       authHandler,
		auditLogHandler:   auditLogHandler,
		healthHandler:     healthHandler,
		authMiddleware:    authMiddleware,
		activeAdmin:       activeAdmin,
		corsMiddleware:    corsMiddleware,
		loggingMiddleware: loggingMiddleware,
	}
}

func (r *Router) Setup() http.Handler {
	r.router.NotFoundHandler = http.HandlerFunc(notFound)
	r.router.MethodNotAllowedHandler = http.HandlerFunc(methodNotAllowed)

	// API versioning
	api := r.router.PathPrefix("/api/v1").Subrouter()
	api.NotFoundHandler = r.router.NotFoundHandler
	api.MethodNotAllowedHandler = r.router.MethodNotAllowedHandler

	// Health check
	api.HandleFunc("/health", r.healthHandler.Check).Methods(http.MethodGet)

	// Patients: registration is public, everything else needs an admin session
	api.HandleFunc("/patients", r.patientHandler.CreatePatient).Methods(http.MethodPost)
	api.Handle("/patients", r.protected(r.patientHandler.GetAllPatients)).Methods(http.MethodGet)
	api.Handle("/patients", r.protected(r.patientHandler.UpdatePatient)).Methods(http.MethodPut, http.MethodPatch)
	api.Handle("/patients", r.protected(r.patientHandler.DeletePatient)).Methods(http.MethodDelete)
	api.Handle("/patients/{id}", r.protected(r.patientHandler.GetPatient)).Methods(http.MethodGet)
	api.Handle("/patients/{id}", r.protected(r.patientHandler.UpdatePatient)).Methods(http.MethodPut, http.MethodPatch)
	api.Handle("/patients/{id}", r.protected(r.patientHandler.DeletePatient)).Methods(http.MethodDelete)
	// Remaining verbs on patient paths answer 405
	api.HandleFunc("/patients", methodNotAllowed)
	api.HandleFunc("/patients/{id}", methodNotAllowed)

	// Auth routes
	api.HandleFunc("/auth/login", r.authHandler.Login).Methods(http.MethodPost)
	api.HandleFunc("/auth/refresh", r.authHandler.RefreshToken).Methods(http.MethodPost)
	api.Handle("/auth/logout", r.protected(r.authHandler.Logout)).Methods(http.MethodPost)
	api.Handle("/auth/me", r.protected(r.authHandler.GetCurrentAdmin)).Methods(http.MethodGet)

	// Audit trail
	api.Handle("/audit-logs", r.protected(r.auditLogHandler.GetAllAuditLogs)).Methods(http.MethodGet)
	api.Handle("/audit-logs/{id}", r.protected(r.auditLogHandler.GetAuditLog)).Methods(http.MethodGet)

	// CORS wraps the router so preflight requests never reach route matching
	return r.loggingMiddleware.Handle(r.corsMiddleware.Handle(r.router))
}

func (r *Router) protected(h http.HandlerFunc) http.Handler {
	return r.authMiddleware.Authenticate(r.activeAdmin(h))
}

func notFound(w http.ResponseWriter, req *http.Request) {
	response.NotFound(w, "Route not found")
}

func methodNotAllowed(w http.ResponseWriter, req *http.Request) {
	response.MethodNotAllowed(w, req.Method)
}
