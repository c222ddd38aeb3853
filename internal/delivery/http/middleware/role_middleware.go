package middleware

import (
	"context"
	"net/http"

	"clinic-anamnesis-api/internal/domain/entity"
	"clinic-anamnesis-api/pkg/response"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// AdminLookup finds the admin behind a session.
type AdminLookup interface {
	FindByID(ctx context.Context, id uuid.UUID) (*entity.AdminUser, error)
}

// RequireActiveAdmin rejects sessions whose admin account was deactivated or
// removed after the token was issued. It must run after Authenticate.
func RequireActiveAdmin(admins AdminLookup, log *logrus.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			adminID, ok := GetAdminIDFromContext(r.Context())
			if !ok {
				response.Unauthorized(w, "Admin information not found")
				return
			}

			admin, err := admins.FindByID(r.Context(), adminID)
			if err != nil {
				log.WithError(err).Warn("Failed to load admin for session")
				response.InternalServerError(w, "internal error")
				return
			}
			if admin == nil || !admin.IsActive {
				response.Forbidden(w, "Admin account is disabled")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
