package usecase

import (
	"context"
	"errors"
	"strings"

	"clinic-anamnesis-api/internal/converter"
	"clinic-anamnesis-api/internal/delivery/dto"
	"clinic-anamnesis-api/internal/domain/entity"
	"clinic-anamnesis-api/internal/domain/repository"
	"clinic-anamnesis-api/internal/service"
	"clinic-anamnesis-api/pkg/jwt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrEmailAlreadyExists = errors.New("email already exists")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidToken       = errors.New("invalid or expired token")
	ErrTokenRevoked       = errors.New("token has been revoked")
	ErrAdminNotFound      = errors.New("admin not found")
)

type AuthUsecase interface {
	CreateAdmin(ctx context.Context, req *dto.CreateAdminRequest) (*dto.AdminResponse, error)
	Login(ctx context.Context, req *dto.LoginRequest) (*dto.TokenResponse, error)
	Logout(ctx context.Context, adminID uuid.UUID, accessTokenID, refreshToken string) error
	RefreshToken(ctx context.Context, req *dto.RefreshTokenRequest) (*dto.TokenResponse, error)
	GetCurrentAdmin(ctx context.Context, adminID uuid.UUID) (*dto.AdminResponse, error)
}

type authUsecase struct {
	log          *logrus.Logger
	adminRepo    repository.AdminUserRepository
	sessionRepo  repository.SessionRepository
	auditService service.AuditService
	jwtService   *jwt.JWTService
}

func NewAuthUsecase(
	log *logrus.Logger,
	adminRepo repository.AdminUserRepository,
	sessionRepo repository.SessionRepository,
	auditService service.AuditService,
	jwtService *jwt.JWTService,
) AuthUsecase {
	return &authUsecase{
		log:          log,
		adminRepo:    adminRepo,
		sessionRepo:  sessionRepo,
		auditService: auditService,
		jwtService:   jwtService,
	}
}

func (u *authUsecase) CreateAdmin(ctx context.Context, req *dto.CreateAdminRequest) (*dto.AdminResponse, error) {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		u.log.Warnf("Failed to hash password: %+v", err)
		return nil, err
	}

	admin := &entity.AdminUser{
		ID:       uuid.New(),
		Email:    strings.ToLower(strings.TrimSpace(req.Email)),
		Password: string(hashedPassword),
		FullName: strings.TrimSpace(req.FullName),
		IsActive: true,
	}

	if err := u.adminRepo.Create(ctx, admin); err != nil {
		if isDuplicateKeyError(err, "email") {
			return nil, ErrEmailAlreadyExists
		}
		u.log.Warnf("Failed to create admin: %+v", err)
		return nil, &StoreError{Op: "create admin", Err: err}
	}

	if err := u.auditService.LogCreate(ctx, nil, entity.AuditActionAdminCreate, "admin_user", admin.ID.String(),
		converter.AdminToResponse(admin)); err != nil {
		u.log.Warnf("Failed to create audit log: %+v", err)
	}

	return converter.AdminToResponse(admin), nil
}

func (u *authUsecase) Login(ctx context.Context, req *dto.LoginRequest) (*dto.TokenResponse, error) {
	admin, err := u.adminRepo.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		u.log.Warnf("Failed to find admin by email: %+v", err)
		return nil, &StoreError{Op: "find admin", Err: err}
	}
	if admin == nil || !admin.IsActive {
		return nil, ErrInvalidCredentials
	}

	// Verify password
	if err := bcrypt.CompareHashAndPassword([]byte(admin.Password), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	tokens, err := u.issueTokens(ctx, admin.ID, admin.Email)
	if err != nil {
		return nil, err
	}

	if err := u.auditService.LogEvent(ctx, &admin.ID, entity.AuditActionAdminLogin, map[string]interface{}{
		"email": admin.Email,
	}); err != nil {
		u.log.Warnf("Failed to create audit log: %+v", err)
	}

	return tokens, nil
}

// Logout revokes the access token in use and, when given, the refresh token
// issued alongside it.
func (u *authUsecase) Logout(ctx context.Context, adminID uuid.UUID, accessTokenID, refreshToken string) error {
	if err := u.sessionRepo.Revoke(ctx, string(jwt.AccessToken), adminID, accessTokenID); err != nil {
		u.log.Warnf("Failed to delete access token: %+v", err)
		return err
	}

	if refreshToken != "" {
		claims, err := u.jwtService.ValidateToken(refreshToken)
		if err == nil && claims.TokenType == jwt.RefreshToken && claims.AdminID == adminID {
			if err := u.sessionRepo.Revoke(ctx, string(jwt.RefreshToken), adminID, claims.TokenID); err != nil {
				u.log.Warnf("Failed to delete refresh token: %+v", err)
				return err
			}
		}
	}

	if err := u.auditService.LogEvent(ctx, &adminID, entity.AuditActionAdminLogout, nil); err != nil {
		u.log.Warnf("Failed to create audit log: %+v", err)
	}

	return nil
}

func (u *authUsecase) RefreshToken(ctx context.Context, req *dto.RefreshTokenRequest) (*dto.TokenResponse, error) {
	claims, err := u.jwtService.ValidateToken(req.RefreshToken)
	if err != nil {
		return nil, ErrInvalidToken
	}

	if claims.TokenType != jwt.RefreshToken {
		return nil, ErrInvalidToken
	}

	exists, err := u.sessionRepo.Exists(ctx, string(jwt.RefreshToken), claims.AdminID, claims.TokenID)
	if err != nil {
		u.log.Warnf("Failed to check refresh token in Redis: %+v", err)
		return nil, err
	}
	if !exists {
		return nil, ErrTokenRevoked
	}

	// Delete old refresh token
	if err := u.sessionRepo.Revoke(ctx, string(jwt.RefreshToken), claims.AdminID, claims.TokenID); err != nil {
		u.log.Warnf("Failed to delete old refresh token: %+v", err)
		return nil, err
	}

	return u.issueTokens(ctx, claims.AdminID, claims.Email)
}

func (u *authUsecase) GetCurrentAdmin(ctx context.Context, adminID uuid.UUID) (*dto.AdminResponse, error) {
	admin, err := u.adminRepo.FindByID(ctx, adminID)
	if err != nil {
		u.log.Warnf("Failed to find admin by ID: %+v", err)
		return nil, &StoreError{Op: "find admin", Err: err}
	}
	if admin == nil {
		return nil, ErrAdminNotFound
	}

	return converter.AdminToResponse(admin), nil
}

func (u *authUsecase) issueTokens(ctx context.Context, adminID uuid.UUID, email string) (*dto.TokenResponse, error) {
	accessToken, accessTokenID, err := u.jwtService.GenerateAccessToken(adminID, email)
	if err != nil {
		u.log.Warnf("Failed to generate access token: %+v", err)
		return nil, err
	}

	refreshToken, refreshTokenID, err := u.jwtService.GenerateRefreshToken(adminID, email)
	if err != nil {
		u.log.Warnf("Failed to generate refresh token: %+v", err)
		return nil, err
	}

	if err := u.sessionRepo.Store(ctx, string(jwt.AccessToken), adminID, accessTokenID, u.jwtService.GetAccessExpiry()); err != nil {
		u.log.Warnf("Failed to store access token in Redis: %+v", err)
		return nil, err
	}

	if err := u.sessionRepo.Store(ctx, string(jwt.RefreshToken), adminID, refreshTokenID, u.jwtService.GetRefreshExpiry()); err != nil {
		u.log.Warnf("Failed to store refresh token in Redis: %+v", err)
		return nil, err
	}

	return &dto.TokenResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    int64(u.jwtService.GetAccessExpiry().Seconds()),
	}, nil
}

// isDuplicateKeyError checks if the error is a PostgreSQL unique constraint violation
// containing the specified constraint name
func isDuplicateKeyError(err error, constraintName string) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		// PostgreSQL error code 23505 = unique_violation
		if pgErr.Code == "23505" && strings.Contains(strings.ToLower(pgErr.ConstraintName), strings.ToLower(constraintName)) {
			return true
		}
	}
	return false
}
