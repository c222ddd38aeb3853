package bootstrap

import (
	"context"
	"fmt"

	"clinic-anamnesis-api/internal/delivery/dto"
	"clinic-anamnesis-api/internal/infrastructure/cache"
	"clinic-anamnesis-api/internal/infrastructure/database"
	"clinic-anamnesis-api/internal/repository"
	"clinic-anamnesis-api/internal/service"
	"clinic-anamnesis-api/internal/usecase"
	"clinic-anamnesis-api/pkg/jwt"
	"clinic-anamnesis-api/pkg/validator"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// MigrationStatus is the schema version reported by `migrate version`.
type MigrationStatus struct {
	Version uint
	Dirty   bool
}

// Migrate runs one migration command ("up", "down" or "version") against the
// configured database.
func Migrate(direction string) (*MigrationStatus, error) {
	cfg, log, err := loadConfig()
	if err != nil {
		return nil, err
	}

	db, err := database.NewPostgresConnection(cfg.DB, log)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	defer closeDB(db)

	migrator, err := database.NewMigrator(db, log)
	if err != nil {
		return nil, err
	}

	switch direction {
	case "up":
		err = migrator.Up()
	case "down":
		err = migrator.Down()
	case "version":
	default:
		return nil, fmt.Errorf("unknown migration command %q", direction)
	}
	if err != nil {
		return nil, err
	}

	version, dirty, err := migrator.Version()
	if err != nil {
		return nil, err
	}
	return &MigrationStatus{Version: version, Dirty: dirty}, nil
}

// CreateAdmin registers an admin account. There is no HTTP route for this.
func CreateAdmin(ctx context.Context, req *dto.CreateAdminRequest) (*dto.AdminResponse, error) {
	v := validator.NewValidator()
	if err := v.Validate(req); err != nil {
		return nil, &usecase.ValidationError{Message: "Validation failed", Fields: v.FormatValidationErrors(err)}
	}

	cfg, log, err := loadConfig()
	if err != nil {
		return nil, err
	}

	db, err := database.NewPostgresConnection(cfg.DB, log)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	defer closeDB(db)

	redisClient, err := cache.NewRedisClient(cfg.Redis, log)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	defer redisClient.Close()

	authUsecase := usecase.NewAuthUsecase(
		log,
		repository.NewAdminUserRepository(db),
		cache.NewSessionRepository(redisClient),
		service.NewAuditService(log, repository.NewAuditLogRepository(db)),
		jwt.NewJWTService(cfg.JWT),
	)
	return authUsecase.CreateAdmin(ctx, req)
}

func migrateUp(db *gorm.DB, log *logrus.Logger) error {
	migrator, err := database.NewMigrator(db, log)
	if err != nil {
		return err
	}
	if err := migrator.Up(); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

func closeDB(db *gorm.DB) {
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Close()
	}
}
