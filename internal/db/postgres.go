package db

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/soulhub/soulhub-backend/internal/logger"
	"github.com/soulhub/soulhub-backend/internal/types"
	"github.com/soulhub/soulhub-backend/internal/utils"
)

type PostgresService struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPostgresService(log *logger.Logger) (*PostgresService, error) {
	serviceLog := log.With("service", "PostgresService")

	postgresHost := utils.GetEnv("POSTGRES_HOST", "localhost", log)
	postgresPort := utils.GetEnv("POSTGRES_PORT", "5432", log)
	postgresUser := utils.GetEnv("POSTGRES_USER", "postgres", log)
	postgresPassword := utils.GetEnv("POSTGRES_PASSWORD", "", log)
	postgresName := utils.GetEnv("POSTGRES_NAME", "soulhub", log)

	dsn := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable", postgresUser, postgresPassword, postgresHost, postgresPort, postgresName)

	log.Info("Connecting to Postgres...")
	gdb, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		log.Error("Failed to connect to Postgres", "error", err)
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}

	return &PostgresService{db: gdb, log: serviceLog}, nil
}

func (s *PostgresService) AutoMigrateAll() error {
	s.log.Info("Auto migrating postgres tables...")
	err := s.db.AutoMigrate(
		&types.User{},
		&types.Patch{},
		&types.PatchFile{},
		&types.PatchRating{},
	)
	if err != nil {
		s.log.Error("Auto migration failed for postgres tables", "error", err)
		return err
	}
	s.log.Info("Configuring foreign key relationships for postgres tables...")
	constraints := []struct{ name, ddl string }{
		{"fk_patch_author_id", `
			ALTER TABLE "patch"
			ADD CONSTRAINT "fk_patch_author_id"
			FOREIGN KEY ("author_id")
			REFERENCES "app_user"("id")
			ON DELETE CASCADE`},
		{"fk_patch_file_patch_id", `
			ALTER TABLE "patch_file"
			ADD CONSTRAINT "fk_patch_file_patch_id"
			FOREIGN KEY ("patch_id")
			REFERENCES "patch"("id")
			ON DELETE CASCADE`},
		{"fk_patch_rating_patch_id", `
			ALTER TABLE "patch_rating"
			ADD CONSTRAINT "fk_patch_rating_patch_id"
			FOREIGN KEY ("patch_id")
			REFERENCES "patch"("id")
			ON DELETE CASCADE`},
		{"fk_patch_rating_user_id", `
			ALTER TABLE "patch_rating"
			ADD CONSTRAINT "fk_patch_rating_user_id"
			FOREIGN KEY ("user_id")
			REFERENCES "app_user"("id")
			ON DELETE CASCADE`},
	}
	for _, c := range constraints {
		if err := s.db.Exec(c.ddl).Error; err != nil {
			return fmt.Errorf("add %s: %w", c.name, err)
		}
	}
	return nil
}

func (s *PostgresService) DB() *gorm.DB {
	return s.db
}
