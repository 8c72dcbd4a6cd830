package database

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"learnpath/internal/models"
)

type Config struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	Debug    bool
}

func NewPostgresDB(config *Config) (*gorm.DB, error) {
	dsn := fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
		config.Host,
		config.User,
		config.Password,
		config.DBName,
		config.Port,
	)

	logMode := gormLogger.Silent
	if config.Debug {
		logMode = gormLogger.Info
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormLogger.Default.LogMode(logMode),
	})
	if err != nil {
		return nil, err
	}

	return db, nil
}

// Migrate creates the schema. The partial unique index on completed
// activities is not expressible as a struct tag, so it is created by hand;
// the statement works on both Postgres and SQLite.
func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.Chapter{},
		&models.Skill{},
		&models.Progress{},
		&models.Video{},
		&models.Exercise{},
		&models.Quiz{},
		&models.Question{},
		&models.UserActivity{},
		&models.WatchRecord{},
		&models.Reward{},
	)
	if err != nil {
		return fmt.Errorf("auto-migrate: %w", err)
	}

	err = db.Exec(`CREATE UNIQUE INDEX IF NOT EXISTS idx_activity_user_progress_completed
		ON user_activities (user_id, progress_id) WHERE is_completed`).Error
	if err != nil {
		return fmt.Errorf("create completed-activity index: %w", err)
	}
	return nil
}
