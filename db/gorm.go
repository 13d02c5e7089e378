package db

import (
	"fmt"
	"strings"

	"musicify/config"
	"musicify/model"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Migrate brings the schema up to date through GORM's migrator. It opens a
// short-lived GORM connection; runtime queries go through the plain *sql.DB
// handle from Connect.
func Migrate(cfg *config.Config) error {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		cfg.DBUser, cfg.DBPassword, cfg.DBHost, cfg.DBPort, cfg.DBName)

	gdb, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
		// The FK from analyses to tracks is added explicitly below so the
		// migration order of the two tables does not matter.
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		return fmt.Errorf("failed to connect database with GORM: %w", err)
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	defer sqlDB.Close()

	if err := gdb.AutoMigrate(&model.Track{}, &model.Analysis{}); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}

	// An analysis must reference an existing track.
	err = gdb.Exec(`ALTER TABLE analyses
		ADD CONSTRAINT fk_analyses_track FOREIGN KEY (track_id) REFERENCES tracks(id)`).Error
	if err != nil && !isDuplicateConstraintErr(err) {
		return fmt.Errorf("failed to add analyses foreign key: %w", err)
	}

	return nil
}

func isDuplicateConstraintErr(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "Duplicate") ||
		strings.Contains(msg, "already exists") ||
		strings.Contains(msg, "Error 1826") // duplicate foreign key name
}
