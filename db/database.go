package db

import (
	"database/sql"
	"fmt"
	"time"

	"musicify/config"

	_ "github.com/go-sql-driver/mysql" // MySQL driver
)

// Connect opens a database handle and verifies the connection. The handle is
// returned to the caller and shared through construction, not through a
// package-level global; it lives for the whole process and is closed at
// shutdown.
func Connect(cfg *config.Config) (*sql.DB, error) {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?parseTime=true",
		cfg.DBUser, cfg.DBPassword, cfg.DBHost, cfg.DBPort, cfg.DBName)

	handle, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	handle.SetMaxIdleConns(10)
	handle.SetMaxOpenConns(100)
	handle.SetConnMaxLifetime(time.Hour)

	if err = handle.Ping(); err != nil {
		handle.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return handle, nil
}
