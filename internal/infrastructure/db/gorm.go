package db

import (
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"seedflow-backend/internal/config"
	"seedflow-backend/internal/domain/funding"
	"seedflow-backend/internal/domain/listing"
)

// Open picks the dialector from cfg.DBDriver.
func Open(cfg *config.Config, log *zap.Logger) (*gorm.DB, error) {
	level := logger.Warn
	if cfg.LogLevel == "debug" {
		level = logger.Info
	}
	switch cfg.DBDriver {
	case config.DriverMySQL:
		return OpenGormWithDialector(mysql.Open(cfg.MySQLDSN()), level, log)
	case config.DriverSQLite:
		// one writer: SQLite serializes writes anyway and FOR UPDATE is a no-op
		gdb, err := OpenGormWithDialector(sqlite.Open(cfg.SQLitePath+"?_busy_timeout=5000"), level, log)
		if err != nil {
			return nil, err
		}
		if sqlDB, err := gdb.DB(); err == nil {
			sqlDB.SetMaxOpenConns(1)
		}
		return gdb, nil
	}
	return nil, fmt.Errorf("unknown db driver %q", cfg.DBDriver)
}

func OpenGorm(dsn string, log *zap.Logger) (*gorm.DB, error) {
	return OpenGormWithDialector(mysql.Open(dsn), logger.Warn, log)
}

// OpenGormWithDialector opens and pings the pool. Tests pass a dialector
// over sqlmock.
func OpenGormWithDialector(dial gorm.Dialector, level logger.LogLevel, log *zap.Logger) (*gorm.DB, error) {
	if log == nil {
		log = zap.NewNop()
	}
	cfg := &gorm.Config{
		Logger: logger.Default.LogMode(level),
	}
	db, err := gorm.Open(dial, cfg)
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(30)
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)
	sqlDB.SetConnMaxIdleTime(10 * time.Minute)

	if err := sqlDB.Ping(); err != nil {
		return nil, err
	}
	log.Info("gorm: connected", zap.String("dialect", dial.Name()))
	return db, nil
}

// Migrate creates or updates the listings and contributions tables.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&listing.Listing{}, &funding.Contribution{})
}
