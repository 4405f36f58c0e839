package db

import (
	"fmt"
	"time"

	"shopping/internal/logger"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

type Options struct {
	DSN          string
	LogLevel     string
	MaxOpenConns int
	MaxIdleConns int
}

// Connect はDBに接続して *gorm.DB を返す。
func Connect(opts Options, log *zap.Logger) (*gorm.DB, error) {
	gormDB, err := gorm.Open(postgres.Open(opts.DSN), &gorm.Config{
		Logger:         logger.NewGormLogger(log, logger.GormLevel(opts.LogLevel), 200*time.Millisecond),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	sqlDB, err := gormDB.DB()
	if err != nil {
		return nil, fmt.Errorf("get sql.DB: %w", err)
	}
	if opts.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(opts.MaxOpenConns)
	}
	if opts.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(opts.MaxIdleConns)
	}
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	return gormDB, nil
}
