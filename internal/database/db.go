package database

import (
	"fmt"

	"backoffice/internal/config"
	"backoffice/internal/logger"
	"backoffice/internal/model"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// NewConnection opens the postgres pool and migrates the schema
func NewConnection(cfg config.DatabaseConfig, log *zap.Logger) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(cfg.DSN()), GormConfig(log, cfg.LogLevel))
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("get sql.DB: %w", err)
	}
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	if err := Migrate(db); err != nil {
		return nil, err
	}

	return db, nil
}

// GormConfig is shared by the server and tests. TranslateError lets
// repositories detect unique violations with gorm.ErrDuplicatedKey.
func GormConfig(log *zap.Logger, level string) *gorm.Config {
	return &gorm.Config{
		Logger:         logger.NewGormLogger(log, logger.MapGormLogLevel(level)),
		TranslateError: true,
	}
}

// Models lists every table in migration order
func Models() []interface{} {
	return []interface{}{
		&model.User{},
		&model.Customer{},
		&model.Bank{},
		&model.Shipper{},
		&model.FactoryCategory{},
		&model.Factory{},
		&model.FactoryProfile{},
		&model.FactoryCertificate{},
		&model.FactoryImage{},
		&model.Invoice{},
		&model.InvoiceItem{},
		&model.AuditLog{},
	}
}

// Migrate creates or updates the schema
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("auto-migrate models: %w", err)
	}
	return nil
}
