package database

import (
	"fmt"

	"intercompany/internal/access"
	"intercompany/internal/model"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Open connects through dialector and installs the company visibility plugin.
func Open(dialector gorm.Dialector, logLevel gormlogger.LogLevel) (*gorm.DB, error) {
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.Default.LogMode(logLevel),
		// mirrors reference their source across companies and are cleared
		// explicitly before a source is removed
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		return nil, err
	}

	if err := db.Use(access.NewCompanyScope()); err != nil {
		return nil, fmt.Errorf("failed to install company scope: %w", err)
	}

	return db, nil
}

// NewConnection initializes a postgres connection pool using GORM
func NewConnection(dsn string) (*gorm.DB, error) {
	return Open(postgres.Open(dsn), gormlogger.Warn)
}

// Migrate creates or updates every table the service uses.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&model.Currency{},
		&model.Company{},
		&model.Journal{},
		&model.Partner{},
		&model.Product{},
		&model.AnalyticAccount{},
		&model.AnalyticTag{},
		&model.User{},
		&model.Invoice{},
		&model.InvoiceLine{},
		&model.InvoiceMessage{},
		&model.AuditLog{},
	)
}
