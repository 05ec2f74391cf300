package database

import (
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"minta-backend/internal/domain"
)

// Open opens a GORM DB from DSN (Postgres pooler URL).
// PreferSimpleProtocol disables prepared statement caching to avoid 42P05
// ("prepared statement already exists") when using connection poolers (e.g. PgBouncer, Render).
func Open(dsn string) (*gorm.DB, error) {
	return gorm.Open(postgres.New(postgres.Config{
		DSN:                  dsn,
		PreferSimpleProtocol: true,
	}), &gorm.Config{})
}

// AutoMigrate runs migrations for every model the API serves.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&domain.Org{},
		&domain.User{},
		&domain.Account{},
		&domain.MoneyMapNode{},
		&domain.Goal{},
		&domain.Budget{},
		&domain.Cause{},
		&domain.IncomeStream{},
		&domain.Guardrail{},
		&domain.MoneyRequest{},
		&domain.Position{},
		&domain.JournalEntry{},
	)
}
