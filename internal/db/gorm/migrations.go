// Package gorm provides GORM-based database operations for the interview
// service.
package gorm

import (
	"github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/gorm"
)

// runMigrations runs all database migrations using gormigrate.
func runMigrations(db *gorm.DB) error {
	m := gormigrate.New(db, gormigrate.DefaultOptions, []*gormigrate.Migration{
		// Migration 001: Core tables (Session, Message)
		{
			ID: "001_core_tables",
			Migrate: func(tx *gorm.DB) error {
				if err := tx.AutoMigrate(&Session{}); err != nil {
					return err
				}
				return tx.AutoMigrate(&Message{})
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Migrator().DropTable("sessions", "messages")
			},
		},

		// Migration 002: Extraction audit trail
		{
			ID: "002_extractions",
			Migrate: func(tx *gorm.DB) error {
				return tx.AutoMigrate(&Extraction{})
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Migrator().DropTable("extractions")
			},
		},
	})

	return m.Migrate()
}
