package storage

import (
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

// Open connects to the durable store and migrates the bridge-owned tables.
func Open(dsn string, debug bool) (*gorm.DB, error) {
	level := gormLogger.Silent
	if debug {
		level = gormLogger.Info
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormLogger.Default.LogMode(level),
	})
	if err != nil {
		return nil, err
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

// Migrate creates the bridge tables. Contacts are CRM-owned; the migration
// only ensures the table exists for fresh environments.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&sessionModel{},
		&credentialModel{},
		&conversationModel{},
		&messageModel{},
		&contactModel{},
	)
}
