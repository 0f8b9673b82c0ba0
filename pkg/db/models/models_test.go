package models

import (
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// The test suites migrate these models against sqlite, so the gorm tags must
// not carry postgres-only DDL. IDs are assigned in code; column defaults live
// in the goose migrations.
func TestModelsMigrateOnSqlite(t *testing.T) {
	dsn := "file:models_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}

	err = db.AutoMigrate(
		&User{},
		&ClientProfile{},
		&Counsellor{},
		&Specialization{},
		&TherapyApproach{},
		&Language{},
		&AgeGroup{},
		&AvailabilitySlot{},
		&Booking{},
		&Payment{},
		&Review{},
	)
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}
}
