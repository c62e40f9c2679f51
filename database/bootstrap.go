// database/bootstrap.go
package database

import (
	"fmt"
	"strings"

	sqlite "github.com/glebarez/sqlite" // CGO-free driver
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"irrigo/entities"
)

// OpenSQLite opens (or creates) the database at path and migrates the schema.
func OpenSQLite(path string) (*gorm.DB, error) {
	dsn := path
	if !strings.Contains(dsn, "?") {
		dsn += "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	}
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// one writer; every statement goes through the same connection
	sqlDB.SetMaxOpenConns(1)

	if err := Migrate(db); err != nil {
		_ = sqlDB.Close()
		return nil, err
	}
	return db, nil
}

func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&entities.PlantedCrop{},
		&entities.IrrigationTask{},
		&entities.TaskAdjustment{},
		&entities.NotificationRecord{},
		&entities.WeatherReading{},
	); err != nil {
		return fmt.Errorf("automigrate: %w", err)
	}
	if err := migrateOpenTaskIndex(db); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

// migrateOpenTaskIndex allows at most one uncompleted task per crop and due date.
// GORM tags cannot express a partial index, so it is created by hand.
func migrateOpenTaskIndex(db *gorm.DB) error {
	return db.Exec(`CREATE UNIQUE INDEX IF NOT EXISTS ux_task_open_due
ON irrigation_tasks (crop_id, due_date) WHERE completed = 0`).Error
}

func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
