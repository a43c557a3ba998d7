package database

import (
	"fmt"
	"log"

	"garage/internal/model"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// Models lists every table the service owns, in dependency order
func Models() []interface{} {
	return []interface{}{
		&model.Employee{},
		&model.Product{},
		&model.InventoryTransaction{},
		&model.JobCard{},
		&model.JobCardTechnician{},
		&model.PartRequisition{},
		&model.Timesheet{},
		&model.Invoice{},
		&model.InvoiceItem{},
		&model.Payment{},
		&model.AuditLog{},
	}
}

// NewConnection opens the database for driver ("postgres" or "sqlite") and
// migrates the schema.
func NewConnection(driver, dsn string) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch driver {
	case "postgres", "":
		dialector = postgres.Open(dsn)
	case "sqlite":
		dialector = sqlite.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, err
	}

	if driver == "sqlite" {
		// one writer at a time; sqlite has no row locks
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
	}

	if err := db.AutoMigrate(Models()...); err != nil {
		log.Println("WARNING: Failed to auto-migrate models:", err)
		return nil, fmt.Errorf("auto-migrate: %w", err)
	}

	return db, nil
}
