package Models

import (
	"errors"
	"fmt"
	"log"
	"strings"

	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Open returns a connection for the given driver ("sqlite" or "mysql").
func Open(driver, dsn string) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch strings.ToLower(driver) {
	case "", "sqlite":
		dialector = sqlite.Open(dsn)
	case "mysql":
		dialector = mysql.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	return gorm.Open(dialector, &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Warn),
	})
}

// Migrate creates or updates every table the ledger needs.
func Migrate(db *gorm.DB) error {
	// Users first, accounts and claims reference them
	if err := db.AutoMigrate(&User{}); err != nil {
		return fmt.Errorf("migrate users: %w", err)
	}
	if err := db.AutoMigrate(&WorkAccount{}, &TaskClaim{}, &ActivityEntry{}); err != nil {
		return fmt.Errorf("migrate ledger tables: %w", err)
	}
	return nil
}

// Connect opens the database and migrates it.
func Connect(driver, dsn string) (*gorm.DB, error) {
	connection, err := Open(driver, dsn)
	if err != nil {
		return nil, err
	}
	if err := Migrate(connection); err != nil {
		return nil, err
	}
	log.Printf("Connected to %s database", driver)
	return connection, nil
}

// IsDuplicateKey reports whether err is a unique constraint violation.
// TranslateError covers most drivers; the message checks catch the rest.
func IsDuplicateKey(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") || strings.Contains(msg, "Duplicate entry")
}
