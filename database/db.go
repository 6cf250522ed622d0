package database

import (
	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	"marketsync/model"
)

// ErrRecordNotFound mirrors the gorm sentinel so callers do not need
// a direct gorm import.
var ErrRecordNotFound = gorm.ErrRecordNotFound

// DB wraps the gorm handle with the write and query operations the
// scanners, retry queue and background jobs need. One instance is
// shared by every writer; all writes are keyed by natural identity so
// concurrent upserts are safe.
type DB struct {
	*gorm.DB
}

// Open connects to MySQL, optionally resets the schema and migrates
// the table structure.
func Open(dsn string, reset bool) (*DB, error) {
	db, err := gorm.Open(mysql.Open(dsn+"?charset=utf8mb4&parseTime=True&loc=Local"), &gorm.Config{PrepareStmt: true})
	if err != nil {
		return nil, err
	}
	if reset {
		if err = model.DropTable(db); err != nil {
			return nil, err
		}
	}
	if err = model.Migrate(db); err != nil {
		return nil, err
	}
	return &DB{db}, nil
}

// New wraps an already opened gorm handle, used by tests.
func New(db *gorm.DB) *DB {
	return &DB{db}
}
