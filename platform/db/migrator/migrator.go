package migrator

import (
	"database/sql"
	"fmt"

	"github.com/pressly/goose/v3"
)

type Migrator struct {
	db  *sql.DB
	dir string
}

func NewMigrator(db *sql.DB, dir string) *Migrator {
	return &Migrator{db: db, dir: dir}
}

func (m *Migrator) Up() error {
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("migrator.Up: set dialect: %w", err)
	}

	if err := goose.Up(m.db, m.dir); err != nil {
		return fmt.Errorf("migrator.Up: %s: %w", m.dir, err)
	}

	return nil
}

// Version reports the schema version currently applied.
func (m *Migrator) Version() (int64, error) {
	return goose.GetDBVersion(m.db)
}

func (m *Migrator) Close() error {
	return m.db.Close()
}
