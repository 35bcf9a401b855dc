package migration

import (
	"database/sql"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/golang-migrate/migrate/v4/database"
)

const versionTable = "schema_migrations"

// sqliteDriver adapts an already-open sqlite handle to the migrate driver
// contract. The stock sqlite driver registers its own database/sql driver
// named "sqlite" at init, which collides with the pure-Go gorm dialect the
// rest of the service opens connections through; reusing the service's
// handle avoids a second registration.
type sqliteDriver struct {
	db *sql.DB
}

func newSQLiteDriver(db *sql.DB) (database.Driver, error) {
	d := &sqliteDriver{db: db}
	query := fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (version uint64, dirty bool)", versionTable)
	if _, err := db.Exec(query); err != nil {
		return nil, fmt.Errorf("create version table: %w", err)
	}
	return d, nil
}

func (d *sqliteDriver) Open(string) (database.Driver, error) {
	return nil, errors.New("sqlite migration driver is bound to an existing connection")
}

// Close is a no-op; the service owns the underlying handle.
func (d *sqliteDriver) Close() error { return nil }

// Lock and Unlock are no-ops: the embedded database has a single writer and
// migrations run once during startup.
func (d *sqliteDriver) Lock() error   { return nil }
func (d *sqliteDriver) Unlock() error { return nil }

func (d *sqliteDriver) Run(migration io.Reader) error {
	statements, err := io.ReadAll(migration)
	if err != nil {
		return fmt.Errorf("read migration: %w", err)
	}

	tx, err := d.db.Begin()
	if err != nil {
		return fmt.Errorf("begin migration: %w", err)
	}
	if _, err := tx.Exec(string(statements)); err != nil {
		tx.Rollback()
		return fmt.Errorf("run migration: %w", err)
	}
	return tx.Commit()
}

func (d *sqliteDriver) SetVersion(version int, dirty bool) error {
	tx, err := d.db.Begin()
	if err != nil {
		return fmt.Errorf("begin version update: %w", err)
	}
	if _, err := tx.Exec(fmt.Sprintf("DELETE FROM %s", versionTable)); err != nil {
		tx.Rollback()
		return fmt.Errorf("clear version: %w", err)
	}
	if version >= 0 || (version == database.NilVersion && dirty) {
		query := fmt.Sprintf("INSERT INTO %s (version, dirty) VALUES (?, ?)", versionTable)
		if _, err := tx.Exec(query, version, dirty); err != nil {
			tx.Rollback()
			return fmt.Errorf("set version: %w", err)
		}
	}
	return tx.Commit()
}

func (d *sqliteDriver) Version() (int, bool, error) {
	var (
		version int
		dirty   bool
	)
	query := fmt.Sprintf("SELECT version, dirty FROM %s LIMIT 1", versionTable)
	err := d.db.QueryRow(query).Scan(&version, &dirty)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return database.NilVersion, false, nil
	case err != nil:
		return 0, false, fmt.Errorf("read version: %w", err)
	}
	return version, dirty, nil
}

func (d *sqliteDriver) Drop() error {
	rows, err := d.db.Query("SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%'")
	if err != nil {
		return fmt.Errorf("list tables: %w", err)
	}
	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			rows.Close()
			return fmt.Errorf("scan table name: %w", err)
		}
		tables = append(tables, name)
	}
	if err := rows.Close(); err != nil {
		return fmt.Errorf("list tables: %w", err)
	}
	for _, table := range tables {
		if _, err := d.db.Exec("DROP TABLE IF EXISTS " + quoteIdent(table)); err != nil {
			return fmt.Errorf("drop table %s: %w", table, err)
		}
	}
	return nil
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
