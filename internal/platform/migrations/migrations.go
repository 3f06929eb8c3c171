// Package migrations owns the relational schema. Apply is the idempotent
// startup path used when auto-migration is enabled; Up and Down drive the
// versioned golang-migrate history from the CLI.
package migrations

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	migratemysql "github.com/golang-migrate/migrate/v4/database/mysql"
	migratepostgres "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed sql
var files embed.FS

const (
	driverMySQL    = "mysql"
	driverPostgres = "postgres"
)

func dir(driver string) (string, error) {
	switch driver {
	case driverMySQL, driverPostgres:
		return "sql/" + driver, nil
	default:
		return "", fmt.Errorf("migrations: unsupported driver %q", driver)
	}
}

// Statements returns the schema statements for driver in execution order.
func Statements(driver string) ([]string, error) {
	root, err := dir(driver)
	if err != nil {
		return nil, err
	}
	names, err := fs.Glob(files, root+"/*.up.sql")
	if err != nil {
		return nil, err
	}
	sort.Strings(names)

	var out []string
	for _, name := range names {
		data, err := files.ReadFile(name)
		if err != nil {
			return nil, fmt.Errorf("migrations: read %s: %w", name, err)
		}
		out = append(out, split(string(data))...)
	}
	return out, nil
}

func split(script string) []string {
	var body strings.Builder
	for _, line := range strings.Split(script, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "--") {
			continue
		}
		body.WriteString(line)
		body.WriteByte('\n')
	}

	var out []string
	for _, stmt := range strings.Split(body.String(), ";") {
		if stmt = strings.TrimSpace(stmt); stmt != "" {
			out = append(out, stmt)
		}
	}
	return out
}

// Apply creates any missing tables. Every statement is idempotent so Apply is
// safe to run on each start.
func Apply(ctx context.Context, db *sql.DB, driver string) error {
	stmts, err := Statements(driver)
	if err != nil {
		return err
	}
	for i, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrations: statement %d: %w", i+1, err)
		}
	}
	return nil
}

func newMigrate(db *sql.DB, driver string) (*migrate.Migrate, error) {
	root, err := dir(driver)
	if err != nil {
		return nil, err
	}
	src, err := iofs.New(files, root)
	if err != nil {
		return nil, fmt.Errorf("migrations: source: %w", err)
	}

	var target database.Driver
	switch driver {
	case driverMySQL:
		target, err = migratemysql.WithInstance(db, &migratemysql.Config{})
	case driverPostgres:
		target, err = migratepostgres.WithInstance(db, &migratepostgres.Config{})
	}
	if err != nil {
		return nil, fmt.Errorf("migrations: %s driver: %w", driver, err)
	}
	return migrate.NewWithInstance("iofs", src, driver, target)
}

// Up migrates to the latest version. The migrator takes ownership of db and
// closes it when done.
func Up(db *sql.DB, driver string) error {
	return run(db, driver, (*migrate.Migrate).Up)
}

// Down reverts every migration. Like Up it closes db.
func Down(db *sql.DB, driver string) error {
	return run(db, driver, (*migrate.Migrate).Down)
}

func run(db *sql.DB, driver string, step func(*migrate.Migrate) error) error {
	m, err := newMigrate(db, driver)
	if err != nil {
		return err
	}
	defer m.Close()

	if err := step(m); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migrations: %w", err)
	}
	return nil
}
