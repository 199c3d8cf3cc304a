// Package migrate applies the database schema. Migrations are embedded SQL
// files named NNNN_description.up.sql with a matching .down.sql, applied in
// name order and recorded in a bookkeeping table.
package migrate

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/nssmahe/portal/business/sdk/sqldb"
	"github.com/nssmahe/portal/foundation/logger"
)

//go:embed sql/*.sql
var files embed.FS

const table = "schema_migrations"

// ErrNothingApplied is returned by Down when no migration has been applied.
var ErrNothingApplied = errors.New("no migrations applied")

// Manager applies and rolls back migrations.
type Manager struct {
	log *logger.Logger
	db  *sqlx.DB
	fs  fs.FS
}

// NewManager constructs a manager over the embedded migrations.
func NewManager(log *logger.Logger, db *sqlx.DB) *Manager {
	return &Manager{
		log: log,
		db:  db,
		fs:  files,
	}
}

// Up applies every pending migration. Each migration runs in its own
// transaction together with its bookkeeping row.
func (m *Manager) Up(ctx context.Context) error {
	if err := sqldb.StatusCheck(ctx, m.db); err != nil {
		return fmt.Errorf("status check database: %w", err)
	}

	if err := m.ensureTable(ctx); err != nil {
		return err
	}

	applied, err := m.Status(ctx)
	if err != nil {
		return err
	}

	done := make(map[string]bool, len(applied))
	for _, name := range applied {
		done[name] = true
	}

	names, err := m.collect(".up.sql")
	if err != nil {
		return err
	}

	for _, name := range names {
		if done[name] {
			continue
		}

		if err := m.apply(ctx, name+".up.sql", `INSERT INTO `+table+` (name) VALUES ($1)`, name); err != nil {
			return fmt.Errorf("apply migration %s: %w", name, err)
		}

		m.log.Info(ctx, "migrate: applied", "migration", name)
	}

	return nil
}

// Down rolls back the most recently applied migration.
func (m *Manager) Down(ctx context.Context) error {
	if err := m.ensureTable(ctx); err != nil {
		return err
	}

	applied, err := m.Status(ctx)
	if err != nil {
		return err
	}

	if len(applied) == 0 {
		return ErrNothingApplied
	}

	last := applied[len(applied)-1]

	if err := m.apply(ctx, last+".down.sql", `DELETE FROM `+table+` WHERE name = $1`, last); err != nil {
		return fmt.Errorf("rollback migration %s: %w", last, err)
	}

	m.log.Info(ctx, "migrate: rolled back", "migration", last)

	return nil
}

// Status returns the applied migrations in order.
func (m *Manager) Status(ctx context.Context) ([]string, error) {
	if err := m.ensureTable(ctx); err != nil {
		return nil, err
	}

	var names []string
	if err := m.db.SelectContext(ctx, &names, `SELECT name FROM `+table+` ORDER BY name`); err != nil {
		return nil, fmt.Errorf("history: %w", err)
	}

	return names, nil
}

// =============================================================================

func (m *Manager) ensureTable(ctx context.Context) error {
	const q = `
	CREATE TABLE IF NOT EXISTS ` + table + ` (
		name       TEXT        NOT NULL PRIMARY KEY,
		applied_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`

	if _, err := m.db.ExecContext(ctx, q); err != nil {
		return fmt.Errorf("ensure %s: %w", table, err)
	}

	return nil
}

func (m *Manager) apply(ctx context.Context, file string, record string, name string) (err error) {
	body, err := fs.ReadFile(m.fs, "sql/"+file)
	if err != nil {
		return fmt.Errorf("read: %w", err)
	}

	tx, err := m.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() {
		if err != nil {
			if errRB := tx.Rollback(); errRB != nil {
				err = errors.Join(err, errRB)
			}
		}
	}()

	if _, err := tx.ExecContext(ctx, string(body)); err != nil {
		return fmt.Errorf("exec: %w", err)
	}

	if _, err := tx.ExecContext(ctx, record, name); err != nil {
		return fmt.Errorf("record: %w", err)
	}

	return tx.Commit()
}

func (m *Manager) collect(suffix string) ([]string, error) {
	entries, err := fs.ReadDir(m.fs, "sql")
	if err != nil {
		return nil, fmt.Errorf("readdir: %w", err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), suffix) {
			continue
		}
		names = append(names, strings.TrimSuffix(e.Name(), suffix))
	}

	sort.Strings(names)

	return names, nil
}
