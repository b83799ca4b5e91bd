package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path"
	"slices"
	"strconv"
	"strings"
	"time"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

//nolint:gochecknoglobals // embedded and read-only.
var migrations = mustLoadMigrations(migrationFiles)

// migration is one schema change. Version is the numeric file name prefix, e.g. 2 for 0002_add_index.sql.
type migration struct {
	version int
	name    string
	sql     string
}

func mustLoadMigrations(fsys fs.FS) []migration {
	ms, err := loadMigrations(fsys)
	if err != nil {
		panic(err)
	}
	return ms
}

func loadMigrations(fsys fs.FS) ([]migration, error) {
	entries, err := fs.Glob(fsys, "migrations/*.sql")
	if err != nil {
		return nil, fmt.Errorf("glob migrations: %w", err)
	}
	ms := make([]migration, 0, len(entries))
	for _, entry := range entries {
		name := path.Base(entry)
		prefix, _, ok := strings.Cut(name, "_")
		if !ok {
			return nil, fmt.Errorf("migration %s: missing version prefix", name)
		}
		var version int
		if version, err = strconv.Atoi(prefix); err != nil {
			return nil, fmt.Errorf("migration %s: parse version: %w", name, err)
		}
		var content []byte
		if content, err = fs.ReadFile(fsys, entry); err != nil {
			return nil, fmt.Errorf("read migration %s: %w", name, err)
		}
		ms = append(ms, migration{version: version, name: name, sql: string(content)})
	}
	slices.SortFunc(ms, func(a, b migration) int { return a.version - b.version })
	for i, m := range ms {
		if m.version != i+1 {
			return nil, fmt.Errorf("migration %s: expected version %d", m.name, i+1)
		}
	}
	return ms, nil
}

// migrate applies the migrations newer than the database's user_version, each in its own transaction.
func (db *Database) migrate(ctx context.Context, ms []migration) error {
	var current int
	if err := db.ReadWrite.QueryRowContext(ctx, "PRAGMA user_version").Scan(&current); err != nil {
		return fmt.Errorf("query user_version: %w", err)
	}
	if current > len(ms) {
		return fmt.Errorf("database version %d is newer than the %d known migrations", current, len(ms))
	}

	for _, m := range ms[current:] {
		start := time.Now()
		if err := db.applyMigration(ctx, m); err != nil {
			return fmt.Errorf("apply %s: %w", m.name, err)
		}
		db.logger.LogAttrs(ctx, slog.LevelInfo, "applied migration",
			slog.String("name", m.name), slog.Duration("duration", time.Since(start)))
	}
	return nil
}

func (db *Database) applyMigration(ctx context.Context, m migration) error {
	tx, err := db.ReadWrite.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("start transaction: %w", err)
	}
	defer db.rollback(ctx, tx)()

	if _, err = tx.ExecContext(ctx, m.sql); err != nil {
		return fmt.Errorf("exec migration: %w", err)
	}
	// PRAGMA does not accept bound parameters.
	if _, err = tx.ExecContext(ctx, "PRAGMA user_version = "+strconv.Itoa(m.version)); err != nil {
		return fmt.Errorf("set user_version: %w", err)
	}
	if _, err = tx.ExecContext(ctx, "PRAGMA foreign_key_check"); err != nil {
		return fmt.Errorf("foreign key check: %w", err)
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// rollback rolls back given transaction.
func (db *Database) rollback(ctx context.Context, tx *sql.Tx) func() {
	return func() {
		if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
			err = fmt.Errorf("rollback transaction: %w", err)
			db.logger.LogAttrs(ctx, slog.LevelError, "failed to rollback transaction", slog.Any("error", err))
		}
	}
}
