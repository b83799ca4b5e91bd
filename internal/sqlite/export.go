package sqlite

import (
	"context"
	"crypto/rand"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// userColumn is the column that holds the owner in every table with user data.
const userColumn = "user_id"

// ExportUserData copies the rows owned by userID into a new SQLite database file in dir and returns its path.
//
// Every table with a user_id column is exported with its schema. Other tables, such as sessions, are left out.
// This gives users a copy of all their data.
func (db *Database) ExportUserData(ctx context.Context, userID string, dir string) (_ string, err error) {
	if userID == "" {
		return "", errors.New("empty user id")
	}
	exportPath := filepath.Join(dir, fmt.Sprintf("fittrack-export-%s.sqlite3", rand.Text()))

	conn, err := db.ReadOnly.Conn(ctx)
	if err != nil {
		return "", fmt.Errorf("get db connection: %w", err)
	}
	defer func() {
		if closeErr := conn.Close(); closeErr != nil {
			err = errors.Join(err, fmt.Errorf("close db connection: %w", closeErr))
		}
	}()

	if err = setExportPragmas(ctx, conn, true); err != nil {
		return "", err
	}
	// The connection goes back to the read-only pool.
	defer func() {
		err = errors.Join(err, setExportPragmas(ctx, conn, false))
	}()

	if _, err = conn.ExecContext(ctx, `ATTACH DATABASE ? AS export`,
		fmt.Sprintf("file:%s?mode=rwc", exportPath)); err != nil {
		return "", fmt.Errorf("attach export database: %w", err)
	}
	defer func() {
		if _, detachErr := conn.ExecContext(ctx, `DETACH DATABASE export`); detachErr != nil {
			err = errors.Join(err, fmt.Errorf("detach export database: %w", detachErr))
		}
	}()

	if err = copyUserData(ctx, conn, userID); err != nil {
		return "", err
	}
	return exportPath, nil
}

// setExportPragmas lifts the read-only restriction of a pooled connection for the duration of an export.
func setExportPragmas(ctx context.Context, conn *sql.Conn, exporting bool) error {
	queryOnly, foreignKeys := "TRUE", "ON"
	if exporting {
		queryOnly, foreignKeys = "FALSE", "OFF"
	}
	if _, err := conn.ExecContext(ctx, `PRAGMA QUERY_ONLY = `+queryOnly); err != nil {
		return fmt.Errorf("set query only %s: %w", queryOnly, err)
	}
	if _, err := conn.ExecContext(ctx, `PRAGMA FOREIGN_KEYS = `+foreignKeys); err != nil {
		return fmt.Errorf("set foreign keys %s: %w", foreignKeys, err)
	}
	return nil
}

func copyUserData(ctx context.Context, conn *sql.Conn, userID string) error {
	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	tables, err := userTables(ctx, tx)
	if err != nil {
		return err
	}
	for _, table := range tables {
		if err = copyTableSchema(ctx, tx, table); err != nil {
			return fmt.Errorf("copy schema of %s: %w", table, err)
		}
		query := fmt.Sprintf(`INSERT INTO export.%[1]s SELECT * FROM main.%[1]s WHERE %[2]s = ?`, table, userColumn)
		if _, err = tx.ExecContext(ctx, query, userID); err != nil {
			return fmt.Errorf("copy rows of %s: %w", table, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit export: %w", err)
	}
	return nil
}

// userTables lists the tables of the main database that have a user_id column.
func userTables(ctx context.Context, tx *sql.Tx) (_ []string, err error) {
	rows, err := tx.QueryContext(ctx, `
SELECT m.name
FROM main.sqlite_schema m
         JOIN pragma_table_info(m.name) p
WHERE m.type = 'table'
  AND p.name = ?
ORDER BY m.name`, userColumn)
	if err != nil {
		return nil, fmt.Errorf("query user tables: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			err = errors.Join(err, fmt.Errorf("close rows: %w", closeErr))
		}
	}()

	var tables []string
	for rows.Next() {
		var name string
		if err = rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan table name: %w", err)
		}
		tables = append(tables, name)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate user tables: %w", err)
	}
	return tables, nil
}

// copyTableSchema creates table in the export database with the same definition as in the main database.
func copyTableSchema(ctx context.Context, tx *sql.Tx, table string) error {
	var createSQL string
	if err := tx.QueryRowContext(ctx, `SELECT sql FROM main.sqlite_schema WHERE type = 'table' AND name = ?`,
		table).Scan(&createSQL); err != nil {
		return fmt.Errorf("get schema: %w", err)
	}
	prefix := "CREATE TABLE " + table
	if !strings.HasPrefix(createSQL, prefix) {
		return fmt.Errorf("unexpected table definition %q", createSQL)
	}
	if _, err := tx.ExecContext(ctx, "CREATE TABLE export."+table+strings.TrimPrefix(createSQL, prefix)); err != nil {
		return fmt.Errorf("create table: %w", err)
	}
	return nil
}
