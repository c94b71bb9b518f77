// Package migrations applies the embedded schema files in name order and
// records each applied file in schema_migrations.
package migrations

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"sort"

	"github.com/lib/pq"
)

//go:embed *.sql
var files embed.FS

func Up(ctx context.Context, db *sql.DB) error {
	const op = "migrations.Up"

	if db == nil {
		return fmt.Errorf("%s: db is required", op)
	}

	if _, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			filename text PRIMARY KEY,
			applied_at timestamptz NOT NULL DEFAULT now()
		)`); err != nil {
		return fmt.Errorf("%s: ensure table: %w", op, err)
	}

	names, err := Files()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	for _, name := range names {
		if err := apply(ctx, db, name); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
	}

	return nil
}

// Files lists the embedded migrations in the order Up applies them.
func Files() ([]string, error) {
	names, err := fs.Glob(files, "*.sql")
	if err != nil {
		return nil, err
	}
	sort.Strings(names)

	return names, nil
}

func apply(ctx context.Context, db *sql.DB, name string) error {
	var applied bool
	if err := db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM schema_migrations WHERE filename = $1)`, name,
	).Scan(&applied); err != nil {
		return fmt.Errorf("check %s: %w", name, err)
	}
	if applied {
		return nil
	}

	body, err := files.ReadFile(name)
	if err != nil {
		return fmt.Errorf("read %s: %w", name, err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin %s: %w", name, err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, string(body)); err != nil {
		// Postgres aborts the transaction on any error, so the record has
		// to be written after the rollback.
		_ = tx.Rollback()
		if !isDuplicateObject(err) {
			return fmt.Errorf("apply %s: %w", name, err)
		}
		if err := markApplied(ctx, db, name); err != nil {
			return fmt.Errorf("record %s after ignored error: %w", name, err)
		}
		return nil
	}

	if _, err := tx.ExecContext(ctx, insertApplied, name); err != nil {
		return fmt.Errorf("record %s: %w", name, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit %s: %w", name, err)
	}

	return nil
}

const insertApplied = `INSERT INTO schema_migrations (filename) VALUES ($1) ON CONFLICT (filename) DO NOTHING`

func markApplied(ctx context.Context, db *sql.DB, name string) error {
	_, err := db.ExecContext(ctx, insertApplied, name)
	return err
}

func isDuplicateObject(err error) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return false
	}

	switch pqErr.Code {
	case "42P07", // duplicate_table
		"42710", // duplicate_object
		"42701": // duplicate_column
		return true
	default:
		return false
	}
}
