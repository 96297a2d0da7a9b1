package cache

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ddanilovs/campuslink/internal/client/cache/migrations"
	"github.com/pressly/goose/v3"
)

// RunMigrations sets up goose with the embedded migration files and runs
// them against the provided database connection.
func RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}
	return goose.UpContext(ctx, db, ".")
}

// InitDatabase opens the SQLite cache at dsn, applies migrations, and
// returns a ready repository together with the underlying handle (which the
// caller owns and closes).
func InitDatabase(ctx context.Context, dsn string) (*SQLiteRepository, *sql.DB, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, nil, err
	}
	if err := RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	return NewSQLiteRepository(db), db, nil
}
