package db

import (
	"database/sql"
	"fmt"

	"github.com/gartstein/contributions/internal/contributions/db/migrations"
	migrate "github.com/rubenv/sql-migrate"
)

// migrateSchema applies all pending up migrations for the given sql-migrate
// dialect ("postgres" or "sqlite3").
func migrateSchema(db *sql.DB, dialect string) error {
	root := "postgres"
	if dialect == "sqlite3" {
		root = "sqlite"
	}
	source := &migrate.EmbedFileSystemMigrationSource{
		FileSystem: migrations.FS,
		Root:       root,
	}
	if _, err := migrate.Exec(db, dialect, source, migrate.Up); err != nil {
		return fmt.Errorf("apply %s migrations: %w", dialect, err)
	}
	return nil
}
