package database

import "errors"

var (
	// ErrNoPath is returned when Open is called without a database path.
	ErrNoPath = errors.New("database: path is required")

	// ErrNoDownMigration is returned by MigrateDown when the latest
	// migration has no .down.sql file.
	ErrNoDownMigration = errors.New("database: migration has no down SQL")
)
