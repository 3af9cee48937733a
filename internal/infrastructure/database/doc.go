// Package database provides SQLite connectivity for the OneNET console.
//
// The console keeps little relational state: the device cache snapshot lives
// in a key/value slot table so it survives restarts. This package manages:
//   - Connection setup with WAL mode and a busy timeout
//   - Versioned, embedded schema migrations
//   - Health checks and lifecycle
//
// Usage:
//
//	db, err := database.Open(ctx, database.Config{Path: cfg.Database.Path, WALMode: true})
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//
//	if err := db.Migrate(ctx, migrations.FS); err != nil {
//	    return err
//	}
//
// Migrations are additive: each YYYYMMDD_HHMMSS_name.up.sql should ship with a
// matching .down.sql.
package database
