// Package database provides the SQLite store used by the Nexhome integration.
//
// It holds the cached gateway device list and the device state history.
// Connections run in WAL mode with a busy timeout, and schema changes are
// applied from embedded migration files:
//
//	db, err := database.Open(cfg.Database)
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//
//	if err := db.Migrate(ctx, migrations.FS); err != nil {
//	    return err
//	}
//
// All queries use parameterised statements. The database file is created
// with 0600 permissions.
package database
