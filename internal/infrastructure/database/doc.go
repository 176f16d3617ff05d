// Package database provides the SQLite connection and schema migrations for
// the event store.
//
// Stored sensor events, clustering runs and their cluster assignments all
// live in one SQLite file. The connection runs in WAL mode with a single
// open connection, which matches SQLite's single-writer model.
//
// Usage:
//
//	db, err := database.Open(ctx, database.Config{Path: cfg.Database.Path, WALMode: true})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer db.Close()
//
//	if err := db.Migrate(ctx); err != nil {
//	    log.Fatal(err)
//	}
//
// Migrations are registered by the migrations package, which embeds the
// YYYYMMDD_HHMMSS_name.up.sql / .down.sql files into the binary. Each
// migration is applied in its own transaction and recorded in
// schema_migrations.
package database
