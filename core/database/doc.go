// Package database handles database connections and schema inspection.
//
// It wraps GORM with drivers for MySQL, PostgreSQL and SQLite. The database
// only backs the transfer ledger, which is optional: commands continue
// without it when Connect fails.
//
// # Schema Inspection
//
// GetTableColumns and MissingColumns let the integrity check confirm that
// the ledger table carries the columns the application writes.
//
// # Usage
//
//	db, err := database.Connect(cfg.Database)
//	if err != nil {
//	    logg.Warn("Ledger disabled", zap.Error(err))
//	}
//
//	missing, err := database.MissingColumns(db, "transfers", []string{"digest"})
package database
