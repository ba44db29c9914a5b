// Package database opens the SQLite file behind the command journal and
// keeps its schema current.
//
//	db, err := database.Open(ctx, database.Config{Path: "./data/obsosc.db", WALMode: true})
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//
//	status, err := db.Migrate(ctx)
//
// Schema files are named YYYYMMDD_HHMMSS_name.sql and embedded by the
// top-level migrations package. They only ever move forward.
package database
