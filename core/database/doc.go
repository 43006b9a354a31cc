// Package database manages the connection to the entity store.
//
// It wraps GORM connection setup for the supported drivers (MySQL in
// production, sqlite for tests and local tooling) with sane pool limits
// and connection verification.
//
// # Usage
//
//	db, err := database.Connect(cfg.Database)
//	if err != nil {
//	    // The store is mandatory for this service; fail startup.
//	}
package database
