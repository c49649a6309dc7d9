// Package health provides connectivity checks for the server's backing
// services, consumed by the /ready probe.
package health

import (
	"context"
	"database/sql"
)

// DBChecker pings a SQL database.
type DBChecker struct {
	db *sql.DB
}

func NewDBChecker(db *sql.DB) *DBChecker {
	return &DBChecker{db: db}
}

func (d *DBChecker) HealthCheck(ctx context.Context) error {
	return d.db.PingContext(ctx)
}
