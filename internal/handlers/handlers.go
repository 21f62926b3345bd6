// Package handlers implements the HTTP surface of the TrustSave API.
package handlers

import (
	"errors"

	"trustsave/server/internal/config"

	"github.com/jackc/pgx/v5/pgconn"
)

var cfg config.Config

// Configure installs the application settings used by the handlers.
// Call once at startup, before registering routes.
func Configure(c config.Config) {
	cfg = c
}

// isUniqueViolation reports whether err is a Postgres duplicate-key error,
// optionally on a specific constraint.
func isUniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != "23505" {
		return false
	}
	return constraint == "" || pgErr.ConstraintName == constraint
}

// isForeignKeyViolation reports whether err is a Postgres foreign-key error,
// which surfaces when a referenced user or group does not exist.
func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23503"
}
