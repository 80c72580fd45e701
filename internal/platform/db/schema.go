package db

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"strings"
)

//go:embed schema.sql
var schemaSQL string

// Statements splits schema.sql into single statements (multiStatements is off).
func Statements() []string {
	var out []string
	for _, s := range strings.Split(schemaSQL, ";") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// EnsureSchema creates the tables if missing and stamps groups that predate
// the session column with defaultSession.
func EnsureSchema(ctx context.Context, conn *sql.DB, defaultSession string) (int64, error) {
	for _, stmt := range Statements() {
		if _, err := conn.ExecContext(ctx, stmt); err != nil {
			return 0, fmt.Errorf("schema: %w", err)
		}
	}
	if defaultSession == "" {
		return 0, nil
	}
	res, err := conn.ExecContext(ctx,
		`UPDATE attendance_groups SET session = ? WHERE session IS NULL OR session = ''`, defaultSession)
	if err != nil {
		return 0, fmt.Errorf("backfill session: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}
