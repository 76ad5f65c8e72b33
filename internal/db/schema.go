package db

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"strings"
)

//go:embed schema/*.sql
var schemaFS embed.FS

// Statements returns the DDL statements for a dialect, in file order.
func Statements(d Dialect) ([]string, error) {
	name := "schema/postgres.sql"
	if d == MySQL {
		name = "schema/mysql.sql"
	}
	raw, err := schemaFS.ReadFile(name)
	if err != nil {
		return nil, err
	}
	out := []string{}
	for _, stmt := range strings.Split(string(raw), ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt != "" {
			out = append(out, stmt)
		}
	}
	return out, nil
}

// Migrate creates missing tables and indexes. Every statement is idempotent.
func Migrate(ctx context.Context, conn *sql.DB) error {
	stmts, err := Statements(CurrentDialect())
	if err != nil {
		return err
	}
	for i, stmt := range stmts {
		if _, err := conn.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate statement %d: %w", i+1, err)
		}
	}
	return nil
}
