package db

import (
	"context"
	"database/sql"
)

// QueryRower is satisfied by *sql.DB and *sql.Tx.
type QueryRower interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// NullIfEmpty helps store optional strings as NULL.
func NullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// NullFloat stores a nil pointer as NULL.
func NullFloat(p *float64) any {
	if p == nil {
		return nil
	}
	return *p
}

// FloatPtr converts a scanned nullable float.
func FloatPtr(n sql.NullFloat64) *float64 {
	if !n.Valid {
		return nil
	}
	v := n.Float64
	return &v
}

// HasTable reports whether table exists in the current schema.
func HasTable(ctx context.Context, q QueryRower, table string) bool {
	schema := "current_schema()"
	if CurrentDialect() == MySQL {
		schema = "DATABASE()"
	}
	var name sql.NullString
	err := q.QueryRowContext(ctx, Rebind(`
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = `+schema+`
		  AND table_name = ?
		LIMIT 1
	`), table).Scan(&name)
	if err != nil {
		// bad connection and no rows both mean "not usable"
		return false
	}
	return name.Valid && name.String != ""
}
