package db

import (
	"strconv"
	"strings"
	"sync/atomic"
)

// Dialect selects placeholder syntax and schema DDL.
type Dialect int32

const (
	Postgres Dialect = iota
	MySQL
)

var current atomic.Int32

// DialectFor maps a database/sql driver name to its dialect.
func DialectFor(driver string) Dialect {
	if strings.EqualFold(strings.TrimSpace(driver), "mysql") {
		return MySQL
	}
	return Postgres
}

// SetDialect is called once the connection is open.
func SetDialect(d Dialect) { current.Store(int32(d)) }

// CurrentDialect returns the active dialect (Postgres by default).
func CurrentDialect() Dialect { return Dialect(current.Load()) }

// Rebind rewrites ? placeholders for the active dialect.
// Question marks inside single-quoted literals are left alone.
func Rebind(query string) string {
	if CurrentDialect() == MySQL {
		return query
	}
	return rebindDollar(query)
}

func rebindDollar(query string) string {
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	inQuote := false
	for i := 0; i < len(query); i++ {
		c := query[i]
		switch {
		case c == '\'':
			inQuote = !inQuote
			b.WriteByte(c)
		case c == '?' && !inQuote:
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}
