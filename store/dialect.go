package store

import (
	"strconv"
	"strings"
)

// Dialect covers the few spots where SQLite and PostgreSQL SQL diverge.
// Placeholder style is handled separately by Q.
type Dialect interface {
	// ReturningID is appended to an INSERT that needs the generated id back.
	ReturningID() string
	// LockRow is appended to a SELECT that must hold its rows locked for
	// the rest of the transaction.
	LockRow() string
}

// sqliteDialect relies on the single write connection: transactions already
// serialize, and LastInsertId covers generated ids.
type sqliteDialect struct{}

func (sqliteDialect) ReturningID() string { return "" }
func (sqliteDialect) LockRow() string     { return "" }

type postgresDialect struct{}

func (postgresDialect) ReturningID() string { return " RETURNING id" }
func (postgresDialect) LockRow() string     { return " FOR UPDATE" }

// Rebind rewrites ? placeholders into PostgreSQL's $1..$n form. Queries here
// never carry literal question marks, so a straight scan is enough.
func Rebind(query string) string {
	if !strings.ContainsRune(query, '?') {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteByte(query[i])
	}
	return b.String()
}
