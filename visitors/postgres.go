package visitors

import (
	"fmt"

	"github.com/bawdo/sqlwindow/internal/quoting"
)

// PostgresVisitor generates PostgreSQL-dialect SQL, the reference dialect
// for WINDOW clauses. Identifiers are quoted with double quotes:
// "table"."column". Window names are written verbatim.
type PostgresVisitor struct {
	*baseVisitor
}

// NewPostgresVisitor creates a PostgresVisitor ready for use.
// Parameterized mode ($1, $2, ...) is on by default; pass WithoutParams()
// to inline literal values.
func NewPostgresVisitor(opts ...Option) *PostgresVisitor {
	v := &PostgresVisitor{}
	v.baseVisitor = &baseVisitor{
		outer:         v,
		quoteIdent:    quoting.DoubleQuote,
		placeholder:   func(i int) string { return fmt.Sprintf("$%d", i) },
		parameterize:  true,
		clauseBreak:   " ",
		windowSep:     ", ",
		selectClauses: defaultSelectClauses(),
	}
	v.applyOptions(opts)
	return v
}
