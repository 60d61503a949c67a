// Package driver is the executor adapter: it takes the %s-placeholder SQL
// and positional bindings a sqlgraph.Compile call produces, rewrites the
// placeholders for whichever database/sql driver is registered
// (github.com/lib/pq or github.com/jackc/pgx/v5/stdlib), executes the
// statement, and classifies failures into reliq's error taxonomy.
package driver

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/reliq/reliq/dialect"
	"github.com/reliq/reliq/dialect/sql"
)

// Conn wraps a dialect.Driver (or dialect.Tx), an optional debug sink, and
// an optional per-Conn override of the package's default diagnostic
// stream (Diagnostics).
type Conn struct {
	drv   dialect.ExecQuerier
	debug func(...any)
	diag  io.Writer
}

// NewConn wraps an existing dialect.ExecQuerier (a *sql.Driver or *sql.Tx).
func NewConn(drv dialect.ExecQuerier) Conn {
	return Conn{drv: drv}
}

// Open opens a new connection for the given dialect name ("postgres" or
// "pgx") and data source.
func Open(dialectName, source string) (Conn, *sql.Driver, error) {
	drv, err := sql.Open(dialectName, source)
	if err != nil {
		return Conn{}, nil, err
	}
	return Conn{drv: drv}, drv, nil
}

// Debug returns a copy of c that logs every statement's SQL text and
// bindings to fn before executing it. This is the surviving idea from the
// teacher's dedicated per-query stats collector, folded into the executor
// adapter as a plain option instead of a separate wrapper driver.
func (c Conn) Debug(fn func(...any)) Conn {
	c.debug = fn
	return c
}

// WithDiagnostics returns a copy of c that prints a failing statement's SQL
// and bindings to w instead of the package-level Diagnostics default
// before wrapping it as a *reliq.DriverError. Pass io.Discard to silence
// diagnostics for this Conn.
func (c Conn) WithDiagnostics(w io.Writer) Conn {
	c.diag = w
	return c
}

func (c Conn) log(sqlText string, args []any) {
	if c.debug != nil {
		c.debug(sqlText, args)
	}
}

// rewritePlaceholders converts sqlgraph's psycopg2-style "%s" positional
// placeholders into the "$1", "$2", ... form both github.com/lib/pq and
// github.com/jackc/pgx/v5/stdlib require. sqlgraph.Compile stays
// driver-placeholder-agnostic (and its output matches spec.md's %s-based
// scenarios verbatim); this is the one place the rewrite happens.
func rewritePlaceholders(sqlText string) string {
	var sb strings.Builder
	n := 0
	for i := 0; i < len(sqlText); i++ {
		if sqlText[i] == '%' && i+1 < len(sqlText) && sqlText[i+1] == 's' {
			n++
			fmt.Fprintf(&sb, "$%d", n)
			i++
			continue
		}
		sb.WriteByte(sqlText[i])
	}
	return sb.String()
}

// exec runs sqlText/args through the wrapped connection, translating any
// failure into a *reliq.DriverError with constraint classification applied.
func (c Conn) exec(ctx context.Context, sqlText string, args []any) (sql.Result, error) {
	c.log(sqlText, args)
	pgSQL := rewritePlaceholders(sqlText)
	var res sql.Result
	if err := c.drv.Exec(ctx, pgSQL, args, &res); err != nil {
		return nil, c.wrapDriverError(sqlText, args, err)
	}
	return res, nil
}

func (c Conn) query(ctx context.Context, sqlText string, args []any) (*sql.Rows, error) {
	c.log(sqlText, args)
	pgSQL := rewritePlaceholders(sqlText)
	rows := &sql.Rows{}
	if err := c.drv.Query(ctx, pgSQL, args, rows); err != nil {
		return nil, c.wrapDriverError(sqlText, args, err)
	}
	return rows, nil
}

// Mogrify renders sqlText with args substituted in place of each "%s"
// placeholder, for diagnostic printing only — never for execution. It is
// the Go analogue of psycopg2's cursor.mogrify(), named the same way since
// the original system leans on it directly for its own debug output.
func Mogrify(sqlText string, args []any) string {
	var sb strings.Builder
	i := 0
	for _, a := range args {
		idx := strings.Index(sqlText[i:], "%s")
		if idx < 0 {
			break
		}
		sb.WriteString(sqlText[i : i+idx])
		fmt.Fprintf(&sb, "%v", a)
		i += idx + 2
	}
	sb.WriteString(sqlText[i:])
	return sb.String()
}
