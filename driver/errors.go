package driver

import (
	"fmt"
	"io"
	"os"

	"github.com/reliq/reliq"
	"github.com/reliq/reliq/dialect/sql/sqlgraph"
)

// Diagnostics is the default diagnostic stream a failing statement's SQL
// and bindings are printed to before the error propagates, matching
// original_source/half_orm/relation.py's `sys.stderr.write("QUERY:
// {}\nVALUES: {}\n".format(...))` in its exception path (spec.md §7
// driver-error: "surfaced verbatim after printing the failing SQL and
// bindings to the diagnostic stream"). Tests may swap it for a buffer.
var Diagnostics io.Writer = os.Stderr

// wrapDriverError classifies a raw driver failure via sqlgraph's
// SQLSTATE-based constraint detection, prints the failing statement and
// its bindings to c's diagnostic stream, and wraps the failure as a
// *reliq.DriverError.
func (c Conn) wrapDriverError(sqlText string, args []any, err error) error {
	w := c.diag
	if w == nil {
		w = Diagnostics
	}
	if w != nil {
		fmt.Fprintf(w, "QUERY: %s\nVALUES: %v\n", sqlText, args)
	}
	return reliq.NewDriverError(sqlText, args, err, sqlgraph.IsConstraintError(err))
}
