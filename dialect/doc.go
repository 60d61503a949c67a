// Package dialect provides the database dialect abstraction the compiler
// and executor adapter are built on.
//
// This package defines the interfaces used for database-specific
// operations. reliq supports PostgreSQL through two interchangeable
// database/sql drivers:
//
//   - dialect.Postgres = "postgres" (github.com/lib/pq)
//   - dialect.PGX      = "pgx"      (github.com/jackc/pgx/v5/stdlib)
//
// # Driver interface
//
//	type Driver interface {
//	    Exec(ctx context.Context, query string, args, v any) error
//	    Query(ctx context.Context, query string, args, v any) error
//	    Tx(ctx context.Context) (Tx, error)
//	    Close() error
//	    Dialect() string
//	}
//
// # Tx interface
//
// Tx extends Driver with transaction-closing methods:
//
//	type Tx interface {
//	    Driver
//	    Commit() error
//	    Rollback() error
//	}
//
// # ExecQuerier interface
//
// ExecQuerier is implemented by both Driver and Tx:
//
//	type ExecQuerier interface {
//	    Exec(ctx context.Context, query string, args, v any) error
//	    Query(ctx context.Context, query string, args, v any) error
//	}
//
// # Usage
//
//	db, err := sql.Open(dialect.Postgres, "postgres://...")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer db.Close()
//
// # Sub-packages
//
//   - dialect/sql: the database/sql-backed Driver/Conn implementation
//   - dialect/sql/sqlgraph: the query-expression compiler and constraint
//     error classification
package dialect
