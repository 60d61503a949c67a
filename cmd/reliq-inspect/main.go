// Command reliq-inspect is a maintainer diagnostic tool: given a relation's
// FQRN and a set of field=value constraints, it connects to the catalog,
// compiles the resulting SELECT, prints both the parameterized SQL and
// its mogrified (values substituted) form, then runs it and prints the
// matching rows. It is not the CLI spec.md
// excludes — it is a smoke-test entry point for exercising the catalog and
// compiler end to end, kept deliberately small.
package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"os"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/lib/pq"

	"github.com/reliq/reliq"
	"github.com/reliq/reliq/catalog"
	"github.com/reliq/reliq/config"
	"github.com/reliq/reliq/dialect"
	"github.com/reliq/reliq/dialect/sql/sqlgraph"
	"github.com/reliq/reliq/driver"
)

func main() {
	var (
		fqrn        = flag.String("fqrn", "", `fully-qualified relation name, e.g. "db"."schema"."name"`)
		envFile     = flag.String("env", "", "optional key=value file to load before reading PG* environment variables")
		dialectFlag = flag.String("dialect", dialect.Postgres, `driver to open: "postgres" (lib/pq) or "pgx" (pgx/v5 stdlib)`)
	)
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: %s -fqrn '\"db\".\"schema\".\"name\"' [field=value ...]\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if err := run(*fqrn, *envFile, *dialectFlag, flag.Args()); err != nil {
		fmt.Fprintln(os.Stderr, "reliq-inspect:", err)
		os.Exit(1)
	}
}

func run(fqrn, envFile, dialectName string, constraints []string) error {
	if fqrn == "" {
		return fmt.Errorf("-fqrn is required")
	}
	if dialectName != dialect.Postgres && dialectName != dialect.PGX {
		return fmt.Errorf("-dialect: unknown driver %q (want %q or %q)", dialectName, dialect.Postgres, dialect.PGX)
	}

	cfg, err := config.Load(envFile)
	if err != nil {
		return err
	}

	db, err := sql.Open(dialectName, cfg.ConnString())
	if err != nil {
		return fmt.Errorf("open: %w", err)
	}
	defer db.Close()

	ctx := context.Background()
	provider := catalog.NewPostgresProvider(db, cfg.Database)
	provider.Schemas = cfg.Schemas

	factory := catalog.NewFactory()
	if err := factory.Load(ctx, provider); err != nil {
		return fmt.Errorf("load catalog: %w", err)
	}

	class, err := factory.ClassFor(fqrn)
	if err != nil {
		return err
	}
	inst := class.NewInstance()

	for _, kv := range constraints {
		name, value, ok := strings.Cut(kv, "=")
		if !ok {
			return fmt.Errorf("constraint %q: expected field=value", kv)
		}
		if err := inst.Set(name, value); err != nil {
			return err
		}
	}

	sqlText, args, err := sqlgraph.Compile(inst, reliq.SelectKind)
	if err != nil {
		return err
	}
	fmt.Println(sqlText)
	fmt.Println(driver.Mogrify(sqlText, args))

	conn, openedDriver, err := driver.Open(dialectName, cfg.ConnString())
	if err != nil {
		return err
	}
	defer openedDriver.Close()

	rows, err := driver.Select(ctx, conn, inst)
	if err != nil {
		return err
	}
	fmt.Printf("%d row(s) matched %s\n", len(rows), fqrn)
	for _, row := range rows {
		fmt.Printf("  %v\n", row)
	}
	return nil
}
