package catalog

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"
	"github.com/reliq/reliq"
)

// PostgresProvider reflects a live PostgreSQL connection's pg_catalog into
// RelationMeta, recognizing tables ('r'), views ('v'), materialized views
// ('m'), and foreign tables ('f'). It is the default, runnable
// implementation of Provider shipped alongside the pluggable interface
// (spec §6 treats the catalog provider as an external collaborator; this
// is that collaborator for PostgreSQL).
type PostgresProvider struct {
	db *sql.DB
	// Database is the logical db segment stamped onto every FQRN this
	// provider reports; PostgreSQL's own catalogs have no notion of a
	// cross-database qualifier from within one connection, so it is
	// supplied by the caller (typically the connection's dbname).
	Database string
	// Schemas restricts reflection to the given schemas. Empty means "all
	// schemas except pg_catalog/information_schema".
	Schemas []string
}

// NewPostgresProvider wraps an open *sql.DB. database is stamped onto
// every relation's FQRN as the db segment.
func NewPostgresProvider(db *sql.DB, database string) *PostgresProvider {
	return &PostgresProvider{db: db, Database: database}
}

const relationsQuery = `
select c.oid, n.nspname, c.relname, c.relkind,
       coalesce(obj_description(c.oid, 'pg_class'), '')
from pg_catalog.pg_class c
join pg_catalog.pg_namespace n on n.oid = c.relnamespace
where c.relkind in ('r', 'v', 'm', 'f')
  and (coalesce(cardinality($1::text[]), 0) = 0 or n.nspname = any($1::text[]))
  and n.nspname not in ('pg_catalog', 'information_schema', 'pg_toast')
order by n.nspname, c.relname
`

const fieldsQuery = `
select a.attname, a.attnum, t.typname, a.attnotnull,
       coalesce(pk.is_pkey, false), coalesce(uq.is_unique, false)
from pg_catalog.pg_attribute a
join pg_catalog.pg_type t on t.oid = a.atttypid
left join lateral (
    select true as is_pkey from pg_catalog.pg_constraint con
    where con.conrelid = a.attrelid and con.contype = 'p' and a.attnum = any(con.conkey)
) pk on true
left join lateral (
    select true as is_unique from pg_catalog.pg_constraint con
    where con.conrelid = a.attrelid and con.contype = 'u' and a.attnum = any(con.conkey)
) uq on true
where a.attrelid = $1 and a.attnum > 0 and not a.attisdropped
order by a.attnum
`

// fkeysQuery casts conkey/confkey to int2[] so the driver can decode them
// with pq.Array into a plain []int16.
const fkeysQuery = `
select con.conname, rn.nspname, rc.relname, con.conkey::int2[], con.confkey::int2[]
from pg_catalog.pg_constraint con
join pg_catalog.pg_class rc on rc.oid = con.confrelid
join pg_catalog.pg_namespace rn on rn.oid = rc.relnamespace
where con.conrelid = $1 and con.contype = 'f'
`

const inheritsQuery = `
select pn.nspname, pc.relname
from pg_catalog.pg_inherits inh
join pg_catalog.pg_class pc on pc.oid = inh.inhparent
join pg_catalog.pg_namespace pn on pn.oid = pc.relnamespace
where inh.inhrelid = $1
`

// Relations implements Provider.
func (p *PostgresProvider) Relations(ctx context.Context) ([]RelationMeta, error) {
	rows, err := p.db.QueryContext(ctx, relationsQuery, pq.Array(p.Schemas))
	if err != nil {
		return nil, fmt.Errorf("catalog: postgres: relations: %w", err)
	}
	defer rows.Close()

	type relRow struct {
		oid     int64
		schema  string
		name    string
		relkind string
		comment string
	}
	var relRows []relRow
	for rows.Next() {
		var r relRow
		if err := rows.Scan(&r.oid, &r.schema, &r.name, &r.relkind, &r.comment); err != nil {
			return nil, fmt.Errorf("catalog: postgres: scan relation: %w", err)
		}
		relRows = append(relRows, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	fqrnByOID := make(map[int64]string, len(relRows))
	for _, r := range relRows {
		fqrnByOID[r.oid] = reliq.FQRN{DB: p.Database, Schema: r.schema, Name: r.name}.Normalize()
	}

	out := make([]RelationMeta, 0, len(relRows))
	for _, r := range relRows {
		kind, err := relkindToKind(r.relkind)
		if err != nil {
			return nil, err
		}
		fields, err := p.fields(ctx, r.oid)
		if err != nil {
			return nil, err
		}
		fkeys, err := p.fkeys(ctx, r.oid, fqrnByOID)
		if err != nil {
			return nil, err
		}
		inherits, err := p.inherits(ctx, r.oid)
		if err != nil {
			return nil, err
		}
		out = append(out, RelationMeta{
			Kind:        kind,
			FQRN:        fqrnByOID[r.oid],
			Description: r.comment,
			Inherits:    inherits,
			Fields:      fields,
			FKeys:       fkeys,
		})
	}
	return out, nil
}

func (p *PostgresProvider) fields(ctx context.Context, oid int64) ([]FieldMeta, error) {
	rows, err := p.db.QueryContext(ctx, fieldsQuery, oid)
	if err != nil {
		return nil, fmt.Errorf("catalog: postgres: fields: %w", err)
	}
	defer rows.Close()

	var fields []FieldMeta
	for rows.Next() {
		var (
			name       string
			num        int
			typname    string
			notNull    bool
			pkey, uniq bool
		)
		if err := rows.Scan(&name, &num, &typname, &notNull, &pkey, &uniq); err != nil {
			return nil, fmt.Errorf("catalog: postgres: scan field: %w", err)
		}
		fields = append(fields, FieldMeta{
			Name:    name,
			Num:     num,
			Type:    mapPGType(typname),
			PKey:    pkey,
			Unique:  uniq,
			NotNull: notNull,
		})
	}
	return fields, rows.Err()
}

func (p *PostgresProvider) fkeys(ctx context.Context, oid int64, fqrnByOID map[int64]string) ([]FKeyMeta, error) {
	rows, err := p.db.QueryContext(ctx, fkeysQuery, oid)
	if err != nil {
		return nil, fmt.Errorf("catalog: postgres: fkeys: %w", err)
	}
	defer rows.Close()

	var fkeys []FKeyMeta
	for rows.Next() {
		var (
			name                string
			remoteSchema        string
			remoteName          string
			conkey, confk       []int16
		)
		if err := rows.Scan(&name, &remoteSchema, &remoteName, pq.Array(&conkey), pq.Array(&confk)); err != nil {
			return nil, fmt.Errorf("catalog: postgres: scan fkey: %w", err)
		}
		remoteFQRN := reliq.FQRN{DB: p.Database, Schema: remoteSchema, Name: remoteName}.Normalize()
		fkeys = append(fkeys, FKeyMeta{
			Name:            name,
			RemoteFQRN:      remoteFQRN,
			LocalFieldNums:  int16sToInts(conkey),
			RemoteFieldNums: int16sToInts(confk),
		})
	}
	return fkeys, rows.Err()
}

func int16sToInts(vs []int16) []int {
	out := make([]int, len(vs))
	for i, v := range vs {
		out[i] = int(v)
	}
	return out
}

func (p *PostgresProvider) inherits(ctx context.Context, oid int64) ([]string, error) {
	rows, err := p.db.QueryContext(ctx, inheritsQuery, oid)
	if err != nil {
		return nil, fmt.Errorf("catalog: postgres: inherits: %w", err)
	}
	defer rows.Close()

	var parents []string
	for rows.Next() {
		var schema, name string
		if err := rows.Scan(&schema, &name); err != nil {
			return nil, fmt.Errorf("catalog: postgres: scan inherits: %w", err)
		}
		parents = append(parents, reliq.FQRN{DB: p.Database, Schema: schema, Name: name}.Normalize())
	}
	return parents, rows.Err()
}

func relkindToKind(relkind string) (reliq.Kind, error) {
	switch relkind {
	case "r":
		return reliq.Table, nil
	case "v":
		return reliq.View, nil
	case "m":
		return reliq.Materialized, nil
	case "f":
		return reliq.Foreign, nil
	default:
		return 0, fmt.Errorf("catalog: postgres: unsupported relkind %q", relkind)
	}
}

func mapPGType(typname string) reliq.Type {
	switch typname {
	case "text", "varchar", "bpchar", "name":
		return reliq.TypeString
	case "int2", "int4":
		return reliq.TypeInt
	case "int8":
		return reliq.TypeInt64
	case "bool":
		return reliq.TypeBool
	case "float4", "float8", "numeric":
		return reliq.TypeFloat64
	case "timestamp", "timestamptz", "date", "time", "timetz":
		return reliq.TypeTime
	case "uuid":
		return reliq.TypeUUID
	case "json", "jsonb":
		return reliq.TypeJSON
	case "bytea":
		return reliq.TypeBytes
	default:
		return reliq.TypeUnknown
	}
}
