// Package catalog consumes metadata from an external schema provider and
// produces per-FQRN relation classes: cached templates of Field and
// ForeignKey wiring that a query-expression instance is stamped out from.
package catalog

import (
	"context"

	"github.com/reliq/reliq"
)

// FieldMeta is one column as reported by a Provider, in the provider's own
// attribute-number space (so fkeys can reference columns positionally,
// the way PostgreSQL's pg_constraint does).
type FieldMeta struct {
	Name    string
	Num     int
	Type    reliq.Type
	PKey    bool
	Unique  bool
	NotNull bool
}

// FKeyMeta is one forward foreign key as reported by a Provider.
// LocalFieldNums/RemoteFieldNums are parallel, ordered, and index into the
// owning and remote RelationMeta's Fields by Num.
type FKeyMeta struct {
	Name            string
	RemoteFQRN      string // "db"."schema"."name" or db.schema.name of the target relation
	LocalFieldNums  []int
	RemoteFieldNums []int
}

// RelationMeta is everything the engine needs to know about one relation:
// its kind, identity, description, parent relations (for inheritance),
// fields, and forward foreign keys. The catalog factory synthesizes the
// reverse of every forward key itself; providers only report the forward
// direction (spec §6).
type RelationMeta struct {
	Kind        reliq.Kind
	FQRN        string // "db"."schema"."name" or db.schema.name
	Description string
	Inherits    []string // FQRNs of parent relations, parents-first not required
	Fields      []FieldMeta
	FKeys       []FKeyMeta
}

// Provider is the catalog's required external collaborator: it reflects a
// live schema (or a precomputed fixture) into a flat list of
// RelationMeta. The engine itself never re-derives this from a live
// connection; that is entirely the provider's job (spec §6).
type Provider interface {
	Relations(ctx context.Context) ([]RelationMeta, error)
}
