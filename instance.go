package reliq

import "sync/atomic"

// Kind is the relation's catalog kind. It decorates debug output and
// selects whether the PostgreSQL ONLY inheritance-exclusion keyword
// applies: only Table honors it, views and foreign tables ignore it.
type Kind uint8

const (
	Table Kind = iota
	View
	Materialized
	Foreign
)

func (k Kind) String() string {
	switch k {
	case Table:
		return "table"
	case View:
		return "view"
	case Materialized:
		return "materialized view"
	case Foreign:
		return "foreign table"
	default:
		return "unknown"
	}
}

// QueryKind names the terminal verb a compile is being performed for. The
// compiler threads it through the walk so that nested recursion (e.g. a
// join partner's own WHERE fragment) renders consistently with the
// top-level verb (spec §4.5: "nested walks inherit the parent's kind").
type QueryKind string

const (
	SelectKind QueryKind = "select"
	CountKind  QueryKind = "count"
	InsertKind QueryKind = "insert"
	UpdateKind QueryKind = "update"
	DeleteKind QueryKind = "delete"
)

// SelectParams holds the terminal SELECT modifiers (spec §4.5 step 4).
type SelectParams struct {
	OrderBy string
	Limit   int
	Offset  int
}

var nextInstanceID atomic.Uint64

// Instance is a relation instance: a mapping from column name to Field, a
// mapping from foreign-key name to ForeignKey, a set-op root, and the
// handful of query-shaping flags the compiler needs. It is the one
// mutable object users build queries out of; every set-op combinator
// returns a fresh Instance rather than mutating its receiver (spec §3).
type Instance struct {
	id     uint64
	idCast *uint64

	fqrn FQRN
	kind Kind

	fieldOrder []string
	fields     map[string]*Field

	fkeyOrder []string
	fkeys     map[string]*ForeignKey

	setOpRoot *SetOp

	only   bool
	params SelectParams
}

// NewInstance constructs a fresh relation instance from class templates.
// Called by catalog.Factory when instantiating a Class; fieldMeta and
// fkeyTemplates are deep-copied into fresh, independent Field/ForeignKey
// values so instances never share mutable state (spec §3 lifecycle).
func NewInstance(fqrn FQRN, kind Kind, fieldOrder []string, fieldMeta map[string]FieldMeta, fkeyOrder []string, fkeyTemplates map[string]ForeignKey) *Instance {
	inst := &Instance{
		id:         nextInstanceID.Add(1),
		fqrn:       fqrn,
		kind:       kind,
		fieldOrder: append([]string(nil), fieldOrder...),
		fields:     make(map[string]*Field, len(fieldOrder)),
		fkeyOrder:  append([]string(nil), fkeyOrder...),
		fkeys:      make(map[string]*ForeignKey, len(fkeyOrder)),
	}
	for _, name := range fieldOrder {
		f := newField(name, fieldMeta[name])
		inst.fields[name] = &f
	}
	for _, name := range fkeyOrder {
		fk := fkeyTemplates[name].clone()
		inst.fkeys[name] = &fk
	}
	inst.setOpRoot = leafOp(inst)
	return inst
}

// ID returns id_cast if present, else the stable instance identity. It is
// used as the per-query alias suffix (rN) and is stable for the duration
// of one compile (spec §3).
func (i *Instance) ID() uint64 {
	if i.idCast != nil {
		return *i.idCast
	}
	return i.id
}

// FQRN returns the instance's fully-qualified relation name.
func (i *Instance) FQRN() FQRN { return i.fqrn }

// Kind returns the instance's catalog kind.
func (i *Instance) Kind() Kind { return i.kind }

// Only reports whether the instance is restricted to non-inherited tuples.
func (i *Instance) Only() bool { return i.only }

// SetOnly sets the ONLY restriction and returns the receiver for chaining.
func (i *Instance) SetOnly(only bool) *Instance {
	i.only = only
	return i
}

// SelectParams returns the current LIMIT/OFFSET/ORDER BY modifiers.
func (i *Instance) SelectParams() SelectParams { return i.params }

// SetSelectParams replaces the LIMIT/OFFSET/ORDER BY modifiers and returns
// the receiver for chaining.
func (i *Instance) SetSelectParams(p SelectParams) *Instance {
	i.params = p
	return i
}

// SetOpRoot returns the instance's current set-op tree.
func (i *Instance) SetOpRoot() *SetOp { return i.setOpRoot }

// FieldOrder returns the relation's column names in catalog order.
func (i *Instance) FieldOrder() []string { return append([]string(nil), i.fieldOrder...) }

// Field returns the named field, or false if the relation has no such
// column.
func (i *Instance) Field(name string) (*Field, bool) {
	f, ok := i.fields[name]
	return f, ok
}

// Set applies a (value, comparator?) constraint to the named field. It
// fails with UnknownAttributeError if name is not a column of this
// relation, and with InvalidComparatorError if the null/comparator
// invariant is violated.
func (i *Instance) Set(name string, value any, comp ...Comparator) error {
	f, ok := i.fields[name]
	if !ok {
		return NewUnknownAttributeError(i.fqrn.Normalize(), name)
	}
	return f.Set(value, comp...)
}

// FKeyOrder returns the relation's foreign-key names in catalog order
// (forward keys first, then synthesized reverse keys, as produced by the
// catalog factory).
func (i *Instance) FKeyOrder() []string { return append([]string(nil), i.fkeyOrder...) }

// FKey returns the named foreign key, or false if it does not exist.
func (i *Instance) FKey(name string) (*ForeignKey, bool) {
	fk, ok := i.fkeys[name]
	return fk, ok
}

// Join binds the named foreign key to a partner instance (or a
// map[string]any applied to a fresh instance of the remote relation),
// recording the join in the relation's joined_to graph (spec §4.4).
func (i *Instance) Join(name string, partner any) error {
	fk, ok := i.fkeys[name]
	if !ok {
		return NewUnknownAttributeError(i.fqrn.Normalize(), name)
	}
	return fk.Set(partner)
}

// JoinedTo returns the partner instances currently bound via foreign
// keys, keyed by fkey name (a map, so unordered). It is derived directly from
// each ForeignKey's constraining reference rather than kept as separate
// state, so it always reflects the instance's current fkeys.
func (i *Instance) JoinedTo() map[string]*Instance {
	out := make(map[string]*Instance)
	for _, name := range i.fkeyOrder {
		if p := i.fkeys[name].Constraining(); p != nil {
			out[name] = p
		}
	}
	return out
}

// IsSet reports whether the instance carries any constraint: a set field,
// a joined partner that is itself set (recursively), a non-leaf set-op
// root, or negation (spec §3 invariant).
func (i *Instance) IsSet() bool {
	return i.isSet(make(map[uint64]bool))
}

func (i *Instance) isSet(seen map[uint64]bool) bool {
	if seen[i.id] {
		return false
	}
	seen[i.id] = true
	for _, name := range i.fieldOrder {
		if i.fields[name].IsSet() {
			return true
		}
	}
	if i.setOpRoot.kind != OpLeaf {
		return true
	}
	for _, name := range i.fkeyOrder {
		if p := i.fkeys[name].Constraining(); p != nil && p.isSet(seen) {
			return true
		}
	}
	return false
}

// clone returns an independent copy of i: fresh identity, independent
// Field/ForeignKey maps (constraining references preserved), the same
// ONLY flag, and no select params. The caller is responsible for
// assigning the clone's set-op root (spec §4.3).
func (i *Instance) clone() *Instance {
	c := &Instance{
		id:         nextInstanceID.Add(1),
		fqrn:       i.fqrn,
		kind:       i.kind,
		only:       i.only,
		fieldOrder: i.fieldOrder,
		fields:     make(map[string]*Field, len(i.fields)),
		fkeyOrder:  i.fkeyOrder,
		fkeys:      make(map[string]*ForeignKey, len(i.fkeys)),
	}
	if i.idCast != nil {
		id := *i.idCast
		c.idCast = &id
	}
	for name, f := range i.fields {
		clone := f.clone()
		c.fields[name] = &clone
	}
	for name, fk := range i.fkeys {
		clone := fk.cloneKeepConstraining()
		c.fkeys[name] = &clone
	}
	return c
}

// Cast returns a new instance of a different class (fieldOrder/fieldMeta/
// fkeyOrder/fkeyTemplates describe the target class, supplied by
// catalog.Factory) carrying over this instance's set field values/
// comparators and joined partners by name, with id_cast pointing at this
// instance's identity so alias assignment treats the cast instance as the
// same graph node (spec §3, §9).
func (i *Instance) Cast(fqrn FQRN, kind Kind, fieldOrder []string, fieldMeta map[string]FieldMeta, fkeyOrder []string, fkeyTemplates map[string]ForeignKey) *Instance {
	c := NewInstance(fqrn, kind, fieldOrder, fieldMeta, fkeyOrder, fkeyTemplates)
	for name, f := range i.fields {
		if target, ok := c.fields[name]; ok && f.IsSet() {
			_ = target.Set(f.Value(), f.Comp())
		}
	}
	for name, fk := range i.fkeys {
		if target, ok := c.fkeys[name]; ok && fk.Constraining() != nil {
			target.constraining = fk.Constraining()
		}
	}
	id := i.ID()
	c.idCast = &id
	return c
}

// ToDict returns the instance's set fields as a plain map, the Go
// analogue of the original's to_dict accessor.
func (i *Instance) ToDict() map[string]any {
	out := make(map[string]any, len(i.fieldOrder))
	for _, name := range i.fieldOrder {
		if f := i.fields[name]; f.IsSet() {
			out[name] = f.Value()
		}
	}
	return out
}
