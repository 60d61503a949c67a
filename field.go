package reliq

// Type describes the declared PostgreSQL column type behind a Field. The
// engine is read-agnostic to it: Type is metadata for callers (and for
// catalog.RelationMeta) to inspect, never interpreted by the compiler.
type Type uint8

// Recognized column type descriptors.
const (
	TypeUnknown Type = iota
	TypeString
	TypeInt
	TypeInt64
	TypeBool
	TypeFloat64
	TypeTime
	TypeUUID
	TypeJSON
	TypeBytes
	TypeEnum
)

// String returns the descriptor's name, for debug output only.
func (t Type) String() string {
	switch t {
	case TypeString:
		return "string"
	case TypeInt:
		return "int"
	case TypeInt64:
		return "int64"
	case TypeBool:
		return "bool"
	case TypeFloat64:
		return "float64"
	case TypeTime:
		return "time"
	case TypeUUID:
		return "uuid"
	case TypeJSON:
		return "json"
	case TypeBytes:
		return "bytes"
	case TypeEnum:
		return "enum"
	default:
		return "unknown"
	}
}

// FieldMeta is the catalog-derived, read-only shape of one column: its
// declared type and its pkey/unique/notnull flags. The compiler does not
// read it.
type FieldMeta struct {
	Type     Type
	PKey     bool
	Unique   bool
	NotNull  bool
}

// Field carries a per-instance constraint on one column: a value, a
// comparator token, and a set/unset flag. Fields are created when a
// relation class is instantiated and mutated by the user (or by a verb
// taking field=value kwargs); they are reset only by creating a fresh
// relation instance.
type Field struct {
	name     string
	metadata FieldMeta
	isSet    bool
	value    any
	comp     Comparator
}

// newField returns an unset Field for the given column.
func newField(name string, meta FieldMeta) Field {
	return Field{name: name, metadata: meta, comp: EQ}
}

// Set applies the null/comparator invariants of spec §3: if value is nil
// then comp must be Is or IsNot; if value is non-nil and no comparator is
// given, comp defaults to EQ. Re-setting an already-set field replaces the
// prior pair atomically; there is no error on re-set.
func (f *Field) Set(value any, comp ...Comparator) error {
	c := EQ
	if len(comp) > 0 {
		c = comp[0]
	}
	if !c.valid() {
		return NewInvalidComparatorError(f.name, c, value)
	}
	if value == nil && !c.nullable() {
		return NewInvalidComparatorError(f.name, c, value)
	}
	if value != nil && len(comp) == 0 {
		c = EQ
	}
	f.value, f.comp, f.isSet = value, c, true
	return nil
}

// Unset clears the field back to its unset state.
func (f *Field) Unset() {
	f.value, f.comp, f.isSet = nil, EQ, false
}

// Value returns the last set value, or nil if unset.
func (f Field) Value() any { return f.value }

// IsSet reports whether the field carries a constraint.
func (f Field) IsSet() bool { return f.isSet }

// Name returns the column name.
func (f Field) Name() string { return f.name }

// Comp returns the comparator token (meaningless unless IsSet).
func (f Field) Comp() Comparator { return f.comp }

// Metadata returns the catalog-derived type descriptor and flags.
func (f Field) Metadata() FieldMeta { return f.metadata }

// clone returns an independent copy carrying the same (value, comp, isSet)
// triple, used by the set-op combinators so that instances never share
// mutable Field state.
func (f Field) clone() Field {
	return f
}
