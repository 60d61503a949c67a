package reliq

// Comparator is a per-field predicate token. It is a defined string type
// with named constants rather than a free-form string, so an invalid token
// is caught at construction time instead of silently reaching the
// compiler as a typo.
type Comparator string

// Recognized comparator tokens.
const (
	EQ    Comparator = "="
	NEQ   Comparator = "!="
	GT    Comparator = ">"
	GTE   Comparator = ">="
	LT    Comparator = "<"
	LTE   Comparator = "<="
	Like  Comparator = "like"
	ILike Comparator = "ilike"
	Is    Comparator = "is"
	IsNot Comparator = "is not"
)

// valid reports whether c is one of the recognized comparator tokens.
func (c Comparator) valid() bool {
	switch c {
	case EQ, NEQ, GT, GTE, LT, LTE, Like, ILike, Is, IsNot:
		return true
	}
	return false
}

// nullable reports whether c may be paired with a null value.
func (c Comparator) nullable() bool {
	return c == Is || c == IsNot
}
