package reliq

// SetOpKind tags the variant of a SetOp node.
type SetOpKind uint8

const (
	// OpLeaf holds a relation instance directly; its own field
	// constraints are what the compiler renders, not its joined_to graph.
	OpLeaf SetOpKind = iota
	// OpNot wraps a whole subtree in negation.
	OpNot
	// OpAnd, OpOr, OpAndNot are the binary combinators.
	OpAnd
	OpOr
	OpAndNot
)

// SetOp is a node of the {leaf, and, or, and-not, not} tree combined over
// relation instances (spec §3). The tree is built exclusively by the
// combinator methods on Instance; user code never constructs a SetOp by
// hand, so its fields stay unexported and reachable only through the
// accessors below.
type SetOp struct {
	kind SetOpKind
	leaf *Instance
	x    *SetOp // operand of OpNot
	l, r *SetOp // operands of the binary kinds
}

// Kind returns the node's variant.
func (s *SetOp) Kind() SetOpKind { return s.kind }

// Leaf returns the held instance; valid only when Kind() == OpLeaf.
func (s *SetOp) Leaf() *Instance { return s.leaf }

// Operand returns the negated subtree; valid only when Kind() == OpNot.
func (s *SetOp) Operand() *SetOp { return s.x }

// Left returns the left operand; valid only for the binary kinds.
func (s *SetOp) Left() *SetOp { return s.l }

// Right returns the right operand; valid only for the binary kinds.
func (s *SetOp) Right() *SetOp { return s.r }

func leafOp(inst *Instance) *SetOp { return &SetOp{kind: OpLeaf, leaf: inst} }

// substituteLeaf returns a structural copy of s with every OpLeaf node
// holding old replaced by one holding replacement. Subtrees that don't
// reference old are shared, not copied, since leaves may legitimately
// share instances (spec §3). This is how And/Or/AndNot/Negate re-point a
// cloned operand's own prior combinations onto the clone, per the §4.3
// cloning rule ("re-point joined_to entries ... so that a subsequent &
// keeps the join target intact" — the same re-pointing applies to the
// operand's own set-op subtree).
func substituteLeaf(s *SetOp, old, replacement *Instance) *SetOp {
	if s == nil {
		return nil
	}
	switch s.kind {
	case OpLeaf:
		if s.leaf == old {
			return leafOp(replacement)
		}
		return s
	case OpNot:
		x := substituteLeaf(s.x, old, replacement)
		if x == s.x {
			return s
		}
		return &SetOp{kind: OpNot, x: x}
	default:
		l := substituteLeaf(s.l, old, replacement)
		r := substituteLeaf(s.r, old, replacement)
		if l == s.l && r == s.r {
			return s
		}
		return &SetOp{kind: s.kind, l: l, r: r}
	}
}

// And returns a new instance, a clone of l, whose set-op root is
// Binary(and, l.setOpRoot, r.setOpRoot) — spec §4.3 `L & R`.
func (l *Instance) And(r *Instance) *Instance {
	return l.combine(OpAnd, r)
}

// Or returns a new instance whose set-op root is Binary(or, ...) —
// spec §4.3 `L | R`.
func (l *Instance) Or(r *Instance) *Instance {
	return l.combine(OpOr, r)
}

// AndNot returns a new instance whose set-op root is Binary(and_not, ...)
// — spec §4.3 `L - R`.
func (l *Instance) AndNot(r *Instance) *Instance {
	return l.combine(OpAndNot, r)
}

func (l *Instance) combine(kind SetOpKind, r *Instance) *Instance {
	l2 := l.clone()
	left := substituteLeaf(l.setOpRoot, l, l2)
	l2.setOpRoot = &SetOp{kind: kind, l: left, r: r.setOpRoot}
	return l2
}

// Negate returns a new instance with the current set-op root wrapped in a
// top-level Not — spec §4.3 `-L`. Negating twice unwraps back to the
// original root instead of nesting Not(Not(x)), matching the original's
// boolean-toggle `__neg__` and satisfying `--A ≡ A` (spec §8 property 3).
func (l *Instance) Negate() *Instance {
	l2 := l.clone()
	switch l.setOpRoot.kind {
	case OpNot:
		l2.setOpRoot = substituteLeaf(l.setOpRoot.x, l, l2)
	default:
		l2.setOpRoot = &SetOp{kind: OpNot, x: substituteLeaf(l.setOpRoot, l, l2)}
	}
	return l2
}

// Xor returns the symmetric difference `(L | R) - (L & R)` — spec §4.3.
func (l *Instance) Xor(r *Instance) *Instance {
	return l.Or(r).AndNot(l.And(r))
}
