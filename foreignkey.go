package reliq

import (
	"fmt"
	"strings"
)

// ForeignKey is a directed edge descriptor between two relations, plus a
// mutable reference to a constraining relation instance on the far side.
// For every forward key A→B the catalog also materializes a synthetic
// reverse key B→A (name `_reverse_fkey_<db>_<schema>_<rel>_<localfields>`)
// so the join graph is symmetric and navigable from either side (spec
// §4.2); both are plain ForeignKey values, there is no separate type.
type ForeignKey struct {
	name         string
	fromFQRN     FQRN
	toFQRN       FQRN
	localFields  []string
	remoteFields []string

	constraining *Instance

	// newRemote constructs a fresh, unconstrained instance of the remote
	// relation. It is supplied by the catalog factory at class-build time
	// (the factory is the only place that knows how to look up the
	// remote class), so ForeignKey never needs to import the catalog
	// package itself.
	newRemote func() *Instance
}

// NewForeignKey constructs a ForeignKey template. Called by the catalog
// factory while building a Class; len(localFields) must equal
// len(remoteFields) and be at least 1 (spec §3 invariant).
func NewForeignKey(name string, fromFQRN, toFQRN FQRN, localFields, remoteFields []string, newRemote func() *Instance) (ForeignKey, error) {
	if len(localFields) == 0 || len(localFields) != len(remoteFields) {
		return ForeignKey{}, fmt.Errorf("reliq: foreign key %q: local/remote field counts must match and be non-empty (got %d/%d)", name, len(localFields), len(remoteFields))
	}
	return ForeignKey{
		name:         name,
		fromFQRN:     fromFQRN,
		toFQRN:       toFQRN,
		localFields:  append([]string(nil), localFields...),
		remoteFields: append([]string(nil), remoteFields...),
		newRemote:    newRemote,
	}, nil
}

// Name returns the foreign key's name (forward names come from the
// catalog; reverse names follow the `_reverse_fkey_...` scheme).
func (fk ForeignKey) Name() string { return fk.name }

// FromFQRN returns the relation the key is declared on.
func (fk ForeignKey) FromFQRN() FQRN { return fk.fromFQRN }

// ToFQRN returns the relation the key points at.
func (fk ForeignKey) ToFQRN() FQRN { return fk.toFQRN }

// LocalFields returns the ordered local column names.
func (fk ForeignKey) LocalFields() []string { return append([]string(nil), fk.localFields...) }

// RemoteFields returns the ordered remote column names.
func (fk ForeignKey) RemoteFields() []string { return append([]string(nil), fk.remoteFields...) }

// Constraining returns the instance bound to the far side, or nil.
func (fk ForeignKey) Constraining() *Instance { return fk.constraining }

// Set binds the far-side constraining relation. v may be an *Instance
// (bound directly) or a map[string]any (kv applied to a fresh instance of
// the remote relation, per spec §4.2).
func (fk *ForeignKey) Set(v any) error {
	switch val := v.(type) {
	case *Instance:
		fk.constraining = val
		return nil
	case map[string]any:
		if fk.newRemote == nil {
			return fmt.Errorf("reliq: foreign key %q: cannot materialize a remote instance from a dict (no catalog binding)", fk.name)
		}
		remote := fk.newRemote()
		for name, value := range val {
			if err := remote.Set(name, value); err != nil {
				return err
			}
		}
		fk.constraining = remote
		return nil
	default:
		return fmt.Errorf("reliq: foreign key %q: expected *reliq.Instance or map[string]any, got %T", fk.name, v)
	}
}

// JoinFragment returns the ON-clause text "rFar.a = rNear.b and ..." for
// every paired column, given the stable aliases the compiler has already
// assigned to both sides of the edge.
func (fk ForeignKey) JoinFragment(nearAlias, farAlias string) string {
	parts := make([]string, len(fk.localFields))
	for i := range fk.localFields {
		parts[i] = fmt.Sprintf(`%s.%q = %s.%q`, farAlias, fk.remoteFields[i], nearAlias, fk.localFields[i])
	}
	return strings.Join(parts, " and ")
}

// clone returns an independent copy with constraining cleared, used when a
// Class produces a fresh Instance so fkeys never share mutable state
// across instances.
func (fk ForeignKey) clone() ForeignKey {
	fk.constraining = nil
	return fk
}

// cloneKeepConstraining returns an independent copy preserving the current
// constraining partner, used by the set-op combinators (spec §4.3: clone
// the left operand's joined_to map onto the new instance).
func (fk ForeignKey) cloneKeepConstraining() ForeignKey {
	return fk
}
