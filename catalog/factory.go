package catalog

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/reliq/reliq"
)

// Class is the compiled, ready-to-instantiate template of fields and
// foreign keys for one relation (spec §2 "per-FQRN relation
// classes/prototypes"). Classes are cached by Factory and never mutated
// after Load returns.
type Class struct {
	fqrn  reliq.FQRN
	kind  reliq.Kind
	fieldOrder    []string
	fieldMeta     map[string]reliq.FieldMeta
	fkeyOrder     []string
	fkeyTemplates map[string]reliq.ForeignKey
}

// FQRN returns the class's fully-qualified relation name.
func (c *Class) FQRN() reliq.FQRN { return c.fqrn }

// Kind returns the class's catalog kind.
func (c *Class) Kind() reliq.Kind { return c.kind }

// NewInstance stamps out a fresh, unconstrained relation instance from
// this class.
func (c *Class) NewInstance() *reliq.Instance {
	return reliq.NewInstance(c.fqrn, c.kind, c.fieldOrder, c.fieldMeta, c.fkeyOrder, c.fkeyTemplates)
}

// Cast reinterprets an existing instance as this class, carrying over its
// set field values and joined partners by name (spec §3, §9 id_cast).
func (c *Class) Cast(old *reliq.Instance) *reliq.Instance {
	return old.Cast(c.fqrn, c.kind, c.fieldOrder, c.fieldMeta, c.fkeyOrder, c.fkeyTemplates)
}

// Factory consumes a Provider once at Load and thereafter serves Class
// lookups from an in-memory, read-only cache keyed by normalized FQRN
// (spec §5 "written once at schema load and thereafter read-only").
type Factory struct {
	mu      sync.RWMutex
	raw     map[string]*RelationMeta
	classes map[string]*Class
}

// NewFactory returns an empty Factory; call Load before using it.
func NewFactory() *Factory {
	return &Factory{
		raw:     make(map[string]*RelationMeta),
		classes: make(map[string]*Class),
	}
}

// Load fetches every relation from p, synthesizes the reverse of every
// forward foreign key, and makes the result available to ClassFor. Load
// is not safe to call concurrently with ClassFor, and is meant to run
// once at startup (spec §4.6, §5).
func (f *Factory) Load(ctx context.Context, p Provider) error {
	relations, err := p.Relations(ctx)
	if err != nil {
		return fmt.Errorf("catalog: load: %w", err)
	}

	raw := make(map[string]*RelationMeta, len(relations))
	norm := make(map[string]reliq.FQRN, len(relations))
	order := make([]string, 0, len(relations))
	for i := range relations {
		r := relations[i]
		parsed, err := reliq.ParseFQRN(r.FQRN)
		if err != nil {
			return fmt.Errorf("catalog: relation %q: %w", r.FQRN, err)
		}
		key := parsed.Normalize()
		r.FQRN = key
		cp := r
		raw[key] = &cp
		norm[key] = parsed
		order = append(order, key)
	}
	forward := make(map[string][]FKeyMeta, len(raw))
	for key, rel := range raw {
		forward[key] = append([]FKeyMeta(nil), rel.FKeys...)
	}

	// Synthesize reverse foreign keys before any Class is built, so that
	// classFor sees a complete, symmetric fkey list for every relation
	// (spec §4.2 invariant). Only the provider's forward keys are reversed,
	// in provider order, so the result does not depend on map iteration.
	for _, key := range order {
		rel := raw[key]
		fieldNames := fieldNameIndex(rel.Fields)
		for _, fk := range forward[key] {
			remoteParsed, err := reliq.ParseFQRN(fk.RemoteFQRN)
			if err != nil {
				return fmt.Errorf("catalog: fkey %q: %w", fk.Name, err)
			}
			remoteKey := remoteParsed.Normalize()
			remote, ok := raw[remoteKey]
			if !ok {
				return fmt.Errorf("catalog: fkey %q references unknown relation %s", fk.Name, remoteKey)
			}
			localNames := namesFor(fieldNames, fk.LocalFieldNums)
			reverseName := reverseFKeyName(norm[key], localNames)
			remote.FKeys = append(remote.FKeys, FKeyMeta{
				Name:            reverseName,
				RemoteFQRN:      key,
				LocalFieldNums:  fk.RemoteFieldNums,
				RemoteFieldNums: fk.LocalFieldNums,
			})
		}
	}

	f.mu.Lock()
	f.raw = raw
	f.classes = make(map[string]*Class, len(raw))
	f.mu.Unlock()
	return nil
}

// fieldNameIndex maps a relation's field Num to its Name.
func fieldNameIndex(fields []FieldMeta) map[int]string {
	idx := make(map[int]string, len(fields))
	for _, fm := range fields {
		idx[fm.Num] = fm.Name
	}
	return idx
}

func namesFor(idx map[int]string, nums []int) []string {
	names := make([]string, len(nums))
	for i, n := range nums {
		names[i] = idx[n]
	}
	return names
}

// reverseFKeyName derives `_reverse_fkey_<db>_<schema>_<rel>_<local fields>`
// with dots replaced by underscores, per spec §6 and the original's
// model.py __get_metadata derivation (see DESIGN.md).
func reverseFKeyName(owner reliq.FQRN, localFields []string) string {
	sanitize := func(s string) string { return strings.ReplaceAll(s, ".", "_") }
	parts := []string{"_reverse_fkey", sanitize(owner.DB), sanitize(owner.Schema), sanitize(owner.Name)}
	for _, lf := range localFields {
		parts = append(parts, sanitize(lf))
	}
	return strings.Join(parts, "_")
}

// ClassFor returns the cached Class for fqrn, building it (and, if
// needed, its parent classes) on first access.
func (f *Factory) ClassFor(fqrn string) (*Class, error) {
	parsed, err := reliq.ParseFQRN(fqrn)
	if err != nil {
		return nil, err
	}
	return f.classFor(parsed, make(map[string]bool))
}

func (f *Factory) classFor(fqrn reliq.FQRN, building map[string]bool) (*Class, error) {
	key := fqrn.Normalize()

	f.mu.RLock()
	if c, ok := f.classes[key]; ok {
		f.mu.RUnlock()
		return c, nil
	}
	rel, ok := f.raw[key]
	f.mu.RUnlock()
	if !ok {
		return nil, reliq.NewUnknownRelationError(key)
	}
	if building[key] {
		return nil, fmt.Errorf("catalog: inheritance cycle detected at %s", key)
	}
	building[key] = true

	fieldOrder := make([]string, 0, len(rel.Fields))
	fieldMeta := make(map[string]reliq.FieldMeta, len(rel.Fields))
	fkeyOrder := make([]string, 0, len(rel.FKeys))
	fkeyTemplates := make(map[string]reliq.ForeignKey, len(rel.FKeys))

	// Parents are built first (sorted by FQRN for determinism) and merged
	// so their fkeys (and fields) are available on the child, per spec
	// §4.6 and the original's relation_factory.
	parents := append([]string(nil), rel.Inherits...)
	sort.Strings(parents)
	for _, p := range parents {
		parsedParent, err := reliq.ParseFQRN(p)
		if err != nil {
			return nil, err
		}
		parentClass, err := f.classFor(parsedParent, building)
		if err != nil {
			return nil, fmt.Errorf("catalog: inherits %s: %w", p, err)
		}
		for _, name := range parentClass.fieldOrder {
			if _, dup := fieldMeta[name]; dup {
				continue
			}
			fieldOrder = append(fieldOrder, name)
			fieldMeta[name] = parentClass.fieldMeta[name]
		}
		for _, name := range parentClass.fkeyOrder {
			if _, dup := fkeyTemplates[name]; dup {
				continue
			}
			fkeyOrder = append(fkeyOrder, name)
			fkeyTemplates[name] = parentClass.fkeyTemplates[name]
		}
	}

	sortedFields := append([]FieldMeta(nil), rel.Fields...)
	sort.Slice(sortedFields, func(i, j int) bool { return sortedFields[i].Num < sortedFields[j].Num })
	for _, fm := range sortedFields {
		if _, dup := fieldMeta[fm.Name]; !dup {
			fieldOrder = append(fieldOrder, fm.Name)
		}
		fieldMeta[fm.Name] = reliq.FieldMeta{Type: fm.Type, PKey: fm.PKey, Unique: fm.Unique, NotNull: fm.NotNull}
	}

	ownFieldNames := fieldNameIndex(rel.Fields)
	for _, fk := range rel.FKeys {
		local := namesFor(ownFieldNames, fk.LocalFieldNums)
		remoteParsed, err := reliq.ParseFQRN(fk.RemoteFQRN)
		if err != nil {
			return nil, err
		}
		remoteRel, ok := f.raw[remoteParsed.Normalize()]
		if !ok {
			return nil, fmt.Errorf("catalog: fkey %q references unknown relation %s", fk.Name, fk.RemoteFQRN)
		}
		remoteFieldNames := fieldNameIndex(remoteRel.Fields)
		remote := namesFor(remoteFieldNames, fk.RemoteFieldNums)

		remoteFQRN := remoteParsed
		newRemote := func() *reliq.Instance {
			rc, err := f.classFor(remoteFQRN, make(map[string]bool))
			if err != nil {
				panic(err) // catalog was fully loaded; an unknown relation here is a Load bug, not a caller error
			}
			return rc.NewInstance()
		}
		tmpl, err := reliq.NewForeignKey(fk.Name, fqrn, remoteFQRN, local, remote, newRemote)
		if err != nil {
			return nil, err
		}
		if _, dup := fkeyTemplates[fk.Name]; !dup {
			fkeyOrder = append(fkeyOrder, fk.Name)
		}
		fkeyTemplates[fk.Name] = tmpl
	}

	class := &Class{
		fqrn:          fqrn,
		kind:          rel.Kind,
		fieldOrder:    fieldOrder,
		fieldMeta:     fieldMeta,
		fkeyOrder:     fkeyOrder,
		fkeyTemplates: fkeyTemplates,
	}

	f.mu.Lock()
	f.classes[key] = class
	f.mu.Unlock()
	return class, nil
}
