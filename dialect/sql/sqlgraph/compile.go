// Package sqlgraph is the SQL compiler: it walks a relation instance's
// set-op tree and join graph and emits one parameterized SQL statement
// with stable per-instance aliases, collected positional parameters,
// cycle breaking, and deduplication of repeated joins.
package sqlgraph

import (
	"fmt"
	"strings"

	"github.com/reliq/reliq"
)

// SetValue is one column=value pair for an UPDATE's SET clause.
type SetValue struct {
	Name  string
	Value any
}

type options struct {
	columns []string
	set     []SetValue
	all     bool
}

// Option configures one Compile call.
type Option func(*options)

// WithColumns restricts SELECT/COUNT projection to the given columns
// (qualified by the root alias). With no WithColumns, SELECT projects
// "distinct r{root}.*" and COUNT projects "count(distinct r{root}.*)".
func WithColumns(cols ...string) Option {
	return func(o *options) { o.columns = cols }
}

// WithSet supplies the UPDATE SET list, in the given order.
func WithSet(values ...SetValue) Option {
	return func(o *options) { o.set = values }
}

// WithAll is the escape hatch permitting UPDATE/DELETE with no WHERE
// constraint (spec §4.5 step 4, §7 missing-where).
func WithAll(all bool) Option {
	return func(o *options) { o.all = all }
}

// edgeKey identifies one joined_to traversal edge for cycle detection.
type edgeKey struct {
	partnerID uint64
	fkey      string
}

// joinEntry accumulates the rendering state for one distinct partner
// alias reached during the join walk. Multiple edges reaching the same
// partner instance (a diamond in the graph) merge their ON-clause
// fragments into onParts instead of emitting a second join line, per
// spec §4.4's join-line deduplication.
type joinEntry struct {
	alias     string
	table     string
	onParts   []string
	whereText string
	whereVals []any
}

// compileContext is constructed fresh per Compile call and never stored
// on an Instance — spec §9's CompileContext, and the basis for the
// stronger-than-required concurrent-compile safety noted in
// SPEC_FULL.md §5.
type compileContext struct {
	kind reliq.QueryKind

	aliasOf   map[uint64]string
	nextAlias int

	visitedEdges map[edgeKey]bool
	joinByAlias  map[string]*joinEntry
	joinOrder    []*joinEntry
}

func newCompileContext(kind reliq.QueryKind) *compileContext {
	return &compileContext{
		kind:         kind,
		aliasOf:      make(map[uint64]string),
		visitedEdges: make(map[edgeKey]bool),
		joinByAlias:  make(map[string]*joinEntry),
	}
}

// aliasFor assigns (on first encounter) or returns the stable alias
// for inst, keyed by its identity (or id_cast — spec §3, §9). Aliases
// are small sequential integers assigned in order of first encounter
// during this one compile, not the raw instance identity itself.
func (c *compileContext) aliasFor(inst *reliq.Instance) string {
	id := inst.ID()
	if a, ok := c.aliasOf[id]; ok {
		return a
	}
	a := fmt.Sprintf("r%d", c.nextAlias)
	c.nextAlias++
	c.aliasOf[id] = a
	return a
}

// Compile lowers root's current set-op tree and join graph into one SQL
// statement for the given query kind, returning the statement text
// (positional "%s" placeholders, matching the driver contract of spec
// §6) and the ordered bindings.
func Compile(root *reliq.Instance, kind reliq.QueryKind, opts ...Option) (string, []any, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	ctx := newCompileContext(kind)
	rootAlias := ctx.aliasFor(root)
	ctx.walkJoins(root, rootAlias)

	whereText, whereVals := ctx.walkSetOp(root.SetOpRoot())

	switch kind {
	case reliq.SelectKind, reliq.CountKind:
		return ctx.compileSelect(root, rootAlias, o, whereText, whereVals)
	case reliq.InsertKind:
		return ctx.compileInsert(root, rootAlias)
	case reliq.UpdateKind:
		return ctx.compileUpdate(root, rootAlias, o, whereText, whereVals)
	case reliq.DeleteKind:
		return ctx.compileDelete(root, rootAlias, o, whereText, whereVals)
	default:
		return "", nil, fmt.Errorf("sqlgraph: unknown query kind %q", kind)
	}
}

// walkSetOp is the recursive WHERE-construction walk of spec §4.5 step 1.
// It is also used, unmodified, to render a join partner's own WHERE
// fragment (§4.5 step 2: "rendered in the same way").
func (c *compileContext) walkSetOp(s *reliq.SetOp) (string, []any) {
	switch s.Kind() {
	case reliq.OpLeaf:
		return c.leafWhere(s.Leaf())
	case reliq.OpNot:
		text, vals := c.walkSetOp(s.Operand())
		return "not (" + text + ")", vals
	case reliq.OpAnd:
		return c.binaryWhere(s, "and")
	case reliq.OpOr:
		return c.binaryWhere(s, "or")
	case reliq.OpAndNot:
		return c.binaryWhere(s, "and not")
	default:
		return "(1 = 1)", nil
	}
}

func (c *compileContext) binaryWhere(s *reliq.SetOp, op string) (string, []any) {
	lText, lVals := c.walkSetOp(s.Left())
	rText, rVals := c.walkSetOp(s.Right())
	vals := append(append([]any(nil), lVals...), rVals...)
	return fmt.Sprintf("(%s %s %s)", lText, op, rText), vals
}

// leafWhere renders "(r{id}.\"col1\" comp1 %s and r{id}.\"col2\" comp2 %s)"
// over inst's set fields, or "(1 = 1)" for an empty leaf (spec §4.5).
func (c *compileContext) leafWhere(inst *reliq.Instance) (string, []any) {
	alias := c.aliasFor(inst)
	var parts []string
	var vals []any
	for _, name := range inst.FieldOrder() {
		f, _ := inst.Field(name)
		if !f.IsSet() {
			continue
		}
		parts = append(parts, fmt.Sprintf("%s.%q %s %%s", alias, f.Name(), f.Comp()))
		vals = append(vals, f.Value())
	}
	if len(parts) == 0 {
		return "(1 = 1)", nil
	}
	return "(" + strings.Join(parts, " and ") + ")", vals
}

// walkJoins is the depth-first join walk of spec §4.4: for each partner
// reached through near's joined_to, assign its alias, record the join
// line (merging ON-clauses by alias when a partner is reached a second
// time through a different fkey), and recurse. The (partner, fkey) edge
// visited-set breaks cycles.
func (c *compileContext) walkJoins(near *reliq.Instance, nearAlias string) {
	for _, fkName := range near.FKeyOrder() {
		fk, _ := near.FKey(fkName)
		partner := fk.Constraining()
		if partner == nil {
			continue
		}
		key := edgeKey{partnerID: partner.ID(), fkey: fkName}
		if c.visitedEdges[key] {
			continue
		}
		c.visitedEdges[key] = true

		alias := c.aliasFor(partner)
		onPart := fk.JoinFragment(nearAlias, alias)

		entry, exists := c.joinByAlias[alias]
		if !exists {
			whereText, whereVals := c.walkSetOp(partner.SetOpRoot())
			entry = &joinEntry{alias: alias, table: partner.FQRN().Normalize(), whereText: whereText, whereVals: whereVals}
			c.joinByAlias[alias] = entry
			c.joinOrder = append(c.joinOrder, entry)
		}
		entry.onParts = append(entry.onParts, onPart)

		c.walkJoins(partner, alias)
	}
}

// fromClause renders the FROM segment (root table plus every merged join
// line, in first-encounter order) and returns its accumulated values.
func (c *compileContext) fromClause(root *reliq.Instance, rootAlias string) (string, []any) {
	var sb strings.Builder
	if root.Only() && root.Kind() == reliq.Table {
		sb.WriteString("only ")
	}
	fmt.Fprintf(&sb, "%s as %s", root.FQRN().Normalize(), rootAlias)

	var vals []any
	for _, entry := range c.joinOrder {
		fmt.Fprintf(&sb, " join %s as %s on %s and %s", entry.table, entry.alias, strings.Join(entry.onParts, " and "), entry.whereText)
		vals = append(vals, entry.whereVals...)
	}
	return sb.String(), vals
}

func (c *compileContext) compileSelect(root *reliq.Instance, rootAlias string, o options, whereText string, whereVals []any) (string, []any, error) {
	from, joinVals := c.fromClause(root, rootAlias)

	var projection string
	switch {
	case c.kind == reliq.CountKind && len(o.columns) == 0:
		projection = fmt.Sprintf("count(distinct %s.*)", rootAlias)
	case c.kind == reliq.CountKind:
		projection = fmt.Sprintf("count(distinct %s)", qualifiedColumns(rootAlias, o.columns))
	case len(o.columns) == 0:
		projection = fmt.Sprintf("distinct %s.*", rootAlias)
	default:
		projection = "distinct " + qualifiedColumns(rootAlias, o.columns)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "select %s from %s where %s", projection, from, whereText)
	vals := append(append([]any(nil), joinVals...), whereVals...)

	if c.kind == reliq.SelectKind {
		p := root.SelectParams()
		if p.OrderBy != "" {
			fmt.Fprintf(&sb, " order by %s", p.OrderBy)
		}
		if p.Limit > 0 {
			fmt.Fprintf(&sb, " limit %d", p.Limit)
		}
		if p.Offset > 0 {
			fmt.Fprintf(&sb, " offset %d", p.Offset)
		}
	}
	return sb.String(), vals, nil
}

func qualifiedColumns(alias string, cols []string) string {
	parts := make([]string, len(cols))
	for i, c := range cols {
		parts[i] = fmt.Sprintf("%s.%q", alias, c)
	}
	return strings.Join(parts, ", ")
}

// fkeySource is one bound-and-set foreign key's contribution: the local
// column names it supplies, the matching remote column references against
// its joined alias, and the FROM/WHERE fragment (and bindings) needed to
// select the partner row (spec §4.5 step 5).
type fkeySource struct {
	localCols   []string
	remoteExprs []string
	from        string
	whereText   string
	whereVals   []any
}

// fkeyInsertSources returns one fkeySource per fkey whose constraining
// partner is set.
func (c *compileContext) fkeyInsertSources(root *reliq.Instance) []fkeySource {
	var sources []fkeySource
	for _, name := range root.FKeyOrder() {
		fk, _ := root.FKey(name)
		partner := fk.Constraining()
		if partner == nil || !partner.IsSet() {
			continue
		}
		alias := c.aliasFor(partner)
		src := fkeySource{from: fmt.Sprintf("%s as %s", partner.FQRN().Normalize(), alias)}
		for i, local := range fk.LocalFields() {
			remote := fk.RemoteFields()[i]
			src.localCols = append(src.localCols, local)
			src.remoteExprs = append(src.remoteExprs, fmt.Sprintf("%s.%q", alias, remote))
		}
		src.whereText, src.whereVals = c.walkSetOp(partner.SetOpRoot())
		sources = append(sources, src)
	}
	return sources
}

func (c *compileContext) compileInsert(root *reliq.Instance, rootAlias string) (string, []any, error) {
	var ownCols []string
	var ownVals []any
	for _, name := range root.FieldOrder() {
		f, _ := root.Field(name)
		if f.IsSet() {
			ownCols = append(ownCols, name)
			ownVals = append(ownVals, f.Value())
		}
	}

	fkSources := c.fkeyInsertSources(root)

	var fkCols, fkSelectExprs, fkFrom, fkWhere []string
	var fkVals []any
	for _, src := range fkSources {
		fkCols = append(fkCols, src.localCols...)
		fkSelectExprs = append(fkSelectExprs, src.remoteExprs...)
		fkFrom = append(fkFrom, src.from)
		fkWhere = append(fkWhere, src.whereText)
		fkVals = append(fkVals, src.whereVals...)
	}

	allCols := append(append([]string(nil), ownCols...), fkCols...)
	if len(allCols) == 0 {
		return "", nil, fmt.Errorf("sqlgraph: insert: no fields set on %s", root.FQRN().Normalize())
	}
	colsText := make([]string, len(allCols))
	for i, c := range allCols {
		colsText[i] = fmt.Sprintf("%q", c)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "insert into %s (%s)", root.FQRN().Normalize(), strings.Join(colsText, ", "))

	if len(fkCols) == 0 {
		placeholders := make([]string, len(ownCols))
		for i := range placeholders {
			placeholders[i] = "%s"
		}
		fmt.Fprintf(&sb, " values (%s)", strings.Join(placeholders, ", "))
		sb.WriteString(" returning *")
		return sb.String(), ownVals, nil
	}

	// At least one fkey resolves through a partner's key: switch to
	// INSERT ... SELECT so the bound columns are pulled live from the
	// partner row instead of a literal placeholder (spec §4.5 step 5:
	// "inserting via a foreign relation resolves to the partner's key").
	ownSelectExprs := make([]string, len(ownCols))
	for i := range ownSelectExprs {
		ownSelectExprs[i] = "%s"
	}
	selectList := append(ownSelectExprs, fkSelectExprs...)
	fmt.Fprintf(&sb, " select %s from %s where %s", strings.Join(selectList, ", "), strings.Join(fkFrom, ", "), strings.Join(fkWhere, " and "))
	sb.WriteString(" returning *")

	vals := append(append([]any(nil), ownVals...), fkVals...)
	return sb.String(), vals, nil
}

func (c *compileContext) compileUpdate(root *reliq.Instance, rootAlias string, o options, whereText string, whereVals []any) (string, []any, error) {
	if len(o.set) == 0 {
		return "", nil, fmt.Errorf("sqlgraph: update: no SET values given")
	}
	where, whereVals, err := c.whereForMutation(root, o, whereText, whereVals)
	if err != nil {
		return "", nil, err
	}

	setParts := make([]string, len(o.set))
	setVals := make([]any, len(o.set))
	for i, sv := range o.set {
		if _, ok := root.Field(sv.Name); !ok {
			return "", nil, reliq.NewUnknownAttributeError(root.FQRN().Normalize(), sv.Name)
		}
		setParts[i] = fmt.Sprintf("%q = %%s", sv.Name)
		setVals[i] = sv.Value
	}

	sql := fmt.Sprintf("update %s set %s where %s", root.FQRN().Normalize(), strings.Join(setParts, ", "), where)
	// SET precedes WHERE textually in "update ... set %s where %s", so its
	// values are bound first — binding order always follows the literal
	// left-to-right occurrence of "%s" in the compiled text (spec §8
	// property 8), which for UPDATE puts SET values ahead of WHERE values
	// (spec §8 S5: bindings ('X', '_a%') for "set ... = %s where (... like %s)").
	vals := append(append([]any(nil), setVals...), whereVals...)
	return sql, vals, nil
}

func (c *compileContext) compileDelete(root *reliq.Instance, rootAlias string, o options, whereText string, whereVals []any) (string, []any, error) {
	where, whereVals, err := c.whereForMutation(root, o, whereText, whereVals)
	if err != nil {
		return "", nil, err
	}
	sql := fmt.Sprintf("delete from %s where %s", root.FQRN().Normalize(), where)
	return sql, whereVals, nil
}

// whereForMutation combines the WHERE walk with the fkey-derived IN(...)
// predicates (spec §4.5 step 6) and enforces missing-where (spec §7).
func (c *compileContext) whereForMutation(root *reliq.Instance, o options, whereText string, whereVals []any) (string, []any, error) {
	fkSources := c.fkeyInsertSources(root)

	where := whereText
	vals := append([]any(nil), whereVals...)
	hasConstraint := root.IsSet()

	for _, src := range fkSources {
		hasConstraint = true
		localCols := make([]string, len(src.localCols))
		for i, name := range src.localCols {
			localCols[i] = fmt.Sprintf("%q", name)
		}
		where = fmt.Sprintf("%s and (%s) in (select %s from %s where %s)",
			where, strings.Join(localCols, ", "), strings.Join(src.remoteExprs, ", "), src.from, src.whereText)
		vals = append(vals, src.whereVals...)
	}

	if !hasConstraint && !o.all {
		return "", nil, reliq.ErrMissingWhere
	}
	return where, vals, nil
}
