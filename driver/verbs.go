package driver

import (
	"context"

	"github.com/reliq/reliq"
	"github.com/reliq/reliq/dialect/sql/sqlgraph"
)

// Select compiles and runs inst as a SELECT, returning every matching row as
// a column-name-keyed map (spec §4.6 select()).
func Select(ctx context.Context, c Conn, inst *reliq.Instance, opts ...sqlgraph.Option) ([]map[string]any, error) {
	sqlText, args, err := sqlgraph.Compile(inst, reliq.SelectKind, opts...)
	if err != nil {
		return nil, err
	}
	rows, err := c.query(ctx, sqlText, args)
	if err != nil {
		return nil, err
	}
	return scanAll(rows)
}

// GetOne is Select constrained to exactly one row; any other cardinality
// is a *reliq.NotSingularError (spec §4.6 get_one()).
func GetOne(ctx context.Context, c Conn, inst *reliq.Instance, opts ...sqlgraph.Option) (map[string]any, error) {
	rows, err := Select(ctx, c, inst, opts...)
	if err != nil {
		return nil, err
	}
	if len(rows) != 1 {
		return nil, reliq.NewNotSingularError(inst.FQRN().Normalize(), len(rows))
	}
	return rows[0], nil
}

// Count compiles and runs inst as a COUNT query (spec §4.6 count()).
func Count(ctx context.Context, c Conn, inst *reliq.Instance, opts ...sqlgraph.Option) (int64, error) {
	sqlText, args, err := sqlgraph.Compile(inst, reliq.CountKind, opts...)
	if err != nil {
		return 0, err
	}
	rows, err := c.query(ctx, sqlText, args)
	if err != nil {
		return 0, err
	}
	out, err := scanAll(rows)
	if err != nil {
		return 0, err
	}
	if len(out) != 1 {
		return 0, reliq.NewNotSingularError(inst.FQRN().Normalize(), len(out))
	}
	for _, v := range out[0] {
		n, _ := toInt64(v)
		return n, nil
	}
	return 0, nil
}

func toInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int64:
		return n, true
	case int32:
		return int64(n), true
	case int:
		return int64(n), true
	default:
		return 0, false
	}
}

// Exists reports whether inst currently matches at least one row.
func Exists(ctx context.Context, c Conn, inst *reliq.Instance) (bool, error) {
	n, err := Count(ctx, c, inst)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Contains reports whether sub is a subset of super: every row sub matches
// also matches super. This is the two-operand ⊆ primitive spec.md §3/§4.3/
// §9 describe as "L ∈ R (contains): true iff len(L - R) == 0", grounded on
// original_source/half_orm/relation.py:652 __contains__(self=super,
// right=sub): len(right - self) == 0. Equal below is built from two calls
// to it, exactly as the Python __eq__ is built from two __contains__ calls.
func Contains(ctx context.Context, c Conn, super, sub *reliq.Instance) (bool, error) {
	n, err := Count(ctx, c, sub.AndNot(super))
	if err != nil {
		return false, err
	}
	return n == 0, nil
}

// Equal reports whether a and b denote the same result set: a ⊆ b and
// b ⊆ a. This reuses Contains directly rather than comparing compiled SQL
// text, since two differently-built instances can compile to
// equivalent-but-not-identical SQL (spec §8 property 9).
func Equal(ctx context.Context, c Conn, a, b *reliq.Instance) (bool, error) {
	aInB, err := Contains(ctx, c, b, a)
	if err != nil {
		return false, err
	}
	if !aInB {
		return false, nil
	}
	return Contains(ctx, c, a, b)
}

// Insert compiles and runs inst as an INSERT ... RETURNING *, returning the
// inserted row (spec §4.6 insert()).
func Insert(ctx context.Context, c Conn, inst *reliq.Instance) (map[string]any, error) {
	sqlText, args, err := sqlgraph.Compile(inst, reliq.InsertKind)
	if err != nil {
		return nil, err
	}
	rows, err := c.query(ctx, sqlText, args)
	if err != nil {
		return nil, err
	}
	out, err := scanAll(rows)
	if err != nil {
		return nil, err
	}
	if len(out) != 1 {
		return nil, reliq.NewNotSingularError(inst.FQRN().Normalize(), len(out))
	}
	return out[0], nil
}

// Update compiles and runs inst as an UPDATE, refusing (ErrMissingWhere)
// unless a field/join constraint is set or sqlgraph.WithAll(true) is given
// (spec §4.6 update(), §7 missing-where). Returns the number of rows
// affected.
func Update(ctx context.Context, c Conn, inst *reliq.Instance, set []sqlgraph.SetValue, opts ...sqlgraph.Option) (int64, error) {
	opts = append(opts, sqlgraph.WithSet(set...))
	sqlText, args, err := sqlgraph.Compile(inst, reliq.UpdateKind, opts...)
	if err != nil {
		return 0, err
	}
	res, err := c.exec(ctx, sqlText, args)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// Delete compiles and runs inst as a DELETE, with the same missing-where
// refusal as Update (spec §4.6 delete(), §7 missing-where). Returns the
// number of rows affected.
func Delete(ctx context.Context, c Conn, inst *reliq.Instance, opts ...sqlgraph.Option) (int64, error) {
	sqlText, args, err := sqlgraph.Compile(inst, reliq.DeleteKind, opts...)
	if err != nil {
		return 0, err
	}
	res, err := c.exec(ctx, sqlText, args)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
