package sqlgraph_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/reliq/reliq"
	"github.com/reliq/reliq/catalog"
	"github.com/reliq/reliq/dialect/sql/sqlgraph"
)

func loadCatalog(t *testing.T, relations ...catalog.RelationMeta) *catalog.Factory {
	t.Helper()
	f := catalog.NewFactory()
	require.NoError(t, f.Load(context.Background(), catalog.NewStaticProvider(relations...)))
	return f
}

func personRelation() catalog.RelationMeta {
	return catalog.RelationMeta{
		Kind: reliq.Table,
		FQRN: `"db"."actor"."person"`,
		Fields: []catalog.FieldMeta{
			{Name: "id", Num: 1, Type: reliq.TypeInt, PKey: true, NotNull: true},
			{Name: "first_name", Num: 2, Type: reliq.TypeString},
			{Name: "last_name", Num: 3, Type: reliq.TypeString},
			{Name: "manager_id", Num: 4, Type: reliq.TypeInt},
		},
		FKeys: []catalog.FKeyMeta{
			{
				Name:            "manager",
				RemoteFQRN:      `"db"."actor"."person"`,
				LocalFieldNums:  []int{4},
				RemoteFieldNums: []int{1},
			},
		},
	}
}

func blogCommentRelation() catalog.RelationMeta {
	return catalog.RelationMeta{
		Kind: reliq.Table,
		FQRN: `"db"."blog"."comment"`,
		Fields: []catalog.FieldMeta{
			{Name: "id", Num: 1, Type: reliq.TypeInt, PKey: true, NotNull: true},
			{Name: "author_id", Num: 2, Type: reliq.TypeInt},
			{Name: "content", Num: 3, Type: reliq.TypeString},
		},
		FKeys: []catalog.FKeyMeta{
			{
				Name:            "author",
				RemoteFQRN:      `"db"."actor"."person"`,
				LocalFieldNums:  []int{2},
				RemoteFieldNums: []int{1},
			},
		},
	}
}

func personClass(t *testing.T) *catalog.Class {
	t.Helper()
	f := loadCatalog(t, personRelation(), blogCommentRelation())
	class, err := f.ClassFor(`"db"."actor"."person"`)
	require.NoError(t, err)
	return class
}

func blogCommentClass(t *testing.T) *catalog.Class {
	t.Helper()
	f := loadCatalog(t, personRelation(), blogCommentRelation())
	class, err := f.ClassFor(`"db"."blog"."comment"`)
	require.NoError(t, err)
	return class
}

// S1: single-table WHERE.
func TestCompileSelectSingleTableWhere(t *testing.T) {
	person := personClass(t).NewInstance()
	require.NoError(t, person.Set("last_name", "Lagaffe"))

	sql, vals, err := sqlgraph.Compile(person, reliq.SelectKind)
	require.NoError(t, err)
	require.Equal(t, `select distinct r0.* from "db"."actor"."person" as r0 where (r0."last_name" = %s)`, sql)
	require.Equal(t, []any{"Lagaffe"}, vals)
}

// S2: LIKE comparator, count projection.
func TestCompileCountLikeComparator(t *testing.T) {
	person := personClass(t).NewInstance()
	require.NoError(t, person.Set("first_name", "_o__o", reliq.Like))

	sql, vals, err := sqlgraph.Compile(person, reliq.CountKind)
	require.NoError(t, err)
	require.Equal(t, `select count(distinct r0.*) from "db"."actor"."person" as r0 where (r0."first_name" like %s)`, sql)
	require.Equal(t, []any{"_o__o"}, vals)
}

// S3: join via foreign key, partner-before-root binding order.
func TestCompileSelectJoinViaForeignKey(t *testing.T) {
	gaston := personClass(t).NewInstance()
	require.NoError(t, gaston.Set("first_name", "Gaston"))

	comment := blogCommentClass(t).NewInstance()
	require.NoError(t, comment.Set("content", `%m'enfin%`, reliq.ILike))
	require.NoError(t, comment.Join("author", gaston))

	sql, vals, err := sqlgraph.Compile(comment, reliq.SelectKind)
	require.NoError(t, err)
	require.Contains(t, sql, `join "db"."actor"."person" as r1 on r1."id" = r0."author_id" and (r1."first_name" = %s)`)
	require.Contains(t, sql, `(r0."content" ilike %s)`)
	require.Equal(t, []any{"Gaston", `%m'enfin%`}, vals, "bindings traverse partner before root")
}

// S4: set algebra, two-instance OR.
func TestCompileSelectSetAlgebraOr(t *testing.T) {
	a := personClass(t).NewInstance()
	require.NoError(t, a.Set("last_name", "_a%", reliq.Like))
	b := personClass(t).NewInstance()
	require.NoError(t, b.Set("last_name", "_A%", reliq.Like))

	combined := a.Or(b)

	sql, vals, err := sqlgraph.Compile(combined, reliq.SelectKind)
	require.NoError(t, err)
	require.Contains(t, sql, `where ((r0."last_name" like %s) or (r1."last_name" like %s))`)
	require.Equal(t, []any{"_a%", "_A%"}, vals)
}

// S5: UPDATE binds SET before WHERE; missing-where without a constraint.
func TestCompileUpdateWithConstraint(t *testing.T) {
	person := personClass(t).NewInstance()
	require.NoError(t, person.Set("last_name", "_a%", reliq.Like))

	sql, vals, err := sqlgraph.Compile(person, reliq.UpdateKind, sqlgraph.WithSet(sqlgraph.SetValue{Name: "last_name", Value: "X"}))
	require.NoError(t, err)
	require.Equal(t, `update "db"."actor"."person" set "last_name" = %s where (r0."last_name" like %s)`, sql)
	require.Equal(t, []any{"X", "_a%"}, vals)
}

func TestCompileUpdateWithoutConstraintFailsMissingWhere(t *testing.T) {
	person := personClass(t).NewInstance()

	_, _, err := sqlgraph.Compile(person, reliq.UpdateKind, sqlgraph.WithSet(sqlgraph.SetValue{Name: "last_name", Value: "X"}))
	require.ErrorIs(t, err, reliq.ErrMissingWhere)
}

func TestCompileUpdateWithAllEscapeHatch(t *testing.T) {
	person := personClass(t).NewInstance()

	sql, vals, err := sqlgraph.Compile(person, reliq.UpdateKind,
		sqlgraph.WithSet(sqlgraph.SetValue{Name: "last_name", Value: "X"}),
		sqlgraph.WithAll(true))
	require.NoError(t, err)
	require.Equal(t, `update "db"."actor"."person" set "last_name" = %s where (1 = 1)`, sql)
	require.Equal(t, []any{"X"}, vals)
}

// S6: self-referencing cycle terminates and emits one join line per partner.
func TestCompileSelectCycleTerminates(t *testing.T) {
	a := personClass(t).NewInstance()
	require.NoError(t, a.Set("first_name", "A"))
	b := personClass(t).NewInstance()
	require.NoError(t, b.Set("first_name", "B"))
	require.NoError(t, a.Join("manager", b))

	sql, vals, err := sqlgraph.Compile(a, reliq.SelectKind)
	require.NoError(t, err)
	require.Equal(t, 1, strings.Count(sql, " join "), "exactly one join line per distinct partner instance")
	require.Equal(t, []any{"B", "A"}, vals)
}

// Property 5: deterministic compilation.
func TestCompileIsDeterministic(t *testing.T) {
	build := func() *reliq.Instance {
		p := personClass(t).NewInstance()
		require.NoError(t, p.Set("last_name", "Lagaffe"))
		return p
	}

	sql1, vals1, err := sqlgraph.Compile(build(), reliq.SelectKind)
	require.NoError(t, err)
	sql2, vals2, err := sqlgraph.Compile(build(), reliq.SelectKind)
	require.NoError(t, err)

	require.Equal(t, sql1, sql2)
	require.Equal(t, vals1, vals2)
}

// Property 8: binding count equals the number of "%s" occurrences.
func TestCompileBindingCountMatchesPlaceholders(t *testing.T) {
	gaston := personClass(t).NewInstance()
	require.NoError(t, gaston.Set("first_name", "Gaston"))
	comment := blogCommentClass(t).NewInstance()
	require.NoError(t, comment.Set("content", "%enfin%", reliq.ILike))
	require.NoError(t, comment.Join("author", gaston))

	sql, vals, err := sqlgraph.Compile(comment, reliq.SelectKind)
	require.NoError(t, err)
	require.Equal(t, strings.Count(sql, "%s"), len(vals))
}

func TestCompileInsertPlainValues(t *testing.T) {
	person := personClass(t).NewInstance()
	require.NoError(t, person.Set("first_name", "Gaston"))
	require.NoError(t, person.Set("last_name", "Lagaffe"))

	sql, vals, err := sqlgraph.Compile(person, reliq.InsertKind)
	require.NoError(t, err)
	require.Equal(t, `insert into "db"."actor"."person" ("first_name", "last_name") values (%s, %s) returning *`, sql)
	require.Equal(t, []any{"Gaston", "Lagaffe"}, vals)
}

func TestCompileInsertThroughBoundForeignKey(t *testing.T) {
	gaston := personClass(t).NewInstance()
	require.NoError(t, gaston.Set("first_name", "Gaston"))

	comment := blogCommentClass(t).NewInstance()
	require.NoError(t, comment.Set("content", "hello"))
	require.NoError(t, comment.Join("author", gaston))

	sql, vals, err := sqlgraph.Compile(comment, reliq.InsertKind)
	require.NoError(t, err)
	require.Contains(t, sql, `insert into "db"."blog"."comment" ("content", "author_id")`)
	require.Contains(t, sql, `select %s, r1."id" from "db"."actor"."person" as r1 where (r1."first_name" = %s)`)
	require.Equal(t, []any{"hello", "Gaston"}, vals)
}

func TestCompileDeleteRequiresConstraint(t *testing.T) {
	person := personClass(t).NewInstance()

	_, _, err := sqlgraph.Compile(person, reliq.DeleteKind)
	require.ErrorIs(t, err, reliq.ErrMissingWhere)

	require.NoError(t, person.Set("last_name", "Lagaffe"))
	sql, vals, err := sqlgraph.Compile(person, reliq.DeleteKind)
	require.NoError(t, err)
	require.Equal(t, `delete from "db"."actor"."person" where (r0."last_name" = %s)`, sql)
	require.Equal(t, []any{"Lagaffe"}, vals)
}

func TestCompileDeleteThroughBoundForeignKey(t *testing.T) {
	gaston := personClass(t).NewInstance()
	require.NoError(t, gaston.Set("first_name", "Gaston"))

	comment := blogCommentClass(t).NewInstance()
	require.NoError(t, comment.Join("author", gaston))

	sql, vals, err := sqlgraph.Compile(comment, reliq.DeleteKind)
	require.NoError(t, err)
	require.Contains(t, sql, `delete from "db"."blog"."comment" where (1 = 1) and ("author_id") in (select r1."id" from "db"."actor"."person" as r1 where (r1."first_name" = %s))`)
	require.Equal(t, []any{"Gaston"}, vals)
}
