package catalog

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/reliq/reliq"
)

func personRelation() RelationMeta {
	return RelationMeta{
		Kind: reliq.Table,
		FQRN: `"db"."actor"."person"`,
		Fields: []FieldMeta{
			{Name: "id", Num: 1, Type: reliq.TypeInt, PKey: true, NotNull: true},
			{Name: "first_name", Num: 2, Type: reliq.TypeString},
			{Name: "last_name", Num: 3, Type: reliq.TypeString},
			{Name: "manager_id", Num: 4, Type: reliq.TypeInt},
		},
		FKeys: []FKeyMeta{
			{
				Name:            "manager",
				RemoteFQRN:      `"db"."actor"."person"`,
				LocalFieldNums:  []int{4},
				RemoteFieldNums: []int{1},
			},
		},
	}
}

func blogCommentRelation() RelationMeta {
	return RelationMeta{
		Kind: reliq.Table,
		FQRN: `"db"."blog"."comment"`,
		Fields: []FieldMeta{
			{Name: "id", Num: 1, Type: reliq.TypeInt, PKey: true, NotNull: true},
			{Name: "author_id", Num: 2, Type: reliq.TypeInt},
			{Name: "content", Num: 3, Type: reliq.TypeString},
		},
		FKeys: []FKeyMeta{
			{
				Name:            "author",
				RemoteFQRN:      `"db"."actor"."person"`,
				LocalFieldNums:  []int{2},
				RemoteFieldNums: []int{1},
			},
		},
	}
}

func loadTestFactory(t *testing.T, relations ...RelationMeta) *Factory {
	t.Helper()
	f := NewFactory()
	require.NoError(t, f.Load(context.Background(), NewStaticProvider(relations...)))
	return f
}

func TestFactoryLoadSynthesizesReverseFKey(t *testing.T) {
	f := loadTestFactory(t, personRelation(), blogCommentRelation())

	person, err := f.ClassFor(`"db"."actor"."person"`)
	require.NoError(t, err)

	var reverseNames []string
	for _, name := range person.fkeyOrder {
		if name != "manager" {
			reverseNames = append(reverseNames, name)
		}
	}
	require.Len(t, reverseNames, 2, "person should gain a reverse fkey for manager and for blog_comment.author")
	require.Contains(t, reverseNames, "_reverse_fkey_db_actor_person_manager_id")
	require.Contains(t, reverseNames, "_reverse_fkey_db_blog_comment_author_id")
}

func TestFactoryClassForIsDeterministicAcrossCalls(t *testing.T) {
	f := loadTestFactory(t, personRelation(), blogCommentRelation())

	a, err := f.ClassFor(`"db"."actor"."person"`)
	require.NoError(t, err)
	b, err := f.ClassFor(`"db"."actor"."person"`)
	require.NoError(t, err)
	require.Same(t, a, b, "ClassFor must cache and return the same Class pointer")
	require.Equal(t, a.fkeyOrder, b.fkeyOrder)
}

func TestFactoryClassForUnknownRelation(t *testing.T) {
	f := loadTestFactory(t, personRelation())
	_, err := f.ClassFor(`"db"."actor"."nobody"`)
	require.Error(t, err)
	require.True(t, reliq.IsUnknownRelation(err))
}

func TestFactoryInheritanceMergesParentFieldsAndFKeys(t *testing.T) {
	parent := personRelation()
	child := RelationMeta{
		Kind:     reliq.Table,
		FQRN:     `"db"."actor"."employee"`,
		Inherits: []string{`"db"."actor"."person"`},
		Fields: []FieldMeta{
			{Name: "badge_number", Num: 5, Type: reliq.TypeString},
		},
	}

	f := loadTestFactory(t, parent, child)
	employee, err := f.ClassFor(`"db"."actor"."employee"`)
	require.NoError(t, err)

	require.Contains(t, employee.fieldOrder, "last_name", "child class inherits parent fields")
	require.Contains(t, employee.fieldOrder, "badge_number", "child class keeps its own fields")
	require.Contains(t, employee.fkeyOrder, "manager", "child class inherits parent fkeys")
}

func TestClassNewInstanceIsIndependentPerCall(t *testing.T) {
	f := loadTestFactory(t, personRelation())
	class, err := f.ClassFor(`"db"."actor"."person"`)
	require.NoError(t, err)

	a := class.NewInstance()
	b := class.NewInstance()
	require.NoError(t, a.Set("first_name", "Gaston"))
	require.False(t, b.IsSet(), "setting a field on one instance must not affect another stamped from the same class")
}
