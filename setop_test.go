package reliq

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func testPersonInstance() *Instance {
	fqrn, _ := ParseFQRN(`"db"."actor"."person"`)
	fieldOrder := []string{"id", "first_name", "last_name"}
	fieldMeta := map[string]FieldMeta{
		"id":         {Type: TypeInt, PKey: true, NotNull: true},
		"first_name": {Type: TypeString},
		"last_name":  {Type: TypeString},
	}
	return NewInstance(fqrn, Table, fieldOrder, fieldMeta, nil, nil)
}

func withLastName(value string) *Instance {
	inst := testPersonInstance()
	_ = inst.Set("last_name", value)
	return inst
}

// Property 1: A | A ≡ A, A & A ≡ A, A - A ≡ ∅ (checked structurally:
// combining an instance with itself yields a binary node whose two leaves
// carry the same constraint).
func TestSetOpIdempotence(t *testing.T) {
	a := withLastName("Lagaffe")

	or := a.Or(a)
	require.Equal(t, OpOr, or.SetOpRoot().Kind())
	require.Equal(t, "Lagaffe", or.SetOpRoot().Left().Leaf().ToDict()["last_name"])
	require.Equal(t, "Lagaffe", or.SetOpRoot().Right().Leaf().ToDict()["last_name"])

	and := a.And(a)
	require.Equal(t, OpAnd, and.SetOpRoot().Kind())

	andNot := a.AndNot(a)
	require.Equal(t, OpAndNot, andNot.SetOpRoot().Kind())
}

// Property 3: --A ≡ A (double negation cancels at the set-op root, no
// nested Not(Not(x))).
func TestNegateTwiceCancels(t *testing.T) {
	a := withLastName("Lagaffe")

	once := a.Negate()
	require.Equal(t, OpNot, once.SetOpRoot().Kind())

	twice := once.Negate()
	require.Equal(t, OpLeaf, twice.SetOpRoot().Kind(), "negating a Not must unwrap to the original leaf kind, not nest Not(Not(x))")
	require.Equal(t, "Lagaffe", twice.SetOpRoot().Leaf().ToDict()["last_name"])
}

// Combinators never mutate their operands (spec §4.3: each combinator
// returns a fresh instance).
func TestCombinatorsDoNotMutateOperands(t *testing.T) {
	a := withLastName("Lagaffe")
	b := withLastName("Fricotin")

	_ = a.Or(b)

	require.Equal(t, OpLeaf, a.SetOpRoot().Kind(), "a.Or(b) must not rewrite a's own set-op root")
	require.Equal(t, OpLeaf, b.SetOpRoot().Kind())
}

// Xor is defined as (L | R) - (L & R).
func TestXorDefinition(t *testing.T) {
	a := withLastName("Lagaffe")
	b := withLastName("Fricotin")

	xor := a.Xor(b)
	require.Equal(t, OpAndNot, xor.SetOpRoot().Kind())
	require.Equal(t, OpOr, xor.SetOpRoot().Left().Kind())
	require.Equal(t, OpAnd, xor.SetOpRoot().Right().Kind())
}

func TestCloneIsIndependent(t *testing.T) {
	a := testPersonInstance()
	b := a.clone()

	require.NoError(t, b.Set("last_name", "Lagaffe"))
	require.False(t, a.IsSet(), "cloning must not share mutable field state with the original")
	require.NotEqual(t, a.ID(), b.ID(), "clone must get a fresh identity")
}

func TestFieldSetNullInvariant(t *testing.T) {
	a := testPersonInstance()

	require.NoError(t, a.Set("last_name", nil, Is))
	f, _ := a.Field("last_name")
	require.True(t, f.IsSet())

	b := testPersonInstance()
	err := b.Set("last_name", nil, EQ)
	require.Error(t, err)
	require.True(t, IsInvalidComparator(err))
}

func TestSetUnknownAttribute(t *testing.T) {
	a := testPersonInstance()
	err := a.Set("nickname", "Gaston")
	require.Error(t, err)
	require.True(t, IsUnknownAttribute(err))
}
