package executor

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/katadb/katadb/concept"
	"github.com/katadb/katadb/schema"
)

func TestRowCloneIsIndependent(t *testing.T) {
	r := NewRow()
	r.Set(1, ValueBinding(concept.Integer(1)))
	c := r.Clone()
	c.Set(1, ValueBinding(concept.Integer(2)))

	orig, _ := r.Get(1)
	clone, _ := c.Get(1)
	require.Equal(t, int64(1), orig.Value.Integer)
	require.Equal(t, int64(2), clone.Value.Integer)
}

func TestRowGetAbsentVsEmptyBothReportPresenceCorrectly(t *testing.T) {
	r := NewRow()
	_, ok := r.Get(5)
	require.False(t, ok, "never-touched variable reports absent")

	r.Set(5, EmptyBinding())
	b, ok := r.Get(5)
	require.True(t, ok)
	require.True(t, b.Empty)
}

func TestCompareBindingsEmptySortsFirst(t *testing.T) {
	require.Equal(t, -1, CompareBindings(EmptyBinding(), TypeBinding(1)))
	require.Equal(t, 1, CompareBindings(TypeBinding(1), EmptyBinding()))
	require.Equal(t, 0, CompareBindings(EmptyBinding(), EmptyBinding()))
}

func TestCompareBindingsOrdersByType(t *testing.T) {
	require.Equal(t, -1, CompareBindings(TypeBinding(1), TypeBinding(2)))
	require.Equal(t, 0, CompareBindings(TypeBinding(5), TypeBinding(5)))
}

func TestCompareBindingsValueUsesConceptCompare(t *testing.T) {
	a := ValueBinding(concept.Integer(1))
	b := ValueBinding(concept.Integer(2))
	require.Equal(t, -1, CompareBindings(a, b))
}

func TestCompareBindingsInstanceByAttributeValueWhenDecoded(t *testing.T) {
	attr := concept.Thing{TypeID: 9, InstanceID: 1, Category: schema.CategoryAttribute}
	a := InstanceBinding(attr)
	a.Value = concept.Integer(10)
	b2 := InstanceBinding(concept.Thing{TypeID: 9, InstanceID: 2, Category: schema.CategoryAttribute})
	b2.Value = concept.Integer(20)

	require.Equal(t, -1, CompareBindings(a, b2), "attribute identity orders by decoded value, not instance id")
}

func TestBindingKeyDistinguishesCategories(t *testing.T) {
	a := bindingKey(TypeBinding(1))
	b := bindingKey(ValueBinding(concept.Integer(1)))
	require.NotEqual(t, a, b)
}

func TestRowKeyStableUnderMapIterationOrder(t *testing.T) {
	r1 := NewRow()
	r1.Set(1, ValueBinding(concept.Integer(1)))
	r1.Set(2, ValueBinding(concept.Integer(2)))
	r2 := NewRow()
	r2.Set(2, ValueBinding(concept.Integer(2)))
	r2.Set(1, ValueBinding(concept.Integer(1)))

	require.Equal(t, rowKey(r1), rowKey(r2))
}

func TestRowsKeyDetectsChangedRowSet(t *testing.T) {
	r1 := NewRow()
	r1.Set(1, ValueBinding(concept.Integer(1)))
	r2 := NewRow()
	r2.Set(1, ValueBinding(concept.Integer(2)))

	require.NotEqual(t, rowsKey([]*Row{r1}), rowsKey([]*Row{r2}))
	require.Equal(t, rowsKey([]*Row{r1, r2}), rowsKey([]*Row{r2, r1}), "order-independent")
}

func TestWithBranchAppendsWithoutMutatingOriginal(t *testing.T) {
	r := NewRow()
	r.Branch = []int{0}
	b := r.WithBranch(1)

	require.Equal(t, []int{0}, r.Branch)
	require.Equal(t, []int{0, 1}, b.Branch)
}
