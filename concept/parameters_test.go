package concept

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/katadb/katadb/ir"
	"github.com/katadb/katadb/schema"
)

func TestParameterRegistryAddThenGet(t *testing.T) {
	reg := NewParameterRegistry(nil)
	id := reg.Add(Integer(42))
	v, ok := reg.Get(id)
	require.True(t, ok)
	require.Equal(t, int64(42), v.Integer)
}

func TestParameterRegistryGetMissingIsFalse(t *testing.T) {
	reg := NewParameterRegistry(nil)
	_, ok := reg.Get(ir.ParameterID(5))
	require.False(t, ok)
}

func TestParameterRegistryValueTypes(t *testing.T) {
	reg := NewParameterRegistry([]Value{Integer(1), StringValue("a")})
	types := reg.ValueTypes()
	require.Equal(t, schema.ValueTypeInteger, types[0])
	require.Equal(t, schema.ValueTypeString, types[1])
}

func TestNilParameterRegistryGetIsSafe(t *testing.T) {
	var reg *ParameterRegistry
	_, ok := reg.Get(0)
	require.False(t, ok)
}
