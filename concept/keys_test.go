package concept

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/katadb/katadb/schema"
)

func TestEncodeDecodeObjectKeyRoundTrips(t *testing.T) {
	key := EncodeObjectKey(schema.TypeID(7), InstanceID(42))
	typeID, instanceID, ok := DecodeObjectKey(key)
	require.True(t, ok)
	require.Equal(t, schema.TypeID(7), typeID)
	require.Equal(t, InstanceID(42), instanceID)
}

func TestDecodeObjectKeyRejectsWrongPrefix(t *testing.T) {
	key := EncodeAttributeKey(schema.ValueTypeInteger, 1, 1)
	_, _, ok := DecodeObjectKey(key)
	require.False(t, ok)
}

func TestAttributePrefixDiffersAcrossValueTypes(t *testing.T) {
	intKey := EncodeAttributeKey(schema.ValueTypeInteger, 1, 1)
	strKey := EncodeAttributeKey(schema.ValueTypeString, 1, 1)
	require.NotEqual(t, intKey[0], strKey[0])
}

func TestEncodeHasEdgeKeyOrdersByOwnerThenAttribute(t *testing.T) {
	owner := EncodeObjectKey(1, 1)
	attrA := EncodeAttributeKey(schema.ValueTypeInteger, 2, 1)
	attrB := EncodeAttributeKey(schema.ValueTypeInteger, 2, 2)

	keyA := EncodeHasEdgeKey(owner, attrA)
	keyB := EncodeHasEdgeKey(owner, attrB)
	require.NotEqual(t, keyA, keyB)
	require.Less(t, string(keyA), string(keyB))

	prefix := EncodeHasEdgeKey(owner, nil)
	require.Len(t, keyA, len(prefix)+len(attrA))
}

func TestPrefixRangeCoversAllKeysWithPrefix(t *testing.T) {
	prefix := []byte{0x01, 0x00, 0x07}
	start, end := PrefixRange(prefix)
	require.Equal(t, prefix, start)

	withinRange := append(append([]byte{}, prefix...), 0x99)
	require.True(t, string(start) <= string(withinRange))
	require.True(t, string(withinRange) < string(end))
}

func TestPrefixRangeHandlesAllFFOverflow(t *testing.T) {
	prefix := []byte{0xFF, 0xFF}
	_, end := PrefixRange(prefix)
	require.Equal(t, []byte{0xFF, 0xFF, 0x00}, end)
}
