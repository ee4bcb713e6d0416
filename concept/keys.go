// Package concept implements the external collaborators the query
// execution core treats as interfaces (spec.md §4.6): the concept-level
// value model, the storage key encoding of §6, and the thing manager
// that bridges typed concepts to raw storage.Snapshot reads/writes.
package concept

import (
	"encoding/binary"

	"github.com/katadb/katadb/schema"
)

// KeyPrefix discriminates the three storage key families of spec.md §6.
// Attribute keys additionally fold the value-type category into the
// prefix byte so a range scan over one attribute's value index never
// crosses into another value type's encoding.
type KeyPrefix byte

const (
	PrefixObject    KeyPrefix = 0x01
	PrefixEdge      KeyPrefix = 0x02
	prefixAttrBase  KeyPrefix = 0x10 // + schema.ValueType, so attribute prefixes occupy 0x10..0x1A
)

// AttributePrefix returns the attribute-family prefix byte for vt.
func AttributePrefix(vt schema.ValueType) KeyPrefix {
	return prefixAttrBase + KeyPrefix(vt)
}

// InstanceID is the 8-byte instance identifier portion of an object or
// attribute key (spec.md §6: "<prefix_byte><type_id:2B><instance_id:8B>").
type InstanceID uint64

// EncodeObjectKey encodes an entity or relation instance key.
func EncodeObjectKey(typeID schema.TypeID, id InstanceID) []byte {
	key := make([]byte, 1+2+8)
	key[0] = byte(PrefixObject)
	binary.BigEndian.PutUint16(key[1:3], uint16(typeID))
	binary.BigEndian.PutUint64(key[3:11], uint64(id))
	return key
}

// DecodeObjectKey reverses EncodeObjectKey.
func DecodeObjectKey(key []byte) (schema.TypeID, InstanceID, bool) {
	if len(key) != 11 || KeyPrefix(key[0]) != PrefixObject {
		return 0, 0, false
	}
	return schema.TypeID(binary.BigEndian.Uint16(key[1:3])), InstanceID(binary.BigEndian.Uint64(key[3:11])), true
}

// EncodeAttributeKey encodes an attribute instance key: the prefix byte
// carries the value type, so two attribute types with the same TypeID
// collision space (never true in practice, but defensively) still sort
// into disjoint ranges by value category.
func EncodeAttributeKey(vt schema.ValueType, typeID schema.TypeID, id InstanceID) []byte {
	key := make([]byte, 1+2+8)
	key[0] = byte(AttributePrefix(vt))
	binary.BigEndian.PutUint16(key[1:3], uint16(typeID))
	binary.BigEndian.PutUint64(key[3:11], uint64(id))
	return key
}

// EdgeInfix discriminates the edge relationships encoded with
// EncodeEdgeKey: a has-edge (owner -> attribute) or a links-edge
// (relation -> player, tagged with its role type).
type EdgeInfix byte

const (
	EdgeInfixHas   EdgeInfix = 0x01
	EdgeInfixLinks EdgeInfix = 0x02
)

// EncodeHasEdgeKey encodes an owner-has-attribute edge: the two object
// keys concatenated around a 1-byte infix (spec.md §6: "edge keys
// concatenate endpoint vertices with a 1-byte infix").
func EncodeHasEdgeKey(owner []byte, attribute []byte) []byte {
	key := make([]byte, 0, 1+len(owner)+1+len(attribute))
	key = append(key, byte(PrefixEdge))
	key = append(key, owner...)
	key = append(key, byte(EdgeInfixHas))
	key = append(key, attribute...)
	return key
}

// EncodeLinksEdgeKey encodes a relation-links-player-in-role edge,
// additionally folding the role TypeID into the key so range scans can
// select all players for a given (relation, role) pair.
func EncodeLinksEdgeKey(relation []byte, roleType schema.TypeID, player []byte) []byte {
	key := make([]byte, 0, 1+len(relation)+1+2+len(player))
	key = append(key, byte(PrefixEdge))
	key = append(key, relation...)
	key = append(key, byte(EdgeInfixLinks))
	roleBytes := make([]byte, 2)
	binary.BigEndian.PutUint16(roleBytes, uint16(roleType))
	key = append(key, roleBytes...)
	key = append(key, player...)
	return key
}

// PrefixRange returns the [start, end) byte range covering every key
// with the given prefix, incrementing the last byte (or appending a
// 0x00 byte on all-0xFF overflow) to compute an exclusive upper bound.
func PrefixRange(prefix []byte) (start, end []byte) {
	start = append([]byte(nil), prefix...)
	end = append([]byte(nil), prefix...)
	for i := len(end) - 1; i >= 0; i-- {
		if end[i] < 0xFF {
			end[i]++
			return start, end[:i+1]
		}
	}
	return start, append(end, 0x00)
}
