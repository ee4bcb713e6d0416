package concept

import (
	"encoding/binary"

	"github.com/katadb/katadb/schema"
	"github.com/katadb/katadb/storage"
)

// Thing is a resolved instance handle: its TypeID plus its InstanceID,
// sufficient to re-derive its storage key. Category mirrors ir.Category
// restricted to the instance-shaped subset.
type Thing struct {
	TypeID     schema.TypeID
	InstanceID InstanceID
	Category   schema.Category
}

// Key returns the canonical object key for this Thing. For an attribute
// this is its instance key; its value is stored under EncodeAttributeKey,
// which additionally needs the value type.
func (t Thing) Key() []byte { return EncodeObjectKey(t.TypeID, t.InstanceID) }

// ThingManager is the read/write surface over instance data the
// executor and the write-path of constraints consult (spec.md §4.6).
// It sits above storage.Snapshot, translating typed concept operations
// into key/value reads and writes.
type ThingManager interface {
	// GetThing resolves a raw object key back to a Thing, reading
	// through snapshot to confirm the key's type still exists in tm.
	GetThing(key []byte) (Thing, bool, error)

	// IterateInstances returns every instance of typeID (not
	// transitively - callers expand subtypes via schema.TypeManager
	// first, mirroring how annotation resolves Isa transitively).
	IterateInstances(typeID schema.TypeID) ([]Thing, error)

	// GetAttributeValue reads the value stored at an attribute
	// instance's key.
	GetAttributeValue(typeID schema.TypeID, id InstanceID) (Value, bool, error)

	// GetHasAttributes returns every attribute Thing owner has of
	// attributeType.
	GetHasAttributes(owner Thing, attributeType schema.TypeID) ([]Thing, error)

	// GetLinksPlayers returns every player Thing linked by relation in
	// roleType.
	GetLinksPlayers(relation Thing, roleType schema.TypeID) ([]Thing, error)

	// PutHas stages a has-edge, the owner's and the attribute's object
	// keys, and the attribute's value key. When the schema gives the
	// owner's type a maximum cardinality for the attribute type, PutHas
	// checks it against the edges already visible in snap and returns a
	// cardinality error without staging anything.
	PutHas(snap storage.WritableSnapshot, owner Thing, attribute Thing, value Value) error

	// PutLinks stages a links-edge between relation and player in role.
	PutLinks(snap storage.WritableSnapshot, relation Thing, player Thing, roleType schema.TypeID) error

	// NewInstanceID allocates a fresh, never-before-used instance id for
	// typeID, used when inserting a new entity/relation/attribute.
	NewInstanceID(typeID schema.TypeID) InstanceID
}

// SnapshotThingManager is the reference ThingManager, reading and
// writing directly through a storage.Snapshot using the §6 key
// encoding (grounded on the teacher's datom_decoder.go, generalized
// from the EAVT datom family to object/edge/attribute key families).
type SnapshotThingManager struct {
	snapshot storage.Snapshot
	tm       schema.TypeManager

	// counters is an in-process, monotonically increasing per-type
	// instance id allocator. A production implementation would persist
	// this in the schema's type metadata; keeping it in memory here
	// keeps SnapshotThingManager usable purely as a Snapshot adapter.
	counters map[schema.TypeID]uint64
}

// NewSnapshotThingManager wraps snapshot, consulting tm to validate
// type categories and value types as it decodes keys.
func NewSnapshotThingManager(snapshot storage.Snapshot, tm schema.TypeManager) *SnapshotThingManager {
	return &SnapshotThingManager{snapshot: snapshot, tm: tm, counters: make(map[schema.TypeID]uint64)}
}

func (m *SnapshotThingManager) NewInstanceID(typeID schema.TypeID) InstanceID {
	m.counters[typeID]++
	return InstanceID(m.counters[typeID])
}

func (m *SnapshotThingManager) GetThing(key []byte) (Thing, bool, error) {
	typeID, instanceID, ok := DecodeObjectKey(key)
	if !ok {
		return Thing{}, false, nil
	}
	t, ok := m.tm.GetType(typeID)
	if !ok {
		return Thing{}, false, errSchemaObjectMissing(typeID)
	}
	if _, found, err := m.snapshot.Get(key); err != nil {
		return Thing{}, false, errSnapshotRead(err)
	} else if !found {
		return Thing{}, false, nil
	}
	return Thing{TypeID: typeID, InstanceID: instanceID, Category: t.Category}, true, nil
}

func (m *SnapshotThingManager) IterateInstances(typeID schema.TypeID) ([]Thing, error) {
	t, ok := m.tm.GetType(typeID)
	if !ok {
		return nil, errSchemaObjectMissing(typeID)
	}
	prefix := EncodeObjectKey(typeID, 0)[:3] // prefix byte + type id, instance id left open
	start, end := PrefixRange(prefix)

	it, err := m.snapshot.IterateRange(storage.RangeQuery{Start: start, End: end})
	if err != nil {
		return nil, errSnapshotRead(err)
	}
	defer it.Close()

	var out []Thing
	for it.Next() {
		_, instanceID, ok := DecodeObjectKey(it.Item().Key)
		if !ok {
			continue
		}
		out = append(out, Thing{TypeID: typeID, InstanceID: instanceID, Category: t.Category})
	}
	if err := it.Err(); err != nil {
		return nil, errSnapshotRead(err)
	}
	return out, nil
}

func (m *SnapshotThingManager) GetAttributeValue(typeID schema.TypeID, id InstanceID) (Value, bool, error) {
	vt, ok := m.tm.GetValueType(typeID)
	if !ok {
		return Value{}, false, errSchemaObjectMissing(typeID)
	}
	key := EncodeAttributeKey(vt, typeID, id)
	raw, found, err := m.snapshot.Get(key)
	if err != nil {
		return Value{}, false, errSnapshotRead(err)
	}
	if !found {
		return Value{}, false, nil
	}
	v, err := decodeValue(vt, raw)
	if err != nil {
		return Value{}, false, err
	}
	return v, true, nil
}

func (m *SnapshotThingManager) GetHasAttributes(owner Thing, attributeType schema.TypeID) ([]Thing, error) {
	if _, ok := m.tm.GetValueType(attributeType); !ok {
		return nil, errSchemaObjectMissing(attributeType)
	}
	prefix := EncodeHasEdgeKey(owner.Key(), nil)
	start, end := PrefixRange(prefix)

	it, err := m.snapshot.IterateRange(storage.RangeQuery{Start: start, End: end})
	if err != nil {
		return nil, errSnapshotRead(err)
	}
	defer it.Close()

	var out []Thing
	for it.Next() {
		attrKey := it.Item().Key[len(prefix):]
		attrTypeID, instanceID, ok := decodeAttributeKey(attrKey)
		if !ok || attrTypeID != attributeType {
			continue
		}
		out = append(out, Thing{TypeID: attributeType, InstanceID: instanceID, Category: schema.CategoryAttribute})
	}
	if err := it.Err(); err != nil {
		return nil, errSnapshotRead(err)
	}
	return out, nil
}

func (m *SnapshotThingManager) GetLinksPlayers(relation Thing, roleType schema.TypeID) ([]Thing, error) {
	prefix := EncodeLinksEdgeKey(relation.Key(), roleType, nil)
	start, end := PrefixRange(prefix)

	it, err := m.snapshot.IterateRange(storage.RangeQuery{Start: start, End: end})
	if err != nil {
		return nil, errSnapshotRead(err)
	}
	defer it.Close()

	var out []Thing
	for it.Next() {
		playerKey := it.Item().Key[len(prefix):]
		typeID, instanceID, ok := DecodeObjectKey(playerKey)
		if !ok {
			continue
		}
		t, ok := m.tm.GetType(typeID)
		if !ok {
			continue
		}
		out = append(out, Thing{TypeID: typeID, InstanceID: instanceID, Category: t.Category})
	}
	if err := it.Err(); err != nil {
		return nil, errSnapshotRead(err)
	}
	return out, nil
}

func (m *SnapshotThingManager) PutHas(snap storage.WritableSnapshot, owner Thing, attribute Thing, value Value) error {
	card, ok := m.tm.GetCardinality(owner.TypeID, attribute.TypeID)
	if ok && card.Max > 0 {
		existing, err := m.GetHasAttributes(owner, attribute.TypeID)
		if err != nil {
			return err
		}
		if len(existing) >= card.Max {
			return errCardinalityViolation(owner.TypeID, attribute.TypeID, card.Max)
		}
	}

	edgeKey := EncodeHasEdgeKey(owner.Key(), attribute.Key())
	snap.Insert(edgeKey, nil)

	vt, ok := m.tm.GetValueType(attribute.TypeID)
	if !ok {
		return errSchemaObjectMissing(attribute.TypeID)
	}
	valueKey := EncodeAttributeKey(vt, attribute.TypeID, attribute.InstanceID)
	snap.Put(valueKey, encodeValue(value))
	snap.Put(owner.Key(), nil)
	snap.Put(attribute.Key(), nil)
	return nil
}

func (m *SnapshotThingManager) PutLinks(snap storage.WritableSnapshot, relation Thing, player Thing, roleType schema.TypeID) error {
	edgeKey := EncodeLinksEdgeKey(relation.Key(), roleType, player.Key())
	snap.Insert(edgeKey, nil)
	return nil
}

func decodeAttributeKey(key []byte) (schema.TypeID, InstanceID, bool) {
	if len(key) != 11 {
		return 0, 0, false
	}
	return schema.TypeID(binary.BigEndian.Uint16(key[1:3])), InstanceID(binary.BigEndian.Uint64(key[3:11])), true
}
