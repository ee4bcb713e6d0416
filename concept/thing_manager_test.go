package concept

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/katadb/katadb/schema"
	"github.com/katadb/katadb/storage"
)

func openTestDB(t *testing.T) *storage.Database {
	t.Helper()
	dir := t.TempDir()
	db, err := storage.Open(dir)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func buildPersonSchema() *schema.InMemoryTypeManager {
	tm := schema.NewInMemoryTypeManager()
	person := tm.DefineType("person", schema.CategoryEntity, schema.ValueTypeNone)
	age := tm.DefineType("age", schema.CategoryAttribute, schema.ValueTypeInteger)
	tm.AddOwns(person, age, schema.Cardinality{Min: 0, Max: 0})
	return tm
}

func TestSnapshotThingManagerPutThenGetAttributeValue(t *testing.T) {
	db := openTestDB(t)
	tm := buildPersonSchema()
	personType, _ := tm.GetEntityType("person")
	ageType, _ := tm.GetAttributeType("age")

	snap := db.OpenWriteSnapshot()
	defer snap.Rollback()

	mgr := NewSnapshotThingManager(snap, tm)
	owner := Thing{TypeID: personType.ID, InstanceID: mgr.NewInstanceID(personType.ID), Category: schema.CategoryEntity}
	attr := Thing{TypeID: ageType.ID, InstanceID: mgr.NewInstanceID(ageType.ID), Category: schema.CategoryAttribute}

	require.NoError(t, mgr.PutHas(snap, owner, attr, Integer(30)))

	v, ok, err := mgr.GetAttributeValue(ageType.ID, attr.InstanceID)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, int64(30), v.Integer)
}

func TestSnapshotThingManagerGetHasAttributesAfterCommit(t *testing.T) {
	db := openTestDB(t)
	tm := buildPersonSchema()
	personType, _ := tm.GetEntityType("person")
	ageType, _ := tm.GetAttributeType("age")

	w := db.OpenWriteSnapshot()
	mgr := NewSnapshotThingManager(w, tm)
	owner := Thing{TypeID: personType.ID, InstanceID: mgr.NewInstanceID(personType.ID), Category: schema.CategoryEntity}
	attr := Thing{TypeID: ageType.ID, InstanceID: mgr.NewInstanceID(ageType.ID), Category: schema.CategoryAttribute}
	require.NoError(t, mgr.PutHas(w, owner, attr, Integer(11)))
	_, err := w.Commit()
	require.NoError(t, err)

	r := db.OpenReadSnapshot()
	defer r.Close()
	readMgr := NewSnapshotThingManager(r, tm)
	attrs, err := readMgr.GetHasAttributes(owner, ageType.ID)
	require.NoError(t, err)
	require.Len(t, attrs, 1)
	require.Equal(t, attr.InstanceID, attrs[0].InstanceID)
}

func TestSnapshotThingManagerCardinalityViolation(t *testing.T) {
	db := openTestDB(t)
	tm := schema.NewInMemoryTypeManager()
	person := tm.DefineType("person", schema.CategoryEntity, schema.ValueTypeNone)
	ssn := tm.DefineType("ssn", schema.CategoryAttribute, schema.ValueTypeString)
	tm.AddOwns(person, ssn, schema.Cardinality{Min: 0, Max: 1})

	w := db.OpenWriteSnapshot()
	defer w.Rollback()
	mgr := NewSnapshotThingManager(w, tm)
	owner := Thing{TypeID: person, InstanceID: mgr.NewInstanceID(person), Category: schema.CategoryEntity}
	first := Thing{TypeID: ssn, InstanceID: mgr.NewInstanceID(ssn), Category: schema.CategoryAttribute}
	second := Thing{TypeID: ssn, InstanceID: mgr.NewInstanceID(ssn), Category: schema.CategoryAttribute}

	require.NoError(t, mgr.PutHas(w, owner, first, StringValue("111-22-3333")))
	_, err := w.Commit()
	require.NoError(t, err)

	w2 := db.OpenWriteSnapshot()
	defer w2.Rollback()
	readMgr := NewSnapshotThingManager(w2, tm)
	err = readMgr.PutHas(w2, owner, second, StringValue("999-88-7777"))
	require.Error(t, err)
}
