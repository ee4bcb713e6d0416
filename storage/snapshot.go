// Package storage implements the transactional key-range view the rest
// of the core consumes (spec.md §4.1): a Snapshot pinned to a sequence
// number, with a per-snapshot write buffer staging puts/deletes/locks
// until commit. The storage engine's page layout, WAL, and checkpointing
// are out of scope; this package only needs to honor the Snapshot
// contract, which it does here over BadgerDB (grounded on the teacher's
// datalog/storage/badger_store.go).
package storage

import (
	"bytes"
	"sort"

	"github.com/katadb/katadb/internal/corerr"
)

// SeqNum is the monotonic transaction version used as the snapshot key.
type SeqNum uint64

// KV is a single key/value pair, used by range iteration results.
type KV struct {
	Key   []byte
	Value []byte
}

// RangeQuery bounds an iterate_range call: [Start, End), both inclusive
// of Start and exclusive of End; a nil End means "to the end of the
// keyspace with this prefix."
type RangeQuery struct {
	Start []byte
	End   []byte
}

// Iterator yields (key, value) pairs in lexicographic order, merging the
// on-disk MVCC view with any staged writes: on a key collision the
// buffered entry wins (or hides the on-disk entry if it is a delete).
type Iterator interface {
	Next() bool
	Item() KV
	Err() error
	Close()
}

// Snapshot is a process-local, point-in-time view of storage pinned to
// a sequence number. A read observes either the pre-snapshot value or a
// write this same snapshot made - never a concurrent writer's value.
type Snapshot interface {
	OpenSequenceNumber() SeqNum

	// Get returns the value at key as of this snapshot, overlaid by any
	// staged write in the buffer. ok is false if the key does not exist
	// (or was deleted in this snapshot).
	Get(key []byte) (value []byte, ok bool, err error)

	// IterateRange merges the on-disk iterator with the buffer iterator
	// over the given range.
	IterateRange(r RangeQuery) (Iterator, error)

	// Close releases resources held by the snapshot (the underlying
	// Badger transaction). Safe to call more than once.
	Close()
}

// WritableSnapshot extends Snapshot with a staging write buffer.
type WritableSnapshot interface {
	Snapshot

	Put(key, value []byte)
	// Insert stages a versioned put: like Put, but records the write as
	// an insertion for conflict validation (a concurrent insert of the
	// same key is a conflict even without an explicit lock).
	Insert(key, value []byte)
	Delete(key []byte)

	// LockExclusive stages an exclusive lock on key: at commit, if any
	// other committed writer locked the same key (exclusively) after
	// this snapshot opened, the commit is rejected.
	LockExclusive(key []byte)
	// LockUnmodifiable stages a weaker lock in the write buffer. Commit
	// does not check it: a concurrent change to the key does not make
	// this snapshot's commit fail.
	LockUnmodifiable(key []byte)
}

// CommittableSnapshot extends WritableSnapshot with commit/rollback.
type CommittableSnapshot interface {
	WritableSnapshot

	// Commit atomically validates (no conflicting concurrent write on any
	// exclusively-locked key within the write set) and persists the
	// staged writes, assigning a single new sequence number.
	Commit() (SeqNum, error)
	Rollback()
}

// bufferOp is one staged operation in a WriteBuffer.
type bufferOp struct {
	key       []byte
	value     []byte
	isDelete  bool
	isInsert  bool
	lockExcl  bool
	lockUnmod bool
}

// WriteBuffer is an in-memory, ordered staging area for a writable
// snapshot's puts/deletes/locks. Puts are idempotent at the same
// sequence number: staging the same (key, value) pair twice collapses
// to one operation (spec.md §8 idempotence property).
type WriteBuffer struct {
	ops map[string]*bufferOp
}

// NewWriteBuffer returns an empty buffer.
func NewWriteBuffer() *WriteBuffer {
	return &WriteBuffer{ops: make(map[string]*bufferOp)}
}

func (b *WriteBuffer) entry(key []byte) *bufferOp {
	k := string(key)
	op, ok := b.ops[k]
	if !ok {
		op = &bufferOp{key: append([]byte(nil), key...)}
		b.ops[k] = op
	}
	return op
}

func (b *WriteBuffer) Put(key, value []byte) {
	op := b.entry(key)
	op.value = append([]byte{}, value...) // never nil, so WrittenKeys sees the write
	op.isDelete = false
}

func (b *WriteBuffer) Insert(key, value []byte) {
	op := b.entry(key)
	op.value = append([]byte{}, value...)
	op.isDelete = false
	op.isInsert = true
}

func (b *WriteBuffer) Delete(key []byte) {
	op := b.entry(key)
	op.value = nil
	op.isDelete = true
}

func (b *WriteBuffer) LockExclusive(key []byte)   { b.entry(key).lockExcl = true }
func (b *WriteBuffer) LockUnmodifiable(key []byte) { b.entry(key).lockUnmod = true }

// Get returns the staged value for key, if any was staged. found is
// false if nothing was staged for key; deleted is true if the staged
// operation is a delete (in which case Get should report "not found" to
// the caller regardless of the underlying on-disk value).
func (b *WriteBuffer) Get(key []byte) (value []byte, deleted bool, found bool) {
	op, ok := b.ops[string(key)]
	if !ok {
		return nil, false, false
	}
	return op.value, op.isDelete, true
}

// ExclusiveLockedKeys returns every key this buffer staged an exclusive
// lock on, used by commit-time conflict validation.
func (b *WriteBuffer) ExclusiveLockedKeys() [][]byte {
	var out [][]byte
	for _, op := range b.ops {
		if op.lockExcl {
			out = append(out, op.key)
		}
	}
	sort.Slice(out, func(i, j int) bool { return bytes.Compare(out[i], out[j]) < 0 })
	return out
}

// InsertedKeys returns every key this buffer staged via Insert rather
// than Put, used by commit-time conflict validation: a concurrent
// insert of the same key conflicts even with no explicit lock staged.
func (b *WriteBuffer) InsertedKeys() [][]byte {
	var out [][]byte
	for _, op := range b.ops {
		if op.isInsert {
			out = append(out, op.key)
		}
	}
	sort.Slice(out, func(i, j int) bool { return bytes.Compare(out[i], out[j]) < 0 })
	return out
}

// WrittenKeys returns every key this buffer staged a put/insert/delete
// for (not merely locked), used by commit to apply the write set.
func (b *WriteBuffer) WrittenKeys() [][]byte {
	var out [][]byte
	for k, op := range b.ops {
		if op.isDelete || op.value != nil {
			out = append(out, []byte(k))
		}
	}
	sort.Slice(out, func(i, j int) bool { return bytes.Compare(out[i], out[j]) < 0 })
	return out
}

func (b *WriteBuffer) opFor(key []byte) (*bufferOp, bool) {
	op, ok := b.ops[string(key)]
	return op, ok
}

// iterate returns the buffer's entries in [start, end) sorted order,
// for merging against the on-disk iterator.
func (b *WriteBuffer) iterate(r RangeQuery) []*bufferOp {
	var out []*bufferOp
	for _, op := range b.ops {
		if r.Start != nil && bytes.Compare(op.key, r.Start) < 0 {
			continue
		}
		if r.End != nil && bytes.Compare(op.key, r.End) >= 0 {
			continue
		}
		out = append(out, op)
	}
	sort.Slice(out, func(i, j int) bool { return bytes.Compare(out[i].key, out[j].key) < 0 })
	return out
}

// CommitError discriminates the two terminal commit failure modes
// (spec.md §4.1 Failure / §7 Commit).
type CommitError struct {
	*corerr.CoreError
	Conflict bool
}

func newConflictError(key []byte) *CommitError {
	return &CommitError{
		CoreError: corerr.New(corerr.Commit, "Storage", "commit conflict on locked key", map[string]any{"key": key}),
		Conflict:  true,
	}
}

// newDuplicateInsertError reports a key that another transaction already
// inserted (or otherwise touched) after this snapshot opened. This is
// the same race newConflictError detects for explicit locks, but tagged
// with corerr.DataValidation rather than corerr.Commit since it is the
// Insert contract itself being violated, not a lock a caller asked for.
func newDuplicateInsertError(key []byte) *CommitError {
	return &CommitError{
		CoreError: corerr.New(corerr.DataValidation, "Storage", "insert conflicts with a concurrently committed key", map[string]any{"key": key}),
		Conflict:  true,
	}
}

func newStorageUnavailableError(cause error) *CommitError {
	return &CommitError{
		CoreError: corerr.Wrap(corerr.Commit, "Storage", "storage unavailable", cause),
		Conflict:  false,
	}
}

// SnapshotGetError wraps a read failure surfaced from the underlying
// durability layer (spec.md §4.1 Failure).
type SnapshotGetError struct {
	*corerr.CoreError
}

func newMvccReadError(cause error) *SnapshotGetError {
	return &SnapshotGetError{corerr.Wrap(corerr.Concept, "Storage", "MVCC read failed", cause)}
}
