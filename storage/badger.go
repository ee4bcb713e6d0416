package storage

import (
	"bytes"
	"sync/atomic"

	"github.com/dgraph-io/badger/v4"
)

// Database owns the Badger handle and the process-wide mutable state a
// Snapshot needs to participate in MVCC: the sequence counter, the lock
// table, and the admission controller. Grounded on
// datalog/storage/database.go's Database, generalized from a
// Datalog-specific datom store to a generic byte-key/byte-value KV
// substrate the concept layer encodes graph instances over.
type Database struct {
	db        *badger.DB
	seq       atomic.Uint64
	locks     *LockTable
	admission *AdmissionController
}

// Open opens (or creates) a Badger-backed Database at path.
func Open(path string) (*Database, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil
	opts.MemTableSize = 128 << 20
	opts.BlockCacheSize = 256 << 20
	opts.IndexCacheSize = 100 << 20
	opts.DetectConflicts = false // we do our own conflict detection via LockTable

	db, err := badger.Open(opts)
	if err != nil {
		return nil, newStorageUnavailableError(err)
	}

	return &Database{
		db:        db,
		locks:     NewLockTable(),
		admission: NewAdmissionController(),
	}, nil
}

// Close releases the underlying Badger handle.
func (d *Database) Close() error { return d.db.Close() }

// OpenReadSnapshot admits a read transaction and returns a Snapshot
// pinned to the current sequence number.
func (d *Database) OpenReadSnapshot() Snapshot {
	release := d.admission.Admit(TxRead)
	txn := d.db.NewTransaction(false)
	seq := SeqNum(d.seq.Load())
	return &BadgerSnapshot{db: d, txn: txn, openedAt: seq, release: release}
}

// OpenWriteSnapshot admits a write transaction and returns a
// CommittableSnapshot with an empty write buffer.
func (d *Database) OpenWriteSnapshot() CommittableSnapshot {
	release := d.admission.Admit(TxWrite)
	txn := d.db.NewTransaction(false)
	seq := SeqNum(d.seq.Load())
	return &BadgerSnapshot{db: d, txn: txn, openedAt: seq, buffer: NewWriteBuffer(), release: release}
}

// OpenSchemaSnapshot is identical to OpenWriteSnapshot but admits under
// the exclusive schema-writer class (spec.md §5).
func (d *Database) OpenSchemaSnapshot() CommittableSnapshot {
	release := d.admission.Admit(TxSchema)
	txn := d.db.NewTransaction(false)
	seq := SeqNum(d.seq.Load())
	return &BadgerSnapshot{db: d, txn: txn, openedAt: seq, buffer: NewWriteBuffer(), release: release}
}

// BadgerSnapshot implements Snapshot/WritableSnapshot/CommittableSnapshot
// over a read-only Badger transaction plus an in-memory WriteBuffer,
// exactly the split the teacher's BadgerIterator performs between
// on-disk and buffered state in datalog/storage/badger_store.go.
type BadgerSnapshot struct {
	db       *Database
	txn      *badger.Txn
	openedAt SeqNum
	buffer   *WriteBuffer // nil for read-only snapshots
	release  func()
	closed   bool
}

func (s *BadgerSnapshot) OpenSequenceNumber() SeqNum { return s.openedAt }

func (s *BadgerSnapshot) Get(key []byte) ([]byte, bool, error) {
	if s.buffer != nil {
		if value, deleted, found := s.buffer.Get(key); found {
			if deleted {
				return nil, false, nil
			}
			return value, true, nil
		}
	}
	item, err := s.txn.Get(key)
	if err == badger.ErrKeyNotFound {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, newMvccReadError(err)
	}
	var out []byte
	err = item.Value(func(v []byte) error {
		out = append([]byte(nil), v...)
		return nil
	})
	if err != nil {
		return nil, false, newMvccReadError(err)
	}
	return out, true, nil
}

func (s *BadgerSnapshot) IterateRange(r RangeQuery) (Iterator, error) {
	opts := badger.DefaultIteratorOptions
	opts.PrefetchValues = true
	it := s.txn.NewIterator(opts)
	if r.Start != nil {
		it.Seek(r.Start)
	} else {
		it.Rewind()
	}

	var bufOps []*bufferOp
	if s.buffer != nil {
		bufOps = s.buffer.iterate(r)
	}

	return &mergeIterator{badger: it, end: r.End, bufOps: bufOps, bufIdx: -1}, nil
}

func (s *BadgerSnapshot) Put(key, value []byte)    { s.mustBuffer().Put(key, value) }
func (s *BadgerSnapshot) Insert(key, value []byte) { s.mustBuffer().Insert(key, value) }
func (s *BadgerSnapshot) Delete(key []byte)        { s.mustBuffer().Delete(key) }

func (s *BadgerSnapshot) LockExclusive(key []byte)    { s.mustBuffer().LockExclusive(key) }
func (s *BadgerSnapshot) LockUnmodifiable(key []byte) { s.mustBuffer().LockUnmodifiable(key) }

func (s *BadgerSnapshot) mustBuffer() *WriteBuffer {
	if s.buffer == nil {
		panic("storage: write operation on a read-only snapshot")
	}
	return s.buffer
}

// Commit validates the exclusive-locked keys against the process-wide
// lock table, then applies the staged writes in one Badger transaction,
// assigning a single new sequence number. All-or-nothing: either every
// staged write lands, or none do and CommitError is returned.
func (s *BadgerSnapshot) Commit() (SeqNum, error) {
	defer s.release()

	locked := s.buffer.ExclusiveLockedKeys()
	inserted := s.buffer.InsertedKeys()
	next := SeqNum(s.db.seq.Add(1))

	if err := s.db.locks.CheckAndAcquire(locked, inserted, s.openedAt, next); err != nil {
		s.txn.Discard()
		return 0, err
	}

	err := s.db.db.Update(func(txn *badger.Txn) error {
		for _, key := range s.buffer.WrittenKeys() {
			op, _ := s.buffer.opFor(key)
			if op.isDelete {
				if err := txn.Delete(key); err != nil && err != badger.ErrKeyNotFound {
					return err
				}
				continue
			}
			if err := txn.Set(key, op.value); err != nil {
				return err
			}
		}
		return nil
	})
	s.txn.Discard()
	if err != nil {
		return 0, newStorageUnavailableError(err)
	}
	return next, nil
}

func (s *BadgerSnapshot) Rollback() {
	if s.closed {
		return
	}
	s.closed = true
	s.txn.Discard()
	s.release()
}

func (s *BadgerSnapshot) Close() {
	if s.closed {
		return
	}
	s.closed = true
	s.txn.Discard()
	if s.release != nil {
		s.release()
	}
}

// mergeIterator merges a Badger on-disk iterator with a sorted slice of
// staged WriteBuffer operations, yielding keys in lexicographic order;
// on collision the buffered entry wins (or hides the on-disk entry
// entirely if it is a delete) - spec.md §4.1's iterate_range contract.
type mergeIterator struct {
	badger *badger.Iterator
	end    []byte

	bufOps []*bufferOp
	bufIdx int

	cur KV
	err error
}

func (m *mergeIterator) badgerValid() bool {
	if !m.badger.Valid() {
		return false
	}
	if m.end != nil && bytes.Compare(m.badger.Item().Key(), m.end) >= 0 {
		return false
	}
	return true
}

func (m *mergeIterator) bufValid() bool { return m.bufIdx+1 < len(m.bufOps) }

func (m *mergeIterator) Next() bool {
	for {
		bOk := m.badgerValid()
		var bufKey []byte
		if m.bufValid() {
			bufKey = m.bufOps[m.bufIdx+1].key
		}

		switch {
		case !bOk && m.bufIdx+1 >= len(m.bufOps):
			return false

		case !bOk:
			m.bufIdx++
			op := m.bufOps[m.bufIdx]
			if op.isDelete {
				continue
			}
			m.cur = KV{Key: op.key, Value: op.value}
			return true

		case m.bufIdx+1 >= len(m.bufOps):
			item := m.badger.Item()
			key := append([]byte(nil), item.Key()...)
			var val []byte
			if err := item.Value(func(v []byte) error {
				val = append([]byte(nil), v...)
				return nil
			}); err != nil {
				m.err = newMvccReadError(err)
				return false
			}
			m.badger.Next()
			m.cur = KV{Key: key, Value: val}
			return true

		default:
			diskKey := m.badger.Item().Key()
			cmp := bytes.Compare(diskKey, bufKey)
			switch {
			case cmp < 0:
				item := m.badger.Item()
				key := append([]byte(nil), item.Key()...)
				var val []byte
				if err := item.Value(func(v []byte) error {
					val = append([]byte(nil), v...)
					return nil
				}); err != nil {
					m.err = newMvccReadError(err)
					return false
				}
				m.badger.Next()
				m.cur = KV{Key: key, Value: val}
				return true
			case cmp == 0:
				// buffered entry wins; skip the on-disk entry entirely
				m.badger.Next()
				m.bufIdx++
				op := m.bufOps[m.bufIdx]
				if op.isDelete {
					continue
				}
				m.cur = KV{Key: op.key, Value: op.value}
				return true
			default:
				m.bufIdx++
				op := m.bufOps[m.bufIdx]
				if op.isDelete {
					continue
				}
				m.cur = KV{Key: op.key, Value: op.value}
				return true
			}
		}
	}
}

func (m *mergeIterator) Item() KV  { return m.cur }
func (m *mergeIterator) Err() error { return m.err }
func (m *mergeIterator) Close()     { m.badger.Close() }
