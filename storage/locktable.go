package storage

import (
	"sync"
)

// LockTable is the process-wide record of exclusive locks acquired by
// committed transactions, keyed by the key bytes. It is the mechanism
// Commit uses to detect the conflict scenario in spec.md §8 scenario 6:
// two concurrent writable snapshots both locking the same key, exactly
// one of whose commits may succeed.
//
// A single mutex guards the one map, the same tradeoff the teacher makes
// with Database.mu guarding the active-transaction set in
// datalog/storage/database.go.
type LockTable struct {
	mu     sync.Mutex
	holder map[string]SeqNum // key -> sequence number of the transaction that last committed a lock on it
}

// NewLockTable returns an empty lock table.
func NewLockTable() *LockTable {
	return &LockTable{holder: make(map[string]SeqNum)}
}

// CheckAndAcquire validates that no key in lockedKeys or insertedKeys was
// touched by a transaction committed after openedAt, then records seq as
// the new holder for every key in both sets. Both sets are validated
// before either is acquired, so a conflict in one never partially
// acquires the other. insertedKeys get the dedicated "duplicate insert"
// error instead of the generic lock conflict, so a caller (and
// CommitError.Conflict) can still tell a racing insert apart from a
// racing exclusive lock, even though both are recorded in the same
// table. Called only while the commit is holding the admission
// controller's write permit, so this is effectively a single global
// critical section per commit - acceptable because a commit's
// validation work is O(|write set|), not O(database size).
func (t *LockTable) CheckAndAcquire(lockedKeys, insertedKeys [][]byte, openedAt, seq SeqNum) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	for _, k := range insertedKeys {
		if holder, ok := t.holder[string(k)]; ok && holder > openedAt {
			return newDuplicateInsertError(k)
		}
	}
	for _, k := range lockedKeys {
		if holder, ok := t.holder[string(k)]; ok && holder > openedAt {
			return newConflictError(k)
		}
	}
	for _, k := range lockedKeys {
		t.holder[string(k)] = seq
	}
	for _, k := range insertedKeys {
		t.holder[string(k)] = seq
	}
	return nil
}
