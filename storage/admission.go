package storage

import "sync"

// TxKind is the admission class of a transaction (spec.md §5).
type TxKind uint8

const (
	TxRead TxKind = iota
	TxWrite
	TxSchema
)

// AdmissionController enforces: at most one schema transaction; any
// number of write transactions, but none concurrent with a schema
// transaction; any number of read transactions. Admission is FIFO with
// barging prevention: once a schema request is waiting, no *new* write
// request is admitted until that schema transaction has run (readers
// are unaffected, matching spec.md §5's wording that only write
// admission is blocked).
//
// Modeled on the single sync.RWMutex Database.mu uses to guard active
// transactions in datalog/storage/database.go, generalized from a
// single lock into the three-tier admission queue spec.md requires.
type AdmissionController struct {
	mu            sync.Mutex
	cond          *sync.Cond
	readers       int
	writers       int
	schemaActive  bool
	schemaWaiting int // count of schema transactions currently waiting to be admitted
}

// NewAdmissionController returns a controller with no active transactions.
func NewAdmissionController() *AdmissionController {
	c := &AdmissionController{}
	c.cond = sync.NewCond(&c.mu)
	return c
}

// Admit blocks until a transaction of kind may begin, then marks it
// active. The returned release func must be called exactly once when
// the transaction ends (commit, rollback, or close).
func (c *AdmissionController) Admit(kind TxKind) (release func()) {
	c.mu.Lock()
	switch kind {
	case TxRead:
		for c.schemaActive {
			c.cond.Wait()
		}
		c.readers++
	case TxWrite:
		for c.schemaActive || c.schemaWaiting > 0 {
			c.cond.Wait()
		}
		c.writers++
	case TxSchema:
		c.schemaWaiting++
		for c.schemaActive || c.writers > 0 || c.readers > 0 {
			c.cond.Wait()
		}
		c.schemaWaiting--
		c.schemaActive = true
	}
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		switch kind {
		case TxRead:
			c.readers--
		case TxWrite:
			c.writers--
		case TxSchema:
			c.schemaActive = false
		}
		c.mu.Unlock()
		c.cond.Broadcast()
	}
}
