// Package config holds the recognized server/storage/transaction options
// the core reads. The network/config-loading layer that parses these
// from a file or flags is out of scope (spec.md §1); this package only
// defines the typed, defaulted shape every other package depends on,
// the same way the teacher centralizes planner/executor knobs in a
// single PlannerOptions struct.
package config

import "time"

// Options mirrors the "Recognized options" table in the external
// interfaces section of the specification.
type Options struct {
	// StorageDataDirectory is required: the absolute path Badger opens.
	StorageDataDirectory string

	// AuthTokenExpiration defaults to 1 hour. Out-of-scope surface (no
	// authentication is implemented here) but the option is still
	// recognized so a caller's config blob round-trips.
	AuthTokenExpiration time.Duration

	// ReportMetrics toggles the (out-of-scope) diagnostics reporter.
	ReportMetrics bool

	// TransactionTimeout defaults to 5 minutes. No package in this module
	// reads it; the executor stops early only when its context is cancelled.
	TransactionTimeout time.Duration

	// ParallelExecution is accepted but ignored: vectorized/parallel
	// batch execution is a stated Non-goal.
	ParallelExecution bool
}

// Default returns an Options populated with the specification's defaults.
func Default() Options {
	return Options{
		AuthTokenExpiration: time.Hour,
		ReportMetrics:       false,
		TransactionTimeout:  5 * time.Minute,
		ParallelExecution:   false,
	}
}
