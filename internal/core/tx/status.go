package tx

import (
	"sync/atomic"

	"txprop/internal/core/id"
)

// physical is one resource-level transaction. It is shared by the Status
// that started it and every REQUIRED participant joined to it, possibly
// from several goroutines.
type physical struct {
	resource     Resource
	readOnly     bool
	rollbackOnly atomic.Bool
}

// Status is the logical transaction returned by Coordinator.Begin.
// It must be passed back to exactly one of Commit or Rollback.
type Status struct {
	id          id.ID
	name        string
	propagation Propagation
	isNew       bool
	completed   atomic.Bool

	tx *physical

	// parent was current when this transaction began. It cannot complete
	// while open children remain.
	parent *Status
	open   atomic.Int32

	// suspended is the transaction set aside by a REQUIRES_NEW begin. It is
	// current again once this one ends.
	suspended *Status
}

// ID returns the unique identifier of this logical transaction.
func (s *Status) ID() id.ID { return s.id }

// Name returns the definition name, possibly empty.
func (s *Status) Name() string { return s.name }

// label names s in logs and errors.
func (s *Status) label() string {
	if s.name != "" {
		return s.name
	}
	return s.id.String()
}

// Propagation returns the propagation this transaction was begun with.
func (s *Status) Propagation() Propagation { return s.propagation }

// IsNewTransaction reports whether this Status started (and therefore owns)
// the physical transaction.
func (s *Status) IsNewTransaction() bool { return s.isNew }

// IsReadOnly reports the read-only flag of the physical transaction.
func (s *Status) IsReadOnly() bool { return s.tx.readOnly }

// IsRollbackOnly reports whether the physical transaction has been marked
// rollback-only, by this Status or by any participant.
func (s *Status) IsRollbackOnly() bool { return s.tx.rollbackOnly.Load() }

// SetRollbackOnly marks the physical transaction rollback-only. The owner's
// eventual Commit turns into a rollback.
func (s *Status) SetRollbackOnly() { s.tx.rollbackOnly.Store(true) }

// IsCompleted reports whether Commit or Rollback already ran for this Status.
func (s *Status) IsCompleted() bool { return s.completed.Load() }

// Resource returns the connection this transaction operates on.
func (s *Status) Resource() Resource { return s.tx.resource }

// SuspendedResource returns the connection set aside while this REQUIRES_NEW
// transaction runs, or nil.
func (s *Status) SuspendedResource() Resource {
	if s.suspended == nil {
		return nil
	}
	return s.suspended.tx.resource
}
