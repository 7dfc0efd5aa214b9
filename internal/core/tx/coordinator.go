package tx

import (
	"context"
	"errors"
	"fmt"

	"txprop/internal/core/id"
	"txprop/pkg/logger"
)

// Outcome is how a logical transaction ended.
type Outcome string

const (
	OutcomeCommitted          Outcome = "committed"
	OutcomeRolledBack         Outcome = "rolled_back"
	OutcomeUnexpectedRollback Outcome = "unexpected_rollback"
	OutcomeParticipated       Outcome = "participated"
	OutcomeMarkedRollbackOnly Outcome = "marked_rollback_only"
	OutcomeFailed             Outcome = "failed"
)

// Recorder observes coordinator activity. The prometheus implementation lives
// in infrastructure/metrics.
type Recorder interface {
	TransactionBegun(def Definition, isNew bool)
	TransactionCompleted(def Definition, outcome Outcome)
	ConnectionSuspended()
}

type nopRecorder struct{}

func (nopRecorder) TransactionBegun(Definition, bool)       {}
func (nopRecorder) TransactionCompleted(Definition, Outcome) {}
func (nopRecorder) ConnectionSuspended()                     {}

// Coordinator begins, commits and rolls back logical transactions, mapping
// them onto physical transactions of a ResourcePool according to their
// propagation.
type Coordinator struct {
	pool     ResourcePool
	recorder Recorder
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithRecorder sets the activity recorder.
func WithRecorder(r Recorder) Option {
	return func(c *Coordinator) {
		if r != nil {
			c.recorder = r
		}
	}
}

// NewCoordinator creates a coordinator drawing connections from pool.
func NewCoordinator(pool ResourcePool, opts ...Option) *Coordinator {
	c := &Coordinator{pool: pool, recorder: nopRecorder{}}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Begin opens a logical transaction on the call chain carried by ctx.
//
// The returned context carries the new transaction and must be used for the
// work and for the matching Commit or Rollback. Contexts derived from it may
// be handed to other goroutines; transactions they begin stay on their own
// branch of the chain.
func (c *Coordinator) Begin(ctx context.Context, def Definition) (context.Context, *Status, error) {
	parent := openNode(ctx)
	if parent == nil {
		logger.Debug(ctx, "creating new transaction", "name", def.Name, "definition", def.String())
		st, err := c.startPhysical(ctx, def, nil)
		if err != nil {
			return ctx, nil, err
		}
		return withNode(ctx, st, nil), st, nil
	}
	current := parent.status

	switch def.Propagation {
	case PropagationRequired:
		logger.Debug(ctx, "participating in existing transaction",
			"name", def.Name,
			"connection", current.Resource().ID(),
		)
		st := &Status{
			id:          id.New(),
			name:        def.Name,
			propagation: def.Propagation,
			isNew:       false,
			tx:          current.tx,
		}
		c.attach(st, current)
		c.recorder.TransactionBegun(def, false)
		return withNode(ctx, st, parent), st, nil

	case PropagationRequiresNew:
		logger.Debug(ctx, "suspending current transaction, creating new transaction",
			"name", def.Name,
			"suspended", current.Resource().ID(),
		)
		st, err := c.startPhysical(ctx, def, current)
		if err != nil {
			logger.Debug(ctx, "resuming suspended transaction after failure of inner transaction",
				"connection", current.Resource().ID(),
			)
			return ctx, nil, err
		}
		c.attach(st, current)
		c.recorder.ConnectionSuspended()
		return withNode(ctx, st, parent), st, nil

	default:
		return ctx, nil, fmt.Errorf("unsupported propagation %s", def.Propagation)
	}
}

func (c *Coordinator) attach(st, parent *Status) {
	st.parent = parent
	parent.open.Add(1)
}

// startPhysical acquires a connection and starts a physical transaction on it.
func (c *Coordinator) startPhysical(ctx context.Context, def Definition, suspended *Status) (*Status, error) {
	res, err := c.pool.Acquire(ctx)
	if err != nil {
		c.recorder.TransactionCompleted(def, OutcomeFailed)
		return nil, fmt.Errorf("%w: %w", ErrResourceAcquisition, err)
	}
	logger.Debug(ctx, "acquired connection for transaction", "connection", res.ID())

	if err := res.Begin(ctx, BeginOptions{ReadOnly: def.ReadOnly}); err != nil {
		res.Release()
		c.recorder.TransactionCompleted(def, OutcomeFailed)
		return nil, fmt.Errorf("%w: begin: %w", ErrResourceAcquisition, err)
	}
	logger.Debug(ctx, "switched connection to manual commit", "connection", res.ID())

	c.recorder.TransactionBegun(def, true)
	return &Status{
		id:          id.New(),
		name:        def.Name,
		propagation: def.Propagation,
		isNew:       true,
		tx:          &physical{resource: res, readOnly: def.ReadOnly},
		suspended:   suspended,
	}, nil
}

// Commit ends st successfully.
//
// A participant only leaves the chain; the owner of the physical transaction
// decides. When the physical transaction is rollback-only the owner rolls
// back and returns ErrUnexpectedRollback.
func (c *Coordinator) Commit(ctx context.Context, st *Status) error {
	if err := c.checkCompletion(ctx, st); err != nil {
		return err
	}
	def := st.definition()

	if !st.isNew {
		st.detach()
		logger.Debug(ctx, "participating transaction completed, commit deferred to outer transaction",
			"name", st.name,
		)
		c.recorder.TransactionCompleted(def, OutcomeParticipated)
		return nil
	}

	defer c.cleanupAfterCompletion(ctx, st)

	res := st.tx.resource
	if st.tx.rollbackOnly.Load() {
		logger.Debug(ctx, "global transaction is marked as rollback-only but transactional code requested commit",
			"name", st.name,
			"connection", res.ID(),
		)
		c.recorder.TransactionCompleted(def, OutcomeUnexpectedRollback)
		if rbErr := res.Rollback(context.WithoutCancel(ctx)); rbErr != nil {
			return errors.Join(ErrUnexpectedRollback, fmt.Errorf("rollback transaction: %w", rbErr))
		}
		return ErrUnexpectedRollback
	}

	logger.Debug(ctx, "initiating transaction commit", "name", st.name, "connection", res.ID())
	if err := res.Commit(ctx); err != nil {
		c.recorder.TransactionCompleted(def, OutcomeFailed)
		return fmt.Errorf("commit transaction: %w", err)
	}
	c.recorder.TransactionCompleted(def, OutcomeCommitted)
	return nil
}

// Rollback ends st unsuccessfully.
//
// A participant marks the shared physical transaction rollback-only and
// leaves the chain; the owner rolls back the physical transaction.
func (c *Coordinator) Rollback(ctx context.Context, st *Status) error {
	if err := c.checkCompletion(ctx, st); err != nil {
		return err
	}
	def := st.definition()

	if !st.isNew {
		st.tx.rollbackOnly.Store(true)
		st.detach()
		logger.Debug(ctx, "participating transaction failed - marking existing transaction as rollback-only",
			"name", st.name,
			"connection", st.tx.resource.ID(),
		)
		c.recorder.TransactionCompleted(def, OutcomeMarkedRollbackOnly)
		return nil
	}

	defer c.cleanupAfterCompletion(ctx, st)

	res := st.tx.resource
	logger.Debug(ctx, "initiating transaction rollback", "name", st.name, "connection", res.ID())
	// Rollback must run even when the caller's context is already cancelled.
	if err := res.Rollback(context.WithoutCancel(ctx)); err != nil {
		c.recorder.TransactionCompleted(def, OutcomeFailed)
		return fmt.Errorf("rollback transaction: %w", err)
	}
	c.recorder.TransactionCompleted(def, OutcomeRolledBack)
	return nil
}

// checkCompletion validates that st may be ended now through ctx and marks
// it completed.
func (c *Coordinator) checkCompletion(ctx context.Context, st *Status) error {
	if st == nil {
		return ErrNoTransaction
	}
	if st.IsCompleted() {
		return ErrTransactionCompleted
	}
	if !onChain(ctx, st) {
		return ErrNoTransaction
	}
	if top := Current(ctx); top != st {
		logger.Error(ctx, "transaction completed out of order",
			"name", st.label(),
			"open", top.label(),
			"depth", Depth(ctx),
		)
		return fmt.Errorf("%w: %q ended while %q is open", ErrPropagationOrder, st.label(), top.label())
	}
	if n := st.open.Load(); n > 0 {
		logger.Error(ctx, "transaction completed with nested transactions still open",
			"name", st.label(),
			"open", n,
		)
		return fmt.Errorf("%w: %q ended with %d nested transactions open", ErrPropagationOrder, st.label(), n)
	}
	if !st.completed.CompareAndSwap(false, true) {
		return ErrTransactionCompleted
	}
	return nil
}

// detach removes a completed st from its parent's open count.
func (s *Status) detach() {
	if s.parent != nil {
		s.parent.open.Add(-1)
	}
}

// cleanupAfterCompletion releases the owner's connection and resumes the
// suspended transaction, if any. It runs on every exit path of Commit and
// Rollback for new transactions.
func (c *Coordinator) cleanupAfterCompletion(ctx context.Context, st *Status) {
	st.detach()

	res := st.tx.resource
	res.Release()
	logger.Debug(ctx, "released connection after transaction", "connection", res.ID())

	if st.suspended != nil {
		logger.Debug(ctx, "resuming suspended transaction after completion of inner transaction",
			"connection", st.suspended.tx.resource.ID(),
		)
	}
}

func (s *Status) definition() Definition {
	return Definition{Name: s.name, Propagation: s.propagation, ReadOnly: s.tx.readOnly}
}
