package tx

import "errors"

var (
	// ErrUnexpectedRollback is returned by Commit when the physical
	// transaction was marked rollback-only and got rolled back instead.
	ErrUnexpectedRollback = errors.New("transaction rolled back because it has been marked as rollback-only")

	// ErrPropagationOrder is returned when a transaction is ended while a
	// transaction begun after it is still open.
	ErrPropagationOrder = errors.New("transactions must be completed in reverse order of creation")

	// ErrResourceAcquisition is returned by Begin when the pool could not
	// supply a connection or the connection refused to begin.
	ErrResourceAcquisition = errors.New("could not acquire connection for transaction")

	// ErrTransactionCompleted is returned when Commit or Rollback is called
	// twice on the same Status.
	ErrTransactionCompleted = errors.New("transaction is already completed")

	// ErrNoTransaction is returned when a Status does not belong to the call
	// chain carried by the context.
	ErrNoTransaction = errors.New("no transaction in context")
)
