package tx

import "context"

// BeginOptions are passed to Resource.Begin when a physical transaction starts.
type BeginOptions struct {
	ReadOnly bool
}

// Resource is one physical connection borrowed from a ResourcePool.
//
// Begin switches the connection to manual commit. Commit and Rollback end the
// physical transaction and switch back to auto-commit. Release returns the
// connection to its pool; the Resource must not be used afterwards.
type Resource interface {
	ID() string
	Begin(ctx context.Context, opts BeginOptions) error
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
	Release()
}

// ResourcePool hands out Resources. Implementations own the acquire/release
// discipline across independent call chains.
type ResourcePool interface {
	Acquire(ctx context.Context) (Resource, error)
}
