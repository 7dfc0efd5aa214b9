package tx

import "context"

// node links a logical transaction to the one that was current when it
// began. A call chain is the list reachable from the node in its context.
//
// Nodes are immutable. Begin derives a new context holding a new node, so
// goroutines forked from a transactional context share ancestors but never
// see each other's transactions.
type node struct {
	status *Status
	parent *node
}

// chainKey is the context key for the innermost node.
type chainKey struct{}

func withNode(ctx context.Context, st *Status, parent *node) context.Context {
	return context.WithValue(ctx, chainKey{}, &node{status: st, parent: parent})
}

func chainFrom(ctx context.Context) *node {
	if n, ok := ctx.Value(chainKey{}).(*node); ok {
		return n
	}
	return nil
}

// openNode returns the innermost node whose transaction has not completed.
// Completed transactions stay in derived contexts and are skipped.
func openNode(ctx context.Context) *node {
	for n := chainFrom(ctx); n != nil; n = n.parent {
		if !n.status.IsCompleted() {
			return n
		}
	}
	return nil
}

// Current returns the innermost open transaction of the chain carried by
// ctx, or nil when none is open.
func Current(ctx context.Context) *Status {
	if n := openNode(ctx); n != nil {
		return n.status
	}
	return nil
}

// Depth returns the number of open logical transactions on the chain
// carried by ctx.
func Depth(ctx context.Context) int {
	depth := 0
	for n := chainFrom(ctx); n != nil; n = n.parent {
		if !n.status.IsCompleted() {
			depth++
		}
	}
	return depth
}

// IsActive reports whether a transaction is open on the chain carried by ctx.
func IsActive(ctx context.Context) bool {
	return Current(ctx) != nil
}

// IsReadOnly reports whether the current transaction is read-only.
// It returns false when no transaction is active.
func IsReadOnly(ctx context.Context) bool {
	if s := Current(ctx); s != nil {
		return s.IsReadOnly()
	}
	return false
}

// ResourceFrom returns the connection bound to the current transaction, or
// nil when none is active. Repositories use it to run on the transaction's
// connection.
func ResourceFrom(ctx context.Context) Resource {
	if s := Current(ctx); s != nil {
		return s.Resource()
	}
	return nil
}

func onChain(ctx context.Context, st *Status) bool {
	for n := chainFrom(ctx); n != nil; n = n.parent {
		if n.status == st {
			return true
		}
	}
	return false
}
