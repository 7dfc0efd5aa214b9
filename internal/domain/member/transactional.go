package member

import (
	"context"
	"fmt"

	"txprop/internal/core/tx"
)

// Layout selects which components run behind a transactional boundary.
type Layout struct {
	ServiceTx    bool
	RepositoryTx bool
	LogTx        bool

	// LogPropagation applies when LogTx is set.
	LogPropagation tx.Propagation
}

// Layouts used by the join scenarios.
var (
	// LayoutRepositoriesOnly: each save commits on its own.
	LayoutRepositoriesOnly = Layout{RepositoryTx: true, LogTx: true}

	// LayoutServiceOnly: one transaction opened by the service.
	LayoutServiceOnly = Layout{ServiceTx: true}

	// LayoutAll: repositories participate in the service transaction.
	LayoutAll = Layout{ServiceTx: true, RepositoryTx: true, LogTx: true}

	// LayoutLogRequiresNew: the log save runs in its own physical transaction.
	LayoutLogRequiresNew = Layout{ServiceTx: true, RepositoryTx: true, LogTx: true, LogPropagation: tx.PropagationRequiresNew}
)

// failingLogRepository saves and then fails for messages carrying
// FailingLogMarker, so the saved row is only discarded by a rollback.
type failingLogRepository struct {
	LogRepository
}

func (r failingLogRepository) Save(ctx context.Context, l *LogEntry) error {
	if err := r.LogRepository.Save(ctx, l); err != nil {
		return err
	}
	if shouldFail(l) {
		return fmt.Errorf("save log %q: %w", l.Message, ErrLogFailure)
	}
	return nil
}

type txRepository struct {
	next     Repository
	boundary *tx.Interceptor
}

func (r *txRepository) Save(ctx context.Context, m *Member) error {
	return r.boundary.Call(ctx, "Save", func(ctx context.Context) error {
		return r.next.Save(ctx, m)
	})
}

func (r *txRepository) Find(ctx context.Context, username string) (*Member, bool, error) {
	var (
		m     *Member
		found bool
	)
	err := r.boundary.Call(ctx, "Find", func(ctx context.Context) error {
		var err error
		m, found, err = r.next.Find(ctx, username)
		return err
	})
	return m, found, err
}

type txLogRepository struct {
	next     LogRepository
	boundary *tx.Interceptor
}

func (r *txLogRepository) Save(ctx context.Context, l *LogEntry) error {
	return r.boundary.Call(ctx, "Save", func(ctx context.Context) error {
		return r.next.Save(ctx, l)
	})
}

func (r *txLogRepository) Find(ctx context.Context, message string) (*LogEntry, bool, error) {
	var (
		l     *LogEntry
		found bool
	)
	err := r.boundary.Call(ctx, "Find", func(ctx context.Context) error {
		var err error
		l, found, err = r.next.Find(ctx, message)
		return err
	})
	return l, found, err
}

func repositoryAttributes(typeName string, propagation tx.Propagation) *tx.AttributeSource {
	return tx.NewAttributeSource(typeName).
		WithDefault(tx.Attribute{Definition: tx.Definition{Propagation: propagation}}).
		Method("Find", tx.Attribute{Definition: tx.DefaultDefinition().AsReadOnly()})
}
