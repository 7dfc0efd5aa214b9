package member

import (
	"context"
	"fmt"

	"txprop/internal/core/tx"
	"txprop/pkg/logger"
)

// Service registers members.
type Service struct {
	members  Repository
	logs     LogRepository
	boundary *tx.Interceptor
}

// NewService wires the service and its repositories according to layout.
// members and logs are the plain storage implementations.
func NewService(coord *tx.Coordinator, members Repository, logs LogRepository, layout Layout) *Service {
	var logRepo LogRepository = failingLogRepository{LogRepository: logs}

	if layout.RepositoryTx {
		members = &txRepository{
			next:     members,
			boundary: tx.NewInterceptor(coord, repositoryAttributes("MemberRepository", tx.PropagationRequired)),
		}
	}
	if layout.LogTx {
		logRepo = &txLogRepository{
			next:     logRepo,
			boundary: tx.NewInterceptor(coord, repositoryAttributes("LogRepository", layout.LogPropagation)),
		}
	}

	source := tx.NewAttributeSource("MemberService")
	if layout.ServiceTx {
		source.WithDefault(tx.DefaultAttribute())
	}

	return &Service{
		members:  members,
		logs:     logRepo,
		boundary: tx.NewInterceptor(coord, source),
	}
}

// JoinV1 saves the member and its log entry. A log failure is returned to
// the caller.
func (s *Service) JoinV1(ctx context.Context, username string) error {
	return s.boundary.Call(ctx, "JoinV1", func(ctx context.Context) error {
		m := NewMember(username)
		l := NewLogEntry(username)

		logger.Info(ctx, "calling member repository", "username", username)
		if err := s.members.Save(ctx, m); err != nil {
			return fmt.Errorf("save member: %w", err)
		}
		logger.Info(ctx, "member repository call completed", "username", username)

		logger.Info(ctx, "calling log repository", "username", username)
		if err := s.logs.Save(ctx, l); err != nil {
			return fmt.Errorf("save log: %w", err)
		}
		logger.Info(ctx, "log repository call completed", "username", username)
		return nil
	})
}

// JoinV2 saves the member and its log entry, recovering from a log failure
// so that the member is kept.
//
// Whether the member is actually kept depends on the layout: when the log
// save participated in the service transaction, its failure already marked
// that transaction rollback-only and the commit fails with
// tx.ErrUnexpectedRollback.
func (s *Service) JoinV2(ctx context.Context, username string) error {
	return s.boundary.Call(ctx, "JoinV2", func(ctx context.Context) error {
		m := NewMember(username)
		l := NewLogEntry(username)

		logger.Info(ctx, "calling member repository", "username", username)
		if err := s.members.Save(ctx, m); err != nil {
			return fmt.Errorf("save member: %w", err)
		}
		logger.Info(ctx, "member repository call completed", "username", username)

		logger.Info(ctx, "calling log repository", "username", username)
		if err := s.logs.Save(ctx, l); err != nil {
			logger.Info(ctx, "failed to save log, continuing normally", "username", username, "error", err)
			return nil
		}
		logger.Info(ctx, "log repository call completed", "username", username)
		return nil
	})
}

// Lookup reports whether the member and the log entry for username exist.
func (s *Service) Lookup(ctx context.Context, username string) (memberFound, logFound bool, err error) {
	if _, memberFound, err = s.members.Find(ctx, username); err != nil {
		return false, false, fmt.Errorf("find member: %w", err)
	}
	if _, logFound, err = s.logs.Find(ctx, username); err != nil {
		return false, false, fmt.Errorf("find log: %w", err)
	}
	return memberFound, logFound, nil
}
