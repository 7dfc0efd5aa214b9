package member

import "context"

// Repository persists members.
type Repository interface {
	Save(ctx context.Context, m *Member) error
	Find(ctx context.Context, username string) (*Member, bool, error)
}

// LogRepository persists log entries.
type LogRepository interface {
	Save(ctx context.Context, l *LogEntry) error
	Find(ctx context.Context, message string) (*LogEntry, bool, error)
}
