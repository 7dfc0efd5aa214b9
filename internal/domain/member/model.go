// Package member provides member registration with an audit log entry.
// Joining saves a Member and a LogEntry; how the two saves share
// transactions depends on the Layout the service is wired with.
package member

import (
	"errors"
	"strings"

	"txprop/internal/core/id"
)

// FailingLogMarker makes the log save fail with ErrLogFailure when it
// appears in the log message.
const FailingLogMarker = "logException"

// ErrLogFailure is the system failure raised when saving a log entry.
var ErrLogFailure = errors.New("log save failed")

// Member is a registered user.
type Member struct {
	ID       id.ID  `db:"id" json:"id"`
	Username string `db:"username" json:"username"`
}

// NewMember creates a Member.
func NewMember(username string) *Member {
	return &Member{ID: id.New(), Username: username}
}

// LogEntry records a join.
type LogEntry struct {
	ID      id.ID  `db:"id" json:"id"`
	Message string `db:"message" json:"message"`
}

// NewLogEntry creates a LogEntry.
func NewLogEntry(message string) *LogEntry {
	return &LogEntry{ID: id.New(), Message: message}
}

func shouldFail(l *LogEntry) bool {
	return strings.Contains(l.Message, FailingLogMarker)
}
