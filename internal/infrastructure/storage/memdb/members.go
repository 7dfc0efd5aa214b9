package memdb

import (
	"context"
	"fmt"

	"txprop/internal/core/apperror"
	"txprop/internal/domain/member"
)

// Tables for the join flow. Members are keyed by username and log entries
// by message.
const (
	TableMembers = "member"
	TableLogs    = "log"
)

// MemberRepository implements member.Repository on a Pool.
type MemberRepository struct {
	pool *Pool
}

var _ member.Repository = (*MemberRepository)(nil)

// NewMemberRepository creates a MemberRepository.
func NewMemberRepository(pool *Pool) *MemberRepository {
	return &MemberRepository{pool: pool}
}

// Save inserts a member. The username must be unique.
func (r *MemberRepository) Save(ctx context.Context, m *member.Member) error {
	return r.pool.Session(ctx, func(c *Conn) error {
		if _, exists, err := c.Get(TableMembers, m.Username); err != nil {
			return err
		} else if exists {
			return apperror.NewDuplicate("member", "username", m.Username)
		}
		return c.Insert(TableMembers, m.Username, *m)
	})
}

// Find looks a member up by username.
func (r *MemberRepository) Find(ctx context.Context, username string) (*member.Member, bool, error) {
	var out *member.Member
	err := r.pool.Session(ctx, func(c *Conn) error {
		v, ok, err := c.Get(TableMembers, username)
		if err != nil || !ok {
			return err
		}
		row, ok := v.(member.Member)
		if !ok {
			return fmt.Errorf("memdb: unexpected row type %T in %s", v, TableMembers)
		}
		out = &row
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return out, out != nil, nil
}

// LogRepository implements member.LogRepository on a Pool.
type LogRepository struct {
	pool *Pool
}

var _ member.LogRepository = (*LogRepository)(nil)

// NewLogRepository creates a LogRepository.
func NewLogRepository(pool *Pool) *LogRepository {
	return &LogRepository{pool: pool}
}

// Save inserts a log entry.
func (r *LogRepository) Save(ctx context.Context, l *member.LogEntry) error {
	return r.pool.Session(ctx, func(c *Conn) error {
		return c.Put(TableLogs, l.Message, *l)
	})
}

// Find looks a log entry up by message.
func (r *LogRepository) Find(ctx context.Context, message string) (*member.LogEntry, bool, error) {
	var out *member.LogEntry
	err := r.pool.Session(ctx, func(c *Conn) error {
		v, ok, err := c.Get(TableLogs, message)
		if err != nil || !ok {
			return err
		}
		row, ok := v.(member.LogEntry)
		if !ok {
			return fmt.Errorf("memdb: unexpected row type %T in %s", v, TableLogs)
		}
		out = &row
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return out, out != nil, nil
}
