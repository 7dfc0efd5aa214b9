// Package member_repo provides PostgreSQL implementations of the member and
// log repositories.
package member_repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5/pgconn"

	"txprop/internal/core/apperror"
	"txprop/internal/domain/member"
	"txprop/internal/infrastructure/storage/postgres"
)

func builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

func insertQuery(table string, row any) squirrel.InsertBuilder {
	return builder().Insert(table).SetMap(postgres.StructToMap(row))
}

func findQuery(table, column string, cols []string, value string) squirrel.SelectBuilder {
	return builder().
		Select(cols...).
		From(table).
		Where(squirrel.Eq{column: value}).
		Limit(1)
}

// findOne scans at most one row into dst and reports whether it was found.
func findOne(ctx context.Context, q postgres.Querier, dst any, sb squirrel.SelectBuilder) (bool, error) {
	sql, args, err := sb.ToSql()
	if err != nil {
		return false, fmt.Errorf("build query: %w", err)
	}
	if err := pgxscan.Get(ctx, q, dst, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// MemberRepo stores members in the member table.
type MemberRepo struct {
	pool *postgres.Pool
	cols []string
}

var _ member.Repository = (*MemberRepo)(nil)

// NewMemberRepo creates a MemberRepo.
func NewMemberRepo(pool *postgres.Pool) *MemberRepo {
	return &MemberRepo{pool: pool, cols: postgres.ExtractDBColumns[member.Member]()}
}

// Save inserts a member.
func (r *MemberRepo) Save(ctx context.Context, m *member.Member) error {
	sql, args, err := insertQuery("member", m).ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := r.pool.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return apperror.NewDuplicate("member", "username", m.Username).WithCause(err)
		}
		return fmt.Errorf("insert member: %w", err)
	}
	return nil
}

// Find looks a member up by username.
func (r *MemberRepo) Find(ctx context.Context, username string) (*member.Member, bool, error) {
	var m member.Member
	found, err := findOne(ctx, r.pool.GetQuerier(ctx), &m, findQuery("member", "username", r.cols, username))
	if err != nil {
		return nil, false, fmt.Errorf("find member: %w", err)
	}
	if !found {
		return nil, false, nil
	}
	return &m, true, nil
}

// LogRepo stores log entries in the log table.
type LogRepo struct {
	pool *postgres.Pool
	cols []string
}

var _ member.LogRepository = (*LogRepo)(nil)

// NewLogRepo creates a LogRepo.
func NewLogRepo(pool *postgres.Pool) *LogRepo {
	return &LogRepo{pool: pool, cols: postgres.ExtractDBColumns[member.LogEntry]()}
}

// Save inserts a log entry.
func (r *LogRepo) Save(ctx context.Context, l *member.LogEntry) error {
	sql, args, err := insertQuery("log", l).ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := r.pool.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert log: %w", err)
	}
	return nil
}

// Find looks a log entry up by message.
func (r *LogRepo) Find(ctx context.Context, message string) (*member.LogEntry, bool, error) {
	var l member.LogEntry
	found, err := findOne(ctx, r.pool.GetQuerier(ctx), &l, findQuery("log", "message", r.cols, message))
	if err != nil {
		return nil, false, fmt.Errorf("find log: %w", err)
	}
	if !found {
		return nil, false, nil
	}
	return &l, true, nil
}
