package member_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"txprop/internal/core/tx"
	"txprop/internal/domain/member"
	"txprop/internal/infrastructure/storage/memdb"
)

type join func(s *member.Service, ctx context.Context, username string) error

var (
	joinV1 join = (*member.Service).JoinV1
	joinV2 join = (*member.Service).JoinV2
)

func TestService_Join(t *testing.T) {
	tests := []struct {
		name       string
		layout     member.Layout
		join       join
		failLog    bool
		wantErr    error
		wantMember bool
		wantLog    bool
	}{
		{
			name:       "repositories only success",
			layout:     member.LayoutRepositoriesOnly,
			join:       joinV1,
			wantMember: true,
			wantLog:    true,
		},
		{
			name:       "repositories only log failure keeps member",
			layout:     member.LayoutRepositoriesOnly,
			join:       joinV1,
			failLog:    true,
			wantErr:    member.ErrLogFailure,
			wantMember: true,
		},
		{
			name:       "service only",
			layout:     member.LayoutServiceOnly,
			join:       joinV1,
			wantMember: true,
			wantLog:    true,
		},
		{
			name:       "all success",
			layout:     member.LayoutAll,
			join:       joinV1,
			wantMember: true,
			wantLog:    true,
		},
		{
			name:    "all log failure rolls back both",
			layout:  member.LayoutAll,
			join:    joinV1,
			failLog: true,
			wantErr: member.ErrLogFailure,
		},
		{
			name:    "all recovered log failure is unexpected rollback",
			layout:  member.LayoutAll,
			join:    joinV2,
			failLog: true,
			wantErr: tx.ErrUnexpectedRollback,
		},
		{
			name:       "log requires new recovered failure keeps member",
			layout:     member.LayoutLogRequiresNew,
			join:       joinV2,
			failLog:    true,
			wantMember: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pool := memdb.NewPool(memdb.NewStore(), memdb.DefaultPoolConfig())
			coord := tx.NewCoordinator(pool)
			svc := member.NewService(coord,
				memdb.NewMemberRepository(pool), memdb.NewLogRepository(pool), tt.layout)
			ctx := context.Background()

			username := "alice"
			if tt.failLog {
				username = member.FailingLogMarker + "_alice"
			}

			err := tt.join(svc, ctx, username)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
			}

			memberFound, logFound, err := svc.Lookup(ctx, username)
			require.NoError(t, err)
			assert.Equal(t, tt.wantMember, memberFound, "member")
			assert.Equal(t, tt.wantLog, logFound, "log")

			assert.False(t, tx.IsActive(ctx))
			assert.Equal(t, 0, pool.Stats().InUse)
		})
	}
}

func TestService_JoinDuplicateMember(t *testing.T) {
	pool := memdb.NewPool(memdb.NewStore(), memdb.DefaultPoolConfig())
	coord := tx.NewCoordinator(pool)
	svc := member.NewService(coord,
		memdb.NewMemberRepository(pool), memdb.NewLogRepository(pool), member.LayoutServiceOnly)
	ctx := context.Background()

	require.NoError(t, svc.JoinV1(ctx, "bob"))
	require.Error(t, svc.JoinV1(ctx, "bob"))

	assert.Equal(t, 1, pool.Store().Count(memdb.TableMembers))
	assert.Equal(t, 1, pool.Store().Count(memdb.TableLogs))
}
