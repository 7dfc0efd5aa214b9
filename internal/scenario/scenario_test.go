package scenario_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"txprop/internal/core/tx"
	"txprop/internal/infrastructure/storage/memdb"
	"txprop/internal/scenario"
)

func memEnv() (scenario.Env, *memdb.Pool) {
	pool := memdb.NewPool(memdb.NewStore(), memdb.DefaultPoolConfig())
	return scenario.Env{
		Coord:   tx.NewCoordinator(pool),
		Orders:  memdb.NewOrderRepository(pool),
		Members: memdb.NewMemberRepository(pool),
		Logs:    memdb.NewLogRepository(pool),
	}, pool
}

func TestRun_AllPassOnMemDB(t *testing.T) {
	env, pool := memEnv()

	results := scenario.Run(context.Background(), env, scenario.All())
	require.Len(t, results, len(scenario.All()))

	for _, r := range results {
		assert.NoError(t, r.Err, r.Name)
		assert.NotEmpty(t, r.Summary, r.Name)
	}
	assert.Equal(t, 0, pool.Stats().InUse)
}

func TestRun_NamesAreUnique(t *testing.T) {
	seen := make(map[string]bool)
	for _, s := range scenario.All() {
		assert.False(t, seen[s.Name], s.Name)
		seen[s.Name] = true
	}
}

func TestRun_ContinuesAfterFailure(t *testing.T) {
	env, _ := memEnv()
	boom := scenario.Scenario{
		Name: "boom",
		Run: func(context.Context, scenario.Env) (string, error) {
			return "", scenario.ErrUnexpectedOutcome
		},
	}
	ok := scenario.Scenario{
		Name: "ok",
		Run: func(context.Context, scenario.Env) (string, error) {
			return "fine", nil
		},
	}

	results := scenario.Run(context.Background(), env, []scenario.Scenario{boom, ok})
	require.Len(t, results, 2)
	assert.ErrorIs(t, results[0].Err, scenario.ErrUnexpectedOutcome)
	assert.NoError(t, results[1].Err)
	assert.Equal(t, "fine", results[1].Summary)
}
