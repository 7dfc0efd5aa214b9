package scenario

import (
	"context"
	"errors"
	"fmt"

	"txprop/internal/core/tx"
	"txprop/internal/domain/member"
)

func coordinatorScenarios() []Scenario {
	return []Scenario{
		{Name: "commit", Run: runCommit},
		{Name: "rollback", Run: runRollback},
		{Name: "double_commit", Run: runDoubleCommit},
		{Name: "inner_commit", Run: runInnerCommit},
		{Name: "outer_rollback", Run: runOuterRollback},
		{Name: "inner_rollback", Run: runInnerRollback},
		{Name: "inner_rollback_requires_new", Run: runInnerRollbackRequiresNew},
	}
}

func saveMember(ctx context.Context, env Env, username string) error {
	return env.Members.Save(ctx, member.NewMember(username))
}

func isStored(ctx context.Context, env Env, username string) (bool, error) {
	_, found, err := env.Members.Find(ctx, username)
	return found, err
}

func runCommit(ctx context.Context, env Env) (string, error) {
	username := unique("commit")
	txCtx, st, err := env.Coord.Begin(ctx, tx.DefaultDefinition().WithName("commit"))
	if err != nil {
		return "", err
	}
	if err := saveMember(txCtx, env, username); err != nil {
		_ = env.Coord.Rollback(txCtx, st)
		return "", err
	}
	if err := env.Coord.Commit(txCtx, st); err != nil {
		return "", err
	}

	found, err := isStored(ctx, env, username)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("committed on %s", st.Resource().ID()), expect(found, "row missing after commit")
}

func runRollback(ctx context.Context, env Env) (string, error) {
	username := unique("rollback")
	txCtx, st, err := env.Coord.Begin(ctx, tx.DefaultDefinition().WithName("rollback"))
	if err != nil {
		return "", err
	}
	if err := saveMember(txCtx, env, username); err != nil {
		_ = env.Coord.Rollback(txCtx, st)
		return "", err
	}
	if err := env.Coord.Rollback(txCtx, st); err != nil {
		return "", err
	}

	found, err := isStored(ctx, env, username)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("rolled back on %s", st.Resource().ID()), expect(!found, "row present after rollback")
}

func runDoubleCommit(ctx context.Context, env Env) (string, error) {
	var conns [2]string
	for i := range conns {
		txCtx, st, err := env.Coord.Begin(ctx, tx.DefaultDefinition().WithName(fmt.Sprintf("tx%d", i+1)))
		if err != nil {
			return "", err
		}
		conns[i] = st.Resource().ID()
		if err := env.Coord.Commit(txCtx, st); err != nil {
			return "", err
		}
	}
	// A pool may hand out the same physical connection twice; nothing
	// requires it, so only report.
	return fmt.Sprintf("tx1 on %s, tx2 on %s", conns[0], conns[1]), nil
}

func runInnerCommit(ctx context.Context, env Env) (string, error) {
	outerName, innerName := unique("inner-commit-a"), unique("inner-commit-b")

	ctx1, outer, err := env.Coord.Begin(ctx, tx.DefaultDefinition().WithName("outer"))
	if err != nil {
		return "", err
	}
	ctx2, inner, err := env.Coord.Begin(ctx1, tx.DefaultDefinition().WithName("inner"))
	if err != nil {
		_ = env.Coord.Rollback(ctx1, outer)
		return "", err
	}
	if err := errors.Join(saveMember(ctx2, env, outerName), saveMember(ctx2, env, innerName)); err != nil {
		_ = env.Coord.Rollback(ctx2, inner)
		_ = env.Coord.Rollback(ctx1, outer)
		return "", err
	}
	if err := env.Coord.Commit(ctx2, inner); err != nil {
		return "", err
	}
	if err := env.Coord.Commit(ctx1, outer); err != nil {
		return "", err
	}

	a, err := isStored(ctx, env, outerName)
	if err != nil {
		return "", err
	}
	b, err := isStored(ctx, env, innerName)
	if err != nil {
		return "", err
	}
	summary := fmt.Sprintf("outer new=%t, inner new=%t, shared %s",
		outer.IsNewTransaction(), inner.IsNewTransaction(), outer.Resource().ID())
	return summary, errors.Join(
		expect(!inner.IsNewTransaction(), "inner should participate"),
		expect(inner.Resource() == outer.Resource(), "inner should share the outer connection"),
		expect(a && b, "both rows should be committed"),
	)
}

func runOuterRollback(ctx context.Context, env Env) (string, error) {
	username := unique("outer-rollback")

	ctx1, outer, err := env.Coord.Begin(ctx, tx.DefaultDefinition().WithName("outer"))
	if err != nil {
		return "", err
	}
	ctx2, inner, err := env.Coord.Begin(ctx1, tx.DefaultDefinition().WithName("inner"))
	if err != nil {
		_ = env.Coord.Rollback(ctx1, outer)
		return "", err
	}
	if err := saveMember(ctx2, env, username); err != nil {
		_ = env.Coord.Rollback(ctx2, inner)
		_ = env.Coord.Rollback(ctx1, outer)
		return "", err
	}
	if err := env.Coord.Commit(ctx2, inner); err != nil {
		return "", err
	}
	if err := env.Coord.Rollback(ctx1, outer); err != nil {
		return "", err
	}

	found, err := isStored(ctx, env, username)
	if err != nil {
		return "", err
	}
	return "inner commit discarded by outer rollback", expect(!found, "inner row should be rolled back")
}

func runInnerRollback(ctx context.Context, env Env) (string, error) {
	username := unique("inner-rollback")

	ctx1, outer, err := env.Coord.Begin(ctx, tx.DefaultDefinition().WithName("outer"))
	if err != nil {
		return "", err
	}
	if err := saveMember(ctx1, env, username); err != nil {
		_ = env.Coord.Rollback(ctx1, outer)
		return "", err
	}
	ctx2, inner, err := env.Coord.Begin(ctx1, tx.DefaultDefinition().WithName("inner"))
	if err != nil {
		_ = env.Coord.Rollback(ctx1, outer)
		return "", err
	}
	if err := env.Coord.Rollback(ctx2, inner); err != nil {
		return "", err
	}
	marked := outer.IsRollbackOnly()
	commitErr := env.Coord.Commit(ctx1, outer)

	found, err := isStored(ctx, env, username)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("outer commit returned %v", commitErr), errors.Join(
		expect(marked, "inner rollback should mark the outer rollback-only"),
		expect(errors.Is(commitErr, tx.ErrUnexpectedRollback), "outer commit should fail with unexpected rollback, got %v", commitErr),
		expect(!found, "outer row should be rolled back"),
	)
}

func runInnerRollbackRequiresNew(ctx context.Context, env Env) (string, error) {
	outerName, innerName := unique("requires-new-outer"), unique("requires-new-inner")

	ctx1, outer, err := env.Coord.Begin(ctx, tx.DefaultDefinition().WithName("outer"))
	if err != nil {
		return "", err
	}
	if err := saveMember(ctx1, env, outerName); err != nil {
		_ = env.Coord.Rollback(ctx1, outer)
		return "", err
	}
	ctx2, inner, err := env.Coord.Begin(ctx1, tx.RequiresNew().WithName("inner"))
	if err != nil {
		_ = env.Coord.Rollback(ctx1, outer)
		return "", err
	}
	innerConn := inner.Resource().ID()
	if err := saveMember(ctx2, env, innerName); err != nil {
		_ = env.Coord.Rollback(ctx2, inner)
		_ = env.Coord.Rollback(ctx1, outer)
		return "", err
	}
	if err := env.Coord.Rollback(ctx2, inner); err != nil {
		return "", err
	}
	if err := env.Coord.Commit(ctx1, outer); err != nil {
		return "", err
	}

	a, err := isStored(ctx, env, outerName)
	if err != nil {
		return "", err
	}
	b, err := isStored(ctx, env, innerName)
	if err != nil {
		return "", err
	}
	summary := fmt.Sprintf("outer on %s, inner on %s", outer.Resource().ID(), innerConn)
	return summary, errors.Join(
		expect(inner.IsNewTransaction(), "inner should be a new transaction"),
		expect(innerConn != outer.Resource().ID(), "inner should use its own connection"),
		expect(a, "outer row should be committed"),
		expect(!b, "inner row should be rolled back"),
	)
}
