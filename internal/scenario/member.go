package scenario

import (
	"context"
	"errors"
	"fmt"

	"txprop/internal/core/tx"
	"txprop/internal/domain/member"
)

type joinCase struct {
	name   string
	layout member.Layout
	v2     bool
	fail   bool

	wantErr    error // nil when the join should succeed
	wantMember bool
	wantLog    bool
}

var joinCases = []joinCase{
	{name: "outer_tx_off_success", layout: member.LayoutRepositoriesOnly, wantMember: true, wantLog: true},
	{name: "outer_tx_off_fail", layout: member.LayoutRepositoriesOnly, fail: true, wantErr: member.ErrLogFailure, wantMember: true},
	{name: "single_tx", layout: member.LayoutServiceOnly, wantMember: true, wantLog: true},
	{name: "outer_tx_on_success", layout: member.LayoutAll, wantMember: true, wantLog: true},
	{name: "outer_tx_on_fail", layout: member.LayoutAll, fail: true, wantErr: member.ErrLogFailure},
	{name: "recover_exception_fail", layout: member.LayoutAll, v2: true, fail: true, wantErr: tx.ErrUnexpectedRollback},
	{name: "recover_exception_success", layout: member.LayoutLogRequiresNew, v2: true, fail: true, wantMember: true},
}

func memberScenarios() []Scenario {
	out := make([]Scenario, 0, len(joinCases))
	for _, jc := range joinCases {
		out = append(out, Scenario{
			Name: "member_" + jc.name,
			Run: func(ctx context.Context, env Env) (string, error) {
				return runJoin(ctx, env, jc)
			},
		})
	}
	return out
}

func runJoin(ctx context.Context, env Env, jc joinCase) (string, error) {
	prefix := jc.name
	if jc.fail {
		prefix = member.FailingLogMarker + "_" + prefix
	}
	username := unique(prefix)

	svc := member.NewService(env.Coord, env.Members, env.Logs, jc.layout)
	join, mode := svc.JoinV1, "v1"
	if jc.v2 {
		join, mode = svc.JoinV2, "v2"
	}
	joinErr := join(ctx, username)

	memberFound, logFound, err := stored(ctx, env, username)
	if err != nil {
		return "", err
	}

	summary := fmt.Sprintf("join%s: err=%v member=%t log=%t", mode, joinErr, memberFound, logFound)
	errCheck := expect(joinErr == nil, "join should succeed, got %v", joinErr)
	if jc.wantErr != nil {
		errCheck = expect(errors.Is(joinErr, jc.wantErr), "join should fail with %v, got %v", jc.wantErr, joinErr)
	}
	return summary, errors.Join(
		errCheck,
		expect(memberFound == jc.wantMember, "member stored=%t, want %t", memberFound, jc.wantMember),
		expect(logFound == jc.wantLog, "log stored=%t, want %t", logFound, jc.wantLog),
	)
}
