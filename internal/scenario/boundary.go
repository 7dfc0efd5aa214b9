package scenario

import (
	"context"
	"errors"
	"fmt"

	"txprop/internal/domain/callsvc"
)

func boundaryScenarios() []Scenario {
	return []Scenario{
		{Name: "boundary_basic", Run: runBoundaryBasic},
		{Name: "boundary_read_only_level", Run: runBoundaryLevel},
		{Name: "boundary_internal_call_bypass", Run: runBoundaryBypass},
		{Name: "boundary_internal_call_split", Run: runBoundarySplit},
		{Name: "boundary_init", Run: runBoundaryInit},
	}
}

func runBoundaryBasic(ctx context.Context, env Env) (string, error) {
	svc := callsvc.NewBasicService(env.Coord)
	txInfo, err := svc.Tx(ctx)
	if err != nil {
		return "", err
	}
	nonTxInfo, err := svc.NonTx(ctx)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("tx active=%t, nonTx active=%t", txInfo.Active, nonTxInfo.Active), errors.Join(
		expect(txInfo.Active, "Tx should run in a transaction"),
		expect(!nonTxInfo.Active, "NonTx should not run in a transaction"),
	)
}

func runBoundaryLevel(ctx context.Context, env Env) (string, error) {
	svc := callsvc.NewLevelService(env.Coord)
	write, err := svc.Write(ctx)
	if err != nil {
		return "", err
	}
	read, err := svc.Read(ctx)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("write read-only=%t, read read-only=%t", write.ReadOnly, read.ReadOnly), errors.Join(
		expect(write.Active && !write.ReadOnly, "Write should run read-write"),
		expect(read.Active && read.ReadOnly, "Read should inherit read-only"),
	)
}

func runBoundaryBypass(ctx context.Context, env Env) (string, error) {
	svc := callsvc.NewCallService(env.Coord)
	direct, err := svc.Internal(ctx)
	if err != nil {
		return "", err
	}
	outer, inner, err := svc.External(ctx)
	if err != nil {
		return "", err
	}
	summary := fmt.Sprintf("internal active=%t, external active=%t, internal via external active=%t",
		direct.Active, outer.Active, inner.Active)
	return summary, errors.Join(
		expect(direct.Active, "Internal called through the boundary should be transactional"),
		expect(!outer.Active && !inner.Active, "internal call from External bypasses the boundary"),
	)
}

func runBoundarySplit(ctx context.Context, env Env) (string, error) {
	svc := callsvc.NewSplitCallService(callsvc.NewInternalService(env.Coord))
	outer, inner, err := svc.External(ctx)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("external active=%t, internal active=%t", outer.Active, inner.Active), errors.Join(
		expect(!outer.Active, "External should not be transactional"),
		expect(inner.Active, "Internal on its own service should be transactional"),
	)
}

func runBoundaryInit(ctx context.Context, env Env) (string, error) {
	svc := callsvc.NewInitService(ctx, env.Coord)
	ready, err := svc.Ready(ctx)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("construction active=%t, ready active=%t", svc.Constructed.Active, ready.Active), errors.Join(
		expect(!svc.Constructed.Active, "setup during construction runs before the boundary exists"),
		expect(ready.Active, "Ready should run in a transaction"),
	)
}
