// Package scenario runs the propagation walkthrough against a storage
// backend: coordinator basics, the member join layouts, the order payment
// flow and the call-boundary services. Each scenario checks its own
// expected outcome and reports a one-line summary.
package scenario

import (
	"context"
	"errors"
	"fmt"

	appctx "txprop/internal/core/context"
	"txprop/internal/core/id"
	"txprop/internal/core/tx"
	"txprop/internal/domain/member"
	"txprop/internal/domain/order"
	"txprop/pkg/logger"
)

// ErrUnexpectedOutcome is returned when a scenario does not end as expected.
var ErrUnexpectedOutcome = errors.New("unexpected scenario outcome")

// Env is the backend the scenarios run on. Repositories must run on the
// connection of the transaction in ctx (tx.ResourceFrom).
type Env struct {
	Coord   *tx.Coordinator
	Orders  order.Repository
	Members member.Repository
	Logs    member.LogRepository
}

// Scenario is one named walkthrough step.
type Scenario struct {
	Name string
	Run  func(ctx context.Context, env Env) (summary string, err error)
}

// Result is the outcome of one Scenario.
type Result struct {
	Name    string
	Summary string
	Err     error
}

// All returns every scenario in presentation order.
func All() []Scenario {
	var out []Scenario
	out = append(out, coordinatorScenarios()...)
	out = append(out, memberScenarios()...)
	out = append(out, orderScenarios()...)
	out = append(out, boundaryScenarios()...)
	return out
}

// Run executes scenarios in order and collects their results. A failing
// scenario does not stop the run.
func Run(ctx context.Context, env Env, scenarios []Scenario) []Result {
	results := make([]Result, 0, len(scenarios))
	for _, s := range scenarios {
		sctx := appctx.WithOperation(ctx, "scenario."+s.Name)
		summary, err := s.Run(sctx, env)
		if err != nil {
			logger.Error(sctx, "scenario failed", "error", err)
		} else {
			logger.Info(sctx, "scenario passed", "summary", summary)
		}
		results = append(results, Result{Name: s.Name, Summary: summary, Err: err})
	}
	return results
}

// unique derives a per-run name so scenarios can be rerun against a
// persistent database.
func unique(prefix string) string {
	return prefix + "-" + id.Short(id.New())
}

func expect(cond bool, format string, args ...any) error {
	if cond {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrUnexpectedOutcome, fmt.Sprintf(format, args...))
}

// stored reports whether the member and log rows for username were
// committed, reading outside any transaction.
func stored(ctx context.Context, env Env, username string) (memberFound, logFound bool, err error) {
	if _, memberFound, err = env.Members.Find(ctx, username); err != nil {
		return false, false, err
	}
	if _, logFound, err = env.Logs.Find(ctx, username); err != nil {
		return false, false, err
	}
	return memberFound, logFound, nil
}
