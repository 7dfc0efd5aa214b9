// Package main runs the transaction propagation walkthrough against the
// configured storage backend and exits non-zero when a scenario fails.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"txprop/internal/app"
	"txprop/internal/config"
	"txprop/internal/scenario"
	"txprop/pkg/logger"
)

func main() {
	only := flag.String("only", "", "comma-separated scenario names to run (default: all)")
	flag.Parse()

	cfg := config.Load()

	log, err := logger.New(logger.Config{
		Level:       cfg.App.LogLevel,
		Development: cfg.App.IsDevelopment(),
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	ctx := logger.WithLogger(context.Background(), log)

	backend, err := app.Open(ctx, cfg)
	if err != nil {
		logger.Fatal(ctx, "failed to open storage backend", "error", err)
	}
	defer backend.Close()

	scenarios, err := selectScenarios(*only)
	if err != nil {
		logger.Fatal(ctx, "invalid scenario selection", "error", err)
	}
	log.Infow("running scenarios", "backend", backend.Name, "count", len(scenarios))

	failed := 0
	for _, r := range scenario.Run(ctx, backend.ScenarioEnv(), scenarios) {
		status := "PASS"
		if r.Err != nil {
			status = "FAIL"
			failed++
		}
		fmt.Printf("%-4s %-40s %s\n", status, r.Name, r.Summary)
		if r.Err != nil {
			fmt.Printf("     %v\n", r.Err)
		}
	}

	if failed > 0 {
		log.Errorw("scenarios failed", "failed", failed)
		backend.Close()
		os.Exit(1)
	}
	log.Info("all scenarios passed")
}

func selectScenarios(only string) ([]scenario.Scenario, error) {
	all := scenario.All()
	if only == "" {
		return all, nil
	}

	byName := make(map[string]scenario.Scenario, len(all))
	for _, s := range all {
		byName[s.Name] = s
	}

	var out []scenario.Scenario
	for _, name := range strings.Split(only, ",") {
		s, ok := byName[strings.TrimSpace(name)]
		if !ok {
			return nil, fmt.Errorf("unknown scenario %q", name)
		}
		out = append(out, s)
	}
	return out, nil
}
