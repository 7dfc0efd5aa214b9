package postgres

import (
	"context"
	"fmt"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS orders (
		id         UUID PRIMARY KEY,
		username   TEXT NOT NULL,
		amount     NUMERIC(18, 2) NOT NULL,
		pay_status TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE TABLE IF NOT EXISTS member (
		id       UUID PRIMARY KEY,
		username TEXT NOT NULL UNIQUE
	)`,
	`CREATE TABLE IF NOT EXISTS log (
		id      UUID PRIMARY KEY,
		message TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS log_message_idx ON log (message)`,
}

// Bootstrap creates the tables used by the demo services.
func (p *Pool) Bootstrap(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := p.Pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("bootstrap schema: %w", err)
		}
	}
	return nil
}
