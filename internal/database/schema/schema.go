package schema

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"

	"go.uber.org/zap"
)

//go:embed schema.sql
var ddl string

// Apply creates the tables on first boot. Every statement is idempotent so
// the call is safe on every restart.
func Apply(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	zap.L().Debug("schema applied")
	return nil
}
