package repo

import (
	"context"
	"fmt"

	"landingsvc/internal/infra"
	"landingsvc/internal/sqlinline"
)

// EnsureSchema creates the tables used by the session store, the Postgres
// queue and the credential store when they do not exist yet.
func EnsureSchema(ctx context.Context, sql infra.SQLExecutor) error {
	for i, stmt := range sqlinline.Schema {
		if _, err := sql.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("schema statement %d: %w", i, err)
		}
	}
	return nil
}
