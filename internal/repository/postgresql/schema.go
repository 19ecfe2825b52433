package postgresql

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/iuhaa-wishery/wishery-crm-sub000/internal/pkg/database"
)

//go:embed schema.sql
var schemaSQL string

// EnsureSchema creates the tables and indexes used by the repositories.
// Every statement is idempotent.
func EnsureSchema(ctx context.Context, db *database.DB) error {
	if _, err := db.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}
