package database

import (
	"context"
	"fmt"
	"io/fs"
	"sort"
)

// Migrate executes every *.sql file in fsys in name order. Files must be
// idempotent; there is no version table.
func Migrate(ctx context.Context, db DBTX, fsys fs.FS) ([]string, error) {
	names, err := fs.Glob(fsys, "*.sql")
	if err != nil {
		return nil, fmt.Errorf("list migrations: %w", err)
	}
	sort.Strings(names)

	for _, name := range names {
		body, err := fs.ReadFile(fsys, name)
		if err != nil {
			return nil, fmt.Errorf("read migration %s: %w", name, err)
		}
		// no arguments, so pgx sends it over the simple protocol and
		// multiple statements are allowed
		if _, err := db.Exec(ctx, string(body)); err != nil {
			return nil, fmt.Errorf("apply migration %s: %w", name, err)
		}
	}

	return names, nil
}
