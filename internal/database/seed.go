package database

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

const seedLayout = `<!doctype html>
<html>
<head><title>Pressroom</title></head>
<body>
@renderbody
</body>
</html>`

const seedWelcome = `@layout "layouts/base"
<h1>It works.</h1>
<p>Save templates through the admin API, then render them by key.</p>`

// Seed populates an empty database with a starter layout and welcome
// page so a fresh install renders something before any template has been
// saved. It is a no-op once any template exists.
func Seed(ctx context.Context, db *sql.DB) error {
	var count int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM page_templates").Scan(&count); err != nil {
		return fmt.Errorf("seed check templates: %w", err)
	}

	if count > 0 {
		slog.Info("database already seeded, skipping")
		return nil
	}

	now := time.Now().UTC()
	for key, source := range map[string]string{
		"layouts/base": seedLayout,
		"welcome":      seedWelcome,
	} {
		_, err := db.ExecContext(ctx, `
			INSERT INTO page_templates (id, key, source, version, created_at, updated_at)
			VALUES ($1, $2, $3, 1, $4, $4)
		`, uuid.New(), key, source, now)
		if err != nil {
			return fmt.Errorf("seed insert %q: %w", key, err)
		}
	}

	slog.Info("database seeded with starter templates",
		"keys", []string{"layouts/base", "welcome"},
	)

	return nil
}
