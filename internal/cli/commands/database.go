package commands

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/spf13/cobra"

	"github.com/conduit-lang/jsonapi/internal/blog"
	"github.com/conduit-lang/jsonapi/internal/cli/config"
)

// loadConfig loads the file named by --config, or jsonapi.yml
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}
	return config.LoadFile(path)
}

// openStore opens the configured database and makes sure the blog schema
// exists
func openStore(ctx context.Context, cfg *config.Config) (*sql.DB, *blog.Store, error) {
	db, err := sql.Open(cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open %s database: %w", cfg.Database.Driver, err)
	}

	store := blog.NewStore(db, cfg.Database.Driver)
	if err := store.CreateSchema(ctx); err != nil {
		db.Close()
		return nil, nil, err
	}
	return db, store, nil
}
