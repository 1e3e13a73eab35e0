package commands

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/conduit-lang/jsonapi/internal/blog"
)

// NewSeedCommand creates the seed command
func NewSeedCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "seed [fixtures.yml]",
		Short: "Load fixtures into the database",
		Long: `Create the blog tables if needed and insert fixtures in a single transaction.

Without a file the bundled sample data is loaded. Articles and comments
reference their authors by email.`,
		Example: `  jsonapi seed
  jsonapi seed testdata/blog.yml`,
		Args: cobra.MaximumNArgs(1),
		RunE: runSeed,
	}
}

func runSeed(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	var fixtures *blog.Fixtures
	if len(args) == 1 {
		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("failed to open fixtures: %w", err)
		}
		defer f.Close()
		fixtures, err = blog.LoadFixtures(f)
		if err != nil {
			return err
		}
	} else {
		fixtures, err = blog.DefaultFixtures()
		if err != nil {
			return err
		}
	}

	ctx := cmd.Context()
	db, store, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	created, err := store.Seed(ctx, fixtures)
	if err != nil {
		return err
	}

	successColor := color.New(color.FgGreen, color.Bold)
	successColor.Fprintf(cmd.OutOrStdout(), "Seeded %d records into %s\n", created, cfg.Database.Driver)
	return nil
}
