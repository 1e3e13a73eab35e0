package commands

import (
	"runtime"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/conduit-lang/jsonapi/internal/cli/ui"
)

var (
	// Version information - set at build time
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
	GoVersion = "unknown"
)

// NewRootCommand creates the root command
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "jsonapi",
		Short: "JSON:API compound document server",
		Long: color.CyanString(`jsonapi - JSON:API 1.0 compound documents

Serves a sample blog (people, articles, comments) as JSON:API documents
with include, sparse fieldsets, filtering, sorting and pagination.`),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().String("config", "", "Config file (default ./jsonapi.yml)")

	// Add subcommands
	rootCmd.AddCommand(NewVersionCommand())
	rootCmd.AddCommand(NewServeCommand())
	rootCmd.AddCommand(NewSeedCommand())
	rootCmd.AddCommand(NewRenderCommand())

	return rootCmd
}

// NewVersionCommand creates the version command
func NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long:  "Display the version, Git commit, build date, and Go version",
		Run: func(cmd *cobra.Command, args []string) {
			// Set GoVersion to actual runtime if not set at build time
			goVer := GoVersion
			if goVer == "unknown" {
				goVer = runtime.Version()
			}

			table := ui.NewKeyValueTable(cmd.OutOrStdout(), color.NoColor)
			table.AddRow("jsonapi version", Version)
			table.AddRow("Git commit", GitCommit)
			table.AddRow("Build date", BuildDate)
			table.AddRow("Go version", goVer)
			table.Render()
		},
	}
}

// Execute runs the root command
func Execute() error {
	rootCmd := NewRootCommand()
	if err := rootCmd.Execute(); err != nil {
		errorColor := color.New(color.FgRed, color.Bold)
		errorColor.Fprintf(rootCmd.ErrOrStderr(), "Error: %v\n", err)
		return err
	}
	return nil
}
