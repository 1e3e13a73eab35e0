package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/conduit-lang/jsonapi/internal/blog"
	"github.com/conduit-lang/jsonapi/internal/web/server"
)

// NewServeCommand creates the serve command
func NewServeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the JSON:API server",
		Long: `Start the blog JSON:API server.

The server stops gracefully on SIGINT or SIGTERM: in-flight requests
finish, then the database connections are closed.

Routes:
  GET  /articles
  GET  /articles/{id}
  GET  /articles/{id}/relationships/{author|comments}
  GET  /people/{id}
  GET  /comments
  POST /comments`,
		Example: `  jsonapi serve
  jsonapi serve --port 9090 --seed
  JSONAPI_DATABASE_DRIVER=postgres JSONAPI_DATABASE_DSN=postgres://localhost/blog jsonapi serve`,
		RunE: runServe,
	}

	cmd.Flags().IntP("port", "p", 0, "Port to listen on (overrides server.port)")
	cmd.Flags().Bool("seed", false, "Load the sample data before serving")
	cmd.Flags().Duration("shutdown-timeout", 30*time.Second, "Time allowed for in-flight requests on shutdown")

	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("port") {
		cfg.Server.Port, _ = cmd.Flags().GetInt("port")
	}

	logger, err := cfg.Logger()
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, store, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}

	if seed, _ := cmd.Flags().GetBool("seed"); seed {
		fixtures, err := blog.DefaultFixtures()
		if err != nil {
			db.Close()
			return err
		}
		created, err := store.Seed(ctx, fixtures)
		if err != nil {
			db.Close()
			return err
		}
		logger.Info("seeded sample data", zap.Int("records", created))
	}

	handler := blog.NewHandler(store, blog.Config{
		BaseURL:      cfg.BaseURL(),
		DefaultLimit: cfg.API.DefaultLimit,
		MaxLimit:     cfg.API.MaxLimit,
		PrettyPrint:  cfg.Render.Pretty,
		Logger:       logger,
	})

	serverConfig := server.DefaultConfig(handler.Routes())
	serverConfig.Address = cfg.Address()
	serverConfig.Logger = logger
	serverConfig.Database = server.DefaultDatabaseConfig(db)
	if cfg.Database.Driver == "sqlite3" {
		serverConfig.Database.MaxOpenConns = 1
		serverConfig.Database.MaxIdleConns = 1
	}

	srv, err := server.New(serverConfig)
	if err != nil {
		db.Close()
		return err
	}

	timeout, _ := cmd.Flags().GetDuration("shutdown-timeout")
	shutdown := server.NewGracefulShutdown(srv, timeout, logger)
	shutdown.RegisterHook(func(context.Context) error {
		return db.Close()
	})

	color.New(color.FgGreen, color.Bold).Fprintf(cmd.OutOrStdout(), "Serving %s on %s\n", cfg.BaseURL(), cfg.Address())
	return shutdown.Run(ctx)
}
