package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/pathnova/pathnova-api/internal/auth"
	"github.com/pathnova/pathnova-api/internal/server"
)

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Long: `Run the PathNova HTTP API.

Configuration comes from defaults, then the --config file, then the
environment. JWT_SECRET is required.

Example:
  JWT_SECRET=$(openssl rand -hex 32) TEST_LLM=1 pathnova serve
  pathnova serve --config /etc/pathnova.yaml`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, rootOpts)
		},
	}
}

func runServe(cmd *cobra.Command, opts *RootOptions) error {
	cfg, err := opts.load()
	if err != nil {
		return err
	}
	logger := newLogger(os.Stdout, cfg)
	slog.SetDefault(logger)
	ctx := cmd.Context()

	db, err := openDatabase(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	revocations, err := openRevocations(cfg, logger)
	if err != nil {
		return fmt.Errorf("opening session store: %w", err)
	}
	defer revocations.Close()

	gen, err := newGenerator(cfg, logger)
	if err != nil {
		return fmt.Errorf("creating plan generator: %w", err)
	}

	providers, err := newProviders(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("configuring sign-in providers: %w", err)
	}

	tokens, err := auth.NewTokenService(cfg.JWTSecret, cfg.SessionTTL())
	if err != nil {
		return err
	}

	if cfg.TypeformSecret == "" {
		logger.Warn("TYPEFORM_SECRET not set, webhook signatures are not verified")
	}

	srv, err := server.New(cfg, server.Deps{
		DB:          db,
		Revocations: revocations,
		Generator:   gen,
		Tokens:      tokens,
		Providers:   providers,
	}, logger)
	if err != nil {
		return err
	}

	// Start blocks until SIGINT/SIGTERM.
	return srv.Start(ctx)
}
