// Package cli implements advisorctl, the operator command line for the
// query advisor: bulk import, seeding, retraining, index suggestions and
// admin tokens.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"query-advisor/internal/config"
	"query-advisor/internal/db"
	"query-advisor/internal/observability"
	"query-advisor/internal/querylog"
)

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// NewRootCmd builds the command tree. Each call returns a fresh tree so tests
// can run commands independently.
func NewRootCmd() *cobra.Command {
	var cfgFile string

	root := &cobra.Command{
		Use:   "advisorctl",
		Short: "Operate the query advisor from the command line",
		Long: `advisorctl works directly against the advisor's database and model file.
It reads the same configuration as the API server: CONFIG_FILE (or --config)
followed by environment variables such as DATABASE_URL and MODEL_PATH.`,
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "YAML config file (default: $CONFIG_FILE)")

	load := func(cmd *cobra.Command) (config.Config, *slog.Logger, error) {
		var (
			cfg config.Config
			err error
		)
		if cfgFile != "" {
			cfg, err = config.Load(cfgFile)
		} else {
			cfg, err = config.FromEnv()
		}
		if err != nil {
			return cfg, nil, fmt.Errorf("load config: %w", err)
		}
		return cfg, observability.NewLoggerTo(cmd.ErrOrStderr(), cfg.LogLevel, cfg.LogFormat), nil
	}

	root.AddCommand(
		newImportCmd(load),
		newSeedCmd(load),
		newRetrainCmd(load),
		newSuggestCmd(load),
		newTokenCmd(load),
	)
	return root
}

type loader func(cmd *cobra.Command) (config.Config, *slog.Logger, error)

// store is an open database with the query_logs table migrated.
type store struct {
	db   *db.DB
	repo *querylog.Repository
}

func openStore(ctx context.Context, cfg config.Config, log *slog.Logger) (*store, error) {
	dbx, err := db.New(cfg, log)
	if err != nil {
		return nil, err
	}
	repo := querylog.NewRepository(dbx.Gorm)
	if err := repo.Migrate(ctx); err != nil {
		_ = dbx.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &store{db: dbx, repo: repo}, nil
}

func (s *store) close(log *slog.Logger) {
	if err := s.db.Close(); err != nil {
		log.Error("database close error", "err", err)
	}
}
