package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"query-advisor/internal/querylog"
)

func newImportCmd(load loader) *cobra.Command {
	var showErrors bool

	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Import a query log file",
		Long: `Parse a .log or .txt file and store every valid line.

Each line has the form
  exec_time=<seconds>;records=<n>;indexes=<text>;columns=<a,b>;sql=<query>
Blank lines and lines starting with '#' are ignored; malformed lines are
skipped and counted.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := load(cmd)
			if err != nil {
				return err
			}
			path := args[0]
			switch strings.ToLower(filepath.Ext(path)) {
			case ".log", ".txt":
			default:
				return fmt.Errorf("unsupported file type %q (want .log or .txt)", filepath.Ext(path))
			}
			f, err := os.Open(path)
			if err != nil {
				return fmt.Errorf("open %s: %w", path, err)
			}
			defer f.Close()

			ctx := cmd.Context()
			var (
				entries []querylog.QueryLog
				skipped []string
			)
			err = querylog.ParseStream(ctx, f,
				func(q querylog.QueryLog) error {
					entries = append(entries, q)
					return nil
				},
				func(err error) { skipped = append(skipped, err.Error()) },
			)
			if err != nil {
				return fmt.Errorf("parse %s: %w", path, err)
			}

			s, err := openStore(ctx, cfg, log)
			if err != nil {
				return err
			}
			defer s.close(log)

			if err := s.repo.InsertBatch(ctx, entries); err != nil {
				return fmt.Errorf("insert: %w", err)
			}
			log.Info("import complete", "file", path, "inserted", len(entries), "skipped", len(skipped))

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "inserted %d, skipped %d\n", len(entries), len(skipped))
			if showErrors {
				for _, e := range skipped {
					fmt.Fprintln(out, "  "+e)
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&showErrors, "errors", false, "print the reason each skipped line was rejected")
	return cmd
}

func newSeedCmd(load loader) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Insert sample query logs into an empty database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := load(cmd)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			s, err := openStore(ctx, cfg, log)
			if err != nil {
				return err
			}
			defer s.close(log)

			n, err := s.db.SeedIfEmpty(ctx, &querylog.QueryLog{}, querylog.SampleLogs())
			if err != nil {
				return err
			}
			if n == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "query_logs already has data, nothing seeded")
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "seeded %d query logs\n", n)
			return nil
		},
	}
}
