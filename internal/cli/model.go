package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"query-advisor/internal/auth"
	"query-advisor/internal/events"
	"query-advisor/internal/predictor"
	"query-advisor/internal/schema"
)

func newRetrainCmd(load loader) *cobra.Command {
	return &cobra.Command{
		Use:   "retrain",
		Short: "Train the model on every stored log and write the model file",
		Long: `Fit the execution-time model on all stored query logs and replace the
model file at MODEL_PATH. A running server keeps its cached model until its
own retrain policy or POST /api/model/retrain replaces it.`,
		Args: cobra.NoArgs,
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

			m, err := predictor.NewOLSTrainer(s.repo).Train(ctx)
			if err != nil {
				return err
			}
			if err := predictor.NewFileStore(cfg.ModelPath).Save(ctx, m); err != nil {
				return err
			}

			emitter := events.Open(cfg.NatsURL, cfg.EventsPrefix, log)
			emitter.Emit(ctx, events.TypeModelRetrained, m)
			if err := emitter.Close(); err != nil {
				log.Error("events close error", "err", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "model %s written to %s\n", m.Version, cfg.ModelPath)
			fmt.Fprintf(out, "samples %d  degenerate %t\n", m.SampleCount, m.Degenerate)
			fmt.Fprintf(out, "intercept %.6g  records %.6g  indexes %.6g\n",
				m.Intercept, m.Coefficients[0], m.Coefficients[1])
			if d := m.Diagnostics; d != nil {
				fmt.Fprintf(out, "holdout %d  mse %.6g\n", d.HoldoutSize, d.MSE)
			}
			return nil
		},
	}
}

func newSuggestCmd(load loader) *cobra.Command {
	var counts bool

	cmd := &cobra.Command{
		Use:   "suggest",
		Short: "Print index suggestions for every accessed column",
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

			a := schema.NewAnalyzer(s.repo)
			out := cmd.OutOrStdout()
			if counts {
				stats, err := a.Columns(ctx)
				if err != nil {
					return err
				}
				for _, st := range stats {
					fmt.Fprintf(out, "%-32s %d\n", st.Column, st.Count)
				}
				return nil
			}
			suggestions, err := a.Suggest(ctx)
			if err != nil {
				return err
			}
			for _, line := range suggestions {
				fmt.Fprintln(out, line)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&counts, "counts", false, "print per-column usage counts instead of suggestions")
	return cmd
}

func newTokenCmd(load loader) *cobra.Command {
	var (
		subject string
		role    string
		ttl     time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a bearer token for the model admin routes",
		Long: `Sign an HS256 token with JWT_SECRET. The server only serves
/api/model/ routes when JWT_SECRET is set, and only to role "admin".`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, _, err := load(cmd)
			if err != nil {
				return err
			}
			svc := auth.NewService(cfg)
			tok, exp, err := svc.GenerateToken(subject, role, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), tok)
			fmt.Fprintf(cmd.ErrOrStderr(), "expires %s\n", exp.Format(time.RFC3339))
			return nil
		},
	}
	cmd.Flags().StringVar(&subject, "subject", "advisorctl", "token subject")
	cmd.Flags().StringVar(&role, "role", auth.RoleAdmin, "role claim")
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "token lifetime (default: JWT_TTL)")
	return cmd
}
