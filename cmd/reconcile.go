package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/attribution-cli/internal/recon"
)

var reconcileConcurrency int

var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Run one reconciliation pass over imported source records",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		if err := st.Migrate(ctx); err != nil {
			return eris.Wrap(err, "migrate store")
		}

		concurrency := reconcileConcurrency
		if concurrency == 0 {
			concurrency = cfg.Recon.MaxConcurrent
		}

		summary, err := recon.New(st, concurrency).Run(ctx)
		if err != nil {
			return eris.Wrap(err, "reconcile")
		}

		zap.L().Info("reconciliation complete",
			zap.Int("ad_leads", summary.AdLeads),
			zap.Int("matched", summary.Matched),
			zap.Int("unmatched", summary.Unmatched),
			zap.Int("duplicate_claims", summary.DuplicateClaims),
			zap.Int("call_leads", summary.CallLeads),
			zap.Int("saved", summary.Saved),
			zap.Duration("elapsed", summary.Elapsed),
		)
		return nil
	},
}

func init() {
	reconcileCmd.Flags().IntVar(&reconcileConcurrency, "concurrency", 0, "max parallel match workers (default from config)")
	rootCmd.AddCommand(reconcileCmd)
}
