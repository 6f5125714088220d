package main

import (
	"encoding/json"
	"os"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/attribution-cli/internal/metrics"
	"github.com/sells-group/attribution-cli/internal/model"
	"github.com/sells-group/attribution-cli/internal/report"
	"github.com/sells-group/attribution-cli/internal/store"
)

var (
	metricsSource string
	metricsFrom   string
	metricsTo     string
	metricsXLSX   string
)

var metricsCmd = &cobra.Command{
	Use:   "metrics",
	Short: "Report funnel and ROI metrics over reconciled leads",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		filter := store.LeadFilter{Source: model.LeadSource(metricsSource)}
		if filter.From, err = parseDateFlag(metricsFrom); err != nil {
			return err
		}
		if filter.To, err = parseDateFlag(metricsTo); err != nil {
			return err
		}

		leads, err := st.ListMasterLeads(ctx, filter)
		if err != nil {
			return eris.Wrap(err, "list master leads")
		}

		overall := metrics.Calculate(leads)
		bySource := metrics.CalculateBySource(leads)

		if metricsXLSX != "" {
			if err := report.WriteXLSX(metricsXLSX, overall, bySource); err != nil {
				return eris.Wrap(err, "write xlsx report")
			}
			zap.L().Info("report written",
				zap.String("path", metricsXLSX),
				zap.Int("leads", overall.TotalLeads),
			)
			return nil
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(struct {
			Overall  model.LeadMetrics     `json:"overall"`
			BySource []model.SourceMetrics `json:"by_source"`
		}{overall, bySource})
	},
}

// parseDateFlag accepts either a bare date or a full RFC 3339 timestamp.
func parseDateFlag(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, eris.Errorf("invalid date %q (want YYYY-MM-DD or RFC 3339)", s)
	}
	return t, nil
}

func init() {
	metricsCmd.Flags().StringVar(&metricsSource, "source", "", "filter by primary source")
	metricsCmd.Flags().StringVar(&metricsFrom, "from", "", "only leads created on or after this date")
	metricsCmd.Flags().StringVar(&metricsTo, "to", "", "only leads created on or before this date")
	metricsCmd.Flags().StringVar(&metricsXLSX, "xlsx", "", "write an XLSX report to this path instead of printing JSON")
	rootCmd.AddCommand(metricsCmd)
}
