package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/attribution-cli/internal/model"
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import source records from JSON export files",
}

var importCallsCmd = &cobra.Command{
	Use:   "calls <file>",
	Short: "Import call tracking records from a JSON array file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		var calls []model.CallRecord
		if err := decodeJSONFile(args[0], &calls); err != nil {
			return err
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		if err := st.Migrate(ctx); err != nil {
			return eris.Wrap(err, "migrate store")
		}

		n, err := st.UpsertCallRecords(ctx, calls)
		if err != nil {
			return eris.Wrap(err, "upsert call records")
		}

		zap.L().Info("call records imported",
			zap.Int("count", n),
			zap.String("file", args[0]),
		)
		return nil
	},
}

var importAdLeadsCmd = &cobra.Command{
	Use:   "adleads <file>",
	Short: "Import ad platform leads from a JSON array file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		var leads []model.AdLead
		if err := decodeJSONFile(args[0], &leads); err != nil {
			return err
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		if err := st.Migrate(ctx); err != nil {
			return eris.Wrap(err, "migrate store")
		}

		n, err := st.UpsertAdLeads(ctx, leads)
		if err != nil {
			return eris.Wrap(err, "upsert ad leads")
		}

		zap.L().Info("ad leads imported",
			zap.Int("count", n),
			zap.String("file", args[0]),
		)
		return nil
	},
}

func decodeJSONFile(path string, v any) error {
	f, err := os.Open(path)
	if err != nil {
		return eris.Wrapf(err, "open %s", path)
	}
	defer f.Close()

	if err := json.NewDecoder(f).Decode(v); err != nil {
		return eris.Wrapf(err, "decode %s", path)
	}
	return nil
}

func init() {
	importCmd.AddCommand(importCallsCmd, importAdLeadsCmd)
	rootCmd.AddCommand(importCmd)
}
