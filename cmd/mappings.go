package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/attribution-cli/internal/mappings"
)

var mappingsFile string

var mappingsCmd = &cobra.Command{
	Use:   "mappings",
	Short: "Manage the source mapping reference table",
}

var mappingsImportCmd = &cobra.Command{
	Use:   "import",
	Short: "Import source mappings from a YAML file",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		f, err := mappings.Load(mappingsFile)
		if err != nil {
			return eris.Wrap(err, "load mappings file")
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		if err := st.Migrate(ctx); err != nil {
			return eris.Wrap(err, "migrate store")
		}

		n, err := mappings.Import(ctx, st, f)
		if err != nil {
			return eris.Wrap(err, "import mappings")
		}

		zap.L().Info("mappings imported",
			zap.Int("count", n),
			zap.String("file", mappingsFile),
		)
		return nil
	},
}

var mappingsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored source mappings",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		all, err := st.ListSourceMappings(ctx, false)
		if err != nil {
			return eris.Wrap(err, "list mappings")
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(all)
	},
}

func init() {
	mappingsImportCmd.Flags().StringVar(&mappingsFile, "file", "", "path to mappings YAML file (required)")
	_ = mappingsImportCmd.MarkFlagRequired("file")
	mappingsCmd.AddCommand(mappingsImportCmd, mappingsListCmd)
	rootCmd.AddCommand(mappingsCmd)
}
