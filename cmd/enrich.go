package main

import (
	"github.com/spf13/cobra"

	"github.com/sells-group/resale-cli/internal/enrich"
	"github.com/sells-group/resale-cli/internal/pipeline"
)

var (
	enrichStages []string
	enrichNoLog  bool
)

var enrichCmd = &cobra.Command{
	Use:   "enrich",
	Short: "Build the valuation, context and calendar side-datasets",
	Long:  "Values each product, generates product contexts, and matches calendar events against them. Run after classify and before aggregate.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := cfg.Validate("enrich"); err != nil {
			return err
		}
		env, err := enrichEnv()
		if err != nil {
			return err
		}
		stages, err := pipeline.SelectStages(enrich.Stages(env), enrichStages)
		if err != nil {
			return err
		}
		return runStagesWithLedger(cmd, stages, enrichNoLog)
	},
}

func init() {
	enrichCmd.Flags().StringSliceVar(&enrichStages, "stages", nil, "comma-separated stages to run (value,context,calendar)")
	enrichCmd.Flags().BoolVar(&enrichNoLog, "no-ledger", false, "do not record the run in the ledger")
	rootCmd.AddCommand(enrichCmd)
}
