package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/resale-cli/internal/model"
	"github.com/sells-group/resale-cli/internal/pipeline"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Inspect and correct usage statuses",
}

var statusSetCmd = &cobra.Command{
	Use:   "set <id> <status>",
	Short: "Overwrite the status of one product",
	Long:  "Sets the status of one product in the annotated dataset. Valid statuses: " + statusNames() + ".",
	Args:  cobra.ExactArgs(2),
	RunE: func(_ *cobra.Command, args []string) error {
		if err := cfg.Validate("vault"); err != nil {
			return err
		}
		id, err := strconv.Atoi(args[0])
		if err != nil {
			return eris.Errorf("invalid id %q", args[0])
		}
		status, err := model.ParseStatus(args[1])
		if err != nil {
			return err
		}

		v, err := openVault()
		if err != nil {
			return err
		}
		if err := pipeline.UpdateStatus(v, cfg.Vault.Path(cfg.Vault.Files.Usage), id, status); err != nil {
			return err
		}
		fmt.Fprintf(os.Stdout, "product %d: %s\n", id, status)
		return nil
	},
}

var statusCountsCmd = &cobra.Command{
	Use:   "counts",
	Short: "Count products per status",
	RunE: func(_ *cobra.Command, _ []string) error {
		if err := cfg.Validate("vault"); err != nil {
			return err
		}
		v, err := openVault()
		if err != nil {
			return err
		}
		var ds model.MasterDataset
		if err := v.Load(cfg.Vault.Path(cfg.Vault.Files.Usage), &ds); err != nil {
			return err
		}

		counts := make(map[string]int)
		for _, rec := range ds.Products {
			counts[string(rec.Status)]++
		}
		for _, st := range model.AllStatuses() {
			fmt.Fprintf(os.Stdout, "%-18s %d\n", st, counts[string(st)])
		}
		return nil
	},
}

func statusNames() string {
	names := make([]string, 0, len(model.AllStatuses()))
	for _, s := range model.AllStatuses() {
		names = append(names, string(s))
	}
	return strings.Join(names, ", ")
}

func init() {
	statusCmd.AddCommand(statusSetCmd)
	statusCmd.AddCommand(statusCountsCmd)
	rootCmd.AddCommand(statusCmd)
}
