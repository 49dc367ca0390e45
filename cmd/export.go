package main

import (
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/resale-cli/internal/export"
	"github.com/sells-group/resale-cli/internal/model"
)

var (
	exportFormat string
	exportOut    string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the annotated dataset as xlsx or csv",
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

		switch exportFormat {
		case "xlsx":
			out := exportOut
			if out == "" {
				out = "products.xlsx"
			}
			if err := export.WriteXLSX(out, ds); err != nil {
				return err
			}
			zap.L().Info("export: wrote workbook", zap.String("path", out), zap.Int("products", len(ds.Products)))
		case "csv":
			if exportOut == "" {
				return export.WriteCSV(os.Stdout, ds)
			}
			f, err := os.Create(exportOut)
			if err != nil {
				return eris.Wrap(err, "export: create file")
			}
			defer f.Close() //nolint:errcheck
			if err := export.WriteCSV(f, ds); err != nil {
				return err
			}
			zap.L().Info("export: wrote csv", zap.String("path", exportOut), zap.Int("products", len(ds.Products)))
		default:
			return eris.Errorf("unsupported export format %q (want xlsx or csv)", exportFormat)
		}
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportFormat, "format", "xlsx", "output format: xlsx or csv")
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "", "output path (csv defaults to stdout)")
	rootCmd.AddCommand(exportCmd)
}
