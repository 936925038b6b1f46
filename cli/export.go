package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"tree-tracker/storage"
)

var exportOut string

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the inventory to a file",
}

var exportCSVCmd = &cobra.Command{
	Use:   "csv",
	Short: "Export the inventory as CSV",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		path := exportOut
		if path == "" {
			path = a.cfg.CSVOutputPath
		}
		return runExport(cmd, a, path, func() (storage.TreeExporter, error) {
			return storage.NewCSVWriter(path)
		})
	},
}

var exportShapefileCmd = &cobra.Command{
	Use:     "shp",
	Aliases: []string{"shapefile"},
	Short:   "Export the inventory as a point shapefile",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		path := exportOut
		if path == "" {
			path = a.cfg.ShapefileOutputPath
		}
		return runExport(cmd, a, path, func() (storage.TreeExporter, error) {
			return storage.NewShapefileWriter(path)
		})
	},
}

func runExport(cmd *cobra.Command, a *app, path string, open func() (storage.TreeExporter, error)) error {
	return a.withStore(func(store storage.TreeStore) error {
		entries, err := store.FetchAll(cmd.Context())
		if err != nil {
			return err
		}
		exporter, err := open()
		if err != nil {
			return err
		}
		if err := exporter.Export(entries); err != nil {
			_ = exporter.Close()
			return err
		}
		if err := exporter.Close(); err != nil {
			return err
		}
		a.logger.Info("[export] Wrote %d trees to %s", len(entries), path)
		fmt.Fprintf(cmd.OutOrStdout(), "Exported %d trees to %s\n", len(entries), path)
		return nil
	})
}

func init() {
	rootCmd.AddCommand(exportCmd)
	exportCmd.AddCommand(exportCSVCmd, exportShapefileCmd)
	exportCmd.PersistentFlags().StringVarP(&exportOut, "out", "o", "", "Output path (defaults to CSV_OUTPUT_PATH / SHAPEFILE_OUTPUT_PATH)")
}
