// Package cli is the tree-tracker command line.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	dbPath      string
	storeDriver string
	verbose     bool
)

var rootCmd = &cobra.Command{
	Use:   "tree-tracker",
	Short: "tree-tracker records street-tree inventory entries",
	Long: "tree-tracker records street-tree inventory entries: pick a species, " +
		"estimate the tree's ecological benefits with i-Tree and store the record.",
	SilenceUsage: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "Path to SQLite database (overrides SQLITE_PATH)")
	rootCmd.PersistentFlags().StringVar(&storeDriver, "driver", "", "Store driver: sqlite or postgres (overrides STORE_DRIVER)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
}
