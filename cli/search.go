package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"tree-tracker/storage"
)

var (
	searchLimit   int64
	searchReindex bool
)

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Full-text search over recorded trees (requires MEILI_URL)",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		idx := a.openIndex()
		if idx == nil {
			return errors.New("search is not configured: set MEILI_URL")
		}

		if searchReindex {
			err := a.withStore(func(store storage.TreeStore) error {
				entries, err := store.FetchAll(cmd.Context())
				if err != nil {
					return err
				}
				for _, e := range entries {
					if err := idx.Add(cmd.Context(), e); err != nil {
						return err
					}
				}
				a.logger.Info("[search] Queued %d trees for indexing", len(entries))
				return nil
			})
			if err != nil {
				return err
			}
		}

		docs, err := idx.Search(cmd.Context(), strings.Join(args, " "), searchLimit)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintln(out, "ID\tSPECIES\tCOMMON\tCITY\tGEOHASH")
		for _, d := range docs {
			fmt.Fprintf(out, "%s\t%s\t%s\t%s\t%s\n", d.ID, d.SpeciesCode, d.Common, d.City, d.Geohash)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(searchCmd)
	searchCmd.Flags().Int64Var(&searchLimit, "limit", 50, "Maximum number of results")
	searchCmd.Flags().BoolVar(&searchReindex, "reindex", false, "Re-send every stored tree to the index before searching")
}
