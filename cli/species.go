package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"tree-tracker/models"
)

var (
	speciesBrowse bool
	speciesAll    bool
	speciesCode   string
)

var speciesCmd = &cobra.Command{
	Use:   "species [query]",
	Short: "Search the species reference list",
	Long: "Search the species reference list by common or scientific name. " +
		"Queries shorter than 3 characters list every species.",
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		query := strings.Join(args, " ")

		if speciesCode != "" {
			sp, ok := a.catalog.LookupByCode(speciesCode)
			if !ok {
				return fmt.Errorf("no species with i-Tree code %q", speciesCode)
			}
			printSpecies(cmd.OutOrStdout(), []models.Species{sp})
			return nil
		}

		var records []models.Species
		switch {
		case speciesBrowse:
			records = a.catalog.Species(query)
		case speciesAll:
			records = a.catalog.SortedByCommon()
		default:
			records = a.catalog.Search(query)
		}
		printSpecies(cmd.OutOrStdout(), records)
		return nil
	},
}

var generaCmd = &cobra.Command{
	Use:   "genera [query]",
	Short: "List genus-level entries of the species list",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		printSpecies(cmd.OutOrStdout(), a.catalog.Genera(strings.Join(args, " ")))
		return nil
	},
}

var genusCmd = &cobra.Command{
	Use:   "genus <genus>",
	Short: "List the species of one genus",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		records := a.catalog.InGenus(args[0])
		if len(records) == 0 {
			return fmt.Errorf("no species found for genus %q", args[0])
		}
		printSpecies(cmd.OutOrStdout(), records)
		return nil
	},
}

func printSpecies(w io.Writer, records []models.Species) {
	fmt.Fprintln(w, "ID\tCODE\tCOMMON\tSCIENTIFIC")
	for _, r := range records {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", r.ID, r.ITreeCode, r.Common, r.Scientific)
	}
}

func init() {
	rootCmd.AddCommand(speciesCmd, generaCmd, genusCmd)
	speciesCmd.Flags().BoolVar(&speciesBrowse, "browse", false, "Only species-level entries, sorted by common name")
	speciesCmd.Flags().BoolVar(&speciesAll, "all", false, "Every entry, genera included, sorted by common name")
	speciesCmd.Flags().StringVar(&speciesCode, "code", "", "Look up one species by i-Tree code")
}
