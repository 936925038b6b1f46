package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"tree-tracker/models"
	"tree-tracker/services"
	"tree-tracker/storage"
)

var treesCmd = &cobra.Command{
	Use:   "trees",
	Short: "List recorded trees",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		return a.withStore(func(store storage.TreeStore) error {
			entries, err := store.FetchAll(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "ID\tSPECIES\tDBH\tCONDITION\tCITY\tCO2\tCREATED")
			for _, e := range entries {
				created := ""
				if e.CreatedAt != nil {
					created = e.CreatedAt.Local().Format(time.DateTime)
				}
				fmt.Fprintf(out, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
					e.ID, e.SpeciesCode, models.Deref(e.DBH), e.TreeConditionCategory,
					models.Deref(e.CityName), models.Deref(e.CO2Sequestered), created)
			}
			return nil
		})
	},
}

var insightsCmd = &cobra.Command{
	Use:   "insights",
	Short: "Summarise the recorded inventory",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		return a.withStore(func(store storage.TreeStore) error {
			entries, err := store.FetchAll(cmd.Context())
			if err != nil {
				return err
			}
			svc := services.NewInsightService(a.logger)
			svc.Print(cmd.OutOrStdout(), svc.Generate(entries))
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(treesCmd, insightsCmd)
}
