package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"tree-tracker/models"
	"tree-tracker/services"
	"tree-tracker/storage"
)

var (
	submitFlags        formFlags
	submitUser         string
	submitUsername     string
	submitEstimated    bool
	submitTreeType     string
	submitLandUse      string
	submitLocationType string
	submitNotes        string
	submitLevel        string
	submitPhotoURL     string
	submitWithBenefits bool
)

var submitCmd = &cobra.Command{
	Use:   "submit",
	Short: "Record a tree in the inventory",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		ctx := cmd.Context()

		form := submitFlags.form()
		form.UserID = submitUser
		form.Username = submitUsername
		form.EstimatedDBH = submitEstimated
		form.TreeType = submitTreeType
		form.LandUseCategory = submitLandUse
		form.LocationType = submitLocationType
		form.Notes = submitNotes
		form.Level = submitLevel
		form.Photo = models.TreePhoto{URL: submitPhotoURL}
		form.Device = models.DeviceInfo{ApplicationVersion: a.cfg.AppVersion, OSName: "cli"}

		coords, ok := a.deviceCoords(submitFlags.lat, submitFlags.lon)
		if ok {
			form.Coords = &coords
		}

		addr, err := resolveAddress(ctx, a, &submitFlags)
		if err != nil {
			a.logger.Warn("[submit] Recording without an address: %v", err)
			addr = nil
		}

		var rec *models.BenefitRecord
		if submitWithBenefits {
			rec, err = a.benefitsService().CalculateAt(ctx, form, addr)
			if err != nil {
				a.logger.Warn("[submit] Recording without benefits: %v", err)
			}
		}

		entry, err := a.formService().BuildEntry(form, addr, rec)
		if err != nil {
			return err
		}

		return a.withStore(func(store storage.TreeStore) error {
			var sinks []storage.TreeWriter
			if idx := a.openIndex(); idx != nil {
				sinks = append(sinks, idx)
			}
			recorder := services.NewRecorder(store, a.cfg.WriteConcurrency, a.cfg.WriteRateLimitMs, a.logger, sinks...)

			id, err := recorder.Submit(entry)
			if err != nil {
				return err
			}
			recorder.Wait()

			if failures := recorder.Failures(); len(failures) > 0 {
				return failures[0]
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Recorded tree %s (%s)\n", id, entry.SpeciesNameCommon)
			if rec != nil {
				printBenefits(cmd.OutOrStdout(), rec)
			}
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(submitCmd)
	submitFlags.register(submitCmd)
	submitCmd.Flags().StringVar(&submitUser, "user", "", "ID of the recording user")
	submitCmd.Flags().StringVar(&submitUsername, "username", "", "Display name of the recording user")
	submitCmd.Flags().BoolVar(&submitEstimated, "estimated-dbh", false, "DBH was estimated rather than measured")
	submitCmd.Flags().StringVar(&submitTreeType, "tree-type", "", "Tree type")
	submitCmd.Flags().StringVar(&submitLandUse, "land-use", "", "Land use category")
	submitCmd.Flags().StringVar(&submitLocationType, "location-type", "", "Location type")
	submitCmd.Flags().StringVar(&submitNotes, "notes", "", "Free-text notes")
	submitCmd.Flags().StringVar(&submitLevel, "level", "", "Inventory level")
	submitCmd.Flags().StringVar(&submitPhotoURL, "photo-url", "", "URL of the tree photo")
	submitCmd.Flags().BoolVar(&submitWithBenefits, "with-benefits", false, "Calculate i-Tree benefits and store them on the record")
}
