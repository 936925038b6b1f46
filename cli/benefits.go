package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"tree-tracker/models"
)

var benefitsFlags formFlags

var benefitsCmd = &cobra.Command{
	Use:   "benefits",
	Short: "Estimate a tree's annual ecological benefits with i-Tree",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		ctx := cmd.Context()

		addr, err := resolveAddress(ctx, a, &benefitsFlags)
		if err != nil {
			return err
		}

		rec, err := a.benefitsService().CalculateAt(ctx, benefitsFlags.form(), addr)
		if err != nil {
			return err
		}
		printBenefits(cmd.OutOrStdout(), rec)
		return nil
	},
}

// resolveAddress returns the address from flags, or resolves the device
// position once.
func resolveAddress(ctx context.Context, a *app, f *formFlags) (*models.ResolvedAddress, error) {
	if addr := f.explicitAddress(); addr != nil {
		return addr, nil
	}
	coords, ok := a.deviceCoords(f.lat, f.lon)
	if !ok {
		return nil, errors.New("no address: pass --lat/--lon, set DEVICE_LATITUDE/DEVICE_LONGITUDE or give --country/--region/--county/--city")
	}
	return a.resolver(coords).Resolve(ctx)
}

func printBenefits(w io.Writer, rec *models.BenefitRecord) {
	fmt.Fprintln(w, "Annual benefits")
	fmt.Fprintf(w, "  CO2 sequestered : %s (%s)\n", orDash(rec.CO2Sequestered()), orDash(rec.CO2SequesteredValue()))
	fmt.Fprintf(w, "  Runoff avoided  : %s (%s)\n", orDash(rec.RunoffAvoided()), orDash(rec.RunoffAvoidedValue()))
	fmt.Fprintf(w, "  CO removed      : %s\n", orDash(rec.CORemovedValue()))
	fmt.Fprintln(w)
	fmt.Fprintln(w, "NAME\tVALUE")
	for _, v := range rec.Ordered() {
		fmt.Fprintf(w, "%s\t%s\n", v.Name, v.Display)
	}
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func init() {
	rootCmd.AddCommand(benefitsCmd)
	benefitsFlags.register(benefitsCmd)
}
