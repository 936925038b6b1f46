package cli

import (
	"github.com/spf13/cobra"

	"tree-tracker/models"
)

// formFlags are the add-tree form fields shared by benefits and submit.
type formFlags struct {
	species   string
	dbh       string
	condition string
	cle       string

	lat float64
	lon float64

	country string
	region  string
	county  string
	city    string
}

func (f *formFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.species, "species", "", "Species ID from the reference list")
	cmd.Flags().StringVar(&f.dbh, "dbh", "", "Diameter at breast height, in inches")
	cmd.Flags().StringVar(&f.condition, "condition", "", "Tree condition category (e.g. Good)")
	cmd.Flags().StringVar(&f.cle, "cle", "", "Crown light exposure category")
	cmd.Flags().Float64Var(&f.lat, "lat", 0, "Tree latitude (defaults to DEVICE_LATITUDE)")
	cmd.Flags().Float64Var(&f.lon, "lon", 0, "Tree longitude (defaults to DEVICE_LONGITUDE)")
	cmd.Flags().StringVar(&f.country, "country", "", "Country; skips reverse geocoding when any address flag is set")
	cmd.Flags().StringVar(&f.region, "region", "", "State or province, name or abbreviation")
	cmd.Flags().StringVar(&f.county, "county", "", "County")
	cmd.Flags().StringVar(&f.city, "city", "", "City")
}

func (f *formFlags) form() models.TreeForm {
	return models.TreeForm{
		SpeciesID:          f.species,
		DBH:                f.dbh,
		Condition:          f.condition,
		CrownLightExposure: f.cle,
	}
}

// explicitAddress returns the address given by flags, or nil.
func (f *formFlags) explicitAddress() *models.ResolvedAddress {
	if f.country == "" && f.region == "" && f.county == "" && f.city == "" {
		return nil
	}
	return &models.ResolvedAddress{
		Country:   f.country,
		Region:    f.region,
		County:    f.county,
		City:      f.city,
		Latitude:  f.lat,
		Longitude: f.lon,
	}
}
