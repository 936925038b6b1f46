// Package benefits talks to the i-Tree benefits API: it builds requests
// from a tree form and a resolved address, calls the API and parses the
// XML it returns.
package benefits

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"tree-tracker/location"
	"tree-tracker/models"
)

var (
	// ErrMissingField means a required form or address field is empty.
	ErrMissingField = errors.New("required field is missing")
	// ErrAddressUnresolved means the session address is not resolved yet.
	ErrAddressUnresolved = errors.New("address is not resolved yet")
	// ErrUnresolvedRegion means a full region name has no two-letter code.
	ErrUnresolvedRegion = errors.New("region cannot be abbreviated")
)

// unusedDimension fills the height/width parameters the API accepts but
// this client never measures.
const unusedDimension = "-1"

// Build combines form attributes and the session address into a request.
// It fails without side effects when anything is missing or the region
// cannot be normalised.
func Build(form models.TreeForm, address *models.ResolvedAddress) (models.BenefitsRequest, error) {
	if address == nil {
		return models.BenefitsRequest{}, ErrAddressUnresolved
	}

	var speciesCode string
	if form.Species != nil {
		speciesCode = strings.TrimSpace(form.Species.ITreeCode)
	}

	req := models.BenefitsRequest{
		SpeciesCode:        speciesCode,
		DBH:                strings.TrimSpace(form.DBH),
		Condition:          strings.TrimSpace(form.Condition),
		CrownLightExposure: strings.TrimSpace(form.CrownLightExposure),
		NationFullName:     strings.TrimSpace(address.Country),
		CountyName:         strings.TrimSpace(address.County),
		CityName:           strings.TrimSpace(address.City),
	}

	required := []struct {
		name  string
		value string
	}{
		{"species", req.SpeciesCode},
		{"dbh", req.DBH},
		{"condition", req.Condition},
		{"crown light exposure", req.CrownLightExposure},
		{"country", req.NationFullName},
		{"region", strings.TrimSpace(address.Region)},
		{"county", req.CountyName},
		{"city", req.CityName},
	}
	for _, f := range required {
		if f.value == "" {
			return models.BenefitsRequest{}, fmt.Errorf("benefits: %s: %w", f.name, ErrMissingField)
		}
	}

	state, err := NormalizeRegion(address.Region)
	if err != nil {
		return models.BenefitsRequest{}, err
	}
	req.StateAbbr = state

	return req, nil
}

// NormalizeRegion returns the two-letter code for region. Values of two
// characters or fewer are taken to be codes already.
func NormalizeRegion(region string) (string, error) {
	region = strings.TrimSpace(region)
	if len([]rune(region)) <= 2 {
		return strings.ToUpper(region), nil
	}
	code, ok := location.RegionCode(region)
	if !ok {
		return "", fmt.Errorf("benefits: %q: %w", region, ErrUnresolvedRegion)
	}
	return code, nil
}

// Query encodes req as the API's query parameters.
func Query(req models.BenefitsRequest, key string) url.Values {
	q := url.Values{}
	q.Set("key", key)
	q.Set("NationFullName", req.NationFullName)
	q.Set("StateAbbr", req.StateAbbr)
	q.Set("CountyName", req.CountyName)
	q.Set("CityName", req.CityName)
	q.Set("Species", req.SpeciesCode)
	q.Set("DBHInch", req.DBH)
	q.Set("condition", req.Condition)
	q.Set("CLE", req.CrownLightExposure)
	q.Set("TreeHeightMeter", unusedDimension)
	q.Set("TreeCrownWidthMeter", unusedDimension)
	q.Set("TreeCrownHeightMeter", unusedDimension)
	return q
}
