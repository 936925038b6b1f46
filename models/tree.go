package models

import (
	"encoding/json"
	"time"
)

// ValidationStatus tracks whether a reviewer has checked an entry.
type ValidationStatus string

const (
	NotValidated ValidationStatus = "NOT_VALIDATED"
	Validated    ValidationStatus = "VALIDATED"
	Rejected     ValidationStatus = "REJECTED"
)

// TreePhoto is the metadata of the photo taken for an entry. The image
// itself lives wherever URL points.
type TreePhoto struct {
	ID     string `json:"id,omitempty"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
	URL    string `json:"url"`
}

// DeviceInfo describes the device and app build that recorded an entry.
type DeviceInfo struct {
	ModelName          string `json:"model_name"`
	OSName             string `json:"os_name"`
	OSVersion          string `json:"os_version"`
	ApplicationVersion string `json:"application_version"`
	BuildVersion       string `json:"build_version"`
	Brand              string `json:"brand"`
}

// TreeForm is the add-tree form as the user filled it in.
type TreeForm struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`

	Photo  TreePhoto    `json:"photo"`
	Coords *Coordinates `json:"coords,omitempty"`

	SpeciesID string   `json:"species_id"`
	Species   *Species `json:"-"`

	DBH                string `json:"dbh"`
	EstimatedDBH       bool   `json:"estimated_dbh"`
	TreeType           string `json:"tree_type"`
	LandUseCategory    string `json:"land_use_category"`
	Condition          string `json:"tree_condition_category"`
	CrownLightExposure string `json:"crown_light_exposure_category"`
	LocationType       string `json:"location_type"`
	Notes              string `json:"notes"`
	Level              string `json:"level"`

	Device DeviceInfo `json:"device"`
}

// TreeEntry is the record persisted for one tree. Optional values are
// pointers so that the stored record carries explicit nulls.
type TreeEntry struct {
	ID       string `json:"id"`
	UserID   string `json:"userId"`
	Username string `json:"username"`

	Photo   TreePhoto   `json:"photo"`
	Coords  Coordinates `json:"coords"`
	Geohash string      `json:"geohash"`

	SpeciesID             string `json:"speciesId"`
	SpeciesCode           string `json:"speciesCode"`
	SpeciesNameScientific string `json:"speciesNameScientific"`
	SpeciesNameCommon     string `json:"speciesNameCommon"`

	DBH                        *string          `json:"dbh"`
	EstimatedDBH               bool             `json:"estimated_dbh"`
	TreeType                   string           `json:"treeType"`
	LandUseCategory            string           `json:"landUseCategory"`
	TreeConditionCategory      string           `json:"treeConditionCategory"`
	CrownLightExposureCategory string           `json:"crownLightExposureCategory"`
	LocationType               string           `json:"locationType"`
	Notes                      *string          `json:"notes"`
	IsValidated                ValidationStatus `json:"isValidated"`
	Level                      string           `json:"level"`

	ModelName          *string `json:"modelName"`
	OSName             *string `json:"os_name"`
	OSVersion          *string `json:"os_version"`
	ApplicationVersion *string `json:"applicationVersion"`
	BuildVersion       *string `json:"BuildVersion"`
	Brand              *string `json:"brand"`

	NationFullName *string `json:"NationFullName"`
	StateAbbr      *string `json:"StateAbbr"`
	CountyName     *string `json:"CountyName"`
	CityName       *string `json:"CityName"`

	RunoffAvoided               *string `json:"RunoffAvoided"`
	RunoffAvoidedValue          *string `json:"RunoffAvoidedValue"`
	Interception                *string `json:"Interception"`
	PotentialEvaporation        *string `json:"PotentialEvaporation"`
	PotentialEvapotranspiration *string `json:"PotentialEvapotranspiration"`
	Evaporation                 *string `json:"Evaporation"`
	Transpiration               *string `json:"Transpiration"`
	CORemoved                   *string `json:"CORemoved"`
	CORemovedValue              *string `json:"CORemovedValue"`
	NO2Removed                  *string `json:"NO2Removed"`
	NO2RemovedValue             *string `json:"NO2RemovedValue"`
	SO2Removed                  *string `json:"SO2Removed"`
	SO2RemovedValue             *string `json:"SO2RemovedValue"`
	O3Removed                   *string `json:"O3Removed"`
	O3RemovedValue              *string `json:"O3RemovedValue"`
	PM25Removed                 *string `json:"PM25Removed"`
	PM25RemovedValue            *string `json:"PM25RemovedValue"`
	CO2Sequestered              *string `json:"CO2Sequestered"`
	CO2SequesteredValue         *string `json:"CO2SequesteredValue"`
	CarbonStorage               *string `json:"CarbonStorage"`
	CarbonDioxideStorage        *string `json:"CarbonDioxideStorage"`
	CarbonDioxideStorageValue   *string `json:"CarbonDioxideStorageValue"`
	DryWeight                   *string `json:"DryWeight"`

	// CreatedAt is assigned by the store, never by the client.
	CreatedAt *time.Time `json:"created_at,omitempty"`
}

func (e *TreeEntry) benefitFields() map[string]**string {
	return map[string]**string{
		BenefitRunoffAvoided:               &e.RunoffAvoided,
		BenefitRunoffAvoidedValue:          &e.RunoffAvoidedValue,
		BenefitInterception:                &e.Interception,
		BenefitPotentialEvaporation:        &e.PotentialEvaporation,
		BenefitPotentialEvapotranspiration: &e.PotentialEvapotranspiration,
		BenefitEvaporation:                 &e.Evaporation,
		BenefitTranspiration:               &e.Transpiration,
		BenefitCORemoved:                   &e.CORemoved,
		BenefitCORemovedValue:              &e.CORemovedValue,
		BenefitNO2Removed:                  &e.NO2Removed,
		BenefitNO2RemovedValue:             &e.NO2RemovedValue,
		BenefitSO2Removed:                  &e.SO2Removed,
		BenefitSO2RemovedValue:             &e.SO2RemovedValue,
		BenefitO3Removed:                   &e.O3Removed,
		BenefitO3RemovedValue:              &e.O3RemovedValue,
		BenefitPM25Removed:                 &e.PM25Removed,
		BenefitPM25RemovedValue:            &e.PM25RemovedValue,
		BenefitCO2Sequestered:              &e.CO2Sequestered,
		BenefitCO2SequesteredValue:         &e.CO2SequesteredValue,
		BenefitCarbonStorage:               &e.CarbonStorage,
		BenefitCarbonDioxideStorage:        &e.CarbonDioxideStorage,
		BenefitCarbonDioxideStorageValue:   &e.CarbonDioxideStorageValue,
		BenefitDryWeight:                   &e.DryWeight,
	}
}

// ApplyBenefits copies the display values of rec onto the entry. Benefits
// missing from rec leave their field untouched.
func (e *TreeEntry) ApplyBenefits(rec *BenefitRecord) {
	if rec == nil {
		return
	}
	for name, field := range e.benefitFields() {
		v, ok := rec.Get(name)
		if !ok {
			continue
		}
		display := v.Display
		*field = &display
	}
}

// BenefitDisplay returns the stored display value of a benefit, or "".
func (e *TreeEntry) BenefitDisplay(name string) string {
	field, ok := e.benefitFields()[name]
	if !ok || *field == nil {
		return ""
	}
	return **field
}

// Record flattens the entry into the key/value map handed to the store.
func (e *TreeEntry) Record() (map[string]any, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return nil, err
	}
	record := make(map[string]any)
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, err
	}
	return record, nil
}

// StringPtr returns nil for an empty string, otherwise a pointer to s.
func StringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// Deref returns the pointed-to string or "".
func Deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
