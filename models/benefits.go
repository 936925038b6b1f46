package models

import (
	"github.com/shopspring/decimal"
)

// Benefit names used across the parser, the record and the stored entry.
const (
	BenefitCORemoved                   = "CORemoved"
	BenefitCORemovedValue              = "CORemovedValue"
	BenefitNO2Removed                  = "NO2Removed"
	BenefitNO2RemovedValue             = "NO2RemovedValue"
	BenefitSO2Removed                  = "SO2Removed"
	BenefitSO2RemovedValue             = "SO2RemovedValue"
	BenefitO3Removed                   = "O3Removed"
	BenefitO3RemovedValue              = "O3RemovedValue"
	BenefitPM25Removed                 = "PM25Removed"
	BenefitPM25RemovedValue            = "PM25RemovedValue"
	BenefitCO2Sequestered              = "CO2Sequestered"
	BenefitCO2SequesteredValue         = "CO2SequesteredValue"
	BenefitCarbonStorage               = "CarbonStorage"
	BenefitCarbonDioxideStorage        = "CarbonDioxideStorage"
	BenefitCarbonDioxideStorageValue   = "CarbonDioxideStorageValue"
	BenefitDryWeight                   = "DryWeight"
	BenefitRunoffAvoided               = "RunoffAvoided"
	BenefitRunoffAvoidedValue          = "RunoffAvoidedValue"
	BenefitInterception                = "Interception"
	BenefitPotentialEvaporation        = "PotentialEvaporation"
	BenefitPotentialEvapotranspiration = "PotentialEvapotranspiration"
	BenefitEvaporation                 = "Evaporation"
	BenefitTranspiration               = "Transpiration"
)

// BenefitsRequest is everything the benefits API needs for one tree.
// It is only ever built complete; see benefits.Builder.
type BenefitsRequest struct {
	SpeciesCode        string
	DBH                string
	Condition          string
	CrownLightExposure string

	NationFullName string
	StateAbbr      string
	CountyName     string
	CityName       string
}

// BenefitValue is one parsed benefit, already converted to its display unit.
type BenefitValue struct {
	Name    string          `json:"name"`
	Amount  decimal.Decimal `json:"amount"`
	Unit    string          `json:"unit"`
	Display string          `json:"display"`
}

// BenefitRecord holds the benefits found in one API response, keyed by name.
type BenefitRecord struct {
	Values map[string]BenefitValue `json:"values"`
	order  []string
}

// NewBenefitRecord returns an empty record ready for Add.
func NewBenefitRecord() *BenefitRecord {
	return &BenefitRecord{Values: make(map[string]BenefitValue)}
}

// Add stores v, keeping insertion order for Ordered.
func (r *BenefitRecord) Add(v BenefitValue) {
	if _, exists := r.Values[v.Name]; !exists {
		r.order = append(r.order, v.Name)
	}
	r.Values[v.Name] = v
}

// Get returns the named benefit.
func (r *BenefitRecord) Get(name string) (BenefitValue, bool) {
	if r == nil {
		return BenefitValue{}, false
	}
	v, ok := r.Values[name]
	return v, ok
}

// Display returns the formatted value of name, or "" when the response
// did not carry it.
func (r *BenefitRecord) Display(name string) string {
	v, _ := r.Get(name)
	return v.Display
}

// Ordered returns the benefits in the order they were added.
func (r *BenefitRecord) Ordered() []BenefitValue {
	if r == nil {
		return nil
	}
	out := make([]BenefitValue, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.Values[name])
	}
	return out
}

// Len returns the number of benefits in the record.
func (r *BenefitRecord) Len() int {
	if r == nil {
		return 0
	}
	return len(r.Values)
}

func (r *BenefitRecord) CO2Sequestered() string      { return r.Display(BenefitCO2Sequestered) }
func (r *BenefitRecord) CO2SequesteredValue() string { return r.Display(BenefitCO2SequesteredValue) }
func (r *BenefitRecord) RunoffAvoided() string       { return r.Display(BenefitRunoffAvoided) }
func (r *BenefitRecord) RunoffAvoidedValue() string  { return r.Display(BenefitRunoffAvoidedValue) }
func (r *BenefitRecord) CORemovedValue() string      { return r.Display(BenefitCORemovedValue) }
