package benefits

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/shopspring/decimal"

	"tree-tracker/models"
)

// ErrMalformedResponse means the API answered with something that is not
// a benefits document.
var ErrMalformedResponse = errors.New("malformed benefits response")

// CubicMetersToGallons converts m³ to US gallons.
var CubicMetersToGallons = decimal.RequireFromString("264.172052")

// benefitPath is where the benefit groups live, below the Result root.
var benefitPath = []string{"OutputInformation", "Benefit"}

// descriptor says where one benefit lives below Benefit and how to
// present it. An empty unit keeps the document's Unit attribute.
type descriptor struct {
	name    string
	path    string
	unit    string
	convert func(decimal.Decimal) decimal.Decimal
}

var descriptors = []descriptor{
	{name: models.BenefitCO2SequesteredValue, path: "CO2Benefits.CO2SequesteredValue"},
	{name: models.BenefitCO2Sequestered, path: "CO2Benefits.CO2Sequestered", unit: "lbs"},
	{name: models.BenefitRunoffAvoidedValue, path: "HydroBenefit.RunoffAvoidedValue"},
	{name: models.BenefitRunoffAvoided, path: "HydroBenefit.RunoffAvoided", unit: "gal", convert: toGallons},
	{name: models.BenefitCORemovedValue, path: "AirQualityBenefit.CORemovedValue"},
	{name: models.BenefitCORemoved, path: "AirQualityBenefit.CORemoved"},
	{name: models.BenefitNO2Removed, path: "AirQualityBenefit.NO2Removed"},
	{name: models.BenefitNO2RemovedValue, path: "AirQualityBenefit.NO2RemovedValue"},
	{name: models.BenefitSO2Removed, path: "AirQualityBenefit.SO2Removed"},
	{name: models.BenefitSO2RemovedValue, path: "AirQualityBenefit.SO2RemovedValue"},
	{name: models.BenefitO3Removed, path: "AirQualityBenefit.O3Removed"},
	{name: models.BenefitO3RemovedValue, path: "AirQualityBenefit.O3RemovedValue"},
	{name: models.BenefitPM25Removed, path: "AirQualityBenefit.PM25Removed"},
	{name: models.BenefitPM25RemovedValue, path: "AirQualityBenefit.PM25RemovedValue"},
	{name: models.BenefitCarbonStorage, path: "CO2Benefits.CarbonStorage"},
	{name: models.BenefitCarbonDioxideStorage, path: "CO2Benefits.CarbonDioxideStorage"},
	{name: models.BenefitCarbonDioxideStorageValue, path: "CO2Benefits.CarbonDioxideStorageValue"},
	{name: models.BenefitDryWeight, path: "CO2Benefits.DryWeight"},
	{name: models.BenefitInterception, path: "HydroBenefit.Interception"},
	{name: models.BenefitPotentialEvaporation, path: "HydroBenefit.PotentialEvaporation"},
	{name: models.BenefitPotentialEvapotranspiration, path: "HydroBenefit.PotentialEvapotranspiration"},
	{name: models.BenefitEvaporation, path: "HydroBenefit.Evaporation"},
	{name: models.BenefitTranspiration, path: "HydroBenefit.Transpiration"},
}

func toGallons(cubicMeters decimal.Decimal) decimal.Decimal {
	return cubicMeters.Mul(CubicMetersToGallons)
}

// node is a generic XML element.
type node struct {
	XMLName  xml.Name
	Attrs    []xml.Attr `xml:",any,attr"`
	Text     string     `xml:",chardata"`
	Children []node     `xml:",any"`
}

func (n *node) child(name string) *node {
	for i := range n.Children {
		if n.Children[i].XMLName.Local == name {
			return &n.Children[i]
		}
	}
	return nil
}

func (n *node) find(path []string) *node {
	cur := n
	for _, name := range path {
		if cur = cur.child(name); cur == nil {
			return nil
		}
	}
	return cur
}

func (n *node) attr(name string) string {
	for _, a := range n.Attrs {
		if strings.EqualFold(a.Name.Local, name) {
			return strings.TrimSpace(a.Value)
		}
	}
	return ""
}

// Parse decodes a benefits document. Benefits absent from the document, or
// whose value is not a number, are left out of the record.
func Parse(raw []byte) (*models.BenefitRecord, error) {
	dec := xml.NewDecoder(bytes.NewReader(raw))
	dec.CharsetReader = func(label string, input io.Reader) (io.Reader, error) {
		return input, nil
	}

	var root node
	if err := dec.Decode(&root); err != nil {
		return nil, fmt.Errorf("benefits: decode xml: %v: %w", err, ErrMalformedResponse)
	}
	if root.XMLName.Local != "Result" {
		return nil, fmt.Errorf("benefits: root element is %q, want Result: %w", root.XMLName.Local, ErrMalformedResponse)
	}

	benefit := root.find(benefitPath)
	if benefit == nil {
		return nil, fmt.Errorf("benefits: Result.%s not found: %w", strings.Join(benefitPath, "."), ErrMalformedResponse)
	}

	record := models.NewBenefitRecord()
	for _, d := range descriptors {
		leaf := benefit.find(strings.Split(d.path, "."))
		if leaf == nil {
			continue
		}
		amount, err := decimal.NewFromString(strings.TrimSpace(leaf.Text))
		if err != nil {
			continue
		}
		if d.convert != nil {
			amount = d.convert(amount)
		}
		unit := d.unit
		if unit == "" {
			unit = leaf.attr("Unit")
		}
		record.Add(models.BenefitValue{
			Name:    d.name,
			Amount:  amount,
			Unit:    unit,
			Display: FormatAmount(amount, unit),
		})
	}
	return record, nil
}

// FormatAmount renders amount with two decimals. Currency symbols are
// prefixed ("$12.30"); any other unit is suffixed after a space.
func FormatAmount(amount decimal.Decimal, unit string) string {
	number := amount.StringFixed(2)
	switch {
	case unit == "":
		return number
	case isCurrency(unit):
		return unit + number
	default:
		return number + " " + unit
	}
}

func isCurrency(unit string) bool {
	switch unit {
	case "$", "€", "£", "¥":
		return true
	}
	return false
}
