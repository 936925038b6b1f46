package location

import "strings"

// regionNames maps two-letter region codes to the names geocoders return.
// Coverage: US states, DC, US territories and Canadian provinces and
// territories.
var regionNames = map[string]string{
	"AL": "Alabama",
	"AK": "Alaska",
	"AZ": "Arizona",
	"AR": "Arkansas",
	"CA": "California",
	"CO": "Colorado",
	"CT": "Connecticut",
	"DE": "Delaware",
	"FL": "Florida",
	"GA": "Georgia",
	"HI": "Hawaii",
	"ID": "Idaho",
	"IL": "Illinois",
	"IN": "Indiana",
	"IA": "Iowa",
	"KS": "Kansas",
	"KY": "Kentucky",
	"LA": "Louisiana",
	"ME": "Maine",
	"MD": "Maryland",
	"MA": "Massachusetts",
	"MI": "Michigan",
	"MN": "Minnesota",
	"MS": "Mississippi",
	"MO": "Missouri",
	"MT": "Montana",
	"NE": "Nebraska",
	"NV": "Nevada",
	"NH": "New Hampshire",
	"NJ": "New Jersey",
	"NM": "New Mexico",
	"NY": "New York",
	"NC": "North Carolina",
	"ND": "North Dakota",
	"OH": "Ohio",
	"OK": "Oklahoma",
	"OR": "Oregon",
	"PA": "Pennsylvania",
	"RI": "Rhode Island",
	"SC": "South Carolina",
	"SD": "South Dakota",
	"TN": "Tennessee",
	"TX": "Texas",
	"UT": "Utah",
	"VT": "Vermont",
	"VA": "Virginia",
	"WA": "Washington",
	"WV": "West Virginia",
	"WI": "Wisconsin",
	"WY": "Wyoming",
	// Territories
	"DC": "District of Columbia",
	"AS": "American Samoa",
	"GU": "Guam",
	"MP": "Northern Mariana Islands",
	"PR": "Puerto Rico",
	"VI": "United States Virgin Islands",
	// Canada
	"AB": "Alberta",
	"BC": "British Columbia",
	"MB": "Manitoba",
	"NB": "New Brunswick",
	"NL": "Newfoundland and Labrador",
	"NS": "Nova Scotia",
	"NT": "Northwest Territories",
	"NU": "Nunavut",
	"ON": "Ontario",
	"PE": "Prince Edward Island",
	"QC": "Quebec",
	"SK": "Saskatchewan",
	"YT": "Yukon",
}

// regionAliases covers spellings geocoders use besides the canonical name.
var regionAliases = map[string]string{
	"washington, d.c.": "DC",
	"washington dc":    "DC",
	"virgin islands":   "VI",
	"québec":           "QC",
	"yukon territory":  "YT",
	"newfoundland":     "NL",
}

var regionCodes = buildRegionCodes()

func buildRegionCodes() map[string]string {
	codes := make(map[string]string, len(regionNames)+len(regionAliases))
	for code, name := range regionNames {
		codes[strings.ToLower(name)] = code
	}
	for alias, code := range regionAliases {
		codes[alias] = code
	}
	return codes
}

// RegionCode returns the two-letter code for a full region name, matching
// case-insensitively.
func RegionCode(name string) (string, bool) {
	code, ok := regionCodes[strings.ToLower(strings.TrimSpace(name))]
	return code, ok
}

// RegionName returns the full name for a two-letter code.
func RegionName(code string) (string, bool) {
	name, ok := regionNames[strings.ToUpper(strings.TrimSpace(code))]
	return name, ok
}
