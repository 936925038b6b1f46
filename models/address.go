package models

// Coordinates is a WGS84 position reported by the device.
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Place is a single reverse-geocoding result.
type Place struct {
	Country   string `json:"country"`
	Region    string `json:"region"`
	Subregion string `json:"subregion"`
	City      string `json:"city"`
}

// ResolvedAddress is the address a session resolves once and then reads.
// Region holds whatever the geocoder returned: a full name or an
// abbreviation.
type ResolvedAddress struct {
	Country   string  `json:"country"`
	Region    string  `json:"region"`
	County    string  `json:"county"`
	City      string  `json:"city"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Coordinates returns the position the address was resolved from.
func (a ResolvedAddress) Coordinates() Coordinates {
	return Coordinates{Latitude: a.Latitude, Longitude: a.Longitude}
}
