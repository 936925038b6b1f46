package models

// Species is one entry of the species reference dataset. The JSON tags
// match the field names of the bundled dataset.
type Species struct {
	ID         string `json:"ID"`
	Common     string `json:"COMMON"`
	Scientific string `json:"SCIENTIFIC"`
	Genus      string `json:"GENUS"`
	ITreeCode  string `json:"ITREECODE"`
}

// Label returns "Common (Scientific)" for display.
func (s Species) Label() string {
	if s.Scientific == "" {
		return s.Common
	}
	return s.Common + " (" + s.Scientific + ")"
}
