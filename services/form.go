package services

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/google/uuid"
	"github.com/mmcloughlin/geohash"

	"tree-tracker/benefits"
	"tree-tracker/catalog"
	"tree-tracker/models"
	"tree-tracker/utils"
)

// ErrInvalidForm is returned when a submitted form cannot become an entry.
var ErrInvalidForm = errors.New("invalid tree form")

// GeohashPrecision is the number of geohash characters stored per tree
// (roughly a 5 m cell).
const GeohashPrecision = 9

// knownConditions are the i-Tree condition categories. Other values are
// accepted but logged.
var knownConditions = map[string]struct{}{
	"excellent": {}, "good": {}, "fair": {}, "poor": {},
	"critical": {}, "dying": {}, "dead": {},
}

// FormService turns add-tree forms into tree entries.
type FormService struct {
	catalog *catalog.Catalog
	logger  *utils.Logger
}

// NewFormService creates a FormService resolving species against cat.
func NewFormService(cat *catalog.Catalog, logger *utils.Logger) *FormService {
	return &FormService{catalog: cat, logger: logger}
}

// Normalise trims every text field, resolves the species and checks the
// fields an entry cannot do without: user, coordinates, species and, when
// given, a positive DBH.
func (s *FormService) Normalise(form models.TreeForm) (models.TreeForm, error) {
	form.UserID = strings.TrimSpace(form.UserID)
	form.Username = normaliseText(form.Username)
	form.SpeciesID = strings.TrimSpace(form.SpeciesID)
	form.DBH = strings.TrimSpace(form.DBH)
	form.TreeType = normaliseText(form.TreeType)
	form.LandUseCategory = normaliseText(form.LandUseCategory)
	form.Condition = normaliseText(form.Condition)
	form.CrownLightExposure = normaliseText(form.CrownLightExposure)
	form.LocationType = normaliseText(form.LocationType)
	form.Notes = strings.TrimSpace(form.Notes)
	form.Level = normaliseText(form.Level)

	if form.UserID == "" {
		return form, fmt.Errorf("form: user id is required: %w", ErrInvalidForm)
	}
	if form.Coords == nil {
		return form, fmt.Errorf("form: coordinates are required: %w", ErrInvalidForm)
	}
	if !validCoordinates(*form.Coords) {
		return form, fmt.Errorf("form: coordinates (%.6f, %.6f) out of range: %w",
			form.Coords.Latitude, form.Coords.Longitude, ErrInvalidForm)
	}

	if form.Species == nil {
		if form.SpeciesID == "" {
			return form, fmt.Errorf("form: species is required: %w", ErrInvalidForm)
		}
		sp, ok := s.catalog.LookupByID(form.SpeciesID)
		if !ok {
			return form, fmt.Errorf("form: unknown species %q: %w", form.SpeciesID, ErrInvalidForm)
		}
		form.Species = &sp
	}
	form.SpeciesID = form.Species.ID

	if form.DBH != "" {
		dbh, err := strconv.ParseFloat(form.DBH, 64)
		if err != nil || dbh <= 0 {
			return form, fmt.Errorf("form: dbh %q is not a positive number: %w", form.DBH, ErrInvalidForm)
		}
	}

	if form.Condition != "" {
		if _, ok := knownConditions[strings.ToLower(form.Condition)]; !ok {
			s.logger.Warn("[form] Unrecognised condition category %q", form.Condition)
		}
	}
	return form, nil
}

// BuildEntry normalises form and assembles the entry to store. address
// and rec may be nil; the matching fields then stay null.
func (s *FormService) BuildEntry(form models.TreeForm, address *models.ResolvedAddress, rec *models.BenefitRecord) (*models.TreeEntry, error) {
	form, err := s.Normalise(form)
	if err != nil {
		return nil, err
	}

	coords := *form.Coords
	photo := form.Photo
	if photo.URL != "" && photo.ID == "" {
		photo.ID = uuid.NewString()
	}

	entry := &models.TreeEntry{
		UserID:   form.UserID,
		Username: form.Username,
		Photo:    photo,
		Coords:   coords,
		Geohash:  geohash.EncodeWithPrecision(coords.Latitude, coords.Longitude, GeohashPrecision),

		SpeciesID:             form.Species.ID,
		SpeciesCode:           form.Species.ITreeCode,
		SpeciesNameScientific: form.Species.Scientific,
		SpeciesNameCommon:     form.Species.Common,

		DBH:                        models.StringPtr(form.DBH),
		EstimatedDBH:               form.EstimatedDBH,
		TreeType:                   form.TreeType,
		LandUseCategory:            form.LandUseCategory,
		TreeConditionCategory:      form.Condition,
		CrownLightExposureCategory: form.CrownLightExposure,
		LocationType:               form.LocationType,
		Notes:                      models.StringPtr(form.Notes),
		IsValidated:                models.NotValidated,
		Level:                      form.Level,

		ModelName:          models.StringPtr(form.Device.ModelName),
		OSName:             models.StringPtr(form.Device.OSName),
		OSVersion:          models.StringPtr(form.Device.OSVersion),
		ApplicationVersion: models.StringPtr(form.Device.ApplicationVersion),
		BuildVersion:       models.StringPtr(form.Device.BuildVersion),
		Brand:              models.StringPtr(form.Device.Brand),
	}

	if address != nil {
		entry.NationFullName = models.StringPtr(address.Country)
		region := address.Region
		if code, err := benefits.NormalizeRegion(region); err == nil {
			region = code
		}
		entry.StateAbbr = models.StringPtr(region)
		entry.CountyName = models.StringPtr(address.County)
		entry.CityName = models.StringPtr(address.City)
	}
	entry.ApplyBenefits(rec)

	s.logger.Debug("[form] Built entry for %s at %s", entry.SpeciesCode, entry.Geohash)
	return entry, nil
}

func validCoordinates(c models.Coordinates) bool {
	return c.Latitude >= -90 && c.Latitude <= 90 && c.Longitude >= -180 && c.Longitude <= 180
}

// normaliseText strips leading/trailing whitespace and collapses internal whitespace.
func normaliseText(s string) string {
	return strings.Join(strings.FieldsFunc(s, unicode.IsSpace), " ")
}
