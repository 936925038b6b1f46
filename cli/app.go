package cli

import (
	"fmt"
	"strings"
	"time"

	"tree-tracker/benefits"
	"tree-tracker/catalog"
	"tree-tracker/config"
	"tree-tracker/location"
	"tree-tracker/models"
	"tree-tracker/services"
	"tree-tracker/storage"
	"tree-tracker/utils"
)

// app bundles what every command needs.
type app struct {
	cfg     *config.Config
	logger  *utils.Logger
	catalog *catalog.Catalog
}

func newApp() (*app, error) {
	cfg := config.Load()
	if dbPath != "" {
		cfg.SQLitePath = dbPath
	}
	if storeDriver != "" {
		cfg.StoreDriver = strings.ToLower(storeDriver)
	}

	logger := utils.NewLogger()
	logger.SetVerbose(verbose || cfg.Verbose)

	var (
		cat *catalog.Catalog
		err error
	)
	if cfg.SpeciesDataPath != "" {
		cat, err = catalog.Load(cfg.SpeciesDataPath)
	} else {
		cat, err = catalog.Default()
	}
	if err != nil {
		return nil, err
	}
	logger.Debug("[cli] Loaded %d species", cat.Len())

	return &app{cfg: cfg, logger: logger, catalog: cat}, nil
}

func (a *app) openStore() (*storage.SQLStore, error) {
	switch a.cfg.StoreDriver {
	case "", "sqlite":
		a.logger.Debug("[cli] Using SQLite store at %s", a.cfg.SQLitePath)
		return storage.NewSQLiteStore(a.cfg.SQLitePath)
	case "postgres":
		a.logger.Debug("[cli] Using PostgreSQL store at %s:%s", a.cfg.PostgresHost, a.cfg.PostgresPort)
		return storage.NewPostgresStore(a.cfg.DSN())
	default:
		return nil, fmt.Errorf("unknown store driver %q (expected sqlite or postgres)", a.cfg.StoreDriver)
	}
}

func (a *app) withStore(run func(storage.TreeStore) error) error {
	store, err := a.openStore()
	if err != nil {
		return err
	}
	defer store.Close()
	return run(store)
}

// openIndex returns nil when no Meilisearch server is configured.
func (a *app) openIndex() storage.SearchIndex {
	if a.cfg.MeiliURL == "" {
		return nil
	}
	return storage.NewMeiliIndex(a.cfg.MeiliURL, a.cfg.MeiliKey)
}

func (a *app) benefitsClient() *benefits.Client {
	return benefits.NewClient(a.cfg.ITreeAPIURL, a.cfg.ITreeKey,
		time.Duration(a.cfg.HTTPTimeoutSeconds)*time.Second, a.cfg.MaxRetries, a.logger)
}

func (a *app) formService() *services.FormService {
	return services.NewFormService(a.catalog, a.logger)
}

func (a *app) benefitsService() *services.BenefitsService {
	return services.NewBenefitsService(a.formService(), a.benefitsClient(), a.logger)
}

// resolver builds the session resolver for a device at coords.
func (a *app) resolver(coords models.Coordinates) *location.Resolver {
	return location.NewResolver(
		location.StaticPermission{Granted: a.cfg.LocationPermission},
		location.FixedPosition{Coords: coords},
		&location.NominatimGeocoder{
			BaseURL:   a.cfg.GeocoderURL,
			UserAgent: "tree-tracker/" + a.cfg.AppVersion,
		},
		a.logger,
	)
}

// deviceCoords prefers explicit flags over the configured device position.
func (a *app) deviceCoords(lat, lon float64) (models.Coordinates, bool) {
	if lat != 0 || lon != 0 {
		return models.Coordinates{Latitude: lat, Longitude: lon}, true
	}
	if a.cfg.HasDevicePosition() {
		return models.Coordinates{Latitude: a.cfg.DeviceLatitude, Longitude: a.cfg.DeviceLongitude}, true
	}
	return models.Coordinates{}, false
}
