package config

import (
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	StoreDriver string
	SQLitePath  string

	PostgresHost     string
	PostgresPort     string
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresSSLMode  string

	ITreeAPIURL        string
	ITreeKey           string
	HTTPTimeoutSeconds int
	MaxRetries         int
	WriteConcurrency   int
	WriteRateLimitMs   int

	SpeciesDataPath string

	GeocoderURL        string
	LocationPermission bool
	DeviceLatitude     float64
	DeviceLongitude    float64

	MeiliURL string
	MeiliKey string

	HTTPAddr            string
	CSVOutputPath       string
	ShapefileOutputPath string
	AppVersion          string
	Verbose             bool
}

// Load reads the .env file and returns a populated Config struct.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("[config] No .env file found, falling back to system env vars")
	}

	return &Config{
		StoreDriver: strings.ToLower(getEnv("STORE_DRIVER", "sqlite")),
		SQLitePath:  getEnv("SQLITE_PATH", "./data/trees.db"),

		PostgresHost:     getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:     getEnv("POSTGRES_PORT", "5432"),
		PostgresUser:     getEnv("POSTGRES_USER", "trees"),
		PostgresPassword: getEnv("POSTGRES_PASSWORD", "trees123"),
		PostgresDB:       getEnv("POSTGRES_DB", "tree_inventory"),
		PostgresSSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),

		ITreeAPIURL:        getEnv("ITREE_API_URL", "https://api.itreetools.org/v2/CalculateBenefits"),
		ITreeKey:           getEnv("ITREE_KEY", ""),
		HTTPTimeoutSeconds: getEnvInt("HTTP_TIMEOUT_SECONDS", 15),
		MaxRetries:         getEnvInt("MAX_RETRIES", 3),
		WriteConcurrency:   getEnvInt("WRITE_CONCURRENCY", 2),
		WriteRateLimitMs:   getEnvInt("WRITE_RATE_LIMIT_MS", 0),

		SpeciesDataPath: getEnv("SPECIES_DATA_PATH", ""),

		GeocoderURL:        getEnv("GEOCODER_URL", "https://nominatim.openstreetmap.org"),
		LocationPermission: getEnvBool("LOCATION_PERMISSION", true),
		DeviceLatitude:     getEnvFloat("DEVICE_LATITUDE", 0),
		DeviceLongitude:    getEnvFloat("DEVICE_LONGITUDE", 0),

		MeiliURL: getEnv("MEILI_URL", ""),
		MeiliKey: getEnv("MEILI_KEY", ""),

		HTTPAddr:            getEnv("HTTP_ADDR", ":8080"),
		CSVOutputPath:       getEnv("CSV_OUTPUT_PATH", "./output/trees.csv"),
		ShapefileOutputPath: getEnv("SHAPEFILE_OUTPUT_PATH", "./output/trees.shp"),
		AppVersion:          getEnv("APP_VERSION", "dev"),
		Verbose:             getEnvBool("VERBOSE", false),
	}
}

// DSN returns the PostgreSQL connection string.
func (c *Config) DSN() string {
	return "host=" + c.PostgresHost +
		" port=" + c.PostgresPort +
		" user=" + c.PostgresUser +
		" password=" + c.PostgresPassword +
		" dbname=" + c.PostgresDB +
		" sslmode=" + c.PostgresSSLMode
}

// HasDevicePosition reports whether a fixed device position is configured.
func (c *Config) HasDevicePosition() bool {
	return c.DeviceLatitude != 0 || c.DeviceLongitude != 0
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		n, err := strconv.Atoi(val)
		if err == nil {
			return n
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if val := os.Getenv(key); val != "" {
		f, err := strconv.ParseFloat(val, 64)
		if err == nil {
			return f
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		b, err := strconv.ParseBool(val)
		if err == nil {
			return b
		}
	}
	return fallback
}
