package location

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"tree-tracker/models"
)

const defaultGeocoderURL = "https://nominatim.openstreetmap.org"

// StaticPermission answers every permission request the same way. The CLI
// and the API server use it because the real prompt happens on the phone.
type StaticPermission struct {
	Granted bool
}

func (p StaticPermission) RequestPermission(ctx context.Context) (bool, error) {
	return p.Granted, nil
}

// FixedPosition reports a position supplied up front (flags, config or an
// API request).
type FixedPosition struct {
	Coords models.Coordinates
}

func (p FixedPosition) CurrentPosition(ctx context.Context) (models.Coordinates, error) {
	if p.Coords.Latitude < -90 || p.Coords.Latitude > 90 ||
		p.Coords.Longitude < -180 || p.Coords.Longitude > 180 {
		return models.Coordinates{}, fmt.Errorf("position %.5f,%.5f is out of range",
			p.Coords.Latitude, p.Coords.Longitude)
	}
	return p.Coords, nil
}

// NominatimGeocoder reverse-geocodes against a Nominatim-compatible API.
type NominatimGeocoder struct {
	BaseURL    string
	UserAgent  string
	HTTPClient *http.Client
}

func (g *NominatimGeocoder) ReverseGeocode(ctx context.Context, coords models.Coordinates) ([]models.Place, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(g.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultGeocoderURL
	}
	httpClient := g.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	userAgent := g.UserAgent
	if userAgent == "" {
		userAgent = "tree-tracker"
	}

	q := url.Values{}
	q.Set("format", "jsonv2")
	q.Set("addressdetails", "1")
	q.Set("lat", strconv.FormatFloat(coords.Latitude, 'f', -1, 64))
	q.Set("lon", strconv.FormatFloat(coords.Longitude, 'f', -1, 64))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"/reverse?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create geocoder request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute geocoder request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read geocoder response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("geocoder request failed with status %d", resp.StatusCode)
	}

	var parsed nominatimResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("decode geocoder response: %w", err)
	}
	if parsed.Error != "" {
		return nil, nil
	}

	a := parsed.Address
	place := models.Place{
		Country:   a.Country,
		Region:    firstNonEmpty(a.State, a.Province, a.Territory),
		Subregion: a.County,
		City:      firstNonEmpty(a.City, a.Town, a.Village, a.Hamlet, a.Municipality),
	}
	if place.Country == "" && place.Region == "" && place.City == "" {
		return nil, nil
	}
	return []models.Place{place}, nil
}

type nominatimResponse struct {
	Error   string           `json:"error"`
	Address nominatimAddress `json:"address"`
}

type nominatimAddress struct {
	City         string `json:"city"`
	Town         string `json:"town"`
	Village      string `json:"village"`
	Hamlet       string `json:"hamlet"`
	Municipality string `json:"municipality"`
	County       string `json:"county"`
	State        string `json:"state"`
	Province     string `json:"province"`
	Territory    string `json:"territory"`
	Country      string `json:"country"`
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
