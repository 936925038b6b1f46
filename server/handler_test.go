package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"tree-tracker/benefits"
	"tree-tracker/catalog"
	"tree-tracker/location"
	"tree-tracker/models"
	"tree-tracker/services"
	"tree-tracker/storage"
	"tree-tracker/utils"
)

type memoryStore struct {
	mu      sync.Mutex
	entries []*models.TreeEntry
}

func (m *memoryStore) Add(_ context.Context, e *models.TreeEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, e)
	return nil
}

func (m *memoryStore) FetchAll(context.Context) ([]*models.TreeEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*models.TreeEntry(nil), m.entries...), nil
}

func (m *memoryStore) Close() error { return nil }

type stubIndex struct {
	memoryStore
	query string
}

func (s *stubIndex) Search(_ context.Context, q string, limit int64) ([]storage.TreeDocument, error) {
	s.query = q
	entries, _ := s.FetchAll(context.Background())
	var docs []storage.TreeDocument
	for _, e := range entries {
		docs = append(docs, storage.NewTreeDocument(e))
	}
	return docs, nil
}

type placeGeocoder struct{ places []models.Place }

func (g placeGeocoder) ReverseGeocode(context.Context, models.Coordinates) ([]models.Place, error) {
	return g.places, nil
}

type testEnv struct {
	router  *gin.Engine
	handler *Handler
	store   *memoryStore
	index   *stubIndex
	itree   *httptest.Server
	session string
	opened  []models.Coordinates
}

func newTestEnv(t *testing.T, granted bool) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	fixture, err := os.ReadFile(filepath.Join("..", "benefits", "testdata", "benefits.xml"))
	if err != nil {
		t.Fatalf("read fixture: %v", err)
	}
	itree := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(fixture)
	}))
	t.Cleanup(itree.Close)

	logger := utils.Discard()
	cat, err := catalog.Default()
	if err != nil {
		t.Fatal(err)
	}

	client := benefits.NewClient(itree.URL, "demo", 0, 1, logger)
	client.HTTPClient = itree.Client()

	store := &memoryStore{}
	index := &stubIndex{}
	forms := services.NewFormService(cat, logger)
	env := &testEnv{store: store, index: index, itree: itree}
	h := &Handler{
		Catalog:  cat,
		Forms:    forms,
		Benefits: services.NewBenefitsService(forms, client, logger),
		Recorder: services.NewRecorder(store, 1, 0, logger, index),
		Reports:  services.NewInsightService(logger),
		Store:    store,
		Index:    index,
		NewResolver: func(coords models.Coordinates) LocationResolver {
			env.opened = append(env.opened, coords)
			return location.NewResolver(
				location.StaticPermission{Granted: granted},
				location.FixedPosition{Coords: coords},
				placeGeocoder{places: []models.Place{{Country: "US", Region: "California", Subregion: "San Francisco County", City: "San Francisco"}}},
				logger,
			)
		},
		DefaultPosition: &models.Coordinates{Latitude: 37.7749, Longitude: -122.4194},
		Logger:          logger,
	}
	env.handler = h
	env.router = SetupRouter(h, logger)
	return env
}

func (e *testEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if e.session != "" {
		req.Header.Set(SessionHeader, e.session)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	if id := w.Header().Get(SessionHeader); id != "" {
		e.session = id
	}
	return w
}

func treeBody() map[string]any {
	return map[string]any{
		"user_id":                       "u-1",
		"username":                      "alice",
		"coords":                        map[string]float64{"latitude": 37.7749, "longitude": -122.4194},
		"species_id":                    "8",
		"dbh":                           "12",
		"tree_condition_category":       "Good",
		"crown_light_exposure_category": "Full",
	}
}

func TestSpeciesEndpoints(t *testing.T) {
	env := newTestEnv(t, true)

	w := env.do(t, http.MethodGet, "/api/species?q=oak", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status: %d", w.Code)
	}
	var list []models.Species
	if err := json.Unmarshal(w.Body.Bytes(), &list); err != nil {
		t.Fatal(err)
	}
	if len(list) == 0 || len(list) >= env.handler.Catalog.Len() {
		t.Errorf("expected a filtered list, got %d entries", len(list))
	}

	w = env.do(t, http.MethodGet, "/api/species?q=oa", nil)
	_ = json.Unmarshal(w.Body.Bytes(), &list)
	if len(list) != env.handler.Catalog.Len() {
		t.Errorf("short query should return the full catalog, got %d", len(list))
	}

	if w = env.do(t, http.MethodGet, "/api/species/8", nil); w.Code != http.StatusOK {
		t.Errorf("species/8: status %d", w.Code)
	}
	if w = env.do(t, http.MethodGet, "/api/species/nope", nil); w.Code != http.StatusNotFound {
		t.Errorf("unknown species: status %d", w.Code)
	}

	w = env.do(t, http.MethodGet, "/api/genera/Quercus/species", nil)
	_ = json.Unmarshal(w.Body.Bytes(), &list)
	for _, sp := range list {
		if sp.Genus != "Quercus" || catalog.IsGenus(sp) {
			t.Errorf("unexpected entry in genus listing: %+v", sp)
		}
	}
}

func TestBenefitsRequiresResolvedAddress(t *testing.T) {
	env := newTestEnv(t, true)

	w := env.do(t, http.MethodPost, "/api/benefits", treeBody())
	if w.Code != http.StatusConflict {
		t.Fatalf("before resolution: got %d, want 409", w.Code)
	}

	if w = env.do(t, http.MethodPost, "/api/location/resolve", nil); w.Code != http.StatusOK {
		t.Fatalf("resolve: status %d: %s", w.Code, w.Body.String())
	}

	w = env.do(t, http.MethodPost, "/api/benefits", treeBody())
	if w.Code != http.StatusOK {
		t.Fatalf("after resolution: status %d: %s", w.Code, w.Body.String())
	}
	var resp struct {
		Benefits []models.BenefitValue `json:"benefits"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	found := false
	for _, b := range resp.Benefits {
		if b.Name == models.BenefitCO2SequesteredValue && b.Display == "$3.46" {
			found = true
		}
	}
	if !found {
		t.Errorf("CO2SequesteredValue $3.46 missing from %+v", resp.Benefits)
	}
}

func TestBenefitsWithExplicitAddress(t *testing.T) {
	env := newTestEnv(t, true)
	body := treeBody()
	body["address"] = map[string]string{"country": "US", "region": "Bavaria", "county": "X", "city": "Y"}

	if w := env.do(t, http.MethodPost, "/api/benefits", body); w.Code != http.StatusBadRequest {
		t.Errorf("unmapped region: got %d, want 400", w.Code)
	}
}

func TestLocationPermissionDenied(t *testing.T) {
	env := newTestEnv(t, false)
	if w := env.do(t, http.MethodPost, "/api/location/resolve", nil); w.Code != http.StatusForbidden {
		t.Errorf("denied: got %d, want 403", w.Code)
	}
	w := env.do(t, http.MethodGet, "/api/location", nil)
	var resp struct {
		State string `json:"state"`
	}
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.State != location.PermissionDenied.String() {
		t.Errorf("state: got %q", resp.State)
	}
}

func TestSubmitAndListTrees(t *testing.T) {
	env := newTestEnv(t, true)
	env.do(t, http.MethodPost, "/api/location/resolve", nil)

	body := treeBody()
	body["calculate_benefits"] = true
	w := env.do(t, http.MethodPost, "/api/trees", body)
	if w.Code != http.StatusAccepted {
		t.Fatalf("submit: status %d: %s", w.Code, w.Body.String())
	}
	var resp struct {
		ID string `json:"id"`
	}
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.ID == "" {
		t.Fatal("expected an id")
	}
	env.handler.Recorder.Wait()

	w = env.do(t, http.MethodGet, "/api/trees", nil)
	var entries []models.TreeEntry
	if err := json.Unmarshal(w.Body.Bytes(), &entries); err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].ID != resp.ID {
		t.Fatalf("trees: %+v", entries)
	}
	e := entries[0]
	if models.Deref(e.StateAbbr) != "CA" || models.Deref(e.CO2SequesteredValue) != "$3.46" {
		t.Errorf("entry: state=%q co2=%q", models.Deref(e.StateAbbr), models.Deref(e.CO2SequesteredValue))
	}

	w = env.do(t, http.MethodGet, "/api/search?q=oak", nil)
	var docs []storage.TreeDocument
	_ = json.Unmarshal(w.Body.Bytes(), &docs)
	if len(docs) != 1 || env.index.query != "oak" {
		t.Errorf("search: %d docs, query %q", len(docs), env.index.query)
	}

	w = env.do(t, http.MethodGet, "/api/insights", nil)
	var report models.InsightReport
	_ = json.Unmarshal(w.Body.Bytes(), &report)
	if report.TotalTrees != 1 || report.TotalCO2Value != 3.46 {
		t.Errorf("insights: %+v", report)
	}
}

func TestSubmitInvalidForm(t *testing.T) {
	env := newTestEnv(t, true)
	body := treeBody()
	delete(body, "coords")

	if w := env.do(t, http.MethodPost, "/api/trees", body); w.Code != http.StatusBadRequest {
		t.Errorf("missing coords: got %d, want 400", w.Code)
	}
	if w := env.do(t, http.MethodPost, "/api/trees", nil); w.Code != http.StatusBadRequest {
		t.Errorf("empty body: got %d, want 400", w.Code)
	}
}

func TestSearchWithoutIndex(t *testing.T) {
	env := newTestEnv(t, true)
	env.handler.Index = nil
	if w := env.do(t, http.MethodGet, "/api/search?q=oak", nil); w.Code != http.StatusServiceUnavailable {
		t.Errorf("got %d, want 503", w.Code)
	}
}

func TestResolveLocationOpensSessionPerClient(t *testing.T) {
	env := newTestEnv(t, true)
	env.handler.DefaultPosition = nil

	if w := env.do(t, http.MethodPost, "/api/location/resolve", nil); w.Code != http.StatusBadRequest {
		t.Fatalf("no position: got %d, want 400", w.Code)
	}
	if len(env.opened) != 0 {
		t.Fatal("no resolver should be built without a position")
	}

	w := env.do(t, http.MethodPost, "/api/location/resolve", map[string]float64{"latitude": 40.7128, "longitude": -74.006})
	if w.Code != http.StatusOK {
		t.Fatalf("resolve: status %d: %s", w.Code, w.Body.String())
	}
	var resp struct {
		SessionID string                  `json:"session_id"`
		Address   *models.ResolvedAddress `json:"address"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.SessionID == "" || resp.SessionID != env.session {
		t.Fatalf("session id: body %q, header %q", resp.SessionID, env.session)
	}
	if resp.Address == nil || resp.Address.Latitude != 40.7128 {
		t.Errorf("address should carry the request position: %+v", resp.Address)
	}

	env.do(t, http.MethodPost, "/api/location/resolve", map[string]float64{"latitude": 1, "longitude": 1})
	if len(env.opened) != 1 {
		t.Errorf("an existing session must reuse its resolver, built %d", len(env.opened))
	}

	first := env.session
	env.session = ""
	w = env.do(t, http.MethodGet, "/api/location", nil)
	var loc struct {
		State string `json:"state"`
	}
	_ = json.Unmarshal(w.Body.Bytes(), &loc)
	if loc.State != location.Unrequested.String() {
		t.Errorf("a client without a session should see unrequested, got %q", loc.State)
	}
	if w := env.do(t, http.MethodPost, "/api/benefits", treeBody()); w.Code != http.StatusConflict {
		t.Errorf("benefits without a session: got %d, want 409", w.Code)
	}

	env.session = first
	w = env.do(t, http.MethodGet, "/api/location", nil)
	_ = json.Unmarshal(w.Body.Bytes(), &loc)
	if loc.State != location.AddressResolved.String() {
		t.Errorf("session state: got %q", loc.State)
	}
}

func TestSpeciesByCodeAndSorted(t *testing.T) {
	env := newTestEnv(t, true)

	var list []models.Species
	w := env.do(t, http.MethodGet, "/api/species?code=quru", nil)
	if err := json.Unmarshal(w.Body.Bytes(), &list); err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 || list[0].ITreeCode != "QURU" {
		t.Errorf("code lookup: %+v", list)
	}

	w = env.do(t, http.MethodGet, "/api/species?code=NOPE", nil)
	_ = json.Unmarshal(w.Body.Bytes(), &list)
	if len(list) != 0 {
		t.Errorf("unknown code: %+v", list)
	}

	w = env.do(t, http.MethodGet, "/api/species?sort=common", nil)
	_ = json.Unmarshal(w.Body.Bytes(), &list)
	if len(list) != env.handler.Catalog.Len() {
		t.Fatalf("sorted list: got %d entries", len(list))
	}
	for i := 1; i < len(list); i++ {
		if strings.ToLower(list[i-1].Common) > strings.ToLower(list[i].Common) {
			t.Errorf("not sorted by common name at %d: %q > %q", i, list[i-1].Common, list[i].Common)
			break
		}
	}
}

func TestHealthReportsSubmissions(t *testing.T) {
	env := newTestEnv(t, true)
	env.do(t, http.MethodPost, "/api/location/resolve", nil)
	env.do(t, http.MethodPost, "/api/trees", treeBody())
	env.handler.Recorder.Wait()

	w := env.do(t, http.MethodGet, "/api/health", nil)
	var resp struct {
		Status    string `json:"status"`
		Submitted int    `json:"submitted"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Status != "ok" || resp.Submitted != 1 {
		t.Errorf("health: %+v", resp)
	}
}

type parkedGeocoder struct {
	parked  chan struct{}
	release chan struct{}
}

func (g *parkedGeocoder) ReverseGeocode(context.Context, models.Coordinates) ([]models.Place, error) {
	close(g.parked)
	<-g.release
	return []models.Place{{Country: "US", Region: "California", Subregion: "San Francisco County", City: "San Francisco"}}, nil
}

func TestSessionReadsDoNotWaitForResolution(t *testing.T) {
	env := newTestEnv(t, true)
	geo := &parkedGeocoder{parked: make(chan struct{}), release: make(chan struct{})}
	env.handler.NewResolver = func(coords models.Coordinates) LocationResolver {
		return location.NewResolver(location.StaticPermission{Granted: true},
			location.FixedPosition{Coords: coords}, geo, utils.Discard())
	}

	const session = "field-crew-1"
	request := func(method, path string, body any) *httptest.ResponseRecorder {
		var buf bytes.Buffer
		if body != nil {
			_ = json.NewEncoder(&buf).Encode(body)
		}
		req := httptest.NewRequest(method, path, &buf)
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set(SessionHeader, session)
		w := httptest.NewRecorder()
		env.router.ServeHTTP(w, req)
		return w
	}

	resolved := make(chan *httptest.ResponseRecorder, 1)
	go func() { resolved <- request(http.MethodPost, "/api/location/resolve", nil) }()
	<-geo.parked

	type reads struct {
		location, benefits *httptest.ResponseRecorder
	}
	done := make(chan reads, 1)
	go func() {
		done <- reads{
			location: request(http.MethodGet, "/api/location", nil),
			benefits: request(http.MethodPost, "/api/benefits", treeBody()),
		}
	}()

	select {
	case got := <-done:
		var loc struct {
			State     string `json:"state"`
			Resolving bool   `json:"resolving"`
		}
		_ = json.Unmarshal(got.location.Body.Bytes(), &loc)
		if !loc.Resolving || loc.State != location.CoordinatesAcquired.String() {
			t.Errorf("location while resolving: %+v", loc)
		}
		if got.benefits.Code != http.StatusConflict {
			t.Errorf("benefits while resolving: got %d, want 409", got.benefits.Code)
		}
	case <-time.After(time.Second):
		t.Fatal("session reads waited for the in-flight resolution")
	}

	close(geo.release)
	if w := <-resolved; w.Code != http.StatusOK {
		t.Fatalf("resolve: status %d: %s", w.Code, w.Body.String())
	}
	if w := request(http.MethodPost, "/api/benefits", treeBody()); w.Code != http.StatusOK {
		t.Errorf("benefits after resolution: status %d: %s", w.Code, w.Body.String())
	}
}
