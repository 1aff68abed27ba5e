package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"seasafe/internal/types"
)

type mockConditionsService struct {
	sample types.WeatherSample
	loc    types.Location
}

func (m *mockConditionsService) Conditions(_ context.Context, loc types.Location) types.WeatherSample {
	m.loc = loc
	return m.sample
}

type mockHistoryStore struct {
	samples []types.WeatherSample
	err     error
	loc     types.Location
	since   time.Time
	limit   int
}

func (m *mockHistoryStore) RecentByLocation(_ context.Context, loc types.Location, since time.Time, limit int) ([]types.WeatherSample, error) {
	m.loc = loc
	m.since = since
	m.limit = limit
	return m.samples, m.err
}

func makeConditionsRouter(svc ConditionsServiceInterface) http.Handler {
	return makeConditionsRouterWithHistory(svc, nil)
}

func makeConditionsRouterWithHistory(svc ConditionsServiceInterface, history HistoryStoreInterface) http.Handler {
	h := NewConditionsHandler(svc, history, types.DefaultThresholds(), nil)
	r := chi.NewRouter()
	r.Route("/v1/conditions", h.RegisterRoutes)
	return r
}

func getConditions(router http.Handler, query string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/v1/conditions"+query, nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestHandleGetConditions_Success(t *testing.T) {
	svc := &mockConditionsService{
		sample: types.WeatherSample{
			Latitude:   40.7,
			Longitude:  -74.0,
			Timestamp:  time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
			WaveHeight: 1.2,
			WindSpeed:  15.0,
			Visibility: 8000.0,
		},
	}
	router := makeConditionsRouter(svc)

	rec := getConditions(router, "?lat=40.7&lon=-74.0")

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if svc.loc.Lat != 40.7 || svc.loc.Lon != -74.0 {
		t.Errorf("unexpected location passed to service: %+v", svc.loc)
	}

	var resp conditionsResponse
	decodeData(t, rec, &resp)

	if resp.Assessment.Level != types.LevelCaution {
		t.Errorf("expected caution assessment, got %v", resp.Assessment.Level)
	}
	if resp.Sample.WaveHeight != 1.2 {
		t.Errorf("sample not echoed: %+v", resp.Sample)
	}
	if got := rec.Header().Get("Cache-Control"); got != "private, max-age=300" {
		t.Errorf("unexpected cache header %q", got)
	}
}

func TestHandleGetConditions_MissingParams(t *testing.T) {
	router := makeConditionsRouter(&mockConditionsService{})

	for _, query := range []string{"", "?lat=40.7", "?lon=-74.0"} {
		if rec := getConditions(router, query); rec.Code != http.StatusBadRequest {
			t.Errorf("query %q: expected 400, got %d", query, rec.Code)
		}
	}
}

func TestHandleGetConditions_InvalidParams(t *testing.T) {
	router := makeConditionsRouter(&mockConditionsService{})

	cases := []string{
		"?lat=abc&lon=0",
		"?lat=0&lon=xyz",
		"?lat=91&lon=0",
		"?lat=0&lon=181",
		"?lat=-90.5&lon=0",
	}
	for _, query := range cases {
		if rec := getConditions(router, query); rec.Code != http.StatusBadRequest {
			t.Errorf("query %q: expected 400, got %d", query, rec.Code)
		}
	}
}

func TestHandleGetConditions_DefaultSafeSampleAssessesSafe(t *testing.T) {
	// The fail-open conditions source returns a default-safe sample when the
	// upstream is unreachable; the endpoint must still answer 200 / safe.
	svc := &mockConditionsService{
		sample: types.WeatherSample{
			Latitude:   10.0,
			Longitude:  20.0,
			Visibility: types.DefaultVisibilityMeters,
		},
	}
	router := makeConditionsRouter(svc)

	rec := getConditions(router, "?lat=10&lon=20")

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp conditionsResponse
	decodeData(t, rec, &resp)

	if resp.Assessment.Level != types.LevelSafe {
		t.Errorf("expected safe, got %v", resp.Assessment.Level)
	}
}

func TestHandleGetHistory_ReturnsStoredSamples(t *testing.T) {
	store := &mockHistoryStore{
		samples: []types.WeatherSample{
			{Latitude: 43.51, Longitude: 16.44, Timestamp: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC), WaveHeight: 2.1},
			{Latitude: 43.51, Longitude: 16.44, Timestamp: time.Date(2026, 3, 1, 11, 0, 0, 0, time.UTC), WaveHeight: 1.8},
		},
	}
	router := makeConditionsRouterWithHistory(&mockConditionsService{}, store)

	rec := getConditions(router, "/history?lat=43.51&lon=16.44")

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if store.loc.Lat != 43.51 || store.loc.Lon != 16.44 {
		t.Errorf("unexpected location passed to store: %+v", store.loc)
	}
	if age := time.Since(store.since); age < HistoryWindow-time.Minute || age > HistoryWindow+time.Minute {
		t.Errorf("since cutoff not ~%v ago: %v", HistoryWindow, store.since)
	}

	var resp historyResponse
	decodeData(t, rec, &resp)

	if len(resp.Samples) != 2 {
		t.Fatalf("expected 2 samples, got %d", len(resp.Samples))
	}
	if resp.Samples[0].WaveHeight != 2.1 {
		t.Errorf("samples not echoed newest first: %+v", resp.Samples)
	}
}

func TestHandleGetHistory_WithoutStoreServesEmptySeries(t *testing.T) {
	router := makeConditionsRouter(&mockConditionsService{})

	rec := getConditions(router, "/history?lat=10&lon=20")

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp historyResponse
	decodeData(t, rec, &resp)

	if resp.Samples == nil || len(resp.Samples) != 0 {
		t.Errorf("expected empty non-nil series, got %#v", resp.Samples)
	}
}

func TestHandleGetHistory_ValidatesCoordinates(t *testing.T) {
	store := &mockHistoryStore{}
	router := makeConditionsRouterWithHistory(&mockConditionsService{}, store)

	for _, query := range []string{"/history", "/history?lat=91&lon=0", "/history?lat=0&lon=xyz"} {
		if rec := getConditions(router, query); rec.Code != http.StatusBadRequest {
			t.Errorf("query %q: expected 400, got %d", query, rec.Code)
		}
	}
}

func TestHandleGetHistory_StoreErrorMapsToInternal(t *testing.T) {
	store := &mockHistoryStore{
		err: types.NewAppError(types.ErrCodeInternalDB, "query failed", nil),
	}
	router := makeConditionsRouterWithHistory(&mockConditionsService{}, store)

	rec := getConditions(router, "/history?lat=10&lon=20")

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d: %s", rec.Code, rec.Body.String())
	}
}
