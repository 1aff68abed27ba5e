// Package marine implements the weather-fetch collaborator for the safety
// evaluator: an Open-Meteo style upstream client plus a caching service that
// enforces a minimum refresh interval and serves stale data on fetch failure
// rather than propagating errors (fail-open).
package marine

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"seasafe/internal/external"
	"seasafe/internal/types"
)

// Fetcher retrieves the hourly marine weather series for a location.
type Fetcher interface {
	Fetch(ctx context.Context, loc types.Location) ([]types.WeatherSample, error)
}

// marineHourlyVars and forecastHourlyVars name the hourly variables requested
// from the two upstream endpoints. Wave data comes from the marine endpoint;
// wind and visibility come from the general forecast endpoint.
const (
	marineHourlyVars   = "wave_height,wave_period,wind_wave_height,swell_wave_height"
	forecastHourlyVars = "wind_speed_10m,wind_gusts_10m,visibility"
)

// hourlyBlock mirrors the upstream hourly response structure. Entries are
// nullable: the provider emits null for hours it has no data for.
type hourlyBlock struct {
	Time            []string   `json:"time"`
	WaveHeight      []*float64 `json:"wave_height"`
	WavePeriod      []*float64 `json:"wave_period"`
	WindWaveHeight  []*float64 `json:"wind_wave_height"`
	SwellWaveHeight []*float64 `json:"swell_wave_height"`
	WindSpeed       []*float64 `json:"wind_speed_10m"`
	WindGusts       []*float64 `json:"wind_gusts_10m"`
	Visibility      []*float64 `json:"visibility"`
}

type upstreamResponse struct {
	Latitude  float64     `json:"latitude"`
	Longitude float64     `json:"longitude"`
	Hourly    hourlyBlock `json:"hourly"`
}

// upstreamTimeLayout is the hour format used by the provider ("2026-02-06T09:00").
const upstreamTimeLayout = "2006-01-02T15:04"

// OpenMeteoClient fetches marine and atmospheric conditions from an
// Open-Meteo compatible API pair and merges them into WeatherSamples.
type OpenMeteoClient struct {
	client       *external.Client
	marineBase   string // e.g. https://marine-api.open-meteo.com
	forecastBase string // e.g. https://api.open-meteo.com
	forecastDays int
	logger       *slog.Logger
}

// NewOpenMeteoClient creates an upstream client over the given resilient
// HTTP client and endpoint base URLs.
func NewOpenMeteoClient(client *external.Client, marineBase, forecastBase string, forecastDays int, logger *slog.Logger) *OpenMeteoClient {
	if logger == nil {
		logger = slog.Default()
	}
	if forecastDays <= 0 {
		forecastDays = 2
	}
	return &OpenMeteoClient{
		client:       client,
		marineBase:   marineBase,
		forecastBase: forecastBase,
		forecastDays: forecastDays,
		logger:       logger,
	}
}

// Fetch retrieves wave data and wind/visibility data for the location and
// merges the two hourly series by timestamp into WeatherSamples. Hours
// present in only one series still yield a sample; the missing fields keep
// their defaults (zero, or 10000 m for visibility).
func (c *OpenMeteoClient) Fetch(ctx context.Context, loc types.Location) ([]types.WeatherSample, error) {
	marine, err := c.get(ctx, c.marineBase+"/v1/marine", loc, marineHourlyVars)
	if err != nil {
		return nil, fmt.Errorf("fetching marine conditions: %w", err)
	}

	atmos, err := c.get(ctx, c.forecastBase+"/v1/forecast", loc, forecastHourlyVars)
	if err != nil {
		return nil, fmt.Errorf("fetching atmospheric conditions: %w", err)
	}

	samples := mergeHourly(loc, marine.Hourly, atmos.Hourly)
	c.logger.DebugContext(ctx, "fetched upstream conditions",
		"lat", loc.Lat,
		"lon", loc.Lon,
		"samples", len(samples),
	)
	return samples, nil
}

// get performs one upstream request and decodes the hourly payload.
func (c *OpenMeteoClient) get(ctx context.Context, base string, loc types.Location, hourly string) (*upstreamResponse, error) {
	q := url.Values{}
	q.Set("latitude", fmt.Sprintf("%.4f", loc.Lat))
	q.Set("longitude", fmt.Sprintf("%.4f", loc.Lon))
	q.Set("hourly", hourly)
	q.Set("timezone", "UTC")
	q.Set("forecast_days", fmt.Sprintf("%d", c.forecastDays))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, base+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("building upstream request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, types.NewAppError(types.ErrCodeUpstreamWeather,
			fmt.Sprintf("upstream returned %d: %s", resp.StatusCode, string(body)), nil)
	}

	var parsed upstreamResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, types.NewAppError(types.ErrCodeUpstreamWeather,
			"failed to decode upstream response", err)
	}

	return &parsed, nil
}

// mergeHourly joins the marine and atmospheric hourly series by timestamp.
// The result is ordered by the marine series' time axis, with atmospheric
// hours absent from the marine series appended in their own order.
func mergeHourly(loc types.Location, marine, atmos hourlyBlock) []types.WeatherSample {
	byTime := make(map[string]*types.WeatherSample)
	var order []string

	sampleFor := func(hour string) *types.WeatherSample {
		if s, ok := byTime[hour]; ok {
			return s
		}
		ts, err := time.Parse(upstreamTimeLayout, hour)
		if err != nil {
			return nil
		}
		s := &types.WeatherSample{
			Latitude:   loc.Lat,
			Longitude:  loc.Lon,
			Timestamp:  ts.UTC(),
			Visibility: types.DefaultVisibilityMeters,
		}
		byTime[hour] = s
		order = append(order, hour)
		return s
	}

	for i, hour := range marine.Time {
		s := sampleFor(hour)
		if s == nil {
			continue
		}
		s.WaveHeight = deref(marine.WaveHeight, i)
		s.WavePeriod = deref(marine.WavePeriod, i)
		s.WindWaveHeight = deref(marine.WindWaveHeight, i)
		s.SwellWaveHeight = deref(marine.SwellWaveHeight, i)
	}

	for i, hour := range atmos.Time {
		s := sampleFor(hour)
		if s == nil {
			continue
		}
		s.WindSpeed = deref(atmos.WindSpeed, i)
		s.WindGusts = deref(atmos.WindGusts, i)
		if v := at(atmos.Visibility, i); v != nil {
			s.Visibility = *v
		}
	}

	samples := make([]types.WeatherSample, 0, len(order))
	for _, hour := range order {
		samples = append(samples, *byTime[hour])
	}
	return samples
}

// at returns the i-th pointer of a nullable series, or nil when out of range.
func at(series []*float64, i int) *float64 {
	if i < 0 || i >= len(series) {
		return nil
	}
	return series[i]
}

// deref returns the i-th value of a nullable series, or zero when absent.
func deref(series []*float64, i int) float64 {
	if v := at(series, i); v != nil {
		return *v
	}
	return 0
}
