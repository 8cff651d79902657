package weather

import (
	"context"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

const openMeteoFixture = `{
  "utc_offset_seconds": -14400,
  "hourly": {
    "time": ["2025-03-14T09:00", "2025-03-14T10:00", "2025-03-14T11:00"],
    "temperature_2m": [10.0, 12.0, 14.0],
    "wind_speed_10m": [2.0, 4.0, 6.0],
    "wind_direction_10m": [0.0, 90.0, 180.0],
    "relative_humidity_2m": [80.0, 70.0, 60.0],
    "precipitation": [0.0, 2.54, 5.08],
    "weather_code": [0, 61, 95]
  },
  "daily": {
    "time": ["2025-03-14", "2025-03-15"],
    "temperature_2m_max": [15.0, 20.0],
    "temperature_2m_min": [5.0, 10.0],
    "weather_code": [3, 42]
  }
}`

func fixedForecastClient(t *testing.T, baseURL string, localNow time.Time) *ForecastClient {
	t.Helper()
	client := NewForecastClient(ForecastClientOptions{BaseURL: baseURL})
	// The fixture offset is -4h; pin "now" so 10:00 local is current.
	client.now = func() time.Time { return localNow }
	return client
}

func TestForecastPicksCurrentHourAndConverts(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.URL.RawQuery, "forecast_days=4") {
			t.Errorf("expected forecast_days=4 in query %q", r.URL.RawQuery)
		}
		_, _ = w.Write([]byte(openMeteoFixture))
	}))
	defer server.Close()

	utcNow := time.Date(2025, 3, 14, 14, 30, 0, 0, time.UTC) // 10:30 local
	client := fixedForecastClient(t, server.URL, utcNow)

	forecast, err := client.FetchForecast(context.Background(), 35.9257, -81.6745)
	if err != nil {
		t.Fatalf("fetch forecast failed: %v", err)
	}

	current := forecast.Current
	if current.TemperatureF == nil || math.Abs(*current.TemperatureF-53.6) > 0.01 {
		t.Fatalf("expected 12C -> 53.6F, got %v", current.TemperatureF)
	}
	if current.WindSpeedMph == nil || math.Abs(*current.WindSpeedMph-8.947744) > 0.001 {
		t.Fatalf("expected 4 m/s -> ~8.95 mph, got %v", current.WindSpeedMph)
	}
	if current.PrecipitationIn == nil || math.Abs(*current.PrecipitationIn-0.1) > 0.001 {
		t.Fatalf("expected 2.54mm -> ~0.1in, got %v", current.PrecipitationIn)
	}
	if current.WindDirectionCardinal != "E" {
		t.Fatalf("expected 90 degrees -> E, got %q", current.WindDirectionCardinal)
	}
	if current.WeatherDescription != "Light rain" {
		t.Fatalf("expected weather code 61 -> light rain, got %q", current.WeatherDescription)
	}
	wantObservation := time.Date(2025, 3, 14, 14, 0, 0, 0, time.UTC)
	if !current.ObservationTime.Equal(wantObservation) {
		t.Fatalf("expected observation at %v, got %v", wantObservation, current.ObservationTime)
	}

	if len(forecast.Daily) != 2 {
		t.Fatalf("expected 2 daily entries, got %d", len(forecast.Daily))
	}
	day := forecast.Daily[0]
	if day.MaxTempF == nil || *day.MaxTempF != 59 || day.MinTempF == nil || *day.MinTempF != 41 {
		t.Fatalf("unexpected daily temps: %+v", day)
	}
	if forecast.Daily[1].WeatherDescription != "Updated conditions" {
		t.Fatalf("expected fallback description for unknown code, got %q", forecast.Daily[1].WeatherDescription)
	}
}

func TestForecastBeforeSeriesClampsToFirstHour(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(openMeteoFixture))
	}))
	defer server.Close()

	utcNow := time.Date(2025, 3, 14, 1, 0, 0, 0, time.UTC)
	client := fixedForecastClient(t, server.URL, utcNow)

	forecast, err := client.FetchForecast(context.Background(), 35.0, -82.0)
	if err != nil {
		t.Fatalf("fetch forecast failed: %v", err)
	}
	if forecast.Current.TemperatureF == nil || *forecast.Current.TemperatureF != 50 {
		t.Fatalf("expected first slot 10C -> 50F, got %v", forecast.Current.TemperatureF)
	}
}

func TestForecastEmptyHourlyIsError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"hourly":{"time":[],"temperature_2m":[]}}`))
	}))
	defer server.Close()

	client := NewForecastClient(ForecastClientOptions{BaseURL: server.URL})
	if _, err := client.FetchForecast(context.Background(), 35.0, -82.0); err == nil {
		t.Fatalf("expected error for empty hourly series")
	}
}

func TestDegreesToCardinalWrapsAndNormalizes(t *testing.T) {
	cases := []struct {
		degrees float64
		want    string
	}{
		{0, "N"},
		{359, "N"},
		{45, "NE"},
		{-90, "W"},
		{720, "N"},
		{202.5, "SSW"},
	}
	for _, tc := range cases {
		if got := degreesToCardinal(tc.degrees); got != tc.want {
			t.Fatalf("degreesToCardinal(%v) = %q, want %q", tc.degrees, got, tc.want)
		}
	}
}
