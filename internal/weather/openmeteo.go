package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// Conditions is the current-hour snapshot, converted to the units the
// dashboard displays (Fahrenheit, mph, inches).
type Conditions struct {
	TemperatureF          *float64  `json:"temperatureF"`
	HumidityPercent       *float64  `json:"humidityPercent"`
	PrecipitationIn       *float64  `json:"precipitationIn"`
	WindSpeedMph          *float64  `json:"windSpeedMph"`
	WindDirectionDegrees  *int      `json:"windDirectionDegrees"`
	WindDirectionCardinal string    `json:"windDirectionCardinal,omitempty"`
	WeatherCode           *int      `json:"weatherCode"`
	WeatherDescription    string    `json:"weatherDescription,omitempty"`
	ObservationTime       time.Time `json:"observationTime"`
}

// DailyOutlook is one day of the upcoming forecast.
type DailyOutlook struct {
	Date               string   `json:"date"`
	MaxTempF           *float64 `json:"maxTempF"`
	MinTempF           *float64 `json:"minTempF"`
	WeatherCode        *int     `json:"weatherCode"`
	WeatherDescription string   `json:"weatherDescription,omitempty"`
}

// Forecast bundles current conditions with the daily outlook.
type Forecast struct {
	Current Conditions     `json:"current"`
	Daily   []DailyOutlook `json:"daily"`
}

const forecastDefaultBaseURL = "https://api.open-meteo.com"

type ForecastClientOptions struct {
	BaseURL    string
	HTTPClient *http.Client
	UserAgent  string
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration
}

// ForecastClient fetches hourly and daily forecasts from Open-Meteo.
type ForecastClient struct {
	httpGetter
	now func() time.Time
}

func NewForecastClient(opts ForecastClientOptions) *ForecastClient {
	return &ForecastClient{
		httpGetter: newHTTPGetter(opts.BaseURL, forecastDefaultBaseURL, opts.UserAgent,
			opts.HTTPClient, opts.MaxRetries, opts.BaseDelay, opts.MaxDelay),
		now: time.Now,
	}
}

type openMeteoResponse struct {
	UTCOffsetSeconds int64 `json:"utc_offset_seconds"`
	Hourly           struct {
		Time             []string  `json:"time"`
		Temperature2m    []float64 `json:"temperature_2m"`
		WindSpeed10m     []float64 `json:"wind_speed_10m"`
		WindDirection10m []float64 `json:"wind_direction_10m"`
		Humidity2m       []float64 `json:"relative_humidity_2m"`
		Precipitation    []float64 `json:"precipitation"`
		WeatherCode      []float64 `json:"weather_code"`
	} `json:"hourly"`
	Daily struct {
		Time             []string  `json:"time"`
		Temperature2mMax []float64 `json:"temperature_2m_max"`
		Temperature2mMin []float64 `json:"temperature_2m_min"`
		WeatherCode      []float64 `json:"weather_code"`
	} `json:"daily"`
}

// FetchForecast queries Open-Meteo for a coordinate pair. The current
// conditions come from the hourly series entry nearest to now in the
// location's timezone.
func (c *ForecastClient) FetchForecast(ctx context.Context, latitude, longitude float64) (Forecast, error) {
	q := url.Values{}
	q.Set("latitude", strconv.FormatFloat(latitude, 'f', -1, 64))
	q.Set("longitude", strconv.FormatFloat(longitude, 'f', -1, 64))
	q.Set("hourly", "temperature_2m,wind_speed_10m,wind_direction_10m,relative_humidity_2m,precipitation,weather_code")
	q.Set("daily", "temperature_2m_max,temperature_2m_min,weather_code")
	q.Set("forecast_days", "4")
	q.Set("timezone", "auto")
	q.Set("wind_speed_unit", "ms")

	var payload openMeteoResponse
	body, err := c.getJSON(ctx, "/v1/forecast?"+q.Encode())
	if err != nil {
		return Forecast{}, err
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return Forecast{}, fmt.Errorf("decode open-meteo response: %w", err)
	}
	if len(payload.Hourly.Time) == 0 || len(payload.Hourly.Temperature2m) == 0 {
		return Forecast{}, fmt.Errorf("no hourly weather data received")
	}

	offset := time.Duration(payload.UTCOffsetSeconds) * time.Second
	localNow := c.now().UTC().Add(offset)
	index := nearestHourIndex(payload.Hourly.Time, localNow)

	current := Conditions{
		TemperatureF:    celsiusToFahrenheit(pick(payload.Hourly.Temperature2m, index)),
		HumidityPercent: pick(payload.Hourly.Humidity2m, index),
		PrecipitationIn: mmToInches(pick(payload.Hourly.Precipitation, index)),
		WindSpeedMph:    msToMph(pick(payload.Hourly.WindSpeed10m, index)),
	}
	if direction := pick(payload.Hourly.WindDirection10m, index); direction != nil {
		rounded := int(math.Round(*direction))
		current.WindDirectionDegrees = &rounded
		current.WindDirectionCardinal = degreesToCardinal(*direction)
	}
	if code := pick(payload.Hourly.WeatherCode, index); code != nil {
		rounded := int(math.Round(*code))
		current.WeatherCode = &rounded
		current.WeatherDescription = DescribeWeatherCode(rounded)
	}
	if index < len(payload.Hourly.Time) {
		if ts, err := time.Parse("2006-01-02T15:04", payload.Hourly.Time[index]); err == nil {
			current.ObservationTime = ts.Add(-offset).UTC()
		}
	}

	daily := make([]DailyOutlook, 0, len(payload.Daily.Time))
	for i, day := range payload.Daily.Time {
		outlook := DailyOutlook{
			Date:     day,
			MaxTempF: celsiusToFahrenheit(pick(payload.Daily.Temperature2mMax, i)),
			MinTempF: celsiusToFahrenheit(pick(payload.Daily.Temperature2mMin, i)),
		}
		if code := pick(payload.Daily.WeatherCode, i); code != nil {
			rounded := int(math.Round(*code))
			outlook.WeatherCode = &rounded
			outlook.WeatherDescription = DescribeWeatherCode(rounded)
		}
		daily = append(daily, outlook)
	}

	return Forecast{Current: current, Daily: daily}, nil
}

// nearestHourIndex finds the hourly slot covering now, clamped to the
// series bounds.
func nearestHourIndex(times []string, localNow time.Time) int {
	best := 0
	for i, raw := range times {
		ts, err := time.Parse("2006-01-02T15:04", raw)
		if err != nil {
			continue
		}
		if ts.After(localNow) {
			break
		}
		best = i
	}
	return best
}

func pick(values []float64, index int) *float64 {
	if len(values) == 0 {
		return nil
	}
	if index < 0 || index >= len(values) {
		index = len(values) - 1
	}
	v := values[index]
	return &v
}

func celsiusToFahrenheit(value *float64) *float64 {
	if value == nil {
		return nil
	}
	f := *value*9/5 + 32
	return &f
}

func mmToInches(value *float64) *float64 {
	if value == nil {
		return nil
	}
	in := *value * 0.0393701
	return &in
}

func msToMph(value *float64) *float64 {
	if value == nil {
		return nil
	}
	mph := *value * 2.236936
	return &mph
}

var cardinalDirections = []string{
	"N", "NNE", "NE", "ENE", "E", "ESE", "SE", "SSE",
	"S", "SSW", "SW", "WSW", "W", "WNW", "NW", "NNW",
}

func degreesToCardinal(degrees float64) string {
	normalized := math.Mod(math.Mod(degrees, 360)+360, 360)
	index := int(math.Round(normalized/22.5)) % len(cardinalDirections)
	return cardinalDirections[index]
}

var weatherCodeDescriptions = map[int]string{
	0:  "Clear sky",
	1:  "Mainly clear",
	2:  "Partly cloudy",
	3:  "Overcast",
	45: "Foggy",
	48: "Rime fog",
	51: "Light drizzle",
	53: "Moderate drizzle",
	55: "Dense drizzle",
	56: "Freezing drizzle",
	57: "Freezing drizzle",
	61: "Light rain",
	63: "Moderate rain",
	65: "Heavy rain",
	66: "Freezing rain",
	67: "Heavy freezing rain",
	71: "Light snow",
	73: "Moderate snow",
	75: "Heavy snow",
	77: "Snow grains",
	80: "Light rain showers",
	81: "Moderate rain showers",
	82: "Violent rain showers",
	85: "Light snow showers",
	86: "Heavy snow showers",
	95: "Thunderstorm",
	96: "Thunderstorm with hail",
	99: "Heavy hail",
}

// DescribeWeatherCode maps a WMO weather code to display text.
func DescribeWeatherCode(code int) string {
	if description, ok := weatherCodeDescriptions[code]; ok {
		return description
	}
	return "Updated conditions"
}
