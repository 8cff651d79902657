package weather

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// ErrNoGauge marks locations without a USGS monitoring site.
var ErrNoGauge = errors.New("no river gauge for location")

type HTTPError struct {
	StatusCode int
	Message    string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("http %d: %s", e.StatusCode, e.Message)
}

// GaugeReading is one river stage observation in feet.
type GaugeReading struct {
	Timestamp time.Time `json:"timestamp"`
	StageFeet float64   `json:"stageFeet"`
}

// RiverData is the 7-day stage series for a gauge, newest last.
type RiverData struct {
	Site       string         `json:"site"`
	SiteName   string         `json:"siteName,omitempty"`
	Readings   []GaugeReading `json:"readings"`
	StationURL string         `json:"stationUrl"`
}

// Latest returns the newest reading if any.
func (d RiverData) Latest() (GaugeReading, bool) {
	if len(d.Readings) == 0 {
		return GaugeReading{}, false
	}
	return d.Readings[len(d.Readings)-1], true
}

const (
	usgsDefaultBaseURL = "https://waterservices.usgs.gov"
	usgsStageParameter = "00065"
	usgsStagePeriod    = "P7D"
)

type USGSClientOptions struct {
	BaseURL    string
	HTTPClient *http.Client
	UserAgent  string
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration
}

// httpGetter is the shared retrying GET core for the upstream data
// clients. Retries cover transport errors, 429 and 5xx responses,
// honoring Retry-After.
type httpGetter struct {
	baseURL    string
	httpClient *http.Client
	userAgent  string
	maxRetries int
	baseDelay  time.Duration
	maxDelay   time.Duration
}

func newHTTPGetter(baseURL, defaultBaseURL, userAgent string, httpClient *http.Client, maxRetries int, baseDelay, maxDelay time.Duration) httpGetter {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 20 * time.Second}
	}
	if maxRetries <= 0 {
		maxRetries = 3
	}
	if baseDelay <= 0 {
		baseDelay = 100 * time.Millisecond
	}
	if maxDelay <= 0 {
		maxDelay = 2 * time.Second
	}
	return httpGetter{
		baseURL:    baseURL,
		httpClient: httpClient,
		userAgent:  strings.TrimSpace(userAgent),
		maxRetries: maxRetries,
		baseDelay:  baseDelay,
		maxDelay:   maxDelay,
	}
}

// USGSClient fetches instantaneous river stage values from the NWIS
// service.
type USGSClient struct {
	httpGetter
}

func NewUSGSClient(opts USGSClientOptions) *USGSClient {
	return &USGSClient{
		httpGetter: newHTTPGetter(opts.BaseURL, usgsDefaultBaseURL, opts.UserAgent,
			opts.HTTPClient, opts.MaxRetries, opts.BaseDelay, opts.MaxDelay),
	}
}

// StageReadings returns the 7-day gauge-height series for a site,
// oldest first. Entries without a parseable value or timestamp are
// dropped.
func (c *USGSClient) StageReadings(ctx context.Context, site string) ([]GaugeReading, error) {
	site = strings.TrimSpace(site)
	if site == "" {
		return nil, ErrNoGauge
	}
	q := url.Values{}
	q.Set("format", "json")
	q.Set("sites", site)
	q.Set("parameterCd", usgsStageParameter)
	q.Set("period", usgsStagePeriod)

	body, err := c.getJSON(ctx, "/nwis/iv/?"+q.Encode())
	if err != nil {
		return nil, err
	}

	var payload struct {
		Value struct {
			TimeSeries []struct {
				Values []struct {
					Value []struct {
						Value    string `json:"value"`
						DateTime string `json:"dateTime"`
					} `json:"value"`
				} `json:"values"`
			} `json:"timeSeries"`
		} `json:"value"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("decode usgs response: %w", err)
	}
	if len(payload.Value.TimeSeries) == 0 || len(payload.Value.TimeSeries[0].Values) == 0 {
		return nil, nil
	}

	series := payload.Value.TimeSeries[0].Values[0].Value
	readings := make([]GaugeReading, 0, len(series))
	for _, entry := range series {
		stage, err := strconv.ParseFloat(strings.TrimSpace(entry.Value), 64)
		if err != nil {
			continue
		}
		ts, err := time.Parse(time.RFC3339, entry.DateTime)
		if err != nil {
			continue
		}
		readings = append(readings, GaugeReading{Timestamp: ts, StageFeet: stage})
	}
	return readings, nil
}

func (c httpGetter) getJSON(ctx context.Context, path string) ([]byte, error) {
	for attempt := 0; ; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json")
		if c.userAgent != "" {
			req.Header.Set("User-Agent", c.userAgent)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			if attempt < c.maxRetries {
				if waitErr := sleepContext(ctx, retryDelay(c.baseDelay, c.maxDelay, attempt+1, "")); waitErr != nil {
					return nil, waitErr
				}
				continue
			}
			return nil, err
		}
		body, readErr := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		if readErr != nil {
			return nil, readErr
		}
		if resp.StatusCode >= 200 && resp.StatusCode <= 299 {
			return body, nil
		}
		if (resp.StatusCode == http.StatusTooManyRequests || (resp.StatusCode >= 500 && resp.StatusCode <= 599)) && attempt < c.maxRetries {
			if waitErr := sleepContext(ctx, retryDelay(c.baseDelay, c.maxDelay, attempt+1, resp.Header.Get("Retry-After"))); waitErr != nil {
				return nil, waitErr
			}
			continue
		}
		return nil, &HTTPError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(body))}
	}
}

// StationURL is the public monitoring page for a gauge site.
func StationURL(site string) string {
	return "https://waterdata.usgs.gov/monitoring-location/" + url.PathEscape(site) + "/"
}

func retryDelay(baseDelay, maxDelay time.Duration, attempt int, retryAfterHeader string) time.Duration {
	if retryAfter := parseRetryAfterSeconds(retryAfterHeader); retryAfter > 0 {
		if retryAfter > maxDelay {
			return maxDelay
		}
		return retryAfter
	}
	delay := baseDelay
	for i := 1; i < attempt; i++ {
		delay *= 2
		if delay >= maxDelay {
			return maxDelay
		}
	}
	if delay > maxDelay {
		return maxDelay
	}
	return delay
}

func parseRetryAfterSeconds(header string) time.Duration {
	header = strings.TrimSpace(header)
	if header == "" {
		return 0
	}
	seconds, err := strconv.Atoi(header)
	if err != nil || seconds < 0 {
		return 0
	}
	return time.Duration(seconds) * time.Second
}

func sleepContext(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return nil
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
