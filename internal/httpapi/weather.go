package httpapi

import (
	"errors"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/apexestimating/fieldcheck/internal/weather"
)

type WeatherServerConfig struct {
	RateLimitMax    int
	RateLimitWindow time.Duration
}

// WeatherServer is the public data plane behind the dashboard: the
// location registry, USGS river stage and the Open-Meteo forecast.
// No auth; rate limited per client address.
type WeatherServer struct {
	service     *weather.Service
	rateLimiter *rateLimiter
}

func NewWeatherServer(service *weather.Service) *WeatherServer {
	return NewWeatherServerWithConfig(service, WeatherServerConfig{})
}

func NewWeatherServerWithConfig(service *weather.Service, cfg WeatherServerConfig) *WeatherServer {
	if cfg.RateLimitWindow <= 0 {
		cfg.RateLimitWindow = time.Minute
	}
	var limiter *rateLimiter
	if cfg.RateLimitMax > 0 {
		limiter = &rateLimiter{
			window:  cfg.RateLimitWindow,
			max:     cfg.RateLimitMax,
			entries: map[string]rateEntry{},
		}
	}
	return &WeatherServer{service: service, rateLimiter: limiter}
}

func (s *WeatherServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path == "/health" && r.Method == http.MethodGet {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		return
	}
	if r.URL.Path == "/" && r.Method == http.MethodGet {
		s.handleDashboard(w, r)
		return
	}

	if s.rateLimiter != nil {
		if !s.rateLimiter.allow(clientAddr(r), time.Now().UTC()) {
			retryAfter := int(math.Ceil(s.rateLimiter.window.Seconds()))
			if retryAfter < 1 {
				retryAfter = 1
			}
			w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
			writeError(w, http.StatusTooManyRequests, "rate_limited", "rate limit exceeded", getCorrelationID(r))
			return
		}
	}

	parts := strings.Split(strings.TrimPrefix(r.URL.Path, "/"), "/")
	switch {
	case len(parts) == 3 && parts[0] == "v1" && parts[1] == "weather" && parts[2] == "locations" && r.Method == http.MethodGet:
		writeJSON(w, http.StatusOK, map[string]any{"locations": s.service.Locations()})
	case len(parts) == 4 && parts[0] == "v1" && parts[1] == "weather" && parts[3] == "river" && r.Method == http.MethodGet:
		s.handleRiver(w, r, parts[2])
	case len(parts) == 4 && parts[0] == "v1" && parts[1] == "weather" && parts[3] == "forecast" && r.Method == http.MethodGet:
		s.handleForecast(w, r, parts[2])
	default:
		writeError(w, http.StatusNotFound, "not_found", "route not found", getCorrelationID(r))
	}
}

func (s *WeatherServer) handleRiver(w http.ResponseWriter, r *http.Request, locationID string) {
	data, err := s.service.River(r.Context(), locationID)
	if err != nil {
		s.writeWeatherError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, data)
}

func (s *WeatherServer) handleForecast(w http.ResponseWriter, r *http.Request, locationID string) {
	forecast, err := s.service.LocationForecast(r.Context(), locationID)
	if err != nil {
		s.writeWeatherError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, forecast)
}

func (s *WeatherServer) writeWeatherError(w http.ResponseWriter, r *http.Request, err error) {
	correlationID := getCorrelationID(r)
	var httpErr *weather.HTTPError
	switch {
	case errors.Is(err, weather.ErrUnknownLocation):
		writeError(w, http.StatusNotFound, "not_found", err.Error(), correlationID)
	case errors.Is(err, weather.ErrNoGauge):
		writeError(w, http.StatusNotFound, "gauge_unavailable",
			"River gauge data is unavailable for this location.", correlationID)
	case errors.As(err, &httpErr):
		writeError(w, http.StatusBadGateway, "upstream_error", err.Error(), correlationID)
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error(), correlationID)
	}
}

func clientAddr(r *http.Request) string {
	if forwarded := strings.TrimSpace(r.Header.Get("X-Forwarded-For")); forwarded != "" {
		if idx := strings.Index(forwarded, ","); idx >= 0 {
			forwarded = forwarded[:idx]
		}
		return strings.TrimSpace(forwarded)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
