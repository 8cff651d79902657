package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/apexestimating/fieldcheck/internal/httpapi"
	"github.com/apexestimating/fieldcheck/internal/weather"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	addr := os.Getenv("TROUTWX_ADDR")
	if addr == "" {
		addr = ":8090"
	}

	service := weather.NewService(weather.ServiceOptions{
		USGS: weather.NewUSGSClient(weather.USGSClientOptions{
			BaseURL:   os.Getenv("TROUTWX_USGS_BASE_URL"),
			UserAgent: os.Getenv("TROUTWX_USER_AGENT"),
		}),
		Forecast: weather.NewForecastClient(weather.ForecastClientOptions{
			BaseURL:   os.Getenv("TROUTWX_OPEN_METEO_BASE_URL"),
			UserAgent: os.Getenv("TROUTWX_USER_AGENT"),
		}),
		CacheEntries: intEnv("TROUTWX_CACHE_ENTRIES", 0),
		RiverTTL:     durationEnv("TROUTWX_RIVER_TTL", 0),
		ForecastTTL:  durationEnv("TROUTWX_FORECAST_TTL", 0),
	})

	server := httpapi.NewWeatherServerWithConfig(service, httpapi.WeatherServerConfig{
		RateLimitMax:    intEnv("TROUTWX_RATE_LIMIT_MAX", 0),
		RateLimitWindow: durationEnv("TROUTWX_RATE_LIMIT_WINDOW", time.Minute),
	})

	httpServer := &http.Server{Addr: addr, Handler: server}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = httpServer.Shutdown(shutdownCtx)
	}()

	log.Printf("troutwx listening on %s", addr)
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("server failed: %v", err)
	}
}

func intEnv(name string, fallback int) int {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		log.Printf("invalid %s=%q, using fallback %d", name, raw, fallback)
		return fallback
	}
	return value
}

func durationEnv(name string, fallback time.Duration) time.Duration {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback
	}
	value, err := time.ParseDuration(raw)
	if err != nil {
		log.Printf("invalid %s=%q, using fallback %s", name, raw, fallback.String())
		return fallback
	}
	return value
}
