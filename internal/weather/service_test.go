package weather

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func TestServiceRiverCachesBySite(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		_, _ = w.Write([]byte(usgsFixture))
	}))
	defer server.Close()

	svc := NewService(ServiceOptions{
		USGS: NewUSGSClient(USGSClientOptions{BaseURL: server.URL}),
	})

	first, err := svc.River(context.Background(), "wilson-creek")
	if err != nil {
		t.Fatalf("river failed: %v", err)
	}
	if first.Site != "02140510" {
		t.Fatalf("expected wilson-creek gauge site, got %q", first.Site)
	}
	if _, ok := first.Latest(); !ok {
		t.Fatalf("expected a latest reading")
	}

	if _, err := svc.River(context.Background(), "wilson-creek"); err != nil {
		t.Fatalf("cached river failed: %v", err)
	}
	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Fatalf("expected one upstream request, got %d", got)
	}
}

func TestServiceRiverNoGauge(t *testing.T) {
	svc := NewService(ServiceOptions{})
	_, err := svc.River(context.Background(), "big-horse-creek")
	if !errors.Is(err, ErrNoGauge) {
		t.Fatalf("expected ErrNoGauge for ungauged location, got %v", err)
	}
}

func TestServiceUnknownLocation(t *testing.T) {
	svc := NewService(ServiceOptions{})
	if _, err := svc.River(context.Background(), "lake-erie"); !errors.Is(err, ErrUnknownLocation) {
		t.Fatalf("expected ErrUnknownLocation, got %v", err)
	}
	if _, err := svc.LocationForecast(context.Background(), "lake-erie"); !errors.Is(err, ErrUnknownLocation) {
		t.Fatalf("expected ErrUnknownLocation, got %v", err)
	}
}

func TestServiceForecastCachesByCoordinates(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		_, _ = w.Write([]byte(openMeteoFixture))
	}))
	defer server.Close()

	svc := NewService(ServiceOptions{
		Forecast: NewForecastClient(ForecastClientOptions{BaseURL: server.URL}),
	})

	if _, err := svc.LocationForecast(context.Background(), "davidson-river"); err != nil {
		t.Fatalf("forecast failed: %v", err)
	}
	if _, err := svc.LocationForecast(context.Background(), "davidson-river"); err != nil {
		t.Fatalf("cached forecast failed: %v", err)
	}
	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Fatalf("expected one upstream request, got %d", got)
	}

	// A different location misses the coordinate-keyed cache.
	if _, err := svc.LocationForecast(context.Background(), "watauga-river"); err != nil {
		t.Fatalf("second location forecast failed: %v", err)
	}
	if got := atomic.LoadInt32(&calls); got != 2 {
		t.Fatalf("expected a second upstream request, got %d", got)
	}
}

func TestLRUCacheEvictsAndExpires(t *testing.T) {
	cache := newLRUCache(2, time.Minute)
	now := time.Date(2025, 3, 14, 12, 0, 0, 0, time.UTC)
	cache.now = func() time.Time { return now }

	cache.put("a", 1)
	cache.put("b", 2)
	if _, ok := cache.get("a"); !ok {
		t.Fatalf("expected a cached")
	}
	cache.put("c", 3) // b is LRU now
	if _, ok := cache.get("b"); ok {
		t.Fatalf("expected b evicted")
	}
	if _, ok := cache.get("a"); !ok {
		t.Fatalf("expected a retained")
	}

	now = now.Add(2 * time.Minute)
	if _, ok := cache.get("a"); ok {
		t.Fatalf("expected a expired after ttl")
	}
}

func TestLocationsRegistryComplete(t *testing.T) {
	locs := Locations()
	if len(locs) != 32 {
		t.Fatalf("expected 32 locations, got %d", len(locs))
	}
	gauged := 0
	seen := map[string]bool{}
	for _, loc := range locs {
		if seen[loc.ID] {
			t.Fatalf("duplicate location id %q", loc.ID)
		}
		seen[loc.ID] = true
		if loc.Latitude == 0 || loc.Longitude == 0 {
			t.Fatalf("location %q missing coordinates", loc.ID)
		}
		if loc.GaugeSite != "" {
			gauged++
		}
	}
	if gauged != 11 {
		t.Fatalf("expected 11 gauged locations, got %d", gauged)
	}
}
