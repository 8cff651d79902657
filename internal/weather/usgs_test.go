package weather

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

const usgsFixture = `{
  "value": {
    "timeSeries": [
      {
        "values": [
          {
            "value": [
              {"value": "2.31", "dateTime": "2025-03-13T10:00:00.000-04:00"},
              {"value": "not-a-number", "dateTime": "2025-03-13T10:15:00.000-04:00"},
              {"value": "2.35", "dateTime": "bad-date"},
              {"value": "2.40", "dateTime": "2025-03-13T10:30:00.000-04:00"}
            ]
          }
        ]
      }
    ]
  }
}`

func TestUSGSStageReadingsParsesAndFilters(t *testing.T) {
	var gotQuery atomic.Value
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery.Store(r.URL.Query().Encode())
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(usgsFixture))
	}))
	defer server.Close()

	client := NewUSGSClient(USGSClientOptions{BaseURL: server.URL})
	readings, err := client.StageReadings(context.Background(), "02140510")
	if err != nil {
		t.Fatalf("stage readings failed: %v", err)
	}
	if len(readings) != 2 {
		t.Fatalf("expected 2 valid readings, got %d", len(readings))
	}
	if readings[0].StageFeet != 2.31 || readings[1].StageFeet != 2.40 {
		t.Fatalf("unexpected stage values: %+v", readings)
	}
	if !readings[1].Timestamp.After(readings[0].Timestamp) {
		t.Fatalf("expected readings oldest first")
	}

	query := gotQuery.Load().(string)
	for _, want := range []string{"sites=02140510", "parameterCd=00065", "period=P7D", "format=json"} {
		if !strings.Contains(query, want) {
			t.Fatalf("expected query to contain %q, got %q", want, query)
		}
	}
}

func TestUSGSRetriesOn500ThenSucceeds(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			http.Error(w, "upstream hiccup", http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte(usgsFixture))
	}))
	defer server.Close()

	client := NewUSGSClient(USGSClientOptions{
		BaseURL:   server.URL,
		BaseDelay: time.Millisecond,
		MaxDelay:  2 * time.Millisecond,
	})
	readings, err := client.StageReadings(context.Background(), "02140510")
	if err != nil {
		t.Fatalf("expected retry to recover, got %v", err)
	}
	if len(readings) == 0 {
		t.Fatalf("expected readings after retry")
	}
	if got := atomic.LoadInt32(&calls); got != 2 {
		t.Fatalf("expected 2 requests, got %d", got)
	}
}

func TestUSGSSurfacesTypedHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "no such site", http.StatusBadRequest)
	}))
	defer server.Close()

	client := NewUSGSClient(USGSClientOptions{BaseURL: server.URL})
	_, err := client.StageReadings(context.Background(), "00000000")
	var httpErr *HTTPError
	if !errors.As(err, &httpErr) {
		t.Fatalf("expected *HTTPError, got %v", err)
	}
	if httpErr.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", httpErr.StatusCode)
	}
}

func TestUSGSEmptySiteIsNoGauge(t *testing.T) {
	client := NewUSGSClient(USGSClientOptions{})
	if _, err := client.StageReadings(context.Background(), "  "); !errors.Is(err, ErrNoGauge) {
		t.Fatalf("expected ErrNoGauge, got %v", err)
	}
}
