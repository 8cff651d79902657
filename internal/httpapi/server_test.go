package httpapi

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/apexestimating/fieldcheck/internal/checklist"
	"github.com/apexestimating/fieldcheck/internal/localcache"
	"github.com/apexestimating/fieldcheck/internal/remotestore"
	"github.com/apexestimating/fieldcheck/internal/syncer"
)

type memoryStore struct {
	mu      sync.Mutex
	upserts int
	byID    map[string]*checklist.Checklist
	removed []string
}

func newMemoryStore() *memoryStore {
	return &memoryStore{byID: map[string]*checklist.Checklist{}}
}

func (m *memoryStore) LoadLatest(ctx context.Context, ownerID string) (*checklist.Checklist, error) {
	return nil, nil
}

func (m *memoryStore) LoadByID(ctx context.Context, id, ownerID string) (*checklist.Checklist, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.byID[id], nil
}

func (m *memoryStore) Upsert(ctx context.Context, data *checklist.Checklist, ownerID string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.upserts++
	id := data.ID
	if id == "" {
		id = "stored-1"
	}
	m.byID[id] = data
	return id, nil
}

func (m *memoryStore) Remove(ctx context.Context, id, ownerID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.byID, id)
	m.removed = append(m.removed, id)
	return nil
}

func (m *memoryStore) ListSummaries(ctx context.Context, ownerID string) ([]remotestore.LocationGroup, error) {
	return []remotestore.LocationGroup{
		{LocationNumber: "4471", Client: "Walgreens", Checklists: []remotestore.Summary{{ID: "stored-1"}}},
	}, nil
}

func (m *memoryStore) Ping(ctx context.Context) error { return nil }
func (m *memoryStore) Close() error                   { return nil }

func newTestServer(t *testing.T, cfg ServerConfig) (*Server, *memoryStore) {
	t.Helper()
	store := newMemoryStore()
	reconciler, err := syncer.NewReconciler(syncer.Options{
		Store:   store,
		Cache:   localcache.NewMemoryCache(),
		Session: syncer.NewStaticSession(syncer.User{ID: "u1"}),
		Clock:   clockwork.NewFakeClock(),
	})
	if err != nil {
		t.Fatalf("new reconciler: %v", err)
	}
	if _, err := reconciler.Load(context.Background(), true); err != nil {
		t.Fatalf("load checklist: %v", err)
	}
	return NewServerWithConfig(reconciler, cfg), store
}

func TestAuthRequired(t *testing.T) {
	server, _ := newTestServer(t, ServerConfig{})
	rec := doRequest(t, server, request{method: http.MethodGet, path: "/v1/checklist"})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestScopeEnforced(t *testing.T) {
	server, _ := newTestServer(t, ServerConfig{})
	token := mustTestJWT(t, "dev-secret", "u1", "tablet-1", []string{"checklist:read"}, time.Now().Add(time.Hour))
	rec := doRequest(t, server, request{
		method:  http.MethodPost,
		path:    "/v1/checklist/answer",
		headers: authHeaders(token, "corr_1"),
		body:    map[string]any{"itemId": "ce-1", "answer": "yes"},
	})
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 without write scope, got %d (%s)", rec.Code, rec.Body.String())
	}
}

func TestMissingCorrelationIDRejected(t *testing.T) {
	server, _ := newTestServer(t, ServerConfig{})
	token := mustTestJWT(t, "dev-secret", "u1", "tablet-1", []string{"checklist:read"}, time.Now().Add(time.Hour))
	rec := doRequest(t, server, request{
		method:  http.MethodGet,
		path:    "/v1/checklist",
		headers: map[string]string{"Authorization": "Bearer " + token},
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without correlation id, got %d", rec.Code)
	}
}

func TestWrongAudienceRejected(t *testing.T) {
	server, _ := newTestServer(t, ServerConfig{})
	token := mustTestJWTWithAudience(t, "dev-secret", "u1", "tablet-1", []string{"checklist:read"}, "other-app", time.Now().Add(time.Hour))
	rec := doRequest(t, server, request{
		method:  http.MethodGet,
		path:    "/v1/checklist",
		headers: authHeaders(token, "corr_aud"),
	})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for wrong audience, got %d", rec.Code)
	}
}

func TestStateAnswerAndClientFlow(t *testing.T) {
	server, _ := newTestServer(t, ServerConfig{})
	token := mustTestJWT(t, "dev-secret", "u1", "tablet-1",
		[]string{"checklist:read", "checklist:write", "sync:read"}, time.Now().Add(time.Hour))

	stateResp := doRequest(t, server, request{
		method:  http.MethodGet,
		path:    "/v1/checklist",
		headers: authHeaders(token, "corr_1"),
	})
	if stateResp.Code != http.StatusOK {
		t.Fatalf("expected 200 on state, got %d (%s)", stateResp.Code, stateResp.Body.String())
	}
	var state struct {
		Progress checklist.Progress `json:"progress"`
		Sync     struct {
			Status string `json:"status"`
		} `json:"sync"`
	}
	if err := json.NewDecoder(stateResp.Body).Decode(&state); err != nil {
		t.Fatalf("decode state: %v", err)
	}
	if state.Progress.Total != 11 {
		t.Fatalf("expected 11 visible items with no client, got %d", state.Progress.Total)
	}
	if state.Sync.Status != "synced" {
		t.Fatalf("expected initial synced status, got %q", state.Sync.Status)
	}

	clientResp := doRequest(t, server, request{
		method:  http.MethodPost,
		path:    "/v1/checklist/client",
		headers: authHeaders(token, "corr_2"),
		body:    map[string]any{"client": "Walgreens"},
	})
	if clientResp.Code != http.StatusOK {
		t.Fatalf("expected 200 on client select, got %d (%s)", clientResp.Code, clientResp.Body.String())
	}
	if err := json.NewDecoder(clientResp.Body).Decode(&state); err != nil {
		t.Fatalf("decode client response: %v", err)
	}
	if state.Progress.Total != 12 {
		t.Fatalf("expected conditional item visible for Walgreens, got total %d", state.Progress.Total)
	}

	answerResp := doRequest(t, server, request{
		method:  http.MethodPost,
		path:    "/v1/checklist/answer",
		headers: authHeaders(token, "corr_3"),
		body:    map[string]any{"itemId": "ce-1", "answer": "yes"},
	})
	if answerResp.Code != http.StatusOK {
		t.Fatalf("expected 200 on answer, got %d (%s)", answerResp.Code, answerResp.Body.String())
	}
	var answered struct {
		Progress  checklist.Progress `json:"progress"`
		Completed bool               `json:"completed"`
	}
	if err := json.NewDecoder(answerResp.Body).Decode(&answered); err != nil {
		t.Fatalf("decode answer response: %v", err)
	}
	if answered.Completed {
		t.Fatalf("expected incomplete checklist")
	}
	if answered.Progress.Completed != 1 {
		t.Fatalf("expected 1 completed item, got %d", answered.Progress.Completed)
	}
}

func TestAnswerMissingItemIDRejected(t *testing.T) {
	server, _ := newTestServer(t, ServerConfig{})
	token := mustTestJWT(t, "dev-secret", "u1", "tablet-1", []string{"checklist:write"}, time.Now().Add(time.Hour))
	rec := doRequest(t, server, request{
		method:  http.MethodPost,
		path:    "/v1/checklist/answer",
		headers: authHeaders(token, "corr_1"),
		body:    map[string]any{"answer": "yes"},
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without itemId, got %d", rec.Code)
	}
}

func TestSyncRefreshFlushesToStore(t *testing.T) {
	server, store := newTestServer(t, ServerConfig{})
	token := mustTestJWT(t, "dev-secret", "u1", "tablet-1",
		[]string{"checklist:write", "sync:trigger", "sync:read"}, time.Now().Add(time.Hour))

	doRequest(t, server, request{
		method:  http.MethodPost,
		path:    "/v1/checklist/notes",
		headers: authHeaders(token, "corr_1"),
		body:    map[string]any{"message": "Gate code is 8841"},
	})
	rec := doRequest(t, server, request{
		method:  http.MethodPost,
		path:    "/v1/sync/refresh",
		headers: authHeaders(token, "corr_2"),
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 on sync refresh, got %d (%s)", rec.Code, rec.Body.String())
	}
	store.mu.Lock()
	upserts := store.upserts
	store.mu.Unlock()
	if upserts != 1 {
		t.Fatalf("expected one upsert after refresh, got %d", upserts)
	}
}

func TestReviewsListAndDelete(t *testing.T) {
	server, store := newTestServer(t, ServerConfig{})
	token := mustTestJWT(t, "dev-secret", "u1", "tablet-1",
		[]string{"checklist:read", "checklist:write"}, time.Now().Add(time.Hour))

	listResp := doRequest(t, server, request{
		method:  http.MethodGet,
		path:    "/v1/reviews",
		headers: authHeaders(token, "corr_1"),
	})
	if listResp.Code != http.StatusOK {
		t.Fatalf("expected 200 on reviews list, got %d (%s)", listResp.Code, listResp.Body.String())
	}
	var listed struct {
		Locations []remotestore.LocationGroup `json:"locations"`
	}
	if err := json.NewDecoder(listResp.Body).Decode(&listed); err != nil {
		t.Fatalf("decode reviews: %v", err)
	}
	if len(listed.Locations) != 1 || listed.Locations[0].LocationNumber != "4471" {
		t.Fatalf("unexpected review groups: %+v", listed.Locations)
	}

	delResp := doRequest(t, server, request{
		method:  http.MethodDelete,
		path:    "/v1/reviews/stored-1",
		headers: authHeaders(token, "corr_2"),
	})
	if delResp.Code != http.StatusOK {
		t.Fatalf("expected 200 on delete, got %d (%s)", delResp.Code, delResp.Body.String())
	}
	store.mu.Lock()
	removed := append([]string(nil), store.removed...)
	store.mu.Unlock()
	if len(removed) != 1 || removed[0] != "stored-1" {
		t.Fatalf("expected stored-1 removed, got %v", removed)
	}
}

func TestRateLimit(t *testing.T) {
	server, _ := newTestServer(t, ServerConfig{RateLimitMax: 2, RateLimitWindow: time.Minute})
	token := mustTestJWT(t, "dev-secret", "u1", "tablet-1", []string{"checklist:read"}, time.Now().Add(time.Hour))

	for i := 0; i < 2; i++ {
		rec := doRequest(t, server, request{
			method:  http.MethodGet,
			path:    "/v1/checklist",
			headers: authHeaders(token, "corr_ok"),
		})
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200 within limit, got %d", rec.Code)
		}
	}
	rec := doRequest(t, server, request{
		method:  http.MethodGet,
		path:    "/v1/checklist",
		headers: authHeaders(token, "corr_limited"),
	})
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 over limit, got %d", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Fatalf("expected Retry-After header on 429")
	}
}

func TestHealthAndDashboardArePublic(t *testing.T) {
	server, _ := newTestServer(t, ServerConfig{})
	health := doRequest(t, server, request{method: http.MethodGet, path: "/health"})
	if health.Code != http.StatusOK {
		t.Fatalf("expected 200 on health, got %d", health.Code)
	}
	dash := doRequest(t, server, request{method: http.MethodGet, path: "/"})
	if dash.Code != http.StatusOK {
		t.Fatalf("expected 200 on dashboard, got %d", dash.Code)
	}
	if ct := dash.Header().Get("Content-Type"); ct != "text/html; charset=utf-8" {
		t.Fatalf("expected html dashboard, got %q", ct)
	}
}

func authHeaders(token, correlationID string) map[string]string {
	return map[string]string{
		"Authorization":    "Bearer " + token,
		"X-Correlation-Id": correlationID,
	}
}

type request struct {
	method  string
	path    string
	headers map[string]string
	body    map[string]any
}

func doRequest(t *testing.T, server http.Handler, r request) *httptest.ResponseRecorder {
	t.Helper()
	var bodyBytes []byte
	if r.body != nil {
		data, err := json.Marshal(r.body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		bodyBytes = data
	}
	req := httptest.NewRequest(r.method, r.path, bytes.NewReader(bodyBytes))
	for k, v := range r.headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	server.ServeHTTP(rec, req)
	return rec
}

func mustTestJWT(t *testing.T, secret, userID, device string, scopes []string, exp time.Time) string {
	return mustTestJWTWithAudience(t, secret, userID, device, scopes, "fieldcheck", exp)
}

func mustTestJWTWithAudience(t *testing.T, secret, userID, device string, scopes []string, aud string, exp time.Time) string {
	t.Helper()
	headerBytes, err := json.Marshal(map[string]any{
		"alg": "HS256",
		"typ": "JWT",
	})
	if err != nil {
		t.Fatalf("marshal jwt header: %v", err)
	}
	payloadBytes, err := json.Marshal(map[string]any{
		"user_id": userID,
		"device":  device,
		"scopes":  scopes,
		"exp":     exp.Unix(),
		"aud":     aud,
	})
	if err != nil {
		t.Fatalf("marshal jwt payload: %v", err)
	}
	h := base64.RawURLEncoding.EncodeToString(headerBytes)
	p := base64.RawURLEncoding.EncodeToString(payloadBytes)
	signingInput := h + "." + p
	mac := hmac.New(sha256.New, []byte(secret))
	_, _ = mac.Write([]byte(signingInput))
	sig := base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
	return signingInput + "." + sig
}

func TestSignOutRouteEndsSession(t *testing.T) {
	store := newMemoryStore()
	session := syncer.NewStaticSession(syncer.User{ID: "u1"})
	reconciler, err := syncer.NewReconciler(syncer.Options{
		Store:   store,
		Cache:   localcache.NewMemoryCache(),
		Session: session,
		Clock:   clockwork.NewFakeClock(),
	})
	if err != nil {
		t.Fatalf("new reconciler: %v", err)
	}
	if _, err := reconciler.Load(context.Background(), true); err != nil {
		t.Fatalf("load checklist: %v", err)
	}
	server := NewServer(reconciler)
	token := mustTestJWT(t, "dev-secret", "u1", "tablet-1",
		[]string{"session:write", "sync:trigger"}, time.Now().Add(time.Hour))

	rec := doRequest(t, server, request{
		method:  http.MethodPost,
		path:    "/v1/session/signout",
		headers: authHeaders(token, "corr_1"),
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 on sign out, got %d (%s)", rec.Code, rec.Body.String())
	}
	if _, signedIn, _ := session.CurrentUser(context.Background()); signedIn {
		t.Fatalf("expected session signed out after route call")
	}

	refresh := doRequest(t, server, request{
		method:  http.MethodPost,
		path:    "/v1/sync/refresh",
		headers: authHeaders(token, "corr_2"),
	})
	if refresh.Code != http.StatusOK {
		t.Fatalf("expected refresh to succeed while signed out, got %d", refresh.Code)
	}
	store.mu.Lock()
	upserts := store.upserts
	store.mu.Unlock()
	if upserts != 0 {
		t.Fatalf("expected no upsert while signed out, got %d", upserts)
	}
}
