// Package httpapi exposes the checklist daemon and the weather data
// plane over HTTP. Checklist routes require an HS256 bearer token
// with the matching scope; weather routes are public.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"math"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/apexestimating/fieldcheck/internal/checklist"
	"github.com/apexestimating/fieldcheck/internal/syncer"
)

type ServerConfig struct {
	JWTSecret       string
	RateLimitMax    int
	RateLimitWindow time.Duration
	MaxBodyBytes    int64
	StreamInterval  time.Duration
}

type Server struct {
	reconciler  *syncer.Reconciler
	cfg         ServerConfig
	rateLimiter *rateLimiter
}

type rateLimiter struct {
	mu      sync.Mutex
	window  time.Duration
	max     int
	entries map[string]rateEntry
}

type rateEntry struct {
	count   int
	resetAt time.Time
}

func NewServer(reconciler *syncer.Reconciler) *Server {
	return NewServerWithConfig(reconciler, ServerConfig{})
}

func NewServerWithConfig(reconciler *syncer.Reconciler, cfg ServerConfig) *Server {
	if cfg.JWTSecret == "" {
		cfg.JWTSecret = "dev-secret"
	}
	if cfg.RateLimitMax < 0 {
		cfg.RateLimitMax = 0
	}
	if cfg.RateLimitWindow <= 0 {
		cfg.RateLimitWindow = time.Minute
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = 1 << 20
	}
	if cfg.StreamInterval <= 0 {
		cfg.StreamInterval = time.Second
	}
	var limiter *rateLimiter
	if cfg.RateLimitMax > 0 {
		limiter = &rateLimiter{
			window:  cfg.RateLimitWindow,
			max:     cfg.RateLimitMax,
			entries: map[string]rateEntry{},
		}
	}
	return &Server{
		reconciler:  reconciler,
		cfg:         cfg,
		rateLimiter: limiter,
	}
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path == "/health" && r.Method == http.MethodGet {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		return
	}
	if r.URL.Path == "/" && r.Method == http.MethodGet {
		s.handleDashboard(w, r)
		return
	}

	parts := strings.Split(strings.TrimPrefix(r.URL.Path, "/"), "/")
	if len(parts) < 2 || parts[0] != "v1" {
		writeError(w, http.StatusNotFound, "not_found", "route not found", getCorrelationID(r))
		return
	}

	var requiredScope string
	var route string
	switch {
	case len(parts) == 2 && parts[1] == "checklist" && r.Method == http.MethodGet:
		requiredScope = "checklist:read"
		route = "state"
	case len(parts) == 3 && parts[1] == "checklist" && parts[2] == "new" && r.Method == http.MethodPost:
		requiredScope = "checklist:write"
		route = "new"
	case len(parts) == 3 && parts[1] == "checklist" && parts[2] == "answer" && r.Method == http.MethodPost:
		requiredScope = "checklist:write"
		route = "answer"
	case len(parts) == 3 && parts[1] == "checklist" && parts[2] == "client" && r.Method == http.MethodPost:
		requiredScope = "checklist:write"
		route = "client"
	case len(parts) == 3 && parts[1] == "checklist" && parts[2] == "location" && r.Method == http.MethodPost:
		requiredScope = "checklist:write"
		route = "location"
	case len(parts) == 3 && parts[1] == "checklist" && parts[2] == "notes" && r.Method == http.MethodPost:
		requiredScope = "checklist:write"
		route = "notes"
	case len(parts) == 3 && parts[1] == "checklist" && parts[2] == "reset" && r.Method == http.MethodPost:
		requiredScope = "checklist:write"
		route = "reset"
	case len(parts) == 3 && parts[1] == "sync" && parts[2] == "status" && r.Method == http.MethodGet:
		requiredScope = "sync:read"
		route = "sync_status"
	case len(parts) == 3 && parts[1] == "sync" && parts[2] == "refresh" && r.Method == http.MethodPost:
		requiredScope = "sync:trigger"
		route = "sync_refresh"
	case len(parts) == 3 && parts[1] == "sync" && parts[2] == "stream" && r.Method == http.MethodGet:
		requiredScope = "sync:read"
		route = "sync_stream"
	case len(parts) == 3 && parts[1] == "session" && parts[2] == "signout" && r.Method == http.MethodPost:
		requiredScope = "session:write"
		route = "session_signout"
	case len(parts) == 2 && parts[1] == "reviews" && r.Method == http.MethodGet:
		requiredScope = "checklist:read"
		route = "reviews_list"
	case len(parts) == 4 && parts[1] == "reviews" && parts[3] == "load" && r.Method == http.MethodPost:
		requiredScope = "checklist:write"
		route = "review_load"
	case len(parts) == 3 && parts[1] == "reviews" && r.Method == http.MethodDelete:
		requiredScope = "checklist:write"
		route = "review_delete"
	default:
		writeError(w, http.StatusNotFound, "not_found", "route not found", getCorrelationID(r))
		return
	}

	claims, authErr := authorizeBearer(r.Header.Get("Authorization"), s.cfg.JWTSecret, requiredScope, time.Now().UTC())
	if authErr != nil {
		writeError(w, authErr.status, authErr.code, authErr.message, getCorrelationID(r))
		return
	}
	correlationID := getCorrelationID(r)
	if correlationID == "" {
		writeError(w, http.StatusBadRequest, "bad_request", "missing X-Correlation-Id header", "")
		return
	}
	if s.rateLimiter != nil {
		key := claims.UserID + "|" + claims.Device
		if !s.rateLimiter.allow(key, time.Now().UTC()) {
			retryAfter := int(math.Ceil(s.rateLimiter.window.Seconds()))
			if retryAfter < 1 {
				retryAfter = 1
			}
			w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
			writeError(w, http.StatusTooManyRequests, "rate_limited", "rate limit exceeded", correlationID)
			return
		}
	}

	switch route {
	case "state":
		s.handleState(w, correlationID)
	case "new":
		s.handleNew(w, r, correlationID)
	case "answer":
		s.handleAnswer(w, r, correlationID)
	case "client":
		s.handleClient(w, r, correlationID)
	case "location":
		s.handleLocation(w, r, correlationID)
	case "notes":
		s.handleNotes(w, r, correlationID)
	case "reset":
		s.handleReset(w, r, correlationID)
	case "sync_status":
		s.handleSyncStatus(w, correlationID)
	case "sync_refresh":
		s.handleSyncRefresh(w, r, correlationID)
	case "sync_stream":
		s.handleSyncStream(w, r)
	case "session_signout":
		s.handleSignOut(w, r, correlationID)
	case "reviews_list":
		s.handleReviewsList(w, r, correlationID)
	case "review_load":
		s.handleReviewLoad(w, r, parts[2], correlationID)
	case "review_delete":
		s.handleReviewDelete(w, r, parts[2], correlationID)
	default:
		writeError(w, http.StatusNotFound, "not_found", "route not found", correlationID)
	}
}

type syncState struct {
	Status    string `json:"status"`
	LastError string `json:"lastError,omitempty"`
}

type checklistState struct {
	Checklist *checklist.Checklist `json:"checklist"`
	Progress  checklist.Progress   `json:"progress"`
	Metrics   checklist.Metrics    `json:"metrics"`
	Sync      syncState            `json:"sync"`
}

func (s *Server) currentState() checklistState {
	current := s.reconciler.Current()
	status, lastErr := s.reconciler.State()
	state := checklistState{
		Checklist: current,
		Sync:      syncState{Status: string(status), LastError: lastErr},
	}
	if current != nil {
		state.Progress = checklist.CalculateProgress(checklist.VisibleItems(current.Items, current.Client))
		state.Metrics = current.CalculateMetrics()
	}
	return state
}

func (s *Server) handleState(w http.ResponseWriter, correlationID string) {
	state := s.currentState()
	if state.Checklist == nil {
		writeError(w, http.StatusNotFound, "not_found", "no active checklist", correlationID)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

func (s *Server) handleNew(w http.ResponseWriter, r *http.Request, correlationID string) {
	if _, err := s.reconciler.Load(r.Context(), true); err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error(), correlationID)
		return
	}
	writeJSON(w, http.StatusCreated, s.currentState())
}

func (s *Server) handleAnswer(w http.ResponseWriter, r *http.Request, correlationID string) {
	var req struct {
		ItemID string `json:"itemId"`
		Answer string `json:"answer"`
	}
	if !s.decodeJSONBody(w, r, correlationID, &req) {
		return
	}
	if strings.TrimSpace(req.ItemID) == "" {
		writeError(w, http.StatusBadRequest, "bad_request", "itemId is required", correlationID)
		return
	}
	_, completed, err := s.reconciler.Answer(r.Context(), req.ItemID, checklist.Answer(req.Answer))
	if err != nil {
		s.writeMutationError(w, err, correlationID)
		return
	}
	state := s.currentState()
	writeJSON(w, http.StatusOK, struct {
		checklistState
		Completed bool `json:"completed"`
	}{state, completed})
}

func (s *Server) handleClient(w http.ResponseWriter, r *http.Request, correlationID string) {
	var req struct {
		Client string `json:"client"`
	}
	if !s.decodeJSONBody(w, r, correlationID, &req) {
		return
	}
	if _, err := s.reconciler.SetClient(r.Context(), checklist.Client(req.Client)); err != nil {
		s.writeMutationError(w, err, correlationID)
		return
	}
	writeJSON(w, http.StatusOK, s.currentState())
}

func (s *Server) handleLocation(w http.ResponseWriter, r *http.Request, correlationID string) {
	var req struct {
		LocationNumber string `json:"locationNumber"`
	}
	if !s.decodeJSONBody(w, r, correlationID, &req) {
		return
	}
	if _, err := s.reconciler.SetLocationNumber(r.Context(), req.LocationNumber); err != nil {
		s.writeMutationError(w, err, correlationID)
		return
	}
	writeJSON(w, http.StatusOK, s.currentState())
}

func (s *Server) handleNotes(w http.ResponseWriter, r *http.Request, correlationID string) {
	var req struct {
		Message string `json:"message"`
	}
	if !s.decodeJSONBody(w, r, correlationID, &req) {
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		writeError(w, http.StatusBadRequest, "bad_request", "message is required", correlationID)
		return
	}
	if _, err := s.reconciler.AddNote(r.Context(), req.Message); err != nil {
		s.writeMutationError(w, err, correlationID)
		return
	}
	writeJSON(w, http.StatusOK, s.currentState())
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request, correlationID string) {
	if _, err := s.reconciler.ResetChecklist(r.Context()); err != nil {
		s.writeMutationError(w, err, correlationID)
		return
	}
	writeJSON(w, http.StatusOK, s.currentState())
}

func (s *Server) handleSyncStatus(w http.ResponseWriter, correlationID string) {
	status, lastErr := s.reconciler.State()
	writeJSON(w, http.StatusOK, syncState{Status: string(status), LastError: lastErr})
}

func (s *Server) handleSyncRefresh(w http.ResponseWriter, r *http.Request, correlationID string) {
	if err := s.reconciler.SyncNow(r.Context()); err != nil {
		status, lastErr := s.reconciler.State()
		writeJSON(w, http.StatusBadGateway, syncState{Status: string(status), LastError: lastErr})
		return
	}
	s.handleSyncStatus(w, correlationID)
}

// handleSyncStream pushes the sync state over a websocket until the
// client goes away.
func (s *Server) handleSyncStream(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close(websocket.StatusNormalClosure, "stream closed")

	ctx := r.Context()
	ticker := time.NewTicker(s.cfg.StreamInterval)
	defer ticker.Stop()

	var last syncState
	first := true
	for {
		status, lastErr := s.reconciler.State()
		state := syncState{Status: string(status), LastError: lastErr}
		if first || state != last {
			if err := wsjson.Write(ctx, conn, state); err != nil {
				return
			}
			last = state
			first = false
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (s *Server) handleSignOut(w http.ResponseWriter, r *http.Request, correlationID string) {
	if err := s.reconciler.SignOut(r.Context()); err != nil {
		s.writeMutationError(w, err, correlationID)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "signed_out"})
}

func (s *Server) handleReviewsList(w http.ResponseWriter, r *http.Request, correlationID string) {
	groups, err := s.reconciler.ListReviews(r.Context())
	if err != nil {
		s.writeMutationError(w, err, correlationID)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"locations": groups})
}

func (s *Server) handleReviewLoad(w http.ResponseWriter, r *http.Request, id, correlationID string) {
	review, err := s.reconciler.LoadReview(r.Context(), id)
	if err != nil {
		s.writeMutationError(w, err, correlationID)
		return
	}
	if review == nil {
		writeError(w, http.StatusNotFound, "not_found", "review not found", correlationID)
		return
	}
	writeJSON(w, http.StatusOK, s.currentState())
}

func (s *Server) handleReviewDelete(w http.ResponseWriter, r *http.Request, id, correlationID string) {
	if err := s.reconciler.DeleteReview(r.Context(), id); err != nil {
		s.writeMutationError(w, err, correlationID)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (s *Server) writeMutationError(w http.ResponseWriter, err error, correlationID string) {
	switch {
	case errors.Is(err, syncer.ErrNoChecklist):
		writeError(w, http.StatusNotFound, "not_found", err.Error(), correlationID)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		writeError(w, http.StatusGatewayTimeout, "timeout", err.Error(), correlationID)
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error(), correlationID)
	}
}

func getCorrelationID(r *http.Request) string {
	return r.Header.Get("X-Correlation-Id")
}

func (s *Server) readRequestBody(w http.ResponseWriter, r *http.Request, correlationID string) ([]byte, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxBodyBytes)
	body, err := io.ReadAll(r.Body)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeError(w, http.StatusRequestEntityTooLarge, "payload_too_large", "request body exceeds configured limit", correlationID)
			return nil, false
		}
		writeError(w, http.StatusBadRequest, "bad_request", "failed to read request body", correlationID)
		return nil, false
	}
	return body, true
}

func (s *Server) decodeJSONBody(w http.ResponseWriter, r *http.Request, correlationID string, dst any) bool {
	body, ok := s.readRequestBody(w, r, correlationID)
	if !ok {
		return false
	}
	if err := json.Unmarshal(body, dst); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid json body", correlationID)
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, code, message, correlationID string) {
	writeJSON(w, status, map[string]any{
		"code":          code,
		"message":       message,
		"correlationId": correlationID,
	})
}

func (l *rateLimiter) allow(key string, now time.Time) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	entry, ok := l.entries[key]
	if !ok || now.After(entry.resetAt) {
		l.entries[key] = rateEntry{
			count:   1,
			resetAt: now.Add(l.window),
		}
		return true
	}
	if entry.count >= l.max {
		return false
	}
	entry.count++
	l.entries[key] = entry
	return true
}
