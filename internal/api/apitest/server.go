// Package apitest provides an in-memory deployment service for tests.
package apitest

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/gorilla/mux"

	"github.com/humanzai/cpdash/pkg/models"
)

// Token is the bearer token the fake service accepts
const Token = "test-token"

// Request records a mutating call received by the fake service
type Request struct {
	Method     string
	Path       string
	App        string
	Deployment string
	Body       string
}

// Server is a fake deployment service backed by httptest
type Server struct {
	*httptest.Server

	mu       sync.Mutex
	apps     []models.App
	history  map[string][]models.HistoryEntry
	metrics  map[string]map[string]*models.MetricsEntry
	keys     map[string][]models.DeploymentKey
	requests []Request
	failures map[string]int
}

// NewServer starts a fake service that is closed when the test ends
func NewServer(t *testing.T) *Server {
	t.Helper()

	s := &Server{
		history:  make(map[string][]models.HistoryEntry),
		metrics:  make(map[string]map[string]*models.MetricsEntry),
		keys:     make(map[string][]models.DeploymentKey),
		failures: make(map[string]int),
	}

	r := mux.NewRouter()
	r.Use(s.requireToken)
	r.HandleFunc("/apps", s.handleApps).Methods(http.MethodGet)
	r.HandleFunc("/apps/{app}/deployments", s.handleKeys).Methods(http.MethodGet)
	r.HandleFunc("/apps/{app}/deployments/{deployment}/history", s.handleHistory).Methods(http.MethodGet)
	r.HandleFunc("/apps/{app}/deployments/{deployment}/metrics", s.handleMetrics).Methods(http.MethodGet)
	r.HandleFunc("/apps/{app}/deployments/{deployment}/release", s.record).Methods(http.MethodPatch)
	r.HandleFunc("/apps/{app}/deployments/{deployment}/rollback", s.record).Methods(http.MethodPost)
	r.HandleFunc("/apps/{app}/deployments/{deployment}/rollback/{target}", s.record).Methods(http.MethodPost)

	s.Server = httptest.NewServer(r)
	t.Cleanup(s.Close)
	return s
}

func key(app, deployment string) string {
	return app + "/" + deployment
}

// AddApp registers an app and its deployment names
func (s *Server) AddApp(app models.App) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.apps = append(s.apps, app)
}

// SetHistory sets the history returned for a deployment
func (s *Server) SetHistory(app, deployment string, entries []models.HistoryEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history[key(app, deployment)] = entries
}

// SetMetrics sets the metrics payload returned for a deployment
func (s *Server) SetMetrics(app, deployment string, byLabel map[string]*models.MetricsEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.metrics[key(app, deployment)] = byLabel
}

// SetKeys sets the deployment keys returned for an app
func (s *Server) SetKeys(app string, keys []models.DeploymentKey) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.keys[app] = keys
}

// FailNext makes the next request to path answer with status
func (s *Server) FailNext(path string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[path] = status
}

// Requests returns the mutating requests received so far
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Request, len(s.requests))
	copy(out, s.requests)
	return out
}

func (s *Server) requireToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer "+Token {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid token"})
			return
		}

		s.mu.Lock()
		status, fail := s.failures[r.URL.Path]
		delete(s.failures, r.URL.Path)
		s.mu.Unlock()
		if fail {
			writeJSON(w, status, map[string]string{"error": "injected failure"})
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleApps(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]any{"apps": s.apps})
}

func (s *Server) handleKeys(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	app := mux.Vars(r)["app"]
	keys, ok := s.keys[app]
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "app not found"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"deployments": keys})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	vars := mux.Vars(r)
	entries, ok := s.history[key(vars["app"], vars["deployment"])]
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "deployment not found"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"history": entries})
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	vars := mux.Vars(r)
	writeJSON(w, http.StatusOK, map[string]any{"metrics": s.metrics[key(vars["app"], vars["deployment"])]})
}

func (s *Server) record(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	vars := mux.Vars(r)

	s.mu.Lock()
	s.requests = append(s.requests, Request{
		Method:     r.Method,
		Path:       r.URL.Path,
		App:        vars["app"],
		Deployment: vars["deployment"],
		Body:       string(body),
	})
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
