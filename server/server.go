package server

import (
	"bytes"
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/go-http-utils/etag"
	"github.com/sardine-ai/go-remote-ini/format"
	"github.com/sardine-ai/go-remote-ini/ini"
	"github.com/sardine-ai/go-remote-ini/model"
	"github.com/sardine-ai/go-remote-ini/source"
	"github.com/sirupsen/logrus"
)

// MinRefreshInterval is the shortest refresh interval NewServer accepts.
const MinRefreshInterval = 5 * time.Second

var reservedNames = map[string]bool{"health": true, "ready": true, "status": true}

// ValidateName reports whether name can be served as the path "/<name>".
func ValidateName(name string) error {
	if name == "" {
		return fmt.Errorf("repository name must not be empty")
	}
	if reservedNames[name] {
		return fmt.Errorf("repository name %q is reserved", name)
	}
	if strings.ContainsAny(name, "/?#%") || strings.IndexFunc(name, func(r rune) bool {
		return unicode.IsSpace(r) || unicode.IsControl(r)
	}) >= 0 {
		return fmt.Errorf("repository name %q must not contain whitespace, control characters or any of /?#%%", name)
	}
	return nil
}

type Server struct {
	Repositories    []source.Repository
	RefreshInterval time.Duration
	AuthKey         string

	cancel     context.CancelFunc
	wg         sync.WaitGroup
	mu         sync.RWMutex
	status     map[string]*repoState
	httpMu     sync.Mutex
	httpServer *http.Server
	closed     bool
}

type repoState struct {
	lastRefresh time.Time
	lastErr     error
	ready       bool
}

// NewServer refreshes every repository once and then keeps refreshing them in
// the background every refreshInterval until Stop is called.
func NewServer(ctx context.Context, repositories []source.Repository, refreshInterval time.Duration) *Server {
	if refreshInterval < MinRefreshInterval {
		logrus.Warnf("refresh interval too low, setting it to %s", MinRefreshInterval)
		refreshInterval = MinRefreshInterval
	}
	ctx, cancel := context.WithCancel(ctx)
	server := &Server{
		Repositories:    repositories,
		RefreshInterval: refreshInterval,
		cancel:          cancel,
		status:          make(map[string]*repoState, len(repositories)),
	}
	for _, repo := range server.Repositories {
		server.status[repo.GetName()] = &repoState{}
		server.refreshOne(ctx, repo)
	}
	for _, repo := range server.Repositories {
		server.wg.Add(1)
		go server.refresh(ctx, repo)
	}
	return server
}

func (s *Server) refresh(ctx context.Context, repository source.Repository) {
	defer s.wg.Done()
	ticker := time.NewTicker(s.RefreshInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.refreshOne(ctx, repository)
		case <-ctx.Done():
			return
		}
	}
}

func (s *Server) refreshOne(ctx context.Context, repository source.Repository) {
	err := repository.Refresh(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		logrus.WithError(err).WithField("repository", repository.GetName()).Error("error refreshing repository")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	state := s.status[repository.GetName()]
	state.lastErr = err
	if err == nil {
		state.lastRefresh = time.Now()
		state.ready = true
	}
}

// Stop cancels the background refresh goroutines and waits for them to exit.
func (s *Server) Stop() {
	s.cancel()
	s.wg.Wait()
}

// Start serves the handlers on addr until Shutdown is called. It returns nil
// after a clean shutdown, or immediately when Shutdown already ran.
func (s *Server) Start(addr string) error {
	logrus.WithField("addr", addr).Info("Starting server")

	s.httpMu.Lock()
	if s.closed {
		s.httpMu.Unlock()
		return nil
	}
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.CreateHandlers(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	httpServer := s.httpServer
	s.httpMu.Unlock()

	err := httpServer.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown gracefully stops the HTTP server and the refresh goroutines.
func (s *Server) Shutdown(ctx context.Context) error {
	s.httpMu.Lock()
	s.closed = true
	httpServer := s.httpServer
	s.httpMu.Unlock()

	var err error
	if httpServer != nil {
		err = httpServer.Shutdown(ctx)
	}
	s.Stop()
	return err
}

// IsHealthy reports whether the last refresh of every repository succeeded.
func (s *Server) IsHealthy() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, state := range s.status {
		if state.lastErr != nil {
			return false
		}
	}
	return true
}

// IsReady reports whether every repository has loaded at least once.
func (s *Server) IsReady() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, state := range s.status {
		if !state.ready {
			return false
		}
	}
	return true
}

// GetRepositoryStatus returns the refresh state of every repository in the
// order they were given to NewServer.
func (s *Server) GetRepositoryStatus() []model.RepositoryStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	statuses := make([]model.RepositoryStatus, 0, len(s.Repositories))
	for _, repo := range s.Repositories {
		state := s.status[repo.GetName()]
		st := model.RepositoryStatus{
			Name:     repo.GetName(),
			Healthy:  state.lastErr == nil,
			Ready:    state.ready,
			Sections: repo.GetBuffer().Len(),
		}
		if state.ready {
			t := state.lastRefresh
			st.LastRefresh = &t
		}
		if state.lastErr != nil {
			st.LastError = state.lastErr.Error()
		}
		statuses = append(statuses, st)
	}
	return statuses
}

func (s *Server) CreateHandlers() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", getOnly(s.handleHealth))
	mux.HandleFunc("/ready", getOnly(s.handleReady))
	mux.HandleFunc("/status", getOnly(s.handleStatus))

	byName := make(map[string]source.Repository, len(s.Repositories))
	for _, repo := range s.Repositories {
		byName[repo.GetName()] = repo
	}
	repos := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		repo, ok := byName[strings.TrimPrefix(r.URL.Path, "/")]
		if !ok {
			http.NotFound(w, r)
			return
		}
		getOnly(func(w http.ResponseWriter, r *http.Request) {
			serveRepository(w, r, repo)
		})(w, r)
	})
	var handler http.Handler = etag.Handler(repos, false)
	if s.AuthKey != "" {
		handler = Auth(handler, s.AuthKey)
	}
	mux.Handle("/", handler)
	return mux
}

func getOnly(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		next(w, r)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.IsHealthy() {
		writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
		return
	}
	writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unhealthy"})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.IsReady() {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
		return
	}
	writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "not ready"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"healthy":      s.IsHealthy(),
		"ready":        s.IsReady(),
		"repositories": s.GetRepositoryStatus(),
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logrus.WithError(err).Error("error writing response")
	}
}

// serveRepository writes the repository's configuration. Query parameters:
// format (ini, yaml, json, toml), section, and key, which requires section.
func serveRepository(w http.ResponseWriter, r *http.Request, repo source.Repository) {
	query := r.URL.Query()
	f, err := format.Parse(query.Get("format"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	section, key := query.Get("section"), query.Get("key")
	if key != "" && section == "" {
		http.Error(w, "key requires section", http.StatusBadRequest)
		return
	}

	var body []byte
	switch {
	case key != "":
		v, err := repo.GetBuffer().Lookup(section, key)
		if err != nil {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		if f == format.INI {
			body = []byte(v.Raw() + "\n")
			break
		}
		var buf bytes.Buffer
		entry := model.Entry{Section: section, Key: key, Type: v.Type().String(), Value: v.Raw()}
		if err := format.EncodeValue(&buf, entry, f); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		body = buf.Bytes()
	case section != "":
		var buf bytes.Buffer
		if err := format.EncodeSection(&buf, repo.GetBuffer(), section, f); err != nil {
			status := http.StatusInternalServerError
			if errors.Is(err, ini.ErrSectionNotFound) {
				status = http.StatusNotFound
			}
			http.Error(w, err.Error(), status)
			return
		}
		body = buf.Bytes()
	case f == format.INI:
		body = repo.GetRawData()
	default:
		var buf bytes.Buffer
		if err := format.Encode(&buf, repo.GetBuffer(), f); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		body = buf.Bytes()
	}

	w.Header().Set("Content-Type", f.ContentType())
	if _, err := w.Write(body); err != nil {
		logrus.WithError(err).Error("error writing response")
	}
}

// Auth is a middleware that checks if the request is authenticated.
// If not, it returns a 401 Unauthorized response.
func Auth(next http.Handler, authKey string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Header.Get("X-API-KEY")
		if key == "" || subtle.ConstantTimeCompare([]byte(key), []byte(authKey)) != 1 {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}
