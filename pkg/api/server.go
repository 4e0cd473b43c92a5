// Package api exposes the registry over HTTP: agent-facing search and
// recommendation endpoints, skill submission and validation, the indexer
// trigger and the points ledger.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	"github.com/skillhubhq/skillhub/pkg/indexer"
	"github.com/skillhubhq/skillhub/pkg/logger"
	"github.com/skillhubhq/skillhub/pkg/store"
)

// Pinger is the optional health-check dependency.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Config holds the HTTP server configuration.
type Config struct {
	Host string
	Port int

	// IndexerToken gates the indexer trigger endpoints. Empty disables them.
	IndexerToken string
}

// Validate checks the server configuration.
func (c *Config) Validate() error {
	if c.Host == "" {
		return errors.New("host cannot be empty")
	}
	if c.Port < 1 || c.Port > 65535 {
		return errors.Errorf("port must be between 1 and 65535, got %d", c.Port)
	}
	return nil
}

// Deps bundles the server's injected collaborators. Reads go through the
// anon-role stores; writes go through the service-role stores. The two roles
// are separate capabilities on purpose.
type Deps struct {
	ReadSkills  store.SkillStore
	WriteSkills store.SkillStore
	Activity    store.ActivityStore
	Points      store.PointsStore

	Fetcher      indexer.Fetcher
	Reviewer     indexer.Reviewer
	Orchestrator *indexer.Orchestrator

	DB Pinger
}

// Server is the registry HTTP server.
type Server struct {
	router *mux.Router
	config *Config
	deps   Deps
	server *http.Server
}

// NewServer creates the server and wires its routes.
func NewServer(config *Config, deps Deps) (*Server, error) {
	if err := config.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid server configuration")
	}

	s := &Server{
		router: mux.NewRouter(),
		config: config,
		deps:   deps,
	}
	s.setupRoutes()
	return s, nil
}

func (s *Server) setupRoutes() {
	api := s.router.PathPrefix("/api").Subrouter()

	api.HandleFunc("/agent/recommend", s.handleRecommend).Methods("GET")
	api.HandleFunc("/agent/skills", s.handleListSkills).Methods("GET")
	api.HandleFunc("/agent/skills/{slug}", s.handleGetSkill).Methods("GET")
	api.HandleFunc("/agent/skills/{slug}/install", s.handleInstallSkill).Methods("POST")

	api.HandleFunc("/skills/submit", s.handleSubmit).Methods("POST")
	api.HandleFunc("/skills/validate", s.handleValidate).Methods("POST")

	api.HandleFunc("/indexer/run", s.handleIndexerRun).Methods("POST")
	api.HandleFunc("/indexer/run", s.handleIndexerScheduled).Methods("GET")

	api.HandleFunc("/points", s.handleGetPoints).Methods("GET")
	api.HandleFunc("/points", s.handlePostPoints).Methods("POST")

	api.HandleFunc("/activity", s.handleActivity).Methods("GET")
	api.HandleFunc("/health", s.handleHealth).Methods("GET")

	s.router.HandleFunc("/.well-known/agent-manifest.json", s.handleAgentManifest).Methods("GET")

	s.router.Use(s.loggingMiddleware)
	s.router.Use(s.corsMiddleware)
}

// Router exposes the handler for tests.
func (s *Server) Router() http.Handler {
	return s.router
}

// Start runs the server until the context is cancelled, then shuts down
// gracefully.
func (s *Server) Start(ctx context.Context) error {
	address := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.server = &http.Server{
		Addr:    address,
		Handler: s.router,
	}

	logger.G(ctx).WithField("address", address).Info("starting registry API server")

	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.G(ctx).WithError(err).Error("API server error")
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return s.server.Shutdown(shutdownCtx)
}

// Stop closes the server immediately.
func (s *Server) Stop() error {
	if s.server != nil {
		return s.server.Close()
	}
	return nil
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(rw, r)

		logger.G(r.Context()).WithFields(map[string]interface{}{
			"method":      r.Method,
			"path":        r.URL.Path,
			"status":      rw.statusCode,
			"duration":    time.Since(start),
			"remote_addr": r.RemoteAddr,
		}).Info("HTTP request")
	})
}

func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.G(context.TODO()).WithError(err).Error("failed to encode JSON response")
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string, err error) {
	if err != nil {
		logger.G(context.TODO()).WithError(err).Error(message)
	}
	s.writeJSON(w, status, map[string]interface{}{
		"error":   message,
		"status":  status,
		"success": false,
	})
}
