package api

import (
	"net/http"

	"github.com/skillhubhq/skillhub/pkg/version"
)

// handleAgentManifest serves the static capability descriptor at
// /.well-known/agent-manifest.json so agents can discover the API surface.
func (s *Server) handleAgentManifest(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"name":        "skillhub",
		"description": "Registry of agent skills with search, recommendation and submission",
		"version":     version.Get().Version,
		"capabilities": []map[string]string{
			{"name": "recommend", "method": "GET", "path": "/api/agent/recommend?task=&limit="},
			{"name": "search", "method": "GET", "path": "/api/agent/skills?q=&category=&platform=&format="},
			{"name": "detail", "method": "GET", "path": "/api/agent/skills/{slug}"},
			{"name": "submit", "method": "POST", "path": "/api/skills/submit"},
			{"name": "validate", "method": "POST", "path": "/api/skills/validate"},
		},
		"formats": []string{"json", "text"},
	})
}

// handleHealth serves GET /api/health with a database ping.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := map[string]interface{}{
		"status":  "ok",
		"version": version.Get().Version,
	}

	if s.deps.DB != nil {
		if err := s.deps.DB.Ping(r.Context()); err != nil {
			status["status"] = "degraded"
			status["database"] = "unreachable"
			s.writeJSON(w, http.StatusServiceUnavailable, status)
			return
		}
		status["database"] = "ok"
	}

	s.writeJSON(w, http.StatusOK, status)
}
