package api

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/pkg/errors"
	"github.com/skillhubhq/skillhub/pkg/github"
	"github.com/skillhubhq/skillhub/pkg/indexer"
)

type indexerRunRequest struct {
	Page    int    `json:"page"`
	Limit   int    `json:"limit"`
	RepoURL string `json:"repoUrl"`
}

// handleIndexerRun serves POST /api/indexer/run, bearer-token gated. The
// body selects either a discovery page run or a single-URL injection.
func (s *Server) handleIndexerRun(w http.ResponseWriter, r *http.Request) {
	if !s.authorizeIndexer(w, r) {
		return
	}

	var req indexerRunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	s.runIndexer(w, r, req)
}

// handleIndexerScheduled serves GET /api/indexer/run, the scheduled-trigger
// entry point. It delegates to the same run path with default paging.
func (s *Server) handleIndexerScheduled(w http.ResponseWriter, r *http.Request) {
	if !s.authorizeIndexer(w, r) {
		return
	}
	s.runIndexer(w, r, indexerRunRequest{Page: 1, Limit: 10})
}

func (s *Server) runIndexer(w http.ResponseWriter, r *http.Request, req indexerRunRequest) {
	ctx := r.Context()

	var (
		summary *indexer.Summary
		err     error
	)
	if req.RepoURL != "" {
		summary, err = s.deps.Orchestrator.RunRepoURL(ctx, req.RepoURL)
	} else {
		page := req.Page
		if page < 1 {
			page = 1
		}
		limit := req.Limit
		if limit < 1 || limit > 50 {
			limit = 10
		}
		summary, err = s.deps.Orchestrator.RunPage(ctx, page, limit)
	}

	if err != nil {
		if errors.Is(err, indexer.ErrInvalidRepoURL) {
			s.writeError(w, http.StatusBadRequest, "repoUrl must be a valid GitHub repository URL", err)
			return
		}
		var searchErr *github.SearchError
		if errors.As(err, &searchErr) {
			s.writeError(w, http.StatusBadGateway, "candidate discovery failed", err)
			return
		}
		s.writeError(w, http.StatusInternalServerError, "indexer run failed", err)
		return
	}

	s.writeJSON(w, http.StatusOK, summary)
}

func (s *Server) authorizeIndexer(w http.ResponseWriter, r *http.Request) bool {
	if s.config.IndexerToken == "" {
		s.writeError(w, http.StatusForbidden, "indexer trigger is disabled", nil)
		return false
	}

	auth := r.Header.Get("Authorization")
	token := strings.TrimPrefix(auth, "Bearer ")
	if auth == token || subtle.ConstantTimeCompare([]byte(token), []byte(s.config.IndexerToken)) != 1 {
		s.writeError(w, http.StatusUnauthorized, "invalid or missing bearer token", nil)
		return false
	}
	return true
}
