package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/skillhubhq/skillhub/pkg/models"
)

// handleGetPoints serves GET /api/points?user_id=&limit=: the event history
// plus the total, computed as the ledger sum.
func (s *Server) handleGetPoints(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		s.writeError(w, http.StatusBadRequest, "user_id parameter is required", nil)
		return
	}

	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil {
			limit = parsed
		}
	}

	events, err := s.deps.Points.PointEvents(ctx, userID, limit)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "failed to load point events", err)
		return
	}

	total, err := s.deps.Points.PointTotal(ctx, userID)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "failed to compute point total", err)
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"user_id": userID,
		"total":   total,
		"events":  events,
	})
}

type pointsRequest struct {
	UserID      string `json:"user_id"`
	EventType   string `json:"event_type"`
	Description string `json:"description"`
	ReferenceID string `json:"reference_id"`
}

// handlePostPoints serves POST /api/points: append one reward event from the
// fixed reward table. Unknown event types are rejected.
func (s *Server) handlePostPoints(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req pointsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	if req.UserID == "" {
		s.writeError(w, http.StatusBadRequest, "user_id is required", nil)
		return
	}

	amount, ok := models.RewardTable[models.EventType(req.EventType)]
	if !ok {
		s.writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown event type %q", req.EventType), nil)
		return
	}

	event := &models.PointEvent{
		UserID:      req.UserID,
		Amount:      amount,
		Event:       models.EventType(req.EventType),
		Description: req.Description,
		ReferenceID: req.ReferenceID,
	}
	if err := s.deps.Points.AppendPointEvent(ctx, event); err != nil {
		s.writeError(w, http.StatusInternalServerError, "failed to record point event", err)
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"event":   event,
	})
}
