package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/hotelops/hotelscore/internal/app/scoring"
	"github.com/hotelops/hotelscore/internal/domain"
)

// ─── Scoring API (/api/scoring/*) ───────────────────────────────────────────
// Scoring outcomes are always 200: rate limits, duplicates and store
// failures are reported inside the result, never as HTTP errors.

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 100
	notificationsLimit  = 50
)

// --- POST /api/scoring/actions ---

func (s *Server) handleDispatch(w http.ResponseWriter, r *http.Request) {
	var action domain.Action
	if err := json.NewDecoder(r.Body).Decode(&action); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	// Unknown types and COMPLETE_WEEKLY_GOAL score nothing; the dispatcher
	// reports them as zero-XP results.
	action.ChallengeID, action.XPReward = "", 0

	res := s.engine.Dispatcher.Dispatch(r.Context(), sessionFrom(r.Context()), action)
	writeJSON(w, http.StatusOK, res)
}

// --- GET /api/scoring/dashboard ---

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	snap, err := s.engine.Dispatcher.Snapshot(r.Context(), sessionFrom(r.Context()))
	if err != nil {
		s.log.Warn("dashboard degraded", "error", err)
	}
	writeJSON(w, http.StatusOK, snap)
}

// --- GET /api/scoring/stats, /level, /rank, /badges ---

// loadStats answers 503 when the store cannot be read.
func (s *Server) loadStats(w http.ResponseWriter, r *http.Request) (domain.UserStats, bool) {
	sess := sessionFrom(r.Context())
	stats, err := s.engine.Updater.LoadStats(r.Context(), sess, sess.UserID)
	if err != nil {
		s.log.Warn("load stats failed", "user_id", sess.UserID, "error", err)
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return stats, false
	}
	return stats, true
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, ok := s.loadStats(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handleLevel(w http.ResponseWriter, r *http.Request) {
	stats, ok := s.loadStats(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, scoring.LevelForXP(stats.XP))
}

func (s *Server) handleRank(w http.ResponseWriter, r *http.Request) {
	stats, ok := s.loadStats(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, scoring.RankFor(stats))
}

func (s *Server) handleBadges(w http.ResponseWriter, r *http.Request) {
	stats, ok := s.loadStats(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"badges": scoring.BadgeViews(s.engine.Updater.Badges(), stats),
	})
}

// --- GET /api/scoring/challenges ---

func (s *Server) handleChallenges(w http.ResponseWriter, r *http.Request) {
	stats, ok := s.loadStats(w, r)
	if !ok {
		return
	}
	challenges, err := s.engine.Challenges.Weekly(r.Context(), stats.UserID, stats)
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"week":       s.engine.Challenges.Week(s.engine.Updater.Clock().Now()),
		"challenges": challenges,
	})
}

// --- GET /api/scoring/history?limit= ---

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	limit := defaultHistoryLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(n, maxHistoryLimit)
	}

	sess := sessionFrom(r.Context())
	entries, err := s.engine.Updater.History().Recent(r.Context(), sess.UserID, limit)
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	if entries == nil {
		entries = []domain.HistoryEntry{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"history": entries})
}

// --- GET /api/scoring/notifications ---

func (s *Server) handleNotifications(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context())
	pending, err := s.engine.Notifications.Pending(r.Context(), sess.UserID, notificationsLimit)
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	if pending == nil {
		pending = []domain.Notification{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"notifications": pending})
}

// --- POST /api/scoring/notifications/{id}/shown ---

func (s *Server) handleNotificationShown(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	err := s.engine.Notifications.MarkShown(r.Context(), sessionFrom(r.Context()), id)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "notification not found")
	case err != nil:
		writeError(w, http.StatusServiceUnavailable, err.Error())
	default:
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
