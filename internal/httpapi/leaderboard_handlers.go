package httpapi

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"example.com/gtp-mvp/internal/store"
)

type LeaderboardHandler struct {
	Board *store.LeaderboardStore
}

type leaderboardEntry struct {
	Username        string `json:"username"`
	Country         string `json:"country"`
	Score           int    `json:"score"`
	RoundsCompleted int    `json:"roundsCompleted"`
	TotalGuesses    int    `json:"totalGuesses"`
	TimeSeconds     int    `json:"timeSeconds"`
}

func (h *LeaderboardHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	rows, err := h.Board.ListTop(r.Context(), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal", "failed to load leaderboard")
		return
	}

	out := make([]leaderboardEntry, 0, len(rows))
	for _, row := range rows {
		out = append(out, leaderboardEntry{
			Username:        row.Username,
			Country:         row.Country,
			Score:           row.Score,
			RoundsCompleted: row.RoundsCompleted,
			TotalGuesses:    row.TotalGuesses,
			TimeSeconds:     row.TimeSeconds,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"entries": out})
}

// Submit records a finished solo run. Multiplayer results are written
// server-side at game over; this endpoint only serves solo clients.
func (h *LeaderboardHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req leaderboardEntry
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid json")
		return
	}
	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" {
		writeError(w, http.StatusBadRequest, "bad_request", "username is required")
		return
	}
	if req.Score < 0 || req.RoundsCompleted < 0 || req.TotalGuesses < 0 || req.TimeSeconds < 0 {
		writeError(w, http.StatusBadRequest, "bad_request", "negative values not allowed")
		return
	}
	if req.Country == "" {
		req.Country = "OTHER"
	}

	err := h.Board.Insert(r.Context(), store.LeaderboardRow{
		Username:        req.Username,
		Country:         strings.ToUpper(req.Country),
		Score:           req.Score,
		RoundsCompleted: req.RoundsCompleted,
		TotalGuesses:    req.TotalGuesses,
		TimeSeconds:     req.TimeSeconds,
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal", "failed to save entry")
		return
	}
	w.WriteHeader(http.StatusCreated)
}
