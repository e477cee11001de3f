package game

import (
	"encoding/json"
	"errors"
	"net/http"

	"example.com/gtp-mvp/internal/auth"
)

// TokenVerifier lets the ws endpoint check player tokens without knowing the
// signing setup.
type TokenVerifier interface {
	Verify(token string) (*auth.Claims, error)
}

type Server struct {
	cfg      Config
	svc      *Service
	verifier TokenVerifier
}

func NewServer(cfg Config, svc *Service, verifier TokenVerifier) *Server {
	return &Server{cfg: cfg, svc: svc, verifier: verifier}
}

func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/round", s.handleStartRound)
	mux.HandleFunc("POST /api/guess", s.handleSubmitGuess)

	mux.HandleFunc("POST /api/session", s.handleCreateSession)
	mux.HandleFunc("GET /api/session/{id}", s.handleSessionState)
	mux.HandleFunc("POST /api/session/{id}/guess", s.handleSessionGuess)
	mux.HandleFunc("POST /api/session/{id}/next", s.handleSessionNext)

	mux.HandleFunc("POST /api/mp/game", s.handleCreateGame)
	mux.HandleFunc("POST /api/mp/game/{id}/next-round", s.handleNextRound)
	mux.HandleFunc("GET /ws", s.handleWS)
}

func (s *Server) handleStartRound(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Difficulty int    `json:"difficulty"`
		Mode       string `json:"mode"`
	}
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", "invalid json")
			return
		}
	}
	if req.Difficulty == 0 {
		req.Difficulty = 1
	}

	info, err := s.svc.StartRound(r.Context(), s.cfg.ModeByName(req.Mode), req.Difficulty)
	if err != nil {
		writeGameError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

func (s *Server) handleSubmitGuess(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RoundID     string `json:"roundId"`
		Guess       string `json:"guess"`
		Mode        string `json:"mode"`
		GuessNumber int    `json:"guessNumber"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid json")
		return
	}
	if req.RoundID == "" || req.Guess == "" {
		writeError(w, http.StatusBadRequest, "bad_request", "roundId and guess are required")
		return
	}

	out, err := s.svc.SubmitGuess(r.Context(), s.cfg.ModeByName(req.Mode), req.RoundID, req.Guess, req.GuessNumber)
	if err != nil {
		writeGameError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Timed bool `json:"timed"`
	}
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", "invalid json")
			return
		}
	}

	view, err := s.svc.CreateSession(r.Context(), req.Timed)
	if err != nil {
		writeGameError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleSessionState(w http.ResponseWriter, r *http.Request) {
	sess, err := s.svc.session(r.PathValue("id"))
	if err != nil {
		writeGameError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sess.State())
}

func (s *Server) handleSessionGuess(w http.ResponseWriter, r *http.Request) {
	var req GuessPayload
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid json")
		return
	}
	if req.Guess == "" {
		writeError(w, http.StatusBadRequest, "bad_request", "guess is required")
		return
	}

	out, err := s.svc.SessionGuess(r.Context(), r.PathValue("id"), req.Guess)
	if err != nil {
		writeGameError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleSessionNext(w http.ResponseWriter, r *http.Request) {
	view, err := s.svc.SessionNext(r.Context(), r.PathValue("id"))
	if err != nil {
		writeGameError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleCreateGame(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Player1ID      string `json:"player1Id"`
		Player1Name    string `json:"player1Name"`
		Player1Country string `json:"player1Country"`
		Player2ID      string `json:"player2Id"`
		Player2Name    string `json:"player2Name"`
		Player2Country string `json:"player2Country"`
		TotalRounds    int    `json:"totalRounds"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid json")
		return
	}
	if req.Player1ID == "" || req.Player2ID == "" || req.Player1Name == "" || req.Player2Name == "" {
		writeError(w, http.StatusBadRequest, "bad_request", "both player ids and names are required")
		return
	}
	if req.Player1ID == req.Player2ID {
		writeError(w, http.StatusBadRequest, "bad_request", "players must be distinct")
		return
	}

	p1 := PlayerInfo{ID: req.Player1ID, Name: req.Player1Name, Country: orOther(req.Player1Country)}
	p2 := PlayerInfo{ID: req.Player2ID, Name: req.Player2Name, Country: orOther(req.Player2Country)}

	g, round, err := s.svc.CreateGame(r.Context(), p1, p2, req.TotalRounds)
	if err != nil {
		writeGameError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"gameId":         g.ID(),
		"roundId":        round.RoundID,
		"publicResponse": round.PublicResponse,
	})
}

func (s *Server) handleNextRound(w http.ResponseWriter, r *http.Request) {
	payload, err := s.svc.AdvanceRound(r.Context(), r.PathValue("id"))
	if err != nil {
		writeGameError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, payload)
}

func orOther(country string) string {
	if country == "" {
		return "OTHER"
	}
	return country
}

func writeGameError(w http.ResponseWriter, err error) {
	var genErr *GenerationError
	var judgeErr *JudgingError

	switch {
	case errors.Is(err, ErrRoundNotFound):
		writeError(w, http.StatusNotFound, "round_not_found", "round not found or expired")
	case errors.Is(err, ErrGameNotFound):
		writeError(w, http.StatusNotFound, "game_not_found", "game not found")
	case errors.Is(err, ErrSessionNotFound):
		writeError(w, http.StatusNotFound, "session_not_found", "session not found")
	case errors.Is(err, ErrInvalidTransition):
		// soft error: tell the client to re-fetch current state
		writeError(w, http.StatusConflict, "invalid_transition", "state changed, re-fetch and retry")
	case errors.As(err, &genErr):
		writeError(w, http.StatusBadGateway, "generation_failed", "failed to generate round, retry shortly")
	case errors.As(err, &judgeErr):
		writeError(w, http.StatusBadGateway, "judging_failed", "failed to judge guess, resubmit")
	default:
		writeError(w, http.StatusInternalServerError, "internal", "internal error")
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, errCode, msg string) {
	writeJSON(w, code, ErrorPayload{Code: errCode, Message: msg})
}
