package game

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true }, // MVP
}

type ClientConn struct {
	ws   *websocket.Conn
	send chan []byte

	closeOnce sync.Once
}

func (c *ClientConn) Close() {
	c.closeOnce.Do(func() {
		close(c.send)
		_ = c.ws.Close()
	})
}

// handleWS — WebSocket вход в игру
// Требует JWT: /ws?gameId=xxx&token=yyy
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	gameID := r.URL.Query().Get("gameId")
	token := r.URL.Query().Get("token")

	if gameID == "" || token == "" {
		http.Error(w, "missing gameId or token", http.StatusBadRequest)
		return
	}

	// 🔐 Проверяем JWT
	claims, err := s.verifier.Verify(token)
	if err != nil {
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}
	playerID := claims.UserID

	// получаем игру (in-memory или из Redis)
	g, ok, err := s.svc.GetOrLoad(r.Context(), gameID)
	if err != nil {
		http.Error(w, "storage error", http.StatusInternalServerError)
		return
	}
	if !ok {
		http.Error(w, "game not found", http.StatusNotFound)
		return
	}

	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}

	cc := &ClientConn{
		ws:   ws,
		send: make(chan []byte, 64),
	}

	slot, errCode, errMsg := g.Attach(playerID, cc)
	if errCode != "" {
		_ = ws.WriteJSON(Envelope{
			Type:    "error",
			Payload: mustJSON(ErrorPayload{Code: errCode, Message: errMsg}),
		})
		cc.Close()
		return
	}

	// writer loop
	go func() {
		ticker := time.NewTicker(25 * time.Second)
		defer ticker.Stop()

		for {
			select {
			case msg, ok := <-cc.send:
				if !ok {
					return
				}
				_ = ws.WriteMessage(websocket.TextMessage, msg)
			case <-ticker.C:
				_ = ws.WriteMessage(websocket.PingMessage, []byte{})
			}
		}
	}()

	// initial state
	g.SendStateTo(slot)
	g.BroadcastState()

	// reader loop
	for {
		_, data, err := ws.ReadMessage()
		if err != nil {
			break
		}

		var env Envelope
		if err := json.Unmarshal(data, &env); err != nil {
			g.SendErrorTo(slot, "bad_json", "invalid json")
			continue
		}

		switch env.Type {
		case "guess":
			var p GuessPayload
			if err := json.Unmarshal(env.Payload, &p); err != nil || p.Guess == "" {
				g.SendErrorTo(slot, "bad_input", "invalid payload")
				continue
			}
			s.handleGameGuess(r.Context(), g, slot, playerID, p.Guess)

		case "advance_round":
			if _, err := s.svc.AdvanceRound(r.Context(), gameID); err != nil {
				s.sendWSError(g, slot, err)
			}

		default:
			g.SendErrorTo(slot, "unknown_type", "unknown message type")
		}
	}

	// disconnect
	g.Detach(slot)
	cc.Close()
	g.BroadcastState()
}

// handleGameGuess — скоринг ходит по сети, игра могла уйти вперёд к моменту
// ответа; мягкие отказы превращаем в state refresh, а не в ошибку.
func (s *Server) handleGameGuess(ctx context.Context, g *Game, slot Slot, playerID, guess string) {
	res, tr, err := s.svc.SubmitGameGuess(ctx, g.ID(), playerID, guess)
	if err != nil {
		s.sendWSError(g, slot, err)
		return
	}

	out := GuessResultPayload{ScoreResult: res}
	if tr.RevealedPrompt != "" {
		out.ActualPrompt = tr.RevealedPrompt
	}
	g.SendTo(slot, Envelope{Type: "guess_result", Payload: mustJSON(out)})
}

func (s *Server) sendWSError(g *Game, slot Slot, err error) {
	var genErr *GenerationError
	var judgeErr *JudgingError

	switch {
	case IsSoftError(err):
		// проиграли гонку — ответ это актуальный state
		g.SendStateTo(slot)
	case errors.Is(err, ErrRoundNotFound):
		g.SendErrorTo(slot, "round_not_found", "round not found or expired")
	case errors.As(err, &genErr):
		g.SendErrorTo(slot, "generation_failed", "failed to generate round, retry shortly")
	case errors.As(err, &judgeErr):
		g.SendErrorTo(slot, "judging_failed", "failed to judge guess, resubmit")
	default:
		g.SendErrorTo(slot, "internal", "internal error")
	}
}
