package game

import (
	"encoding/json"
	"errors"
	"sync"
	"time"
)

type Slot string

const (
	P1 Slot = "p1"
	P2 Slot = "p2"
)

// Multiplayer game phases.
const (
	PhasePlaying   = "playing"
	PhaseRoundOver = "round_over"
	PhaseGameOver  = "game_over"
)

// PlayerInfo identifies one seat at game creation.
type PlayerInfo struct {
	ID      string
	Name    string
	Country string
}

// Game is a head-to-head match. All mutable state lives behind mu; every
// transition re-checks the phase under the lock at the moment it applies, so
// two near-simultaneous correct guesses resolve to exactly one round winner.
type Game struct {
	id   string
	mode Mode
	mu   sync.Mutex

	phase string
	round int // 1..TotalRounds

	roundID        string
	publicResponse string
	tier           int
	revealedPrompt string // hidden prompt of the round just closed
	stagedRound    *Round // pre-generated next round, consumed by AdvanceRound

	roundWinnerID string
	winnerID      string
	draw          bool

	p1 *seat
	p2 *seat

	history    []GuessRecord
	onPersist  func(GameSnapshot)
	onGameOver func(GameResult)
}

type seat struct {
	id      string
	name    string
	country string

	conn      *ClientConn
	connected bool

	score       int
	lockedRound int // last round this player answered correctly
}

// GameTransition is the outcome of applying a scored guess.
type GameTransition struct {
	Phase          string `json:"phase"`
	Round          int    `json:"round"`
	RoundWinnerID  string `json:"roundWinnerId,omitempty"`
	WinnerID       string `json:"winnerId,omitempty"`
	Draw           bool   `json:"draw,omitempty"`
	LockedOut      bool   `json:"lockedOut,omitempty"`
	RevealedPrompt string `json:"revealedPrompt,omitempty"`
}

// GameResult feeds the game-over side effects (leaderboard, stats).
type GameResult struct {
	GameID   string
	WinnerID string
	Draw     bool
	Players  []PlayerResult
}

type PlayerResult struct {
	ID        string
	Name      string
	Country   string
	Score     int
	Rounds    int
	GuessesIn int
}

func NewGame(id string, mode Mode, p1, p2 PlayerInfo, first Round) *Game {
	return &Game{
		id:             id,
		mode:           mode,
		phase:          PhasePlaying,
		round:          1,
		roundID:        first.ID,
		publicResponse: first.PublicResponse,
		tier:           first.Tier,
		p1:             &seat{id: p1.ID, name: p1.Name, country: p1.Country},
		p2:             &seat{id: p2.ID, name: p2.Name, country: p2.Country},
	}
}

func (g *Game) ID() string { return g.id }

// CurrentRound returns the live round id and number.
func (g *Game) CurrentRound() (roundID string, roundNum int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.roundID, g.round
}

func (g *Game) Phase() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.phase
}

func (g *Game) HasStagedRound() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.stagedRound != nil
}

// Attach binds a ws connection to the player's seat. Only the two players
// named at creation may attach; reconnects replace the connection.
func (g *Game) Attach(playerID string, cc *ClientConn) (Slot, string, string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	switch playerID {
	case g.p1.id:
		g.p1.conn = cc
		g.p1.connected = true
		return P1, "", ""
	case g.p2.id:
		g.p2.conn = cc
		g.p2.connected = true
		return P2, "", ""
	}
	return "", "not_in_game", "player is not part of this game"
}

func (g *Game) Detach(slot Slot) {
	g.mu.Lock()
	defer g.mu.Unlock()

	p := g.seatLocked(slot)
	p.connected = false
	p.conn = nil
}

// ApplyGuess records an attempt and, when it crosses the threshold, performs
// the win/advance transition. current must be the round the guess was scored
// against: a result arriving after the game moved on is stale and rejected.
func (g *Game) ApplyGuess(playerID, guess string, res ScoreResult, current Round, next *Round) (GameTransition, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.phase != PhasePlaying {
		return GameTransition{}, ErrInvalidTransition
	}
	if current.ID != g.roundID {
		return GameTransition{}, ErrInvalidTransition
	}

	p := g.seatByIDLocked(playerID)
	if p == nil {
		return GameTransition{}, errors.New("player is not part of this game")
	}

	rec := GuessRecord{
		Round:       g.round,
		PlayerID:    p.id,
		PlayerName:  p.name,
		Guess:       guess,
		Score:       res.Score,
		IsCorrect:   res.IsCorrect,
		SubmittedAt: time.Now(),
	}
	g.history = append(g.history, rec)
	g.broadcastLocked(Envelope{Type: "guess_recorded", Payload: mustJSON(rec)})

	// «первый правильный ответ выигрывает раунд»: игрок, уже закрывший этот
	// раунд, пишется в историю, но на счёт не влияет.
	if p.lockedRound == g.round {
		g.persistLocked()
		return GameTransition{Phase: g.phase, Round: g.round, LockedOut: true}, nil
	}

	if !res.IsCorrect {
		g.persistLocked()
		return GameTransition{Phase: g.phase, Round: g.round}, nil
	}

	// засчитываем победу в раунде
	p.score += res.Score
	p.lockedRound = g.round
	g.roundWinnerID = p.id
	g.revealedPrompt = current.HiddenPrompt

	if g.round >= g.mode.TotalRounds {
		g.finishLocked()
		return GameTransition{
			Phase:          g.phase,
			Round:          g.round,
			RoundWinnerID:  g.roundWinnerID,
			WinnerID:       g.winnerID,
			Draw:           g.draw,
			RevealedPrompt: g.revealedPrompt,
		}, nil
	}

	g.stagedRound = next
	g.phase = PhaseRoundOver
	g.broadcastLocked(Envelope{Type: "round_over", Payload: mustJSON(map[string]any{
		"round":          g.round,
		"roundWinnerId":  g.roundWinnerID,
		"revealedPrompt": g.revealedPrompt,
	})})
	g.broadcastStateLocked()
	g.persistLocked()

	return GameTransition{
		Phase:          g.phase,
		Round:          g.round,
		RoundWinnerID:  g.roundWinnerID,
		RevealedPrompt: g.revealedPrompt,
	}, nil
}

func (g *Game) finishLocked() {
	g.phase = PhaseGameOver

	// строгое сравнение: равные очки — ничья, победителя нет
	switch {
	case g.p1.score > g.p2.score:
		g.winnerID = g.p1.id
	case g.p2.score > g.p1.score:
		g.winnerID = g.p2.id
	default:
		g.draw = true
	}

	g.broadcastLocked(Envelope{Type: "game_over", Payload: mustJSON(map[string]any{
		"winnerId": g.winnerID,
		"draw":     g.draw,
		"scores":   map[string]int{"p1": g.p1.score, "p2": g.p2.score},
	})})
	g.broadcastStateLocked()
	g.persistLocked()

	if g.onGameOver != nil {
		g.onGameOver(g.resultLocked())
	}
}

func (g *Game) resultLocked() GameResult {
	return GameResult{
		GameID:   g.id,
		WinnerID: g.winnerID,
		Draw:     g.draw,
		Players: []PlayerResult{
			{ID: g.p1.id, Name: g.p1.name, Country: g.p1.country, Score: g.p1.score, Rounds: g.round, GuessesIn: g.guessCountLocked(g.p1.id)},
			{ID: g.p2.id, Name: g.p2.name, Country: g.p2.country, Score: g.p2.score, Rounds: g.round, GuessesIn: g.guessCountLocked(g.p2.id)},
		},
	}
}

func (g *Game) guessCountLocked(playerID string) int {
	n := 0
	for _, rec := range g.history {
		if rec.PlayerID == playerID {
			n++
		}
	}
	return n
}

// AdvanceRound leaves round_over for the next round. First acknowledger wins;
// everyone else gets ErrInvalidTransition and should just re-fetch state.
// next is only consulted when no round was staged during the winning guess.
func (g *Game) AdvanceRound(next *Round) (RoundStartedPayload, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.phase != PhaseRoundOver {
		return RoundStartedPayload{}, ErrInvalidTransition
	}

	r := g.stagedRound
	if r == nil {
		r = next
	}
	if r == nil {
		return RoundStartedPayload{}, &GenerationError{Reason: "no round available to start"}
	}

	g.stagedRound = nil
	g.round++
	g.roundID = r.ID
	g.publicResponse = r.PublicResponse
	g.tier = r.Tier
	g.roundWinnerID = ""
	g.revealedPrompt = ""
	g.phase = PhasePlaying

	payload := RoundStartedPayload{
		Round:          g.round,
		RoundID:        g.roundID,
		PublicResponse: g.publicResponse,
		Tier:           g.tier,
	}
	g.broadcastLocked(Envelope{Type: "round_started", Payload: mustJSON(payload)})
	g.broadcastStateLocked()
	g.persistLocked()
	return payload, nil
}

func (g *Game) SendErrorTo(slot Slot, code, message string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	p := g.seatLocked(slot)
	if p.conn == nil {
		return
	}
	g.sendLocked(p.conn, Envelope{
		Type:    "error",
		Payload: mustJSON(ErrorPayload{Code: code, Message: message}),
	})
}

// SendTo delivers a personal envelope (guess feedback, hints) to one seat.
func (g *Game) SendTo(slot Slot, env Envelope) {
	g.mu.Lock()
	defer g.mu.Unlock()

	p := g.seatLocked(slot)
	if p.conn == nil {
		return
	}
	g.sendLocked(p.conn, env)
}

func (g *Game) SendStateTo(slot Slot) {
	g.mu.Lock()
	defer g.mu.Unlock()

	p := g.seatLocked(slot)
	if p.conn == nil {
		return
	}
	g.sendLocked(p.conn, Envelope{Type: "state", Payload: mustJSON(g.buildStateLocked(slot))})
}

func (g *Game) BroadcastState() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.broadcastStateLocked()
}

func (g *Game) broadcastStateLocked() {
	if g.p1.conn != nil {
		g.sendLocked(g.p1.conn, Envelope{Type: "state", Payload: mustJSON(g.buildStateLocked(P1))})
	}
	if g.p2.conn != nil {
		g.sendLocked(g.p2.conn, Envelope{Type: "state", Payload: mustJSON(g.buildStateLocked(P2))})
	}
}

func (g *Game) buildStateLocked(slot Slot) StatePayload {
	connected := 0
	if g.p1.connected {
		connected++
	}
	if g.p2.connected {
		connected++
	}

	var roundGuesses []GuessRecord
	for _, rec := range g.history {
		if rec.Round == g.round {
			roundGuesses = append(roundGuesses, rec)
		}
	}

	st := StatePayload{
		GameID:           g.id,
		You:              string(slot),
		PlayerNames:      map[string]string{"p1": g.p1.name, "p2": g.p2.name},
		Scores:           map[string]int{"p1": g.p1.score, "p2": g.p2.score},
		PlayersConnected: connected,
		Phase:            g.phase,
		Round:            g.round,
		TotalRounds:      g.mode.TotalRounds,
		PublicResponse:   g.publicResponse,
		Tier:             g.tier,
		RoundGuesses:     roundGuesses,
		RoundWinnerID:    g.roundWinnerID,
		WinnerID:         g.winnerID,
		Draw:             g.draw,
	}
	// скрытый prompt показываем только после закрытия раунда
	if g.phase != PhasePlaying {
		st.RevealedPrompt = g.revealedPrompt
	}
	return st
}

func (g *Game) seatLocked(slot Slot) *seat {
	if slot == P1 {
		return g.p1
	}
	return g.p2
}

func (g *Game) seatByIDLocked(playerID string) *seat {
	switch playerID {
	case g.p1.id:
		return g.p1
	case g.p2.id:
		return g.p2
	}
	return nil
}

func (g *Game) sendLocked(conn *ClientConn, env Envelope) {
	if conn == nil {
		return
	}
	b, _ := json.Marshal(env)
	select {
	case conn.send <- b:
	default:
		// MVP: если клиент не успевает читать, просто дропаем — следующий state всё перекроет
	}
}

func (g *Game) broadcastLocked(env Envelope) {
	if g.p1.conn != nil {
		g.sendLocked(g.p1.conn, env)
	}
	if g.p2.conn != nil {
		g.sendLocked(g.p2.conn, env)
	}
}

func (g *Game) persistLocked() {
	if g.onPersist == nil {
		return
	}
	g.onPersist(g.snapshotLocked())
}

func mustJSON(v any) json.RawMessage {
	b, _ := json.Marshal(v)
	return b
}
