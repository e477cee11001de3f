package game

import (
	"encoding/json"
	"time"
)

// Envelope WS envelope: {"type":"...","payload":{...}}
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// входящие

type GuessPayload struct {
	Guess string `json:"guess"`
}

// исходящие

type GuessRecord struct {
	Round       int       `json:"round"`
	PlayerID    string    `json:"playerId"`
	PlayerName  string    `json:"playerName"`
	Guess       string    `json:"guess"`
	Score       int       `json:"score"`
	IsCorrect   bool      `json:"isCorrect"`
	SubmittedAt time.Time `json:"submittedAt"`
}

type RoundStartedPayload struct {
	Round          int    `json:"round"`
	RoundID        string `json:"roundId"`
	PublicResponse string `json:"publicResponse"`
	Tier           int    `json:"tier"`
}

type GuessResultPayload struct {
	ScoreResult
	ActualPrompt string `json:"actualPrompt,omitempty"` // только когда reveal разрешён
}

type StatePayload struct {
	GameID           string            `json:"gameId"`
	You              string            `json:"you"` // "p1" | "p2"
	PlayerNames      map[string]string `json:"playerNames"`
	Scores           map[string]int    `json:"scores"`
	PlayersConnected int               `json:"playersConnected"`
	Phase            string            `json:"phase"` // playing|round_over|game_over
	Round            int               `json:"round"`
	TotalRounds      int               `json:"totalRounds"`
	PublicResponse   string            `json:"publicResponse"`
	Tier             int               `json:"tier"`
	RoundGuesses     []GuessRecord     `json:"roundGuesses"`
	RoundWinnerID    string            `json:"roundWinnerId,omitempty"`
	WinnerID         string            `json:"winnerId,omitempty"`
	Draw             bool              `json:"draw,omitempty"`
	RevealedPrompt   string            `json:"revealedPrompt,omitempty"` // показываем только вне playing
}

type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
