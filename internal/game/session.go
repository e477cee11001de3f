package game

import (
	"sync"
	"time"
)

// Solo session phases.
const (
	SessionIdle     = "idle"
	SessionPlaying  = "playing"
	SessionRevealed = "revealed"
	SessionFinished = "finished"
	SessionGameOver = "gameover" // timed mode only: countdown hit zero
)

// Session drives a solo (optionally timed) game. One round is live at a time;
// a correct guess or exhausting MaxGuesses moves to revealed, an explicit
// advance starts the next round or finishes the game.
type Session struct {
	id   string
	mode Mode

	mu         sync.Mutex
	phase      string
	roundNum   int
	difficulty int // escalation counter, complexity curve only
	roundID    string
	guesses    int // attempts in the current round
	totalGuess int
	roundsWon  int
	totalScore int

	deadline time.Time
	timer    *time.Timer
	started  time.Time
}

// SessionTransition is what a scored guess or an advance did to the session.
type SessionTransition struct {
	Phase      string `json:"phase"`
	RoundWon   bool   `json:"roundWon"`
	Reveal     bool   `json:"reveal"`
	TotalScore int    `json:"totalScore"`
	Round      int    `json:"round"`
}

func NewSession(id string, mode Mode) *Session {
	return &Session{
		id:         id,
		mode:       mode,
		phase:      SessionIdle,
		difficulty: 1,
	}
}

func (s *Session) ID() string { return s.id }

// Begin moves idle -> playing with round 1 and arms the countdown for timed
// mode. The countdown is terminal on its own: guesses in flight when it fires
// are discarded when they try to apply.
func (s *Session) Begin(roundID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase != SessionIdle {
		return ErrInvalidTransition
	}
	s.phase = SessionPlaying
	s.roundNum = 1
	s.roundID = roundID
	s.started = time.Now()

	if s.mode.TimeLimit > 0 {
		s.deadline = time.Now().Add(s.mode.TimeLimit)
		s.timer = time.AfterFunc(s.mode.TimeLimit, s.onTimeout)
	}
	return nil
}

func (s *Session) onTimeout() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase == SessionFinished || s.phase == SessionGameOver {
		return
	}
	s.phase = SessionGameOver
}

// RoundID returns the live round id, empty outside playing.
func (s *Session) RoundID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase != SessionPlaying {
		return ""
	}
	return s.roundID
}

// ApplyScore consumes a scorer result. Only accepted while playing — a result
// resolving after the countdown fired gets ErrInvalidTransition and must not
// reopen the game.
func (s *Session) ApplyScore(res ScoreResult) (SessionTransition, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase != SessionPlaying {
		return SessionTransition{}, ErrInvalidTransition
	}

	s.guesses++
	s.totalGuess++

	tr := SessionTransition{Round: s.roundNum}

	switch {
	case res.IsCorrect:
		s.totalScore += res.Score
		s.roundsWon++
		// difficulty ramps only on a win, capped at the curve maximum
		if s.difficulty < MaxTier(s.mode.Curve) {
			s.difficulty++
		}
		s.phase = SessionRevealed
		tr.RoundWon = true
		tr.Reveal = true
	case s.mode.MaxGuesses > 0 && s.guesses >= s.mode.MaxGuesses:
		// out of attempts: reveal and move on, no escalation
		s.phase = SessionRevealed
		tr.Reveal = true
	}

	tr.Phase = s.phase
	tr.TotalScore = s.totalScore
	return tr, nil
}

// AdvanceRound leaves revealed for the next round, or finishes the game after
// the final round. finished==true means no roundID was consumed.
func (s *Session) AdvanceRound(roundID string) (finished bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase != SessionRevealed {
		return false, ErrInvalidTransition
	}
	if s.roundNum >= s.mode.TotalRounds {
		s.phase = SessionFinished
		if s.timer != nil {
			s.timer.Stop()
		}
		return true, nil
	}

	s.roundNum++
	s.guesses = 0
	s.roundID = roundID
	s.phase = SessionPlaying
	return false, nil
}

// NextDifficultyInput is the difficulty input for the upcoming round: the
// round number on the riddle curve, the escalation counter on the complexity
// curve.
func (s *Session) NextDifficultyInput() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.mode.Curve == CurveRiddle {
		return s.roundNum + 1
	}
	return s.difficulty
}

// SessionState is the HTTP view of a session.
type SessionState struct {
	ID          string `json:"id"`
	Mode        string `json:"mode"`
	Phase       string `json:"phase"`
	Round       int    `json:"round"`
	TotalRounds int    `json:"totalRounds"`
	Guesses     int    `json:"guesses"`
	RoundsWon   int    `json:"roundsWon"`
	TotalScore  int    `json:"totalScore"`
	RemainingMs int64  `json:"remainingMs,omitempty"`
}

func (s *Session) State() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := SessionState{
		ID:          s.id,
		Mode:        s.mode.Name,
		Phase:       s.phase,
		Round:       s.roundNum,
		TotalRounds: s.mode.TotalRounds,
		Guesses:     s.guesses,
		RoundsWon:   s.roundsWon,
		TotalScore:  s.totalScore,
	}
	if !s.deadline.IsZero() && s.phase == SessionPlaying {
		if d := time.Until(s.deadline); d > 0 {
			st.RemainingMs = d.Milliseconds()
		}
	}
	return st
}

// Totals reports cumulative counters for leaderboard rows.
func (s *Session) Totals() (score, roundsWon, guesses int, elapsed time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.totalScore, s.roundsWon, s.totalGuess, time.Since(s.started)
}
