package game

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// LeaderboardEntry — stable row shape, regardless of the storage engine.
type LeaderboardEntry struct {
	Username        string
	Country         string
	Score           int
	RoundsCompleted int
	TotalGuesses    int
	TimeSeconds     int
}

// ResultSink receives game-over side effects. Failures are logged, never
// fatal to the primary response — an explicit decision, not a swallowed one.
type ResultSink interface {
	SaveResult(ctx context.Context, e LeaderboardEntry) error
	RecordOutcome(ctx context.Context, userID, outcome string) error // win|loss|draw
}

// Service отвечает за:
// - генерацию раундов и скоринг для всех режимов
// - in-memory кэш живых multiplayer игр + восстановление из persistent storage
// - solo сессии
type Service struct {
	mu       sync.Mutex
	games    map[string]*Game
	sessions map[string]*Session

	cfg     Config
	gen     *Generator
	scorers map[string]Scorer // keyed by mode name
	rounds  RoundStore
	persist GamePersistence
	results ResultSink // optional
	log     *slog.Logger
}

func NewService(cfg Config, gen *Generator, scorers map[string]Scorer, rounds RoundStore, persist GamePersistence, results ResultSink, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		games:    make(map[string]*Game),
		sessions: make(map[string]*Session),
		cfg:      cfg,
		gen:      gen,
		scorers:  scorers,
		rounds:   rounds,
		persist:  persist,
		results:  results,
		log:      log,
	}
}

func (s *Service) scorerFor(mode Mode) Scorer {
	if sc, ok := s.scorers[mode.Name]; ok {
		return sc
	}
	// misconfiguration fallback; deterministic and offline
	return &HeuristicScorer{Threshold: mode.Threshold}
}

// RoundInfo is the public half of a round.
type RoundInfo struct {
	RoundID        string `json:"roundId"`
	PublicResponse string `json:"publicResponse"`
	Tier           int    `json:"tier"`
}

// StartRound generates and stores a fresh round for the given mode and
// difficulty input. The hidden prompt stays server-side.
func (s *Service) StartRound(ctx context.Context, mode Mode, difficultyInput int) (RoundInfo, error) {
	r, err := s.gen.StartRound(ctx, mode.Curve, difficultyInput)
	if err != nil {
		return RoundInfo{}, err
	}
	return RoundInfo{RoundID: r.ID, PublicResponse: r.PublicResponse, Tier: r.Tier}, nil
}

// GuessOutcome is the stateless-scoring response (solo quick play).
type GuessOutcome struct {
	ScoreResult
	ActualPrompt string `json:"actualPrompt,omitempty"`
}

// SubmitGuess scores a guess against a stored round. guessNumber is 1-based;
// the hidden prompt is revealed on a win or on the final allowed attempt.
func (s *Service) SubmitGuess(ctx context.Context, mode Mode, roundID, guess string, guessNumber int) (GuessOutcome, error) {
	r, err := s.rounds.Get(ctx, roundID)
	if err != nil {
		return GuessOutcome{}, err
	}

	res, err := s.scorerFor(mode).Score(ctx, r.HiddenPrompt, guess)
	if err != nil {
		return GuessOutcome{}, err
	}

	out := GuessOutcome{ScoreResult: res}
	if res.IsCorrect || (mode.MaxGuesses > 0 && guessNumber >= mode.MaxGuesses) {
		out.ActualPrompt = r.HiddenPrompt
	}
	return out, nil
}

// --- solo sessions ---

// SessionView is what session endpoints return.
type SessionView struct {
	Session SessionState `json:"session"`
	Round   RoundInfo    `json:"round"`
}

func (s *Service) CreateSession(ctx context.Context, timed bool) (SessionView, error) {
	mode := s.cfg.Solo
	if timed {
		mode = s.cfg.TimedSolo
	}

	r, err := s.gen.StartRound(ctx, mode.Curve, 1)
	if err != nil {
		return SessionView{}, err
	}

	sess := NewSession(uuid.NewString(), mode)
	if err := sess.Begin(r.ID); err != nil {
		return SessionView{}, err
	}

	s.mu.Lock()
	s.sessions[sess.ID()] = sess
	s.mu.Unlock()

	return SessionView{
		Session: sess.State(),
		Round:   RoundInfo{RoundID: r.ID, PublicResponse: r.PublicResponse, Tier: r.Tier},
	}, nil
}

func (s *Service) session(id string) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return sess, nil
}

// SessionGuessResult couples the score with the session transition.
type SessionGuessResult struct {
	GuessOutcome
	Transition SessionTransition `json:"transition"`
}

func (s *Service) SessionGuess(ctx context.Context, sessionID, guess string) (SessionGuessResult, error) {
	sess, err := s.session(sessionID)
	if err != nil {
		return SessionGuessResult{}, err
	}

	roundID := sess.RoundID()
	if roundID == "" {
		return SessionGuessResult{}, ErrInvalidTransition
	}

	r, err := s.rounds.Get(ctx, roundID)
	if err != nil {
		return SessionGuessResult{}, err
	}

	mode := s.cfg.ModeByName(sess.State().Mode)
	res, err := s.scorerFor(mode).Score(ctx, r.HiddenPrompt, guess)
	if err != nil {
		return SessionGuessResult{}, err
	}

	// Phase re-checked here: if the countdown fired while the scorer was in
	// flight, the result is discarded.
	tr, err := sess.ApplyScore(res)
	if err != nil {
		return SessionGuessResult{}, err
	}

	out := SessionGuessResult{GuessOutcome: GuessOutcome{ScoreResult: res}, Transition: tr}
	if tr.Reveal {
		out.ActualPrompt = r.HiddenPrompt
	}
	return out, nil
}

// SessionNext advances a revealed session to its next round, generating it at
// the session's current difficulty input, or finishes the game.
func (s *Service) SessionNext(ctx context.Context, sessionID string) (SessionView, error) {
	sess, err := s.session(sessionID)
	if err != nil {
		return SessionView{}, err
	}

	st := sess.State()
	if st.Phase != SessionRevealed {
		return SessionView{}, ErrInvalidTransition
	}

	if st.Round >= s.cfg.ModeByName(st.Mode).TotalRounds {
		if _, err := sess.AdvanceRound(""); err != nil {
			return SessionView{}, err
		}
		return SessionView{Session: sess.State()}, nil
	}

	mode := s.cfg.ModeByName(st.Mode)
	r, err := s.gen.StartRound(ctx, mode.Curve, sess.NextDifficultyInput())
	if err != nil {
		return SessionView{}, err
	}
	if _, err := sess.AdvanceRound(r.ID); err != nil {
		return SessionView{}, err
	}

	return SessionView{
		Session: sess.State(),
		Round:   RoundInfo{RoundID: r.ID, PublicResponse: r.PublicResponse, Tier: r.Tier},
	}, nil
}

// --- multiplayer ---

// CreateGame starts a head-to-head game with round 1 pre-generated.
func (s *Service) CreateGame(ctx context.Context, p1, p2 PlayerInfo, totalRounds int) (*Game, RoundInfo, error) {
	mode := s.cfg.Multiplayer
	if totalRounds > 0 {
		mode.TotalRounds = totalRounds
	}

	r, err := s.gen.StartRound(ctx, mode.Curve, 1)
	if err != nil {
		return nil, RoundInfo{}, err
	}

	g := NewGame(uuid.NewString(), mode, p1, p2, r)
	s.installHooks(g)

	snap := g.Snapshot()
	if err := s.persist.Save(ctx, g.ID(), snap); err != nil {
		s.log.Warn("persist new game", "gameId", g.ID(), "err", err)
	}

	s.mu.Lock()
	s.games[g.ID()] = g
	s.mu.Unlock()

	return g, RoundInfo{RoundID: r.ID, PublicResponse: r.PublicResponse, Tier: r.Tier}, nil
}

func (s *Service) installHooks(g *Game) {
	gameID := g.ID()
	// hook: любое изменение игры сохраняет snapshot
	g.onPersist = func(snap GameSnapshot) {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.persist.Save(ctx, gameID, snap); err != nil {
			s.log.Warn("persist game snapshot", "gameId", gameID, "err", err)
		}
	}
	g.onGameOver = func(res GameResult) { s.saveResults(res) }
}

// saveResults writes leaderboard rows and player stats at game over.
// Best-effort: a storage hiccup must not fail the winning guess.
func (s *Service) saveResults(res GameResult) {
	if s.results == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	for _, p := range res.Players {
		entry := LeaderboardEntry{
			Username:        p.Name,
			Country:         p.Country,
			Score:           p.Score,
			RoundsCompleted: p.Rounds,
			TotalGuesses:    p.GuessesIn,
		}
		if err := s.results.SaveResult(ctx, entry); err != nil {
			s.log.Warn("save leaderboard row", "gameId", res.GameID, "player", p.ID, "err", err)
		}

		outcome := "draw"
		if !res.Draw {
			if p.ID == res.WinnerID {
				outcome = "win"
			} else {
				outcome = "loss"
			}
		}
		if err := s.results.RecordOutcome(ctx, p.ID, outcome); err != nil {
			s.log.Warn("record outcome", "gameId", res.GameID, "player", p.ID, "err", err)
		}
	}
}

// GetOrLoad returns a cached game or restores one from its snapshot.
func (s *Service) GetOrLoad(ctx context.Context, gameID string) (*Game, bool, error) {
	s.mu.Lock()
	g, ok := s.games[gameID]
	s.mu.Unlock()
	if ok {
		return g, true, nil
	}

	snap, found, err := s.persist.Load(ctx, gameID)
	if err != nil || !found {
		return nil, false, err
	}

	g = NewGame(gameID, s.cfg.Multiplayer, PlayerInfo{}, PlayerInfo{}, Round{})
	g.mu.Lock()
	g.restoreLocked(snap)
	g.mu.Unlock()
	// hook снова навешиваем
	s.installHooks(g)

	s.mu.Lock()
	s.games[gameID] = g
	s.mu.Unlock()

	return g, true, nil
}

// SubmitGameGuess scores the guess, pre-generates the next round when the
// guess wins a non-final round, and applies the result to the game. The game
// re-checks its phase at application time, so a lost race comes back as
// ErrInvalidTransition and any pre-generated round is simply orphaned (the
// round store's FIFO cap reclaims it).
func (s *Service) SubmitGameGuess(ctx context.Context, gameID, playerID, guess string) (ScoreResult, GameTransition, error) {
	g, ok, err := s.GetOrLoad(ctx, gameID)
	if err != nil {
		return ScoreResult{}, GameTransition{}, err
	}
	if !ok {
		return ScoreResult{}, GameTransition{}, ErrGameNotFound
	}
	if g.Phase() != PhasePlaying {
		return ScoreResult{}, GameTransition{}, ErrInvalidTransition
	}

	roundID, roundNum := g.CurrentRound()
	r, err := s.rounds.Get(ctx, roundID)
	if err != nil {
		return ScoreResult{}, GameTransition{}, err
	}

	mode := s.cfg.Multiplayer
	res, err := s.scorerFor(mode).Score(ctx, r.HiddenPrompt, guess)
	if err != nil {
		return ScoreResult{}, GameTransition{}, err
	}

	var next *Round
	if res.IsCorrect && roundNum < mode.TotalRounds {
		nr, genErr := s.gen.StartRound(ctx, mode.Curve, nextRoundDifficulty(roundNum+1))
		if genErr != nil {
			// деградация: AdvanceRound перегенерирует лениво
			s.log.Warn("pre-generate next round", "gameId", gameID, "err", genErr)
		} else {
			next = &nr
		}
	}

	tr, err := g.ApplyGuess(playerID, guess, res, r, next)
	if err != nil {
		return ScoreResult{}, GameTransition{}, err
	}
	return res, tr, nil
}

// AdvanceRound is the explicit client acknowledgment out of round_over.
// First caller advances the game; late callers get ErrInvalidTransition.
func (s *Service) AdvanceRound(ctx context.Context, gameID string) (RoundStartedPayload, error) {
	g, ok, err := s.GetOrLoad(ctx, gameID)
	if err != nil {
		return RoundStartedPayload{}, err
	}
	if !ok {
		return RoundStartedPayload{}, ErrGameNotFound
	}

	var next *Round
	if !g.HasStagedRound() {
		_, roundNum := g.CurrentRound()
		r, genErr := s.gen.StartRound(ctx, s.cfg.Multiplayer.Curve, nextRoundDifficulty(roundNum+1))
		if genErr != nil {
			return RoundStartedPayload{}, genErr
		}
		next = &r
	}

	return g.AdvanceRound(next)
}

// nextRoundDifficulty: multiplayer ramps with the round number, capped at 5
// so a short game never hits the expert tiers.
func nextRoundDifficulty(roundNum int) int {
	if roundNum > 5 {
		return 5
	}
	return roundNum
}

// IsSoftError reports errors the caller should treat as "re-fetch state".
func IsSoftError(err error) bool {
	return errors.Is(err, ErrInvalidTransition)
}
