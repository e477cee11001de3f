package game

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memPersist struct {
	mu sync.Mutex
	m  map[string]GameSnapshot
}

func (p *memPersist) Save(ctx context.Context, gameID string, snap GameSnapshot) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.m == nil {
		p.m = make(map[string]GameSnapshot)
	}
	p.m[gameID] = snap
	return nil
}

func (p *memPersist) Load(ctx context.Context, gameID string) (GameSnapshot, bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	snap, ok := p.m[gameID]
	return snap, ok, nil
}

type fakeSink struct {
	mu       sync.Mutex
	entries  []LeaderboardEntry
	outcomes map[string]string
}

func (s *fakeSink) SaveResult(ctx context.Context, e LeaderboardEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, e)
	return nil
}

func (s *fakeSink) RecordOutcome(ctx context.Context, userID, outcome string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.outcomes == nil {
		s.outcomes = make(map[string]string)
	}
	s.outcomes[userID] = outcome
	return nil
}

// newTestService builds a Service on in-memory stores with a heuristic scorer
// for every mode, so scoring is deterministic and offline.
func newTestService(gen *fakeGen, sink ResultSink) (*Service, *memPersist) {
	cfg := DefaultConfig()
	persist := &memPersist{}
	rounds := NewMemoryRoundStore(cfg.RoundCap)
	scorers := map[string]Scorer{
		cfg.Solo.Name:        &HeuristicScorer{Threshold: cfg.Solo.Threshold},
		cfg.TimedSolo.Name:   &HeuristicScorer{Threshold: cfg.TimedSolo.Threshold},
		cfg.Multiplayer.Name: &HeuristicScorer{Threshold: cfg.Multiplayer.Threshold},
	}
	svc := NewService(cfg, NewGenerator(gen, rounds), scorers, rounds, persist, sink, slog.Default())
	return svc, persist
}

func genReply(prompt, response string) string {
	return `{"prompt": "` + prompt + `", "response": "` + response + `"}`
}

func TestService_StartRoundAndGuess(t *testing.T) {
	ctx := context.Background()
	gen := &fakeGen{replies: []string{genReply("What is rain?", "Water falls from clouds.")}}
	svc, _ := newTestService(gen, nil)

	info, err := svc.StartRound(ctx, svc.cfg.Solo, 1)
	require.NoError(t, err)
	assert.NotEmpty(t, info.RoundID)
	assert.Equal(t, "Water falls from clouds.", info.PublicResponse)

	// wrong guess: no reveal before the final attempt
	out, err := svc.SubmitGuess(ctx, svc.cfg.Solo, info.RoundID, "what is snow", 1)
	require.NoError(t, err)
	assert.False(t, out.IsCorrect)
	assert.Empty(t, out.ActualPrompt)

	// exact guess: reveal authorized
	out, err = svc.SubmitGuess(ctx, svc.cfg.Solo, info.RoundID, "what is rain?", 2)
	require.NoError(t, err)
	assert.True(t, out.IsCorrect)
	assert.Equal(t, "What is rain?", out.ActualPrompt)
}

func TestService_GuessRevealsOnFinalAttempt(t *testing.T) {
	ctx := context.Background()
	gen := &fakeGen{replies: []string{genReply("What is rain?", "resp")}}
	svc, _ := newTestService(gen, nil)

	info, err := svc.StartRound(ctx, svc.cfg.Solo, 1)
	require.NoError(t, err)

	maxGuesses := svc.cfg.Solo.MaxGuesses
	out, err := svc.SubmitGuess(ctx, svc.cfg.Solo, info.RoundID, "way off", maxGuesses-1)
	require.NoError(t, err)
	assert.Empty(t, out.ActualPrompt)

	out, err = svc.SubmitGuess(ctx, svc.cfg.Solo, info.RoundID, "way off", maxGuesses)
	require.NoError(t, err)
	assert.False(t, out.IsCorrect)
	assert.Equal(t, "What is rain?", out.ActualPrompt, "out of attempts reveals")
}

func TestService_UnknownRoundSurfaces(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(&fakeGen{replies: []string{genReply("p", "r")}}, nil)

	_, err := svc.SubmitGuess(ctx, svc.cfg.Solo, "nope", "guess", 1)
	assert.True(t, errors.Is(err, ErrRoundNotFound), "missing round must never default-score")
}

func TestService_SoloSessionFlow(t *testing.T) {
	ctx := context.Background()
	gen := &fakeGen{replies: []string{
		genReply("What is fire?", "It dances."),
		genReply("What is ice?", "It bites."),
	}}
	svc, _ := newTestService(gen, nil)

	view, err := svc.CreateSession(ctx, false)
	require.NoError(t, err)
	assert.Equal(t, SessionPlaying, view.Session.Phase)
	assert.Equal(t, "It dances.", view.Round.PublicResponse)

	res, err := svc.SessionGuess(ctx, view.Session.ID, "what is fire?")
	require.NoError(t, err)
	assert.True(t, res.IsCorrect)
	assert.True(t, res.Transition.RoundWon)
	assert.Equal(t, "What is fire?", res.ActualPrompt)

	next, err := svc.SessionNext(ctx, view.Session.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, next.Session.Round)
	assert.Equal(t, "It bites.", next.Round.PublicResponse)

	// guessing outside playing is rejected, state intact
	_, err = svc.SessionNext(ctx, view.Session.ID)
	assert.True(t, errors.Is(err, ErrInvalidTransition))
}

func TestService_SessionNotFound(t *testing.T) {
	svc, _ := newTestService(&fakeGen{replies: []string{genReply("p", "r")}}, nil)
	_, err := svc.SessionGuess(context.Background(), "ghost", "guess")
	assert.True(t, errors.Is(err, ErrSessionNotFound))
}

func TestService_MultiplayerFlow(t *testing.T) {
	ctx := context.Background()
	gen := &fakeGen{replies: []string{
		genReply("What is rain?", "resp 1"),
		genReply("What is snow?", "resp 2"),
	}}
	sink := &fakeSink{}
	svc, persist := newTestService(gen, sink)

	p1 := PlayerInfo{ID: "u1", Name: "Alice", Country: "US"}
	p2 := PlayerInfo{ID: "u2", Name: "Bob", Country: "DE"}

	g, round, err := svc.CreateGame(ctx, p1, p2, 2)
	require.NoError(t, err)
	assert.Equal(t, "resp 1", round.PublicResponse)
	require.Equal(t, 1, gen.calls)

	// snapshot persisted at creation
	_, found, err := persist.Load(ctx, g.ID())
	require.NoError(t, err)
	assert.True(t, found)

	// winning guess pre-generates the next round
	res, tr, err := svc.SubmitGameGuess(ctx, g.ID(), "u1", "what is rain?")
	require.NoError(t, err)
	assert.True(t, res.IsCorrect)
	assert.Equal(t, PhaseRoundOver, tr.Phase)
	require.Equal(t, 2, gen.calls, "next round generated during the winning guess")
	assert.True(t, g.HasStagedRound())

	// advance consumes the staged round, no extra generation
	payload, err := svc.AdvanceRound(ctx, g.ID())
	require.NoError(t, err)
	assert.Equal(t, 2, payload.Round)
	assert.Equal(t, "resp 2", payload.PublicResponse)
	require.Equal(t, 2, gen.calls)

	// final round win ends the game and writes results; the partial-match
	// score (60) keeps u2 below u1's exact-match 100
	res, tr, err = svc.SubmitGameGuess(ctx, g.ID(), "u2", "snow snow snow")
	require.NoError(t, err)
	require.True(t, res.IsCorrect)
	assert.Equal(t, PhaseGameOver, tr.Phase)

	sink.mu.Lock()
	defer sink.mu.Unlock()
	require.Len(t, sink.entries, 2)
	assert.Equal(t, "win", sink.outcomes["u1"])
	assert.Equal(t, "loss", sink.outcomes["u2"])
}

func TestService_PreGenerationDegradesToLazy(t *testing.T) {
	ctx := context.Background()
	gen := &fakeGen{
		replies: []string{
			genReply("What is rain?", "resp 1"),
			"",                              // pre-generation fails
			genReply("What is snow?", "resp 2"), // lazy regeneration succeeds
		},
		errs: []error{nil, errors.New("rate limited"), nil},
	}
	svc, _ := newTestService(gen, nil)

	g, _, err := svc.CreateGame(ctx, PlayerInfo{ID: "u1", Name: "A"}, PlayerInfo{ID: "u2", Name: "B"}, 2)
	require.NoError(t, err)

	// the winning guess still succeeds even though pre-generation failed
	_, tr, err := svc.SubmitGameGuess(ctx, g.ID(), "u1", "what is rain?")
	require.NoError(t, err)
	assert.Equal(t, PhaseRoundOver, tr.Phase)
	assert.False(t, g.HasStagedRound())

	// advance falls back to generating on demand
	payload, err := svc.AdvanceRound(ctx, g.ID())
	require.NoError(t, err)
	assert.Equal(t, "resp 2", payload.PublicResponse)
}

func TestService_GetOrLoadRestoresFromSnapshot(t *testing.T) {
	ctx := context.Background()
	gen := &fakeGen{replies: []string{genReply("What is rain?", "resp 1")}}
	svc, persist := newTestService(gen, nil)

	g, round, err := svc.CreateGame(ctx, PlayerInfo{ID: "u1", Name: "A"}, PlayerInfo{ID: "u2", Name: "B"}, 2)
	require.NoError(t, err)

	// a second service instance sharing only the snapshot store (restart)
	svc2, _ := newTestService(&fakeGen{replies: []string{genReply("p", "r")}}, nil)
	svc2.persist = persist
	svc2.rounds = svc.rounds
	svc2.gen = svc.gen

	restored, ok, err := svc2.GetOrLoad(ctx, g.ID())
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, PhasePlaying, restored.Phase())

	gotID, roundNum := restored.CurrentRound()
	assert.Equal(t, round.RoundID, gotID)
	assert.Equal(t, 1, roundNum)

	_, ok, err = svc2.GetOrLoad(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestService_GameGuessOutsidePlayingIsSoft(t *testing.T) {
	ctx := context.Background()
	gen := &fakeGen{replies: []string{
		genReply("What is rain?", "resp 1"),
		genReply("What is snow?", "resp 2"),
	}}
	svc, _ := newTestService(gen, nil)

	g, _, err := svc.CreateGame(ctx, PlayerInfo{ID: "u1", Name: "A"}, PlayerInfo{ID: "u2", Name: "B"}, 2)
	require.NoError(t, err)

	_, _, err = svc.SubmitGameGuess(ctx, g.ID(), "u1", "what is rain?")
	require.NoError(t, err)

	// round_over: a second guess loses the race softly
	_, _, err = svc.SubmitGameGuess(ctx, g.ID(), "u2", "what is rain?")
	assert.True(t, IsSoftError(err))
}
