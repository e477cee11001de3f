package game

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func soloMode() Mode {
	return Mode{
		Name:        "solo",
		Curve:       CurveRiddle,
		Strategy:    StrategyEmbedding,
		Threshold:   90,
		TotalRounds: 2,
		MaxGuesses:  3,
	}
}

func TestSession_Scenarios(t *testing.T) {
	cases := []struct {
		name string
		run  func(t *testing.T)
	}{
		{
			name: "begin moves idle to playing round 1",
			run: func(t *testing.T) {
				s := NewSession("s1", soloMode())
				require.NoError(t, s.Begin("r1"))

				st := s.State()
				assert.Equal(t, SessionPlaying, st.Phase)
				assert.Equal(t, 1, st.Round)
				assert.Equal(t, "r1", s.RoundID())
			},
		},
		{
			name: "double begin rejected",
			run: func(t *testing.T) {
				s := NewSession("s1", soloMode())
				require.NoError(t, s.Begin("r1"))
				assert.True(t, errors.Is(s.Begin("r2"), ErrInvalidTransition))
			},
		},
		{
			name: "correct guess reveals, scores, and wins the round",
			run: func(t *testing.T) {
				s := NewSession("s1", soloMode())
				require.NoError(t, s.Begin("r1"))

				tr, err := s.ApplyScore(ScoreResult{Score: 92, IsCorrect: true})
				require.NoError(t, err)
				assert.True(t, tr.RoundWon)
				assert.True(t, tr.Reveal)
				assert.Equal(t, SessionRevealed, tr.Phase)
				assert.Equal(t, 92, tr.TotalScore)

				st := s.State()
				assert.Equal(t, 1, st.RoundsWon)
			},
		},
		{
			name: "wrong guesses below the cap keep playing",
			run: func(t *testing.T) {
				s := NewSession("s1", soloMode())
				require.NoError(t, s.Begin("r1"))

				for i := 0; i < 2; i++ {
					tr, err := s.ApplyScore(ScoreResult{Score: 20})
					require.NoError(t, err)
					assert.Equal(t, SessionPlaying, tr.Phase)
					assert.False(t, tr.Reveal)
				}
				assert.Equal(t, 2, s.State().Guesses)
			},
		},
		{
			name: "exhausting max guesses reveals without a win",
			run: func(t *testing.T) {
				s := NewSession("s1", soloMode())
				require.NoError(t, s.Begin("r1"))

				var tr SessionTransition
				var err error
				for i := 0; i < 3; i++ {
					tr, err = s.ApplyScore(ScoreResult{Score: 10})
					require.NoError(t, err)
				}
				assert.Equal(t, SessionRevealed, tr.Phase)
				assert.True(t, tr.Reveal)
				assert.False(t, tr.RoundWon)
				assert.Equal(t, 0, tr.TotalScore)
			},
		},
		{
			name: "advance starts next round, then finishes after the last",
			run: func(t *testing.T) {
				s := NewSession("s1", soloMode())
				require.NoError(t, s.Begin("r1"))

				_, err := s.ApplyScore(ScoreResult{Score: 95, IsCorrect: true})
				require.NoError(t, err)

				finished, err := s.AdvanceRound("r2")
				require.NoError(t, err)
				assert.False(t, finished)
				assert.Equal(t, "r2", s.RoundID())
				assert.Equal(t, 2, s.State().Round)
				assert.Equal(t, 0, s.State().Guesses, "guess counter resets per round")

				_, err = s.ApplyScore(ScoreResult{Score: 91, IsCorrect: true})
				require.NoError(t, err)

				finished, err = s.AdvanceRound("")
				require.NoError(t, err)
				assert.True(t, finished)
				assert.Equal(t, SessionFinished, s.State().Phase)
			},
		},
		{
			name: "advance outside revealed rejected",
			run: func(t *testing.T) {
				s := NewSession("s1", soloMode())
				require.NoError(t, s.Begin("r1"))
				_, err := s.AdvanceRound("r2")
				assert.True(t, errors.Is(err, ErrInvalidTransition))
			},
		},
		{
			name: "guesses after a finished game rejected",
			run: func(t *testing.T) {
				mode := soloMode()
				mode.TotalRounds = 1
				s := NewSession("s1", mode)
				require.NoError(t, s.Begin("r1"))

				_, err := s.ApplyScore(ScoreResult{Score: 95, IsCorrect: true})
				require.NoError(t, err)
				finished, err := s.AdvanceRound("")
				require.NoError(t, err)
				require.True(t, finished)

				_, err = s.ApplyScore(ScoreResult{Score: 95, IsCorrect: true})
				assert.True(t, errors.Is(err, ErrInvalidTransition))
			},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, tc.run)
	}
}

func TestSession_TimedCountdown(t *testing.T) {
	mode := soloMode()
	mode.Name = "timed"
	mode.TimeLimit = 40 * time.Millisecond

	s := NewSession("s1", mode)
	require.NoError(t, s.Begin("r1"))

	time.Sleep(70 * time.Millisecond) // > TimeLimit to avoid flake

	assert.Equal(t, SessionGameOver, s.State().Phase)

	// a scorer result that was in flight when the countdown fired is discarded
	_, err := s.ApplyScore(ScoreResult{Score: 95, IsCorrect: true})
	assert.True(t, errors.Is(err, ErrInvalidTransition))
	assert.Equal(t, SessionGameOver, s.State().Phase, "late result must not reopen the game")
	assert.Equal(t, 0, s.State().TotalScore)
}

func TestSession_TimeoutAfterFinishIsNoop(t *testing.T) {
	mode := soloMode()
	mode.Name = "timed"
	mode.TotalRounds = 1
	mode.TimeLimit = 40 * time.Millisecond

	s := NewSession("s1", mode)
	require.NoError(t, s.Begin("r1"))

	_, err := s.ApplyScore(ScoreResult{Score: 95, IsCorrect: true})
	require.NoError(t, err)
	finished, err := s.AdvanceRound("")
	require.NoError(t, err)
	require.True(t, finished)

	time.Sleep(70 * time.Millisecond)
	assert.Equal(t, SessionFinished, s.State().Phase, "finished beats gameover")
}

func TestSession_RemainingMsOnlyWhilePlaying(t *testing.T) {
	mode := soloMode()
	mode.TimeLimit = time.Minute

	s := NewSession("s1", mode)
	require.NoError(t, s.Begin("r1"))
	assert.Greater(t, s.State().RemainingMs, int64(0))

	_, err := s.ApplyScore(ScoreResult{Score: 95, IsCorrect: true})
	require.NoError(t, err)
	assert.Equal(t, int64(0), s.State().RemainingMs)
}

func TestSession_DifficultyEscalation(t *testing.T) {
	t.Run("riddle curve follows the round number", func(t *testing.T) {
		s := NewSession("s1", soloMode())
		require.NoError(t, s.Begin("r1"))
		assert.Equal(t, 2, s.NextDifficultyInput())

		_, err := s.ApplyScore(ScoreResult{Score: 95, IsCorrect: true})
		require.NoError(t, err)
		_, err = s.AdvanceRound("r2")
		require.NoError(t, err)
		assert.Equal(t, 3, s.NextDifficultyInput())
	})

	t.Run("complexity curve ramps on wins and caps at the top tier", func(t *testing.T) {
		mode := Mode{
			Name:        "timed",
			Curve:       CurveComplexity,
			Threshold:   60,
			TotalRounds: 20,
			MaxGuesses:  10,
		}
		s := NewSession("s1", mode)
		require.NoError(t, s.Begin("r1"))

		for i := 0; i < 15; i++ {
			_, err := s.ApplyScore(ScoreResult{Score: 80, IsCorrect: true})
			require.NoError(t, err)
			_, err = s.AdvanceRound("rX")
			require.NoError(t, err)
		}
		assert.Equal(t, MaxTier(CurveComplexity), s.NextDifficultyInput())
	})

	t.Run("no escalation without a win", func(t *testing.T) {
		mode := Mode{Name: "timed", Curve: CurveComplexity, Threshold: 60, TotalRounds: 5, MaxGuesses: 1}
		s := NewSession("s1", mode)
		require.NoError(t, s.Begin("r1"))

		_, err := s.ApplyScore(ScoreResult{Score: 10})
		require.NoError(t, err)
		_, err = s.AdvanceRound("r2")
		require.NoError(t, err)
		assert.Equal(t, 1, s.NextDifficultyInput())
	})
}

func TestSession_Totals(t *testing.T) {
	s := NewSession("s1", soloMode())
	require.NoError(t, s.Begin("r1"))

	_, err := s.ApplyScore(ScoreResult{Score: 30})
	require.NoError(t, err)
	_, err = s.ApplyScore(ScoreResult{Score: 92, IsCorrect: true})
	require.NoError(t, err)

	score, won, guesses, _ := s.Totals()
	assert.Equal(t, 92, score)
	assert.Equal(t, 1, won)
	assert.Equal(t, 2, guesses)
}
