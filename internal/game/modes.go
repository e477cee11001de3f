package game

import (
	"time"

	"example.com/gtp-mvp/internal/ai"
)

// Scoring strategy names. All three satisfy the same Scorer contract; the
// choice is a per-mode latency/cost/offline trade-off, not a quality ranking.
const (
	StrategyHeuristic = "heuristic"
	StrategyLLM       = "llm"
	StrategyEmbedding = "embedding"
)

// Mode bundles the tunables of one way to play. The correctness threshold is
// deliberately per-mode: the product ships with both 60 and 90 in use.
type Mode struct {
	Name        string
	Curve       Curve
	Strategy    string
	Threshold   int           // isCorrect = score >= Threshold
	TotalRounds int           // fixed game length
	MaxGuesses  int           // solo: reveal after this many attempts (0 = unlimited)
	TimeLimit   time.Duration // timed solo countdown (0 = untimed)
}

// Config carries the three shipped modes plus store sizing.
type Config struct {
	Solo        Mode
	TimedSolo   Mode
	Multiplayer Mode
	RoundCap    int
}

func DefaultConfig() Config {
	return Config{
		Solo: Mode{
			Name:        "solo",
			Curve:       CurveRiddle,
			Strategy:    StrategyEmbedding,
			Threshold:   90,
			TotalRounds: 5,
			MaxGuesses:  10,
		},
		TimedSolo: Mode{
			Name:        "timed",
			Curve:       CurveComplexity,
			Strategy:    StrategyLLM,
			Threshold:   60,
			TotalRounds: 5,
			MaxGuesses:  10,
			TimeLimit:   2 * time.Minute,
		},
		Multiplayer: Mode{
			Name:        "multiplayer",
			Curve:       CurveComplexity,
			Strategy:    StrategyLLM,
			Threshold:   60,
			TotalRounds: 5,
		},
		RoundCap: DefaultRoundCap,
	}
}

// ModeByName returns the mode for a request-supplied name, defaulting to solo.
func (c Config) ModeByName(name string) Mode {
	switch name {
	case c.TimedSolo.Name:
		return c.TimedSolo
	case c.Multiplayer.Name:
		return c.Multiplayer
	default:
		return c.Solo
	}
}

// BuildScorer wires the strategy a mode asks for.
func BuildScorer(mode Mode, gen ai.TextGenerator, emb ai.Embedder) Scorer {
	switch mode.Strategy {
	case StrategyLLM:
		return &LLMScorer{Gen: gen, Threshold: mode.Threshold}
	case StrategyEmbedding:
		if emb == nil {
			emb = ai.NoopEmbedder{}
		}
		return &EmbeddingScorer{Emb: emb, Gen: gen, Threshold: mode.Threshold}
	default:
		return &HeuristicScorer{Threshold: mode.Threshold}
	}
}
