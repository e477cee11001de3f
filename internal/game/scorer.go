package game

import (
	"context"
	"math"
	"strings"
)

// ScoreResult is the common output of every scoring strategy.
type ScoreResult struct {
	Score     int    `json:"score"` // 0..100
	Feedback  string `json:"feedback"`
	Hint      string `json:"hint,omitempty"`
	IsCorrect bool   `json:"isCorrect"`
}

// Scorer judges a guess against the hidden prompt. Three strategies satisfy
// the contract: heuristic (offline), LLM-judged, embedding with LLM fallback.
// The correctness threshold belongs to the game mode, so each scorer carries
// the one it was configured with.
type Scorer interface {
	Score(ctx context.Context, hiddenPrompt, guess string) (ScoreResult, error)
}

// HeuristicScorer scores without any capability call. Deterministic; exact
// normalized match is the only way to reach 100, everything else caps at 95.
type HeuristicScorer struct {
	Threshold int
}

func (s *HeuristicScorer) Score(ctx context.Context, hiddenPrompt, guess string) (ScoreResult, error) {
	score := HeuristicScore(hiddenPrompt, guess)
	return ScoreResult{
		Score:     score,
		Feedback:  scoreMessage(score),
		IsCorrect: score >= s.Threshold,
	}, nil
}

// HeuristicScore: exact match 100; otherwise 60 points split over hidden-token
// coverage (guess tokens longer than 3 chars, substring match either way) plus
// a flat +20 when the hidden prompt contains the guess's first 10 characters.
func HeuristicScore(hiddenPrompt, guess string) int {
	h := strings.ToLower(strings.TrimSpace(hiddenPrompt))
	g := strings.ToLower(strings.TrimSpace(guess))

	if g == h {
		return 100
	}

	hiddenWords := strings.Fields(h)
	guessWords := strings.Fields(g)
	if len(hiddenWords) == 0 {
		return 0
	}

	matched := 0
	for _, gw := range guessWords {
		if len(gw) <= 3 {
			continue
		}
		for _, hw := range hiddenWords {
			if strings.Contains(hw, gw) || strings.Contains(gw, hw) {
				matched++
				break
			}
		}
	}

	wordScore := float64(matched) / float64(len(hiddenWords)) * 60

	conceptBonus := 0.0
	prefix := g
	if len(prefix) > 10 {
		prefix = prefix[:10]
	}
	if prefix != "" && strings.Contains(h, prefix) {
		conceptBonus = 20
	}

	score := int(math.Round(wordScore + conceptBonus))
	if score > 95 {
		score = 95
	}
	return score
}

func scoreMessage(score int) string {
	switch {
	case score >= 90:
		return "Incredible! You're a mind reader!"
	case score >= 70:
		return "So close! Great intuition!"
	case score >= 50:
		return "You're on the right track!"
	case score >= 30:
		return "Some good ideas there!"
	default:
		return "Nice try! The answer might surprise you."
	}
}

// RedactPromptLeaks removes hidden-prompt words from capability-produced
// feedback/hint text. Any text token of length >= 4 that appears verbatim
// (case-insensitive) in the hidden prompt is masked. Leaking the answer is a
// severity-highest defect, so this runs on every non-revealing result.
func RedactPromptLeaks(hiddenPrompt, text string) string {
	if text == "" {
		return text
	}

	banned := make(map[string]struct{})
	for _, w := range strings.Fields(strings.ToLower(hiddenPrompt)) {
		w = trimPunct(w)
		if len(w) >= 4 {
			banned[w] = struct{}{}
		}
	}
	if len(banned) == 0 {
		return text
	}

	var b strings.Builder
	b.Grow(len(text))
	word := strings.Builder{}
	flush := func() {
		w := word.String()
		word.Reset()
		if w == "" {
			return
		}
		if _, hit := banned[trimPunct(strings.ToLower(w))]; hit && len(trimPunct(w)) >= 4 {
			b.WriteString("****")
			return
		}
		b.WriteString(w)
	}

	for _, r := range text {
		if isWordRune(r) {
			word.WriteRune(r)
			continue
		}
		flush()
		b.WriteRune(r)
	}
	flush()
	return b.String()
}

// LeaksPrompt reports whether text contains any hidden-prompt token of
// length >= 4. Used by tests and as a final guard.
func LeaksPrompt(hiddenPrompt, text string) bool {
	lower := strings.ToLower(text)
	for _, w := range strings.Fields(strings.ToLower(hiddenPrompt)) {
		w = trimPunct(w)
		if len(w) >= 4 && containsWord(lower, w) {
			return true
		}
	}
	return false
}

func containsWord(text, word string) bool {
	for _, t := range strings.Fields(text) {
		if trimPunct(t) == word {
			return true
		}
	}
	return false
}

func trimPunct(s string) string {
	return strings.TrimFunc(s, func(r rune) bool { return !isWordRune(r) })
}

func isWordRune(r rune) bool {
	return r == '\'' || r == '-' ||
		(r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') ||
		(r >= '0' && r <= '9') || r > 127
}
