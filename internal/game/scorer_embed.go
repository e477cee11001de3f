package game

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"example.com/gtp-mvp/internal/ai"
)

const feedbackMaxTokens = 100

// EmbeddingScorer scores by cosine similarity of embeddings; the hot/cold
// feedback line still comes from a short LLM call. When the embedding
// capability is unavailable it falls back to a full LLM judge with a finer
// rubric.
type EmbeddingScorer struct {
	Emb       ai.Embedder
	Gen       ai.TextGenerator
	Threshold int
}

func (s *EmbeddingScorer) Score(ctx context.Context, hiddenPrompt, guess string) (ScoreResult, error) {
	va, errA := s.Emb.Embed(ctx, hiddenPrompt)
	vb, errB := s.Emb.Embed(ctx, guess)

	// Unavailable or failing embeddings degrade to the LLM judge; that is the
	// designed fallback, not error masking.
	if errA != nil || errB != nil || va == nil || vb == nil {
		return s.fallbackScore(ctx, hiddenPrompt, guess)
	}

	score := clampScore(int(math.Round(ai.Cosine(va, vb) * 100)))

	feedback, err := s.hotColdFeedback(ctx, hiddenPrompt, guess, score)
	if err != nil {
		return ScoreResult{}, err
	}

	res := ScoreResult{
		Score:     score,
		Feedback:  feedback,
		IsCorrect: score >= s.Threshold,
	}
	if !res.IsCorrect {
		res.Feedback = RedactPromptLeaks(hiddenPrompt, res.Feedback)
	}
	return res, nil
}

func (s *EmbeddingScorer) hotColdFeedback(ctx context.Context, hiddenPrompt, guess string, score int) (string, error) {
	text, err := s.Gen.GenerateText(ctx, fmt.Sprintf(`You are giving feedback in a hot-cold reverse-guessing game.
Actual question: "%s"
Player's guess: "%s"
Score: %d/100

Provide a short encouraging feedback (max 12 words) WITHOUT revealing the actual question. Use temperature language (freezing/cold/warm/hot/burning/boiling).
Return ONLY valid JSON: {"feedback": "..."}`, hiddenPrompt, guess, score), feedbackMaxTokens)
	if err != nil {
		return "", &JudgingError{Reason: "feedback call failed", Err: err}
	}

	var p struct {
		Feedback string `json:"feedback"`
	}
	if uerr := json.Unmarshal([]byte(strings.TrimSpace(text)), &p); uerr != nil {
		obj, ok := extractJSONObject(text)
		if !ok {
			return "", &JudgingError{Reason: "unparsable feedback", Err: uerr}
		}
		if uerr := json.Unmarshal([]byte(obj), &p); uerr != nil {
			return "", &JudgingError{Reason: "unparsable feedback after recovery", Err: uerr}
		}
	}
	return p.Feedback, nil
}

// fallbackScore mirrors the LLM judge but with finer score bands, since here
// the LLM replaces a continuous similarity measure.
func (s *EmbeddingScorer) fallbackScore(ctx context.Context, hiddenPrompt, guess string) (ScoreResult, error) {
	text, err := s.Gen.GenerateText(ctx, fmt.Sprintf(`You are scoring a player's guess in a hot-cold reverse-guessing game.

Actual question: "%s"
Player's guess: "%s"

Score the player's guess from 0 to 100 based on semantic similarity:
- 100: Essentially identical meaning (exact or near-exact match)
- 80-99: Very close, captures the main concept and key details
- 60-79: Correct general topic but missing specifics
- 40-59: Related to the topic but significantly different angle
- 20-39: Tangentially related
- 0-19: Completely different

Provide a short encouraging feedback (max 12 words) WITHOUT revealing the actual question. Use temperature language (freezing/cold/warm/hot/burning/boiling).

Return ONLY valid JSON:
{"score": 85, "feedback": "Getting warmer! You're on the right track!"}`, hiddenPrompt, guess), judgeMaxTokens)
	if err != nil {
		return ScoreResult{}, &JudgingError{Reason: "fallback call failed", Err: err}
	}

	p, err := parseJudgePayload(text)
	if err != nil {
		return ScoreResult{}, err
	}

	res := ScoreResult{
		Score:     clampScore(p.Score),
		Feedback:  p.Feedback,
		IsCorrect: clampScore(p.Score) >= s.Threshold,
	}
	if !res.IsCorrect {
		res.Feedback = RedactPromptLeaks(hiddenPrompt, res.Feedback)
	}
	return res, nil
}
