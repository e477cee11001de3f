package game

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"example.com/gtp-mvp/internal/ai"
)

const judgeMaxTokens = 200

// LLMScorer delegates scoring to the text capability with a deliberately
// lenient banded rubric: natural-language guesses vary wildly in form, so the
// same topic in different words still passes.
type LLMScorer struct {
	Gen       ai.TextGenerator
	Threshold int
}

type judgePayload struct {
	Score     int    `json:"score"`
	Feedback  string `json:"feedback"`
	Hint      string `json:"hint"`
	IsCorrect *bool  `json:"isCorrect"`
}

func (s *LLMScorer) Score(ctx context.Context, hiddenPrompt, guess string) (ScoreResult, error) {
	text, err := s.Gen.GenerateText(ctx, judgeInstructions(hiddenPrompt, guess), judgeMaxTokens)
	if err != nil {
		return ScoreResult{}, &JudgingError{Reason: "capability call failed", Err: err}
	}

	p, err := parseJudgePayload(text)
	if err != nil {
		return ScoreResult{}, err
	}

	res := ScoreResult{
		Score:    clampScore(p.Score),
		Feedback: p.Feedback,
		Hint:     p.Hint,
	}
	if p.IsCorrect != nil {
		res.IsCorrect = *p.IsCorrect
	} else {
		res.IsCorrect = res.Score >= s.Threshold
	}

	// Reveal is only authorized on a win; everything else gets scrubbed.
	if !res.IsCorrect {
		res.Feedback = RedactPromptLeaks(hiddenPrompt, res.Feedback)
		res.Hint = RedactPromptLeaks(hiddenPrompt, res.Hint)
	}
	return res, nil
}

func parseJudgePayload(text string) (judgePayload, error) {
	var p judgePayload
	if err := json.Unmarshal([]byte(strings.TrimSpace(text)), &p); err != nil {
		obj, ok := extractJSONObject(text)
		if !ok {
			return judgePayload{}, &JudgingError{Reason: "unparsable output", Err: err}
		}
		if err := json.Unmarshal([]byte(obj), &p); err != nil {
			return judgePayload{}, &JudgingError{Reason: "unparsable output after recovery", Err: err}
		}
	}
	return p, nil
}

func clampScore(s int) int {
	if s < 0 {
		return 0
	}
	if s > 100 {
		return 100
	}
	return s
}

func judgeInstructions(actualPrompt, userGuess string) string {
	return fmt.Sprintf(`You are judging a "Guess the Prompt" game. Be VERY GENEROUS with scoring.

ACTUAL PROMPT: "%s"
USER'S GUESS: "%s"

Score 0-100 based on semantic similarity - BE LENIENT:
- 60-100: CORRECT! If they got the main topic/subject right, even with different wording
- 40-59: Close, got part of it right
- 20-39: On the right track, related topic
- 0-19: Wrong direction

BE VERY GENEROUS:
- If they mention the same TOPIC, give 60+ (correct)
- "What is a dog" = "Tell me about dogs" = "Explain dogs" = ALL CORRECT (60+)
- Focus on the SUBJECT matter, not exact wording
- Partial matches should score higher than you think

Give a HELPFUL hint that guides the user closer WITHOUT quoting any word of the actual prompt:
- If they got the topic wrong: hint at the actual subject area
- If they got the format wrong: hint at how to phrase it (e.g., "Try asking 'What is...'")
- If they're close: tell them what's missing (e.g., "You got the topic, but what kind of question?")

Return ONLY valid JSON:
{
  "score": <0-100>,
  "feedback": "<warmer/colder, 2-3 words>",
  "hint": "<helpful hint that guides toward the answer>",
  "isCorrect": <true if score >= 60>
}`, actualPrompt, userGuess)
}
