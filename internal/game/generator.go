package game

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"example.com/gtp-mvp/internal/ai"
)

const generateMaxTokens = 512

// Generator owns round creation: it builds the instruction payload for the
// tier, calls the text capability, parses the result and persists the Round
// in the store before handing the public half back.
type Generator struct {
	gen    ai.TextGenerator
	rounds RoundStore
}

func NewGenerator(gen ai.TextGenerator, rounds RoundStore) *Generator {
	return &Generator{gen: gen, rounds: rounds}
}

// StartRound generates and stores a round for the given difficulty input
// (round number on the riddle curve, 1..10 level on the complexity curve).
func (g *Generator) StartRound(ctx context.Context, curve Curve, difficultyInput int) (Round, error) {
	cfg := TierFor(curve, difficultyInput)

	var instructions string
	if curve == CurveRiddle {
		instructions = riddleInstructions(cfg, difficultyInput)
	} else {
		instructions = complexityInstructions(cfg, randomTopicCategory())
	}

	text, err := g.gen.GenerateText(ctx, instructions, generateMaxTokens)
	if err != nil {
		return Round{}, &GenerationError{Reason: "capability call failed", Err: err}
	}

	prompt, response, err := parseRoundPayload(text)
	if err != nil {
		return Round{}, err
	}

	r := Round{
		ID:             uuid.NewString(),
		HiddenPrompt:   prompt,
		PublicResponse: response,
		Tier:           cfg.Tier,
		CreatedAt:      time.Now(),
	}
	if err := g.rounds.Put(ctx, r); err != nil {
		return Round{}, fmt.Errorf("store round: %w", err)
	}
	return r, nil
}

// roundPayload accepts both field spellings the two generator variants use.
type roundPayload struct {
	Prompt   string `json:"prompt"`
	Response string `json:"response"`
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

func parseRoundPayload(text string) (prompt, response string, err error) {
	var p roundPayload
	if uerr := json.Unmarshal([]byte(strings.TrimSpace(text)), &p); uerr != nil {
		obj, ok := extractJSONObject(text)
		if !ok {
			return "", "", &GenerationError{Reason: "unparsable output", Err: uerr}
		}
		if uerr := json.Unmarshal([]byte(obj), &p); uerr != nil {
			return "", "", &GenerationError{Reason: "unparsable output after recovery", Err: uerr}
		}
	}

	prompt, response = p.Prompt, p.Response
	if prompt == "" {
		prompt, response = p.Question, p.Answer
	}
	if prompt == "" || response == "" {
		return "", "", &GenerationError{Reason: "missing prompt or response field"}
	}
	return prompt, response, nil
}

// extractJSONObject finds the first balanced {...} substring, skipping braces
// inside JSON strings. Models love wrapping their JSON in prose.
func extractJSONObject(s string) (string, bool) {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1], true
			}
		}
	}
	return "", false
}

func complexityInstructions(cfg DifficultyConfig, category string) string {
	return fmt.Sprintf(`Generate a prompt and response for "Guess the Prompt" game.

DIFFICULTY %d/10:
%s

IMPORTANT - VARIETY:
- Pick a topic from this category: %s
- Be creative and pick something DIFFERENT each time
- DO NOT use bananas, apples, or overly common fruits repeatedly

RULES BY DIFFICULTY:
%s

- Prompts should be SHORT (under 15 words)
- Response should be 1-3 short paragraphs MAX

CRITICAL - IMMERSION RULES:
- NEVER mention the game or that it's a game
- NEVER say "Can you guess the prompt?" or anything similar
- NEVER list "Clues:" or hint at what the prompt is
- Respond NATURALLY as if genuinely answering the prompt

Return ONLY valid JSON:
{
  "prompt": "the prompt (under 15 words)",
  "response": "natural response that answers the prompt"
}`, cfg.Tier, cfg.ClueStyle, category, complexityRules(cfg.Tier))
}

func complexityRules(tier int) string {
	switch {
	case tier <= 2:
		return `- MUST use simple formats: "What is X?", "Explain X", "How do you X?"
- Topics MUST be super common everyday things
- Response should DIRECTLY and OBVIOUSLY answer the question
- Make it VERY easy to guess - the topic should be mentioned clearly in the response`
	case tier <= 4:
		return `- Can use opinion questions, simple advice, jokes, or fun perspectives
- Topics should be common and relatable
- Response should clearly mention the main topic but can have personality`
	case tier <= 6:
		return `- Use creative formats: roleplay, unusual perspectives, creative writing
- Can use humor, comparisons, or character voices
- Response should have clear clues but require some thinking`
	default:
		return `- Maximum creativity: abstract concepts, meta-prompts, niche references
- Can be layered humor or require real inference
- Response should have enough clues to figure it out, but it's meant to be challenging`
	}
}

func riddleInstructions(cfg DifficultyConfig, roundNumber int) string {
	return fmt.Sprintf(`You are designing a PUZZLE round for a "Guess The Prompt" game. Players read your CLUE and must guess the original QUESTION/ANSWER in %s.

DIFFICULTY: %s (Round %d)
SUBJECT POOL: %s
CLUE STYLE: %s

RULES:
- Pick one subject from the subject pool above.
- The answer (the thing being described) must be %s long.
- Write a 3-sentence clue that reads like a riddle, NOT a Wikipedia article.
- The clue must start with "It" or "They".
- The clue must NEVER contain the answer word(s) — not even once.
- The clue must give enough information to guess correctly, but not make it trivial.

%s

Return ONLY valid JSON with no other text:
{"question": "What is [the answer]?", "answer": "[The 3-sentence riddle-style clue]"}`,
		cfg.AnswerLength, cfg.Label, roundNumber, cfg.SubjectPool, cfg.ClueStyle, cfg.AnswerLength, cfg.Example)
}
