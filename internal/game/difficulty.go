package game

import "math/rand"

// Curve selects which difficulty scale a game mode ramps on. The two curves
// are independent product variants, not two views of one scale.
type Curve string

const (
	// CurveComplexity — 10 levels tied to prompt-format complexity
	// ("What is X?" up to layered meta-prompts).
	CurveComplexity Curve = "complexity"

	// CurveRiddle — 4 buckets keyed by round number; the public response is a
	// riddle-style clue rather than a natural answer.
	CurveRiddle Curve = "riddle"
)

// DifficultyConfig bundles the generation constraints for one tier.
type DifficultyConfig struct {
	Tier         int    // clamped tier within the curve
	Label        string // VERY EASY .. MASTER
	AnswerLength string // expected length of the hidden subject, riddle curve
	SubjectPool  string // curated subjects; bounded on purpose to tame LLM variance
	ClueStyle    string
	Example      string
}

// MaxTier reports the highest tier of a curve, used to cap escalation.
func MaxTier(c Curve) int {
	if c == CurveRiddle {
		return 4
	}
	return 10
}

// TierFor maps a round number / difficulty input to its tier config.
// Total over all integers: out-of-range values clamp, never error.
func TierFor(c Curve, n int) DifficultyConfig {
	if c == CurveRiddle {
		return riddleTier(n)
	}
	return complexityTier(n)
}

// complexityTier: difficulty input 1..10, clamped.
func complexityTier(n int) DifficultyConfig {
	if n < 1 {
		n = 1
	}
	if n > 10 {
		n = 10
	}
	return DifficultyConfig{
		Tier:      n,
		Label:     complexityLabels[n-1],
		ClueStyle: complexityDescriptions[n-1],
	}
}

var complexityLabels = [10]string{
	"EASY", "EASY", "MEDIUM", "MEDIUM", "MEDIUM-HARD",
	"HARD", "HARD", "EXPERT", "EXPERT", "MASTER",
}

var complexityDescriptions = [10]string{
	`EASY: Simple "What is" questions about common things. Examples: "What is a dog?", "What is pizza?", "What is the sun?"`,
	`EASY: Basic "How to" or "Explain" questions. Examples: "How do you make toast?", "Explain what a bicycle is", "Why is the sky blue?"`,
	`MEDIUM: Opinion or advice questions. Examples: "What's your favorite color and why?", "Give me tips for waking up early", "What's a good movie to watch?"`,
	`MEDIUM: Fun questions with personality. Examples: "Tell me a joke", "What's the best pizza topping?", "Give me excuses to skip the gym"`,
	`MEDIUM-HARD: Creative twists and comparisons. Examples: "Explain WiFi to a grandma", "Describe coffee like a poet", "Compare cats and dogs"`,
	`HARD: Roleplay and creative writing. Examples: "Write a breakup text from Netflix", "Review water like a food critic", "Explain memes to Shakespeare"`,
	`HARD: Abstract concepts and unusual perspectives. Examples: "Write a letter from Monday to Friday", "Describe time to an alien", "What would colors say if they could talk?"`,
	`EXPERT: Complex roleplay. Examples: "Write a resignation letter from the letter 'E'", "Interview a cloud", "Write a Yelp review of your dreams"`,
	`EXPERT: Maximum creativity. Niche references, layered humor, meta-prompts. Examples: "Write an apology from autocorrect", "Explain the internet to a medieval knight"`,
	`MASTER: Impossible mode. Obscure, abstract, multi-layered prompts that require real inference. Wild creative scenarios.`,
}

// riddleTier: buckets by round number. Rounds 1-2 VERY EASY, 3-4 EASY,
// 5-6 MEDIUM, 7+ HARD.
func riddleTier(round int) DifficultyConfig {
	switch {
	case round <= 2:
		return DifficultyConfig{
			Tier:         1,
			Label:        "VERY EASY",
			AnswerLength: "1-3 words",
			SubjectPool:  "Everyday universal things: fire, water, sleep, rain, mirror, shadow, ice, door, bread, sun, moon, clock, wind, snow, dream",
			ClueStyle:    "Obvious and literal. Describe physical properties and everyday experiences. Anyone on Earth should get it within seconds.",
			Example: `Example:
Question: "What is fire?"
Clue: "It dances without feet and eats without a mouth. It gives warmth and light, but touch it and it punishes you instantly. It has been humanity's companion since the very beginning."`,
		}
	case round <= 4:
		return DifficultyConfig{
			Tier:         2,
			Label:        "EASY",
			AnswerLength: "2-4 words",
			SubjectPool:  "Famous everyday things: Eiffel Tower, pizza, bicycle, birthday cake, roller coaster, smartphone, elevator, sunglasses, umbrella, refrigerator",
			ClueStyle:    "Clear but requires one small mental hop. Describe the thing's purpose, feeling, or cultural role without naming it.",
			Example: `Example:
Question: "What is a birthday cake?"
Clue: "It appears exactly once a year for each person, always with tiny flames on top that you must extinguish with a single breath. It marks the passing of time in the sweetest possible way. Making a wish is optional but strongly encouraged."`,
		}
	case round <= 6:
		return DifficultyConfig{
			Tier:         3,
			Label:        "MEDIUM",
			AnswerLength: "2-5 words",
			SubjectPool:  "Things with ironic or indirect qualities: time, gravity, horizon, silence, procrastination, nostalgia, jealousy, a deadline, a habit, luck",
			ClueStyle:    "Metaphorical and lateral. Describe the concept through its effects, contradictions, or paradoxes. Requires genuine thinking.",
			Example: `Example:
Question: "What is procrastination?"
Clue: "It always promises you can start tomorrow, and somehow tomorrow never argues back. It feels like rest but leaves you more tired than work ever would. The longer you give in to it, the louder it screams when you finally stop."`,
		}
	default:
		return DifficultyConfig{
			Tier:         4,
			Label:        "HARD",
			AnswerLength: "2-5 words",
			SubjectPool:  "Abstract and scientific concepts: entropy, irony, a black hole, the placebo effect, recursion, a blind spot, déjà vu, cognitive dissonance, a paradox, the Dunning-Kruger effect",
			ClueStyle:    `Cryptic and clever. Use unexpected angles, wordplay, or philosophical framing. Should make players say "of course!" only after they get it.`,
			Example: `Example:
Question: "What is a black hole?"
Clue: "It is the universe's most patient collector — it takes everything and returns nothing, not even light. The closer you get, the slower time moves, until time itself forgets how to tick. Scientists can only describe it by the shape of the silence it carves into space."`,
		}
	}
}

// topicCategories keep the complexity curve varied round over round.
var topicCategories = []string{
	"animals (dog, cat, elephant, bird, fish, horse, lion, butterfly)",
	"food (pizza, ice cream, sushi, tacos, bread, cheese, soup, salad)",
	"nature (rain, sun, mountains, ocean, trees, flowers, snow, wind)",
	"technology (phone, computer, internet, TV, car, airplane, robot)",
	"activities (swimming, reading, cooking, dancing, sleeping, running)",
	"places (school, hospital, beach, park, library, museum, zoo)",
	"objects (chair, book, clock, mirror, umbrella, bicycle, shoes)",
	"concepts (friendship, love, happiness, time, music, art, dreams)",
}

func randomTopicCategory() string {
	return topicCategories[rand.Intn(len(topicCategories))]
}
