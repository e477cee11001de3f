package game

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerator_Scenarios(t *testing.T) {
	ctx := context.Background()

	cases := []struct {
		name string
		run  func(t *testing.T)
	}{
		{
			name: "clean prompt/response json",
			run: func(t *testing.T) {
				store := NewMemoryRoundStore(10)
				g := NewGenerator(&fakeGen{replies: []string{
					`{"prompt": "What is rain?", "response": "Water falls from clouds when they get heavy."}`,
				}}, store)

				r, err := g.StartRound(ctx, CurveComplexity, 3)
				require.NoError(t, err)
				assert.NotEmpty(t, r.ID)
				assert.Equal(t, "What is rain?", r.HiddenPrompt)
				assert.Equal(t, "Water falls from clouds when they get heavy.", r.PublicResponse)
				assert.Equal(t, 3, r.Tier)
				assert.False(t, r.CreatedAt.IsZero())
			},
		},
		{
			name: "question/answer spelling accepted",
			run: func(t *testing.T) {
				store := NewMemoryRoundStore(10)
				g := NewGenerator(&fakeGen{replies: []string{
					`{"question": "What is fire?", "answer": "It dances without feet and eats without a mouth."}`,
				}}, store)

				r, err := g.StartRound(ctx, CurveRiddle, 1)
				require.NoError(t, err)
				assert.Equal(t, "What is fire?", r.HiddenPrompt)
				assert.Equal(t, 1, r.Tier)
			},
		},
		{
			name: "stored before returning: scorable from the store",
			run: func(t *testing.T) {
				store := NewMemoryRoundStore(10)
				g := NewGenerator(&fakeGen{replies: []string{
					`{"prompt": "What is snow?", "response": "Frozen water that falls softly."}`,
				}}, store)

				r, err := g.StartRound(ctx, CurveComplexity, 1)
				require.NoError(t, err)

				got, err := store.Get(ctx, r.ID)
				require.NoError(t, err)
				assert.Equal(t, r.HiddenPrompt, got.HiddenPrompt)
			},
		},
		{
			name: "json wrapped in prose is recovered",
			run: func(t *testing.T) {
				store := NewMemoryRoundStore(10)
				g := NewGenerator(&fakeGen{replies: []string{
					"Here is your round!\n```\n{\"prompt\": \"What is wind?\", \"response\": \"You feel it but never see it.\"}\n```\nEnjoy!",
				}}, store)

				r, err := g.StartRound(ctx, CurveComplexity, 1)
				require.NoError(t, err)
				assert.Equal(t, "What is wind?", r.HiddenPrompt)
			},
		},
		{
			name: "unparsable output is a generation error",
			run: func(t *testing.T) {
				g := NewGenerator(&fakeGen{replies: []string{"I'd rather not."}}, NewMemoryRoundStore(10))

				_, err := g.StartRound(ctx, CurveComplexity, 1)
				var gerr *GenerationError
				require.ErrorAs(t, err, &gerr)
			},
		},
		{
			name: "missing fields is a generation error",
			run: func(t *testing.T) {
				g := NewGenerator(&fakeGen{replies: []string{`{"prompt": "", "response": "something"}`}}, NewMemoryRoundStore(10))

				_, err := g.StartRound(ctx, CurveComplexity, 1)
				var gerr *GenerationError
				require.ErrorAs(t, err, &gerr)
			},
		},
		{
			name: "capability failure is a generation error",
			run: func(t *testing.T) {
				g := NewGenerator(&fakeGen{errs: []error{errors.New("rate limited")}}, NewMemoryRoundStore(10))

				_, err := g.StartRound(ctx, CurveComplexity, 1)
				var gerr *GenerationError
				require.ErrorAs(t, err, &gerr)
			},
		},
		{
			name: "riddle instructions carry the tier constraints",
			run: func(t *testing.T) {
				fg := &fakeGen{replies: []string{`{"question": "What is time?", "answer": "clue"}`}}
				g := NewGenerator(fg, NewMemoryRoundStore(10))

				_, err := g.StartRound(ctx, CurveRiddle, 5)
				require.NoError(t, err)
				require.Len(t, fg.prompts, 1)
				cfg := TierFor(CurveRiddle, 5)
				assert.Contains(t, fg.prompts[0], cfg.SubjectPool)
				assert.Contains(t, fg.prompts[0], cfg.AnswerLength)
				assert.Contains(t, fg.prompts[0], `must start with "It" or "They"`)
			},
		},
		{
			name: "complexity instructions carry immersion rules",
			run: func(t *testing.T) {
				fg := &fakeGen{replies: []string{`{"prompt": "p", "response": "r"}`}}
				g := NewGenerator(fg, NewMemoryRoundStore(10))

				_, err := g.StartRound(ctx, CurveComplexity, 7)
				require.NoError(t, err)
				require.Len(t, fg.prompts, 1)
				assert.Contains(t, fg.prompts[0], "NEVER mention the game")
				assert.Contains(t, fg.prompts[0], "DIFFICULTY 7/10")
			},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, tc.run)
	}
}

func TestExtractJSONObject(t *testing.T) {
	cases := []struct {
		in   string
		want string
		ok   bool
	}{
		{`{"a":1}`, `{"a":1}`, true},
		{`prefix {"a":1} suffix`, `{"a":1}`, true},
		{`{"a":{"b":2}}`, `{"a":{"b":2}}`, true},
		{`{"a":"br}ace"}`, `{"a":"br}ace"}`, true},
		{`{"a":"esc\"}quote"}`, `{"a":"esc\"}quote"}`, true},
		{`no json here`, ``, false},
		{`{"unclosed":`, ``, false},
	}
	for _, tc := range cases {
		got, ok := extractJSONObject(tc.in)
		if ok != tc.ok || got != tc.want {
			t.Fatalf("extractJSONObject(%q) = %q,%v want %q,%v", tc.in, got, ok, tc.want, tc.ok)
		}
	}
}
