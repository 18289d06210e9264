package reply

import (
	"context"
	"math/rand/v2"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedRand int

func (f fixedRand) IntN(n int) int { return int(f) % n }

func seeded(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

func TestClassifyPicksFirstMatchingCategory(t *testing.T) {
	gen := NewGenerator("Alex", fixedRand(0))

	cases := map[string]string{
		"Hello there":               "greeting",
		"hi, let's go shopping":     "greeting",
		"how are you doing":         "how_are_you",
		"I'm fine":                  "fine",
		"I walked my dog":           "pets",
		"what's your name":          "about_assistant",
		"Yes ":                      "yes",
		"not really":                "no",
		"I'm scared, can you help?": FallbackCategory,
		"going to the store":        "shopping",
		"So tired after the gym":    "exercise",
	}

	for text, want := range cases {
		assert.Equal(t, want, gen.Classify(text).Name, "text %q", text)
	}
}

func TestClassifyWordCountGuard(t *testing.T) {
	gen := NewGenerator("Alex", fixedRand(0))

	assert.Equal(t, "fine", gen.Classify("fine").Name)
	assert.Equal(t, FallbackCategory, gen.Classify("I feel fine about the whole long story today").Name)
}

func TestClassifyExactMatchForShortAnswers(t *testing.T) {
	gen := NewGenerator("Alex", fixedRand(0))

	assert.Equal(t, "yes", gen.Classify("yep").Name)
	assert.NotEqual(t, "yes", gen.Classify("yes but later").Name)
}

func TestCategorySelectionIndependentOfSeed(t *testing.T) {
	texts := []string{
		"Hello there",
		"I love coffee",
		"I'm scared, can you help?",
		"my sister is visiting",
		"any good jokes?",
	}

	for _, text := range texts {
		want := NewGenerator("Alex", seeded(1)).Respond(context.Background(), text).Category
		for seed := uint64(2); seed < 40; seed++ {
			got := NewGenerator("Alex", seeded(seed)).Respond(context.Background(), text)
			require.Equal(t, want, got.Category, "seed %d text %q", seed, text)
		}
	}
}

func TestRespondDrawsFromCategoryPool(t *testing.T) {
	gen := NewGenerator("Alex", seeded(7))
	pool := map[string]bool{}
	for _, phrase := range Fallback().Phrases {
		pool[phrase] = true
	}

	for i := 0; i < 50; i++ {
		r := gen.Respond(context.Background(), "the bus was late")
		require.Equal(t, FallbackCategory, r.Category)
		require.True(t, pool[r.Text], "unexpected phrase %q", r.Text)
	}
}

func TestRespondSubstitutesAssistantName(t *testing.T) {
	for i := 0; i < 3; i++ {
		gen := NewGenerator("Sam", fixedRand(i))
		r := gen.Respond(context.Background(), "who are you?")
		assert.Equal(t, "about_assistant", r.Category)
		assert.Contains(t, r.Text, "Sam")
		assert.False(t, strings.Contains(r.Text, NamePlaceholder))
	}
}

func TestEveryCategoryHasPhrases(t *testing.T) {
	seen := map[string]bool{}
	for _, c := range Categories() {
		assert.NotEmpty(t, c.Phrases, c.Name)
		assert.False(t, seen[c.Name], "duplicate category %s", c.Name)
		seen[c.Name] = true
	}
	assert.Len(t, Fallback().Phrases, 25)
}
