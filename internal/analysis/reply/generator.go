// Package reply picks the companion's conversational answer for a user message.
package reply

import (
	"context"
	"strings"
)

// NamePlaceholder is replaced with the assistant's display name.
const NamePlaceholder = "{name}"

// Rand is the random source used for phrase selection.
type Rand interface {
	IntN(n int) int
}

// Predicate decides whether a category applies to lower-cased user text.
type Predicate func(text string) bool

// Category pairs a trigger with its phrase pool.
type Category struct {
	Name    string
	Match   Predicate
	Phrases []string
}

// Reply is a generated answer and the category it came from.
type Reply struct {
	Category string
	Text     string
}

// Generator classifies text against a priority-ordered category list.
type Generator struct {
	aiName     string
	categories []Category
	fallback   Category
	rng        Rand
}

// NewGenerator returns a Generator over the built-in categories.
func NewGenerator(aiName string, rng Rand) *Generator {
	return &Generator{
		aiName:     aiName,
		categories: Categories(),
		fallback:   Fallback(),
		rng:        rng,
	}
}

// AIName returns the display name substituted into phrases.
func (g *Generator) AIName() string {
	return g.aiName
}

// Classify returns the first category whose predicate matches, or the fallback.
func (g *Generator) Classify(text string) Category {
	normalized := strings.ToLower(text)
	for _, category := range g.categories {
		if category.Match(normalized) {
			return category
		}
	}
	return g.fallback
}

// Respond classifies text and draws a phrase uniformly from the chosen pool.
func (g *Generator) Respond(_ context.Context, text string) Reply {
	category := g.Classify(text)
	return Reply{Category: category.Name, Text: g.pick(category)}
}

func (g *Generator) pick(category Category) string {
	phrase := category.Phrases[g.rng.IntN(len(category.Phrases))]
	return strings.ReplaceAll(phrase, NamePlaceholder, g.aiName)
}

func containsAny(words ...string) Predicate {
	return func(text string) bool {
		for _, word := range words {
			if strings.Contains(text, word) {
				return true
			}
		}
		return false
	}
}

func equalsAny(words ...string) Predicate {
	return func(text string) bool {
		trimmed := strings.TrimSpace(text)
		for _, word := range words {
			if trimmed == word {
				return true
			}
		}
		return false
	}
}

// shorterThan guards a predicate so it only fires on short acknowledgements.
func shorterThan(maxWords int, p Predicate) Predicate {
	return func(text string) bool {
		return len(strings.Fields(text)) < maxWords && p(text)
	}
}
