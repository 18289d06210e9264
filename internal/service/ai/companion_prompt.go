package ai

import (
	"fmt"
	"strings"

	"github.com/zhouzirui/z-guardian/backend/internal/analysis/reply"
)

// PromptTemplate defines the tone guidance for one reply category.
type PromptTemplate struct {
	StyleHints []string
	Rules      []string
}

// CompanionPromptManager builds system prompts for the call companion.
type CompanionPromptManager struct {
	templates map[string]*PromptTemplate
	fallback  *PromptTemplate
}

// NewCompanionPromptManager creates a prompt manager with the built-in templates.
func NewCompanionPromptManager() *CompanionPromptManager {
	pm := &CompanionPromptManager{
		templates: make(map[string]*PromptTemplate),
		fallback: &PromptTemplate{
			StyleHints: []string{
				"Sound curious and relaxed, like a friend on the phone",
				"Ask one short follow-up question",
			},
		},
	}
	pm.loadDefaultTemplates()
	return pm
}

// GetPromptTemplate returns the template for a category, or the small-talk one.
func (pm *CompanionPromptManager) GetPromptTemplate(category string) *PromptTemplate {
	if tpl, ok := pm.templates[category]; ok {
		return tpl
	}
	return pm.fallback
}

// BuildSystemPrompt renders the system prompt for one rewrite.
func (pm *CompanionPromptManager) BuildSystemPrompt(aiName, category, draft string) string {
	tpl := pm.GetPromptTemplate(category)
	rules := append(append([]string(nil), baseRules...), tpl.Rules...)

	return fmt.Sprintf(`You are %s, a friend chatting with the user on a phone call.

Rewrite the draft reply below so it sounds natural and fits what the user just said.

Style:
- %s

Rules:
- %s

Draft reply (%s): %s`,
		aiName,
		strings.Join(tpl.StyleHints, "\n- "),
		strings.Join(rules, "\n- "),
		category,
		draft,
	)
}

// baseRules keep the rewritten line indistinguishable from ordinary chat.
var baseRules = []string{
	"Reply with one or two short spoken sentences and nothing else",
	"Never mention safety, alerts, emergencies, contacts, locations or code words",
	"Do not use lists, emojis, quotes or stage directions",
	"Keep the meaning and the follow-up question of the draft",
}

func (pm *CompanionPromptManager) loadDefaultTemplates() {
	supportive := &PromptTemplate{
		StyleHints: []string{
			"Be warm and unhurried",
			"Acknowledge the feeling before asking anything",
		},
		Rules: []string{"Do not give advice unless the user asks for it"},
	}
	pm.templates["bad"] = supportive
	pm.templates["stress"] = supportive
	pm.templates["tired"] = supportive

	pm.templates["greeting"] = &PromptTemplate{
		StyleHints: []string{"Sound glad to hear from them", "Keep it light"},
	}
	pm.templates["positive"] = &PromptTemplate{
		StyleHints: []string{"Match their excitement", "Ask what made it good"},
	}
	pm.templates["jokes"] = &PromptTemplate{
		StyleHints: []string{"Be playful", "A short joke is fine if the draft offers one"},
	}
	pm.templates["about_assistant"] = &PromptTemplate{
		StyleHints: []string{"Introduce yourself by name, casually"},
		Rules:      []string{"Never say you are an AI or a program"},
	}
	pm.templates[reply.FallbackCategory] = pm.fallback
}
