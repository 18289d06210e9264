package ai

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog"

	"github.com/zhouzirui/z-guardian/backend/internal/analysis/detection"
	"github.com/zhouzirui/z-guardian/backend/internal/analysis/reply"
)

// Config controls the rephraser.
type Config struct {
	Enabled bool
	// Timeout bounds one model call; the rule-based draft is used when it expires.
	Timeout time.Duration
}

// Rephraser rewrites rule-based replies with a chat model. The category picked
// by the generator is never changed, and any failure falls back to the draft.
type Rephraser struct {
	enabled bool
	chain   compose.Runnable[map[string]any, *schema.Message]
	prompts *CompanionPromptManager
	timeout time.Duration
	logger  zerolog.Logger
}

// NewRephraser compiles the rewrite chain. A nil chatModel yields a disabled rephraser.
func NewRephraser(ctx context.Context, chatModel model.BaseChatModel, cfg Config, logger zerolog.Logger) (*Rephraser, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 1200 * time.Millisecond
	}

	r := &Rephraser{
		enabled: cfg.Enabled && chatModel != nil,
		prompts: NewCompanionPromptManager(),
		timeout: timeout,
		logger:  logger.With().Str("component", "rephraser").Logger(),
	}
	if !r.enabled {
		return r, nil
	}

	promptTemplate := prompt.FromMessages(
		schema.FString,
		schema.SystemMessage("{system}"),
		schema.UserMessage("{query}"),
	)

	chain := compose.NewChain[map[string]any, *schema.Message]()
	chain.AppendChatTemplate(promptTemplate)
	chain.AppendChatModel(chatModel)

	runnable, err := chain.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compile rephrase chain: %w", err)
	}
	r.chain = runnable
	return r, nil
}

// Enabled reports whether model calls are made.
func (r *Rephraser) Enabled() bool {
	return r != nil && r.enabled && r.chain != nil
}

// Rephrase rewrites draft for the given user text. It gives up at the earlier
// of ctx's deadline and the configured timeout.
func (r *Rephraser) Rephrase(ctx context.Context, aiName, userText string, draft reply.Reply) reply.Reply {
	if !r.Enabled() {
		return draft
	}

	cctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	input := map[string]any{
		"system": r.prompts.BuildSystemPrompt(aiName, draft.Category, draft.Text),
		"query":  strings.TrimSpace(userText),
	}

	msg, err := r.chain.Invoke(cctx, input)
	if err != nil {
		r.logger.Warn().Err(err).Str("category", draft.Category).Msg("rephrase failed, using draft")
		return draft
	}
	if msg == nil {
		return draft
	}

	text := cleanOutput(msg.Content)
	if text == "" || revealing(text) {
		r.logger.Debug().Str("category", draft.Category).Msg("rephrase rejected, using draft")
		return draft
	}
	return reply.Reply{Category: draft.Category, Text: text}
}

const maxReplyRunes = 280

func cleanOutput(raw string) string {
	text := strings.TrimSpace(raw)
	text = strings.Trim(text, "\"'“”")
	text = strings.Join(strings.Fields(text), " ")
	if runes := []rune(text); len(runes) > maxReplyRunes {
		return ""
	}
	return text
}

var revealingTerms = []string{"alert", "police", "911", "location", "code word", "contact"}

// revealing reports whether a rewrite could give the cover story away.
func revealing(text string) bool {
	lower := strings.ToLower(text)
	for _, term := range revealingTerms {
		if strings.Contains(lower, term) {
			return true
		}
	}
	return detection.Evaluate(text, "").Matched()
}
