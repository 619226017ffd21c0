package recommend

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/DhanukaRathnayaka/Final-Year-Project/internal/genai"
	"github.com/DhanukaRathnayaka/Final-Year-Project/internal/models"
)

const generatorSystemPrompt = "You are a mental health assistant. Based on the conversation, " +
	"provide 5 short, practical suggestions to help improve the user's mental well-being. " +
	"Each suggestion should be a single sentence."

// SuggestionGenerator turns a raw conversation transcript into free-form
// well-being suggestions via the LLM. Unlike SuggestionEngine it reads no
// catalog and stores nothing.
type SuggestionGenerator struct {
	genaiClient genai.ClientInterface
}

// NewSuggestionGenerator creates a conversation-based suggestion generator.
// A nil client makes Generate fail with models.ErrLLMUnavailable.
func NewSuggestionGenerator(client genai.ClientInterface) *SuggestionGenerator {
	return &SuggestionGenerator{genaiClient: client}
}

// Generate produces up to MaxSuggestions one-line suggestions from the given
// conversation messages.
func (g *SuggestionGenerator) Generate(ctx context.Context, messages []string) ([]string, error) {
	if len(messages) == 0 {
		return nil, models.ErrNoConversation
	}
	if g.genaiClient == nil {
		return nil, models.ErrLLMUnavailable
	}

	userPrompt := "Based on this conversation, provide 5 helpful suggestions:\n" + strings.Join(messages, "\n")
	raw, err := g.genaiClient.GeneratePrompt(ctx, generatorSystemPrompt, userPrompt)
	if err != nil {
		slog.Error("SuggestionGenerator.Generate: LLM call failed", "error", err)
		return nil, fmt.Errorf("suggestion generation failed: %w", err)
	}

	suggestions := parseSuggestionLines(raw)
	if len(suggestions) == 0 {
		return nil, fmt.Errorf("no valid suggestions could be generated")
	}
	slog.Info("SuggestionGenerator.Generate: suggestions generated", "count", len(suggestions))
	return suggestions, nil
}

// parseSuggestionLines splits LLM output into suggestion lines, stripping
// numbering and bullet prefixes, capped at MaxSuggestions.
func parseSuggestionLines(raw string) []string {
	var out []string
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimLeft(strings.TrimSpace(line), "0123456789.-* ")
		if line == "" {
			continue
		}
		out = append(out, line)
		if len(out) == MaxSuggestions {
			break
		}
	}
	return out
}
