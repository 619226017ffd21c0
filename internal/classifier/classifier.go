// Package classifier infers a user's mental state from a single message.
//
// The primary strategy asks the LLM for a strict JSON verdict; a deterministic
// keyword heuristic takes over whenever the LLM is unavailable, unparseable, or
// returns a label outside the taxonomy. Classify never fails: every path
// resolves to a valid classification.
package classifier

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/DhanukaRathnayaka/Final-Year-Project/internal/genai"
	"github.com/DhanukaRathnayaka/Final-Year-Project/internal/models"
)

// LLM call tuning. One retry with a short fixed backoff is the only built-in
// resilience; anything beyond that falls through to the heuristic.
const (
	llmTemperature  = 0.25
	llmMaxTokens    = 120
	llmRetryBackoff = 250 * time.Millisecond
	// shortMessageLimit: inputs at or below this many characters skip the LLM
	// entirely, avoiding wasted calls and unstable output on near-empty text.
	shortMessageLimit = 2
)

// llmVerdict is the JSON object the LLM is asked to return.
type llmVerdict struct {
	Prediction string  `json:"prediction"`
	Confidence float64 `json:"confidence"`
}

// Classifier labels messages with a mental state.
type Classifier struct {
	genaiClient genai.ClientInterface
}

// New creates a Classifier. A nil client is allowed and forces the heuristic
// path (used in tests and when no API key is configured).
func New(genaiClient genai.ClientInterface) *Classifier {
	return &Classifier{genaiClient: genaiClient}
}

// Classify returns a (label, confidence) verdict for one message. It never
// returns an error: LLM and parse failures degrade to the keyword heuristic.
func (c *Classifier) Classify(ctx context.Context, message string) models.Classification {
	trimmed := strings.TrimSpace(message)
	if len(trimmed) <= shortMessageLimit {
		slog.Debug("Classifier.Classify: short-circuit on near-empty input", "length", len(trimmed))
		return models.Classification{Prediction: models.StateNeutral, Confidence: models.MinConfidence}
	}

	if c.genaiClient == nil {
		return heuristicPredict(message)
	}

	raw, err := c.callLLM(ctx, message)
	if err != nil {
		slog.Warn("Classifier.Classify: LLM path failed, using heuristic fallback", "error", err)
		return heuristicPredict(message)
	}

	verdict, ok := parseVerdict(raw)
	if !ok {
		slog.Warn("Classifier.Classify: unparseable LLM response, using heuristic fallback", "raw", truncate(raw, 200))
		return heuristicPredict(message)
	}

	label, ok := normalizePrediction(verdict.Prediction)
	if !ok {
		slog.Warn("Classifier.Classify: unrecognized label from model, using heuristic fallback", "label", verdict.Prediction)
		return heuristicPredict(message)
	}

	return models.Classification{
		Prediction: label,
		Confidence: models.ClampConfidence(verdict.Confidence),
	}
}

// callLLM performs the completion with at most one retry.
func (c *Classifier) callLLM(ctx context.Context, message string) (string, error) {
	prompt := buildPrompt(message)
	var lastErr error
	for attempt := 0; attempt < 2; attempt++ {
		if attempt > 0 {
			slog.Debug("Classifier.callLLM: retrying after backoff")
			select {
			case <-time.After(llmRetryBackoff):
			case <-ctx.Done():
				return "", ctx.Err()
			}
		}
		raw, err := c.genaiClient.GenerateJSON(ctx, prompt, llmTemperature, llmMaxTokens)
		if err == nil {
			return raw, nil
		}
		lastErr = err
		slog.Debug("Classifier.callLLM: attempt failed", "attempt", attempt+1, "error", err)
	}
	return "", fmt.Errorf("classification call failed after retry: %w", lastErr)
}

// buildPrompt embeds the taxonomy and per-label definitions into a fixed
// instruction prompt requiring a strict JSON verdict.
func buildPrompt(message string) string {
	labels := make([]string, len(models.AllStates))
	for i, s := range models.AllStates {
		labels[i] = string(s)
	}
	return fmt.Sprintf(`Analyze the following message and choose exactly ONE of these conditions:
%s

Definitions (brief):
- happy/positive: joy, gratitude, achievement, optimism
- stressed/anxious: worry, pressure, panic, racing thoughts, overwhelm
- depressed/sad: hopelessness, low energy, emptiness, loss of interest
- angry/frustrated: irritation, anger, blame, strong negative reaction
- neutral/calm: balanced mood, routine activities, no strong emotion
- confused/uncertain: doubt, unclear thoughts, asking what to do
- excited/energetic: high energy, eagerness, future-focused excitement

Return EXACTLY a JSON object (no extra text) with keys:
{"prediction": "<one of the conditions above>", "confidence": 0.XX}

Message: %q
Confidence: a number between 0.70 and 1.00`, strings.Join(labels, ", "), message)
}

// parseVerdict parses the LLM output defensively: a direct JSON parse first,
// then recovery of a JSON object embedded in surrounding text.
func parseVerdict(raw string) (llmVerdict, bool) {
	var v llmVerdict
	if err := json.Unmarshal([]byte(raw), &v); err == nil && v.Prediction != "" {
		return v, true
	}
	candidate, ok := extractJSONObject(raw)
	if !ok {
		return llmVerdict{}, false
	}
	if err := json.Unmarshal([]byte(candidate), &v); err != nil || v.Prediction == "" {
		return llmVerdict{}, false
	}
	return v, true
}

// extractJSONObject recovers the first balanced top-level JSON object from
// text via brace matching, respecting string literals and escapes.
func extractJSONObject(raw string) (string, bool) {
	start := strings.IndexByte(raw, '{')
	if start < 0 {
		return "", false
	}
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(raw); i++ {
		ch := raw[i]
		if escaped {
			escaped = false
			continue
		}
		switch ch {
		case '\\':
			if inString {
				escaped = true
			}
		case '"':
			inString = !inString
		case '{':
			if !inString {
				depth++
			}
		case '}':
			if !inString {
				depth--
				if depth == 0 {
					return raw[start : i+1], true
				}
			}
		}
	}
	return "", false
}

// normalizePrediction maps raw LLM output onto the taxonomy: exact match, then
// the substring token table, then phrase-level overrides.
func normalizePrediction(pred string) (models.MentalState, bool) {
	p := strings.ToLower(strings.TrimSpace(pred))
	if p == "" {
		return "", false
	}
	if models.IsValidState(models.MentalState(p)) {
		return models.MentalState(p), true
	}
	for _, m := range normalizationMap {
		if strings.Contains(p, m.token) {
			return m.label, true
		}
	}
	for _, m := range normalizationPhrases {
		if strings.Contains(p, m.phrase) {
			return m.label, true
		}
	}
	return "", false
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
