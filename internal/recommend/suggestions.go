package recommend

import (
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/DhanukaRathnayaka/Final-Year-Project/internal/models"
	"github.com/DhanukaRathnayaka/Final-Year-Project/internal/store"
	"github.com/google/uuid"
)

// MaxSuggestions caps how many coping suggestions a single run stores.
const MaxSuggestions = 5

// categoryAliases maps shorthand state names to the catalog's category labels.
// Canonical labels pass through unchanged.
var categoryAliases = map[string]string{
	"happy":      string(models.StateHappy),
	"positive":   string(models.StateHappy),
	"stressed":   string(models.StateStressed),
	"anxious":    string(models.StateStressed),
	"depressed":  string(models.StateDepressed),
	"sad":        string(models.StateDepressed),
	"angry":      string(models.StateAngry),
	"frustrated": string(models.StateAngry),
	"neutral":    string(models.StateNeutral),
	"calm":       string(models.StateNeutral),
	"confused":   string(models.StateConfused),
	"uncertain":  string(models.StateConfused),
	"excited":    string(models.StateExcited),
	"energetic":  string(models.StateExcited),
}

// canonicalCategory resolves a dominant state to the suggestion catalog
// category, accepting both shorthand and canonical forms.
func canonicalCategory(state models.MentalState) string {
	s := strings.ToLower(strings.TrimSpace(string(state)))
	if full, ok := categoryAliases[s]; ok {
		return full
	}
	return s
}

// SuggestionEngine picks coping suggestions for the user's dominant state.
// Each run fully replaces the user's stored set.
type SuggestionEngine struct {
	st store.Store
}

// NewSuggestionEngine creates a suggestion recommender backed by the given
// store.
func NewSuggestionEngine(st store.Store) *SuggestionEngine {
	return &SuggestionEngine{st: st}
}

// Recommend replaces the user's stored coping suggestions with up to
// MaxSuggestions items from the category matching the given state. When the
// category holds more than MaxSuggestions items, the subset is sampled
// uniformly without replacement.
func (e *SuggestionEngine) Recommend(userID string, state models.MentalState) ([]models.Suggestion, error) {
	category := canonicalCategory(state)
	items, err := e.st.ListSuggestionsByCategory(category)
	if err != nil {
		return nil, fmt.Errorf("failed to list suggestions for %q: %w", category, err)
	}

	picked := sampleSuggestions(items, MaxSuggestions)

	if err := e.st.DeleteSuggestionRecommendations(userID); err != nil {
		return nil, fmt.Errorf("failed to clear previous suggestions: %w", err)
	}

	now := time.Now().UTC()
	var stored []models.Suggestion
	for _, item := range picked {
		rec := models.SuggestionRecommendation{
			ID:            uuid.NewString(),
			UserID:        userID,
			SuggestionID:  item.ID,
			DominantState: state,
			RecommendedAt: now,
		}
		if err := e.st.AddSuggestionRecommendation(rec); err != nil {
			slog.Error("SuggestionEngine.Recommend: failed to store suggestion",
				"user_id", userID, "suggestion_id", item.ID, "error", err)
			continue
		}
		stored = append(stored, item)
	}

	slog.Info("SuggestionEngine.Recommend: suggestions replaced",
		"user_id", userID, "category", category, "available", len(items), "stored", len(stored))
	return stored, nil
}

// sampleSuggestions returns up to n items chosen uniformly without
// replacement, leaving the input slice untouched.
func sampleSuggestions(items []models.Suggestion, n int) []models.Suggestion {
	if len(items) <= n {
		return items
	}
	shuffled := append([]models.Suggestion(nil), items...)
	rand.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})
	return shuffled[:n]
}
