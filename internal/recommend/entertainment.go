package recommend

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/DhanukaRathnayaka/Final-Year-Project/internal/models"
	"github.com/DhanukaRathnayaka/Final-Year-Project/internal/store"
	"github.com/google/uuid"
)

// EntertainmentEngine matches catalog entertainment to the user's dominant
// state. Each run fully replaces the user's stored recommendation set.
type EntertainmentEngine struct {
	st store.Store
}

// NewEntertainmentEngine creates an entertainment recommender backed by the
// given store.
func NewEntertainmentEngine(st store.Store) *EntertainmentEngine {
	return &EntertainmentEngine{st: st}
}

// Recommend replaces the user's stored entertainment recommendations with
// every catalog item tagged with the given state, and returns the matched
// items. Per-item insert failures are logged and skipped; the returned slice
// reflects what was actually stored.
func (e *EntertainmentEngine) Recommend(userID string, state models.MentalState) ([]models.Entertainment, error) {
	items, err := e.st.ListEntertainmentsByState(state)
	if err != nil {
		return nil, fmt.Errorf("failed to list entertainments: %w", err)
	}

	if err := e.st.DeleteEntertainmentRecommendations(userID); err != nil {
		return nil, fmt.Errorf("failed to clear previous recommendations: %w", err)
	}

	now := time.Now().UTC()
	var stored []models.Entertainment
	for _, item := range items {
		rec := models.EntertainmentRecommendation{
			ID:              uuid.NewString(),
			UserID:          userID,
			EntertainmentID: item.ID,
			MatchedState:    state,
			RecommendedAt:   now,
		}
		if err := e.st.AddEntertainmentRecommendation(rec); err != nil {
			slog.Error("EntertainmentEngine.Recommend: failed to store recommendation",
				"user_id", userID, "entertainment_id", item.ID, "error", err)
			continue
		}
		stored = append(stored, item)
	}

	slog.Info("EntertainmentEngine.Recommend: recommendations replaced",
		"user_id", userID, "state", state, "matched", len(items), "stored", len(stored))
	return stored, nil
}
