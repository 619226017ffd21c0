// Package exercise serves the guided-exercise catalog: category listings,
// per-exercise chat flows, completion logging, and per-user activity stats.
package exercise

import (
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/DhanukaRathnayaka/Final-Year-Project/internal/models"
	"github.com/DhanukaRathnayaka/Final-Year-Project/internal/store"
	"github.com/google/uuid"
)

// DefaultTrendingLimit caps the trending list when no limit is given.
const DefaultTrendingLimit = 10

// trendingWindow is how far back completions count toward trending.
const trendingWindow = 7 * 24 * time.Hour

// Service exposes the exercise catalog and completion log.
type Service struct {
	st store.Store
}

// NewService creates an exercise service backed by the given store.
func NewService(st store.Store) *Service {
	return &Service{st: st}
}

// CategoryID derives the URL path segment for a category name.
func CategoryID(name string) string {
	return strings.ReplaceAll(strings.ToLower(name), " ", "-")
}

// categoryName reverses CategoryID: kebab-case back to Title Case.
func categoryName(id string) string {
	words := strings.Split(id, "-")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + strings.ToLower(w[1:])
	}
	return strings.Join(words, " ")
}

// Categories groups the active exercises by category name, keeping the
// catalog's order of first appearance.
func (s *Service) Categories() ([]models.ExerciseCategory, error) {
	exercises, err := s.st.ListExercises()
	if err != nil {
		return nil, fmt.Errorf("failed to list exercises: %w", err)
	}
	seen := make(map[string]bool)
	var categories []models.ExerciseCategory
	for _, ex := range exercises {
		if seen[ex.Category] {
			continue
		}
		seen[ex.Category] = true
		categories = append(categories, models.ExerciseCategory{
			ID:        CategoryID(ex.Category),
			Name:      ex.Category,
			ImagePath: ex.CategoryImagePath,
		})
	}
	return categories, nil
}

// ByCategory lists the active exercises for a category path segment.
func (s *Service) ByCategory(categoryID string) ([]models.Exercise, error) {
	name := categoryName(categoryID)
	exercises, err := s.st.ListExercisesByCategory(name)
	if err != nil {
		return nil, fmt.Errorf("failed to list exercises for %q: %w", name, err)
	}
	return exercises, nil
}

// Get returns one exercise with its full chat flow, or
// models.ErrExerciseNotFound.
func (s *Service) Get(exerciseID string) (*models.Exercise, error) {
	ex, err := s.st.GetExercise(exerciseID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch exercise %s: %w", exerciseID, err)
	}
	if ex == nil {
		return nil, models.ErrExerciseNotFound
	}
	return ex, nil
}

// LogCompletion records a finished session. The exercise must exist;
// models.ErrExerciseNotFound otherwise.
func (s *Service) LogCompletion(userID, exerciseID string, durationSeconds int) error {
	ex, err := s.st.GetExercise(exerciseID)
	if err != nil {
		return fmt.Errorf("failed to verify exercise %s: %w", exerciseID, err)
	}
	if ex == nil {
		return models.ErrExerciseNotFound
	}
	completion := models.ExerciseCompletion{
		ID:              uuid.NewString(),
		UserID:          userID,
		ExerciseID:      exerciseID,
		DurationSeconds: durationSeconds,
		CompletedAt:     time.Now().UTC(),
	}
	if err := s.st.AddExerciseCompletion(completion); err != nil {
		return fmt.Errorf("failed to log completion: %w", err)
	}
	slog.Info("Service.LogCompletion: completion logged",
		"user_id", userID, "exercise_id", exerciseID, "duration_seconds", durationSeconds)
	return nil
}

// Stats summarizes the user's exercise activity: today's sessions and total
// seconds, the 7-day daily average, and the consecutive-day streak ending
// today. A user with no completions gets all zeroes, never an error.
func (s *Service) Stats(userID string) (*models.ExerciseStats, error) {
	completions, err := s.st.ListExerciseCompletions(userID, time.Time{})
	if err != nil {
		return nil, fmt.Errorf("failed to list completions for %s: %w", userID, err)
	}

	now := time.Now().UTC()
	startOfToday := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	weekAgo := startOfToday.AddDate(0, 0, -7)

	stats := &models.ExerciseStats{}
	days := make(map[string]bool)
	weekCount := 0
	for _, c := range completions {
		at := c.CompletedAt.UTC()
		days[at.Format("2006-01-02")] = true
		if !at.Before(startOfToday) {
			stats.CompletedToday++
			stats.TotalDuration += c.DurationSeconds
		}
		if !at.Before(weekAgo) {
			weekCount++
		}
	}
	if weekCount > 0 {
		stats.WeeklyAverage = math.Round(float64(weekCount)/7*100) / 100
	}

	// Streak walks back day by day from today until a day has no session.
	for day := startOfToday; days[day.Format("2006-01-02")]; day = day.AddDate(0, 0, -1) {
		stats.Streak++
	}
	return stats, nil
}

// Trending ranks exercises by completion count over the last 7 days. With no
// recent completions the active catalog is returned unranked, so the endpoint
// is never empty while exercises exist.
func (s *Service) Trending(limit int) ([]models.TrendingExercise, error) {
	if limit <= 0 {
		limit = DefaultTrendingLimit
	}
	completions, err := s.st.ListRecentCompletions(time.Now().UTC().Add(-trendingWindow))
	if err != nil {
		return nil, fmt.Errorf("failed to list recent completions: %w", err)
	}

	if len(completions) == 0 {
		exercises, err := s.st.ListExercises()
		if err != nil {
			return nil, fmt.Errorf("failed to list exercises: %w", err)
		}
		if len(exercises) > limit {
			exercises = exercises[:limit]
		}
		trending := make([]models.TrendingExercise, 0, len(exercises))
		for _, ex := range exercises {
			trending = append(trending, models.TrendingExercise{Exercise: ex})
		}
		return trending, nil
	}

	counts := make(map[string]int)
	for _, c := range completions {
		counts[c.ExerciseID]++
	}
	ids := make([]string, 0, len(counts))
	for id := range counts {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		if counts[ids[i]] != counts[ids[j]] {
			return counts[ids[i]] > counts[ids[j]]
		}
		return ids[i] < ids[j]
	})
	if len(ids) > limit {
		ids = ids[:limit]
	}

	var trending []models.TrendingExercise
	for _, id := range ids {
		ex, err := s.st.GetExercise(id)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch exercise %s: %w", id, err)
		}
		if ex == nil {
			slog.Warn("Service.Trending: completed exercise missing from catalog", "exercise_id", id)
			continue
		}
		trending = append(trending, models.TrendingExercise{Exercise: *ex, Completions: counts[id]})
	}
	return trending, nil
}
