// Package store provides storage backends for the mental-health backend.
//
// It includes Postgres and SQLite implementations sharing one schema, and an
// in-memory store used by tests. All backends signal a doctor-exclusivity
// conflict with models.ErrDoctorTaken so the assignment engine can retry with
// the next candidate.
package store

import (
	"sort"
	"sync"
	"time"

	"github.com/DhanukaRathnayaka/Final-Year-Project/internal/models"
)

// Store is the persistence interface consumed by the analysis, recommendation,
// and API modules.
type Store interface {
	// Messages. The messaging subsystem owns these rows; the core reads
	// user (non-bot) messages ordered by created_at ascending.
	AddMessage(m models.Message) error
	GetUserMessages(userID string) ([]models.Message, error)

	// Mental-state reports. Insert-only; the latest report drives
	// recommendations.
	AddReport(r models.MentalStateReport) error
	GetLatestReport(userID string) (*models.MentalStateReport, error)

	// Doctor catalog and exclusive assignments. AddDoctorAssignment must
	// return models.ErrDoctorTaken when the doctor is already assigned,
	// enforced by a uniqueness constraint rather than check-then-insert.
	ListDoctors() ([]models.Doctor, error)
	ListDoctorsByState(state models.MentalState) ([]models.Doctor, error)
	GetAssignedDoctorID(userID string) (string, error)
	IsDoctorAssigned(doctorID string) (bool, error)
	AddDoctorAssignment(a models.DoctorAssignment) error

	// Entertainment catalog and per-user recommendation rows (full-replace).
	ListEntertainmentsByState(state models.MentalState) ([]models.Entertainment, error)
	DeleteEntertainmentRecommendations(userID string) error
	AddEntertainmentRecommendation(rec models.EntertainmentRecommendation) error
	GetEntertainmentRecommendations(userID string) ([]models.EntertainmentRecommendation, error)

	// Coping-suggestion catalog and per-user recommendation rows (full-replace).
	ListSuggestionsByCategory(category string) ([]models.Suggestion, error)
	DeleteSuggestionRecommendations(userID string) error
	AddSuggestionRecommendation(rec models.SuggestionRecommendation) error
	GetSuggestionRecommendations(userID string) ([]models.SuggestionRecommendation, error)

	// Guided-exercise catalog and completion log. List methods return
	// active exercises only; GetExercise returns nil when the ID is
	// unknown or inactive rows are acceptable for direct lookup.
	ListExercises() ([]models.Exercise, error)
	ListExercisesByCategory(category string) ([]models.Exercise, error)
	GetExercise(id string) (*models.Exercise, error)
	AddExerciseCompletion(c models.ExerciseCompletion) error
	ListExerciseCompletions(userID string, since time.Time) ([]models.ExerciseCompletion, error)
	ListRecentCompletions(since time.Time) ([]models.ExerciseCompletion, error)

	Close() error
}

// Opts holds configuration options for creating a store.
type Opts struct {
	DSN string
}

// Option configures a store backend.
type Option func(*Opts)

// WithPostgresDSN sets the Postgres connection string.
func WithPostgresDSN(dsn string) Option {
	return func(o *Opts) { o.DSN = dsn }
}

// WithSQLiteDSN sets the SQLite database file path.
func WithSQLiteDSN(dsn string) Option {
	return func(o *Opts) { o.DSN = dsn }
}

// InMemoryStore is a mutex-guarded in-memory Store used by tests.
type InMemoryStore struct {
	mu                sync.Mutex
	messages          []models.Message
	reports           []models.MentalStateReport
	doctors           []models.Doctor
	assignments       []models.DoctorAssignment
	entertainments    []models.Entertainment
	suggestions       []models.Suggestion
	entertainmentRecs []models.EntertainmentRecommendation
	suggestionRecs    []models.SuggestionRecommendation
	exercises         []models.Exercise
	completions       []models.ExerciseCompletion
}

// NewInMemoryStore creates an empty in-memory store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{}
}

func (s *InMemoryStore) AddMessage(m models.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, m)
	return nil
}

func (s *InMemoryStore) GetUserMessages(userID string) ([]models.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Message
	for _, m := range s.messages {
		if m.UserID == userID && !m.IsBot {
			out = append(out, m)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *InMemoryStore) AddReport(r models.MentalStateReport) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reports = append(s.reports, r)
	return nil
}

func (s *InMemoryStore) GetLatestReport(userID string) (*models.MentalStateReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var latest *models.MentalStateReport
	for i := range s.reports {
		r := s.reports[i]
		if r.UserID != userID {
			continue
		}
		if latest == nil || r.CreatedAt.After(latest.CreatedAt) {
			latest = &r
		}
	}
	if latest == nil {
		return nil, nil
	}
	cp := *latest
	return &cp, nil
}

// AddDoctor seeds the doctor catalog (catalog rows are owned by an external
// provisioning process in production; tests seed them directly).
func (s *InMemoryStore) AddDoctor(d models.Doctor) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.doctors = append(s.doctors, d)
	return nil
}

func (s *InMemoryStore) ListDoctors() ([]models.Doctor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.Doctor(nil), s.doctors...), nil
}

func (s *InMemoryStore) ListDoctorsByState(state models.MentalState) ([]models.Doctor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Doctor
	for _, d := range s.doctors {
		if d.DominantState == state {
			out = append(out, d)
		}
	}
	return out, nil
}

func (s *InMemoryStore) GetAssignedDoctorID(userID string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.assignments {
		if a.UserID == userID {
			return a.DoctorID, nil
		}
	}
	return "", nil
}

func (s *InMemoryStore) IsDoctorAssigned(doctorID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.assignments {
		if a.DoctorID == doctorID {
			return true, nil
		}
	}
	return false, nil
}

func (s *InMemoryStore) AddDoctorAssignment(a models.DoctorAssignment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	// Same uniqueness the SQL backends enforce with constraints.
	for _, existing := range s.assignments {
		if existing.DoctorID == a.DoctorID || existing.UserID == a.UserID {
			return models.ErrDoctorTaken
		}
	}
	s.assignments = append(s.assignments, a)
	return nil
}

// AddEntertainment seeds the entertainment catalog for tests.
func (s *InMemoryStore) AddEntertainment(e models.Entertainment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entertainments = append(s.entertainments, e)
	return nil
}

func (s *InMemoryStore) ListEntertainmentsByState(state models.MentalState) ([]models.Entertainment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Entertainment
	for _, e := range s.entertainments {
		if e.DominantState == state {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *InMemoryStore) DeleteEntertainmentRecommendations(userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.entertainmentRecs[:0]
	for _, rec := range s.entertainmentRecs {
		if rec.UserID != userID {
			kept = append(kept, rec)
		}
	}
	s.entertainmentRecs = kept
	return nil
}

func (s *InMemoryStore) AddEntertainmentRecommendation(rec models.EntertainmentRecommendation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entertainmentRecs = append(s.entertainmentRecs, rec)
	return nil
}

func (s *InMemoryStore) GetEntertainmentRecommendations(userID string) ([]models.EntertainmentRecommendation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.EntertainmentRecommendation
	for _, rec := range s.entertainmentRecs {
		if rec.UserID == userID {
			out = append(out, rec)
		}
	}
	return out, nil
}

// AddSuggestion seeds the suggestion catalog for tests.
func (s *InMemoryStore) AddSuggestion(sg models.Suggestion) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.suggestions = append(s.suggestions, sg)
	return nil
}

func (s *InMemoryStore) ListSuggestionsByCategory(category string) ([]models.Suggestion, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Suggestion
	for _, sg := range s.suggestions {
		if sg.Category == category {
			out = append(out, sg)
		}
	}
	return out, nil
}

func (s *InMemoryStore) DeleteSuggestionRecommendations(userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.suggestionRecs[:0]
	for _, rec := range s.suggestionRecs {
		if rec.UserID != userID {
			kept = append(kept, rec)
		}
	}
	s.suggestionRecs = kept
	return nil
}

func (s *InMemoryStore) AddSuggestionRecommendation(rec models.SuggestionRecommendation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.suggestionRecs = append(s.suggestionRecs, rec)
	return nil
}

func (s *InMemoryStore) GetSuggestionRecommendations(userID string) ([]models.SuggestionRecommendation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.SuggestionRecommendation
	for _, rec := range s.suggestionRecs {
		if rec.UserID == userID {
			out = append(out, rec)
		}
	}
	return out, nil
}

// AddExercise seeds the exercise catalog for tests.
func (s *InMemoryStore) AddExercise(ex models.Exercise) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.exercises = append(s.exercises, ex)
	return nil
}

func (s *InMemoryStore) ListExercises() ([]models.Exercise, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Exercise
	for _, ex := range s.exercises {
		if ex.IsActive {
			out = append(out, ex)
		}
	}
	return out, nil
}

func (s *InMemoryStore) ListExercisesByCategory(category string) ([]models.Exercise, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Exercise
	for _, ex := range s.exercises {
		if ex.IsActive && ex.Category == category {
			out = append(out, ex)
		}
	}
	return out, nil
}

func (s *InMemoryStore) GetExercise(id string) (*models.Exercise, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.exercises {
		if s.exercises[i].ID == id {
			cp := s.exercises[i]
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *InMemoryStore) AddExerciseCompletion(c models.ExerciseCompletion) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.completions = append(s.completions, c)
	return nil
}

func (s *InMemoryStore) ListExerciseCompletions(userID string, since time.Time) ([]models.ExerciseCompletion, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.ExerciseCompletion
	for _, c := range s.completions {
		if c.UserID == userID && !c.CompletedAt.Before(since) {
			out = append(out, c)
		}
	}
	return out, nil
}

func (s *InMemoryStore) ListRecentCompletions(since time.Time) ([]models.ExerciseCompletion, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.ExerciseCompletion
	for _, c := range s.completions {
		if !c.CompletedAt.Before(since) {
			out = append(out, c)
		}
	}
	return out, nil
}

func (s *InMemoryStore) Close() error { return nil }
