// Package models defines the core data structures for the mental-health backend.
//
// It includes the emotion taxonomy, classification and report types, the doctor
// and content catalog entities, and the API response types shared across modules.
package models

import (
	"encoding/json"
	"errors"
	"time"
)

// MentalState is one label from the fixed emotion taxonomy.
type MentalState string

const (
	// StateHappy indicates joy, gratitude, achievement, optimism.
	StateHappy MentalState = "happy/positive"
	// StateStressed indicates worry, pressure, panic, racing thoughts, overwhelm.
	StateStressed MentalState = "stressed/anxious"
	// StateDepressed indicates hopelessness, low energy, emptiness, loss of interest.
	StateDepressed MentalState = "depressed/sad"
	// StateAngry indicates irritation, anger, blame, strong negative reaction.
	StateAngry MentalState = "angry/frustrated"
	// StateNeutral indicates balanced mood, routine activities, no strong emotion.
	StateNeutral MentalState = "neutral/calm"
	// StateConfused indicates doubt, unclear thoughts, asking what to do.
	StateConfused MentalState = "confused/uncertain"
	// StateExcited indicates high energy, eagerness, future-focused excitement.
	StateExcited MentalState = "excited/energetic"
	// StateMixed is the synthetic label used when no state clears the dominance threshold.
	StateMixed MentalState = "mixed/no_clear_pattern"
	// StateGeneral marks doctors who handle any condition. Never produced by the classifier.
	StateGeneral MentalState = "General"
)

// AllStates lists the classifiable taxonomy labels in canonical order.
// The order is fixed: dominant-state argmax and heuristic tie-breaks iterate it.
var AllStates = []MentalState{
	StateHappy,
	StateStressed,
	StateDepressed,
	StateAngry,
	StateNeutral,
	StateConfused,
	StateExcited,
}

// IsValidState reports whether s is a classifiable taxonomy label.
func IsValidState(s MentalState) bool {
	for _, state := range AllStates {
		if s == state {
			return true
		}
	}
	return false
}

// Confidence bounds for all classification results.
const (
	MinConfidence = 0.70
	MaxConfidence = 1.00
)

// ClampConfidence forces c into the [MinConfidence, MaxConfidence] range.
func ClampConfidence(c float64) float64 {
	if c < MinConfidence {
		return MinConfidence
	}
	if c > MaxConfidence {
		return MaxConfidence
	}
	return c
}

// Error variables for better error handling and testability
var (
	ErrNoMessages         = errors.New("no messages found for user")
	ErrNoReport           = errors.New("no mental state report found for user")
	ErrDoctorTaken        = errors.New("doctor already assigned to another user")
	ErrNoDoctorsAvailable = errors.New("no available doctors left")
	ErrEmptyUserID        = errors.New("user_id cannot be empty")
	ErrEmptyMessage       = errors.New("message cannot be empty")
	ErrExerciseNotFound   = errors.New("exercise not found")
	ErrNoConversation     = errors.New("no messages provided in the conversation")
	ErrLLMUnavailable     = errors.New("LLM client not configured")
)

// Message is one chat message authored by a user or the bot.
// The messaging subsystem owns these rows; the core only reads them.
type Message struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Text      string    `json:"message"`
	IsBot     bool      `json:"is_bot"`
	CreatedAt time.Time `json:"created_at"`
}

// Classification is the per-message classifier output. Ephemeral, never persisted.
type Classification struct {
	Prediction MentalState `json:"prediction"`
	Confidence float64     `json:"confidence"`
}

// MentalStateReport aggregates per-message classifications over a message window.
// Reports are insert-only; the most recent one drives recommendations.
type MentalStateReport struct {
	ID                string              `json:"id,omitempty"`
	UserID            string              `json:"user_id"`
	TotalMessages     int                 `json:"total_messages_analyzed"`
	DominantState     MentalState         `json:"dominant_state"`
	Confidence        float64             `json:"confidence"`
	StateDistribution map[MentalState]int `json:"state_distribution"`
	CreatedAt         time.Time           `json:"created_at,omitempty"`
}

// Doctor is a catalog entry owned by an external provisioning process.
type Doctor struct {
	ID            string      `json:"id"`
	Name          string      `json:"name"`
	Email         string      `json:"email"`
	Phone         string      `json:"phone"`
	Category      string      `json:"category"`
	DominantState MentalState `json:"dominant_state"`
}

// IsSpecialist reports whether the doctor specializes in a particular state
// rather than handling general cases.
func (d Doctor) IsSpecialist() bool {
	return d.DominantState != StateGeneral
}

// DoctorAssignment binds a doctor exclusively to one user.
// At most one assignment per user, and no doctor appears in two assignments.
type DoctorAssignment struct {
	UserID   string `json:"user_id"`
	DoctorID string `json:"doctor_id"`
}

// Entertainment is a catalog item tagged with the emotional state it targets.
type Entertainment struct {
	ID            string      `json:"id"`
	Title         string      `json:"title"`
	Type          string      `json:"type"`
	DominantState MentalState `json:"dominant_state"`
	Description   string      `json:"description,omitempty"`
	CoverImgURL   string      `json:"cover_img_url,omitempty"`
	MediaFileURL  string      `json:"media_file_url,omitempty"`
}

// Suggestion is a coping-suggestion catalog item.
type Suggestion struct {
	ID          string `json:"id"`
	Logo        string `json:"logo,omitempty"`
	Suggestion  string `json:"suggestion"`
	Description string `json:"description,omitempty"`
	Category    string `json:"category"`
}

// EntertainmentRecommendation is one stored entertainment recommendation row.
// The whole set for a user is replaced on every recommendation run.
type EntertainmentRecommendation struct {
	ID              string      `json:"id"`
	UserID          string      `json:"user_id"`
	EntertainmentID string      `json:"entertainment_id"`
	MatchedState    MentalState `json:"matched_state"`
	RecommendedAt   time.Time   `json:"recommended_at"`
}

// SuggestionRecommendation is one stored coping-suggestion recommendation row.
type SuggestionRecommendation struct {
	ID            string      `json:"id"`
	UserID        string      `json:"user_id"`
	SuggestionID  string      `json:"suggestion_id"`
	DominantState MentalState `json:"dominant_state"`
	RecommendedAt time.Time   `json:"recommended_at"`
}

// Exercise is a guided-exercise catalog entry. ChatFlow carries the step
// script as raw JSON; its shape is owned by the frontend.
type Exercise struct {
	ID                string          `json:"id"`
	Name              string          `json:"name"`
	Duration          string          `json:"duration"`
	Category          string          `json:"category"`
	CategoryImagePath string          `json:"category_image_path"`
	Description       string          `json:"description"`
	ChatFlow          json.RawMessage `json:"chat_flow"`
	IsActive          bool            `json:"-"`
}

// ExerciseCategory groups active exercises by category name. The ID is the
// kebab-cased category name, used as the path segment for category lookups.
type ExerciseCategory struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	ImagePath string `json:"image_path"`
}

// ExerciseCompletion records one finished exercise session.
type ExerciseCompletion struct {
	ID              string    `json:"id"`
	UserID          string    `json:"user_id"`
	ExerciseID      string    `json:"exercise_id"`
	DurationSeconds int       `json:"duration_seconds"`
	CompletedAt     time.Time `json:"completed_at"`
}

// ExerciseStats summarizes a user's exercise activity.
type ExerciseStats struct {
	CompletedToday int     `json:"completed_today"`
	TotalDuration  int     `json:"total_duration"`
	WeeklyAverage  float64 `json:"weekly_average"`
	Streak         int     `json:"streak"`
}

// TrendingExercise pairs an exercise with its recent completion count.
type TrendingExercise struct {
	Exercise
	Completions int `json:"completions"`
}

// PredictRequest is the body for POST /predict-mental-state.
type PredictRequest struct {
	Message string `json:"message"`
}

// Validate checks the predict request fields.
func (r *PredictRequest) Validate() error {
	if r.Message == "" {
		return ErrEmptyMessage
	}
	return nil
}

// UserRequest is the body for endpoints keyed by user only.
type UserRequest struct {
	UserID string `json:"user_id"`
}

// Validate checks the user request fields.
func (r *UserRequest) Validate() error {
	if r.UserID == "" {
		return ErrEmptyUserID
	}
	return nil
}

// ChatRequest is the body for POST /chat.
type ChatRequest struct {
	Message string `json:"message"`
	Model   string `json:"model,omitempty"`
	UserID  string `json:"user_id,omitempty"`
}

// Validate checks the chat request fields.
func (r *ChatRequest) Validate() error {
	if r.Message == "" {
		return ErrEmptyMessage
	}
	return nil
}

// ChatResponse is the body returned by POST /chat.
type ChatResponse struct {
	Response string `json:"response"`
}

// CompletionRequest is the body for POST /exercises/complete.
type CompletionRequest struct {
	UserID          string `json:"user_id"`
	ExerciseID      string `json:"exercise_id"`
	DurationSeconds int    `json:"duration_seconds"`
}

// Validate checks the completion request fields.
func (r *CompletionRequest) Validate() error {
	if r.UserID == "" {
		return ErrEmptyUserID
	}
	if r.ExerciseID == "" {
		return errors.New("exercise_id cannot be empty")
	}
	return nil
}

// GenerateSuggestionsRequest is the body for POST /generate_suggestions.
type GenerateSuggestionsRequest struct {
	Messages       []string `json:"messages"`
	UserID         string   `json:"user_id"`
	ConversationID string   `json:"conversation_id"`
}

// Validate checks the generate-suggestions request fields.
func (r *GenerateSuggestionsRequest) Validate() error {
	if len(r.Messages) == 0 {
		return ErrNoConversation
	}
	if r.UserID == "" {
		return ErrEmptyUserID
	}
	return nil
}

// GeneratedSuggestions is the result of a conversation-based suggestion run.
type GeneratedSuggestions struct {
	UserID         string   `json:"user_id"`
	ConversationID string   `json:"conversation_id"`
	Suggestions    []string `json:"suggestions"`
}
