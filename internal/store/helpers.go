package store

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/DhanukaRathnayaka/Final-Year-Project/internal/models"
	"github.com/google/uuid"
)

// rowScanner abstracts *sql.Row and *sql.Rows so scan helpers work with both.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

// newRowID returns id unchanged when set, otherwise a fresh UUID.
func newRowID(id string) string {
	if id != "" {
		return id
	}
	return uuid.NewString()
}

func scanMessage(r rowScanner) (models.Message, error) {
	var m models.Message
	if err := r.Scan(&m.ID, &m.UserID, &m.Text, &m.IsBot, &m.CreatedAt); err != nil {
		return models.Message{}, fmt.Errorf("failed to scan message row: %w", err)
	}
	return m, nil
}

func scanDoctor(r rowScanner) (models.Doctor, error) {
	var d models.Doctor
	var state string
	if err := r.Scan(&d.ID, &d.Name, &d.Email, &d.Phone, &d.Category, &state); err != nil {
		return models.Doctor{}, fmt.Errorf("failed to scan doctor row: %w", err)
	}
	d.DominantState = models.MentalState(state)
	return d, nil
}

func scanEntertainment(r rowScanner) (models.Entertainment, error) {
	var e models.Entertainment
	var state string
	var description, coverURL, mediaURL sql.NullString
	if err := r.Scan(&e.ID, &e.Title, &e.Type, &state, &description, &coverURL, &mediaURL); err != nil {
		return models.Entertainment{}, fmt.Errorf("failed to scan entertainment row: %w", err)
	}
	e.DominantState = models.MentalState(state)
	e.Description = description.String
	e.CoverImgURL = coverURL.String
	e.MediaFileURL = mediaURL.String
	return e, nil
}

func scanSuggestion(r rowScanner) (models.Suggestion, error) {
	var s models.Suggestion
	var logo, description sql.NullString
	if err := r.Scan(&s.ID, &logo, &s.Suggestion, &description, &s.Category); err != nil {
		return models.Suggestion{}, fmt.Errorf("failed to scan suggestion row: %w", err)
	}
	s.Logo = logo.String
	s.Description = description.String
	return s, nil
}

func scanExercise(r rowScanner) (models.Exercise, error) {
	var ex models.Exercise
	var duration, imagePath, description, chatFlow sql.NullString
	if err := r.Scan(&ex.ID, &ex.Name, &duration, &ex.Category, &imagePath, &description, &chatFlow, &ex.IsActive); err != nil {
		return models.Exercise{}, fmt.Errorf("failed to scan exercise row: %w", err)
	}
	ex.Duration = duration.String
	ex.CategoryImagePath = imagePath.String
	ex.Description = description.String
	ex.ChatFlow = normalizeChatFlow(chatFlow.String)
	return ex, nil
}

// normalizeChatFlow keeps the stored step script when it is valid JSON and
// substitutes an empty array otherwise.
func normalizeChatFlow(raw string) json.RawMessage {
	if raw != "" && json.Valid([]byte(raw)) {
		return json.RawMessage(raw)
	}
	return json.RawMessage("[]")
}

func scanCompletion(r rowScanner) (models.ExerciseCompletion, error) {
	var c models.ExerciseCompletion
	if err := r.Scan(&c.ID, &c.UserID, &c.ExerciseID, &c.DurationSeconds, &c.CompletedAt); err != nil {
		return models.ExerciseCompletion{}, fmt.Errorf("failed to scan exercise completion row: %w", err)
	}
	return c, nil
}

func scanReportRow(r rowScanner) (*models.MentalStateReport, error) {
	var report models.MentalStateReport
	var state, distJSON string
	if err := r.Scan(&report.ID, &report.UserID, &report.TotalMessages, &state, &report.Confidence, &distJSON, &report.CreatedAt); err != nil {
		return nil, err
	}
	report.DominantState = models.MentalState(state)
	if distJSON != "" {
		if err := json.Unmarshal([]byte(distJSON), &report.StateDistribution); err != nil {
			return nil, fmt.Errorf("failed to decode state distribution: %w", err)
		}
	}
	return &report, nil
}
