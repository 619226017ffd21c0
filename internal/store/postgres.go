// Package store provides storage backends for the mental-health backend.
//
// This file implements the PostgreSQL-backed store.
package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	_ "embed"

	"github.com/DhanukaRathnayaka/Final-Year-Project/internal/models"
	"github.com/lib/pq"
)

// Database connection pool configuration constants
const (
	// DefaultMaxOpenConns is the default maximum number of open connections to the database
	DefaultMaxOpenConns = 25
	// DefaultMaxIdleConns is the default maximum number of idle connections in the pool
	DefaultMaxIdleConns = 25
	// DefaultConnMaxLifetime is the default maximum amount of time a connection may be reused
	DefaultConnMaxLifetime = 5 * time.Minute
)

// pqUniqueViolation is the Postgres error code for unique-constraint violations.
const pqUniqueViolation = "23505"

//go:embed migrations_postgres.sql
var postgresMigrations string

// PostgresStore is a Store backed by PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a new Postgres store based on provided options.
func NewPostgresStore(opts ...Option) (*PostgresStore, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	slog.Debug("PostgresStore.NewPostgresStore: creating Postgres store", "DSN_set", cfg.DSN != "")
	dsn := cfg.DSN
	if dsn == "" {
		slog.Error("PostgresStore DSN not set")
		return nil, fmt.Errorf("database DSN not set")
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		slog.Error("Failed to open Postgres connection", "error", err)
		return nil, err
	}

	db.SetMaxOpenConns(DefaultMaxOpenConns)
	db.SetMaxIdleConns(DefaultMaxIdleConns)
	db.SetConnMaxLifetime(DefaultConnMaxLifetime)

	if err := db.Ping(); err != nil {
		slog.Error("Postgres ping failed", "error", err)
		return nil, err
	}
	slog.Debug("Running Postgres migrations")
	if _, err := db.Exec(postgresMigrations); err != nil {
		slog.Error("Failed to run migrations", "error", err)
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	slog.Debug("Postgres migrations applied successfully")
	return &PostgresStore{db: db}, nil
}

func (s *PostgresStore) AddMessage(m models.Message) error {
	_, err := s.db.Exec(`INSERT INTO messages (id, user_id, message, is_bot, created_at) VALUES ($1, $2, $3, $4, $5)`,
		m.ID, m.UserID, m.Text, m.IsBot, m.CreatedAt)
	if err != nil {
		slog.Error("PostgresStore AddMessage failed", "error", err, "user_id", m.UserID)
		return fmt.Errorf("failed to insert message for %s: %w", m.UserID, err)
	}
	return nil
}

func (s *PostgresStore) GetUserMessages(userID string) ([]models.Message, error) {
	rows, err := s.db.Query(`SELECT id, user_id, message, is_bot, created_at FROM messages WHERE user_id = $1 AND is_bot = FALSE ORDER BY created_at ASC`, userID)
	if err != nil {
		slog.Error("PostgresStore GetUserMessages query failed", "error", err, "user_id", userID)
		return nil, fmt.Errorf("failed to query messages for %s: %w", userID, err)
	}
	defer rows.Close()
	var messages []models.Message
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			slog.Error("PostgresStore GetUserMessages scan failed", "error", err)
			return nil, err
		}
		messages = append(messages, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate message rows: %w", err)
	}
	slog.Debug("PostgresStore GetUserMessages succeeded", "user_id", userID, "count", len(messages))
	return messages, nil
}

func (s *PostgresStore) AddReport(r models.MentalStateReport) error {
	distJSON, err := json.Marshal(r.StateDistribution)
	if err != nil {
		return fmt.Errorf("failed to marshal state distribution: %w", err)
	}
	_, err = s.db.Exec(`INSERT INTO mental_state_reports (id, user_id, total_messages_analyzed, dominant_state, confidence, state_distribution, created_at) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		newRowID(r.ID), r.UserID, r.TotalMessages, string(r.DominantState), r.Confidence, string(distJSON), r.CreatedAt)
	if err != nil {
		slog.Error("PostgresStore AddReport failed", "error", err, "user_id", r.UserID)
		return fmt.Errorf("failed to insert report for %s: %w", r.UserID, err)
	}
	slog.Debug("PostgresStore AddReport succeeded", "user_id", r.UserID, "dominant_state", r.DominantState)
	return nil
}

func (s *PostgresStore) GetLatestReport(userID string) (*models.MentalStateReport, error) {
	row := s.db.QueryRow(`SELECT id, user_id, total_messages_analyzed, dominant_state, confidence, state_distribution, created_at FROM mental_state_reports WHERE user_id = $1 ORDER BY created_at DESC LIMIT 1`, userID)
	report, err := scanReportRow(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		slog.Error("PostgresStore GetLatestReport failed", "error", err, "user_id", userID)
		return nil, fmt.Errorf("failed to query latest report for %s: %w", userID, err)
	}
	return report, nil
}

func (s *PostgresStore) ListDoctors() ([]models.Doctor, error) {
	return s.queryDoctors(`SELECT id, name, email, phone, category, dominant_state FROM doctors ORDER BY id`)
}

func (s *PostgresStore) ListDoctorsByState(state models.MentalState) ([]models.Doctor, error) {
	return s.queryDoctors(`SELECT id, name, email, phone, category, dominant_state FROM doctors WHERE dominant_state = $1 ORDER BY id`, string(state))
}

func (s *PostgresStore) queryDoctors(query string, args ...interface{}) ([]models.Doctor, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		slog.Error("PostgresStore doctor query failed", "error", err)
		return nil, fmt.Errorf("failed to query doctors: %w", err)
	}
	defer rows.Close()
	var doctors []models.Doctor
	for rows.Next() {
		d, err := scanDoctor(rows)
		if err != nil {
			return nil, err
		}
		doctors = append(doctors, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate doctor rows: %w", err)
	}
	return doctors, nil
}

func (s *PostgresStore) GetAssignedDoctorID(userID string) (string, error) {
	var doctorID string
	err := s.db.QueryRow(`SELECT doctor_id FROM recommended_doctor WHERE user_id = $1`, userID).Scan(&doctorID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		slog.Error("PostgresStore GetAssignedDoctorID failed", "error", err, "user_id", userID)
		return "", fmt.Errorf("failed to query assignment for %s: %w", userID, err)
	}
	return doctorID, nil
}

func (s *PostgresStore) IsDoctorAssigned(doctorID string) (bool, error) {
	var exists bool
	err := s.db.QueryRow(`SELECT EXISTS (SELECT 1 FROM recommended_doctor WHERE doctor_id = $1)`, doctorID).Scan(&exists)
	if err != nil {
		slog.Error("PostgresStore IsDoctorAssigned failed", "error", err, "doctor_id", doctorID)
		return false, fmt.Errorf("failed to check doctor assignment: %w", err)
	}
	return exists, nil
}

// AddDoctorAssignment inserts an exclusive assignment. A unique-constraint
// conflict on doctor_id or user_id maps to models.ErrDoctorTaken so callers
// can move on to the next candidate.
func (s *PostgresStore) AddDoctorAssignment(a models.DoctorAssignment) error {
	_, err := s.db.Exec(`INSERT INTO recommended_doctor (user_id, doctor_id) VALUES ($1, $2)`, a.UserID, a.DoctorID)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == pqUniqueViolation {
			slog.Debug("PostgresStore AddDoctorAssignment conflict", "user_id", a.UserID, "doctor_id", a.DoctorID)
			return models.ErrDoctorTaken
		}
		slog.Error("PostgresStore AddDoctorAssignment failed", "error", err, "user_id", a.UserID)
		return fmt.Errorf("failed to insert assignment for %s: %w", a.UserID, err)
	}
	slog.Debug("PostgresStore AddDoctorAssignment succeeded", "user_id", a.UserID, "doctor_id", a.DoctorID)
	return nil
}

func (s *PostgresStore) ListEntertainmentsByState(state models.MentalState) ([]models.Entertainment, error) {
	rows, err := s.db.Query(`SELECT id, title, type, dominant_state, description, cover_img_url, media_file_url FROM entertainments WHERE dominant_state = $1 ORDER BY id`, string(state))
	if err != nil {
		slog.Error("PostgresStore ListEntertainmentsByState query failed", "error", err, "state", state)
		return nil, fmt.Errorf("failed to query entertainments: %w", err)
	}
	defer rows.Close()
	var items []models.Entertainment
	for rows.Next() {
		e, err := scanEntertainment(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate entertainment rows: %w", err)
	}
	return items, nil
}

func (s *PostgresStore) DeleteEntertainmentRecommendations(userID string) error {
	_, err := s.db.Exec(`DELETE FROM recommended_entertainments WHERE user_id = $1`, userID)
	if err != nil {
		slog.Error("PostgresStore DeleteEntertainmentRecommendations failed", "error", err, "user_id", userID)
		return fmt.Errorf("failed to delete entertainment recommendations for %s: %w", userID, err)
	}
	return nil
}

func (s *PostgresStore) AddEntertainmentRecommendation(rec models.EntertainmentRecommendation) error {
	_, err := s.db.Exec(`INSERT INTO recommended_entertainments (id, user_id, entertainment_id, matched_state, recommended_at) VALUES ($1, $2, $3, $4, $5)`,
		rec.ID, rec.UserID, rec.EntertainmentID, string(rec.MatchedState), rec.RecommendedAt)
	if err != nil {
		slog.Error("PostgresStore AddEntertainmentRecommendation failed", "error", err, "user_id", rec.UserID)
		return fmt.Errorf("failed to insert entertainment recommendation for %s: %w", rec.UserID, err)
	}
	return nil
}

func (s *PostgresStore) GetEntertainmentRecommendations(userID string) ([]models.EntertainmentRecommendation, error) {
	rows, err := s.db.Query(`SELECT id, user_id, entertainment_id, matched_state, recommended_at FROM recommended_entertainments WHERE user_id = $1 ORDER BY recommended_at DESC`, userID)
	if err != nil {
		slog.Error("PostgresStore GetEntertainmentRecommendations query failed", "error", err, "user_id", userID)
		return nil, fmt.Errorf("failed to query entertainment recommendations for %s: %w", userID, err)
	}
	defer rows.Close()
	var recs []models.EntertainmentRecommendation
	for rows.Next() {
		var rec models.EntertainmentRecommendation
		var state string
		if err := rows.Scan(&rec.ID, &rec.UserID, &rec.EntertainmentID, &state, &rec.RecommendedAt); err != nil {
			return nil, fmt.Errorf("failed to scan entertainment recommendation row: %w", err)
		}
		rec.MatchedState = models.MentalState(state)
		recs = append(recs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate entertainment recommendation rows: %w", err)
	}
	return recs, nil
}

func (s *PostgresStore) ListSuggestionsByCategory(category string) ([]models.Suggestion, error) {
	rows, err := s.db.Query(`SELECT id, logo, suggestion, description, category FROM suggestions WHERE category = $1 ORDER BY id`, category)
	if err != nil {
		slog.Error("PostgresStore ListSuggestionsByCategory query failed", "error", err, "category", category)
		return nil, fmt.Errorf("failed to query suggestions: %w", err)
	}
	defer rows.Close()
	var items []models.Suggestion
	for rows.Next() {
		sg, err := scanSuggestion(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, sg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate suggestion rows: %w", err)
	}
	return items, nil
}

func (s *PostgresStore) DeleteSuggestionRecommendations(userID string) error {
	_, err := s.db.Exec(`DELETE FROM recommended_suggestions WHERE user_id = $1`, userID)
	if err != nil {
		slog.Error("PostgresStore DeleteSuggestionRecommendations failed", "error", err, "user_id", userID)
		return fmt.Errorf("failed to delete suggestion recommendations for %s: %w", userID, err)
	}
	return nil
}

func (s *PostgresStore) AddSuggestionRecommendation(rec models.SuggestionRecommendation) error {
	_, err := s.db.Exec(`INSERT INTO recommended_suggestions (id, user_id, suggestion_id, dominant_state, recommended_at) VALUES ($1, $2, $3, $4, $5)`,
		rec.ID, rec.UserID, rec.SuggestionID, string(rec.DominantState), rec.RecommendedAt)
	if err != nil {
		slog.Error("PostgresStore AddSuggestionRecommendation failed", "error", err, "user_id", rec.UserID)
		return fmt.Errorf("failed to insert suggestion recommendation for %s: %w", rec.UserID, err)
	}
	return nil
}

func (s *PostgresStore) GetSuggestionRecommendations(userID string) ([]models.SuggestionRecommendation, error) {
	rows, err := s.db.Query(`SELECT id, user_id, suggestion_id, dominant_state, recommended_at FROM recommended_suggestions WHERE user_id = $1 ORDER BY recommended_at DESC`, userID)
	if err != nil {
		slog.Error("PostgresStore GetSuggestionRecommendations query failed", "error", err, "user_id", userID)
		return nil, fmt.Errorf("failed to query suggestion recommendations for %s: %w", userID, err)
	}
	defer rows.Close()
	var recs []models.SuggestionRecommendation
	for rows.Next() {
		var rec models.SuggestionRecommendation
		var state string
		if err := rows.Scan(&rec.ID, &rec.UserID, &rec.SuggestionID, &state, &rec.RecommendedAt); err != nil {
			return nil, fmt.Errorf("failed to scan suggestion recommendation row: %w", err)
		}
		rec.DominantState = models.MentalState(state)
		recs = append(recs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate suggestion recommendation rows: %w", err)
	}
	return recs, nil
}

func (s *PostgresStore) ListExercises() ([]models.Exercise, error) {
	return s.queryExercises(`SELECT id, exercise_name, duration, category_name, category_image_path, exercise_description, chat_flow, is_active FROM exercises WHERE is_active = TRUE ORDER BY id`)
}

func (s *PostgresStore) ListExercisesByCategory(category string) ([]models.Exercise, error) {
	return s.queryExercises(`SELECT id, exercise_name, duration, category_name, category_image_path, exercise_description, chat_flow, is_active FROM exercises WHERE category_name = $1 AND is_active = TRUE ORDER BY id`, category)
}

func (s *PostgresStore) queryExercises(query string, args ...interface{}) ([]models.Exercise, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		slog.Error("PostgresStore exercise query failed", "error", err)
		return nil, fmt.Errorf("failed to query exercises: %w", err)
	}
	defer rows.Close()
	var items []models.Exercise
	for rows.Next() {
		ex, err := scanExercise(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, ex)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate exercise rows: %w", err)
	}
	return items, nil
}

func (s *PostgresStore) GetExercise(id string) (*models.Exercise, error) {
	row := s.db.QueryRow(`SELECT id, exercise_name, duration, category_name, category_image_path, exercise_description, chat_flow, is_active FROM exercises WHERE id = $1`, id)
	ex, err := scanExercise(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		slog.Error("PostgresStore GetExercise failed", "error", err, "exercise_id", id)
		return nil, fmt.Errorf("failed to query exercise %s: %w", id, err)
	}
	return &ex, nil
}

func (s *PostgresStore) AddExerciseCompletion(c models.ExerciseCompletion) error {
	_, err := s.db.Exec(`INSERT INTO exercise_completions (id, user_id, exercise_id, duration_seconds, completed_at) VALUES ($1, $2, $3, $4, $5)`,
		newRowID(c.ID), c.UserID, c.ExerciseID, c.DurationSeconds, c.CompletedAt)
	if err != nil {
		slog.Error("PostgresStore AddExerciseCompletion failed", "error", err, "user_id", c.UserID)
		return fmt.Errorf("failed to insert completion for %s: %w", c.UserID, err)
	}
	return nil
}

func (s *PostgresStore) ListExerciseCompletions(userID string, since time.Time) ([]models.ExerciseCompletion, error) {
	return s.queryCompletions(`SELECT id, user_id, exercise_id, duration_seconds, completed_at FROM exercise_completions WHERE user_id = $1 AND completed_at >= $2 ORDER BY completed_at DESC`, userID, since)
}

func (s *PostgresStore) ListRecentCompletions(since time.Time) ([]models.ExerciseCompletion, error) {
	return s.queryCompletions(`SELECT id, user_id, exercise_id, duration_seconds, completed_at FROM exercise_completions WHERE completed_at >= $1 ORDER BY completed_at DESC`, since)
}

func (s *PostgresStore) queryCompletions(query string, args ...interface{}) ([]models.ExerciseCompletion, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		slog.Error("PostgresStore completion query failed", "error", err)
		return nil, fmt.Errorf("failed to query exercise completions: %w", err)
	}
	defer rows.Close()
	var items []models.ExerciseCompletion
	for rows.Next() {
		c, err := scanCompletion(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate completion rows: %w", err)
	}
	return items, nil
}

// Close closes the underlying database handle.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}
