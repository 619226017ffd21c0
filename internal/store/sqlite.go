package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "embed"

	"github.com/DhanukaRathnayaka/Final-Year-Project/internal/models"
	"github.com/mattn/go-sqlite3"
)

//go:embed migrations_sqlite.sql
var sqliteMigrations string

// SQLiteStore is a Store backed by a local SQLite database file. It serves
// development and single-node deployments where Postgres is not available.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new SQLite store based on provided options.
// The parent directory of the database file is created if missing.
func NewSQLiteStore(opts ...Option) (*SQLiteStore, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	slog.Debug("SQLiteStore.NewSQLiteStore: creating SQLite store", "path", cfg.DSN)
	if cfg.DSN == "" {
		return nil, fmt.Errorf("sqlite database path not set")
	}

	if dir := filepath.Dir(cfg.DSN); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			slog.Error("Failed to create SQLite directory", "error", err, "dir", dir)
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", cfg.DSN+"?_foreign_keys=on&_busy_timeout=5000")
	if err != nil {
		slog.Error("Failed to open SQLite database", "error", err, "path", cfg.DSN)
		return nil, err
	}
	// SQLite handles a single writer; keep the pool at one connection.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		slog.Error("SQLite ping failed", "error", err)
		return nil, err
	}
	if _, err := db.Exec(sqliteMigrations); err != nil {
		slog.Error("Failed to run SQLite migrations", "error", err)
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	slog.Debug("SQLite migrations applied successfully")
	return &SQLiteStore{db: db}, nil
}

// isSQLiteConstraintErr reports whether err is a uniqueness violation.
func isSQLiteConstraintErr(err error) bool {
	var sqliteErr sqlite3.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	return sqliteErr.Code == sqlite3.ErrConstraint ||
		sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
		sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
}

func (s *SQLiteStore) AddMessage(m models.Message) error {
	_, err := s.db.Exec(`INSERT INTO messages (id, user_id, message, is_bot, created_at) VALUES (?, ?, ?, ?, ?)`,
		m.ID, m.UserID, m.Text, m.IsBot, m.CreatedAt)
	if err != nil {
		slog.Error("SQLiteStore AddMessage failed", "error", err, "user_id", m.UserID)
		return fmt.Errorf("failed to insert message for %s: %w", m.UserID, err)
	}
	return nil
}

func (s *SQLiteStore) GetUserMessages(userID string) ([]models.Message, error) {
	rows, err := s.db.Query(`SELECT id, user_id, message, is_bot, created_at FROM messages WHERE user_id = ? AND is_bot = 0 ORDER BY created_at ASC`, userID)
	if err != nil {
		slog.Error("SQLiteStore GetUserMessages query failed", "error", err, "user_id", userID)
		return nil, fmt.Errorf("failed to query messages for %s: %w", userID, err)
	}
	defer rows.Close()
	var messages []models.Message
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		messages = append(messages, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate message rows: %w", err)
	}
	return messages, nil
}

func (s *SQLiteStore) AddReport(r models.MentalStateReport) error {
	distJSON, err := json.Marshal(r.StateDistribution)
	if err != nil {
		return fmt.Errorf("failed to marshal state distribution: %w", err)
	}
	_, err = s.db.Exec(`INSERT INTO mental_state_reports (id, user_id, total_messages_analyzed, dominant_state, confidence, state_distribution, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		newRowID(r.ID), r.UserID, r.TotalMessages, string(r.DominantState), r.Confidence, string(distJSON), r.CreatedAt)
	if err != nil {
		slog.Error("SQLiteStore AddReport failed", "error", err, "user_id", r.UserID)
		return fmt.Errorf("failed to insert report for %s: %w", r.UserID, err)
	}
	return nil
}

func (s *SQLiteStore) GetLatestReport(userID string) (*models.MentalStateReport, error) {
	row := s.db.QueryRow(`SELECT id, user_id, total_messages_analyzed, dominant_state, confidence, state_distribution, created_at FROM mental_state_reports WHERE user_id = ? ORDER BY created_at DESC LIMIT 1`, userID)
	report, err := scanReportRow(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		slog.Error("SQLiteStore GetLatestReport failed", "error", err, "user_id", userID)
		return nil, fmt.Errorf("failed to query latest report for %s: %w", userID, err)
	}
	return report, nil
}

func (s *SQLiteStore) ListDoctors() ([]models.Doctor, error) {
	return s.queryDoctors(`SELECT id, name, email, phone, category, dominant_state FROM doctors ORDER BY id`)
}

func (s *SQLiteStore) ListDoctorsByState(state models.MentalState) ([]models.Doctor, error) {
	return s.queryDoctors(`SELECT id, name, email, phone, category, dominant_state FROM doctors WHERE dominant_state = ? ORDER BY id`, string(state))
}

func (s *SQLiteStore) queryDoctors(query string, args ...interface{}) ([]models.Doctor, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		slog.Error("SQLiteStore doctor query failed", "error", err)
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

func (s *SQLiteStore) GetAssignedDoctorID(userID string) (string, error) {
	var doctorID string
	err := s.db.QueryRow(`SELECT doctor_id FROM recommended_doctor WHERE user_id = ?`, userID).Scan(&doctorID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		slog.Error("SQLiteStore GetAssignedDoctorID failed", "error", err, "user_id", userID)
		return "", fmt.Errorf("failed to query assignment for %s: %w", userID, err)
	}
	return doctorID, nil
}

func (s *SQLiteStore) IsDoctorAssigned(doctorID string) (bool, error) {
	var exists bool
	err := s.db.QueryRow(`SELECT EXISTS (SELECT 1 FROM recommended_doctor WHERE doctor_id = ?)`, doctorID).Scan(&exists)
	if err != nil {
		slog.Error("SQLiteStore IsDoctorAssigned failed", "error", err, "doctor_id", doctorID)
		return false, fmt.Errorf("failed to check doctor assignment: %w", err)
	}
	return exists, nil
}

func (s *SQLiteStore) AddDoctorAssignment(a models.DoctorAssignment) error {
	_, err := s.db.Exec(`INSERT INTO recommended_doctor (user_id, doctor_id) VALUES (?, ?)`, a.UserID, a.DoctorID)
	if err != nil {
		if isSQLiteConstraintErr(err) {
			slog.Debug("SQLiteStore AddDoctorAssignment conflict", "user_id", a.UserID, "doctor_id", a.DoctorID)
			return models.ErrDoctorTaken
		}
		slog.Error("SQLiteStore AddDoctorAssignment failed", "error", err, "user_id", a.UserID)
		return fmt.Errorf("failed to insert assignment for %s: %w", a.UserID, err)
	}
	return nil
}

func (s *SQLiteStore) ListEntertainmentsByState(state models.MentalState) ([]models.Entertainment, error) {
	rows, err := s.db.Query(`SELECT id, title, type, dominant_state, description, cover_img_url, media_file_url FROM entertainments WHERE dominant_state = ? ORDER BY id`, string(state))
	if err != nil {
		slog.Error("SQLiteStore ListEntertainmentsByState query failed", "error", err, "state", state)
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

func (s *SQLiteStore) DeleteEntertainmentRecommendations(userID string) error {
	_, err := s.db.Exec(`DELETE FROM recommended_entertainments WHERE user_id = ?`, userID)
	if err != nil {
		slog.Error("SQLiteStore DeleteEntertainmentRecommendations failed", "error", err, "user_id", userID)
		return fmt.Errorf("failed to delete entertainment recommendations for %s: %w", userID, err)
	}
	return nil
}

func (s *SQLiteStore) AddEntertainmentRecommendation(rec models.EntertainmentRecommendation) error {
	_, err := s.db.Exec(`INSERT INTO recommended_entertainments (id, user_id, entertainment_id, matched_state, recommended_at) VALUES (?, ?, ?, ?, ?)`,
		rec.ID, rec.UserID, rec.EntertainmentID, string(rec.MatchedState), rec.RecommendedAt)
	if err != nil {
		slog.Error("SQLiteStore AddEntertainmentRecommendation failed", "error", err, "user_id", rec.UserID)
		return fmt.Errorf("failed to insert entertainment recommendation for %s: %w", rec.UserID, err)
	}
	return nil
}

func (s *SQLiteStore) GetEntertainmentRecommendations(userID string) ([]models.EntertainmentRecommendation, error) {
	rows, err := s.db.Query(`SELECT id, user_id, entertainment_id, matched_state, recommended_at FROM recommended_entertainments WHERE user_id = ? ORDER BY recommended_at DESC`, userID)
	if err != nil {
		slog.Error("SQLiteStore GetEntertainmentRecommendations query failed", "error", err, "user_id", userID)
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

func (s *SQLiteStore) ListSuggestionsByCategory(category string) ([]models.Suggestion, error) {
	rows, err := s.db.Query(`SELECT id, logo, suggestion, description, category FROM suggestions WHERE category = ? ORDER BY id`, category)
	if err != nil {
		slog.Error("SQLiteStore ListSuggestionsByCategory query failed", "error", err, "category", category)
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

func (s *SQLiteStore) DeleteSuggestionRecommendations(userID string) error {
	_, err := s.db.Exec(`DELETE FROM recommended_suggestions WHERE user_id = ?`, userID)
	if err != nil {
		slog.Error("SQLiteStore DeleteSuggestionRecommendations failed", "error", err, "user_id", userID)
		return fmt.Errorf("failed to delete suggestion recommendations for %s: %w", userID, err)
	}
	return nil
}

func (s *SQLiteStore) AddSuggestionRecommendation(rec models.SuggestionRecommendation) error {
	_, err := s.db.Exec(`INSERT INTO recommended_suggestions (id, user_id, suggestion_id, dominant_state, recommended_at) VALUES (?, ?, ?, ?, ?)`,
		rec.ID, rec.UserID, rec.SuggestionID, string(rec.DominantState), rec.RecommendedAt)
	if err != nil {
		slog.Error("SQLiteStore AddSuggestionRecommendation failed", "error", err, "user_id", rec.UserID)
		return fmt.Errorf("failed to insert suggestion recommendation for %s: %w", rec.UserID, err)
	}
	return nil
}

func (s *SQLiteStore) GetSuggestionRecommendations(userID string) ([]models.SuggestionRecommendation, error) {
	rows, err := s.db.Query(`SELECT id, user_id, suggestion_id, dominant_state, recommended_at FROM recommended_suggestions WHERE user_id = ? ORDER BY recommended_at DESC`, userID)
	if err != nil {
		slog.Error("SQLiteStore GetSuggestionRecommendations query failed", "error", err, "user_id", userID)
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

func (s *SQLiteStore) ListExercises() ([]models.Exercise, error) {
	return s.queryExercises(`SELECT id, exercise_name, duration, category_name, category_image_path, exercise_description, chat_flow, is_active FROM exercises WHERE is_active = 1 ORDER BY id`)
}

func (s *SQLiteStore) ListExercisesByCategory(category string) ([]models.Exercise, error) {
	return s.queryExercises(`SELECT id, exercise_name, duration, category_name, category_image_path, exercise_description, chat_flow, is_active FROM exercises WHERE category_name = ? AND is_active = 1 ORDER BY id`, category)
}

func (s *SQLiteStore) queryExercises(query string, args ...interface{}) ([]models.Exercise, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		slog.Error("SQLiteStore exercise query failed", "error", err)
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

func (s *SQLiteStore) GetExercise(id string) (*models.Exercise, error) {
	row := s.db.QueryRow(`SELECT id, exercise_name, duration, category_name, category_image_path, exercise_description, chat_flow, is_active FROM exercises WHERE id = ?`, id)
	ex, err := scanExercise(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		slog.Error("SQLiteStore GetExercise failed", "error", err, "exercise_id", id)
		return nil, fmt.Errorf("failed to query exercise %s: %w", id, err)
	}
	return &ex, nil
}

func (s *SQLiteStore) AddExerciseCompletion(c models.ExerciseCompletion) error {
	_, err := s.db.Exec(`INSERT INTO exercise_completions (id, user_id, exercise_id, duration_seconds, completed_at) VALUES (?, ?, ?, ?, ?)`,
		newRowID(c.ID), c.UserID, c.ExerciseID, c.DurationSeconds, c.CompletedAt)
	if err != nil {
		slog.Error("SQLiteStore AddExerciseCompletion failed", "error", err, "user_id", c.UserID)
		return fmt.Errorf("failed to insert completion for %s: %w", c.UserID, err)
	}
	return nil
}

func (s *SQLiteStore) ListExerciseCompletions(userID string, since time.Time) ([]models.ExerciseCompletion, error) {
	return s.queryCompletions(`SELECT id, user_id, exercise_id, duration_seconds, completed_at FROM exercise_completions WHERE user_id = ? AND completed_at >= ? ORDER BY completed_at DESC`, userID, since)
}

func (s *SQLiteStore) ListRecentCompletions(since time.Time) ([]models.ExerciseCompletion, error) {
	return s.queryCompletions(`SELECT id, user_id, exercise_id, duration_seconds, completed_at FROM exercise_completions WHERE completed_at >= ? ORDER BY completed_at DESC`, since)
}

func (s *SQLiteStore) queryCompletions(query string, args ...interface{}) ([]models.ExerciseCompletion, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		slog.Error("SQLiteStore completion query failed", "error", err)
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
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
