// Package api provides HTTP handlers for the mental-health backend endpoints.
package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/DhanukaRathnayaka/Final-Year-Project/internal/models"
	"github.com/google/uuid"
)

func (s *Server) chatHandler(w http.ResponseWriter, r *http.Request) {
	if r.Body != nil {
		defer r.Body.Close()
	}
	var req models.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Warn("Server.chatHandler: failed to decode JSON", "error", err)
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Invalid JSON format"))
		return
	}
	if err := req.Validate(); err != nil {
		slog.Warn("Server.chatHandler: validation failed", "error", err)
		writeJSONResponse(w, http.StatusBadRequest, models.Error(err.Error()))
		return
	}

	reply := s.bot.Respond(r.Context(), req.Message)

	// Conversations keyed to a user feed the analysis window. Persistence
	// failures never block the reply.
	if req.UserID != "" {
		now := time.Now().UTC()
		userMsg := models.Message{ID: uuid.NewString(), UserID: req.UserID, Text: req.Message, CreatedAt: now}
		botMsg := models.Message{ID: uuid.NewString(), UserID: req.UserID, Text: reply, IsBot: true, CreatedAt: now}
		if err := s.st.AddMessage(userMsg); err != nil {
			slog.Warn("Server.chatHandler: failed to store user message", "error", err, "user_id", req.UserID)
		} else if err := s.st.AddMessage(botMsg); err != nil {
			slog.Warn("Server.chatHandler: failed to store bot reply", "error", err, "user_id", req.UserID)
		}
	}

	slog.Debug("Server.chatHandler: reply generated", "user_id", req.UserID)
	writeJSONResponse(w, http.StatusOK, models.ChatResponse{Response: reply})
}

func (s *Server) predictHandler(w http.ResponseWriter, r *http.Request) {
	if r.Body != nil {
		defer r.Body.Close()
	}
	var req models.PredictRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Warn("Server.predictHandler: failed to decode JSON", "error", err)
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Invalid JSON format"))
		return
	}
	if err := req.Validate(); err != nil {
		slog.Warn("Server.predictHandler: validation failed", "error", err)
		writeJSONResponse(w, http.StatusBadRequest, models.Error(err.Error()))
		return
	}

	result := s.classifier.Classify(r.Context(), req.Message)
	slog.Debug("Server.predictHandler: message classified", "prediction", result.Prediction)
	writeJSONResponse(w, http.StatusOK, models.Success(result))
}

func (s *Server) analyzeHandler(w http.ResponseWriter, r *http.Request) {
	if r.Body != nil {
		defer r.Body.Close()
	}
	var req models.UserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Warn("Server.analyzeHandler: failed to decode JSON", "error", err)
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Invalid JSON format"))
		return
	}
	if err := req.Validate(); err != nil {
		slog.Warn("Server.analyzeHandler: validation failed", "error", err)
		writeJSONResponse(w, http.StatusBadRequest, models.Error(err.Error()))
		return
	}

	report, err := s.analyzer.Analyze(r.Context(), req.UserID)
	if errors.Is(err, models.ErrNoMessages) {
		writeJSONResponse(w, http.StatusNotFound, models.Error("No messages found for this user. Send some messages first."))
		return
	}
	if err != nil {
		slog.Error("Server.analyzeHandler: analysis failed", "error", err, "user_id", req.UserID)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error(err.Error()))
		return
	}
	slog.Info("Server.analyzeHandler: report generated", "user_id", req.UserID, "dominant_state", report.DominantState)
	writeJSONResponse(w, http.StatusOK, models.Success(report))
}

func (s *Server) recommendDoctorHandler(w http.ResponseWriter, r *http.Request) {
	if r.Body != nil {
		defer r.Body.Close()
	}
	var req models.UserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Warn("Server.recommendDoctorHandler: failed to decode JSON", "error", err)
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Invalid JSON format"))
		return
	}
	if err := req.Validate(); err != nil {
		slog.Warn("Server.recommendDoctorHandler: validation failed", "error", err)
		writeJSONResponse(w, http.StatusBadRequest, models.Error(err.Error()))
		return
	}

	doctor, err := s.doctors.Assign(req.UserID)
	if errors.Is(err, models.ErrNoReport) {
		writeJSONResponse(w, http.StatusNotFound, models.Error("No mental state report found for this user. Run analysis first."))
		return
	}
	if errors.Is(err, models.ErrNoDoctorsAvailable) {
		writeJSONResponse(w, http.StatusServiceUnavailable, models.Error("No doctors are currently available. Please try again later."))
		return
	}
	if err != nil {
		slog.Error("Server.recommendDoctorHandler: assignment failed", "error", err, "user_id", req.UserID)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error(err.Error()))
		return
	}
	writeJSONResponse(w, http.StatusOK, models.SuccessWithMessage("Doctor assigned successfully",
		map[string]interface{}{"assigned_doctor": doctor}))
}

func (s *Server) suggestionsHandler(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("userID")

	report, err := s.latestReport(w, userID)
	if report == nil || err != nil {
		return
	}

	// Doctor and entertainment are combined in one payload. An exhausted
	// doctor pool yields an empty doctors list rather than failing the
	// entertainment half.
	var doctors []models.Doctor
	doctor, err := s.doctors.Assign(userID)
	switch {
	case err == nil:
		doctors = append(doctors, *doctor)
	case errors.Is(err, models.ErrNoDoctorsAvailable):
		slog.Warn("Server.suggestionsHandler: doctor pool exhausted", "user_id", userID)
	default:
		slog.Error("Server.suggestionsHandler: doctor assignment failed", "error", err, "user_id", userID)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error(err.Error()))
		return
	}

	entertainments, err := s.entertainments.Recommend(userID, report.DominantState)
	if err != nil {
		slog.Error("Server.suggestionsHandler: entertainment recommendation failed", "error", err, "user_id", userID)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error(err.Error()))
		return
	}

	writeJSONResponse(w, http.StatusOK, models.Success(map[string]interface{}{
		"doctors":        doctors,
		"entertainments": entertainments,
	}))
}

func (s *Server) entertainmentHandler(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("userID")

	report, err := s.latestReport(w, userID)
	if report == nil || err != nil {
		return
	}

	items, err := s.entertainments.Recommend(userID, report.DominantState)
	if err != nil {
		slog.Error("Server.entertainmentHandler: recommendation failed", "error", err, "user_id", userID)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error(err.Error()))
		return
	}

	writeJSONResponse(w, http.StatusOK, models.Success(map[string]interface{}{
		"user_id":         userID,
		"dominant_state":  report.DominantState,
		"recommendations": items,
	}))
}

func (s *Server) aiSuggestionsHandler(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("userID")

	report, err := s.latestReport(w, userID)
	if report == nil || err != nil {
		return
	}

	items, err := s.suggestions.Recommend(userID, report.DominantState)
	if err != nil {
		slog.Error("Server.aiSuggestionsHandler: recommendation failed", "error", err, "user_id", userID)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error(err.Error()))
		return
	}

	writeJSONResponse(w, http.StatusOK, models.Success(map[string]interface{}{
		"user_id":        userID,
		"dominant_state": report.DominantState,
		"suggestions":    items,
	}))
}

func (s *Server) generateSuggestionsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Body != nil {
		defer r.Body.Close()
	}
	var req models.GenerateSuggestionsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Warn("Server.generateSuggestionsHandler: failed to decode JSON", "error", err)
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Invalid JSON format"))
		return
	}
	if err := req.Validate(); err != nil {
		slog.Warn("Server.generateSuggestionsHandler: validation failed", "error", err)
		writeJSONResponse(w, http.StatusBadRequest, models.Error(err.Error()))
		return
	}

	suggestions, err := s.generator.Generate(r.Context(), req.Messages)
	if errors.Is(err, models.ErrLLMUnavailable) {
		writeJSONResponse(w, http.StatusServiceUnavailable, models.Error("Suggestion generation is unavailable without an LLM backend."))
		return
	}
	if err != nil {
		slog.Error("Server.generateSuggestionsHandler: generation failed", "error", err, "user_id", req.UserID)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error(err.Error()))
		return
	}
	writeJSONResponse(w, http.StatusOK, models.Success(models.GeneratedSuggestions{
		UserID:         req.UserID,
		ConversationID: req.ConversationID,
		Suggestions:    suggestions,
	}))
}

func (s *Server) exerciseCategoriesHandler(w http.ResponseWriter, r *http.Request) {
	categories, err := s.exercises.Categories()
	if err != nil {
		slog.Error("Server.exerciseCategoriesHandler: listing failed", "error", err)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error(err.Error()))
		return
	}
	if categories == nil {
		categories = []models.ExerciseCategory{}
	}
	writeJSONResponse(w, http.StatusOK, models.Success(categories))
}

func (s *Server) exercisesByCategoryHandler(w http.ResponseWriter, r *http.Request) {
	categoryID := r.PathValue("categoryID")
	exercises, err := s.exercises.ByCategory(categoryID)
	if err != nil {
		slog.Error("Server.exercisesByCategoryHandler: listing failed", "error", err, "category_id", categoryID)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error(err.Error()))
		return
	}
	if exercises == nil {
		exercises = []models.Exercise{}
	}
	writeJSONResponse(w, http.StatusOK, models.Success(exercises))
}

func (s *Server) exerciseHandler(w http.ResponseWriter, r *http.Request) {
	exerciseID := r.PathValue("exerciseID")
	ex, err := s.exercises.Get(exerciseID)
	if errors.Is(err, models.ErrExerciseNotFound) {
		writeJSONResponse(w, http.StatusNotFound, models.Error("Exercise not found"))
		return
	}
	if err != nil {
		slog.Error("Server.exerciseHandler: lookup failed", "error", err, "exercise_id", exerciseID)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error(err.Error()))
		return
	}
	writeJSONResponse(w, http.StatusOK, models.Success(ex))
}

func (s *Server) exerciseCompleteHandler(w http.ResponseWriter, r *http.Request) {
	if r.Body != nil {
		defer r.Body.Close()
	}
	var req models.CompletionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Warn("Server.exerciseCompleteHandler: failed to decode JSON", "error", err)
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Invalid JSON format"))
		return
	}
	if err := req.Validate(); err != nil {
		slog.Warn("Server.exerciseCompleteHandler: validation failed", "error", err)
		writeJSONResponse(w, http.StatusBadRequest, models.Error(err.Error()))
		return
	}

	err := s.exercises.LogCompletion(req.UserID, req.ExerciseID, req.DurationSeconds)
	if errors.Is(err, models.ErrExerciseNotFound) {
		writeJSONResponse(w, http.StatusNotFound, models.Error("Exercise not found"))
		return
	}
	if err != nil {
		slog.Error("Server.exerciseCompleteHandler: logging failed", "error", err, "user_id", req.UserID)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error(err.Error()))
		return
	}
	writeJSONResponse(w, http.StatusOK, models.SuccessWithMessage("Completion logged successfully", nil))
}

// exerciseStatsHandler reports zeroed stats rather than an error status so
// frontends always have something to render.
func (s *Server) exerciseStatsHandler(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("userID")
	stats, err := s.exercises.Stats(userID)
	if err != nil {
		slog.Error("Server.exerciseStatsHandler: stats failed", "error", err, "user_id", userID)
		stats = &models.ExerciseStats{}
	}
	writeJSONResponse(w, http.StatusOK, models.Success(stats))
}

func (s *Server) exerciseTrendingHandler(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			writeJSONResponse(w, http.StatusBadRequest, models.Error("limit must be an integer"))
			return
		}
		limit = parsed
	}
	trending, err := s.exercises.Trending(limit)
	if err != nil {
		slog.Error("Server.exerciseTrendingHandler: listing failed", "error", err)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error(err.Error()))
		return
	}
	if trending == nil {
		trending = []models.TrendingExercise{}
	}
	writeJSONResponse(w, http.StatusOK, models.Success(trending))
}

// latestReport fetches the user's latest report, writing the 404 or 500
// response itself when one cannot be produced. Callers bail out on nil.
func (s *Server) latestReport(w http.ResponseWriter, userID string) (*models.MentalStateReport, error) {
	if userID == "" {
		writeJSONResponse(w, http.StatusBadRequest, models.Error(models.ErrEmptyUserID.Error()))
		return nil, models.ErrEmptyUserID
	}
	report, err := s.st.GetLatestReport(userID)
	if err != nil {
		slog.Error("Server.latestReport: lookup failed", "error", err, "user_id", userID)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error(err.Error()))
		return nil, err
	}
	if report == nil {
		writeJSONResponse(w, http.StatusNotFound, models.Error("No mental state report found for this user. Run analysis first."))
		return nil, nil
	}
	return report, nil
}
