// Package api provides HTTP handlers and the main API server logic for the
// mental-health backend.
//
// It exposes RESTful endpoints for the supportive chat surface, per-message
// mental-state prediction, window aggregation, and the doctor, entertainment,
// and coping-suggestion recommenders. The API integrates with the classifier,
// analysis, recommend, chatbot, and store modules.
package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/DhanukaRathnayaka/Final-Year-Project/internal/analysis"
	"github.com/DhanukaRathnayaka/Final-Year-Project/internal/chatbot"
	"github.com/DhanukaRathnayaka/Final-Year-Project/internal/classifier"
	"github.com/DhanukaRathnayaka/Final-Year-Project/internal/exercise"
	"github.com/DhanukaRathnayaka/Final-Year-Project/internal/genai"
	"github.com/DhanukaRathnayaka/Final-Year-Project/internal/recommend"
	"github.com/DhanukaRathnayaka/Final-Year-Project/internal/store"
)

// DefaultAddr is the listen address used when none is configured.
const DefaultAddr = ":8000"

// Server wires the HTTP endpoints to the backend modules.
type Server struct {
	st             store.Store
	classifier     *classifier.Classifier
	analyzer       *analysis.Analyzer
	doctors        *recommend.DoctorEngine
	entertainments *recommend.EntertainmentEngine
	suggestions    *recommend.SuggestionEngine
	generator      *recommend.SuggestionGenerator
	exercises      *exercise.Service
	bot            *chatbot.Bot
	httpServer     *http.Server
}

// Opts holds configuration options for the API server.
type Opts struct {
	Addr        string
	GenAIClient genai.ClientInterface
}

// Option configures the API server.
type Option func(*Opts)

// WithAddr overrides the listen address.
func WithAddr(addr string) Option {
	return func(o *Opts) { o.Addr = addr }
}

// WithGenAIClient supplies the LLM client backing the conversation-based
// suggestion generator. Without it POST /generate_suggestions returns 503.
func WithGenAIClient(client genai.ClientInterface) Option {
	return func(o *Opts) { o.GenAIClient = client }
}

// NewServer assembles a Server from the backend modules.
func NewServer(st store.Store, cls *classifier.Classifier, analyzer *analysis.Analyzer, bot *chatbot.Bot, opts ...Option) *Server {
	cfg := Opts{Addr: DefaultAddr}
	for _, opt := range opts {
		opt(&cfg)
	}
	s := &Server{
		st:             st,
		classifier:     cls,
		analyzer:       analyzer,
		doctors:        recommend.NewDoctorEngine(st),
		entertainments: recommend.NewEntertainmentEngine(st),
		suggestions:    recommend.NewSuggestionEngine(st),
		generator:      recommend.NewSuggestionGenerator(cfg.GenAIClient),
		exercises:      exercise.NewService(st),
		bot:            bot,
	}
	s.httpServer = &http.Server{
		Addr:              cfg.Addr,
		Handler:           corsMiddleware(s.routes()),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler returns the fully-routed HTTP handler, primarily for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// routes registers every endpoint on a fresh mux.
func (s *Server) routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /chat", s.chatHandler)
	mux.HandleFunc("POST /predict-mental-state", s.predictHandler)
	mux.HandleFunc("POST /analyze-mental-state", s.analyzeHandler)
	mux.HandleFunc("POST /recommend", s.recommendDoctorHandler)
	mux.HandleFunc("GET /suggestions/{userID}", s.suggestionsHandler)
	mux.HandleFunc("GET /recommend-entertainment/{userID}", s.entertainmentHandler)
	mux.HandleFunc("GET /ai-suggestions/{userID}", s.aiSuggestionsHandler)
	mux.HandleFunc("POST /generate_suggestions", s.generateSuggestionsHandler)
	mux.HandleFunc("GET /exercises/categories", s.exerciseCategoriesHandler)
	mux.HandleFunc("GET /exercises/category/{categoryID}", s.exercisesByCategoryHandler)
	mux.HandleFunc("GET /exercises/trending", s.exerciseTrendingHandler)
	mux.HandleFunc("GET /exercises/{exerciseID}", s.exerciseHandler)
	mux.HandleFunc("POST /exercises/complete", s.exerciseCompleteHandler)
	mux.HandleFunc("GET /exercises/user/{userID}/stats", s.exerciseStatsHandler)
	return mux
}

// Run starts the HTTP server and blocks until ctx is cancelled or the
// listener fails.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		slog.Info("Server.Run: API listening", "addr", s.httpServer.Addr)
		errCh <- s.httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		slog.Info("Server.Run: shutting down")
		return s.httpServer.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// corsMiddleware applies permissive CORS headers so browser frontends can call
// the API from any origin.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
