// Package analysis aggregates per-message classifications into a user's
// mental-state report.
//
// An analysis run classifies the most recent window of a user's messages,
// tallies the label distribution, and decides the dominant state under a
// minimum-share threshold; below the threshold the report falls back to the
// synthetic mixed label. Reports are insert-only.
package analysis

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/DhanukaRathnayaka/Final-Year-Project/internal/classifier"
	"github.com/DhanukaRathnayaka/Final-Year-Project/internal/models"
	"github.com/DhanukaRathnayaka/Final-Year-Project/internal/store"
)

// Defaults for the aggregation parameters. The threshold is configurable
// because earlier revisions of the decision rule used 0.40; 0.25 is current.
const (
	DefaultWindowSize = 20
	DefaultThreshold  = 0.25
)

// Analyzer computes and persists mental-state reports.
type Analyzer struct {
	classifier *classifier.Classifier
	st         store.Store
	windowSize int
	threshold  float64
}

// Opts holds configuration options for an Analyzer.
type Opts struct {
	WindowSize int
	Threshold  float64
}

// Option configures an Analyzer.
type Option func(*Opts)

// WithWindowSize overrides the message window size.
func WithWindowSize(n int) Option {
	return func(o *Opts) { o.WindowSize = n }
}

// WithThreshold overrides the minimum dominance share.
func WithThreshold(t float64) Option {
	return func(o *Opts) { o.Threshold = t }
}

// NewAnalyzer creates an Analyzer backed by the given classifier and store.
func NewAnalyzer(cls *classifier.Classifier, st store.Store, opts ...Option) *Analyzer {
	cfg := Opts{WindowSize: DefaultWindowSize, Threshold: DefaultThreshold}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.WindowSize <= 0 {
		cfg.WindowSize = DefaultWindowSize
	}
	if cfg.Threshold <= 0 || cfg.Threshold > 1 {
		cfg.Threshold = DefaultThreshold
	}
	return &Analyzer{classifier: cls, st: st, windowSize: cfg.WindowSize, threshold: cfg.Threshold}
}

// Analyze classifies the most recent window of the user's messages and returns
// the resulting report. The report is persisted insert-only; a persistence
// failure is logged but the computed report is still returned, so the read
// path never depends on write success.
func (a *Analyzer) Analyze(ctx context.Context, userID string) (*models.MentalStateReport, error) {
	messages, err := a.st.GetUserMessages(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch messages for %s: %w", userID, err)
	}
	if len(messages) == 0 {
		slog.Debug("Analyzer.Analyze: no messages for user", "user_id", userID)
		return nil, models.ErrNoMessages
	}

	// Messages arrive ordered by created_at ascending; only the most recent
	// window counts, keeping cost bounded and the report responsive to
	// recent mood.
	window := messages
	if len(window) > a.windowSize {
		window = window[len(window)-a.windowSize:]
	}

	distribution := make(map[models.MentalState]int)
	confidenceSum := 0.0
	for _, msg := range window {
		result := a.classifier.Classify(ctx, msg.Text)
		distribution[result.Prediction]++
		confidenceSum += result.Confidence
	}

	total := len(window)
	avgConfidence := confidenceSum / float64(total)
	dominant := dominantState(distribution)
	if float64(distribution[dominant])/float64(total) < a.threshold {
		slog.Debug("Analyzer.Analyze: dominant share below threshold, forcing mixed",
			"user_id", userID, "dominant", dominant, "count", distribution[dominant], "total", total, "threshold", a.threshold)
		dominant = models.StateMixed
	}

	report := &models.MentalStateReport{
		UserID:            userID,
		TotalMessages:     total,
		DominantState:     dominant,
		Confidence:        math.Round(avgConfidence*100) / 100,
		StateDistribution: distribution,
		CreatedAt:         time.Now().UTC(),
	}

	if err := a.st.AddReport(*report); err != nil {
		slog.Warn("Analyzer.Analyze: failed to persist report, returning computed result anyway",
			"user_id", userID, "error", err)
	} else {
		slog.Info("Analyzer.Analyze: report stored",
			"user_id", userID, "dominant_state", report.DominantState,
			"messages", report.TotalMessages, "confidence", report.Confidence)
	}
	return report, nil
}

// dominantState returns the argmax label, iterating the canonical taxonomy
// order so that ties resolve deterministically.
func dominantState(distribution map[models.MentalState]int) models.MentalState {
	best := models.StateMixed
	bestCount := 0
	for _, state := range models.AllStates {
		if c := distribution[state]; c > bestCount {
			bestCount = c
			best = state
		}
	}
	return best
}
