package analysis_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/DhanukaRathnayaka/Final-Year-Project/internal/analysis"
	"github.com/DhanukaRathnayaka/Final-Year-Project/internal/classifier"
	"github.com/DhanukaRathnayaka/Final-Year-Project/internal/models"
	"github.com/DhanukaRathnayaka/Final-Year-Project/internal/store"
)

// failingReportStore wraps the in-memory store so report writes fail.
type failingReportStore struct {
	*store.InMemoryStore
}

func (s *failingReportStore) AddReport(r models.MentalStateReport) error {
	return errors.New("report table unavailable")
}

func seedMessages(t *testing.T, st store.Store, userID string, texts []string) {
	t.Helper()
	base := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	for i, text := range texts {
		err := st.AddMessage(models.Message{
			ID:        fmt.Sprintf("m%d", i),
			UserID:    userID,
			Text:      text,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		})
		if err != nil {
			t.Fatalf("AddMessage failed: %v", err)
		}
	}
}

func TestAnalyzeNoMessages(t *testing.T) {
	st := store.NewInMemoryStore()
	a := analysis.NewAnalyzer(classifier.New(nil), st)

	_, err := a.Analyze(context.Background(), "nobody")
	if !errors.Is(err, models.ErrNoMessages) {
		t.Errorf("expected ErrNoMessages, got %v", err)
	}
}

func TestAnalyzeDistributionSumsToWindow(t *testing.T) {
	st := store.NewInMemoryStore()
	texts := []string{
		"I feel hopeless",
		"everything is going great today",
		"I am so worried about my exam deadline",
		"not sure what to do about this",
		"had lunch and went for a walk",
	}
	seedMessages(t, st, "user1", texts)

	a := analysis.NewAnalyzer(classifier.New(nil), st)
	report, err := a.Analyze(context.Background(), "user1")
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}

	sum := 0
	for _, c := range report.StateDistribution {
		sum += c
	}
	if sum != report.TotalMessages {
		t.Errorf("distribution sums to %d, want %d", sum, report.TotalMessages)
	}
	if report.TotalMessages != len(texts) {
		t.Errorf("expected %d messages analyzed, got %d", len(texts), report.TotalMessages)
	}
	if report.Confidence < models.MinConfidence || report.Confidence > models.MaxConfidence {
		t.Errorf("confidence %v outside [%v, %v]", report.Confidence, models.MinConfidence, models.MaxConfidence)
	}
}

func TestAnalyzeWindowLimitsMessages(t *testing.T) {
	st := store.NewInMemoryStore()

	// Older messages are strongly depressed, recent ones strongly happy.
	// A window of 3 must see only the recent ones.
	texts := []string{
		"I feel hopeless",
		"I feel hopeless",
		"I feel hopeless",
		"I am so happy and grateful today",
		"everything is amazing and wonderful",
		"great day, I love it",
	}
	seedMessages(t, st, "user1", texts)

	a := analysis.NewAnalyzer(classifier.New(nil), st, analysis.WithWindowSize(3))
	report, err := a.Analyze(context.Background(), "user1")
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	if report.TotalMessages != 3 {
		t.Fatalf("expected window of 3, got %d", report.TotalMessages)
	}
	if report.DominantState != models.StateHappy {
		t.Errorf("expected happy dominant over recent window, got %s", report.DominantState)
	}
	if report.StateDistribution[models.StateDepressed] != 0 {
		t.Errorf("expected no depressed counts inside window, got %d", report.StateDistribution[models.StateDepressed])
	}
}

func TestAnalyzeBelowThresholdIsMixed(t *testing.T) {
	st := store.NewInMemoryStore()

	// Seven distinct states over seven messages leaves every share at 1/7,
	// below a 0.25 threshold.
	texts := []string{
		"I am so happy and grateful",
		"I am worried and anxious about everything",
		"I feel hopeless",
		"I hate this, it makes me furious",
		"just a normal day, calm and routine",
		"not sure what I should do",
		"I am thrilled, can't wait for tomorrow!",
	}
	seedMessages(t, st, "user1", texts)

	a := analysis.NewAnalyzer(classifier.New(nil), st)
	report, err := a.Analyze(context.Background(), "user1")
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	if report.DominantState != models.StateMixed {
		t.Errorf("expected mixed below threshold, got %s (distribution %v)", report.DominantState, report.StateDistribution)
	}
}

func TestAnalyzeAboveThresholdKeepsDominant(t *testing.T) {
	st := store.NewInMemoryStore()

	// 3 of 5 stressed clears any threshold up to 0.6.
	texts := []string{
		"I am so worried about the deadline",
		"so much pressure at work, I can't cope",
		"anxious about everything right now",
		"had lunch as usual",
		"not sure what to do",
	}
	seedMessages(t, st, "user1", texts)

	a := analysis.NewAnalyzer(classifier.New(nil), st, analysis.WithThreshold(0.4))
	report, err := a.Analyze(context.Background(), "user1")
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	if report.DominantState != models.StateStressed {
		t.Errorf("expected stressed dominant, got %s (distribution %v)", report.DominantState, report.StateDistribution)
	}
}

func TestAnalyzeMinorityShareStillDominates(t *testing.T) {
	st := store.NewInMemoryStore()

	// 14 neutral and 6 happy over a full window of 20: neutral holds 0.70,
	// well over the 0.25 default, so the dominant state is neutral even
	// though the window is not unanimous.
	var texts []string
	for i := 0; i < 14; i++ {
		texts = append(texts, "just a normal day, calm and routine")
	}
	for i := 0; i < 6; i++ {
		texts = append(texts, "I am so happy and grateful today")
	}
	seedMessages(t, st, "user1", texts)

	a := analysis.NewAnalyzer(classifier.New(nil), st)
	report, err := a.Analyze(context.Background(), "user1")
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	if report.DominantState != models.StateNeutral {
		t.Errorf("expected neutral dominant, got %s (distribution %v)", report.DominantState, report.StateDistribution)
	}
	if report.StateDistribution[models.StateNeutral] != 14 || report.StateDistribution[models.StateHappy] != 6 {
		t.Errorf("unexpected distribution %v", report.StateDistribution)
	}
}

func TestAnalyzeReturnsReportWhenPersistFails(t *testing.T) {
	st := &failingReportStore{InMemoryStore: store.NewInMemoryStore()}
	seedMessages(t, st, "user1", []string{"I feel hopeless", "nothing matters"})

	a := analysis.NewAnalyzer(classifier.New(nil), st)
	report, err := a.Analyze(context.Background(), "user1")
	if err != nil {
		t.Fatalf("Analyze should not fail on persist error, got %v", err)
	}
	if report == nil || report.DominantState != models.StateDepressed {
		t.Errorf("expected depressed report despite persist failure, got %+v", report)
	}
}

func TestAnalyzePersistsReport(t *testing.T) {
	st := store.NewInMemoryStore()
	seedMessages(t, st, "user1", []string{"I feel hopeless", "nothing matters", "I give up"})

	a := analysis.NewAnalyzer(classifier.New(nil), st)
	if _, err := a.Analyze(context.Background(), "user1"); err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}

	stored, err := st.GetLatestReport("user1")
	if err != nil {
		t.Fatalf("GetLatestReport failed: %v", err)
	}
	if stored == nil {
		t.Fatal("expected a stored report")
	}
	if stored.DominantState != models.StateDepressed {
		t.Errorf("expected depressed stored report, got %s", stored.DominantState)
	}
}
