package store_test

import (
	"errors"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/DhanukaRathnayaka/Final-Year-Project/internal/models"
	"github.com/DhanukaRathnayaka/Final-Year-Project/internal/store"
)

func TestInMemoryStoreMessages(t *testing.T) {
	st := store.NewInMemoryStore()
	base := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

	// Inserted out of order plus a bot message that must be filtered.
	msgs := []models.Message{
		{ID: "m2", UserID: "user1", Text: "second", CreatedAt: base.Add(2 * time.Minute)},
		{ID: "m1", UserID: "user1", Text: "first", CreatedAt: base},
		{ID: "m3", UserID: "user1", Text: "bot reply", IsBot: true, CreatedAt: base.Add(time.Minute)},
		{ID: "m4", UserID: "user2", Text: "other user", CreatedAt: base},
	}
	for _, m := range msgs {
		if err := st.AddMessage(m); err != nil {
			t.Fatalf("AddMessage(%s) failed: %v", m.ID, err)
		}
	}

	got, err := st.GetUserMessages("user1")
	if err != nil {
		t.Fatalf("GetUserMessages failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(got))
	}
	if got[0].ID != "m1" || got[1].ID != "m2" {
		t.Errorf("expected ascending order [m1 m2], got [%s %s]", got[0].ID, got[1].ID)
	}
}

func TestInMemoryStoreLatestReport(t *testing.T) {
	st := store.NewInMemoryStore()

	report, err := st.GetLatestReport("user1")
	if err != nil {
		t.Fatalf("GetLatestReport failed: %v", err)
	}
	if report != nil {
		t.Errorf("expected nil report for unknown user, got %+v", report)
	}

	base := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	older := models.MentalStateReport{ID: "r1", UserID: "user1", DominantState: models.StateNeutral, CreatedAt: base}
	newer := models.MentalStateReport{ID: "r2", UserID: "user1", DominantState: models.StateStressed, CreatedAt: base.Add(time.Hour)}
	for _, r := range []models.MentalStateReport{newer, older} {
		if err := st.AddReport(r); err != nil {
			t.Fatalf("AddReport failed: %v", err)
		}
	}

	report, err = st.GetLatestReport("user1")
	if err != nil {
		t.Fatalf("GetLatestReport failed: %v", err)
	}
	if report == nil || report.ID != "r2" {
		t.Errorf("expected latest report r2, got %+v", report)
	}
}

func TestInMemoryStoreDoctorAssignmentConflicts(t *testing.T) {
	st := store.NewInMemoryStore()

	if err := st.AddDoctorAssignment(models.DoctorAssignment{UserID: "user1", DoctorID: "doc1"}); err != nil {
		t.Fatalf("first assignment failed: %v", err)
	}

	// Same doctor, different user.
	err := st.AddDoctorAssignment(models.DoctorAssignment{UserID: "user2", DoctorID: "doc1"})
	if !errors.Is(err, models.ErrDoctorTaken) {
		t.Errorf("expected ErrDoctorTaken for reused doctor, got %v", err)
	}

	// Same user, different doctor.
	err = st.AddDoctorAssignment(models.DoctorAssignment{UserID: "user1", DoctorID: "doc2"})
	if !errors.Is(err, models.ErrDoctorTaken) {
		t.Errorf("expected ErrDoctorTaken for already-assigned user, got %v", err)
	}

	assigned, err := st.IsDoctorAssigned("doc1")
	if err != nil {
		t.Fatalf("IsDoctorAssigned failed: %v", err)
	}
	if !assigned {
		t.Error("expected doc1 to be assigned")
	}

	doctorID, err := st.GetAssignedDoctorID("user1")
	if err != nil {
		t.Fatalf("GetAssignedDoctorID failed: %v", err)
	}
	if doctorID != "doc1" {
		t.Errorf("expected doc1 assigned to user1, got %q", doctorID)
	}
}

func TestInMemoryStoreAssignmentExclusivityConcurrent(t *testing.T) {
	st := store.NewInMemoryStore()

	const workers = 20
	var wg sync.WaitGroup
	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = st.AddDoctorAssignment(models.DoctorAssignment{
				UserID:   fmt.Sprintf("user%d", i),
				DoctorID: "doc1",
			})
		}(i)
	}
	wg.Wait()

	var wins int
	for _, err := range errs {
		switch {
		case err == nil:
			wins++
		case errors.Is(err, models.ErrDoctorTaken):
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if wins != 1 {
		t.Errorf("expected exactly one winning assignment, got %d", wins)
	}
}

func TestInMemoryStoreEntertainmentFullReplace(t *testing.T) {
	st := store.NewInMemoryStore()

	first := models.EntertainmentRecommendation{ID: "rec1", UserID: "user1", EntertainmentID: "e1", MatchedState: models.StateHappy}
	if err := st.AddEntertainmentRecommendation(first); err != nil {
		t.Fatalf("AddEntertainmentRecommendation failed: %v", err)
	}
	other := models.EntertainmentRecommendation{ID: "rec2", UserID: "user2", EntertainmentID: "e2", MatchedState: models.StateHappy}
	if err := st.AddEntertainmentRecommendation(other); err != nil {
		t.Fatalf("AddEntertainmentRecommendation failed: %v", err)
	}

	if err := st.DeleteEntertainmentRecommendations("user1"); err != nil {
		t.Fatalf("DeleteEntertainmentRecommendations failed: %v", err)
	}
	replacement := models.EntertainmentRecommendation{ID: "rec3", UserID: "user1", EntertainmentID: "e3", MatchedState: models.StateStressed}
	if err := st.AddEntertainmentRecommendation(replacement); err != nil {
		t.Fatalf("AddEntertainmentRecommendation failed: %v", err)
	}

	recs, err := st.GetEntertainmentRecommendations("user1")
	if err != nil {
		t.Fatalf("GetEntertainmentRecommendations failed: %v", err)
	}
	if len(recs) != 1 || recs[0].ID != "rec3" {
		t.Errorf("expected only rec3 after replace, got %+v", recs)
	}

	// Unrelated user's rows survive the replace.
	recs, err = st.GetEntertainmentRecommendations("user2")
	if err != nil {
		t.Fatalf("GetEntertainmentRecommendations failed: %v", err)
	}
	if len(recs) != 1 || recs[0].ID != "rec2" {
		t.Errorf("expected user2 rows untouched, got %+v", recs)
	}
}

func TestInMemoryStoreSuggestionCatalog(t *testing.T) {
	st := store.NewInMemoryStore()
	for i := 0; i < 3; i++ {
		if err := st.AddSuggestion(models.Suggestion{
			ID:         fmt.Sprintf("s%d", i),
			Suggestion: fmt.Sprintf("tip %d", i),
			Category:   string(models.StateHappy),
		}); err != nil {
			t.Fatalf("AddSuggestion failed: %v", err)
		}
	}
	if err := st.AddSuggestion(models.Suggestion{ID: "sx", Suggestion: "other", Category: string(models.StateAngry)}); err != nil {
		t.Fatalf("AddSuggestion failed: %v", err)
	}

	items, err := st.ListSuggestionsByCategory(string(models.StateHappy))
	if err != nil {
		t.Fatalf("ListSuggestionsByCategory failed: %v", err)
	}
	if len(items) != 3 {
		t.Errorf("expected 3 suggestions in category, got %d", len(items))
	}
}

// TestPostgresStoreRoundTrip exercises the Postgres backend against a real
// database. Set TEST_DATABASE_URL to run it.
func TestPostgresStoreRoundTrip(t *testing.T) {
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set; skipping Postgres integration test")
	}

	st, err := store.NewPostgresStore(store.WithPostgresDSN(dsn))
	if err != nil {
		t.Fatalf("NewPostgresStore failed: %v", err)
	}
	defer st.Close()

	userID := fmt.Sprintf("it-user-%d", time.Now().UnixNano())
	msg := models.Message{
		ID:        fmt.Sprintf("it-msg-%d", time.Now().UnixNano()),
		UserID:    userID,
		Text:      "integration test message",
		CreatedAt: time.Now().UTC(),
	}
	if err := st.AddMessage(msg); err != nil {
		t.Fatalf("AddMessage failed: %v", err)
	}
	got, err := st.GetUserMessages(userID)
	if err != nil {
		t.Fatalf("GetUserMessages failed: %v", err)
	}
	if len(got) != 1 || got[0].Text != msg.Text {
		t.Errorf("expected inserted message back, got %+v", got)
	}

	report := models.MentalStateReport{
		UserID:            userID,
		TotalMessages:     1,
		DominantState:     models.StateNeutral,
		Confidence:        0.75,
		StateDistribution: map[models.MentalState]int{models.StateNeutral: 1},
		CreatedAt:         time.Now().UTC(),
	}
	if err := st.AddReport(report); err != nil {
		t.Fatalf("AddReport failed: %v", err)
	}
	latest, err := st.GetLatestReport(userID)
	if err != nil {
		t.Fatalf("GetLatestReport failed: %v", err)
	}
	if latest == nil || latest.DominantState != models.StateNeutral {
		t.Errorf("expected neutral report back, got %+v", latest)
	}
	if latest.StateDistribution[models.StateNeutral] != 1 {
		t.Errorf("expected distribution to survive the round trip, got %+v", latest.StateDistribution)
	}
}
