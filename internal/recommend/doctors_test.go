package recommend_test

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/DhanukaRathnayaka/Final-Year-Project/internal/models"
	"github.com/DhanukaRathnayaka/Final-Year-Project/internal/recommend"
	"github.com/DhanukaRathnayaka/Final-Year-Project/internal/store"
)

func seedReport(t *testing.T, st store.Store, userID string, state models.MentalState) {
	t.Helper()
	err := st.AddReport(models.MentalStateReport{
		ID:            "r-" + userID,
		UserID:        userID,
		TotalMessages: 5,
		DominantState: state,
		Confidence:    0.85,
		CreatedAt:     time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("AddReport failed: %v", err)
	}
}

func seedDoctor(t *testing.T, st *store.InMemoryStore, id string, state models.MentalState) {
	t.Helper()
	err := st.AddDoctor(models.Doctor{
		ID:            id,
		Name:          "Dr " + id,
		Email:         id + "@clinic.example",
		Category:      "psychiatry",
		DominantState: state,
	})
	if err != nil {
		t.Fatalf("AddDoctor failed: %v", err)
	}
}

func TestAssignNoReport(t *testing.T) {
	st := store.NewInMemoryStore()
	seedDoctor(t, st, "doc1", models.StateGeneral)

	engine := recommend.NewDoctorEngine(st)
	_, err := engine.Assign("user1")
	if !errors.Is(err, models.ErrNoReport) {
		t.Errorf("expected ErrNoReport, got %v", err)
	}
}

func TestAssignPrefersSpecialist(t *testing.T) {
	st := store.NewInMemoryStore()
	seedDoctor(t, st, "doc-general", models.StateGeneral)
	seedDoctor(t, st, "doc-specialist", models.StateStressed)
	seedReport(t, st, "user1", models.StateStressed)

	engine := recommend.NewDoctorEngine(st)
	doctor, err := engine.Assign("user1")
	if err != nil {
		t.Fatalf("Assign failed: %v", err)
	}
	if doctor.ID != "doc-specialist" {
		t.Errorf("expected specialist before generalist, got %s", doctor.ID)
	}
}

func TestAssignFallsBackToGeneral(t *testing.T) {
	st := store.NewInMemoryStore()
	seedDoctor(t, st, "doc-general", models.StateGeneral)
	seedDoctor(t, st, "doc-other", models.StateHappy)
	seedReport(t, st, "user1", models.StateStressed)

	engine := recommend.NewDoctorEngine(st)
	doctor, err := engine.Assign("user1")
	if err != nil {
		t.Fatalf("Assign failed: %v", err)
	}
	if doctor.ID != "doc-general" {
		t.Errorf("expected general fallback, got %s", doctor.ID)
	}
}

func TestAssignSpecialistsExhaustedDoesNotFallBackToGeneral(t *testing.T) {
	st := store.NewInMemoryStore()
	seedDoctor(t, st, "doc-specialist", models.StateStressed)
	seedDoctor(t, st, "doc-general", models.StateGeneral)
	seedReport(t, st, "user1", models.StateStressed)
	seedReport(t, st, "user2", models.StateStressed)

	engine := recommend.NewDoctorEngine(st)
	first, err := engine.Assign("user1")
	if err != nil {
		t.Fatalf("Assign user1 failed: %v", err)
	}
	if first.ID != "doc-specialist" {
		t.Fatalf("expected specialist for user1, got %s", first.ID)
	}
	_, err = engine.Assign("user2")
	if !errors.Is(err, models.ErrNoDoctorsAvailable) {
		t.Errorf("expected ErrNoDoctorsAvailable when specialists are exhausted, got %v", err)
	}
}

func TestAssignExistingDoctorMissingFromCatalog(t *testing.T) {
	st := store.NewInMemoryStore()
	seedReport(t, st, "user1", models.StateStressed)
	if err := st.AddDoctorAssignment(models.DoctorAssignment{UserID: "user1", DoctorID: "doc-retired"}); err != nil {
		t.Fatalf("AddDoctorAssignment failed: %v", err)
	}

	engine := recommend.NewDoctorEngine(st)
	doctor, err := engine.Assign("user1")
	if err != nil {
		t.Fatalf("Assign failed: %v", err)
	}
	if doctor.ID != "doc-retired" {
		t.Errorf("expected the recorded assignment to stand, got %s", doctor.ID)
	}
}

func TestAssignIsIdempotent(t *testing.T) {
	st := store.NewInMemoryStore()
	seedDoctor(t, st, "doc1", models.StateStressed)
	seedDoctor(t, st, "doc2", models.StateStressed)
	seedReport(t, st, "user1", models.StateStressed)

	engine := recommend.NewDoctorEngine(st)
	first, err := engine.Assign("user1")
	if err != nil {
		t.Fatalf("first Assign failed: %v", err)
	}
	second, err := engine.Assign("user1")
	if err != nil {
		t.Fatalf("second Assign failed: %v", err)
	}
	if first.ID != second.ID {
		t.Errorf("repeat Assign returned different doctor: %s then %s", first.ID, second.ID)
	}
}

func TestAssignSkipsTakenDoctors(t *testing.T) {
	st := store.NewInMemoryStore()
	seedDoctor(t, st, "doc1", models.StateStressed)
	seedDoctor(t, st, "doc2", models.StateStressed)
	seedReport(t, st, "user1", models.StateStressed)
	seedReport(t, st, "user2", models.StateStressed)

	engine := recommend.NewDoctorEngine(st)
	first, err := engine.Assign("user1")
	if err != nil {
		t.Fatalf("Assign user1 failed: %v", err)
	}
	second, err := engine.Assign("user2")
	if err != nil {
		t.Fatalf("Assign user2 failed: %v", err)
	}
	if first.ID == second.ID {
		t.Errorf("two users got the same doctor %s", first.ID)
	}
}

func TestAssignExhaustedPool(t *testing.T) {
	st := store.NewInMemoryStore()
	seedDoctor(t, st, "doc1", models.StateStressed)
	seedReport(t, st, "user1", models.StateStressed)
	seedReport(t, st, "user2", models.StateStressed)

	engine := recommend.NewDoctorEngine(st)
	if _, err := engine.Assign("user1"); err != nil {
		t.Fatalf("Assign user1 failed: %v", err)
	}
	_, err := engine.Assign("user2")
	if !errors.Is(err, models.ErrNoDoctorsAvailable) {
		t.Errorf("expected ErrNoDoctorsAvailable, got %v", err)
	}
}

func TestAssignConcurrentUsersGetDistinctDoctors(t *testing.T) {
	st := store.NewInMemoryStore()
	const users = 10
	for i := 0; i < users; i++ {
		seedDoctor(t, st, fmt.Sprintf("doc%02d", i), models.StateStressed)
		seedReport(t, st, fmt.Sprintf("user%02d", i), models.StateStressed)
	}

	engine := recommend.NewDoctorEngine(st)
	var wg sync.WaitGroup
	results := make([]*models.Doctor, users)
	errs := make([]error, users)
	for i := 0; i < users; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = engine.Assign(fmt.Sprintf("user%02d", i))
		}(i)
	}
	wg.Wait()

	seen := make(map[string]int)
	for i := 0; i < users; i++ {
		if errs[i] != nil {
			t.Fatalf("Assign user%02d failed: %v", i, errs[i])
		}
		seen[results[i].ID]++
	}
	for id, count := range seen {
		if count != 1 {
			t.Errorf("doctor %s assigned %d times", id, count)
		}
	}
}
