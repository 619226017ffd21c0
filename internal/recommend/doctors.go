// Package recommend implements the rule-based recommendation engines: doctor
// assignment, entertainment matching, and coping suggestions. All three are
// driven by the user's latest mental-state report.
package recommend

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/DhanukaRathnayaka/Final-Year-Project/internal/models"
	"github.com/DhanukaRathnayaka/Final-Year-Project/internal/store"
)

// DoctorEngine assigns doctors to users. Assignments are exclusive (a doctor
// serves one user) and permanent for the lifetime of the row.
type DoctorEngine struct {
	st store.Store
}

// NewDoctorEngine creates a doctor assignment engine backed by the given store.
func NewDoctorEngine(st store.Store) *DoctorEngine {
	return &DoctorEngine{st: st}
}

// Assign returns the doctor assigned to the user, creating the assignment on
// first call. Repeat calls are idempotent and return the existing doctor.
//
// Candidates are the doctors matching the latest report's dominant state;
// only when no specialist exists at all does the general pool serve as
// fallback. A concurrent claim on a candidate surfaces as
// models.ErrDoctorTaken from the store and the engine moves to the next
// candidate. models.ErrNoReport is returned when the user has no report, and
// models.ErrNoDoctorsAvailable when every candidate is taken.
func (e *DoctorEngine) Assign(userID string) (*models.Doctor, error) {
	existingID, err := e.st.GetAssignedDoctorID(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up existing assignment: %w", err)
	}
	if existingID != "" {
		doctor, err := e.findDoctor(existingID)
		if err != nil {
			return nil, err
		}
		slog.Debug("DoctorEngine.Assign: returning existing assignment", "user_id", userID, "doctor_id", doctor.ID)
		return doctor, nil
	}

	report, err := e.st.GetLatestReport(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch latest report: %w", err)
	}
	if report == nil {
		return nil, models.ErrNoReport
	}

	candidates, err := e.candidatesFor(report.DominantState)
	if err != nil {
		return nil, err
	}

	for _, doctor := range candidates {
		assigned, err := e.st.IsDoctorAssigned(doctor.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to check doctor availability: %w", err)
		}
		if assigned {
			continue
		}
		err = e.st.AddDoctorAssignment(models.DoctorAssignment{UserID: userID, DoctorID: doctor.ID})
		if err == models.ErrDoctorTaken {
			// Lost the race for this doctor; try the next candidate.
			slog.Debug("DoctorEngine.Assign: candidate claimed concurrently", "user_id", userID, "doctor_id", doctor.ID)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to record assignment: %w", err)
		}
		slog.Info("DoctorEngine.Assign: doctor assigned",
			"user_id", userID, "doctor_id", doctor.ID, "dominant_state", report.DominantState)
		d := doctor
		return &d, nil
	}

	slog.Warn("DoctorEngine.Assign: no doctors available", "user_id", userID, "dominant_state", report.DominantState)
	return nil, models.ErrNoDoctorsAvailable
}

// candidatesFor builds the candidate list for a dominant state, sorted by ID
// for a reproducible assignment order. The general pool is consulted only when
// no specialist matches the state; specialists who are all taken do not fall
// through to generalists.
func (e *DoctorEngine) candidatesFor(state models.MentalState) ([]models.Doctor, error) {
	specialists, err := e.st.ListDoctorsByState(state)
	if err != nil {
		return nil, fmt.Errorf("failed to list specialists: %w", err)
	}
	if len(specialists) > 0 {
		sortDoctors(specialists)
		return specialists, nil
	}
	general, err := e.st.ListDoctorsByState(models.StateGeneral)
	if err != nil {
		return nil, fmt.Errorf("failed to list general doctors: %w", err)
	}
	sortDoctors(general)
	return general, nil
}

func sortDoctors(doctors []models.Doctor) {
	sort.Slice(doctors, func(i, j int) bool { return doctors[i].ID < doctors[j].ID })
}

// findDoctor resolves a doctor ID against the full catalog. An assigned
// doctor that has disappeared from the catalog still satisfies the
// assignment; only the ID is known in that case.
func (e *DoctorEngine) findDoctor(doctorID string) (*models.Doctor, error) {
	doctors, err := e.st.ListDoctors()
	if err != nil {
		return nil, fmt.Errorf("failed to list doctors: %w", err)
	}
	for _, d := range doctors {
		if d.ID == doctorID {
			doctor := d
			return &doctor, nil
		}
	}
	slog.Warn("DoctorEngine.findDoctor: assigned doctor missing from catalog", "doctor_id", doctorID)
	return &models.Doctor{ID: doctorID}, nil
}
