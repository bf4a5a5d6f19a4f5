package persistence

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/clinic-core/internal/model"
	"github.com/jwalitptl/clinic-core/internal/repository"
	"github.com/jwalitptl/clinic-core/pkg/security"
)

// Sample rows carry fixed ids so seeding an already seeded backend adds
// nothing.
var (
	seedPhysicians = []struct {
		physician model.Physician
		password  string
	}{
		{model.Physician{ID: "p1", Name: "Dr. Alice Moreau", Email: "alice.moreau@clinic.test", OfficeID: "A-101"}, "alice-pass"},
		{model.Physician{ID: "p2", Name: "Dr. Bram Okafor", Email: "bram.okafor@clinic.test", OfficeID: "B-204"}, "bram-pass"},
		{model.Physician{ID: "p3", Name: "Dr. Chen Wei", Email: "chen.wei@clinic.test", OfficeID: "C-310"}, "chen-pass"},
	}

	seedMedications = []model.Medication{
		{Name: "Amoxicillin", Dosage: "500mg", DefaultFrequency: "every 8 hours", DefaultNotes: "Take with food"},
		{Name: "Ibuprofen", Dosage: "200mg", DefaultFrequency: "every 6 hours as needed", DefaultNotes: "Do not exceed 1200mg per day"},
		{Name: "Lisinopril", Dosage: "10mg", DefaultFrequency: "once daily"},
		{Name: "Metformin", Dosage: "500mg", DefaultFrequency: "twice daily", DefaultNotes: "Take with meals"},
	}

	seedAppointments = []model.Appointment{
		{
			ID:          uuid.MustParse("7d0c7a4e-8f51-4c1a-9d3e-2b6f1a0c5e01"),
			PhysicianID: "p1",
			PatientName: "Maria Lopez",
			DateTime:    time.Date(2030, time.January, 14, 9, 0, 0, 0, time.UTC),
			Notes:       "Annual physical",
		},
		{
			ID:          uuid.MustParse("7d0c7a4e-8f51-4c1a-9d3e-2b6f1a0c5e02"),
			PhysicianID: "p1",
			PatientName: "Tom Becker",
			DateTime:    time.Date(2030, time.January, 14, 9, 30, 0, 0, time.UTC),
		},
		{
			ID:          uuid.MustParse("7d0c7a4e-8f51-4c1a-9d3e-2b6f1a0c5e03"),
			PhysicianID: "p2",
			PatientName: "Maria Lopez",
			DateTime:    time.Date(2030, time.January, 15, 14, 0, 0, 0, time.UTC),
			Notes:       "Follow-up on blood pressure",
		},
	}
)

// Seed loads the fixed sample physicians, medications and appointments.
func Seed(ctx context.Context, stores repository.Stores, hasher security.PasswordHasher) error {
	for _, sp := range seedPhysicians {
		p := sp.physician
		hash, err := hasher.Hash(sp.password)
		if err != nil {
			return fmt.Errorf("hash password for %s: %w", p.ID, err)
		}
		p.PasswordHash = hash
		if _, err := stores.Physicians.Add(ctx, &p); err != nil {
			return fmt.Errorf("seed physician %s: %w", p.ID, err)
		}
	}
	for i := range seedMedications {
		m := seedMedications[i]
		if _, err := stores.Medications.Add(ctx, &m); err != nil {
			return fmt.Errorf("seed medication %s: %w", m.Name, err)
		}
	}
	for i := range seedAppointments {
		a := seedAppointments[i]
		if _, err := stores.Appointments.Add(ctx, &a); err != nil {
			return fmt.Errorf("seed appointment %s: %w", a.ID, err)
		}
	}
	return nil
}
