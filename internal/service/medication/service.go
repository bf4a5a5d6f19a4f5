package medication

import (
	"context"
	"fmt"

	"github.com/jwalitptl/clinic-core/internal/model"
	"github.com/jwalitptl/clinic-core/internal/repository"
	"github.com/jwalitptl/clinic-core/internal/validation"
	"github.com/jwalitptl/clinic-core/pkg/metrics"
)

// Service manages the medication catalog. Entries are keyed by name and
// dosage; adding an existing key keeps the stored entry.
type Service struct {
	repo      repository.MedicationRepository
	validator *validation.Validator
	metrics   *metrics.Metrics
}

func NewService(repo repository.MedicationRepository, validator *validation.Validator, m *metrics.Metrics) *Service {
	return &Service{
		repo:      repo,
		validator: validator,
		metrics:   m,
	}
}

func (s *Service) AddMedication(ctx context.Context, m *model.Medication) (*model.Medication, error) {
	if err := s.validator.ValidateMedication(m); err != nil {
		return nil, fmt.Errorf("invalid medication: %w", err)
	}
	created, err := s.repo.Add(ctx, m)
	s.metrics.Store("medication", "create", err)
	if err != nil {
		return nil, fmt.Errorf("failed to create medication: %w", err)
	}
	return created, nil
}

func (s *Service) GetMedication(ctx context.Context, key model.MedicationKey) (*model.Medication, error) {
	m, err := s.repo.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("failed to get medication: %w", err)
	}
	return m, nil
}

func (s *Service) ListMedications(ctx context.Context) ([]*model.Medication, error) {
	list, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list medications: %w", err)
	}
	return list, nil
}

func (s *Service) UpdateMedication(ctx context.Context, m *model.Medication) (*model.Medication, error) {
	if err := s.validator.ValidateMedication(m); err != nil {
		return nil, fmt.Errorf("invalid medication: %w", err)
	}
	updated, err := s.repo.Update(ctx, m)
	s.metrics.Store("medication", "update", err)
	if err != nil {
		return nil, fmt.Errorf("failed to update medication: %w", err)
	}
	return updated, nil
}

func (s *Service) DeleteMedication(ctx context.Context, key model.MedicationKey) error {
	err := s.repo.Delete(ctx, key)
	s.metrics.Store("medication", "delete", err)
	if err != nil {
		return fmt.Errorf("failed to delete medication: %w", err)
	}
	return nil
}
