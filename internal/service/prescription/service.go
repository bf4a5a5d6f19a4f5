package prescription

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/jwalitptl/clinic-core/internal/model"
	"github.com/jwalitptl/clinic-core/internal/repository"
	"github.com/jwalitptl/clinic-core/internal/validation"
	"github.com/jwalitptl/clinic-core/pkg/metrics"
)

type Service struct {
	repo      repository.PrescriptionRepository
	validator *validation.Validator
	metrics   *metrics.Metrics
}

func NewService(repo repository.PrescriptionRepository, validator *validation.Validator, m *metrics.Metrics) *Service {
	return &Service{
		repo:      repo,
		validator: validator,
		metrics:   m,
	}
}

func (s *Service) AddPrescription(ctx context.Context, p *model.Prescription) (*model.Prescription, error) {
	if err := s.validator.ValidatePrescription(p); err != nil {
		return nil, fmt.Errorf("invalid prescription: %w", err)
	}
	next := p.Clone()
	next.ID = uuid.Nil
	created, err := s.repo.Add(ctx, next)
	s.metrics.Store("prescription", "create", err)
	if err != nil {
		return nil, fmt.Errorf("failed to create prescription: %w", err)
	}
	return created, nil
}

func (s *Service) GetPrescription(ctx context.Context, id uuid.UUID) (*model.Prescription, error) {
	p, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get prescription: %w", err)
	}
	return p, nil
}

func (s *Service) ListPrescriptions(ctx context.Context) ([]*model.Prescription, error) {
	list, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list prescriptions: %w", err)
	}
	return list, nil
}

func (s *Service) ListForPhysician(ctx context.Context, physicianID string) ([]*model.Prescription, error) {
	list, err := s.repo.ListByPhysician(ctx, physicianID)
	if err != nil {
		return nil, fmt.Errorf("failed to list prescriptions: %w", err)
	}
	return list, nil
}

func (s *Service) ListForPatient(ctx context.Context, patientName string) ([]*model.Prescription, error) {
	list, err := s.repo.ListByPatient(ctx, patientName)
	if err != nil {
		return nil, fmt.Errorf("failed to list prescriptions: %w", err)
	}
	return list, nil
}

func (s *Service) UpdatePrescription(ctx context.Context, p *model.Prescription) (*model.Prescription, error) {
	if err := s.validator.ValidatePrescription(p); err != nil {
		return nil, fmt.Errorf("invalid prescription: %w", err)
	}
	updated, err := s.repo.Update(ctx, p)
	s.metrics.Store("prescription", "update", err)
	if err != nil {
		return nil, fmt.Errorf("failed to update prescription: %w", err)
	}
	return updated, nil
}

func (s *Service) DeletePrescription(ctx context.Context, id uuid.UUID) error {
	err := s.repo.Delete(ctx, id)
	s.metrics.Store("prescription", "delete", err)
	if err != nil {
		return fmt.Errorf("failed to delete prescription: %w", err)
	}
	return nil
}
