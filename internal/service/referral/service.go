package referral

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/jwalitptl/clinic-core/internal/model"
	"github.com/jwalitptl/clinic-core/internal/repository"
	"github.com/jwalitptl/clinic-core/internal/validation"
	"github.com/jwalitptl/clinic-core/pkg/metrics"
)

type Service struct {
	repo      repository.ReferralRepository
	validator *validation.Validator
	metrics   *metrics.Metrics
}

func NewService(repo repository.ReferralRepository, validator *validation.Validator, m *metrics.Metrics) *Service {
	return &Service{
		repo:      repo,
		validator: validator,
		metrics:   m,
	}
}

func (s *Service) AddReferral(ctx context.Context, r *model.Referral) (*model.Referral, error) {
	if err := s.validator.ValidateReferral(r); err != nil {
		return nil, fmt.Errorf("invalid referral: %w", err)
	}
	next := r.Clone()
	next.ID = uuid.Nil
	created, err := s.repo.Add(ctx, next)
	s.metrics.Store("referral", "create", err)
	if err != nil {
		return nil, fmt.Errorf("failed to create referral: %w", err)
	}
	return created, nil
}

func (s *Service) GetReferral(ctx context.Context, id uuid.UUID) (*model.Referral, error) {
	r, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get referral: %w", err)
	}
	return r, nil
}

func (s *Service) ListReferrals(ctx context.Context) ([]*model.Referral, error) {
	list, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list referrals: %w", err)
	}
	return list, nil
}

// ListForPhysician returns referrals the physician made followed by those
// addressed to them.
func (s *Service) ListForPhysician(ctx context.Context, physicianID string) ([]*model.Referral, error) {
	if strings.TrimSpace(physicianID) == "" {
		return []*model.Referral{}, nil
	}
	made, err := s.repo.ListByPhysician(ctx, physicianID)
	if err != nil {
		return nil, fmt.Errorf("failed to list referrals: %w", err)
	}
	received, err := s.repo.ListByTarget(ctx, physicianID)
	if err != nil {
		return nil, fmt.Errorf("failed to list referrals: %w", err)
	}
	seen := make(map[uuid.UUID]bool, len(made))
	out := make([]*model.Referral, 0, len(made)+len(received))
	for _, r := range append(made, received...) {
		if !seen[r.ID] {
			seen[r.ID] = true
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *Service) ListForPatient(ctx context.Context, patientName string) ([]*model.Referral, error) {
	list, err := s.repo.ListByPatient(ctx, patientName)
	if err != nil {
		return nil, fmt.Errorf("failed to list referrals: %w", err)
	}
	return list, nil
}

func (s *Service) UpdateReferral(ctx context.Context, r *model.Referral) (*model.Referral, error) {
	if err := s.validator.ValidateReferral(r); err != nil {
		return nil, fmt.Errorf("invalid referral: %w", err)
	}
	updated, err := s.repo.Update(ctx, r)
	s.metrics.Store("referral", "update", err)
	if err != nil {
		return nil, fmt.Errorf("failed to update referral: %w", err)
	}
	return updated, nil
}

func (s *Service) DeleteReferral(ctx context.Context, id uuid.UUID) error {
	err := s.repo.Delete(ctx, id)
	s.metrics.Store("referral", "delete", err)
	if err != nil {
		return fmt.Errorf("failed to delete referral: %w", err)
	}
	return nil
}
