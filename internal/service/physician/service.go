package physician

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/rs/zerolog"

	"github.com/jwalitptl/clinic-core/internal/cascade"
	"github.com/jwalitptl/clinic-core/internal/model"
	"github.com/jwalitptl/clinic-core/internal/repository"
	"github.com/jwalitptl/clinic-core/internal/validation"
	apperrors "github.com/jwalitptl/clinic-core/pkg/errors"
	"github.com/jwalitptl/clinic-core/pkg/metrics"
	"github.com/jwalitptl/clinic-core/pkg/security"
)

// LockoutPolicy limits failed logins per email within a window.
type LockoutPolicy struct {
	MaxAttempts int
	Window      time.Duration
}

type Service struct {
	repo        repository.PhysicianRepository
	coordinator *cascade.Coordinator
	validator   *validation.Validator
	hasher      security.PasswordHasher
	attempts    *cache.Cache
	maxAttempts int
	logger      zerolog.Logger
	metrics     *metrics.Metrics
}

func NewService(
	repo repository.PhysicianRepository,
	coordinator *cascade.Coordinator,
	validator *validation.Validator,
	hasher security.PasswordHasher,
	lockout LockoutPolicy,
	logger zerolog.Logger,
	m *metrics.Metrics,
) *Service {
	if lockout.MaxAttempts <= 0 {
		lockout.MaxAttempts = 5
	}
	if lockout.Window <= 0 {
		lockout.Window = 15 * time.Minute
	}
	return &Service{
		repo:        repo,
		coordinator: coordinator,
		validator:   validator,
		hasher:      hasher,
		attempts:    cache.New(lockout.Window, 2*lockout.Window),
		maxAttempts: lockout.MaxAttempts,
		logger:      logger.With().Str("component", "physician").Logger(),
		metrics:     m,
	}
}

// AddPhysician stores p unless its id is taken, in which case the existing
// record is returned unchanged.
func (s *Service) AddPhysician(ctx context.Context, p *model.Physician) (*model.Physician, error) {
	if err := s.validator.ValidatePhysician(p); err != nil {
		return nil, fmt.Errorf("invalid physician: %w", err)
	}

	existing, err := s.repo.Get(ctx, p.ID)
	if err == nil {
		return existing, nil
	}
	if !apperrors.IsNotFound(err) {
		return nil, fmt.Errorf("failed to get physician: %w", err)
	}

	toStore := p.Clone()
	if err := s.applyPassword(toStore); err != nil {
		return nil, err
	}

	created, err := s.repo.Add(ctx, toStore)
	s.metrics.Store("physician", "create", err)
	if err != nil {
		return nil, fmt.Errorf("failed to create physician: %w", err)
	}
	return created, nil
}

func (s *Service) GetPhysicianByID(ctx context.Context, id string) (*model.Physician, error) {
	p, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get physician: %w", err)
	}
	return p, nil
}

func (s *Service) ListPhysicians(ctx context.Context) ([]*model.Physician, error) {
	physicians, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list physicians: %w", err)
	}
	return physicians, nil
}

// UpdatePhysician replaces the stored record. The password hash is kept when
// no new password is supplied.
func (s *Service) UpdatePhysician(ctx context.Context, p *model.Physician) (*model.Physician, error) {
	if err := s.validator.ValidatePhysician(p); err != nil {
		return nil, fmt.Errorf("invalid physician: %w", err)
	}

	existing, err := s.repo.Get(ctx, p.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to get physician: %w", err)
	}

	toStore := p.Clone()
	toStore.PasswordHash = existing.PasswordHash
	if err := s.applyPassword(toStore); err != nil {
		return nil, err
	}

	updated, err := s.repo.Update(ctx, toStore)
	s.metrics.Store("physician", "update", err)
	if err != nil {
		return nil, fmt.Errorf("failed to update physician: %w", err)
	}
	return updated, nil
}

// RemovePhysician deletes the physician and everything that depends on it.
func (s *Service) RemovePhysician(ctx context.Context, id string) (*cascade.Report, error) {
	if strings.TrimSpace(id) == "" {
		return nil, apperrors.NewValidation("id", "must not be blank")
	}
	report, err := s.coordinator.DeletePhysician(ctx, id)
	s.metrics.Store("physician", "delete", err)
	if err != nil {
		return report, fmt.Errorf("failed to remove physician: %w", err)
	}
	return report, nil
}

// Login returns the physician whose email and password match, or nil when
// they do not. Too many misses for one email within the lockout window
// return an unauthorized error until the window passes.
func (s *Service) Login(ctx context.Context, email, password string) (*model.Physician, error) {
	key := strings.ToLower(strings.TrimSpace(email))
	if n, ok := s.attempts.Get(key); ok && n.(int) >= s.maxAttempts {
		return nil, apperrors.Unauthorized("too many failed login attempts")
	}

	p, err := s.repo.GetByEmail(ctx, key)
	if err != nil {
		if apperrors.IsNotFound(err) {
			s.recordFailure(key)
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get physician: %w", err)
	}

	if p.PasswordHash == "" || s.hasher.Compare(p.PasswordHash, password) != nil {
		s.recordFailure(key)
		return nil, nil
	}

	s.attempts.Delete(key)
	if s.hasher.NeedsRehash(p.PasswordHash) {
		s.rehash(ctx, p, password)
	}
	return p, nil
}

// rehash upgrades a hash made with an older cost. Failure only logs; the
// login already succeeded.
func (s *Service) rehash(ctx context.Context, p *model.Physician, password string) {
	hash, err := s.hasher.Hash(password)
	if err != nil {
		s.logger.Warn().Err(err).Str("physician_id", p.ID).Msg("failed to rehash password")
		return
	}
	next := p.Clone()
	next.PasswordHash = hash
	if _, err := s.repo.Update(ctx, next); err != nil {
		s.logger.Warn().Err(err).Str("physician_id", p.ID).Msg("failed to store rehashed password")
		return
	}
	p.PasswordHash = hash
}

func (s *Service) recordFailure(key string) {
	if err := s.attempts.Add(key, 1, cache.DefaultExpiration); err != nil {
		if _, err := s.attempts.IncrementInt(key, 1); err != nil {
			s.attempts.Set(key, 1, cache.DefaultExpiration)
		}
	}
	s.logger.Debug().Str("email", key).Msg("failed login")
}

func (s *Service) applyPassword(p *model.Physician) error {
	if p.Password == "" {
		return nil
	}
	hash, err := s.hasher.Hash(p.Password)
	if err != nil {
		return apperrors.NewValidation("password", err.Error())
	}
	p.PasswordHash = hash
	p.Password = ""
	return nil
}
