// Package persistence picks the backend that serves every entity store. It
// initializes once per Selector and never fails: when the durable backend
// cannot be opened, migrated or seeded, all kinds fall back to memory and the
// degradation is published through Health.
package persistence

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog"

	"github.com/jwalitptl/clinic-core/internal/repository"
	"github.com/jwalitptl/clinic-core/internal/repository/memory"
	"github.com/jwalitptl/clinic-core/internal/repository/sqlstore"
	"github.com/jwalitptl/clinic-core/pkg/metrics"
	"github.com/jwalitptl/clinic-core/pkg/security"
)

// Kind identifies which backend serves the stores.
type Kind string

const (
	KindDurable  Kind = "durable"
	KindTest     Kind = "test"
	KindInMemory Kind = "in_memory"
)

const backendMemory = "memory"

func ParseKind(s string) (Kind, error) {
	switch k := Kind(s); k {
	case KindDurable, KindTest, KindInMemory:
		return k, nil
	default:
		return "", fmt.Errorf("unknown backend kind %q", s)
	}
}

type Options struct {
	Kind Kind
	Seed bool
}

// Config locates the durable and test databases. Durable and test differ
// only in where the data lives.
type Config struct {
	Driver      string
	DurablePath string
	TestPath    string
	DurableDSN  string
	TestDSN     string
}

// Location returns where kind keeps its data.
func (c Config) Location(kind Kind) sqlstore.Config {
	loc := sqlstore.Config{Driver: c.Driver, Path: c.DurablePath, DSN: c.DurableDSN}
	if kind == KindTest {
		loc.Path, loc.DSN = c.TestPath, c.TestDSN
	}
	return loc
}

// Health describes the backend currently serving the stores.
type Health struct {
	Kind     Kind      `json:"kind"`
	Backend  string    `json:"backend"`
	Degraded bool      `json:"degraded"`
	Reason   string    `json:"reason,omitempty"`
	Since    time.Time `json:"since"`
}

type Selector struct {
	cfg     Config
	log     zerolog.Logger
	metrics *metrics.Metrics
	hasher  security.PasswordHasher
	openDB  func(sqlstore.Config) (*sqlx.DB, error)

	mu          sync.Mutex
	initialized bool
	db          *sqlx.DB
	stores      repository.Stores
	health      Health
	listeners   []func(Health)
}

type SelectorOption func(*Selector)

func WithMetrics(m *metrics.Metrics) SelectorOption {
	return func(s *Selector) { s.metrics = m }
}

// WithHasher sets the hasher used for seeded physician passwords.
func WithHasher(h security.PasswordHasher) SelectorOption {
	return func(s *Selector) { s.hasher = h }
}

func NewSelector(cfg Config, log zerolog.Logger, opts ...SelectorOption) *Selector {
	s := &Selector{
		cfg:    cfg,
		log:    log.With().Str("component", "persistence").Logger(),
		hasher: security.NewBcryptHasher(0),
		openDB: sqlstore.NewDB,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Init selects and prepares the backend. Only the first call on a Selector
// does any work; later calls return immediately until Reset.
func (s *Selector) Init(ctx context.Context, opts Options) {
	s.mu.Lock()
	if s.initialized {
		s.mu.Unlock()
		return
	}
	s.initialized = true

	health := Health{Kind: opts.Kind, Backend: backendMemory, Since: time.Now()}
	if opts.Kind == KindInMemory {
		s.stores = memory.NewStores()
		if opts.Seed {
			if err := Seed(ctx, s.stores, s.hasher); err != nil {
				s.log.Warn().Err(err).Msg("failed to seed in-memory stores")
			}
		}
	} else {
		db, stores, err := s.openDurable(ctx, opts)
		if err != nil {
			s.log.Warn().
				Err(err).
				Str("kind", string(opts.Kind)).
				Msg("durable backend unavailable, falling back to in-memory stores")
			s.stores = memory.NewStores()
			if opts.Seed {
				if err := Seed(ctx, s.stores, s.hasher); err != nil {
					s.log.Warn().Err(err).Msg("failed to seed fallback stores")
				}
			}
			health.Degraded = true
			health.Reason = err.Error()
			if s.metrics != nil {
				s.metrics.BackendFallbacks.Inc()
			}
		} else {
			s.db = db
			s.stores = stores
			health.Backend = db.DriverName()
		}
	}
	if s.metrics != nil {
		s.metrics.BackendDegraded.Set(boolGauge(health.Degraded))
	}

	s.health = health
	listeners := append([]func(Health){}, s.listeners...)
	s.mu.Unlock()

	s.log.Info().
		Str("kind", string(health.Kind)).
		Str("backend", health.Backend).
		Bool("degraded", health.Degraded).
		Msg("persistence initialized")
	notify(listeners, health)
}

func (s *Selector) openDurable(ctx context.Context, opts Options) (*sqlx.DB, repository.Stores, error) {
	db, err := s.openDB(s.cfg.Location(opts.Kind))
	if err != nil {
		return nil, repository.Stores{}, fmt.Errorf("open: %w", err)
	}
	if err := sqlstore.Migrate(ctx, db); err != nil {
		_ = db.Close()
		return nil, repository.Stores{}, fmt.Errorf("schema: %w", err)
	}
	stores := sqlstore.NewStores(db)
	if opts.Seed {
		if err := Seed(ctx, stores, s.hasher); err != nil {
			_ = db.Close()
			return nil, repository.Stores{}, fmt.Errorf("seed: %w", err)
		}
	}
	return db, stores, nil
}

// Stores returns the stores chosen by Init. Before Init every field is nil.
func (s *Selector) Stores() repository.Stores {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stores
}

func (s *Selector) Initialized() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.initialized
}

// Reset closes any durable connection and clears the initialization state so
// the next Init starts from scratch. Listeners stay registered.
func (s *Selector) Reset() error {
	s.mu.Lock()
	var err error
	if s.db != nil {
		if cerr := s.db.Close(); cerr != nil {
			err = fmt.Errorf("failed to close backend: %w", cerr)
		}
		s.db = nil
	}
	wasInitialized := s.initialized
	s.initialized = false
	s.stores = repository.Stores{}
	s.health = Health{}
	if s.metrics != nil {
		s.metrics.BackendDegraded.Set(0)
	}
	s.mu.Unlock()

	if wasInitialized {
		s.log.Info().Msg("persistence reset")
	}
	return err
}

func (s *Selector) Health() Health {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.health
}

// OnHealthChange registers fn to be called after every Init with the new
// health. fn runs on the caller's goroutine and must not call Init.
func (s *Selector) OnHealthChange(fn func(Health)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

func notify(listeners []func(Health), h Health) {
	for _, fn := range listeners {
		fn(h)
	}
}

func boolGauge(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
