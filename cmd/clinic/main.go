package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/time/rate"

	"github.com/jwalitptl/clinic-core/internal/cascade"
	"github.com/jwalitptl/clinic-core/internal/config"
	appointmentHandler "github.com/jwalitptl/clinic-core/internal/handler/appointment"
	authHandler "github.com/jwalitptl/clinic-core/internal/handler/auth"
	"github.com/jwalitptl/clinic-core/internal/handler/health"
	medicationHandler "github.com/jwalitptl/clinic-core/internal/handler/medication"
	notificationHandler "github.com/jwalitptl/clinic-core/internal/handler/notification"
	physicianHandler "github.com/jwalitptl/clinic-core/internal/handler/physician"
	prescriptionHandler "github.com/jwalitptl/clinic-core/internal/handler/prescription"
	referralHandler "github.com/jwalitptl/clinic-core/internal/handler/referral"
	"github.com/jwalitptl/clinic-core/internal/middleware"
	"github.com/jwalitptl/clinic-core/internal/persistence"
	"github.com/jwalitptl/clinic-core/internal/repository/sqlstore"
	"github.com/jwalitptl/clinic-core/internal/router"
	"github.com/jwalitptl/clinic-core/internal/scheduling"
	appointmentService "github.com/jwalitptl/clinic-core/internal/service/appointment"
	medicationService "github.com/jwalitptl/clinic-core/internal/service/medication"
	notificationService "github.com/jwalitptl/clinic-core/internal/service/notification"
	physicianService "github.com/jwalitptl/clinic-core/internal/service/physician"
	prescriptionService "github.com/jwalitptl/clinic-core/internal/service/prescription"
	referralService "github.com/jwalitptl/clinic-core/internal/service/referral"
	"github.com/jwalitptl/clinic-core/internal/validation"
	"github.com/jwalitptl/clinic-core/pkg/auth"
	"github.com/jwalitptl/clinic-core/pkg/logger"
	"github.com/jwalitptl/clinic-core/pkg/metrics"
	"github.com/jwalitptl/clinic-core/pkg/security"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	rootCmd := &cobra.Command{
		Use:          "clinic",
		Short:        "Clinic scheduling API server",
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to a yaml config file")

	rootCmd.AddCommand(serveCmd(&configPath))
	rootCmd.AddCommand(migrateCmd(&configPath))
	rootCmd.AddCommand(physicianCmd(&configPath))
	return rootCmd
}

func serveCmd(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the clinic API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, *configPath)
			if err != nil {
				return err
			}
			return runServer(cfg)
		},
	}
	cmd.Flags().String("kind", "", "Backend kind: durable, test or in_memory")
	cmd.Flags().Bool("seed", false, "Load the sample clinic data on start")
	return cmd
}

func migrateCmd(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Create the schema in the durable or test database",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, *configPath)
			if err != nil {
				return err
			}
			return runMigrate(cmd.Context(), cfg)
		},
	}
	cmd.Flags().String("kind", "", "Backend kind: durable or test")
	cmd.Flags().Bool("seed", false, "Also load the sample clinic data")
	return cmd
}

// loadConfig applies --kind and --seed over the file and environment.
func loadConfig(cmd *cobra.Command, path string) (*config.Config, error) {
	cfg, err := config.LoadConfig(path)
	if err != nil {
		return nil, err
	}
	if kind, _ := cmd.Flags().GetString("kind"); kind != "" {
		cfg.Persistence.Kind = kind
	}
	if cmd.Flags().Changed("seed") {
		cfg.Persistence.Seed, _ = cmd.Flags().GetBool("seed")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	log.Logger = logger.New(&logger.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})
	return cfg, nil
}

func persistenceConfig(cfg *config.Config) persistence.Config {
	return persistence.Config{
		Driver:      cfg.Persistence.Driver,
		DurablePath: cfg.Persistence.DurablePath,
		TestPath:    cfg.Persistence.TestPath,
		DurableDSN:  cfg.Persistence.PostgresDSN,
		TestDSN:     cfg.Persistence.TestPostgresDSN,
	}
}

func runServer(cfg *config.Config) error {
	ctx := context.Background()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New("clinic", registry)

	hasher := security.NewBcryptHasher(cfg.Auth.BcryptCost)

	// Initialize storage
	kind, err := persistence.ParseKind(cfg.Persistence.Kind)
	if err != nil {
		return err
	}
	selector := persistence.NewSelector(persistenceConfig(cfg), log.Logger,
		persistence.WithMetrics(m), persistence.WithHasher(hasher))
	selector.OnHealthChange(func(h persistence.Health) {
		if h.Degraded {
			log.Warn().Str("reason", h.Reason).Msg("storage degraded to memory; data will not survive a restart")
		}
	})
	selector.Init(ctx, persistence.Options{Kind: kind, Seed: cfg.Persistence.Seed})
	defer func() {
		if err := selector.Reset(); err != nil {
			log.Error().Err(err).Msg("failed to close storage")
		}
	}()
	stores := selector.Stores()

	// Initialize slot locking
	var locker scheduling.Locker = scheduling.NewKeyedMutex()
	if cfg.Redis.Enabled {
		redisLocker, err := scheduling.NewRedisLocker(scheduling.RedisLockerConfig{
			URL: cfg.Redis.URL,
			TTL: cfg.Redis.LockTTL,
		}, logger.Component(log.Logger, "locker"))
		if err != nil {
			return fmt.Errorf("failed to create redis locker: %w", err)
		}
		defer redisLocker.Close()
		if err := redisLocker.Ping(ctx); err != nil {
			return fmt.Errorf("failed to connect to redis: %w", err)
		}
		locker = redisLocker
	}

	// Initialize services
	validator := validation.New()
	notificationSvc := notificationService.NewService(stores.Notifications, validator, log.Logger, m)
	coordinator := cascade.NewCoordinator(stores, locker, log.Logger, m)
	physicianSvc := physicianService.NewService(stores.Physicians, coordinator, validator, hasher,
		physicianService.LockoutPolicy{MaxAttempts: cfg.Auth.MaxLoginAttempts, Window: cfg.Auth.LockoutDuration},
		log.Logger, m)
	appointmentSvc := appointmentService.NewService(stores.Appointments, locker, validator, notificationSvc, log.Logger, m)
	prescriptionSvc := prescriptionService.NewService(stores.Prescriptions, validator, m)
	referralSvc := referralService.NewService(stores.Referrals, validator, m)
	medicationSvc := medicationService.NewService(stores.Medications, validator, m)

	jwtSvc := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.Issuer, cfg.JWTExpiry())

	// Setup router
	r := router.NewRouter(
		middleware.NewAuthMiddleware(jwtSvc),
		health.NewHandler(selector),
		[]router.Handler{
			authHandler.NewHandler(physicianSvc, jwtSvc),
		},
		[]router.Handler{
			physicianHandler.NewHandler(physicianSvc),
			appointmentHandler.NewHandler(appointmentSvc),
			prescriptionHandler.NewHandler(prescriptionSvc),
			referralHandler.NewHandler(referralSvc),
			medicationHandler.NewHandler(medicationSvc),
			notificationHandler.NewHandler(notificationSvc),
		},
		router.RouterConfig{
			RateLimit: rate.Limit(cfg.RateLimit.RPS),
			RateBurst: cfg.RateLimit.Burst,
			Gatherer:  registry,
			Metrics:   m,
			Logger:    logger.Component(log.Logger, "http"),
		},
	)
	r.Setup()

	timeout := time.Duration(cfg.Server.TimeoutSeconds) * time.Second
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r.Engine(),
		ReadTimeout:  timeout,
		WriteTimeout: timeout,
	}

	go func() {
		log.Info().Int("port", cfg.Server.Port).Str("backend", selector.Health().Backend).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	log.Info().Msg("server exited")
	return nil
}

// runMigrate opens the configured database directly so a failure is
// reported instead of falling back to memory.
func runMigrate(ctx context.Context, cfg *config.Config) error {
	if ctx == nil {
		ctx = context.Background()
	}
	kind, err := persistence.ParseKind(cfg.Persistence.Kind)
	if err != nil {
		return err
	}
	if kind == persistence.KindInMemory {
		return errors.New("nothing to migrate for the in_memory backend")
	}

	loc := persistenceConfig(cfg).Location(kind)
	db, err := sqlstore.NewDB(loc)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := sqlstore.Migrate(ctx, db); err != nil {
		return err
	}
	if cfg.Persistence.Seed {
		hasher := security.NewBcryptHasher(cfg.Auth.BcryptCost)
		if err := persistence.Seed(ctx, sqlstore.NewStores(db), hasher); err != nil {
			return err
		}
	}
	log.Info().Str("kind", string(kind)).Str("driver", loc.Driver).Msg("schema up to date")
	return nil
}
