package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/jwalitptl/clinic-core/internal/config"
	"github.com/jwalitptl/clinic-core/internal/model"
	"github.com/jwalitptl/clinic-core/internal/persistence"
	"github.com/jwalitptl/clinic-core/internal/repository/sqlstore"
	physicianService "github.com/jwalitptl/clinic-core/internal/service/physician"
	"github.com/jwalitptl/clinic-core/internal/validation"
	apperrors "github.com/jwalitptl/clinic-core/pkg/errors"
	"github.com/jwalitptl/clinic-core/pkg/security"
)

func physicianCmd(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "physician",
		Short: "Manage physician accounts directly in the database",
	}
	cmd.AddCommand(physicianCreateCmd(configPath))
	return cmd
}

// physicianCreateCmd writes a physician straight to the durable or test
// database. It is how the first account on a fresh database gets a login,
// since every write route requires a token.
func physicianCreateCmd(configPath *string) *cobra.Command {
	var p model.Physician

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a physician that can log in",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, *configPath)
			if err != nil {
				return err
			}
			created, err := createPhysician(cmd.Context(), cfg, &p)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created physician %s <%s>\n", created.ID, created.Email)
			return nil
		},
	}
	cmd.Flags().String("kind", "", "Backend kind: durable or test")
	cmd.Flags().StringVar(&p.ID, "id", "", "Physician id")
	cmd.Flags().StringVar(&p.Name, "name", "", "Display name")
	cmd.Flags().StringVar(&p.Email, "email", "", "Login email")
	cmd.Flags().StringVar(&p.Password, "password", "", "Login password")
	cmd.Flags().StringVar(&p.OfficeID, "office", "", "Office id")
	for _, name := range []string{"id", "name", "email", "password"} {
		_ = cmd.MarkFlagRequired(name)
	}
	return cmd
}

// createPhysician opens the configured database without the memory fallback
// so the account is never written somewhere that vanishes on exit.
func createPhysician(ctx context.Context, cfg *config.Config, p *model.Physician) (*model.Physician, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	kind, err := persistence.ParseKind(cfg.Persistence.Kind)
	if err != nil {
		return nil, err
	}
	if kind == persistence.KindInMemory {
		return nil, errors.New("physicians created against the in_memory backend would be lost on exit")
	}

	loc := persistenceConfig(cfg).Location(kind)
	db, err := sqlstore.NewDB(loc)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	if err := sqlstore.Migrate(ctx, db); err != nil {
		return nil, err
	}
	stores := sqlstore.NewStores(db)

	if _, err := stores.Physicians.Get(ctx, p.ID); !apperrors.IsNotFound(err) {
		if err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("physician %s already exists", p.ID)
	}
	if _, err := stores.Physicians.GetByEmail(ctx, p.Email); !apperrors.IsNotFound(err) {
		if err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("email %s is already registered", p.Email)
	}

	svc := physicianService.NewService(stores.Physicians, nil, validation.New(),
		security.NewBcryptHasher(cfg.Auth.BcryptCost), physicianService.LockoutPolicy{}, log.Logger, nil)
	created, err := svc.AddPhysician(ctx, p)
	if err != nil {
		return nil, err
	}
	log.Info().Str("physician_id", created.ID).Str("kind", string(kind)).Msg("physician created")
	return created, nil
}
