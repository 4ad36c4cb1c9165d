package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Sarrabentardeit/Auditalex/internal/adapter/persistence/repository"
	"github.com/Sarrabentardeit/Auditalex/internal/domain/catalog"
	"github.com/Sarrabentardeit/Auditalex/internal/domain/entities"
	"github.com/Sarrabentardeit/Auditalex/internal/domain/scoring"
	"github.com/Sarrabentardeit/Auditalex/internal/infrastructure/database"
	"github.com/Sarrabentardeit/Auditalex/internal/infrastructure/security"
	"github.com/Sarrabentardeit/Auditalex/internal/usecase"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	adminEmail    string
	adminPassword string
	adminName     string
	dryRun        bool
)

var initAdminCmd = &cobra.Command{
	Use:   "init-admin",
	Short: "Create the admin account when it does not exist",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, cancel := context.WithTimeout(cmd.Context(), time.Minute)
		defer cancel()

		ddb, err := connect(ctx)
		if err != nil {
			return err
		}
		users := usecase.NewUserUseCase(
			repository.NewUserDynamoRepository(ddb, cfg.AWS.UsersTable),
			security.NewBcryptHasher(cfg.Auth.BcryptCost),
			logger,
		)
		u, created, err := users.EnsureAdmin(ctx, usecase.CreateUserInput{
			Email:    adminEmail,
			Password: adminPassword,
			Name:     adminName,
			Role:     entities.RoleAdmin,
		})
		if err != nil {
			return err
		}
		if created {
			fmt.Fprintf(cmd.OutOrStdout(), "admin %s created (id %s)\n", u.Email, u.ID)
		} else {
			fmt.Fprintf(cmd.OutOrStdout(), "admin %s already exists\n", u.Email)
		}
		return nil
	},
}

var cleanupCmd = &cobra.Command{
	Use:   "cleanup-duplicates",
	Short: "Delete duplicate audits, keeping the latest per auditor and date",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Minute)
		defer cancel()

		ddb, err := connect(ctx)
		if err != nil {
			return err
		}
		audits := usecase.NewAuditUseCase(
			repository.NewAuditDynamoRepository(ddb, cfg.AWS.AuditsTable),
			repository.NewUserDynamoRepository(ddb, cfg.AWS.UsersTable),
			catalog.NewSource(),
			scoring.New(cfg.Scoring.FinePerKO),
			logger,
		)
		rep, err := audits.CleanupDuplicates(ctx, dryRun)
		if err != nil {
			return err
		}
		logger.Info("cleanup finished",
			zap.Int("groups", rep.Groups), zap.Int("deleted", len(rep.Deleted)), zap.Bool("dry_run", rep.DryRun))

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(rep)
	},
}

func connect(ctx context.Context) (*dynamodb.Client, error) {
	ddb, err := database.ConnectDynamoDB(ctx, cfg.AWS)
	if err != nil {
		return nil, err
	}
	if cfg.AWS.CreateTables {
		if err := database.EnsureTables(ctx, ddb, cfg.AWS); err != nil {
			return nil, err
		}
	}
	return ddb, nil
}

func init() {
	initAdminCmd.Flags().StringVar(&adminEmail, "email", "", "admin email")
	initAdminCmd.Flags().StringVar(&adminPassword, "password", "", "admin password")
	initAdminCmd.Flags().StringVar(&adminName, "name", "Administrateur", "admin display name")
	_ = initAdminCmd.MarkFlagRequired("email")
	_ = initAdminCmd.MarkFlagRequired("password")

	cleanupCmd.Flags().BoolVar(&dryRun, "dry-run", false, "list duplicates without deleting them")

	rootCmd.AddCommand(initAdminCmd, cleanupCmd)
}
