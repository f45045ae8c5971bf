package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"user-management-backend/internal/common/logger"
	"user-management-backend/internal/features/user/models"
	userpostgres "user-management-backend/internal/features/user/repository/postgres"
	userservice "user-management-backend/internal/features/user/service"
	"user-management-backend/internal/platform/postgres"
)

var createAdminCmd = &cobra.Command{
	Use:   "create-admin",
	Short: "Create a verified ADMIN account",
	RunE:  runCreateAdmin,
}

func init() {
	createAdminCmd.Flags().String("email", "", "admin email address")
	createAdminCmd.Flags().String("password", "", "admin password")
	createAdminCmd.Flags().String("nickname", "", "nickname, generated when empty")
	_ = createAdminCmd.MarkFlagRequired("email")
	_ = createAdminCmd.MarkFlagRequired("password")
}

func runCreateAdmin(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	email, _ := cmd.Flags().GetString("email")
	password, _ := cmd.Flags().GetString("password")
	nickname, _ := cmd.Flags().GetString("nickname")

	pg, err := postgres.NewClient(ctx, cfg)
	if err != nil {
		return err
	}
	defer pg.Close()

	users := userservice.NewUserService(
		userpostgres.NewPostgresRepository(pg.Pool()),
		nil,
		nil,
		userservice.Options{MaxLoginAttempts: cfg.Auth.MaxLoginAttempts, BcryptCost: cfg.Auth.BcryptCost},
	)

	role := models.RoleAdmin
	in := models.UserCreate{Email: email, Password: password, Role: &role}
	if nickname != "" {
		in.Nickname = &nickname
	}

	user, err := users.Create(ctx, in)
	if err != nil {
		return err
	}

	// Staff-created accounts start unverified; an operator-created admin does not.
	stored, err := users.GetByEmail(ctx, user.Email)
	if err != nil {
		return err
	}
	if stored.VerificationToken == nil {
		return errors.New("created admin has no verification token")
	}
	if err := users.VerifyEmail(ctx, stored.ID, *stored.VerificationToken); err != nil {
		return err
	}

	logger.Info().Str("user_id", user.ID.String()).Str("nickname", user.Nickname).Msg("Admin account created")
	fmt.Fprintln(cmd.OutOrStdout(), user.ID.String())
	return nil
}
