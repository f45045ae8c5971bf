// Command usermgmt runs operational tasks against the user database.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"user-management-backend/internal/common/config"
	"user-management-backend/internal/common/logger"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:           "usermgmt",
	Short:         "User management maintenance commands",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load()
		if err != nil {
			return err
		}
		logger.Init("usermgmt", cfg.Debug)
		return nil
	},
}

func main() {
	rootCmd.AddCommand(migrateCmd, createAdminCmd)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		logger.Error().Err(err).Msg("Command failed")
		os.Exit(1)
	}
}
