package main

import (
	"github.com/spf13/cobra"

	"user-management-backend/internal/platform/postgres"
)

var migrateCmd = &cobra.Command{
	Use:       "migrate [up|down|status]",
	Short:     "Apply, roll back or inspect schema migrations",
	Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	ValidArgs: []string{string(postgres.MigrateUp), string(postgres.MigrateDown), string(postgres.MigrateStatus)},
	RunE:      runMigrate,
}

func runMigrate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	pg, err := postgres.NewClient(ctx, cfg)
	if err != nil {
		return err
	}
	defer pg.Close()

	return pg.Migrate(ctx, postgres.Direction(args[0]))
}
