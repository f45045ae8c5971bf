package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"user-management-backend/internal/common/logger"
	"user-management-backend/migrations"
)

type Direction string

const (
	MigrateUp     Direction = "up"
	MigrateDown   Direction = "down"
	MigrateStatus Direction = "status"
)

// Migrate applies the embedded goose migrations through a database/sql handle
// borrowed from the pool.
func (c *Client) Migrate(ctx context.Context, direction Direction) error {
	db := stdlib.OpenDBFromPool(c.pool)
	defer db.Close()

	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}

	var err error
	switch direction {
	case MigrateUp:
		err = goose.UpContext(ctx, db, migrations.Dir)
	case MigrateDown:
		err = goose.DownContext(ctx, db, migrations.Dir)
	case MigrateStatus:
		err = goose.StatusContext(ctx, db, migrations.Dir)
	default:
		return fmt.Errorf("unknown migration direction: %q", direction)
	}
	if err != nil {
		return fmt.Errorf("migrate %s: %w", direction, err)
	}

	version, err := goose.GetDBVersionContext(ctx, db)
	if err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	logger.Info().Str("direction", string(direction)).Int64("version", version).Msg("Migrations applied")

	return nil
}
