package main

import (
	"fmt"
	"log/slog"

	"github.com/Spok95/po-tracker/internal/config"
	"github.com/Spok95/po-tracker/internal/infra/logger"
	"github.com/Spok95/po-tracker/migrations"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/spf13/cobra"
)

func runMigrations(dsn, action string, log *slog.Logger) error {
	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}

	sqlDB, err := goose.OpenDBWithDriver("pgx", dsn)
	if err != nil {
		return err
	}
	defer func() { _ = sqlDB.Close() }()

	switch action {
	case "", "up":
		err = goose.Up(sqlDB, migrateDir)
	case "down":
		err = goose.Down(sqlDB, migrateDir)
	case "status":
		err = goose.Status(sqlDB, migrateDir)
	default:
		return fmt.Errorf("unknown migrate action %q", action)
	}
	if err != nil {
		return err
	}
	log.Info("migrations done", "action", action)
	return nil
}

func runMigrate(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	log := logger.New(cfg.App.Env, cfg.Log.Level)

	action := "up"
	if len(args) == 1 {
		action = args[0]
	}
	return runMigrations(cfg.Postgres.DSN, action, log)
}
