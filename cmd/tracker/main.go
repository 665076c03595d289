package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/Spok95/po-tracker/internal/config"
	"github.com/Spok95/po-tracker/internal/infra/db"
	"github.com/Spok95/po-tracker/internal/infra/logger"
	"github.com/jackc/pgx/v5/pgxpool"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// app: общее для всех команд: конфиг, логгер, пул.
type app struct {
	cfg  config.Config
	log  *slog.Logger
	pool *pgxpool.Pool
}

func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	log := logger.New(cfg.App.Env, cfg.Log.Level)

	pool, err := db.Connect(ctx, cfg.Postgres.DSN)
	if err != nil {
		return nil, fmt.Errorf("db connect: %w", err)
	}
	log.Debug("db connected")
	return &app{cfg: cfg, log: log, pool: pool}, nil
}

func (a *app) Close() { a.pool.Close() }
