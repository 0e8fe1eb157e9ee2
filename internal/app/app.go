// Package app wires config, logging, storage and the engine for the CLI and
// server entrypoints.
package app

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"demos/internal/bizdate"
	"demos/internal/config"
	"demos/internal/db"
	"demos/internal/engine"
	"demos/internal/logging"
	"demos/internal/migrate"
)

// Runtime holds everything a command needs. Close releases the database
// and flushes the logger.
type Runtime struct {
	Workspace string
	Config    *config.Config
	Logger    *zap.Logger
	DB        *sql.DB
	Engine    engine.Engine
}

// Options override values read from demos.yml.
type Options struct {
	Workspace string
	Driver    string
	DSN       string
	Timezone  string
	LogLevel  string
	LogFormat string
}

// Open loads the workspace config (defaults when demos.yml is absent),
// opens and migrates the database and builds the engine.
func Open(ctx context.Context, opts Options) (*Runtime, error) {
	cfg, err := config.LoadOptional(opts.Workspace)
	if err != nil {
		return nil, err
	}
	applyOverrides(cfg, opts)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger, err := logging.New(cfg.Log)
	if err != nil {
		return nil, err
	}
	clock, err := bizdate.Load(cfg.Business.Timezone)
	if err != nil {
		return nil, err
	}
	conn, dialect, err := db.Open(db.Config{
		Driver:    cfg.Database.Driver,
		DSN:       cfg.Database.DSN,
		Workspace: opts.Workspace,
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := migrate.Migrate(ctx, conn, dialect); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	logger.Debug("runtime ready",
		zap.String("workspace", opts.Workspace),
		zap.String("dialect", string(dialect)),
		zap.String("timezone", clock.Loc.String()))

	return &Runtime{
		Workspace: opts.Workspace,
		Config:    cfg,
		Logger:    logger,
		DB:        conn,
		Engine:    engine.New(conn, dialect, clock, logger),
	}, nil
}

func applyOverrides(cfg *config.Config, opts Options) {
	if opts.Driver != "" {
		cfg.Database.Driver = opts.Driver
	}
	if opts.DSN != "" {
		cfg.Database.DSN = opts.DSN
	}
	if opts.Timezone != "" {
		cfg.Business.Timezone = opts.Timezone
	}
	if opts.LogLevel != "" {
		cfg.Log.Level = opts.LogLevel
	}
	if opts.LogFormat != "" {
		cfg.Log.Format = opts.LogFormat
	}
}

func (r *Runtime) Close() error {
	if r == nil {
		return nil
	}
	_ = r.Logger.Sync()
	return r.DB.Close()
}
