package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/loadbridge/loadbridge/pkg/adapters/target"
	_ "github.com/loadbridge/loadbridge/pkg/adapters/target/mssql"
	_ "github.com/loadbridge/loadbridge/pkg/adapters/target/oracle"
	_ "github.com/loadbridge/loadbridge/pkg/adapters/target/postgres"
	"github.com/loadbridge/loadbridge/pkg/config"
	"github.com/loadbridge/loadbridge/pkg/logging"
	"github.com/loadbridge/loadbridge/pkg/singer"
	"github.com/loadbridge/loadbridge/pkg/sink"
)

// version is injected at build time via -ldflags.
var version = "dev"

func main() {
	configPath := flag.String("config", "", "path to config.yaml (default: ./config.yaml, optional)")
	initConfig := flag.Bool("init", false, "write an example config.yaml and exit")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println("loadbridge", version)
		return
	}
	if *initConfig {
		if err := config.WriteExample("config.yaml"); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		fmt.Println("wrote config.yaml")
		return
	}

	if err := run(*configPath); err != nil {
		fmt.Fprintln(os.Stderr, logging.SanitizeError(err))
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath, version)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("Starting loadbridge",
		zap.String("version", cfg.Version),
		zap.String("dialect", cfg.Dialect),
		zap.Int("batch_size", cfg.BatchSize))

	connCfg := cfg.Connection.ToMap()
	if cfg.TargetSchema != "" {
		connCfg["target_schema"] = cfg.TargetSchema
	}
	conn, err := target.Open(ctx, cfg.Dialect, connCfg, logger)
	if err != nil {
		return fmt.Errorf("connect to %s target: %w", cfg.Dialect, err)
	}
	defer conn.Close()

	loader := sink.NewLoader(conn, sink.Options{
		TargetSchema: cfg.TargetSchema,
		PreferFloat:  cfg.PreferFloatOverNumeric,
		Policy: sink.Policy{
			AllowColumnAdd:   cfg.AllowColumnAdd,
			AllowColumnAlter: cfg.AllowColumnAlter,
			FreezeSchema:     cfg.FreezeSchema,
		},
	}, logger)

	reader := singer.NewReader(os.Stdin, os.Stdout, cfg.BatchSize, loader.Load, logger)
	if err := reader.Run(ctx); err != nil {
		return err
	}

	logger.Info("Input drained, all batches loaded")
	return nil
}
