package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/courtlive/courtroom-server/internal/app"
	"github.com/courtlive/courtroom-server/internal/config"
	"github.com/courtlive/courtroom-server/internal/log"
)

func main() {
	var configPath string

	root := &cobra.Command{
		Use:   "courtroom-server",
		Short: "Live turn-based courtroom debate server",
	}

	serve := &cobra.Command{
		Use:   "serve",
		Short: "Start the debate server",
		RunE: func(cmd *cobra.Command, args []string) error {
			bootLogger := log.New("info", "console")
			cfg, path, err := config.Load(bootLogger, configPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			logger := log.New(cfg.LogLevel, cfg.LogFormat)
			logger.Info().Str("config", path).Str("addr", cfg.Addr).Msg("starting courtroom server")

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			application, err := app.New(cfg, logger)
			if err != nil {
				return err
			}

			if err := application.Run(ctx); err != nil {
				return err
			}
			logger.Info().Msg("server stopped")
			return nil
		},
	}
	serve.Flags().StringVarP(&configPath, "config", "c", "", "path to config file")

	root.AddCommand(serve)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
