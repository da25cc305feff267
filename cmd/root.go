package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kilianp07/nemflow/app"
	"github.com/kilianp07/nemflow/config"
	"github.com/kilianp07/nemflow/core/pipeline"
	"github.com/kilianp07/nemflow/infra/logger"
)

var cfgPath string

var rootCmd = &cobra.Command{
	Use:          "nemflow",
	Short:        "NEM demand feature-engineering pipeline",
	SilenceUsage: true,
	RunE:         run,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "config.yaml", "configuration file")
}

// Execute runs the CLI.
func Execute() error { return rootCmd.Execute() }

func run(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	svc, err := app.New(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := svc.Close(); err != nil {
			logger.New("main").Errorf("service close: %v", err)
		}
	}()
	if err := svc.Run(ctx); err != nil {
		// Prefix the failure kind so callers can diagnose from stderr alone.
		return fmt.Errorf("%s: %w", pipeline.FailureKind(err), err)
	}
	return nil
}
