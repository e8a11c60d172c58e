package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"timeclock/internal/config"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "timeclock",
	Short: "Barcode shift and time tracking terminal",
	Long: `timeclock records worked time from barcode scans into a shared ledger.
Scans that cannot reach the ledger are queued locally and synchronized later.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to config file (default $TIMECLOCK_CONFIG or configs/config.yaml)")

	cacheCmd.AddCommand(cacheRefreshCmd)
	rootCmd.AddCommand(runCmd, scanCmd, syncCmd, cacheCmd, todayCmd, serveCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newLogger(level string) zerolog.Logger {
	output := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	logger := zerolog.New(output).With().Timestamp().Logger()
	if lvl, err := zerolog.ParseLevel(level); err == nil && level != "" {
		logger = logger.Level(lvl)
	}
	return logger
}

// withApp loads the environment and config, wires the terminal and runs fn
// until it returns or the process is interrupted.
func withApp(fn func(ctx context.Context, a *app) error) error {
	// A missing .env file is fine.
	_ = godotenv.Load()

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger := newLogger(cfg.Logging.Level)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg, &logger)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(ctx, a)
}
