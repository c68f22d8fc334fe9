package lectern

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/lecternhq/lectern/pkg/config"
	"github.com/lecternhq/lectern/pkg/devserver"
	"github.com/lecternhq/lectern/pkg/telemetry"
	"github.com/spf13/cobra"
)

var devserverCmd = &cobra.Command{
	Use:   "devserver",
	Short: "Run a local stub of the teaching-assistant backend",
	RunE:  runDevserver,
}

func runDevserver(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	if err := config.EnsureDataDir(); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}

	logger := telemetry.SetupLogger(cfg.Log.Level, cfg.Log.Format, nil)
	logger.Info("starting lectern devserver",
		slog.String("version", version),
		slog.String("bind", cfg.DevServer.Bind),
		slog.Int("port", cfg.DevServer.Port),
	)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	shutdownTracer, err := telemetry.InitTracer(ctx, telemetry.TracerConfig{
		Enabled:     cfg.Tracing.Enabled,
		Endpoint:    cfg.Tracing.Endpoint,
		ServiceName: "lectern-devserver",
		Version:     version,
	})
	if err != nil {
		return fmt.Errorf("initializing tracer: %w", err)
	}
	defer shutdownTracer(context.Background())

	srv := devserver.New(devserver.Config{
		Bind:   cfg.DevServer.Bind,
		Port:   cfg.DevServer.Port,
		Logger: logger,
	})

	return srv.Start(telemetry.WithLogger(ctx, logger))
}
