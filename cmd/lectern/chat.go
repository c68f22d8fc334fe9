package lectern

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/charmbracelet/huh"
	"github.com/lecternhq/lectern/pkg/client"
	"github.com/lecternhq/lectern/pkg/config"
	"github.com/lecternhq/lectern/pkg/session"
	"github.com/lecternhq/lectern/pkg/store"
	"github.com/lecternhq/lectern/pkg/telemetry"
	"github.com/lecternhq/lectern/pkg/tui"
	"github.com/spf13/cobra"
)

// Modes the backend understands. The mode travels with every send request
// but is interpreted backend-side only.
var chatModes = []string{"update-slides", "draft-lesson-plan", "query-textbook"}

var chatMode string

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive chat session with the teaching assistant",
	RunE:  runChat,
}

func init() {
	chatCmd.Flags().StringVar(&chatMode, "mode", "", "operating mode (update-slides, draft-lesson-plan, query-textbook)")
}

func runChat(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	mode := chatMode
	if mode == "" {
		mode, err = pickMode()
		if err != nil {
			return err
		}
	} else if !validMode(mode) {
		return fmt.Errorf("unknown mode %q (valid: %v)", mode, chatModes)
	}

	if err := config.EnsureDataDir(); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}

	// The chat view owns the terminal, so logs go to a file.
	logger, closeLog, err := telemetry.SetupFileLogger(cfg.Log.Level, cfg.Log.Format, config.DataDir())
	if err != nil {
		return err
	}
	defer closeLog()

	c := client.New(client.Options{
		Endpoint:             cfg.Backend.Endpoint,
		ReconnectDelay:       cfg.Backend.Delay(),
		MaxReconnectAttempts: cfg.Backend.MaxReconnectAttempts,
		Logger:               logger,
	})
	adapter := session.New(c)
	defer adapter.Close()
	c.Connect()

	record, closeStore := openRecorder(cfg, mode, logger)
	defer closeStore()

	return tui.Run(adapter, mode, record)
}

func pickMode() (string, error) {
	mode := chatModes[0]
	form := huh.NewForm(huh.NewGroup(
		huh.NewSelect[string]().
			Title("What should the assistant help with?").
			Options(
				huh.NewOption("Update slides", "update-slides"),
				huh.NewOption("Draft a lesson plan", "draft-lesson-plan"),
				huh.NewOption("Query the textbook", "query-textbook"),
			).
			Value(&mode),
	))
	if err := form.Run(); err != nil {
		return "", err
	}
	return mode, nil
}

func validMode(mode string) bool {
	for _, m := range chatModes {
		if m == mode {
			return true
		}
	}
	return false
}

// openRecorder opens the transcript store and begins a transcript. A broken
// store degrades to a chat without persistence rather than blocking the
// session.
func openRecorder(cfg *config.Config, mode string, logger *slog.Logger) (tui.RecordFunc, func()) {
	st, err := store.New(cfg.Store.DSN)
	if err != nil {
		logger.Warn("transcript store unavailable", slog.String("err", err.Error()))
		return nil, func() {}
	}

	ctx := context.Background()
	id, err := st.BeginTranscript(ctx, mode)
	if err != nil {
		logger.Warn("could not begin transcript", slog.String("err", err.Error()))
		st.Close()
		return nil, func() {}
	}

	record := func(role, content, filename string) {
		if err := st.AppendMessage(ctx, id, role, content, filename); err != nil {
			logger.Warn("could not record message", slog.String("err", err.Error()))
		}
	}
	return record, func() { st.Close() }
}

func loadConfig() (*config.Config, error) {
	path := cfgFile
	if path == "" {
		path = config.DefaultConfigPath()
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return cfg, nil
}
