package lectern

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/coder/websocket"
	"github.com/lecternhq/lectern/pkg/config"
	"github.com/spf13/cobra"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Diagnose issues with the Lectern installation",
	RunE:  runDoctor,
}

type checkResult struct {
	name   string
	ok     bool
	detail string
}

func runDoctor(cmd *cobra.Command, args []string) error {
	fmt.Printf("Lectern Doctor v%s\n", version)
	fmt.Printf("Platform: %s/%s\n", runtime.GOOS, runtime.GOARCH)
	fmt.Printf("Go: %s\n\n", runtime.Version())

	checks := []checkResult{
		checkDataDir(),
		checkConfig(),
		checkTranscriptDB(),
		checkBackend(),
	}

	passed, failed := 0, 0
	for _, c := range checks {
		status := "✓"
		if !c.ok {
			status = "✗"
			failed++
		} else {
			passed++
		}
		fmt.Printf("  %s %s: %s\n", status, c.name, c.detail)
	}

	fmt.Printf("\n%d passed, %d failed\n", passed, failed)

	if failed > 0 {
		return fmt.Errorf("%d checks failed", failed)
	}
	return nil
}

func checkDataDir() checkResult {
	dir := config.DataDir()
	info, err := os.Stat(dir)
	if err != nil {
		return checkResult{"Data directory", false, fmt.Sprintf("%s does not exist", dir)}
	}
	if !info.IsDir() {
		return checkResult{"Data directory", false, fmt.Sprintf("%s is not a directory", dir)}
	}
	return checkResult{"Data directory", true, dir}
}

func checkConfig() checkResult {
	path := config.DefaultConfigPath()
	if _, err := os.Stat(path); err != nil {
		return checkResult{"Config file", false, fmt.Sprintf("%s not found (using defaults)", path)}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return checkResult{"Config file", false, fmt.Sprintf("parse error: %s", err)}
	}
	return checkResult{"Config file", true, fmt.Sprintf("%s (backend %s)", path, cfg.Backend.Endpoint)}
}

func checkTranscriptDB() checkResult {
	cfg := config.Current()
	dsn := cfg.Store.DSN
	if dsn == "" {
		dsn = filepath.Join(config.DataDir(), "lectern.db")
	}
	info, err := os.Stat(dsn)
	if err != nil {
		return checkResult{"Transcript database", false, fmt.Sprintf("%s not found (will be created on first chat)", dsn)}
	}
	return checkResult{"Transcript database", true, fmt.Sprintf("%s (%d KB)", dsn, info.Size()/1024)}
}

func checkBackend() checkResult {
	cfg := config.Current()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, cfg.Backend.Endpoint, nil)
	if err != nil {
		return checkResult{"Backend", false, fmt.Sprintf("%s not reachable", cfg.Backend.Endpoint)}
	}
	conn.Close(websocket.StatusNormalClosure, "doctor check")
	return checkResult{"Backend", true, cfg.Backend.Endpoint}
}
