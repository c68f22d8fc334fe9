package lectern

import (
	"context"
	"fmt"
	"time"

	"github.com/coder/websocket"
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Check whether the teaching-assistant backend is reachable",
	RunE:  runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), 3*time.Second)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, cfg.Backend.Endpoint, nil)
	if err != nil {
		fmt.Printf("status: backend at %s is not reachable\n", cfg.Backend.Endpoint)
		return nil
	}
	conn.Close(websocket.StatusNormalClosure, "status check")

	fmt.Printf("status: backend at %s is reachable\n", cfg.Backend.Endpoint)
	return nil
}
