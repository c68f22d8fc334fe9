package lectern

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/lecternhq/lectern/pkg/client"
	"github.com/lecternhq/lectern/pkg/protocol"
	"github.com/lecternhq/lectern/pkg/session"
	"github.com/lecternhq/lectern/pkg/telemetry"
	"github.com/spf13/cobra"
)

var (
	sendFile    string
	sendModeArg string
	sendTimeout time.Duration
)

var sendCmd = &cobra.Command{
	Use:   "send [message]",
	Short: "Send one message to the teaching assistant and print the reply",
	Args:  cobra.ExactArgs(1),
	RunE:  runSend,
}

func init() {
	sendCmd.Flags().StringVar(&sendFile, "file", "", "attach a file to the message")
	sendCmd.Flags().StringVar(&sendModeArg, "mode", "query-textbook", "operating mode")
	sendCmd.Flags().DurationVar(&sendTimeout, "timeout", 30*time.Second, "how long to wait for a reply")
}

func runSend(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if !validMode(sendModeArg) {
		return fmt.Errorf("unknown mode %q (valid: %v)", sendModeArg, chatModes)
	}

	logger := telemetry.SetupLogger("error", "text", cmd.ErrOrStderr())

	var att *protocol.Attachment
	if sendFile != "" {
		att, err = protocol.LoadAttachment(sendFile)
		if err != nil {
			return err
		}
	}

	c := client.New(client.Options{
		Endpoint:             cfg.Backend.Endpoint,
		ReconnectDelay:       cfg.Backend.Delay(),
		MaxReconnectAttempts: cfg.Backend.MaxReconnectAttempts,
		Logger:               logger,
	})
	adapter := session.New(c)
	defer adapter.Close()

	replies := make(chan protocol.Inbound, 4)
	remove := adapter.OnMessage(func(payload any) {
		replies <- protocol.Classify(payload)
	})
	defer remove()

	c.Connect()

	ctx, cancel := context.WithTimeout(cmd.Context(), sendTimeout)
	defer cancel()

	if err := adapter.Send(ctx, sendModeArg, args[0], att); err != nil {
		return fmt.Errorf("sending message: %w", err)
	}

	return printReply(ctx, cmd.OutOrStdout(), replies)
}

// printReply waits for the first substantive reply, skipping the greeting.
func printReply(ctx context.Context, w io.Writer, replies <-chan protocol.Inbound) error {
	for {
		select {
		case in := <-replies:
			if in.Kind == protocol.KindWelcome {
				continue
			}
			fmt.Fprintln(w, strings.TrimSpace(in.Display()))
			if in.IsError() {
				return fmt.Errorf("assistant reported an error")
			}
			return nil
		case <-ctx.Done():
			return fmt.Errorf("timed out waiting for a reply")
		}
	}
}
