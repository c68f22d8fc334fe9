package lectern

import (
	"context"
	"fmt"

	"github.com/lecternhq/lectern/pkg/store"
	"github.com/spf13/cobra"
)

var (
	historyLimit int
	historyShow  string
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List stored chat transcripts",
	RunE:  runHistory,
}

func init() {
	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "how many transcripts to list")
	historyCmd.Flags().StringVar(&historyShow, "show", "", "print the messages of one transcript by id")
}

func runHistory(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	st, err := store.New(cfg.Store.DSN)
	if err != nil {
		return fmt.Errorf("opening transcript store: %w", err)
	}
	defer st.Close()

	ctx := context.Background()

	if historyShow != "" {
		return showTranscript(ctx, cmd, st, historyShow)
	}

	ts, err := st.ListTranscripts(ctx, historyLimit)
	if err != nil {
		return fmt.Errorf("listing transcripts: %w", err)
	}
	if len(ts) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "no transcripts yet")
		return nil
	}

	for _, t := range ts {
		fmt.Fprintf(cmd.OutOrStdout(), "%s  %-18s %3d messages  %s\n",
			t.StartedAt.Format("2006-01-02 15:04"), t.Mode, t.Messages, t.ID)
	}
	return nil
}

func showTranscript(ctx context.Context, cmd *cobra.Command, st *store.Store, id string) error {
	msgs, err := st.Messages(ctx, id)
	if err != nil {
		return fmt.Errorf("reading transcript: %w", err)
	}
	for _, m := range msgs {
		marker := "assistant"
		if m.Role == "user" {
			marker = "you"
		}
		if m.Filename != "" {
			fmt.Fprintf(cmd.OutOrStdout(), "[%s] %s (attached %s)\n", marker, m.Content, m.Filename)
			continue
		}
		fmt.Fprintf(cmd.OutOrStdout(), "[%s] %s\n", marker, m.Content)
	}
	return nil
}
