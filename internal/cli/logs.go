package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"ragstore/internal/usecase"
)

var (
	logsSince string
	logsUntil string
	logsGrep  string
	logsTail  int
	logsJSON  bool
)

var logsCmd = &cobra.Command{
	Use:   "logs",
	Short: "List recorded questions across all indices",
	Long: `Flatten every recorded question into a time-ordered listing, optionally
narrowed by time range or substring.

Examples:
  ragstore logs --tail 5
  ragstore logs --since 2026-08-01 --grep auth`,
	RunE: runLogs,
}

func init() {
	rootCmd.AddCommand(logsCmd)
	logsCmd.Flags().StringVar(&logsSince, "since", "", "only entries at or after this time (RFC 3339 or 2006-01-02)")
	logsCmd.Flags().StringVar(&logsUntil, "until", "", "only entries at or before this time")
	logsCmd.Flags().StringVar(&logsGrep, "grep", "", "only entries whose question contains this substring")
	logsCmd.Flags().IntVar(&logsTail, "tail", 0, "only the newest N entries")
	logsCmd.Flags().BoolVar(&logsJSON, "json", false, "output as JSON")
}

func parseTimeFlag(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"} {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised time %q", s)
}

func runLogs(cmd *cobra.Command, args []string) error {
	store, err := openStore()
	if err != nil {
		return err
	}
	logger := usecase.NewIndexLoggerOver(store)

	start, err := parseTimeFlag(logsSince)
	if err != nil {
		return err
	}
	end, err := parseTimeFlag(logsUntil)
	if err != nil {
		return err
	}

	entries, err := logger.Logs(usecase.LogQuery{Start: start, End: end, Contains: logsGrep})
	if err != nil {
		return err
	}

	if logsTail > 0 && len(entries) > logsTail {
		entries = entries[len(entries)-logsTail:]
	}

	if logsJSON {
		return json.NewEncoder(os.Stdout).Encode(entries)
	}
	for _, e := range entries {
		fmt.Printf("[%s] %s  %s\n", e.Timestamp.Format("2006-01-02 15:04:05"), e.IndexID, e.Question)
		if e.ReturnedAnswer != "" {
			fmt.Printf("  -> %s\n", e.ReturnedAnswer)
		}
	}
	return nil
}
