package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var answerCmd = &cobra.Command{
	Use:   "answer <fingerprint> <text>",
	Short: "Record the returned answer on an index's newest question",
	Long: `Attach the answer that was returned for the most recently recorded question
of an index. Does nothing if the index has no questions yet.

Example:
  ragstore answer 1a2b3c4d5e6f7890 "Sessions are validated in middleware."`,
	Args: cobra.ExactArgs(2),
	RunE: runAnswer,
}

func init() {
	rootCmd.AddCommand(answerCmd)
}

func runAnswer(cmd *cobra.Command, args []string) error {
	store, err := openStore()
	if err != nil {
		return err
	}
	if err := store.RecordAnswer(args[0], args[1]); err != nil {
		return fmt.Errorf("failed to record answer: %w", err)
	}
	return nil
}
