package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"ragstore/internal/domain"
)

var (
	showQuestions bool
	showJSON      bool
)

var showCmd = &cobra.Command{
	Use:   "show <fingerprint>",
	Short: "Print a stored index or its questions",
	Long: `Print the fully resolved chunk sequence stored under a fingerprint, or the
questions recorded against it.

Examples:
  ragstore show 1a2b3c4d5e6f7890
  ragstore show 1a2b3c4d5e6f7890 --questions --json`,
	Args: cobra.ExactArgs(1),
	RunE: runShow,
}

func init() {
	rootCmd.AddCommand(showCmd)
	showCmd.Flags().BoolVar(&showQuestions, "questions", false, "show recorded questions instead of chunks")
	showCmd.Flags().BoolVar(&showJSON, "json", false, "output as JSON")
}

func runShow(cmd *cobra.Command, args []string) error {
	id := args[0]

	store, err := openStore()
	if err != nil {
		return err
	}

	if showQuestions {
		cases, err := store.GetQuestions(id)
		if err != nil {
			return err
		}
		if showJSON {
			return json.NewEncoder(os.Stdout).Encode(cases)
		}
		for i, tc := range cases {
			fmt.Printf("%d. [%s] %s\n", i+1, tc.Timestamp.Format("2006-01-02 15:04:05"), tc.Question)
			if tc.ReturnedAnswer != "" {
				fmt.Printf("   -> %s\n", tc.ReturnedAnswer)
			}
		}
		return nil
	}

	seq, err := store.GetIndex(id)
	if err != nil {
		if errors.Is(err, domain.ErrKeyNotFound) {
			return fmt.Errorf("no index stored under %s", id)
		}
		return err
	}
	if showJSON {
		return json.NewEncoder(os.Stdout).Encode(seq)
	}
	for i, ch := range seq {
		fmt.Printf("--- chunk %d ---\n%s\n", i, ch.Text)
	}
	return nil
}
