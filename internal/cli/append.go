package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"ragstore/internal/adapter/fs"
	"ragstore/internal/domain"
)

var (
	appendQuestion string
	appendAnswer   string
	appendChunks   []string
)

var appendCmd = &cobra.Command{
	Use:   "append [file]",
	Short: "Store a chunk sequence with a question",
	Long: `Store a chunk sequence under its content fingerprint and record a question
against it. Chunks come either from --chunk flags or from a file with one
chunk per non-empty line.

Examples:
  ragstore append -q "how does login work" --chunk "A" --chunk "B"
  ragstore append -q "what changed" chunks.txt`,
	Args: cobra.MaximumNArgs(1),
	RunE: runAppend,
}

func init() {
	rootCmd.AddCommand(appendCmd)
	appendCmd.Flags().StringVarP(&appendQuestion, "question", "q", "", "question to record (required)")
	appendCmd.Flags().StringVarP(&appendAnswer, "answer", "a", "", "answer returned for the question")
	appendCmd.Flags().StringArrayVar(&appendChunks, "chunk", nil, "chunk text (repeatable)")
	appendCmd.MarkFlagRequired("question")
}

func runAppend(cmd *cobra.Command, args []string) error {
	seq := make(domain.Sequence, 0, len(appendChunks))
	for _, text := range appendChunks {
		seq = append(seq, domain.Raw(text))
	}

	if len(args) > 0 {
		content, err := fs.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("failed to read chunk file: %w", err)
		}
		for _, line := range strings.Split(content, "\n") {
			if strings.TrimSpace(line) == "" {
				continue
			}
			seq = append(seq, domain.Raw(line))
		}
	}

	store, err := openStore()
	if err != nil {
		return err
	}

	tc := domain.TestCase{Question: appendQuestion, ReturnedAnswer: appendAnswer}
	fp, err := store.Append(seq, tc)
	if err != nil {
		return fmt.Errorf("append failed: %w", err)
	}

	fmt.Println(fp)
	return nil
}
