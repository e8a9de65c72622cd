package cli

import (
	"fmt"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"ragstore/internal/adapter/chunker"
	"ragstore/internal/adapter/fs"
	"ragstore/internal/domain"
)

var importQuestion string

var importCmd = &cobra.Command{
	Use:   "import [path]",
	Short: "Bulk-import text files as chunk sequences",
	Long: `Walk a directory, chunk every file matching the configured include globs,
and store each file as one index. Chunks are named after their file and line
range; with the ref_by_source strategy, chunk text repeated across files is
stored as references.

Examples:
  ragstore import ./docs
  ragstore import . -q "imported corpus"`,
	Args: cobra.MaximumNArgs(1),
	RunE: runImport,
}

func init() {
	rootCmd.AddCommand(importCmd)
	importCmd.Flags().StringVarP(&importQuestion, "question", "q", "imported", "question recorded for each imported index")
}

func runImport(cmd *cobra.Command, args []string) error {
	root := GetRootDir()
	if len(args) > 0 {
		root = args[0]
	}

	walker := fs.NewWalker(cfg.Import.Includes, cfg.Import.Excludes, cfg.ResolveCacheDir(GetRootDir()))
	files, err := walker.Walk(root)
	if err != nil {
		return fmt.Errorf("failed to walk %s: %w", root, err)
	}
	if len(files) == 0 {
		fmt.Println("No files matched.")
		return nil
	}

	store, err := openStore()
	if err != nil {
		return err
	}
	chk := chunker.NewLineChunker(cfg.Import.ChunkLines)

	bar := progressbar.Default(int64(len(files)), "importing")
	imported := 0
	for _, file := range files {
		content, err := fs.ReadFile(file.Path)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", file.Path, err)
		}
		seq := chk.Chunk(file.RelPath, content)
		if len(seq) == 0 {
			bar.Add(1)
			continue
		}
		tc := domain.TestCase{Question: importQuestion + ": " + file.RelPath}
		if _, err := store.Append(seq, tc); err != nil {
			return fmt.Errorf("failed to import %s: %w", file.RelPath, err)
		}
		imported++
		bar.Add(1)
	}

	size, err := store.Size()
	if err != nil {
		return err
	}
	fmt.Printf("\nImported %d files, store now holds %d indices.\n", imported, size)
	return nil
}
