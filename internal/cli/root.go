package cli

import (
	"fmt"
	"os"

	"github.com/phuslu/log"
	"github.com/spf13/cobra"

	"ragstore/config"
	"ragstore/internal/adapter/compress"
	"ragstore/internal/adapter/persist"
	"ragstore/internal/port"
	"ragstore/internal/usecase"
)

var (
	cfgFile string
	cfg     *config.Config
	rootDir string
)

var rootCmd = &cobra.Command{
	Use:   "ragstore",
	Short: "Content-addressed store for RAG datasets and their test cases",
	Long: `ragstore keeps ordered chunk sequences under content-derived fingerprints,
deduplicating repeated chunks across indices, together with the questions
recorded against each index.

Example usage:
  ragstore append -q "what is auth" chunks.txt   # Store chunks with a question
  ragstore show <fingerprint>                    # Print a stored index
  ragstore logs --tail 5                         # Show recent questions`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error

		if rootDir == "" {
			rootDir, err = os.Getwd()
			if err != nil {
				return fmt.Errorf("failed to get working directory: %w", err)
			}
		}

		if cfgFile != "" {
			cfg, err = config.Load(cfgFile)
		} else {
			cfg, err = config.LoadFromDir(rootDir)
		}
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		lvl := log.ParseLevel(cfg.Logging.Level)
		log.DefaultLogger.Level = lvl
		return nil
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./ragstore.yaml)")
	rootCmd.PersistentFlags().StringVarP(&rootDir, "dir", "d", "", "root directory (default is current directory)")
}

func GetConfig() *config.Config {
	return cfg
}

func GetRootDir() string {
	return rootDir
}

// openStore builds a RAGStore from the loaded configuration.
func openStore() (*usecase.RAGStore, error) {
	cacheDir := cfg.ResolveCacheDir(rootDir)
	if err := config.EnsureCacheDir(cacheDir); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	var persister port.Persister
	switch cfg.Store.Backend {
	case "", "file":
		persister = persist.NewFileStore()
	case "bolt":
		persister = persist.NewBoltStore()
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}

	opts := []usecase.Option{usecase.WithPersister(persister)}
	if cfg.Store.Compression != "" {
		opts = append(opts, usecase.WithCompressor(compress.ForTag(cfg.Store.Compression)))
	}
	return usecase.New(cfg.Store.Name, cacheDir, opts...), nil
}
