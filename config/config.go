package config

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the ragstore tool.
type Config struct {
	Store   StoreConfig   `yaml:"store"`
	Import  ImportConfig  `yaml:"import"`
	Logging LoggingConfig `yaml:"logging"`
}

// StoreConfig holds store location and engine configuration.
type StoreConfig struct {
	Name        string `yaml:"name"`        // base name of the store files
	CacheDir    string `yaml:"cache_dir"`   // directory holding the store files
	Backend     string `yaml:"backend"`     // "file" or "bolt"
	Compression string `yaml:"compression"` // "none", "ref_by_source", "ref_by_index"
}

// ImportConfig holds bulk import configuration.
type ImportConfig struct {
	Includes   []string `yaml:"includes"`
	Excludes   []string `yaml:"excludes"`
	ChunkLines int      `yaml:"chunk_lines"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Store: StoreConfig{
			Name:        "ragstore",
			CacheDir:    ".ragstore",
			Backend:     "file",
			Compression: "ref_by_index",
		},
		Import: ImportConfig{
			Includes:   []string{"**/*.md", "**/*.txt"},
			Excludes:   []string{"**/node_modules/**", "**/vendor/**", "**/.git/**"},
			ChunkLines: 40,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load loads configuration from a YAML file.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil // Return defaults if no config file
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadFromDir loads configuration from a directory (looks for ragstore.yaml).
func LoadFromDir(dir string) (*Config, error) {
	path := filepath.Join(dir, "ragstore.yaml")
	if _, err := os.Stat(path); err == nil {
		return Load(path)
	}

	path = filepath.Join(dir, ".ragstore", "config.yaml")
	if _, err := os.Stat(path); err == nil {
		return Load(path)
	}

	return DefaultConfig(), nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// ResolveCacheDir resolves the store directory relative to root.
func (c *Config) ResolveCacheDir(root string) string {
	if filepath.IsAbs(c.Store.CacheDir) {
		return c.Store.CacheDir
	}
	return filepath.Join(root, c.Store.CacheDir)
}

// EnsureCacheDir ensures the store directory exists.
func EnsureCacheDir(dir string) error {
	return os.MkdirAll(dir, 0755)
}
