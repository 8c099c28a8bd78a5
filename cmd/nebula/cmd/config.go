package cmd

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/nebula-lang/nebula/internal/module"
)

// Config is the optional .nebula.yaml preferences file, looked up in the
// working directory and then the home directory.
type Config struct {
	// HistoryFile is reserved for REPL history persistence.
	HistoryFile string `yaml:"history_file"`

	// SearchPaths extends the directory list an "@name" include searches.
	SearchPaths []string `yaml:"search_paths"`
}

func loadConfig() Config {
	var cfg Config
	candidates := []string{".nebula.yaml"}
	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, ".nebula.yaml"))
	}
	for _, path := range candidates {
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		if err := yaml.Unmarshal(data, &cfg); err == nil {
			return cfg
		}
	}
	return cfg
}

func applyConfig(cfg Config) {
	for _, dir := range cfg.SearchPaths {
		module.AddSearchDir(dir)
	}
}
