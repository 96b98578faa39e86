// Package config provides configuration management for versevec.
package config

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for versevec. The defaults reproduce
// the canonical pipeline run exactly; the file exists so a different
// corpus, model or Ollama host can be pointed at without rebuilding.
type Config struct {
	Corpus     CorpusConfig     `yaml:"corpus"`
	Output     OutputConfig     `yaml:"output"`
	Embeddings EmbeddingsConfig `yaml:"embeddings"`
}

// CorpusConfig configures where the verse corpus is read from.
type CorpusConfig struct {
	Path string `yaml:"path"`
}

// OutputConfig configures where artifacts are written.
type OutputConfig struct {
	Dir string `yaml:"dir"`
}

// EmbeddingsConfig configures the embedding model.
type EmbeddingsConfig struct {
	OllamaURL  string `yaml:"ollama_url"`
	Model      string `yaml:"model"`
	Dimensions int    `yaml:"dimensions"`
	BatchSize  int    `yaml:"batch_size"`
	Cache      bool   `yaml:"cache"`
}

// Default returns a Config matching the canonical corpus and model.
func Default() *Config {
	return &Config{
		Corpus: CorpusConfig{
			Path: filepath.Join("lds-scriptures-2020.12.08", "json", "lds-scriptures-json.txt"),
		},
		Output: OutputConfig{
			Dir: "data",
		},
		Embeddings: EmbeddingsConfig{
			OllamaURL:  "http://localhost:11434",
			Model:      "bge-small-en-v1.5",
			Dimensions: 384,
			BatchSize:  256,
			Cache:      true,
		},
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Corpus.Path == "" {
		return errors.New("corpus.path must not be empty")
	}
	if c.Output.Dir == "" {
		return errors.New("output.dir must not be empty")
	}
	if c.Embeddings.OllamaURL == "" {
		return errors.New("embeddings.ollama_url must not be empty")
	}
	if c.Embeddings.Model == "" {
		return errors.New("embeddings.model must not be empty")
	}
	if c.Embeddings.Dimensions < 1 {
		return errors.New("embeddings.dimensions must be at least 1")
	}
	if c.Embeddings.BatchSize < 1 {
		return errors.New("embeddings.batch_size must be at least 1")
	}
	return nil
}

// Load loads configuration from the YAML file, falling back to defaults
// for any missing values. A .env file in the working directory and the
// VERSEVEC_OLLAMA_URL variable override the Ollama endpoint.
func Load() (*Config, error) {
	cfg := Default()

	configPath, err := ConfigPath()
	if err == nil {
		data, err := os.ReadFile(configPath)
		if err != nil && !os.IsNotExist(err) {
			return nil, err
		}
		if err == nil {
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, err
			}
		}
	}

	// .env is optional; ignore its absence.
	godotenv.Load()
	if url := os.Getenv("VERSEVEC_OLLAMA_URL"); url != "" {
		cfg.Embeddings.OllamaURL = url
	}

	return cfg, nil
}

// Save writes the configuration to the YAML file.
func (c *Config) Save() error {
	if err := EnsureConfigDir(); err != nil {
		return err
	}

	configPath, err := ConfigPath()
	if err != nil {
		return err
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	return os.WriteFile(configPath, data, 0644)
}

// ConfigDir returns the directory where config files are stored.
func ConfigDir() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "versevec"), nil
}

// ConfigPath returns the path to the main config file.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// EnsureConfigDir creates the config directory if it doesn't exist.
func EnsureConfigDir() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, 0755)
}

// CachePath returns the path to the embedding cache database, creating
// its directory if needed.
func CachePath() (string, error) {
	cacheDir, err := os.UserCacheDir()
	if err != nil {
		return "", err
	}
	dir := filepath.Join(cacheDir, "versevec")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}
	return filepath.Join(dir, "embeddings.db"), nil
}
