package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Credentials holds provider API keys, loaded from the environment after an
// optional .env file. Environment variables take precedence over .env values.
type Credentials struct {
	AnthropicAPIKey string `envconfig:"ANTHROPIC_API_KEY"`
	OpenAIAPIKey    string `envconfig:"OPENAI_API_KEY"`
	GoogleAPIKey    string `envconfig:"GOOGLE_API_KEY"`
	DeepSeekAPIKey  string `envconfig:"DEEPSEEK_API_KEY"`
}

// Config holds the full application configuration.
type Config struct {
	Credentials Credentials
	Cascade     *CascadeConfig
	ConfigDir   string
}

// Load reads configuration from ~/.cascade/cascade.yaml (if present) and the
// environment. A .env file in the working directory is loaded first so local
// runs behave like the deployed environment.
func Load() (*Config, error) {
	configDir, err := getConfigDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get config directory: %w", err)
	}

	cascadePath := filepath.Join(configDir, "cascade.yaml")
	if _, err := os.Stat(cascadePath); err != nil {
		return loadWith(configDir, nil)
	}
	return LoadWithFile(cascadePath)
}

// LoadWithFile loads configuration using a specific cascade config file.
func LoadWithFile(path string) (*Config, error) {
	configDir, err := getConfigDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get config directory: %w", err)
	}

	cascade, err := LoadCascadeConfig(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load cascade config from %s: %w", path, err)
	}
	return loadWith(configDir, cascade)
}

func loadWith(configDir string, cascade *CascadeConfig) (*Config, error) {
	// Missing .env is fine; the environment may carry the keys directly.
	_ = godotenv.Load()

	var creds Credentials
	if err := envconfig.Process("", &creds); err != nil {
		return nil, fmt.Errorf("failed to read credentials from environment: %w", err)
	}

	if cascade == nil {
		cascade = DefaultCascadeConfig()
	}

	return &Config{
		Credentials: creds,
		Cascade:     cascade,
		ConfigDir:   configDir,
	}, nil
}

// HasAdapter returns true if the API key for the given adapter is configured.
func (c *Config) HasAdapter(name string) bool {
	switch name {
	case "anthropic":
		return c.Credentials.AnthropicAPIKey != ""
	case "openai":
		return c.Credentials.OpenAIAPIKey != ""
	case "google":
		return c.Credentials.GoogleAPIKey != ""
	case "deepseek":
		return c.Credentials.DeepSeekAPIKey != ""
	default:
		return false
	}
}

func getConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	configDir := filepath.Join(home, ".cascade")
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return "", err
	}
	return configDir, nil
}
