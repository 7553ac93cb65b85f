// Package config loads the application configuration from the environment.
package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

// Config holds the application configuration.
type Config struct {
	GitHubToken string
}

// Load loads configuration from environment variables. A .env file in the
// working directory is read first when present, for local runs; scheduled
// environments inject the variables directly and carry no such file.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		_ = err // not an error - the .env file is optional
	}

	cfg := &Config{
		GitHubToken: os.Getenv("GITHUB_TOKEN"),
	}

	if cfg.GitHubToken == "" {
		return nil, fmt.Errorf("GITHUB_TOKEN environment variable is required")
	}

	return cfg, nil
}
