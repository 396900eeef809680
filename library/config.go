package library

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config holds the settings the CLI needs before opening a database.
type Config struct {
	// DBPath is where the SQLite file lives.
	DBPath string `yaml:"db_path"`
	// LoanPeriodDays is the default loan length when no explicit due date
	// is given on checkout.
	LoanPeriodDays int `yaml:"loan_period_days"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		DBPath:         "library.db",
		LoanPeriodDays: 14,
	}
}

// LoadConfig loads configuration from configPath when given, otherwise from
// the first of the standard locations that exists:
//   - .library.yaml (current directory)
//   - ~/.library/config.yaml
//
// Missing files in the standard locations are not an error; defaults apply.
// The LIBRARY_DB environment variable overrides the database path last.
func LoadConfig(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	if configPath != "" {
		if err := loadConfigFile(configPath, cfg); err != nil {
			return nil, err
		}
	} else {
		defaultPaths := []string{
			".library.yaml",
			filepath.Join(os.Getenv("HOME"), ".library", "config.yaml"),
		}
		for _, path := range defaultPaths {
			if _, err := os.Stat(path); err == nil {
				if err := loadConfigFile(path, cfg); err != nil {
					return nil, err
				}
				break
			}
		}
	}

	if dbPath := os.Getenv("LIBRARY_DB"); dbPath != "" {
		cfg.DBPath = dbPath
	}

	if cfg.LoanPeriodDays <= 0 {
		return nil, fmt.Errorf("loan_period_days must be positive, got %d", cfg.LoanPeriodDays)
	}
	return cfg, nil
}

func loadConfigFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}
