// Package config provides configuration loading for termit.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

// Profiles recognized by termit.
const (
	// ProfileNoCache selects the non-caching workspace metadata provider.
	ProfileNoCache = "no-cache"
)

// Config represents the complete termit configuration
type Config struct {
	Repository     RepositoryConfig     `yaml:"repository"`
	Persistence    PersistenceConfig    `yaml:"persistence"`
	Namespace      NamespaceConfig      `yaml:"namespace"`
	ChangeTracking ChangeTrackingConfig `yaml:"changetracking"`
	Validation     ValidationConfig     `yaml:"validation"`
	Logging        LoggingConfig        `yaml:"logging"`
	Profiles       []string             `yaml:"profiles,omitempty"`
}

// RepositoryConfig configures storage
type RepositoryConfig struct {
	// Path is the SQLite database file
	Path string `yaml:"path"`
	// CanonicalContainer identifies the container referencing canonical
	// vocabulary contexts
	CanonicalContainer string `yaml:"canonicalContainer"`
}

// PersistenceConfig configures content handling
type PersistenceConfig struct {
	// Language is the content language used for labels and ordering
	Language string `yaml:"language"`
}

// NamespaceConfig configures generated identifiers
type NamespaceConfig struct {
	// Vocabulary prefixes generated vocabulary identifiers
	Vocabulary string        `yaml:"vocabulary"`
	Term       TermNamespace `yaml:"term"`
}

// TermNamespace configures generated term identifiers
type TermNamespace struct {
	// Separator joins a vocabulary identifier and a term slug
	Separator string `yaml:"separator"`
}

// ChangeTrackingConfig configures change record storage
type ChangeTrackingConfig struct {
	Context ChangeTrackingContextConfig `yaml:"context"`
}

// ChangeTrackingContextConfig configures change-tracking context naming
type ChangeTrackingContextConfig struct {
	// Extension is appended to a context identifier to name its
	// change-tracking context
	Extension string `yaml:"extension"`
}

// ValidationConfig configures vocabulary validation
type ValidationConfig struct {
	// RulesDir holds Risor rule scripts (empty = embedded rules)
	RulesDir string `yaml:"rulesDir"`
}

// LoggingConfig configures the slog handler
type LoggingConfig struct {
	// Level is one of debug, info, warn, error
	Level string `yaml:"level"`
	// Format is text or json
	Format string `yaml:"format"`
}

// DefaultConfig returns a Config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Repository: RepositoryConfig{
			Path:               "termit.db",
			CanonicalContainer: "http://onto.fel.cvut.cz/ontologies/termit/canonical-cache",
		},
		Persistence: PersistenceConfig{
			Language: "en",
		},
		Namespace: NamespaceConfig{
			Vocabulary: "http://onto.fel.cvut.cz/ontologies/slovnik/",
			Term:       TermNamespace{Separator: "/pojem"},
		},
		ChangeTracking: ChangeTrackingConfig{
			Context: ChangeTrackingContextConfig{Extension: "/zmeny"},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Validate checks that the configuration is valid
func (c *Config) Validate() error {
	if c.Repository.Path == "" {
		return fmt.Errorf("repository.path is required")
	}
	if c.Repository.CanonicalContainer == "" {
		return fmt.Errorf("repository.canonicalContainer is required")
	}
	if c.Persistence.Language == "" {
		return fmt.Errorf("persistence.language is required")
	}
	if c.Namespace.Vocabulary == "" {
		return fmt.Errorf("namespace.vocabulary is required")
	}
	if c.ChangeTracking.Context.Extension == "" {
		return fmt.Errorf("changetracking.context.extension is required")
	}
	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be one of debug, info, warn, error")
	}
	switch c.Logging.Format {
	case "text", "json":
	default:
		return fmt.Errorf("logging.format must be text or json")
	}
	return nil
}

// HasProfile reports whether profile is active.
func (c *Config) HasProfile(profile string) bool {
	return slices.Contains(c.Profiles, profile)
}

// LoadFromFile loads configuration from a YAML file
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// SaveToFile saves configuration to a YAML file
func (c *Config) SaveToFile(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Merge merges another config into this one (other takes precedence for non-zero values)
func (c *Config) Merge(other *Config) {
	if other == nil {
		return
	}

	// Repository
	if other.Repository.Path != "" {
		c.Repository.Path = other.Repository.Path
	}
	if other.Repository.CanonicalContainer != "" {
		c.Repository.CanonicalContainer = other.Repository.CanonicalContainer
	}

	// Persistence
	if other.Persistence.Language != "" {
		c.Persistence.Language = other.Persistence.Language
	}

	// Namespace
	if other.Namespace.Vocabulary != "" {
		c.Namespace.Vocabulary = other.Namespace.Vocabulary
	}
	if other.Namespace.Term.Separator != "" {
		c.Namespace.Term.Separator = other.Namespace.Term.Separator
	}

	// Change tracking
	if other.ChangeTracking.Context.Extension != "" {
		c.ChangeTracking.Context.Extension = other.ChangeTracking.Context.Extension
	}

	// Validation
	if other.Validation.RulesDir != "" {
		c.Validation.RulesDir = other.Validation.RulesDir
	}

	// Logging
	if other.Logging.Level != "" {
		c.Logging.Level = other.Logging.Level
	}
	if other.Logging.Format != "" {
		c.Logging.Format = other.Logging.Format
	}

	if len(other.Profiles) > 0 {
		c.Profiles = append([]string(nil), other.Profiles...)
	}
}
