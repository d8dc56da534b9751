package config

import (
	"log/slog"
	"os"
	"strings"
)

// ProfilesEnv overrides the configured profiles with a comma-separated list.
const ProfilesEnv = "TERMIT_PROFILES"

// Loader handles configuration loading with layered precedence
type Loader struct {
	logger *slog.Logger
}

// NewLoader creates a new configuration loader
func NewLoader(logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{logger: logger}
}

// Load loads configuration with layered precedence:
// 1. Default config
// 2. The file at path, when path is not empty
// 3. The TERMIT_PROFILES environment variable
func (l *Loader) Load(path string) (*Config, error) {
	config := DefaultConfig()

	if path != "" {
		fileConfig, err := LoadFromFile(path)
		if err != nil {
			return nil, err
		}
		l.logger.Debug("Loaded config file", slog.String("path", path))
		config.Merge(fileConfig)
	}

	if env, ok := os.LookupEnv(ProfilesEnv); ok {
		config.Profiles = splitProfiles(env)
		l.logger.Debug("Profiles set from environment", slog.Any("profiles", config.Profiles))
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

func splitProfiles(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
