package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Backend names accepted in the backends list.
const (
	BackendCollection  = "collection"
	BackendDeezer      = "deezer"
	BackendITunes      = "itunes"
	BackendMusicBrainz = "musicbrainz"
)

// Config contains the program configuration
type Config struct {
	Verbose       bool   `yaml:"verbose"`
	LogFile       string `yaml:"log_file"`
	LogMaxSizeMB  int    `yaml:"log_max_size_mb" validate:"gte=0"`
	LogMaxBackups int    `yaml:"log_max_backups" validate:"gte=0"`

	ListenAddr     string        `yaml:"listen_addr" validate:"required"`
	QueryRetention time.Duration `yaml:"query_retention"`

	CollectionDirs  []string `yaml:"collection_dirs" validate:"dive,required"`
	WatchCollection bool     `yaml:"watch_collection"`

	Backends            []string      `yaml:"backends" validate:"dive,oneof=collection deezer itunes musicbrainz"`
	ResolveTimeout      time.Duration `yaml:"resolve_timeout"`
	MaxParallelBackends int           `yaml:"max_parallel_backends" validate:"min=1,max=32"`
	StopWhenSolved      bool          `yaml:"stop_when_solved"`
	MinScore            float64       `yaml:"min_score" validate:"gte=0,lte=1"`
	MaxResults          int           `yaml:"max_results" validate:"min=1"`
	SupportedMimetypes  []string      `yaml:"supported_mimetypes"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() Config {
	return Config{
		ListenAddr:          ":8080",
		QueryRetention:      time.Hour,
		CollectionDirs:      []string{filepath.Join(homeDir(), "Music")},
		Backends:            []string{BackendCollection, BackendDeezer, BackendITunes},
		ResolveTimeout:      10 * time.Second,
		MaxParallelBackends: 4,
		StopWhenSolved:      true,
		MinScore:            0.5,
		MaxResults:          10,
		SupportedMimetypes: []string{
			"audio/mpeg", "audio/mp4", "audio/flac", "audio/ogg", "audio/x-wav", "audio/aac",
		},
	}
}

// LoadConfigFile loads configuration from a YAML file.
// If path is empty, searches standard locations. Returns defaults if no file found.
func LoadConfigFile(path string) (Config, error) {
	cfg := DefaultConfig()

	if path == "" {
		path = FindConfigFile()
		if path == "" {
			return cfg, nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	for i, dir := range cfg.CollectionDirs {
		cfg.CollectionDirs[i] = ExpandHome(dir)
	}
	cfg.LogFile = ExpandHome(cfg.LogFile)

	return cfg, nil
}

// ExpandHome replaces a leading ~ with the user's home directory.
func ExpandHome(path string) string {
	if strings.HasPrefix(path, "~/") {
		return filepath.Join(homeDir(), path[2:])
	}
	return path
}

// FindConfigFile searches for a config file in standard locations
func FindConfigFile() string {
	home := homeDir()
	locations := []string{
		"./songresolve.yaml",
		"./songresolve.yml",
		filepath.Join(home, ".config", "songresolve", "config.yaml"),
		filepath.Join(home, ".config", "songresolve", "config.yml"),
		filepath.Join(home, ".songresolve.yaml"),
	}

	for _, path := range locations {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// SaveConfigFile saves the current configuration to a YAML file
func SaveConfigFile(cfg Config, path string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// GetDefaultConfigPath returns the default config file path
func GetDefaultConfigPath() string {
	return filepath.Join(homeDir(), ".config", "songresolve", "config.yaml")
}

// GetDefaultLogPath returns the default log directory path
func GetDefaultLogPath() string {
	return filepath.Join(homeDir(), ".local", "share", "songresolve", "logs")
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return os.Getenv("HOME")
	}
	return home
}

var validate = validator.New()

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("invalid %s: failed %q check (value %v)", fe.Namespace(), fe.Tag(), fe.Value())
		}
		return fmt.Errorf("config validation failed: %w", err)
	}

	if c.ResolveTimeout <= 0 {
		return fmt.Errorf("resolve_timeout must be positive, got %s", c.ResolveTimeout)
	}
	if c.QueryRetention < 0 {
		return fmt.Errorf("query_retention cannot be negative, got %s", c.QueryRetention)
	}

	if c.HasBackend(BackendCollection) && len(c.CollectionDirs) == 0 {
		return fmt.Errorf("collection_dirs is required when the collection backend is enabled")
	}

	for _, m := range c.SupportedMimetypes {
		if !strings.Contains(m, "/") {
			return fmt.Errorf("invalid mimetype %q in supported_mimetypes", m)
		}
	}

	return nil
}

// HasBackend reports whether name is in the backends list.
func (c *Config) HasBackend(name string) bool {
	for _, b := range c.Backends {
		if b == name {
			return true
		}
	}
	return false
}

// AcceptMimetype reports whether results of the given mimetype may enter a
// query. An empty supported list accepts everything.
func (c *Config) AcceptMimetype(mimetype string) bool {
	if len(c.SupportedMimetypes) == 0 {
		return true
	}
	mimetype = strings.ToLower(strings.TrimSpace(mimetype))
	for _, m := range c.SupportedMimetypes {
		if strings.EqualFold(m, mimetype) {
			return true
		}
	}
	return false
}
