package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"prdflow/internal/logging"
	"prdflow/pkg/fileops"

	"github.com/adrg/xdg"
	"gopkg.in/yaml.v3"
)

const APP_NAME = "prdflow" // application name used for config and data directories

// ReferenceDocName is the file the append tool extends, resolved relative to
// the storage directory unless reference_doc overrides it with a full path.
const ReferenceDocName = "create-prd.md"

// LibraryConfig describes an optional remote git repository holding workflow
// templates. When set, `prdflow sync` keeps the storage directory up to date.
type LibraryConfig struct {
	RemoteURL string  `yaml:"remote_url"`
	Branch    *string `yaml:"branch,omitempty"` // nil uses the remote's default branch
}

// Config holds user configuration for prdflow.
type Config struct {
	// StorageDir is the directory where prdflow keeps its workflow templates.
	StorageDir string `yaml:"storage_dir"`
	// ReferenceDoc is the document the append tool reads and extends.
	// Empty means <storage_dir>/create-prd.md.
	ReferenceDoc string         `yaml:"reference_doc,omitempty"`
	Library      *LibraryConfig `yaml:"library,omitempty"`
	Version      string         `yaml:"version"`   // Track config version
	InitTime     int64          `yaml:"init_time"` // Unix timestamp of first setup
}

// ReferenceDocPath returns the effective path of the reference document.
func (c *Config) ReferenceDocPath() string {
	if c.ReferenceDoc != "" {
		return fileops.ExpandPath(c.ReferenceDoc)
	}
	return filepath.Join(fileops.ExpandPath(c.StorageDir), ReferenceDocName)
}

// GetDefaultStorageDir returns default storage in user's data directory
func GetDefaultStorageDir() string {
	return filepath.Join(xdg.DataHome, APP_NAME)
}

// ConfigPath returns the standard config file path for the current platform
func ConfigPath() (string, error) {
	configDir := filepath.Join(xdg.ConfigHome, APP_NAME)
	configPath := filepath.Join(configDir, "config.yaml")

	logging.Debug("Determined config path", "path", configPath)
	return configPath, nil
}

// Load loads the config from the standard location.
// If no config exists, it returns an error indicating first run is needed.
func Load() (*Config, error) {
	configPath, exists := FindConfigFile()
	logging.Debug("Loading config from", "path", configPath)
	if !exists {
		return nil, fmt.Errorf("no configuration found, first-time setup required")
	}

	return LoadFrom(configPath)
}

// LoadFrom loads config from a specific path
func LoadFrom(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	var cfg Config
	dec := yaml.NewDecoder(f)
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return &cfg, nil
}

// FindConfigFile returns the path to an existing config file, and whether it exists.
func FindConfigFile() (string, bool) {
	primary, err := ConfigPath()
	if err != nil {
		logging.Error("Failed to get config path", "error", err)
		return "", false
	}

	if _, err := os.Stat(primary); err == nil {
		logging.Debug("Config found at primary path", "path", primary)
		return primary, true
	}

	// Return primary path for new config
	return primary, false
}

// IsFirstRun checks if this is the first time the application is run
func IsFirstRun() bool {
	_, exists := FindConfigFile()
	return !exists
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	path := GetDefaultStorageDir()
	logging.Debug("Using default storage directory", "path", path)

	return Config{
		StorageDir: path,
		Version:    "1.0",
		InitTime:   0, // Will be set during first save
	}
}

// Save writes the config to the standard location
func (c *Config) Save() error {
	configPath, _ := FindConfigFile()
	return c.SaveTo(configPath)
}

// SaveTo writes the config to a specific path
func (c *Config) SaveTo(path string) error {
	// Set init time if this is the first save
	if c.InitTime == 0 {
		c.InitTime = time.Now().Unix()
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	// Restrictive permissions, the config may name private template repos
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer f.Close()

	enc := yaml.NewEncoder(f)
	defer enc.Close()

	if err := enc.Encode(c); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// CreateNewConfig initializes a new configuration with the specified storage
// directory, validating and creating it first.
func CreateNewConfig(storageDir string) (*Config, error) {
	if err := fileops.ValidateStorageDir(storageDir); err != nil {
		return nil, fmt.Errorf("invalid storage directory: %w", err)
	}
	if err := fileops.TestWriteToDir(storageDir); err != nil {
		return nil, fmt.Errorf("storage directory is not writable: %w", err)
	}

	cfg := DefaultConfig()
	cfg.StorageDir = fileops.ExpandPath(storageDir)

	if err := cfg.Save(); err != nil {
		return nil, fmt.Errorf("failed to save configuration: %w", err)
	}

	logging.Info("Configuration created successfully", "storage_dir", cfg.StorageDir)
	return &cfg, nil
}
