package config

import (
	"encoding/json"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/vango-dev/sweetstate/internal/errors"
)

const (
	// ConfigFileName is the name of the JSON configuration file.
	ConfigFileName = "sweetstate.json"

	// YAMLConfigFileName is the name of the YAML configuration file. It is
	// used when no JSON file exists.
	YAMLConfigFileName = "sweetstate.yaml"

	// DefaultDevtoolsAddr is the default devtools listen address.
	DefaultDevtoolsAddr = "localhost:7070"

	// DefaultMetricsAddr is the default metrics listen address.
	DefaultMetricsAddr = "localhost:9090"

	// DefaultNamespace is the default Prometheus namespace.
	DefaultNamespace = "sweetstate"

	// DefaultSnapshotName is the default snapshot name.
	DefaultSnapshotName = "latest"

	// DefaultSnapshotPath is the default SQLite snapshot database.
	DefaultSnapshotPath = "sweetstate.db"

	// DefaultLogLevel is the default log level.
	DefaultLogLevel = "info"
)

// Snapshot backends.
const (
	BackendNone   = ""
	BackendSQLite = "sqlite"
	BackendS3     = "s3"
)

// Config represents the complete sweetstate configuration.
type Config struct {
	// Devtools contains devtools server configuration.
	Devtools DevtoolsConfig `json:"devtools" yaml:"devtools"`

	// Metrics contains Prometheus metrics configuration.
	Metrics MetricsConfig `json:"metrics" yaml:"metrics"`

	// Snapshot contains snapshot persistence configuration.
	Snapshot SnapshotConfig `json:"snapshot" yaml:"snapshot"`

	// LogLevel is one of debug, info, warn or error.
	LogLevel string `json:"logLevel,omitempty" yaml:"logLevel,omitempty"`

	// configPath stores the path where the config was loaded from.
	configPath string
}

// DevtoolsConfig contains devtools server settings.
type DevtoolsConfig struct {
	// Enabled turns on the devtools middleware and server.
	Enabled bool `json:"enabled,omitempty" yaml:"enabled,omitempty"`

	// Addr is the host:port the devtools server listens on.
	Addr string `json:"addr,omitempty" yaml:"addr,omitempty"`
}

// MetricsConfig contains Prometheus metrics settings.
type MetricsConfig struct {
	// Enabled turns on the metrics middleware and /metrics endpoint.
	Enabled bool `json:"enabled,omitempty" yaml:"enabled,omitempty"`

	// Addr is the host:port the metrics server listens on.
	Addr string `json:"addr,omitempty" yaml:"addr,omitempty"`

	// Namespace is the metrics namespace.
	Namespace string `json:"namespace,omitempty" yaml:"namespace,omitempty"`
}

// SnapshotConfig contains snapshot persistence settings.
type SnapshotConfig struct {
	// Backend is "sqlite", "s3" or empty to disable snapshots.
	Backend string `json:"backend,omitempty" yaml:"backend,omitempty"`

	// Name is the snapshot saved and restored by default.
	Name string `json:"name,omitempty" yaml:"name,omitempty"`

	// Path is the SQLite database file (sqlite backend).
	Path string `json:"path,omitempty" yaml:"path,omitempty"`

	// Bucket is the S3 bucket (s3 backend).
	Bucket string `json:"bucket,omitempty" yaml:"bucket,omitempty"`

	// Prefix is the S3 key prefix (s3 backend).
	Prefix string `json:"prefix,omitempty" yaml:"prefix,omitempty"`

	// Region is the S3 region (s3 backend).
	Region string `json:"region,omitempty" yaml:"region,omitempty"`

	// Endpoint overrides the S3 endpoint for S3-compatible services.
	Endpoint string `json:"endpoint,omitempty" yaml:"endpoint,omitempty"`
}

// New creates a new Config with default values.
func New() *Config {
	return &Config{
		Devtools: DevtoolsConfig{
			Addr: DefaultDevtoolsAddr,
		},
		Metrics: MetricsConfig{
			Addr:      DefaultMetricsAddr,
			Namespace: DefaultNamespace,
		},
		Snapshot: SnapshotConfig{
			Name: DefaultSnapshotName,
			Path: DefaultSnapshotPath,
		},
		LogLevel: DefaultLogLevel,
	}
}

// Load reads configuration from the specified directory.
// It looks for sweetstate.json, then sweetstate.yaml.
func Load(dir string) (*Config, error) {
	jsonPath := filepath.Join(dir, ConfigFileName)
	if _, err := os.Stat(jsonPath); err == nil {
		return LoadFile(jsonPath)
	}
	yamlPath := filepath.Join(dir, YAMLConfigFileName)
	if _, err := os.Stat(yamlPath); err == nil {
		return LoadFile(yamlPath)
	}
	return nil, errors.New("S201").
		WithDetail("No " + ConfigFileName + " or " + YAMLConfigFileName + " found in " + dir).
		WithSuggestion("Create " + ConfigFileName + " or run without a config to use defaults")
}

// LoadFile reads configuration from the specified file path. Files ending
// in .yaml or .yml are parsed as YAML, everything else as JSON.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New("S201").
				WithDetail("No config file at " + path)
		}
		return nil, errors.New("S202").Wrap(err)
	}

	cfg := New()
	if isYAML(path) {
		err = yaml.Unmarshal(data, cfg)
	} else {
		err = json.Unmarshal(data, cfg)
	}
	if err != nil {
		return nil, errors.New("S202").
			WithDetail("Failed to parse " + filepath.Base(path) + ": " + err.Error()).
			WithSuggestion("Check that " + filepath.Base(path) + " is valid")
	}

	cfg.configPath = path
	cfg.applyDefaults()

	return cfg, nil
}

// LoadOrDefault loads the configuration from dir, falling back to New()
// when no config file exists.
func LoadOrDefault(dir string) (*Config, error) {
	cfg, err := Load(dir)
	if err != nil {
		if errors.HasCode(err, "S201") {
			return New(), nil
		}
		return nil, err
	}
	return cfg, nil
}

// SaveTo writes the configuration to the specified path, as YAML or JSON
// depending on its extension.
func (c *Config) SaveTo(path string) error {
	var data []byte
	var err error
	if isYAML(path) {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
		// Add newline at end of file
		data = append(data, '\n')
	}
	if err != nil {
		return errors.New("S202").Wrap(err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.New("S202").Wrap(err)
	}

	c.configPath = path
	return nil
}

// Path returns the path where the config was loaded from.
func (c *Config) Path() string {
	return c.configPath
}

// Dir returns the directory containing the config file.
func (c *Config) Dir() string {
	if c.configPath == "" {
		return ""
	}
	return filepath.Dir(c.configPath)
}

// applyDefaults fills in default values for empty fields.
func (c *Config) applyDefaults() {
	if c.Devtools.Addr == "" {
		c.Devtools.Addr = DefaultDevtoolsAddr
	}
	if c.Metrics.Addr == "" {
		c.Metrics.Addr = DefaultMetricsAddr
	}
	if c.Metrics.Namespace == "" {
		c.Metrics.Namespace = DefaultNamespace
	}
	if c.Snapshot.Name == "" {
		c.Snapshot.Name = DefaultSnapshotName
	}
	if c.Snapshot.Path == "" {
		c.Snapshot.Path = DefaultSnapshotPath
	}
	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	}
	c.Snapshot.Backend = strings.ToLower(c.Snapshot.Backend)
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Devtools.Enabled {
		if _, _, err := net.SplitHostPort(c.Devtools.Addr); err != nil {
			return errors.New("S203").
				WithDetail("devtools.addr must be host:port, got " + c.Devtools.Addr)
		}
	}
	if c.Metrics.Enabled {
		if _, _, err := net.SplitHostPort(c.Metrics.Addr); err != nil {
			return errors.New("S203").
				WithDetail("metrics.addr must be host:port, got " + c.Metrics.Addr)
		}
	}

	switch c.Snapshot.Backend {
	case BackendNone, BackendSQLite:
	case BackendS3:
		if c.Snapshot.Bucket == "" {
			return errors.New("S203").
				WithDetail("snapshot.bucket is required for the s3 backend")
		}
	default:
		return errors.New("S304").
			WithDetail("Unknown snapshot backend " + c.Snapshot.Backend).
			WithSuggestion("Use \"sqlite\" or \"s3\"")
	}

	if _, err := c.SlogLevel(); err != nil {
		return err
	}
	return nil
}

// SlogLevel parses LogLevel.
func (c *Config) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if c.LogLevel == "" {
		return slog.LevelInfo, nil
	}
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo, errors.New("S203").
			WithDetail("logLevel must be debug, info, warn or error, got " + c.LogLevel)
	}
	return level, nil
}

// SnapshotPath returns the absolute path to the SQLite snapshot database.
func (c *Config) SnapshotPath() string {
	if filepath.IsAbs(c.Snapshot.Path) {
		return c.Snapshot.Path
	}
	return filepath.Join(c.Dir(), c.Snapshot.Path)
}

// Exists checks if a config file exists in the given directory.
func Exists(dir string) bool {
	for _, name := range []string{ConfigFileName, YAMLConfigFileName} {
		if _, err := os.Stat(filepath.Join(dir, name)); err == nil {
			return true
		}
	}
	return false
}

// FindProjectRoot walks up directories to find the project root.
// Returns the directory containing a config file, or an error if not found.
func FindProjectRoot(startDir string) (string, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", err
	}

	for {
		if Exists(dir) {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", errors.New("S201").
				WithDetail("No " + ConfigFileName + " found in " + startDir + " or any parent directory")
		}
		dir = parent
	}
}

func isYAML(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}
