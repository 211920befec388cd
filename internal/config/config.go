package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"

	"github.com/sigil-ui/sigil/internal/errors"
)

const (
	// ConfigFileName is the name of the configuration file.
	ConfigFileName = "sigil.json"

	// DefaultPort is the default inspector server port.
	DefaultPort = 7433

	// DefaultHost is the default inspector server host.
	DefaultHost = "localhost"

	// DefaultNamespace is the default metrics namespace.
	DefaultNamespace = "sigil"
)

// Config represents the complete sigil.json configuration.
type Config struct {
	// Name is the project name.
	Name string `json:"name,omitempty"`

	// Version is the project version.
	Version string `json:"version,omitempty"`

	// Inspector contains inspector server configuration.
	Inspector InspectorConfig `json:"inspector,omitempty"`

	// Metrics contains Prometheus registration configuration.
	Metrics MetricsConfig `json:"metrics,omitempty"`

	// Runtime contains runtime diagnostics configuration.
	Runtime RuntimeConfig `json:"runtime,omitempty"`

	// Bench contains benchmark workload defaults.
	Bench BenchConfig `json:"bench,omitempty"`

	// configPath stores the path where the config was loaded from.
	configPath string
}

// InspectorConfig contains inspector server settings.
type InspectorConfig struct {
	// Enabled controls whether the inspector serves at all.
	Enabled bool `json:"enabled,omitempty"`

	// Port is the port to serve the inspector on.
	Port int `json:"port,omitempty"`

	// Host is the host to bind to.
	Host string `json:"host,omitempty"`
}

// MetricsConfig contains Prometheus registration settings.
type MetricsConfig struct {
	// Namespace is the metrics namespace.
	Namespace string `json:"namespace,omitempty"`

	// Subsystem is the metrics subsystem.
	Subsystem string `json:"subsystem,omitempty"`
}

// RuntimeConfig contains runtime diagnostics settings.
type RuntimeConfig struct {
	// SlotCheck enables the effect slot-count consistency check.
	// Catches conditional effect registration at the cost of a panic.
	SlotCheck bool `json:"slotCheck,omitempty"`

	// TraceName is the OpenTelemetry tracer name for pass spans.
	TraceName string `json:"traceName,omitempty"`
}

// BenchConfig contains benchmark workload defaults.
type BenchConfig struct {
	// Entities is the number of synthetic entities in the workload tree.
	Entities int `json:"entities,omitempty"`

	// Passes is the number of reconciliation passes to drive.
	Passes int `json:"passes,omitempty"`

	// Churn is the fraction of entities replaced per pass (0-1).
	Churn float64 `json:"churn,omitempty"`

	// Seed is the workload RNG seed; 0 means time-based.
	Seed int64 `json:"seed,omitempty"`
}

// New creates a new Config with default values.
func New() *Config {
	return &Config{
		Version: "0.1.0",
		Inspector: InspectorConfig{
			Enabled: true,
			Port:    DefaultPort,
			Host:    DefaultHost,
		},
		Metrics: MetricsConfig{
			Namespace: DefaultNamespace,
		},
		Runtime: RuntimeConfig{
			SlotCheck: true,
			TraceName: "sigil",
		},
		Bench: BenchConfig{
			Entities: 1000,
			Passes:   100,
			Churn:    0.1,
		},
	}
}

// Load reads configuration from the specified directory.
// It looks for sigil.json in the directory.
func Load(dir string) (*Config, error) {
	return LoadFile(filepath.Join(dir, ConfigFileName))
}

// LoadFile reads configuration from the specified file path.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New("E101").
				WithDetail("No sigil.json found in " + filepath.Dir(path)).
				WithSuggestion("Run 'sigil init' or create sigil.json manually")
		}
		return nil, errors.New("E102").Wrap(err)
	}

	cfg := New()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, errors.New("E102").
			WithDetail("Failed to parse sigil.json: " + err.Error()).
			WithSuggestion("Check that sigil.json is valid JSON")
	}

	cfg.configPath = path
	cfg.applyDefaults()

	return cfg, nil
}

// Save writes the configuration to the file it was loaded from.
func (c *Config) Save() error {
	if c.configPath == "" {
		return errors.Newf(errors.CategoryConfig, "no config path set")
	}
	return c.SaveTo(c.configPath)
}

// SaveTo writes the configuration to the specified path.
func (c *Config) SaveTo(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return errors.New("E102").Wrap(err)
	}

	// Add newline at end of file
	data = append(data, '\n')

	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.New("E102").Wrap(err)
	}

	c.configPath = path
	return nil
}

// Path returns the path where the config was loaded from.
func (c *Config) Path() string {
	return c.configPath
}

// applyDefaults fills in default values for empty fields.
func (c *Config) applyDefaults() {
	if c.Inspector.Port == 0 {
		c.Inspector.Port = DefaultPort
	}
	if c.Inspector.Host == "" {
		c.Inspector.Host = DefaultHost
	}
	if c.Metrics.Namespace == "" {
		c.Metrics.Namespace = DefaultNamespace
	}
	if c.Runtime.TraceName == "" {
		c.Runtime.TraceName = "sigil"
	}
	if c.Bench.Entities == 0 {
		c.Bench.Entities = 1000
	}
	if c.Bench.Passes == 0 {
		c.Bench.Passes = 100
	}
	if c.Bench.Churn == 0 {
		c.Bench.Churn = 0.1
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Inspector.Port < 0 || c.Inspector.Port > 65535 {
		return errors.New("E103").
			WithDetail("Inspector port must be between 0 and 65535")
	}
	if c.Bench.Entities < 0 || c.Bench.Passes < 0 {
		return errors.New("E103").
			WithDetail("Bench entities and passes must be non-negative")
	}
	if c.Bench.Churn < 0 || c.Bench.Churn > 1 {
		return errors.New("E103").
			WithDetail("Bench churn must be between 0 and 1")
	}
	return nil
}

// InspectorAddress returns the address string for the inspector server.
func (c *Config) InspectorAddress() string {
	return c.Inspector.Host + ":" + strconv.Itoa(c.Inspector.Port)
}
