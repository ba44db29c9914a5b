package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure for the OBS/OSC bridge.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	OBS      OBSConfig      `yaml:"obs"`
	OSC      OSCConfig      `yaml:"osc"`
	Bridge   BridgeConfig   `yaml:"bridge"`
	MQTT     MQTTConfig     `yaml:"mqtt"`
	InfluxDB InfluxDBConfig `yaml:"influxdb"`
	Database DatabaseConfig `yaml:"database"`
	Metrics  MetricsConfig  `yaml:"metrics"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// OBSConfig contains obs-websocket connection settings.
type OBSConfig struct {
	// URL is the obs-websocket endpoint, e.g. "ws://localhost:4444".
	URL string `yaml:"url"`

	// Password is required when OBS has authentication enabled.
	Password string `yaml:"password"`

	// ConnectTimeout bounds the dial and authentication handshake (seconds).
	ConnectTimeout int `yaml:"connect_timeout"`

	// RequestTimeout bounds each request/response exchange (seconds).
	RequestTimeout int `yaml:"request_timeout"`
}

// OSCConfig contains the OSC listener and cue target settings.
type OSCConfig struct {
	Listen OSCEndpointConfig `yaml:"listen"`
	Send   OSCEndpointConfig `yaml:"send"`
}

// OSCEndpointConfig is a UDP host and port.
type OSCEndpointConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// Address returns the endpoint as host:port.
func (e OSCEndpointConfig) Address() string {
	return fmt.Sprintf("%s:%d", e.Host, e.Port)
}

// BridgeConfig contains command routing and cue settings.
type BridgeConfig struct {
	ID             string `yaml:"id"`
	EnableCues     bool   `yaml:"enable_cues"`
	QueueSize      int    `yaml:"queue_size"`
	Workers        int    `yaml:"workers"`
	HealthInterval int    `yaml:"health_interval"` // seconds
}

// DatabaseConfig contains SQLite database settings for the command journal.
type DatabaseConfig struct {
	Enabled     bool   `yaml:"enabled"`
	Path        string `yaml:"path"`
	WALMode     bool   `yaml:"wal_mode"`
	BusyTimeout int    `yaml:"busy_timeout"`
}

// MQTTConfig contains MQTT broker connection settings.
type MQTTConfig struct {
	Enabled   bool                `yaml:"enabled"`
	Broker    MQTTBrokerConfig    `yaml:"broker"`
	Auth      MQTTAuthConfig      `yaml:"auth"`
	QoS       int                 `yaml:"qos"`
	Reconnect MQTTReconnectConfig `yaml:"reconnect"`
}

// MQTTBrokerConfig contains MQTT broker connection details.
type MQTTBrokerConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	TLS      bool   `yaml:"tls"`
	ClientID string `yaml:"client_id"`
}

// MQTTAuthConfig contains MQTT authentication credentials.
type MQTTAuthConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// MQTTReconnectConfig contains MQTT reconnection settings.
type MQTTReconnectConfig struct {
	InitialDelay int `yaml:"initial_delay"`
	MaxDelay     int `yaml:"max_delay"`
	MaxAttempts  int `yaml:"max_attempts"`
}

// InfluxDBConfig contains InfluxDB connection settings.
type InfluxDBConfig struct {
	Enabled       bool   `yaml:"enabled"`
	URL           string `yaml:"url"`
	Token         string `yaml:"token"`
	Org           string `yaml:"org"`
	Bucket        string `yaml:"bucket"`
	BatchSize     int    `yaml:"batch_size"`
	FlushInterval int    `yaml:"flush_interval"`
}

// MetricsConfig contains the Prometheus endpoint settings.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Host    string `yaml:"host"`
	Port    int    `yaml:"port"`
	Path    string `yaml:"path"`
}

// Address returns the listen address as host:port.
func (m MetricsConfig) Address() string {
	return fmt.Sprintf("%s:%d", m.Host, m.Port)
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// Load reads configuration from a YAML file and applies environment variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. Environment variables (override file values)
//
// Environment variables follow the pattern: OBSOSC_SECTION_KEY
// For example: OBSOSC_OBS_PASSWORD, OBSOSC_OSC_SEND_HOST
//
// Parameters:
//   - path: Path to the YAML configuration file
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: If file cannot be read, parsed, or validation fails
func Load(path string) (*Config, error) {
	// Start with defaults
	cfg := defaultConfig()

	// Read and parse YAML file
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	// Apply environment variable overrides
	applyEnvOverrides(cfg)

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// defaultConfig returns a Config with sensible defaults.
func defaultConfig() *Config {
	return &Config{
		OBS: OBSConfig{
			URL:            "ws://localhost:4444",
			ConnectTimeout: 10,
			RequestTimeout: 10,
		},
		OSC: OSCConfig{
			Listen: OSCEndpointConfig{Host: "0.0.0.0", Port: 3333},
			Send:   OSCEndpointConfig{Host: "127.0.0.1", Port: 53000},
		},
		Bridge: BridgeConfig{
			ID:             "obsosc",
			EnableCues:     true,
			QueueSize:      64,
			Workers:        4,
			HealthInterval: 30,
		},
		Database: DatabaseConfig{
			Path:        "./data/obsosc.db",
			WALMode:     true,
			BusyTimeout: 5,
		},
		MQTT: MQTTConfig{
			Broker: MQTTBrokerConfig{
				Host:     "localhost",
				Port:     1883,
				ClientID: "obsosc-bridge",
			},
			QoS: 1,
			Reconnect: MQTTReconnectConfig{
				InitialDelay: 1,
				MaxDelay:     60,
				MaxAttempts:  0,
			},
		},
		InfluxDB: InfluxDBConfig{
			Bucket:        "obsosc",
			BatchSize:     100,
			FlushInterval: 10,
		},
		Metrics: MetricsConfig{
			Host: "0.0.0.0",
			Port: 9110,
			Path: "/metrics",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables follow the pattern: OBSOSC_SECTION_KEY
func applyEnvOverrides(cfg *Config) {
	// OBS
	if v := os.Getenv("OBSOSC_OBS_URL"); v != "" {
		cfg.OBS.URL = v
	}
	if v := os.Getenv("OBSOSC_OBS_PASSWORD"); v != "" {
		cfg.OBS.Password = v
	}

	// OSC
	if v := os.Getenv("OBSOSC_OSC_LISTEN_HOST"); v != "" {
		cfg.OSC.Listen.Host = v
	}
	if v := envInt("OBSOSC_OSC_LISTEN_PORT"); v != 0 {
		cfg.OSC.Listen.Port = v
	}
	if v := os.Getenv("OBSOSC_OSC_SEND_HOST"); v != "" {
		cfg.OSC.Send.Host = v
	}
	if v := envInt("OBSOSC_OSC_SEND_PORT"); v != 0 {
		cfg.OSC.Send.Port = v
	}

	// Database
	if v := os.Getenv("OBSOSC_DATABASE_PATH"); v != "" {
		cfg.Database.Path = v
	}

	// MQTT
	if v := os.Getenv("OBSOSC_MQTT_HOST"); v != "" {
		cfg.MQTT.Broker.Host = v
	}
	if v := os.Getenv("OBSOSC_MQTT_USERNAME"); v != "" {
		cfg.MQTT.Auth.Username = v
	}
	if v := os.Getenv("OBSOSC_MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Auth.Password = v
	}

	// InfluxDB
	if v := os.Getenv("OBSOSC_INFLUXDB_TOKEN"); v != "" {
		cfg.InfluxDB.Token = v
	}

	// Logging
	if v := os.Getenv("OBSOSC_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
}

// envInt returns the integer value of an environment variable, or 0 when
// unset or not a number.
func envInt(key string) int {
	n, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return 0
	}
	return n
}

// Validate checks the configuration for errors.
//
// Returns:
//   - error: Description of validation failure, or nil if valid
func (c *Config) Validate() error {
	var errs []string

	// OBS validation
	if u, err := url.Parse(c.OBS.URL); err != nil || (u.Scheme != "ws" && u.Scheme != "wss") || u.Host == "" {
		errs = append(errs, "obs.url must be a ws:// or wss:// URL")
	}
	if c.OBS.ConnectTimeout < 0 || c.OBS.RequestTimeout < 0 {
		errs = append(errs, "obs timeouts must not be negative")
	}

	// OSC validation
	if !validPort(c.OSC.Listen.Port) {
		errs = append(errs, "osc.listen.port must be between 1 and 65535")
	}
	if c.OSC.Send.Host == "" {
		errs = append(errs, "osc.send.host is required")
	}
	if !validPort(c.OSC.Send.Port) {
		errs = append(errs, "osc.send.port must be between 1 and 65535")
	}

	// Bridge validation
	if c.Bridge.QueueSize < 0 || c.Bridge.Workers < 0 {
		errs = append(errs, "bridge.queue_size and bridge.workers must not be negative")
	}

	// MQTT validation
	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		errs = append(errs, "mqtt.qos must be 0, 1, or 2")
	}
	if c.MQTT.Enabled && c.MQTT.Broker.Host == "" {
		errs = append(errs, "mqtt.broker.host is required when mqtt is enabled")
	}

	// InfluxDB validation
	if c.InfluxDB.Enabled && (c.InfluxDB.URL == "" || c.InfluxDB.Org == "" || c.InfluxDB.Bucket == "") {
		errs = append(errs, "influxdb.url, influxdb.org and influxdb.bucket are required when influxdb is enabled")
	}

	// Database validation
	if c.Database.Enabled && c.Database.Path == "" {
		errs = append(errs, "database.path is required when the journal is enabled")
	}

	// Metrics validation
	if c.Metrics.Enabled {
		if !validPort(c.Metrics.Port) {
			errs = append(errs, "metrics.port must be between 1 and 65535")
		}
		if !strings.HasPrefix(c.Metrics.Path, "/") {
			errs = append(errs, "metrics.path must start with /")
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

func validPort(p int) bool {
	return p >= 1 && p <= 65535
}

// GetConnectTimeout returns the OBS connect timeout as a Duration.
func (c *Config) GetConnectTimeout() time.Duration {
	return time.Duration(c.OBS.ConnectTimeout) * time.Second
}

// GetRequestTimeout returns the OBS request timeout as a Duration.
func (c *Config) GetRequestTimeout() time.Duration {
	return time.Duration(c.OBS.RequestTimeout) * time.Second
}

// GetHealthInterval returns the bridge health interval as a Duration.
func (c *Config) GetHealthInterval() time.Duration {
	return time.Duration(c.Bridge.HealthInterval) * time.Second
}
