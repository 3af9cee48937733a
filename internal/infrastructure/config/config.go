package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure for the OneNET console.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	Console   ConsoleConfig   `yaml:"console"`
	Database  DatabaseConfig  `yaml:"database"`
	API       APIConfig       `yaml:"api"`
	WebSocket WebSocketConfig `yaml:"websocket"`
	OneNET    OneNETConfig    `yaml:"onenet"`
	Cache     CacheConfig     `yaml:"cache"`
	MQTT      MQTTConfig      `yaml:"mqtt"`
	InfluxDB  InfluxDBConfig  `yaml:"influxdb"`
	Logging   LoggingConfig   `yaml:"logging"`
	Security  SecurityConfig  `yaml:"security"`
}

// ConsoleConfig identifies this console instance.
type ConsoleConfig struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name"`
	// WebDir serves console assets from disk instead of the embedded copy.
	WebDir string `yaml:"web_dir"`
}

// DatabaseConfig contains SQLite database settings.
type DatabaseConfig struct {
	Path        string `yaml:"path"`
	WALMode     bool   `yaml:"wal_mode"`
	BusyTimeout int    `yaml:"busy_timeout"`
}

// APIConfig contains HTTP API server settings.
type APIConfig struct {
	Host     string           `yaml:"host"`
	Port     int              `yaml:"port"`
	TLS      TLSConfig        `yaml:"tls"`
	Timeouts APITimeoutConfig `yaml:"timeouts"`
	CORS     CORSConfig       `yaml:"cors"`
}

// TLSConfig contains TLS certificate settings.
type TLSConfig struct {
	Enabled  bool   `yaml:"enabled"`
	CertFile string `yaml:"cert_file"`
	KeyFile  string `yaml:"key_file"`
}

// APITimeoutConfig contains HTTP timeout settings.
type APITimeoutConfig struct {
	Read  int `yaml:"read"`
	Write int `yaml:"write"`
	Idle  int `yaml:"idle"`
}

// CORSConfig contains Cross-Origin Resource Sharing settings.
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
	AllowedMethods []string `yaml:"allowed_methods"`
	AllowedHeaders []string `yaml:"allowed_headers"`
}

// WebSocketConfig contains WebSocket server settings.
type WebSocketConfig struct {
	Path           string `yaml:"path"`
	MaxMessageSize int    `yaml:"max_message_size"`
	PingInterval   int    `yaml:"ping_interval"`
	PongTimeout    int    `yaml:"pong_timeout"`
}

// OneNETConfig contains the remote API endpoints and the default credentials
// used when the browser does not supply its own.
type OneNETConfig struct {
	V1 OneNETV1Config `yaml:"v1"`
	V2 OneNETV2Config `yaml:"v2"`

	// TokenMinter is an optional external token service. When URL is empty
	// tokens are minted in-process.
	TokenMinter TokenMinterConfig `yaml:"token_minter"`

	// Timeout bounds each outbound call in seconds. Zero leaves the
	// transport default in place.
	Timeout int `yaml:"timeout"`
}

// OneNETV1Config configures the legacy key-based API.
type OneNETV1Config struct {
	BaseURL string `yaml:"base_url"`
	APIKey  string `yaml:"api_key"`
}

// OneNETV2Config configures the token-based API.
type OneNETV2Config struct {
	BaseURL   string `yaml:"base_url"`
	UserID    string `yaml:"user_id"`
	AccessKey string `yaml:"access_key"`
	// SignMethod is one of md5, sha1, sha256.
	SignMethod string `yaml:"sign_method"`
	// TokenTTL is the capability lifetime in seconds.
	TokenTTL int `yaml:"token_ttl"`
}

// TokenMinterConfig points at an external token-minting service.
type TokenMinterConfig struct {
	URL string `yaml:"url"`
}

// CacheConfig selects where the device cache snapshot is kept.
type CacheConfig struct {
	// Backend is "sqlite" or "memory".
	Backend string `yaml:"backend"`
	Slot    string `yaml:"slot"`
}

// MQTTConfig contains MQTT broker connection settings.
type MQTTConfig struct {
	Enabled     bool                `yaml:"enabled"`
	Broker      MQTTBrokerConfig    `yaml:"broker"`
	Auth        MQTTAuthConfig      `yaml:"auth"`
	QoS         int                 `yaml:"qos"`
	TopicPrefix string              `yaml:"topic_prefix"`
	Reconnect   MQTTReconnectConfig `yaml:"reconnect"`
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
}

// InfluxDBConfig contains InfluxDB connection settings for the datapoint mirror.
type InfluxDBConfig struct {
	Enabled       bool   `yaml:"enabled"`
	URL           string `yaml:"url"`
	Token         string `yaml:"token"`
	Org           string `yaml:"org"`
	Bucket        string `yaml:"bucket"`
	BatchSize     int    `yaml:"batch_size"`
	FlushInterval int    `yaml:"flush_interval"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// SecurityConfig contains console session settings.
type SecurityConfig struct {
	ConsoleAuth ConsoleAuthConfig `yaml:"console_auth"`
	JWT         JWTConfig         `yaml:"jwt"`
}

// ConsoleAuthConfig protects the console with a single operator password.
type ConsoleAuthConfig struct {
	Enabled bool `yaml:"enabled"`
	// PasswordHash is an Argon2id PHC string.
	PasswordHash string `yaml:"password_hash"`
}

// JWTConfig contains session token settings.
type JWTConfig struct {
	Secret string `yaml:"secret"`
	// AccessTokenTTL is the console session lifetime in minutes.
	AccessTokenTTL int `yaml:"access_token_ttl"`
}

// Load reads configuration from a YAML file and applies environment variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. Environment variables (override file values)
//
// Environment variables follow the pattern: ONENETCONSOLE_SECTION_KEY
// For example: ONENETCONSOLE_DATABASE_PATH, ONENETCONSOLE_V1_API_KEY
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// Default returns the built-in configuration with environment overrides
// applied. Used when no config file exists.
func Default() (*Config, error) {
	cfg := defaultConfig()
	applyEnvOverrides(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return cfg, nil
}

// defaultConfig returns a Config with sensible defaults.
func defaultConfig() *Config {
	return &Config{
		Console: ConsoleConfig{
			ID:   "console-001",
			Name: "OneNET Console",
		},
		Database: DatabaseConfig{
			Path:        "./data/onenetconsole.db",
			WALMode:     true,
			BusyTimeout: 5,
		},
		API: APIConfig{
			Host: "0.0.0.0",
			Port: 3000,
			Timeouts: APITimeoutConfig{
				Read:  30,
				Write: 60,
				Idle:  60,
			},
		},
		WebSocket: WebSocketConfig{
			Path:           "/ws",
			MaxMessageSize: 8192,
			PingInterval:   30,
			PongTimeout:    10,
		},
		OneNET: OneNETConfig{
			V1: OneNETV1Config{
				BaseURL: "http://api.onenet.hk.chinamobile.com",
			},
			V2: OneNETV2Config{
				BaseURL:    "https://www.onenet.hk.chinamobile.com:2616",
				SignMethod: "md5",
				TokenTTL:   3600,
			},
		},
		Cache: CacheConfig{
			Backend: "sqlite",
			Slot:    "devices",
		},
		MQTT: MQTTConfig{
			Broker: MQTTBrokerConfig{
				Host:     "localhost",
				Port:     1883,
				ClientID: "onenetconsole",
			},
			QoS:         1,
			TopicPrefix: "onenetconsole",
			Reconnect: MQTTReconnectConfig{
				InitialDelay: 1,
				MaxDelay:     60,
			},
		},
		InfluxDB: InfluxDBConfig{
			Bucket:        "onenet",
			BatchSize:     100,
			FlushInterval: 10,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
		Security: SecurityConfig{
			JWT: JWTConfig{
				AccessTokenTTL: 60,
			},
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Credentials are expected to arrive this way rather than from the file.
func applyEnvOverrides(cfg *Config) {
	// Database
	if v := os.Getenv("ONENETCONSOLE_DATABASE_PATH"); v != "" {
		cfg.Database.Path = v
	}

	// API
	if v := os.Getenv("ONENETCONSOLE_API_HOST"); v != "" {
		cfg.API.Host = v
	}
	if v := os.Getenv("ONENETCONSOLE_API_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.API.Port = port
		}
	}

	// OneNET credentials
	if v := os.Getenv("ONENETCONSOLE_V1_API_KEY"); v != "" {
		cfg.OneNET.V1.APIKey = v
	}
	if v := os.Getenv("ONENETCONSOLE_V2_USER_ID"); v != "" {
		cfg.OneNET.V2.UserID = v
	}
	if v := os.Getenv("ONENETCONSOLE_V2_ACCESS_KEY"); v != "" {
		cfg.OneNET.V2.AccessKey = v
	}
	if v := os.Getenv("ONENETCONSOLE_TOKEN_MINTER_URL"); v != "" {
		cfg.OneNET.TokenMinter.URL = v
	}

	// MQTT
	if v := os.Getenv("ONENETCONSOLE_MQTT_HOST"); v != "" {
		cfg.MQTT.Broker.Host = v
	}
	if v := os.Getenv("ONENETCONSOLE_MQTT_USERNAME"); v != "" {
		cfg.MQTT.Auth.Username = v
	}
	if v := os.Getenv("ONENETCONSOLE_MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Auth.Password = v
	}

	// InfluxDB
	if v := os.Getenv("ONENETCONSOLE_INFLUXDB_TOKEN"); v != "" {
		cfg.InfluxDB.Token = v
	}

	// Security
	if v := os.Getenv("ONENETCONSOLE_JWT_SECRET"); v != "" {
		cfg.Security.JWT.Secret = v
	}
	if v := os.Getenv("ONENETCONSOLE_PASSWORD_HASH"); v != "" {
		cfg.Security.ConsoleAuth.PasswordHash = v
	}
}

// validSignMethods lists the HMAC methods OneNET accepts.
var validSignMethods = map[string]struct{}{"md5": {}, "sha1": {}, "sha256": {}}

// Validate checks the configuration for errors and security issues.
func (c *Config) Validate() error {
	var errs []string

	if c.Console.ID == "" {
		errs = append(errs, "console.id is required")
	}

	if c.API.Port < 1 || c.API.Port > 65535 {
		errs = append(errs, "api.port must be between 1 and 65535")
	}

	if c.OneNET.V1.BaseURL == "" {
		errs = append(errs, "onenet.v1.base_url is required")
	}
	if c.OneNET.V2.BaseURL == "" {
		errs = append(errs, "onenet.v2.base_url is required")
	}
	if _, ok := validSignMethods[strings.ToLower(c.OneNET.V2.SignMethod)]; !ok {
		errs = append(errs, "onenet.v2.sign_method must be md5, sha1 or sha256")
	}
	if c.OneNET.V2.TokenTTL <= 0 {
		errs = append(errs, "onenet.v2.token_ttl must be positive")
	}
	if c.OneNET.Timeout < 0 {
		errs = append(errs, "onenet.timeout must not be negative")
	}

	switch c.Cache.Backend {
	case "sqlite":
		if c.Database.Path == "" {
			errs = append(errs, "database.path is required for the sqlite cache backend")
		}
	case "memory":
	default:
		errs = append(errs, "cache.backend must be sqlite or memory")
	}
	if c.Cache.Slot == "" {
		errs = append(errs, "cache.slot is required")
	}

	if c.MQTT.Enabled && (c.MQTT.QoS < 0 || c.MQTT.QoS > 2) {
		errs = append(errs, "mqtt.qos must be 0, 1, or 2")
	}

	if c.InfluxDB.Enabled && c.InfluxDB.URL == "" {
		errs = append(errs, "influxdb.url is required when influxdb is enabled")
	}

	// Console sessions are signed with the JWT secret; a short secret makes
	// them forgeable.
	const minJWTSecretLength = 32
	if c.Security.ConsoleAuth.Enabled {
		if c.Security.ConsoleAuth.PasswordHash == "" {
			errs = append(errs, "security.console_auth.password_hash is required (set ONENETCONSOLE_PASSWORD_HASH)")
		}
		if len(c.Security.JWT.Secret) < minJWTSecretLength {
			errs = append(errs, "security.jwt.secret must be at least 32 characters (set ONENETCONSOLE_JWT_SECRET)")
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// GetReadTimeout returns the API read timeout as a Duration.
func (c *Config) GetReadTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Read) * time.Second
}

// GetWriteTimeout returns the API write timeout as a Duration.
func (c *Config) GetWriteTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Write) * time.Second
}

// GetIdleTimeout returns the API idle timeout as a Duration.
func (c *Config) GetIdleTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Idle) * time.Second
}

// GetOneNETTimeout returns the outbound call timeout. Zero means none.
func (c *Config) GetOneNETTimeout() time.Duration {
	return time.Duration(c.OneNET.Timeout) * time.Second
}

// GetTokenTTL returns the v2 capability lifetime.
func (c *Config) GetTokenTTL() time.Duration {
	return time.Duration(c.OneNET.V2.TokenTTL) * time.Second
}

// GetSessionTTL returns the console session lifetime.
func (c *Config) GetSessionTTL() time.Duration {
	return time.Duration(c.Security.JWT.AccessTokenTTL) * time.Minute
}
