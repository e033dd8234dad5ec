package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/knadh/koanf/parsers/toml/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

var (
	ErrConfigFileNotFound    = errors.New("could not find config file in any config path")
	ErrConfigVersionMissing  = errors.New("config file is missing version field")
	ErrConfigVersionMismatch = errors.New("config file version mismatch")
)

// CurrentVersion of the config file layout.
const CurrentVersion = 1

// Config represents the entire application configuration.
type Config struct {
	Version        int            `koanf:"version"`
	Debug          Debug          `koanf:"debug"`
	PostgreSQL     PostgreSQL     `koanf:"postgresql"`
	Redis          Redis          `koanf:"redis"`
	Gemini         Gemini         `koanf:"gemini"`
	Telegram       Telegram       `koanf:"telegram"`
	Archive        Archive        `koanf:"archive"`
	API            API            `koanf:"api"`
	Detection      Detection      `koanf:"detection"`
	Retry          Retry          `koanf:"retry"`
	CircuitBreaker CircuitBreaker `koanf:"circuit_breaker"`
	Telemetry      Telemetry      `koanf:"telemetry"`
	Worker         Worker         `koanf:"worker"`
}

// Debug contains debug-related configuration.
type Debug struct {
	LogLevel      string `koanf:"log_level"`        // Log level (debug, info, warn, error)
	MaxLogsToKeep int    `koanf:"max_logs_to_keep"` // Maximum log sessions to keep
	EnablePprof   bool   `koanf:"enable_pprof"`     // Enable pprof debugging
	PprofPort     int    `koanf:"pprof_port"`       // pprof server port
}

// PostgreSQL contains database connection configuration.
type PostgreSQL struct {
	Host         string `koanf:"host"`           // Database hostname
	Port         int    `koanf:"port"`           // Database port
	User         string `koanf:"user"`           // Database username
	Password     string `koanf:"password"`       // Database password
	DBName       string `koanf:"db_name"`        // Database name
	MaxOpenConns int    `koanf:"max_open_conns"` // Maximum open connections
	MaxIdleConns int    `koanf:"max_idle_conns"` // Maximum idle connections
	MaxLifetime  int    `koanf:"max_lifetime"`   // Connection lifetime in minutes
	MaxIdleTime  int    `koanf:"max_idle_time"`  // Idle timeout in minutes
}

// Redis contains Redis connection configuration.
type Redis struct {
	Host     string `koanf:"host"`     // Redis hostname
	Port     int    `koanf:"port"`     // Redis port
	Username string `koanf:"username"` // Redis username
	Password string `koanf:"password"` // Redis password
}

// Gemini contains Gemini API configuration.
type Gemini struct {
	APIKey        string   `koanf:"api_key"`        // API key for authentication
	Model         string   `koanf:"model"`          // Text model version to use
	VisionModels  []string `koanf:"vision_models"`  // Vision models in priority order
	MaxConcurrent int64    `koanf:"max_concurrent"` // Maximum concurrent model requests
}

// Telegram contains notification transport configuration.
type Telegram struct {
	BotToken string `koanf:"bot_token"` // Bot token; empty disables dispatch
}

// Archive contains cold storage configuration.
type Archive struct {
	Provider      string `koanf:"provider"`       // Storage provider (LOCAL or S3)
	LocalDir      string `koanf:"local_dir"`      // Base directory for local archives
	S3Endpoint    string `koanf:"s3_endpoint"`    // S3-compatible endpoint, scheme optional
	S3AccessKey   string `koanf:"s3_access_key"`  // Access key for the S3 provider
	S3SecretKey   string `koanf:"s3_secret_key"`  // Secret key for the S3 provider
	S3Bucket      string `koanf:"s3_bucket"`      // Bucket name for the S3 provider
	S3Region      string `koanf:"s3_region"`      // Bucket region, may be empty
	S3UseSSL      bool   `koanf:"s3_use_ssl"`     // Use TLS when talking to the endpoint
	IntervalHours int    `koanf:"interval_hours"` // Hours between archive runs
	CutoffDays    int    `koanf:"cutoff_days"`    // Scan age in days before archival
}

// API contains REST server configuration.
type API struct {
	Server    Server    `koanf:"server"`
	RateLimit RateLimit `koanf:"rate_limit"`
	IP        IPConfig  `koanf:"ip"`
}

// Server contains HTTP listener configuration.
type Server struct {
	Host string `koanf:"host"` // Address to listen on
	Port int    `koanf:"port"` // Port to listen on
}

// RateLimit contains request rate limiting configuration.
type RateLimit struct {
	RequestsPerSecond float64 `koanf:"requests_per_second"` // Steady-state request rate per client
	BurstSize         int     `koanf:"burst_size"`          // Maximum burst above the steady rate
	StrikeLimit       int     `koanf:"strike_limit"`        // Violations before a temporary block
	BlockDuration     int     `koanf:"block_duration"`      // Block duration in seconds
}

// IPConfig contains client IP resolution configuration.
type IPConfig struct {
	EnableHeaderCheck bool     `koanf:"enable_header_check"` // Trust forwarding headers from proxies
	TrustedProxies    []string `koanf:"trusted_proxies"`     // CIDRs allowed to set forwarding headers
	AllowedHeaders    []string `koanf:"allowed_headers"`     // Forwarding headers checked in order
	AllowLocalIPs     bool     `koanf:"allow_local_ips"`     // Accept private IPs, for local development
}

// Detection contains analysis pipeline configuration.
type Detection struct {
	MaxContentBytes           int     `koanf:"max_content_bytes"`           // Maximum artifact size in bytes
	AutoBlacklistMinConf      float64 `koanf:"auto_blacklist_min_conf"`     // Confidence floor for auto-extraction
	LocalModelEnabled         bool    `koanf:"local_model_enabled"`         // Enable the local model stage
	LocalModelURL             string  `koanf:"local_model_url"`             // Ollama-compatible inference endpoint
	LocalModelName            string  `koanf:"local_model_name"`            // Model tag served by the local endpoint
	LocalTimeoutSeconds       int     `koanf:"local_timeout_seconds"`       // Per-request local model timeout
	RemoteTimeoutSeconds      int     `koanf:"remote_timeout_seconds"`      // Per-request text model timeout
	VisionTimeoutSeconds      int     `koanf:"vision_timeout_seconds"`      // Per-attempt vision model timeout
	ReputationTimeoutMillis   int     `koanf:"reputation_timeout_millis"`   // Reputation cache lookup timeout
	NotificationTimeoutMillis int     `koanf:"notification_timeout_millis"` // Notification dispatch timeout
}

// Retry contains retry configuration.
type Retry struct {
	MaxRetries uint64 `koanf:"max_retries"` // Maximum retry attempts
	Delay      int    `koanf:"delay"`       // Initial retry delay in milliseconds
	MaxDelay   int    `koanf:"max_delay"`   // Maximum retry delay in milliseconds
}

// CircuitBreaker contains circuit breaker configuration.
type CircuitBreaker struct {
	MaxFailures      uint32 `koanf:"max_failures"`      // Number of failures before circuit opens
	FailureThreshold int    `koanf:"failure_threshold"` // Request timeout in milliseconds
	RecoveryTimeout  int    `koanf:"recovery_timeout"`  // Recovery delay in milliseconds
}

// Telemetry contains error tracing configuration.
type Telemetry struct {
	UptraceDSN  string `koanf:"uptrace_dsn"`  // Uptrace DSN; empty disables telemetry
	ServiceName string `koanf:"service_name"` // Service name reported on spans
}

// Worker contains background worker configuration.
type Worker struct {
	StartupDelay           int `koanf:"startup_delay"`            // Delay in milliseconds before workers start
	StatusHeartbeatSeconds int `koanf:"status_heartbeat_seconds"` // Interval between status heartbeats
}

// LoadConfig loads the configuration from the first config.toml found in the
// search paths. Returns the config along with the directory it was read from.
func LoadConfig() (*Config, string, error) {
	k := koanf.New(".")

	// Get user's home directory
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, "", fmt.Errorf("failed to get home directory: %w", err)
	}

	// Define config search paths
	configPaths := []string{
		".raksha",
		homeDir + "/.raksha/config",
		"/etc/raksha/config",
		"/app/config",
		"/config",
		"config",
		".",
	}

	var usedConfigPath string

	for _, path := range configPaths {
		configPath := path + "/config.toml"
		if err := k.Load(file.Provider(configPath), toml.Parser()); err == nil {
			usedConfigPath = path
			break
		}
	}

	if usedConfigPath == "" {
		return nil, "", fmt.Errorf("%w: config.toml", ErrConfigFileNotFound)
	}

	var config Config
	if err := k.Unmarshal("", &config); err != nil {
		return nil, "", fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := checkConfigVersion(config.Version, CurrentVersion); err != nil {
		return nil, "", err
	}

	return &config, usedConfigPath, nil
}

// checkConfigVersion checks if the config file version is correct.
func checkConfigVersion(current, expected int) error {
	if current == 0 {
		return fmt.Errorf("%w: config.toml", ErrConfigVersionMissing)
	}

	if current != expected {
		return fmt.Errorf("%w: config.toml (got: %d, expected: %d)",
			ErrConfigVersionMismatch, current, expected)
	}

	return nil
}
