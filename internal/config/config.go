package config

import "time"

// Config holds server configuration values.
type Config struct {
	Addr              string        `mapstructure:"addr" yaml:"addr"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout" yaml:"read_header_timeout"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`

	DatabasePath string `mapstructure:"database_path" yaml:"database_path"`

	LogLevel  string `mapstructure:"log_level" yaml:"log_level"`
	LogFormat string `mapstructure:"log_format" yaml:"log_format"`

	JWTSecret   string        `mapstructure:"jwt_secret" yaml:"jwt_secret"`
	JWTIssuer   string        `mapstructure:"jwt_issuer" yaml:"jwt_issuer"`
	JWTAudience string        `mapstructure:"jwt_audience" yaml:"jwt_audience"`
	JWTTTL      time.Duration `mapstructure:"jwt_ttl" yaml:"jwt_ttl"`

	AIAPIKey    string `mapstructure:"ai_api_key" yaml:"ai_api_key"`
	AIBaseURL   string `mapstructure:"ai_base_url" yaml:"ai_base_url"`
	AIModel     string `mapstructure:"ai_model" yaml:"ai_model"`
	AIMaxTokens int    `mapstructure:"ai_max_tokens" yaml:"ai_max_tokens"`

	ReplayDelay time.Duration `mapstructure:"replay_delay" yaml:"replay_delay"`
}

// Default returns configuration with reasonable starter defaults.
func Default() Config {
	return Config{
		Addr:              ":8080",
		ReadHeaderTimeout: 5 * time.Second,
		ShutdownTimeout:   5 * time.Second,
		DatabasePath:      "courtroom.db",
		LogLevel:          "info",
		LogFormat:         "console",
		JWTIssuer:         "courtroom-server",
		JWTAudience:       "courtroom-client",
		JWTTTL:            24 * time.Hour,
		ReplayDelay:       5 * time.Second,
	}
}

// UpdateFrom overwrites non-zero values from other config into receiver.
func (c *Config) UpdateFrom(other Config) {
	if other.Addr != "" {
		c.Addr = other.Addr
	}
	if other.ReadHeaderTimeout != 0 {
		c.ReadHeaderTimeout = other.ReadHeaderTimeout
	}
	if other.ShutdownTimeout != 0 {
		c.ShutdownTimeout = other.ShutdownTimeout
	}
	if other.DatabasePath != "" {
		c.DatabasePath = other.DatabasePath
	}
	if other.LogLevel != "" {
		c.LogLevel = other.LogLevel
	}
	if other.LogFormat != "" {
		c.LogFormat = other.LogFormat
	}
	if other.JWTSecret != "" {
		c.JWTSecret = other.JWTSecret
	}
	if other.JWTIssuer != "" {
		c.JWTIssuer = other.JWTIssuer
	}
	if other.JWTAudience != "" {
		c.JWTAudience = other.JWTAudience
	}
	if other.JWTTTL != 0 {
		c.JWTTTL = other.JWTTTL
	}
	if other.AIAPIKey != "" {
		c.AIAPIKey = other.AIAPIKey
	}
	if other.AIBaseURL != "" {
		c.AIBaseURL = other.AIBaseURL
	}
	if other.AIModel != "" {
		c.AIModel = other.AIModel
	}
	if other.AIMaxTokens != 0 {
		c.AIMaxTokens = other.AIMaxTokens
	}
	if other.ReplayDelay != 0 {
		c.ReplayDelay = other.ReplayDelay
	}
}
