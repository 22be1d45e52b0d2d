package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// validConfig returns a fully valid configuration for testing.
func validConfig() *Config {
	return &Config{
		App: AppConfig{
			Name:        "quotewidget",
			Version:     "1.0.0",
			Environment: "test",
		},
		Server: ServerConfig{
			Port:            8080,
			Host:            "127.0.0.1",
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    30 * time.Second,
			IdleTimeout:     120 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			MaxRequestSize:  DefaultMaxRequestSize,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
		Client: ClientConfig{
			Timeout: 10 * time.Second,
			Retry: RetryConfig{
				MaxAttempts:     1,
				InitialInterval: 100 * time.Millisecond,
				MaxInterval:     5 * time.Second,
				Multiplier:      2.0,
				JitterFactor:    0.25,
			},
			CircuitBreaker: CircuitBreakerConfig{
				MaxFailures:   5,
				Timeout:       30 * time.Second,
				HalfOpenLimit: 3,
			},
			Transport: TransportConfig{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		Storage: StorageConfig{Path: ":memory:"},
		Sync: SyncConfig{
			Enabled:      true,
			Interval:     5 * time.Minute,
			InitialDelay: 2 * time.Second,
			RemoteOffset: time.Hour,
			BatchSize:    5,
			Category:     "server",
			Path:         "/posts",
		},
		Services: ServicesConfig{
			Feed: ServiceEndpointConfig{
				BaseURL: "https://jsonplaceholder.typicode.com",
				Name:    "quote-feed",
			},
		},
	}
}

func TestConfig_Validate_ValidConfig(t *testing.T) {
	assert.NoError(t, validConfig().Validate())
}

func TestConfig_Validate_Rejects(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "missing app name",
			mutate:  func(c *Config) { c.App.Name = "" },
			wantErr: "app.name is required",
		},
		{
			name:    "unknown environment",
			mutate:  func(c *Config) { c.App.Environment = "staging" },
			wantErr: "app.environment must be one of",
		},
		{
			name:    "port out of range",
			mutate:  func(c *Config) { c.Server.Port = 70000 },
			wantErr: "server.port must be at most 65535",
		},
		{
			name:    "shutdown timeout too short",
			mutate:  func(c *Config) { c.Server.ShutdownTimeout = 10 * time.Millisecond },
			wantErr: "server.shutdown_timeout must be at least",
		},
		{
			name:    "unknown log level",
			mutate:  func(c *Config) { c.Log.Level = "verbose" },
			wantErr: "log.level must be one of",
		},
		{
			name:    "unknown log format",
			mutate:  func(c *Config) { c.Log.Format = "xml" },
			wantErr: "log.format must be one of",
		},
		{
			name: "log file without path",
			mutate: func(c *Config) {
				c.Log.File.Enabled = true
				c.Log.File.Path = ""
			},
			wantErr: "log.file.path is required when",
		},
		{
			name: "telemetry without endpoint",
			mutate: func(c *Config) {
				c.Telemetry.Enabled = true
				c.Telemetry.ServiceName = "quotewidget"
			},
			wantErr: "telemetry.endpoint is required when",
		},
		{
			name:    "sampling rate above one",
			mutate:  func(c *Config) { c.Telemetry.SamplingRate = 1.5 },
			wantErr: "telemetry.sampling_rate must be at most 1",
		},
		{
			name:    "client timeout too short",
			mutate:  func(c *Config) { c.Client.Timeout = time.Millisecond },
			wantErr: "client.timeout must be at least",
		},
		{
			name:    "zero retry attempts",
			mutate:  func(c *Config) { c.Client.Retry.MaxAttempts = 0 },
			wantErr: "client.retry.max_attempts is required",
		},
		{
			name:    "retry multiplier too small",
			mutate:  func(c *Config) { c.Client.Retry.Multiplier = 1.0 },
			wantErr: "client.retry.multiplier must be at least 1.1",
		},
		{
			name:    "zero half open limit",
			mutate:  func(c *Config) { c.Client.CircuitBreaker.HalfOpenLimit = 0 },
			wantErr: "client.circuit_breaker.half_open_limit is required",
		},
		{
			name:    "missing storage path",
			mutate:  func(c *Config) { c.Storage.Path = "" },
			wantErr: "storage.path is required",
		},
		{
			name:    "sync interval too short",
			mutate:  func(c *Config) { c.Sync.Interval = 10 * time.Millisecond },
			wantErr: "sync.interval must be at least",
		},
		{
			name:    "negative initial delay",
			mutate:  func(c *Config) { c.Sync.InitialDelay = -time.Second },
			wantErr: "sync.initial_delay must be at least",
		},
		{
			name:    "zero batch size",
			mutate:  func(c *Config) { c.Sync.BatchSize = 0 },
			wantErr: "sync.batch_size is required",
		},
		{
			name:    "batch size too large",
			mutate:  func(c *Config) { c.Sync.BatchSize = 500 },
			wantErr: "sync.batch_size must be at most 100",
		},
		{
			name:    "relative feed path",
			mutate:  func(c *Config) { c.Sync.Path = "posts" },
			wantErr: `sync.path must start with "/"`,
		},
		{
			name:    "feed url not a url",
			mutate:  func(c *Config) { c.Services.Feed.BaseURL = "not a url" },
			wantErr: "services.feed.base_url must be a valid URL",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := cfg.Validate()

			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestConfig_Validate_AcceptsEdgeValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{name: "trace level", mutate: func(c *Config) { c.Log.Level = "trace" }},
		{name: "pretty format", mutate: func(c *Config) { c.Log.Format = "pretty" }},
		{name: "zero initial delay", mutate: func(c *Config) { c.Sync.InitialDelay = 0 }},
		{name: "sync disabled", mutate: func(c *Config) { c.Sync.Enabled = false }},
		{name: "zero jitter", mutate: func(c *Config) { c.Client.Retry.JitterFactor = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			assert.NoError(t, cfg.Validate())
		})
	}
}

func TestConfig_Validate_MultipleErrors(t *testing.T) {
	cfg := validConfig()
	cfg.App.Name = ""
	cfg.Sync.Category = ""

	err := cfg.Validate()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "app.name")
	assert.Contains(t, err.Error(), "sync.category")
}

func TestFormatFieldPath(t *testing.T) {
	tests := []struct {
		namespace string
		want      string
	}{
		{"Config.server.port", "server.port"},
		{"Config.sync.batch_size", "sync.batch_size"},
		{"Config.services.feed.base_url", "services.feed.base_url"},
		{"Config", "config"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, formatFieldPath(tt.namespace))
	}
}
