package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	cfg.Database.User = "dealflow"
	return cfg
}

func TestApplyDefaults_FillsZeroValues(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)

	assert.Equal(t, DefaultServerPort, cfg.Server.Port)
	assert.Equal(t, DefaultDBHost, cfg.Database.Host)
	assert.Equal(t, []string{DefaultKafkaBroker}, cfg.Kafka.Brokers)
	assert.Equal(t, DefaultMinIOBucket, cfg.MinIO.Bucket)
	assert.Equal(t, DefaultAssistantTimeout, cfg.Assistant.Timeout)
	assert.Equal(t, DefaultLogLevel, cfg.Log.Level)
}

func TestApplyDefaults_DoesNotOverrideExplicit(t *testing.T) {
	cfg := &Config{}
	cfg.Server.Port = 9999
	cfg.Log.Level = "debug"
	ApplyDefaults(cfg)

	assert.Equal(t, 9999, cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestValidate(t *testing.T) {
	require.NoError(t, validConfig().Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"port out of range", func(c *Config) { c.Server.Port = 0 }},
		{"bad server mode", func(c *Config) { c.Server.Mode = "prod" }},
		{"missing db user", func(c *Config) { c.Database.User = "" }},
		{"missing redis addr", func(c *Config) { c.Redis.Addr = "" }},
		{"no kafka brokers", func(c *Config) { c.Kafka.Brokers = nil }},
		{"missing minio bucket", func(c *Config) { c.MinIO.Bucket = "" }},
		{"assistant url without timeout", func(c *Config) {
			c.Assistant.BaseURL = "http://assistant:9000"
			c.Assistant.Timeout = 0
		}},
		{"negative monthly goal", func(c *Config) { c.Insights.DefaultMonthlyGoal = -1 }},
		{"bad log level", func(c *Config) { c.Log.Level = "verbose" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
