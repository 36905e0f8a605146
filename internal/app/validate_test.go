package app

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pushfan/internal/config"
)

func validConfig() *config.Config {
	return &config.Config{
		Source:   config.SourceConfig{Driver: "nats", URL: "nats://127.0.0.1:4222"},
		Registry: config.RegistryConfig{Driver: "sqlite", Path: "/var/lib/pushfan/registry.db"},
		Delivery: config.DeliveryConfig{Driver: "dryrun"},
		Runner:   config.RunnerConfig{Workers: 4, RetryMax: 2, RetryBase: "500ms"},
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*config.Config)
		wantErr string
	}{
		{"valid", func(*config.Config) {}, ""},
		{"empty drivers use defaults", func(c *config.Config) {
			c.Source.Driver = ""
			c.Registry = config.RegistryConfig{}
			c.Delivery.Driver = ""
		}, ""},
		{"unknown source driver", func(c *config.Config) { c.Source.Driver = "kafka" }, "source.driver"},
		{"unknown registry driver", func(c *config.Config) { c.Registry.Driver = "postgres" }, "registry.driver"},
		{"sqlite needs path", func(c *config.Config) { c.Registry.Path = "" }, "registry.path"},
		{"bad busy timeout", func(c *config.Config) { c.Registry.BusyTimeout = "fast" }, "registry.busy_timeout"},
		{"unknown delivery driver", func(c *config.Config) { c.Delivery.Driver = "apns" }, "delivery.driver"},
		{"unknown collapse key", func(c *config.Config) { c.Delivery.CollapseKey = "random" }, "delivery.collapse_key"},
		{"known collapse keys", func(c *config.Config) { c.Delivery.CollapseKey = "Category" }, ""},
		{"bad retry base", func(c *config.Config) { c.Runner.RetryBase = "-1s" }, "runner.retry_base"},
		{"bad retry max delay", func(c *config.Config) { c.Runner.RetryMaxDelay = "later" }, "runner.retry_max_delay"},
		{"negative retry max", func(c *config.Config) { c.Runner.RetryMax = -1 }, "runner.retry_max"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validConfig()
			tc.mutate(cfg)
			err := Validate(cfg)
			if tc.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestValidateNil(t *testing.T) {
	assert.Error(t, Validate(nil))
}

func TestRegistryConfig(t *testing.T) {
	got, err := registryConfig(config.RegistryConfig{
		Driver:      "static",
		BusyTimeout: "2s",
		Users: []config.StaticUser{
			{ID: "u-1", DisplayName: "alice", PushToken: "tok-1"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 2*time.Second, got.BusyTimeout)
	require.Len(t, got.Users, 1)
	assert.Equal(t, "alice", got.Users[0].DisplayName)
	assert.Equal(t, "tok-1", got.Users[0].PushToken)

	_, err = registryConfig(config.RegistryConfig{BusyTimeout: "soon"})
	assert.Error(t, err)
}

func TestRunnerConfigDefaults(t *testing.T) {
	got, err := runnerConfig(config.RunnerConfig{})
	require.NoError(t, err)
	assert.Equal(t, 500*time.Millisecond, got.RetryBase)
	assert.Equal(t, 10*time.Second, got.RetryMaxDelay)

	got, err = runnerConfig(config.RunnerConfig{RetryBase: "1s", RetryMaxDelay: "30s"})
	require.NoError(t, err)
	assert.Equal(t, time.Second, got.RetryBase)
	assert.Equal(t, 30*time.Second, got.RetryMaxDelay)
}

func TestCollapseKeySelection(t *testing.T) {
	assert.Equal(t, "wesell_payment", collapseKey("category")("payment"))
	assert.True(t, strings.HasPrefix(collapseKey("uuid")("chat"), "wesell_chat_"))
	assert.True(t, strings.HasPrefix(collapseKey("")("payment"), "wesell_payment_"))
	assert.True(t, strings.HasPrefix(collapseKey("timestamp")("payment"), "wesell_payment_"))
}
