package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"PORT", "LOG_LEVEL", "BRIDGES", "BRIDGE_CHECK_INTERVAL", "EVENT_SUBSCRIBER_BUFFER"} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "8888", cfg.Server.Port)
	require.Equal(t, "info", cfg.Logging.Level)
	require.Equal(t, 10*time.Second, cfg.Monitor.CheckInterval)
	require.Equal(t, 5*time.Second, cfg.Monitor.CheckTimeout)
	require.Equal(t, 64, cfg.Events.SubscriberBuffer)
	require.Empty(t, cfg.Monitor.Bridges)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_ASYNC", "true")
	t.Setenv("BRIDGE_CHECK_INTERVAL", "250ms")
	t.Setenv("EVENT_SUBSCRIBER_BUFFER", "8")
	t.Setenv("BRIDGES", "jvb1@example.org=http://10.0.0.1:8080/about/health, jvb2@example.org=http://10.0.0.2:8080/about/health")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "9090", cfg.Server.Port)
	require.True(t, cfg.Logging.EnableAsync)
	require.Equal(t, 250*time.Millisecond, cfg.Monitor.CheckInterval)
	require.Equal(t, 8, cfg.Events.SubscriberBuffer)
	require.Equal(t, map[string]string{
		"jvb1@example.org": "http://10.0.0.1:8080/about/health",
		"jvb2@example.org": "http://10.0.0.2:8080/about/health",
	}, cfg.Monitor.Bridges)
}

func TestLoadRejectsInvalidBridges(t *testing.T) {
	t.Setenv("BRIDGES", "jvb1@example.org")

	_, err := Load()
	require.ErrorContains(t, err, "failed to parse BRIDGES")
}

func TestParseBridges(t *testing.T) {
	tests := []struct {
		name    string
		value   string
		want    map[string]string
		wantErr string
	}{
		{name: "empty", value: "", want: map[string]string{}},
		{name: "trailing comma", value: "a=http://a/health,", want: map[string]string{"a": "http://a/health"}},
		{name: "missing url", value: "a=", wantErr: "expected jid=url"},
		{name: "missing jid", value: "=http://a", wantErr: "expected jid=url"},
		{name: "relative url", value: "a=/about/health", wantErr: "invalid health URL"},
		{name: "duplicate", value: "a=http://a,a=http://b", wantErr: "duplicate bridge"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseBridges(tt.value)
			if tt.wantErr != "" {
				require.ErrorContains(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestValidate(t *testing.T) {
	valid := Config{
		Server:  ServerConfig{Port: "8888"},
		Logging: LoggingConfig{Level: "info"},
		Events:  EventsConfig{SubscriberBuffer: 1},
		Monitor: MonitorConfig{CheckInterval: time.Second, CheckTimeout: time.Second},
	}
	require.NoError(t, valid.Validate())

	c := valid
	c.Server.Port = ""
	require.ErrorContains(t, c.Validate(), "port")

	c = valid
	c.Monitor.CheckInterval = 0
	require.ErrorContains(t, c.Validate(), "interval")

	c = valid
	c.Events.SubscriberBuffer = 0
	require.ErrorContains(t, c.Validate(), "subscriber buffer")

	c = valid
	c.Logging.Level = "verbose"
	require.ErrorContains(t, c.Validate(), "invalid log level")
}
