package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	var c Config
	c.LoadDefaults()

	assert.Equal(t, "ws://127.0.0.1:8080/ws", c.ServerURL)
	assert.Equal(t, 15*time.Second, c.RequestTimeout)
	assert.Equal(t, "warn", c.LogLevel)
}

func TestParseFlags(t *testing.T) {
	tests := []struct {
		expected    *Config
		name        string
		args        []string
		expectPanic bool
	}{
		{name: "all flags", args: []string{"-a", "ws://h:1/ws", "-t", "3", "-l", "debug"},
			expected: &Config{ServerURL: "ws://h:1/ws", RequestTimeout: 3 * time.Second, LogLevel: "debug"}},
		{name: "foreign flags ignored", args: []string{"-x", "1", "-a", "ws://h:1/ws"},
			expected: &Config{ServerURL: "ws://h:1/ws", RequestTimeout: 15 * time.Second, LogLevel: "warn"}},
		{name: "bad timeout", args: []string{"-t", "abc"}, expectPanic: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{}
			cfg.LoadDefaults()

			if tt.expectPanic {
				require.Panics(t, func() { parseFlags(cfg, tt.args) })
				return
			}
			require.NotPanics(t, func() { parseFlags(cfg, tt.args) })
			assert.Empty(t, cmp.Diff(tt.expected, cfg))
		})
	}
}

func writeTempJSON(t *testing.T, data map[string]any) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cfg.json")
	b, err := json.Marshal(data)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, b, 0o600))
	return path
}

func TestParseJson(t *testing.T) {
	path := writeTempJSON(t, map[string]any{
		"server_url":      "ws://example:9000/ws",
		"request_timeout": "2s",
	})

	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg, []string{"-config", path})

	assert.Equal(t, "ws://example:9000/ws", cfg.ServerURL)
	assert.Equal(t, 2*time.Second, cfg.RequestTimeout)
	assert.Equal(t, "warn", cfg.LogLevel, "absent keys keep defaults")
}

func TestParseJson_NoFile(t *testing.T) {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg, nil)
	assert.Equal(t, "ws://127.0.0.1:8080/ws", cfg.ServerURL)

	require.Panics(t, func() { parseJson(cfg, []string{"-c", filepath.Join(t.TempDir(), "missing.json")}) })
}

func TestParseJson_ThenFlags(t *testing.T) {
	path := writeTempJSON(t, map[string]any{"server_url": "ws://json/ws"})
	args := []string{"-c", path, "-a", "ws://flag/ws"}

	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg, args)
	parseFlags(cfg, args)
	assert.Equal(t, "ws://flag/ws", cfg.ServerURL)
}
