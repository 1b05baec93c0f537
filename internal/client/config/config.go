package config

import (
	"os"
	"time"
)

// Config holds runtime settings for the svgkeeper console client.
//
// Fields:
//   - ServerURL: WebSocket URL of the server (e.g., "ws://127.0.0.1:8080/ws").
//   - RequestTimeout: how long to wait for one response.
//   - LogLevel: diagnostic log level (debug, info, warn, error).
type Config struct {
	ServerURL      string
	RequestTimeout time.Duration
	LogLevel       string
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerURL = "ws://127.0.0.1:8080/ws"
	c.RequestTimeout = 15 * time.Second
	c.LogLevel = "warn"
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present) and command-line flags (if present). Later sources take
// precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg, os.Args[1:])
	parseFlags(cfg, os.Args[1:])
	return cfg
}
