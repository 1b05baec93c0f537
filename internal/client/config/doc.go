// Package config loads runtime configuration for the svgkeeper console
// client.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file (see parseJson) selected via flags: -c or -config.
//  3. Command-line flags (see parseFlags), which override earlier values.
//
// # JSON schema
//
//	{
//	  "server_url": "ws://127.0.0.1:8080/ws",
//	  "request_timeout": "15s",
//	  "log_level": "warn"
//	}
package config
