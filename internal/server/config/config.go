// Package config handles configuration for the server component,
// including defaults, JSON overlay, and command-line flags.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/dmitrijs2005/svgkeeper/internal/common"
	"github.com/dmitrijs2005/svgkeeper/internal/cryptox"
	"github.com/dmitrijs2005/svgkeeper/internal/dbx"
)

// Blob backends for document content.
const (
	BlobBackendDB     = "db"
	BlobBackendS3     = "s3"
	BlobBackendMemory = "memory"
)

// Config holds runtime settings for the svgkeeper server.
//
// Fields:
//   - EndpointAddrWS: bind address for the HTTP/WebSocket endpoint.
//   - EndpointAddrGRPC: bind address for the gRPC endpoint; empty disables it.
//   - DatabaseDriver / DatabaseDSN: "sqlite" (modernc) or "pgx" (PostgreSQL).
//   - BlobBackend: where document content lives, "db" (inline), "s3", or
//     "memory" (process memory, for local runs).
//   - S3RootUser / S3RootPassword / S3Bucket / S3Region / S3BaseEndpoint: object storage settings.
//   - RequestTimeout: upper bound for the storage work of one request.
//   - MaxMessageBytes: largest accepted inbound frame.
//   - LogLevel: debug, info, warn or error.
//   - Argon2: password hashing cost parameters.
type Config struct {
	EndpointAddrWS   string
	EndpointAddrGRPC string
	DatabaseDriver   string
	DatabaseDSN      string
	BlobBackend      string
	S3RootUser       string
	S3RootPassword   string
	S3Bucket         string
	S3Region         string
	S3BaseEndpoint   string
	RequestTimeout   time.Duration
	MaxMessageBytes  int64
	LogLevel         string
	Argon2           cryptox.Argon2Params
}

// LoadDefaults populates Config with development defaults: a local SQLite
// file and inline content storage.
// NOTE: the S3 credentials are MinIO defaults and must be overridden.
func (c *Config) LoadDefaults() {
	c.EndpointAddrWS = ":8080"
	c.EndpointAddrGRPC = ":50051"
	c.DatabaseDriver = dbx.DriverSQLite
	c.DatabaseDSN = "svgkeeper.db"
	c.BlobBackend = BlobBackendDB
	c.S3RootUser = "admin"
	c.S3RootPassword = "secretpassword"
	c.S3Bucket = "svgkeeper"
	c.S3Region = "us-east-1"
	c.S3BaseEndpoint = "http://127.0.0.1:9000/"
	c.RequestTimeout = 10 * time.Second
	c.MaxMessageBytes = common.DefaultMaxMessageBytes
	c.LogLevel = "info"
	c.Argon2 = cryptox.DefaultArgon2Params()
}

// Validate reports the first inconsistent setting.
func (c *Config) Validate() error {
	switch c.DatabaseDriver {
	case dbx.DriverSQLite, dbx.DriverPostgres:
	default:
		return fmt.Errorf("unsupported database driver %q", c.DatabaseDriver)
	}
	if c.DatabaseDSN == "" {
		return errors.New("database DSN is required")
	}
	switch c.BlobBackend {
	case BlobBackendDB, BlobBackendMemory:
	case BlobBackendS3:
		if c.S3Bucket == "" {
			return errors.New("s3 bucket is required for the s3 blob backend")
		}
	default:
		return fmt.Errorf("unsupported blob backend %q", c.BlobBackend)
	}
	if c.EndpointAddrWS == "" {
		return errors.New("websocket endpoint address is required")
	}
	if c.RequestTimeout <= 0 {
		return errors.New("request timeout must be positive")
	}
	if c.MaxMessageBytes <= 0 {
		return errors.New("max message size must be positive")
	}
	if err := c.Argon2.Validate(); err != nil {
		return fmt.Errorf("argon2: %w", err)
	}
	return nil
}

// LoadConfig builds a Config by applying defaults, then overlaying values
// from an optional JSON file and finally from command-line flags.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg, os.Args[1:])
	parseFlags(cfg, os.Args[1:])
	return cfg
}
