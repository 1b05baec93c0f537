package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/svgkeeper/internal/flagx"
	"github.com/dmitrijs2005/svgkeeper/internal/timex"
)

// Argon2JSON mirrors cryptox.Argon2Params for config files.
type Argon2JSON struct {
	Time      uint32 `json:"time"`
	MemoryKiB uint32 `json:"memory_kib"`
	Threads   uint8  `json:"threads"`
	KeyLength uint32 `json:"key_length"`
	SaltLen   int    `json:"salt_length"`
}

// JsonConfig is the on-disk shape of the server configuration. Durations
// use timex.Duration so both "10s" and integer nanoseconds parse.
type JsonConfig struct {
	EndpointAddrWS   string         `json:"endpoint_addr_ws"`
	EndpointAddrGRPC string         `json:"endpoint_addr_grpc"`
	DatabaseDriver   string         `json:"database_driver"`
	DatabaseDSN      string         `json:"database_dsn"`
	BlobBackend      string         `json:"blob_backend"`
	S3RootUser       string         `json:"s3_root_user"`
	S3RootPassword   string         `json:"s3_root_password"`
	S3Bucket         string         `json:"s3_bucket"`
	S3Region         string         `json:"s3_region"`
	S3BaseEndpoint   string         `json:"s3_base_endpoint"`
	RequestTimeout   timex.Duration `json:"request_timeout"`
	MaxMessageBytes  int64          `json:"max_message_bytes"`
	LogLevel         string         `json:"log_level"`
	Argon2           Argon2JSON     `json:"argon2"`
}

// parseJson overlays values from the JSON file named by -c / -config onto
// config. Keys absent from the file keep their current values. A missing
// or malformed file panics.
func parseJson(config *Config, osArgs []string) {
	path := flagx.ConfigPath(osArgs)
	if path == "" {
		return
	}

	file, err := os.ReadFile(path)
	if err != nil {
		panic(err)
	}

	c := toJSON(config)
	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}
	fromJSON(c, config)
}

func toJSON(c *Config) *JsonConfig {
	return &JsonConfig{
		EndpointAddrWS:   c.EndpointAddrWS,
		EndpointAddrGRPC: c.EndpointAddrGRPC,
		DatabaseDriver:   c.DatabaseDriver,
		DatabaseDSN:      c.DatabaseDSN,
		BlobBackend:      c.BlobBackend,
		S3RootUser:       c.S3RootUser,
		S3RootPassword:   c.S3RootPassword,
		S3Bucket:         c.S3Bucket,
		S3Region:         c.S3Region,
		S3BaseEndpoint:   c.S3BaseEndpoint,
		RequestTimeout:   timex.Duration{Duration: c.RequestTimeout},
		MaxMessageBytes:  c.MaxMessageBytes,
		LogLevel:         c.LogLevel,
		Argon2: Argon2JSON{
			Time:      c.Argon2.Time,
			MemoryKiB: c.Argon2.MemoryKiB,
			Threads:   c.Argon2.Threads,
			KeyLength: c.Argon2.KeyLength,
			SaltLen:   c.Argon2.SaltLen,
		},
	}
}

func fromJSON(j *JsonConfig, c *Config) {
	c.EndpointAddrWS = j.EndpointAddrWS
	c.EndpointAddrGRPC = j.EndpointAddrGRPC
	c.DatabaseDriver = j.DatabaseDriver
	c.DatabaseDSN = j.DatabaseDSN
	c.BlobBackend = j.BlobBackend
	c.S3RootUser = j.S3RootUser
	c.S3RootPassword = j.S3RootPassword
	c.S3Bucket = j.S3Bucket
	c.S3Region = j.S3Region
	c.S3BaseEndpoint = j.S3BaseEndpoint
	c.RequestTimeout = j.RequestTimeout.Duration
	c.MaxMessageBytes = j.MaxMessageBytes
	c.LogLevel = j.LogLevel
	c.Argon2.Time = j.Argon2.Time
	c.Argon2.MemoryKiB = j.Argon2.MemoryKiB
	c.Argon2.Threads = j.Argon2.Threads
	c.Argon2.KeyLength = j.Argon2.KeyLength
	c.Argon2.SaltLen = j.Argon2.SaltLen
}
