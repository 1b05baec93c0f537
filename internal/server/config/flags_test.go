package config

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFlags(t *testing.T) {
	tests := []struct {
		expected    *Config
		name        string
		args        []string
		expectPanic bool
	}{
		{
			name: "all flags",
			args: []string{
				"-a", "127.0.0.1:9090", "-g", ":6000", "-t", "pgx", "-d", "postgres://db",
				"-b", "s3", "-u", "user", "-p", "password", "-s", "bucket", "-r", "us-west-1",
				"-e", "http://endpoint", "-timeout", "3", "-m", "1024", "-l", "debug",
			},
			expected: &Config{
				EndpointAddrWS:   "127.0.0.1:9090",
				EndpointAddrGRPC: ":6000",
				DatabaseDriver:   "pgx",
				DatabaseDSN:      "postgres://db",
				BlobBackend:      "s3",
				S3RootUser:       "user",
				S3RootPassword:   "password",
				S3Bucket:         "bucket",
				S3Region:         "us-west-1",
				S3BaseEndpoint:   "http://endpoint",
				RequestTimeout:   3 * time.Second,
				MaxMessageBytes:  1024,
				LogLevel:         "debug",
			},
		},
		{
			name:     "foreign flags are ignored",
			args:     []string{"-test.v", "-x", "1", "-a", ":1"},
			expected: &Config{EndpointAddrWS: ":1"},
		},
		{
			name:        "non-numeric timeout panics",
			args:        []string{"-timeout", "soon"},
			expectPanic: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := &Config{}

			if tt.expectPanic {
				require.Panics(t, func() { parseFlags(config, tt.args) })
				return
			}
			require.NotPanics(t, func() { parseFlags(config, tt.args) })
			assert.Empty(t, cmp.Diff(tt.expected, config))
		})
	}
}
