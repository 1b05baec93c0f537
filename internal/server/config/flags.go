package config

import (
	"flag"
	"time"

	"github.com/dmitrijs2005/svgkeeper/internal/flagx"
)

var serverFlags = []string{"-a", "-g", "-t", "-d", "-b", "-u", "-p", "-s", "-r", "-e", "-timeout", "-m", "-l"}

// parseFlags populates selected server Config fields from command-line flags.
//
// Supported flags:
//
//	-a string        HTTP/WebSocket bind address (e.g., ":8080")
//	-g string        gRPC bind address, empty disables gRPC
//	-t string        database driver: sqlite | pgx
//	-d string        database DSN
//	-b string        blob backend: db | s3
//	-u string        S3 root user
//	-p string        S3 root password
//	-s string        S3 bucket name
//	-r string        S3 region
//	-e string        S3 base endpoint (e.g., "http://127.0.0.1:9000/")
//	-timeout int     per-request storage timeout, seconds
//	-m int           max inbound message size, bytes
//	-l string        log level
//
// Duration flags are accepted as integers in seconds.
func parseFlags(config *Config, osArgs []string) {
	args := flagx.FilterArgs(osArgs, serverFlags)

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.EndpointAddrWS, "a", config.EndpointAddrWS, "address and port to serve websocket clients")
	fs.StringVar(&config.EndpointAddrGRPC, "g", config.EndpointAddrGRPC, "address and port to serve gRPC clients")
	fs.StringVar(&config.DatabaseDriver, "t", config.DatabaseDriver, "database driver (sqlite|pgx)")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.BlobBackend, "b", config.BlobBackend, "document content backend (db|s3|memory)")
	fs.StringVar(&config.S3RootUser, "u", config.S3RootUser, "S3 root user")
	fs.StringVar(&config.S3RootPassword, "p", config.S3RootPassword, "S3 root password")
	fs.StringVar(&config.S3Bucket, "s", config.S3Bucket, "S3 bucket")
	fs.StringVar(&config.S3Region, "r", config.S3Region, "S3 region")
	fs.StringVar(&config.S3BaseEndpoint, "e", config.S3BaseEndpoint, "S3 base endpoint")

	timeout := fs.Int("timeout", int(config.RequestTimeout.Seconds()), "per-request storage timeout (in seconds)")

	fs.Int64Var(&config.MaxMessageBytes, "m", config.MaxMessageBytes, "max inbound message size (in bytes)")
	fs.StringVar(&config.LogLevel, "l", config.LogLevel, "log level (debug|info|warn|error)")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	config.RequestTimeout = time.Duration(*timeout) * time.Second
}
