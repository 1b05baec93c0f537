// Package logging is the logger every svgkeeper component receives. The
// server and the console client both use the slog-backed implementation in
// this package; components derive a child with With("module", ...).
package logging

import "context"

// Logger logs structured events. args are alternating keys and values:
//
//	log.Info(ctx, "document saved", "username", owner, "name", name)
//
// Passwords, session tokens and document content are never passed as
// values.
type Logger interface {
	Debug(ctx context.Context, msg string, args ...any)
	Info(ctx context.Context, msg string, args ...any)
	Warn(ctx context.Context, msg string, args ...any)
	Error(ctx context.Context, msg string, args ...any)

	// With returns a child logger that adds args to every entry.
	With(args ...any) Logger
}
