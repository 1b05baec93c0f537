// Package cli provides the interactive svgkeeper console client: a REPL
// over one WebSocket connection to the server. Typical flow: register or
// log in, then list, show and save SVG documents.
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
package cli
