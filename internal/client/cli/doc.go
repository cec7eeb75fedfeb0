// Package cli provides the interactive trackmeta command-line client.
//
// It wires configuration, the local cookie database, the HTTP and gRPC
// clients, the session lifecycle and the remote log channel behind a simple
// REPL. Typical flow: restore a previous session from cookies, start a
// background connectivity watcher, then execute user commands.
//
// Key features:
//   - Signup / Login / Logout
//   - Session expiry warnings with an extend command
//   - Status of the current session
//   - Shipping log lines to the server
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
// See App, StartOnlineStatusWatcher and runREPL for details.
package cli
