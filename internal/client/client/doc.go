// Package client contains the client-side building blocks that talk to the
// trackmeta auth server.
//
// # Overview
//
// The package provides:
//  1. A transport-agnostic API contract (see the Client interface) for
//     Signup, Login, Refresh, SendLog and Ping.
//  2. An HTTP implementation (see HTTPClient) of the JSON API served by the
//     auth server, mapping status codes to sentinel errors.
//  3. A gRPC health pinger (see HealthClient) used by the online-status
//     watcher.
//  4. Local persistence bootstrap utilities (InitDatabase, RunMigrations) for
//     the CLI, wiring an SQLite database and applying embedded goose
//     migrations.
//
// # Error Handling
//
// Failed responses surface as *APIError carrying the server's message.
// APIError unwraps to ErrUnauthorized (401, 403), ErrRateLimited (429) or
// ErrUnavailable (5xx), and transport failures wrap ErrUnavailable, so
// callers can match with errors.Is.
//
// # Concurrency & Contexts
//
// Implementations are safe for concurrent use. All operations accept
// context.Context and honor cancellation and timeouts.
package client
