package common

// Cookie names shared by the client session code and its tests.
const (
	// AuthCookieName holds the bearer credential issued by the server.
	AuthCookieName = "authToken"

	// SessionIDCookieName holds the client log correlation id.
	SessionIDCookieName = "sessionId"
)

// Client log levels accepted by POST /log.
const (
	LogLevelInfo  = "info"
	LogLevelWarn  = "warn"
	LogLevelError = "error"
	LogLevelDebug = "debug"
)

// HealthServiceName is the grpc.health.v1 service name the auth server
// reports next to the overall ("") status.
const HealthServiceName = "trackmeta.auth"
