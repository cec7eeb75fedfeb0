package config

import "time"

// Config holds runtime settings for the trackmeta CLI.
//
// Fields:
//   - ServerURL: base URL of the auth server REST API. An https URL makes the
//     cookie store emit the Secure attribute.
//   - HealthEndpointAddr: host:port of the server's gRPC health service.
//   - CookieDBPath: SQLite file holding the cookie jar.
//   - RefreshTimeout: upper bound for a /refresh-token round trip.
//   - WarningLead: how long before expiry the warning is shown.
//   - CloseWindow: how long the warning stays up before the session is ended.
//   - OnlineCheckInterval: how often the client probes server reachability.
type Config struct {
	ServerURL           string
	HealthEndpointAddr  string
	CookieDBPath        string
	RefreshTimeout      time.Duration
	WarningLead         time.Duration
	CloseWindow         time.Duration
	OnlineCheckInterval time.Duration
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerURL = "http://127.0.0.1:5000"
	c.HealthEndpointAddr = "127.0.0.1:50051"
	c.CookieDBPath = "trackmeta_client.db"
	c.RefreshTimeout = 10 * time.Second
	c.WarningLead = 60 * time.Second
	c.CloseWindow = 30 * time.Second
	c.OnlineCheckInterval = 3 * time.Second
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// the environment, JSON (if present) and command-line flags (if present).
// Later sources take precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseEnv(cfg)
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
