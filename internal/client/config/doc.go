// Package config loads runtime configuration for the trackmeta CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. A dotenv file (-env, default ./.env) and TRACKMETA_* environment variables.
//  3. Optional JSON file (see parseJson) selected via flags: -c or -config.
//  4. Command-line flags (see parseFlags), which override earlier values.
//
// Supported flags
//
//	-a string       base URL of the auth server
//	-health string  address:port of the gRPC health service
//	-db string      cookie jar database file
//	-i int          online status check interval (seconds)
//	-rt int         refresh request timeout (seconds)
//
// # JSON schema
//
// The JSON loader uses timex.Duration for intervals, so values can be either
// strings like "3s" or integer nanoseconds:
//
//	{
//	  "server_url": "http://127.0.0.1:5000",
//	  "health_endpoint_addr": "127.0.0.1:50051",
//	  "cookie_db_path": "trackmeta_client.db",
//	  "refresh_timeout": "10s",
//	  "warning_lead": "60s",
//	  "close_window": "30s",
//	  "online_check_interval": "3s"
//	}
package config
