package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/trackmeta/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags:
//
//	-a string       base URL of the auth server (default from Config)
//	-health string  gRPC health service address
//	-db string      cookie jar database file
//	-i int          online check interval in seconds (default from Config)
//	-rt int         refresh request timeout in seconds
//
// Note: The function filters os.Args to only include the flags it knows about,
// using flagx.FilterArgs, to avoid interference with other components.
func parseFlags(cfg *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-health", "-db", "-i", "-rt"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.ServerURL, "a", cfg.ServerURL, "base URL of the auth server")
	fs.StringVar(&cfg.HealthEndpointAddr, "health", cfg.HealthEndpointAddr, "address and port of the gRPC health service")
	fs.StringVar(&cfg.CookieDBPath, "db", cfg.CookieDBPath, "cookie jar database file")
	onlineCheckInterval := fs.Int("i", int(cfg.OnlineCheckInterval.Seconds()), "online check interval (in seconds)")
	refreshTimeout := fs.Int("rt", int(cfg.RefreshTimeout.Seconds()), "refresh request timeout (in seconds)")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	cfg.OnlineCheckInterval = time.Duration(*onlineCheckInterval) * time.Second
	cfg.RefreshTimeout = time.Duration(*refreshTimeout) * time.Second
}
