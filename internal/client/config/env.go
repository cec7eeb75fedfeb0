package config

import (
	"errors"
	"io/fs"
	"os"
	"time"

	"github.com/dmitrijs2005/trackmeta/internal/flagx"
	"github.com/joho/godotenv"
)

// parseEnv overlays Config with TRACKMETA_* variables after loading an
// optional dotenv file. Existing process variables win over the file.
//
//	TRACKMETA_SERVER_URL, TRACKMETA_HEALTH_ADDR, TRACKMETA_COOKIE_DB,
//	TRACKMETA_REFRESH_TIMEOUT (Go duration)
func parseEnv(cfg *Config) {
	envFile := flagx.EnvFileFlag()
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		panic(err)
	}

	if v := os.Getenv("TRACKMETA_SERVER_URL"); v != "" {
		cfg.ServerURL = v
	}
	if v := os.Getenv("TRACKMETA_HEALTH_ADDR"); v != "" {
		cfg.HealthEndpointAddr = v
	}
	if v := os.Getenv("TRACKMETA_COOKIE_DB"); v != "" {
		cfg.CookieDBPath = v
	}
	if v := os.Getenv("TRACKMETA_REFRESH_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			panic(err)
		}
		cfg.RefreshTimeout = d
	}
}
